package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/stockpulse/internal/domain/dto"
	"github.com/guttosm/stockpulse/internal/logger"
)

// genericFailure is the only text a client sees for unhandled errors.
const genericFailure = "An unexpected error occurred."

// ErrorHandler turns errors attached with c.Error into a 500 response
// when the handler did not write one itself. Details are logged, not returned.
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 {
		return
	}
	rid, _ := c.Get(RequestIDKey)
	for _, e := range c.Errors {
		logger.L().Error().
			Str("request_id", toString(rid)).
			Str("path", c.Request.URL.Path).
			Err(e.Err).
			Msg("request error")
	}
	if !c.Writer.Written() {
		c.JSON(http.StatusInternalServerError, dto.NewInternalError(genericFailure))
	}
}

// AbortWithError records err on the context and aborts with a JSON body.
// For 5xx statuses msg is sent as the generic error text.
func AbortWithError(c *gin.Context, status int, msg string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	if status >= http.StatusInternalServerError {
		c.AbortWithStatusJSON(status, dto.NewInternalError(msg))
		return
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(msg, nil))
}

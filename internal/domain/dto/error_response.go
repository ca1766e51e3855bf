package dto

import "time"

// ErrorResponse is the standardized JSON error body.
//
// Message carries caller-facing context (validation problems, "not found").
// ErrorDetails is serialized as "error" and must only contain text that is
// safe to show a client; internal failures use a generic sentence.
type ErrorResponse struct {
	Message      string    `json:"message,omitempty" example:"No records found for the given parameters."`
	ErrorDetails string    `json:"error,omitempty" example:"An error occurred while retrieving data."`
	Timestamp    time.Time `json:"timestamp"`
}

// Error implements the error interface.
func (e ErrorResponse) Error() string {
	switch {
	case e.ErrorDetails == "":
		return e.Message
	case e.Message == "":
		return e.ErrorDetails
	default:
		return e.Message + ": " + e.ErrorDetails
	}
}

// NewErrorResponse builds an ErrorResponse; err, when non-nil, becomes ErrorDetails.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{Message: message, Timestamp: time.Now().UTC()}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}

// NewInternalError builds the body for a 5xx response: only a generic error sentence.
func NewInternalError(generic string) ErrorResponse {
	return ErrorResponse{ErrorDetails: generic, Timestamp: time.Now().UTC()}
}

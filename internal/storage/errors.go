package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	pq "github.com/lib/pq"
)

// ErrUnavailable marks failures where the store itself cannot be reached,
// as opposed to a single statement being rejected.
var ErrUnavailable = errors.New("record store unavailable")

// ErrUnsupportedField is returned when an average is requested on a column outside the whitelist.
var ErrUnsupportedField = errors.New("unsupported average field")

// IsUnavailable reports whether err means the store cannot serve any further
// request: broken or closed connections, network errors, SQLSTATE class 08
// (connection exception) and cancelled contexts.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53", "57":
			// connection exception, insufficient resources, operator intervention
			return true
		}
	}
	return false
}

// unavailable wraps err with ErrUnavailable unless it already is, or is a context error.
func unavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}

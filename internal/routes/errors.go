package routes

import (
	"errors"
	"net/http"

	"attendance-kiosk/internal/auth"
	"attendance-kiosk/internal/station"
)

// Routes-specific errors (that don't conflict with other packages)
var (
	// Authentication errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidPIN   = errors.New("invalid PIN")

	// Validation errors
	ErrInvalidRequest   = errors.New("invalid request")
	ErrMissingParameter = errors.New("missing required parameter")
	ErrBadgeRequired    = errors.New("badge_id is required")

	// State errors
	ErrSyncBusy = errors.New("a sync cycle is already running")

	// Internal errors
	ErrInternalServer = errors.New("internal server error")
	ErrDatabaseError  = errors.New("database error")
	ErrCloudError     = errors.New("cloud service error")
)

// errorStatusMap maps errors to HTTP status codes
var errorStatusMap = map[error]int{
	// 400 Bad Request
	ErrInvalidRequest:   http.StatusBadRequest,
	ErrMissingParameter: http.StatusBadRequest,
	ErrBadgeRequired:    http.StatusBadRequest,

	// 401 Unauthorized
	ErrUnauthorized:       http.StatusUnauthorized,
	ErrInvalidPIN:         http.StatusUnauthorized,
	auth.ErrNonValidToken: http.StatusUnauthorized,

	// 409 Conflict
	ErrSyncBusy: http.StatusConflict,

	// 412 Precondition Failed
	station.ErrNotConfigured: http.StatusPreconditionFailed,
	station.ErrNoPIN:         http.StatusPreconditionFailed,

	// 500 Internal Server Error
	ErrInternalServer: http.StatusInternalServerError,
	ErrDatabaseError:  http.StatusInternalServerError,

	// 502 Bad Gateway
	ErrCloudError: http.StatusBadGateway,
}

// GetErrorStatus returns the HTTP status for an error, unwrapping as
// needed. Unknown errors are treated as internal.
func GetErrorStatus(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// GetErrorMessage returns the user-facing message for an error. Internal
// errors hide their details.
func GetErrorMessage(err error) string {
	status := GetErrorStatus(err)
	if status >= 500 {
		return ErrInternalServer.Error()
	}
	return err.Error()
}

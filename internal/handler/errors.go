package handler

import (
	"net/http"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/middleware"
	"github.com/dukerupert/mercato/internal/telemetry"
)

// ErrorResponse writes err as a JSON error envelope.
// Internal errors are reported to Sentry and their details are never exposed.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if domain.ErrorCode(err) == domain.EINTERNAL {
		telemetry.CaptureError(r.Context(), err, map[string]interface{}{
			"op":         domain.ErrorOp(err),
			"request_id": middleware.GetRequestID(r.Context()),
		})
	}
	middleware.WriteError(w, r, err)
}

// ValidationErrorResponse writes a 400 with field errors.
// Non-validation errors fall back to ErrorResponse.
func ValidationErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if !domain.IsValidationError(err) {
		ErrorResponse(w, r, err)
		return
	}
	middleware.WriteError(w, r, err)
}

// NotFoundResponse writes a 404 for unmatched routes.
func NotFoundResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Errorf(domain.ENOTFOUND, "", "The requested resource was not found"))
}

// MethodNotAllowedResponse writes a 405 for known routes hit with the wrong method.
func MethodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	_, _ = w.Write([]byte(`{"success":false,"message":"Method not allowed","error":{"code":"invalid","message":"Method not allowed"}}`))
}

func UnauthorizedResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Unauthorized("", "Authentication required"))
}

func ForbiddenResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Forbidden("", "You don't have permission to access this resource"))
}

// InternalErrorResponse logs err and writes a generic 500.
func InternalErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	ErrorResponse(w, r, domain.Internal(err, "", "An unexpected error occurred"))
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	return middleware.ErrorCodeToHTTPStatus(code)
}

package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/mercato/internal/domain"
)

// ============================================================================
// MIDDLEWARE ERROR RESPONSE HELPERS
// ============================================================================
//
// These helpers write the same error envelope as the handler package.
// They are self-contained because handler imports middleware for GetLogger.

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Error   errorBody `json:"error"`
}

// WriteError writes err as a JSON error envelope with the status for its code.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	status := ErrorCodeToHTTPStatus(code)

	logger := GetLogger(r.Context())
	event := logger.Info()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.
		Err(err).
		Str("code", code).
		Str("op", domain.ErrorOp(err)).
		Str("path", r.URL.Path).
		Str("method", r.Method).
		Int("status", status).
		Msg("request failed")

	body := errorEnvelope{
		Success: false,
		Message: message,
		Error: errorBody{
			Code:    code,
			Message: message,
			Fields:  domain.GetValidationFields(err),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, domain.Unauthorized("", message))
}

func respondForbidden(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, domain.ErrAdminRequired)
}

func respondTooManyRequests(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, domain.Errorf(domain.ERATELIMIT, "", "Too many requests"))
}

func respondTooLarge(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, domain.Errorf(domain.ETOOLARGE, "", "%s", message))
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID, domain.EINVALIDSTATE, domain.ESTOCK, domain.ECOUPON, domain.EAMOUNT:
		return http.StatusBadRequest // 400
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized // 401
	case domain.EFORBIDDEN:
		return http.StatusForbidden // 403
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT:
		return http.StatusConflict // 409
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge // 413
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	case domain.EUPSTREAM:
		return http.StatusBadGateway // 502
	case domain.EINTERNAL:
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

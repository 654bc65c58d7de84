// Package handler holds the JSON envelope, request decoding and error
// responses shared by the API and webhook handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/middleware"
	"github.com/dukerupert/mercato/internal/router"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Envelope is the success response body.
type Envelope struct {
	Success    bool               `json:"success"`
	Data       any                `json:"data,omitempty"`
	Message    string             `json:"message,omitempty"`
	Pagination *domain.Pagination `json:"pagination,omitempty"`
}

// JSON writes data in a success envelope.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	write(w, r, status, Envelope{Success: true, Data: data})
}

// Message writes a success envelope with only a message.
func Message(w http.ResponseWriter, r *http.Request, status int, message string) {
	write(w, r, status, Envelope{Success: true, Message: message})
}

// List writes a page of results with pagination metadata.
func List(w http.ResponseWriter, r *http.Request, data any, p domain.Pagination) {
	write(w, r, http.StatusOK, Envelope{Success: true, Data: data, Pagination: &p})
}

func write(w http.ResponseWriter, r *http.Request, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		middleware.GetLogger(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	// Report field errors under their JSON names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
}

// Decode reads a JSON body into dst and validates its struct tags.
// An empty body decodes as {} so optional-body endpoints work.
func Decode(r *http.Request, op string, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.Errorf(domain.ETOOLARGE, op, "Request body too large")
		}
		return domain.WrapError(err, domain.EINVALID, op, "Request body is not valid JSON")
	}

	return Validate(op, dst)
}

// Validate runs struct-tag validation and converts failures to a ValidationError.
func Validate(op string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.WrapError(err, domain.EINVALID, op, "Invalid request")
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = fieldMessage(fe)
	}
	return &domain.ValidationError{Op: op, Fields: fields}
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}

// PathUUID parses a UUID path parameter.
func PathUUID(r *http.Request, name, op string) (uuid.UUID, error) {
	raw := router.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(op, name, "must be a valid UUID")
	}
	return id, nil
}

// Requester returns the authenticated principal or an unauthorized error.
func Requester(r *http.Request) (domain.Requester, error) {
	req, ok := domain.RequesterFromContext(r.Context())
	if !ok {
		return domain.Requester{}, domain.Unauthorized("", "Authentication required")
	}
	return req, nil
}

package api

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	customerUser = &domain.User{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Email: "ada@example.com", Role: domain.RoleCustomer}
	adminUser    = &domain.User{ID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Email: "ops@example.com", Role: domain.RoleAdmin}
)

type request struct {
	method  string
	path    string
	body    string
	user    *domain.User
	headers map[string]string
}

func serve(t *testing.T, r *router.Router, req request) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if req.body != "" {
		body = strings.NewReader(req.body)
	}
	httpReq := httptest.NewRequest(req.method, req.path, body)
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}
	if req.user != nil {
		httpReq = httpReq.WithContext(domain.NewContextWithUser(httpReq.Context(), req.user))
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httpReq)
	return rec
}

type envelope struct {
	Success    bool               `json:"success"`
	Data       json.RawMessage    `json:"data"`
	Message    string             `json:"message"`
	Pagination *domain.Pagination `json:"pagination"`
	Error      *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env), "body: %s", rec.Body.String())
	return env
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	env := decode(t, rec)
	require.NotNil(t, env.Error, "expected an error body")
	return env.Error.Code
}

// extract returns one top-level field of a JSON object.
func extract(t *testing.T, raw json.RawMessage, field string) json.RawMessage {
	t.Helper()
	var obj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &obj))
	v, ok := obj[field]
	require.True(t, ok, "field %q missing from %s", field, raw)
	return v
}

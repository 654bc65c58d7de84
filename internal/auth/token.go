// Package auth verifies bearer tokens issued by the external identity service.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var (
	ErrTokenMissing = &domain.Error{Code: domain.EUNAUTHORIZED, Message: "Authentication required"}
	ErrTokenInvalid = &domain.Error{Code: domain.EUNAUTHORIZED, Message: "Invalid or expired token"}
)

// TokenVerifier checks HS256 tokens and turns their claims into a domain user.
type TokenVerifier struct {
	secret   []byte
	issuer   string
	audience string
	parser   *jwt.Parser
}

// NewTokenVerifier creates a verifier. Empty issuer or audience skips that check.
func NewTokenVerifier(secret, issuer, audience string) *TokenVerifier {
	return &TokenVerifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Verify parses tokenStr and returns the user it identifies.
//
// Required claims: sub (UUID) and email. role defaults to customer.
func (v *TokenVerifier) Verify(tokenStr string) (*domain.User, error) {
	const op = "auth.verify"

	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, domain.WithOp(ErrTokenMissing, op)
	}

	claims := jwt.MapClaims{}
	if _, err := v.parser.ParseWithClaims(tokenStr, claims, v.keyfunc); err != nil {
		return nil, domain.WrapError(err, domain.EUNAUTHORIZED, op, ErrTokenInvalid.Message)
	}

	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return nil, domain.WrapError(errors.New("issuer mismatch"), domain.EUNAUTHORIZED, op, ErrTokenInvalid.Message)
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return nil, domain.WrapError(errors.New("audience mismatch"), domain.EUNAUTHORIZED, op, ErrTokenInvalid.Message)
	}

	subject, _ := claims["sub"].(string)
	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, domain.WrapError(fmt.Errorf("subject %q: %w", subject, err), domain.EUNAUTHORIZED, op, ErrTokenInvalid.Message)
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return nil, domain.WrapError(errors.New("email claim missing"), domain.EUNAUTHORIZED, op, ErrTokenInvalid.Message)
	}

	role := domain.RoleCustomer
	if raw, ok := claims["role"].(string); ok && raw != "" {
		role = domain.Role(raw)
		if !role.Valid() {
			return nil, domain.WrapError(fmt.Errorf("unknown role %q", raw), domain.EUNAUTHORIZED, op, ErrTokenInvalid.Message)
		}
	}

	name, _ := claims["name"].(string)

	return &domain.User{
		ID:    id,
		Email: strings.ToLower(email),
		Name:  name,
		Role:  role,
	}, nil
}

func (v *TokenVerifier) keyfunc(token *jwt.Token) (any, error) {
	if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	return v.secret, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

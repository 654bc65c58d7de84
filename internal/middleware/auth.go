package middleware

import (
	"context"
	"net/http"

	"github.com/dukerupert/mercato/internal/auth"
	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/repository"
)

// TokenVerifier turns a bearer token into the user it identifies.
type TokenVerifier interface {
	Verify(token string) (*domain.User, error)
}

// UserSyncer mirrors token identities into the local users table.
type UserSyncer interface {
	UpsertUser(ctx context.Context, arg repository.UpsertUserParams) error
}

// Authenticate verifies the bearer token, if any, and adds the user to the request context.
// Requests without an Authorization header continue anonymously; a present but
// invalid token is rejected with 401.
func Authenticate(verifier TokenVerifier, users UserSyncer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := auth.BearerToken(header)
			if !ok {
				respondUnauthorized(w, r, "Authorization header must use the Bearer scheme")
				return
			}

			user, err := verifier.Verify(token)
			if err != nil {
				WriteError(w, r, err)
				return
			}

			// Orders, carts and addresses reference users by id.
			if users != nil {
				err := users.UpsertUser(r.Context(), repository.UpsertUserParams{
					ID:    user.ID,
					Email: user.Email,
					Name:  user.Name,
					Role:  string(user.Role),
				})
				if err != nil {
					WriteError(w, r, domain.Internal(err, "auth.sync_user", "failed to sync user"))
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(domain.NewContextWithUser(r.Context(), user)))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserFromContext(r.Context()) == nil {
			respondUnauthorized(w, r, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin ensures the user is an admin, returning 403 if not
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil {
			respondUnauthorized(w, r, "Authentication required")
			return
		}
		if user.Role != domain.RoleAdmin {
			respondForbidden(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserFromContext retrieves the user from the request context
// Returns nil if no user is authenticated
func GetUserFromContext(ctx context.Context) *domain.User {
	return domain.UserFromContext(ctx)
}

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/georgemunganga/shopfront-api/internal/apperr"
	"github.com/georgemunganga/shopfront-api/internal/modules/user"
)

var (
	ErrMissingToken = apperr.New(apperr.KindUnauthenticated, "token_missing", "authorization token not provided")
	ErrUserNotFound = apperr.New(apperr.KindUnauthenticated, "user_not_found", "user not found")
	ErrForbidden    = apperr.Forbidden("you do not have permission to access this resource")
)

// UserLookup resolves a token's user id to a live account with its roles.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*user.User, error)
}

// Guard authenticates requests from their bearer token and gates role-restricted
// operations. The user and role set are loaded once per request.
type Guard struct {
	tokens    *TokenIssuer
	users     UserLookup
	adminRole string
}

func NewGuard(tokens *TokenIssuer, users UserLookup, adminRole string) *Guard {
	return &Guard{tokens: tokens, users: users, adminRole: adminRole}
}

// Resolve verifies the Authorization header value and loads the user it names.
func (g *Guard) Resolve(ctx context.Context, header string) (*user.User, error) {
	raw := strings.TrimSpace(header)
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	if raw == "" {
		return nil, ErrMissingToken
	}
	id, err := g.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}
	u, err := g.users.GetUserByID(ctx, id.UserID)
	if errors.Is(err, user.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate rejects requests without a valid token and stores the caller in the
// request context for user.FromContext.
func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := g.Resolve(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			deny(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(user.NewContext(r.Context(), u)))
	})
}

// RequireRole lets the request through only when the caller holds role. It must run
// after Authenticate.
func (g *Guard) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := user.FromContext(r.Context())
			if !ok {
				deny(w, ErrMissingToken)
				return
			}
			if !u.HasRole(role) {
				deny(w, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Guard) RequireAdmin(next http.Handler) http.Handler {
	return g.RequireRole(g.adminRole)(next)
}

// IsAdmin reports whether the authenticated caller holds the administrator role.
func (g *Guard) IsAdmin(ctx context.Context) bool {
	u, ok := user.FromContext(ctx)
	return ok && u.HasRole(g.adminRole)
}

// Authorize enforces the self-access rule: callers reach only resources they own
// unless they are administrators.
func (g *Guard) Authorize(ctx context.Context, ownerID int64) error {
	u, ok := user.FromContext(ctx)
	if !ok {
		return ErrMissingToken
	}
	if u.ID == ownerID || u.HasRole(g.adminRole) {
		return nil
	}
	return ErrForbidden
}

func deny(w http.ResponseWriter, err error) {
	respond(w, apperr.Status(err), map[string]string{"error": err.Error()})
}

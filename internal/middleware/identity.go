package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/pkordes/placebook/internal/domain"
	"github.com/pkordes/placebook/internal/logger"
)

type userKey struct{}

// WithUser returns a copy of ctx carrying the acting user.
func WithUser(ctx context.Context, user domain.UserID) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the acting user, or the zero UserID for anonymous requests.
func UserFromContext(ctx context.Context) domain.UserID {
	u, _ := ctx.Value(userKey{}).(domain.UserID)
	return u
}

// NewIdentity returns a middleware that resolves the acting user from an
// HS256 bearer token signed with secret. The token's subject becomes the
// UserID and is added to the request logger. Requests without an Authorization header pass through anonymously;
// anything that is not a valid bearer token is rejected with 401.
func NewIdentity(secret []byte) func(http.Handler) http.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "authorization header must be a bearer token")
				return
			}

			var claims jwt.RegisteredClaims
			if _, err := parser.ParseWithClaims(raw, &claims, keyFunc); err != nil || claims.Subject == "" {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid bearer token")
				return
			}

			ctx := WithUser(r.Context(), domain.UserID(claims.Subject))
			ctx = logger.With(ctx, zap.String("user_id", claims.Subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

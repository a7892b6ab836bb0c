package middleware

import (
	"context"
	"net/http"
	"strings"

	"creativelab/internal/auth"
)

type userKey string

const userEmailKey userKey = "user_email"

// AuthJWT guards routes behind a bearer session token. The authenticated
// account email is stored on the request context.
func AuthJWT(tokens *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "invalid authorization", http.StatusUnauthorized)
				return
			}
			email, err := tokens.Verify(parts[1])
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUserEmail(r.Context(), email)))
		})
	}
}

func UserEmailFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userEmailKey).(string); ok {
		return v
	}
	return ""
}

func ContextWithUserEmail(ctx context.Context, email string) context.Context {
	if strings.TrimSpace(email) == "" {
		return ctx
	}
	return context.WithValue(ctx, userEmailKey, email)
}

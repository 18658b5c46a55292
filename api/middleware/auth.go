package middleware

import (
	"net/http"
	"strings"

	"github.com/rohanmehta-dev/vaanijya-backend/api/responses"
	pkgauth "github.com/rohanmehta-dev/vaanijya-backend/pkg/auth"
	apperrors "github.com/rohanmehta-dev/vaanijya-backend/pkg/errors"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the claims.
func Auth(tokens *pkgauth.TokenManager, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, apperrors.New(apperrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, apperrors.New(apperrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := tokens.Parse(token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID)
			ctx = WithRole(ctx, string(claims.Role))

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    claims.UserID,
					"actor_role": string(claims.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Infinity2209/user/cmd/panelapi/internal/auth"
)

// NewAuthnMiddleware verifies a bearer token when one is presented and stores
// the principal on the request context. Requests without a valid token pass
// through anonymously; the authz middleware decides whether that is allowed.
func NewAuthnMiddleware(deps AuthnDependencies) (func(http.Handler) http.Handler, error) {
	if deps.Tokens == nil {
		return nil, errors.New("authn middleware requires a token issuer")
	}
	log := discardIfNil(deps.Logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := deps.Tokens.Verify(token)
			if err != nil {
				log.WithError(err).WithField("path", r.URL.Path).Debug("rejected bearer token")
				next.ServeHTTP(w, r)
				return
			}

			principal := auth.Principal{
				Identity: claims.Identity(),
				TokenID:  claims.ID,
				Claims:   claims,
			}
			if claims.ExpiresAt != nil {
				principal.ExpiresAt = claims.ExpiresAt.Time
			}
			ctx := auth.SetPrincipalContext(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}, nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Infinity2209/user/cmd/panelapi/internal/auth"
	"github.com/Infinity2209/user/pkg/access"
	"github.com/sirupsen/logrus"
)

// NewAuthzMiddleware constructs a Chi middleware that checks each resource
// request against the access gate. Requests outside the protected resources,
// pre-flight probes and unsupported methods pass through untouched.
func NewAuthzMiddleware(deps AuthzDependencies) (func(http.Handler) http.Handler, error) {
	if deps.Gate == nil {
		return nil, errors.New("authz middleware requires an access gate")
	}
	log := discardIfNil(deps.Logger)

	kinds := make(map[string]struct{}, len(deps.Kinds))
	for _, k := range deps.Kinds {
		kinds[k] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capability, matched := classifyResourceRequest(r, kinds)
			if !matched {
				next.ServeHTTP(w, r)
				return
			}

			var identity *access.Identity
			if principal, ok := auth.GetPrincipalFromContext(r.Context()); ok {
				identity = &principal.Identity
			}

			outcome, err := deps.Gate.Check(identity, capability)
			if err != nil {
				log.WithError(err).WithField("capability", capability).Error("authorization check failed")
				writeError(w, http.StatusInternalServerError, "authorization error")
				return
			}

			switch outcome {
			case access.OutcomeAllow:
				next.ServeHTTP(w, r)
			case access.OutcomeLogin:
				unauthenticated(w)
			default:
				log.WithFields(logrus.Fields{
					"principal":  identity.Email,
					"role":       identity.Role,
					"capability": capability,
				}).Info("denied")
				forbidden(w)
			}
		})
	}, nil
}

// classifyResourceRequest maps "/{resource}[/{id}]" plus the method to a capability.
func classifyResourceRequest(r *http.Request, kinds map[string]struct{}) (capability string, matched bool) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) == 0 || len(parts) > 2 {
		return "", false
	}
	kind := parts[0]
	if _, ok := kinds[kind]; !ok {
		return "", false
	}
	hasID := len(parts) == 2 && parts[1] != ""

	switch r.Method {
	case http.MethodGet:
		if hasID {
			return kind + ":read", true
		}
		return kind + ":list", true
	case http.MethodPost:
		return kind + ":create", true
	case http.MethodPut:
		return kind + ":update", true
	case http.MethodDelete:
		return kind + ":delete", true
	default:
		// OPTIONS and unsupported methods are answered by the handler.
		return "", false
	}
}

package middleware

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/Infinity2209/user/cmd/panelapi/internal/auth"
	"github.com/Infinity2209/user/pkg/access"
	"github.com/sirupsen/logrus"
)

// AuthnDependencies bundles collaborators required by the authentication middleware.
type AuthnDependencies struct {
	Tokens *auth.TokenIssuer
	Logger logrus.FieldLogger
}

// AuthzDependencies provides the collaborators needed for authorization decisions.
type AuthzDependencies struct {
	Gate *access.Gate
	// Kinds lists the resource path segments the gate protects, e.g. "users".
	Kinds  []string
	Logger logrus.FieldLogger
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}

func unauthenticated(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "Unauthenticated")
}

func forbidden(w http.ResponseWriter) {
	writeError(w, http.StatusForbidden, "Forbidden")
}

func discardIfNil(l logrus.FieldLogger) logrus.FieldLogger {
	if l != nil {
		return l
	}
	nop := logrus.New()
	nop.SetOutput(io.Discard)
	return nop
}

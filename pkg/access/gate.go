// Package access implements the role gate evaluated before any protected
// panel operation. The same gate runs on the server boundary (against the
// bearer token's identity) and inside the SDK (against the local session).
package access

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var casbinModelContent string

// Identity is the authenticated caller as seen by the gate.
type Identity struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Outcome is the result of a gate evaluation.
type Outcome int

const (
	// OutcomeAllow lets the operation proceed to the resource handler.
	OutcomeAllow Outcome = iota
	// OutcomeLogin means there is no session; the caller is sent to login.
	OutcomeLogin
	// OutcomeDefaultView means the role is insufficient; the caller is sent
	// to the default view.
	OutcomeDefaultView
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllow:
		return "allow"
	case OutcomeLogin:
		return "login"
	case OutcomeDefaultView:
		return "default-view"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Gate evaluates identities against a per-capability role policy.
type Gate struct {
	enforcer *casbin.SyncedEnforcer
	policy   Policy
}

// NewGate builds a Casbin-backed gate from the given policy.
func NewGate(policy Policy) (*Gate, error) {
	m, err := model.NewModelFromString(casbinModelContent)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	policy = policy.Clone()
	rules := make([][]string, 0, len(policy))
	for capability, roles := range policy {
		for _, role := range roles {
			rules = append(rules, []string{role, capability})
		}
	}
	if len(rules) > 0 {
		if _, err := enforcer.AddPolicies(rules); err != nil {
			return nil, fmt.Errorf("load casbin policies: %w", err)
		}
	}

	return &Gate{enforcer: enforcer, policy: policy}, nil
}

// MustNewGate is NewGate for package-level defaults. It panics on error.
func MustNewGate(policy Policy) *Gate {
	g, err := NewGate(policy)
	if err != nil {
		panic(err)
	}
	return g
}

// Check decides whether id may use capability. A nil identity is anonymous.
func (g *Gate) Check(id *Identity, capability string) (Outcome, error) {
	if id == nil {
		return OutcomeLogin, nil
	}

	roles, protected := g.policy[capability]
	if !protected || len(roles) == 0 {
		return OutcomeAllow, nil
	}

	allowed, err := g.enforcer.Enforce(id.Role, capability)
	if err != nil {
		return OutcomeDefaultView, fmt.Errorf("enforce %s for role %q: %w", capability, id.Role, err)
	}
	if !allowed {
		return OutcomeDefaultView, nil
	}
	return OutcomeAllow, nil
}

// Allowed is Check collapsed to a boolean; enforcement errors deny.
func (g *Gate) Allowed(id *Identity, capability string) bool {
	outcome, err := g.Check(id, capability)
	return err == nil && outcome == OutcomeAllow
}

// Roles returns the roles permitted for capability, sorted.
func (g *Gate) Roles(capability string) []string {
	roles := append([]string(nil), g.policy[capability]...)
	sort.Strings(roles)
	return roles
}

// Capabilities lists the protected capabilities role may use, sorted.
func (g *Gate) Capabilities(role string) []string {
	var out []string
	for capability := range g.policy {
		if ok, err := g.enforcer.Enforce(role, capability); err == nil && ok {
			out = append(out, capability)
		}
	}
	sort.Strings(out)
	return out
}

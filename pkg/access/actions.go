package access

// Role names carried by identities and referenced by policies.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User management capabilities
const (
	// UsersList allows listing all users
	UsersList = "users:list"

	// UsersRead allows reading a single user
	UsersRead = "users:read"

	// UsersCreate allows creating users
	UsersCreate = "users:create"

	// UsersUpdate allows updating users
	UsersUpdate = "users:update"

	// UsersDelete allows deleting users
	UsersDelete = "users:delete"
)

// Product catalogue capabilities
const (
	// ProductsList allows listing all products
	ProductsList = "products:list"

	// ProductsRead allows reading a single product
	ProductsRead = "products:read"

	// ProductsCreate allows creating products
	ProductsCreate = "products:create"

	// ProductsUpdate allows updating products
	ProductsUpdate = "products:update"

	// ProductsDelete allows deleting products
	ProductsDelete = "products:delete"
)

// View capabilities (navigable screens without a backing resource)
const (
	DashboardView = "dashboard:view"
	SettingsView  = "settings:view"
)

// Policy maps each protected capability to the roles allowed to use it.
// A capability that is absent, or present with no roles, is open to any
// authenticated identity.
type Policy map[string][]string

// DefaultPolicy returns the policy shipped with the panel.
func DefaultPolicy() Policy {
	adminOnly := []string{RoleAdmin}
	anyRole := []string{RoleAdmin, RoleUser}

	return Policy{
		UsersList:   adminOnly,
		UsersRead:   adminOnly,
		UsersCreate: adminOnly,
		UsersUpdate: adminOnly,
		UsersDelete: adminOnly,

		ProductsList:   anyRole,
		ProductsRead:   anyRole,
		ProductsCreate: adminOnly,
		ProductsUpdate: adminOnly,
		ProductsDelete: adminOnly,

		DashboardView: anyRole,
		SettingsView:  adminOnly,
	}
}

// Clone returns a deep copy of the policy.
func (p Policy) Clone() Policy {
	out := make(Policy, len(p))
	for capability, roles := range p {
		out[capability] = append([]string(nil), roles...)
	}
	return out
}

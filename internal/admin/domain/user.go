package domain

// Dashboard roles. Only a superadmin may manage users.
const (
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// ValidRole reports whether role is one of the known dashboard roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperadmin
}

// User is one record of the credential store. The whole collection is
// persisted as a single encrypted blob; the JSON tags must stay stable so
// stores written before encryption was introduced keep parsing.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"` // argon2 encoded, never returned to clients
	Role     string `json:"role"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// Public is the client-safe projection of a user record.
type Public struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// Public strips the password hash.
func (u User) Public() Public {
	return Public{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
		Name:     u.Name,
		Email:    u.Email,
	}
}

package identity

import "time"

// Role is the account's tier in the administrative hierarchy.
type Role string

const (
	RoleUser       Role = "USER"
	RoleSeller     Role = "SELLER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Roles lists every assignable role.
var Roles = []Role{RoleUser, RoleSeller, RoleAdmin, RoleSuperAdmin}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// IsPrivileged reports whether r may act on other accounts.
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// PhoneNumber is a phone number split the way libphonenumber resolves it.
type PhoneNumber struct {
	CountryCode string `json:"country_code"`
	ISOCode     string `json:"iso_code"`
	Number      string `json:"number"`
}

// Confirmation tracks proof of control over the registered email.
type Confirmation struct {
	Status      bool
	Token       string
	Code        string
	ConfirmedAt *time.Time
}

// PasswordReset tracks an outstanding reset request. An empty Token means no
// reset is pending.
type PasswordReset struct {
	Token       string
	ExpiresAt   *time.Time
	LastResetAt *time.Time
}

// Pending reports whether a reset token exists and is still valid at now.
func (p PasswordReset) Pending(now time.Time) bool {
	return p.Token != "" && p.ExpiresAt != nil && !now.UTC().After(p.ExpiresAt.UTC())
}

// Account is a registered identity.
type Account struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string
	Phone         PhoneNumber
	Timezone      string
	Role          Role
	Consent       bool
	Confirmation  Confirmation
	PasswordReset PasswordReset
	LastLoginAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Profile is the client-safe projection of an Account.
type Profile struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Phone       PhoneNumber `json:"phone_number"`
	Timezone    string      `json:"timezone"`
	Role        Role        `json:"role"`
	Confirmed   bool        `json:"confirmed"`
	ConfirmedAt *time.Time  `json:"confirmed_at"`
	LastLoginAt *time.Time  `json:"last_login_at"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Profile strips credentials and one-time secrets from the account.
func (a Account) Profile() Profile {
	return Profile{
		ID:          a.ID,
		Name:        a.Name,
		Email:       a.Email,
		Phone:       a.Phone,
		Timezone:    a.Timezone,
		Role:        a.Role,
		Confirmed:   a.Confirmation.Status,
		ConfirmedAt: a.Confirmation.ConfirmedAt,
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
	}
}

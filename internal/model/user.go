package model

import "time"

// Role is the authorization level of a profile.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// UserProfile is created lazily on a user's first authenticated session.
type UserProfile struct {
	ID        string    `json:"id" db:"id"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Credential is an email/password login for a profile.
type Credential struct {
	UserID       string    `db:"user_id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Disabled     bool      `db:"disabled"`
	CreatedAt    time.Time `db:"created_at"`
}

// Identity is the authenticated principal of a request.
type Identity struct {
	UserID    string    `json:"userId"`
	Role      Role      `json:"role"`
	Anonymous bool      `json:"anonymous"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// LoginRequest is the credential sign-in body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CustomTokenRequest is the custom-token sign-in body.
type CustomTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// Session is returned by every sign-in operation.
type Session struct {
	Token         string         `json:"token,omitempty"`
	ExpiresAt     time.Time      `json:"expiresAt"`
	Identity      Identity       `json:"identity"`
	Profile       UserProfile    `json:"profile"`
	Notifications []Notification `json:"notifications,omitempty"`
}

package models

import (
	"crypto/subtle"
	"time"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleMember     UserRole = "Member"
	RoleAdmin      UserRole = "Admin"
	RoleSuperAdmin UserRole = "SuperAdmin"
)

// AllRoles lists every known role.
var AllRoles = []UserRole{RoleMember, RoleAdmin, RoleSuperAdmin}

// DefaultRole is assigned to every self-registered account.
const DefaultRole = RoleMember

// User represents an application user stored in the users table. The record
// is the only place a refresh token lives: issuing a new one overwrites it.
type User struct {
	ID                     string     `db:"id" json:"id"`
	UserName               string     `db:"username" json:"userName"`
	NormalizedUserName     string     `db:"normalized_username" json:"-"`
	Email                  string     `db:"email" json:"email"`
	NormalizedEmail        string     `db:"normalized_email" json:"-"`
	PasswordHash           string     `db:"password_hash" json:"-"`
	FirstName              string     `db:"first_name" json:"firstName"`
	LastName               string     `db:"last_name" json:"lastName"`
	ImageURL               string     `db:"image_url" json:"imageUrl"`
	IsActive               bool       `db:"is_active" json:"isActive"`
	RefreshToken           *string    `db:"refresh_token" json:"-"`
	RefreshTokenExpiryTime *time.Time `db:"refresh_token_expiry_time" json:"-"`
	CreatedAt              time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updatedAt"`
}

// HasRefreshToken reports whether token equals the stored refresh token and
// the stored expiry lies strictly after now.
func (u *User) HasRefreshToken(token string, now time.Time) bool {
	if u == nil || u.RefreshToken == nil || u.RefreshTokenExpiryTime == nil {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(*u.RefreshToken), []byte(token)) != 1 {
		return false
	}
	return u.RefreshTokenExpiryTime.After(now)
}

package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// RefreshTokenRequest exchanges an access token (expired or not) plus the
// matching refresh token for a new pair.
type RefreshTokenRequest struct {
	Token        string `json:"token" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required"`
	Email     string `json:"email" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// TokenResponse is the result of a token issuance.
type TokenResponse struct {
	Token                  string    `json:"token"`
	RefreshToken           string    `json:"refreshToken"`
	RefreshTokenExpiryTime time.Time `json:"refreshTokenExpiryTime"`
}

// UserDto projects a user together with freshly issued tokens.
type UserDto struct {
	UserName               string    `json:"userName"`
	Email                  string    `json:"email"`
	FirstName              string    `json:"firstName"`
	LastName               string    `json:"lastName"`
	ImageURL               string    `json:"imageUrl"`
	IsActive               bool      `json:"isActive"`
	Token                  string    `json:"token"`
	RefreshToken           string    `json:"refreshToken"`
	RefreshTokenExpiryTime time.Time `json:"refreshTokenExpiryTime"`
}

// NewUserDto combines user and tokens into the response projection.
func NewUserDto(user *User, tokens *TokenResponse) *UserDto {
	return &UserDto{
		UserName:               user.UserName,
		Email:                  user.Email,
		FirstName:              user.FirstName,
		LastName:               user.LastName,
		ImageURL:               user.ImageURL,
		IsActive:               user.IsActive,
		Token:                  tokens.Token,
		RefreshToken:           tokens.RefreshToken,
		RefreshTokenExpiryTime: tokens.RefreshTokenExpiryTime,
	}
}

// UserInfo describes the authenticated principal.
type UserInfo struct {
	UserID   string     `json:"id"`
	UserName string     `json:"userName"`
	Email    string     `json:"email"`
	Roles    []UserRole `json:"roles"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Roles []UserRole `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole reports whether the principal holds any of roles.
func (c *JWTClaims) HasRole(roles ...UserRole) bool {
	if c == nil {
		return false
	}
	for _, held := range c.Roles {
		for _, want := range roles {
			if held == want {
				return true
			}
		}
	}
	return false
}

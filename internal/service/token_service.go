package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/account-api/internal/models"
	appErrors "github.com/noah-isme/account-api/pkg/errors"
)

// ErrMissingSigningKey is returned when the token service has no key to sign with.
var ErrMissingSigningKey = errors.New("token service: no signing key configured")

const refreshTokenBytes = 32

type tokenStore interface {
	UpdateRefreshToken(ctx context.Context, id, token string, expiresAt time.Time) error
	Roles(ctx context.Context, userID string) ([]models.UserRole, error)
}

// TokenConfig defines configuration for token issuance.
type TokenConfig struct {
	SigningKey         string
	Issuer             string
	Audience           []string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// TokenService issues access/refresh token pairs and validates access tokens.
type TokenService struct {
	store  tokenStore
	logger *zap.Logger
	config TokenConfig
	key    []byte
	now    func() time.Time
}

// NewTokenService constructs a TokenService. An empty signing key is fatal.
func NewTokenService(store tokenStore, logger *zap.Logger, config TokenConfig) (*TokenService, error) {
	if config.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 15 * time.Minute
	}
	if config.RefreshTokenExpiry <= 0 {
		config.RefreshTokenExpiry = 7 * 24 * time.Hour
	}
	return &TokenService{
		store:  store,
		logger: logger,
		config: config,
		key:    []byte(config.SigningKey),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Issue signs a new access token for user, generates a new refresh token and
// overwrites the one stored on the user record. The client address is only
// recorded for auditing.
//
// Concurrent issues for the same user are last-write-wins at the store;
// callers that need ordering serialize around Issue.
func (s *TokenService) Issue(ctx context.Context, user *models.User, clientAddress string) (*models.TokenResponse, error) {
	roles, err := s.store.Roles(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user roles")
	}

	accessToken, err := s.generateAccessToken(user, roles)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	refreshToken, err := s.generateRefreshTokenString()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}
	expiresAt := s.now().Add(s.config.RefreshTokenExpiry)

	if err := s.store.UpdateRefreshToken(ctx, user.ID, refreshToken, expiresAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist refresh token")
	}
	user.RefreshToken = &refreshToken
	user.RefreshTokenExpiryTime = &expiresAt

	s.logger.Debug("tokens issued",
		zap.String("user_id", user.ID),
		zap.String("client_address", clientAddress),
		zap.Time("refresh_expires_at", expiresAt),
	)

	return &models.TokenResponse{
		Token:                  accessToken,
		RefreshToken:           refreshToken,
		RefreshTokenExpiryTime: expiresAt,
	}, nil
}

// PrincipalFromExpiredToken verifies the signature of an access token and
// returns its claims without enforcing expiry, issuer or audience. Any
// algorithm other than HS256 is rejected.
func (s *TokenService) PrincipalFromExpiredToken(tokenString string) (*models.JWTClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	return s.parse(parser, tokenString)
}

// ValidateToken parses and fully validates an access token returning the claims.
func (s *TokenService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	if len(s.config.Audience) > 0 {
		opts = append(opts, jwt.WithAudience(s.config.Audience[0]))
	}
	return s.parse(jwt.NewParser(opts...), tokenString)
}

func (s *TokenService) parse(parser *jwt.Parser, tokenString string) (*models.JWTClaims, error) {
	token, err := parser.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return nil, appErrors.WithCause(appErrors.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "invalid token claims")
	}

	return claims, nil
}

func (s *TokenService) generateAccessToken(user *models.User, roles []models.UserRole) (string, error) {
	issuedAt := s.now()
	claims := &models.JWTClaims{
		Name:  user.UserName,
		Email: user.Email,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			Audience:  s.config.Audience,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

func (s *TokenService) generateRefreshTokenString() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

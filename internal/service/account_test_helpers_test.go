package service

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/account-api/internal/repository"
)

const testSigningKey = "test-signing-key-with-enough-entropy"

type accountFixture struct {
	repo     *repository.MemoryUserRepository
	identity *IdentityService
	tokens   *TokenService
	accounts *AccountService
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()

	repo := repository.NewMemoryUserRepository()
	validate := validator.New()
	identity := NewIdentityService(repo, validate, zap.NewNop(), WithHashCost(bcrypt.MinCost))
	tokens, err := NewTokenService(repo, zap.NewNop(), TokenConfig{
		SigningKey:         testSigningKey,
		Issuer:             "account-api",
		Audience:           []string{"account-client"},
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	})
	require.NoError(t, err)
	accounts := NewAccountService(identity, tokens, repo, repository.NewLocalRefreshLock(0), validate, zap.NewNop(), NewMetricsService())

	return &accountFixture{repo: repo, identity: identity, tokens: tokens, accounts: accounts}
}

package service

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/account-api/internal/models"
	"github.com/noah-isme/account-api/internal/repository"
	appErrors "github.com/noah-isme/account-api/pkg/errors"
)

func registerAlice(t *testing.T, f *accountFixture) {
	t.Helper()
	err := f.accounts.Register(context.Background(), models.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Pa$$w0rd",
		IP:       "203.0.113.7",
	})
	require.NoError(t, err)
}

func loginAlice(t *testing.T, f *accountFixture) *models.UserDto {
	t.Helper()
	dto, err := f.accounts.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "Pa$$w0rd", IP: "203.0.113.7"})
	require.NoError(t, err)
	return dto
}

func assertAppError(t *testing.T, err error, expected *appErrors.Error) {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, expected.Code, appErr.Code)
	assert.Equal(t, expected.Status, appErr.Status)
}

func TestAccountServiceRegisterLoginRefresh(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	registerAlice(t, f)

	user, err := f.identity.FindByName(ctx, "alice")
	require.NoError(t, err)
	roles, err := f.identity.Roles(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []models.UserRole{models.RoleMember}, roles)

	login := loginAlice(t, f)
	assert.Equal(t, "alice", login.UserName)
	assert.Equal(t, "alice@example.com", login.Email)
	assert.True(t, login.IsActive)
	assert.NotEmpty(t, login.Token)
	assert.NotEmpty(t, login.RefreshToken)

	refreshed, err := f.accounts.Refresh(ctx, models.RefreshTokenRequest{Token: login.Token, RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.Equal(t, "alice", refreshed.UserName)

	// The rotated-out refresh token is single use.
	_, err = f.accounts.Refresh(ctx, models.RefreshTokenRequest{Token: login.Token, RefreshToken: login.RefreshToken})
	assertAppError(t, err, appErrors.ErrInvalidRefreshToken)

	again, err := f.accounts.Refresh(ctx, models.RefreshTokenRequest{Token: refreshed.Token, RefreshToken: refreshed.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, refreshed.RefreshToken, again.RefreshToken)

	actions := make([]string, 0)
	for _, entry := range f.repo.AuditLogs() {
		actions = append(actions, entry.Action)
		assert.Equal(t, models.AuditResourceAccount, entry.Resource)
	}
	assert.Equal(t, []string{
		models.AuditActionRegister,
		models.AuditActionLogin,
		models.AuditActionTokenRefresh,
		models.AuditActionTokenRefresh,
	}, actions)
}

func TestAccountServiceLoginFailures(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	registerAlice(t, f)
	login := loginAlice(t, f)

	_, err := f.accounts.Login(ctx, models.LoginRequest{Username: "alice", Password: "wrong"})
	assertAppError(t, err, appErrors.ErrInvalidCredentials)

	// A failed login leaves the issued refresh token usable.
	stored, err := f.identity.FindByName(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, login.RefreshToken, *stored.RefreshToken)

	_, err = f.accounts.Login(ctx, models.LoginRequest{Username: "mallory", Password: "Pa$$w0rd"})
	assertAppError(t, err, appErrors.ErrInvalidCredentials)

	_, err = f.accounts.Login(ctx, models.LoginRequest{Username: "alice"})
	assertAppError(t, err, appErrors.ErrValidation)
	var verr validator.ValidationErrors
	assert.ErrorAs(t, err, &verr)
}

func TestAccountServiceLoginCaseInsensitive(t *testing.T) {
	f := newAccountFixture(t)
	registerAlice(t, f)

	dto, err := f.accounts.Login(context.Background(), models.LoginRequest{Username: "ALICE", Password: "Pa$$w0rd"})
	require.NoError(t, err)
	assert.Equal(t, "alice", dto.UserName)
}

func TestAccountServiceInactiveUser(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("Pa$$w0rd"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.repo.Create(ctx, &models.User{
		UserName:           "dormant",
		NormalizedUserName: "DORMANT",
		Email:              "dormant@example.com",
		NormalizedEmail:    "DORMANT@EXAMPLE.COM",
		PasswordHash:       string(hash),
		IsActive:           false,
	}))

	_, err = f.accounts.Login(ctx, models.LoginRequest{Username: "dormant", Password: "Pa$$w0rd"})
	assertAppError(t, err, appErrors.ErrInactiveAccount)

	// Inactive is reported before the password is checked.
	_, err = f.accounts.Login(ctx, models.LoginRequest{Username: "dormant", Password: "wrong"})
	assertAppError(t, err, appErrors.ErrInactiveAccount)

	user, err := f.identity.FindByName(ctx, "dormant")
	require.NoError(t, err)
	tokens, err := f.tokens.Issue(ctx, user, "")
	require.NoError(t, err)

	_, err = f.accounts.Refresh(ctx, models.RefreshTokenRequest{Token: tokens.Token, RefreshToken: tokens.RefreshToken})
	assertAppError(t, err, appErrors.ErrInactiveAccount)
}

func TestAccountServiceRefreshWithExpiredAccessToken(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	registerAlice(t, f)

	f.tokens.now = func() time.Time { return time.Now().UTC().Add(-time.Hour) }
	login := loginAlice(t, f)
	f.tokens.now = func() time.Time { return time.Now().UTC() }

	_, err := f.tokens.ValidateToken(login.Token)
	require.Error(t, err)

	refreshed, err := f.accounts.Refresh(ctx, models.RefreshTokenRequest{Token: login.Token, RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Token)
}

func TestAccountServiceRefreshExpiredRefreshToken(t *testing.T) {
	f := newAccountFixture(t)
	registerAlice(t, f)
	login := loginAlice(t, f)

	f.accounts.now = func() time.Time { return time.Now().UTC().Add(8 * 24 * time.Hour) }
	_, err := f.accounts.Refresh(context.Background(), models.RefreshTokenRequest{Token: login.Token, RefreshToken: login.RefreshToken})
	assertAppError(t, err, appErrors.ErrInvalidRefreshToken)
}

func TestAccountServiceRefreshRejections(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	registerAlice(t, f)
	login := loginAlice(t, f)

	_, err := f.accounts.Refresh(ctx, models.RefreshTokenRequest{Token: "garbage", RefreshToken: login.RefreshToken})
	assertAppError(t, err, appErrors.ErrInvalidToken)

	_, err = f.accounts.Refresh(ctx, models.RefreshTokenRequest{Token: login.Token, RefreshToken: "not-the-token"})
	assertAppError(t, err, appErrors.ErrInvalidRefreshToken)

	_, err = f.accounts.Refresh(ctx, models.RefreshTokenRequest{Token: login.Token})
	assertAppError(t, err, appErrors.ErrValidation)

	// A token for an email nobody owns.
	ghost := &models.User{ID: "ghost", UserName: "ghost", Email: "ghost@example.com"}
	token, err := f.tokens.generateAccessToken(ghost, nil)
	require.NoError(t, err)
	_, err = f.accounts.Refresh(ctx, models.RefreshTokenRequest{Token: token, RefreshToken: login.RefreshToken})
	assertAppError(t, err, appErrors.ErrAuthFailed)

	noEmail := &models.User{ID: "anon", UserName: "anon"}
	token, err = f.tokens.generateAccessToken(noEmail, nil)
	require.NoError(t, err)
	_, err = f.accounts.Refresh(ctx, models.RefreshTokenRequest{Token: token, RefreshToken: login.RefreshToken})
	assertAppError(t, err, appErrors.ErrInvalidToken)

	// None of the rejections consumed the live refresh token.
	_, err = f.accounts.Refresh(ctx, models.RefreshTokenRequest{Token: login.Token, RefreshToken: login.RefreshToken})
	assert.NoError(t, err)
}

func TestAccountServiceConcurrentRefreshSingleWinner(t *testing.T) {
	f := newAccountFixture(t)
	registerAlice(t, f)
	login := loginAlice(t, f)

	const attempts = 8
	var successes, rejected int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.accounts.Refresh(context.Background(), models.RefreshTokenRequest{Token: login.Token, RefreshToken: login.RefreshToken})
			if err == nil {
				atomic.AddInt32(&successes, 1)
				return
			}
			if appErrors.FromError(err).Status == http.StatusUnauthorized {
				atomic.AddInt32(&rejected, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), successes)
	assert.Equal(t, int32(attempts-1), rejected)
}

type timeoutLocker struct{}

func (timeoutLocker) Acquire(ctx context.Context, key string) (func(), error) {
	return nil, repository.ErrLockTimeout
}

func TestAccountServiceRefreshLockTimeout(t *testing.T) {
	f := newAccountFixture(t)
	registerAlice(t, f)
	login := loginAlice(t, f)

	accounts := NewAccountService(f.identity, f.tokens, f.repo, timeoutLocker{}, nil, zap.NewNop(), nil)
	_, err := accounts.Refresh(context.Background(), models.RefreshTokenRequest{Token: login.Token, RefreshToken: login.RefreshToken})
	assertAppError(t, err, appErrors.ErrRefreshInProgress)
	assert.ErrorIs(t, err, repository.ErrLockTimeout)
}

func TestAccountServiceRegisterDuplicate(t *testing.T) {
	f := newAccountFixture(t)
	registerAlice(t, f)

	err := f.accounts.Register(context.Background(), models.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Pa$$w0rd",
	})
	assertAppError(t, err, appErrors.ErrValidation)
	assert.Equal(t, []string{CodeDuplicateEmail, CodeDuplicateUserName}, appErrors.FromError(err).FieldNames())
	assert.Equal(t, 1, f.repo.Count())
}

func TestAccountServiceRegisterWeakPassword(t *testing.T) {
	f := newAccountFixture(t)

	err := f.accounts.Register(context.Background(), models.RegisterRequest{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "password",
	})
	assertAppError(t, err, appErrors.ErrValidation)
	appErr := appErrors.FromError(err)
	assert.Equal(t, []string{CodePasswordRequiresDigit, CodePasswordRequiresNonAlphanumeric, CodePasswordRequiresUpper}, appErr.FieldNames())
	for _, field := range appErr.Fields {
		assert.NotEmpty(t, field.Key)
		assert.NotEmpty(t, field.Message)
	}
	assert.Equal(t, 0, f.repo.Count())
}

func TestAccountServiceRegisterMissingFields(t *testing.T) {
	f := newAccountFixture(t)

	err := f.accounts.Register(context.Background(), models.RegisterRequest{Username: "bob"})
	assertAppError(t, err, appErrors.ErrValidation)
	assert.Equal(t, 0, f.repo.Count())
}

func TestAccountServiceAuditKeepsOverlongAddress(t *testing.T) {
	f := newAccountFixture(t)
	registerAlice(t, f)

	forwarded := strings.Repeat("198.51.100.4, ", 30)
	_, err := f.accounts.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "Pa$$w0rd", IP: forwarded})
	require.NoError(t, err)

	logs := f.repo.AuditLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, models.AuditActionLogin, logs[1].Action)
	assert.Len(t, logs[1].IPAddress, models.MaxAuditAddressLength)
	assert.True(t, strings.HasPrefix(forwarded, logs[1].IPAddress))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "ab", truncateRunes("abc", 2))
	assert.Equal(t, "żó", truncateRunes("żółw", 2))
	assert.Equal(t, "", truncateRunes("abc", 0))
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/account-api/internal/models"
	"github.com/noah-isme/account-api/internal/repository"
	appErrors "github.com/noah-isme/account-api/pkg/errors"
)

type identityManager interface {
	FindByName(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User, password string) (IdentityResult, error)
	CheckPassword(user *models.User, password string) bool
	AddToRole(ctx context.Context, user *models.User, role models.UserRole) error
}

type tokenIssuer interface {
	Issue(ctx context.Context, user *models.User, clientAddress string) (*models.TokenResponse, error)
	PrincipalFromExpiredToken(tokenString string) (*models.JWTClaims, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RefreshLocker serializes refreshes per user.
type RefreshLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// AccountService implements login, refresh and registration.
type AccountService struct {
	identity  identityManager
	tokens    tokenIssuer
	audit     auditRecorder
	locker    RefreshLocker
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	now       func() time.Time
}

// NewAccountService constructs an AccountService instance. A nil locker
// falls back to an in-process lock.
func NewAccountService(identity identityManager, tokens tokenIssuer, audit auditRecorder, locker RefreshLocker, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if locker == nil {
		locker = repository.NewLocalRefreshLock(0)
	}
	return &AccountService{
		identity:  identity,
		tokens:    tokens,
		audit:     audit,
		locker:    locker,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Login authenticates a user by username and password and issues tokens.
func (s *AccountService) Login(ctx context.Context, req models.LoginRequest) (*models.UserDto, error) {
	if err := s.validator.Struct(req); err != nil {
		s.metrics.ObserveAuth(OperationLogin, OutcomeValidation)
		return nil, appErrors.WithCause(appErrors.ErrValidation, err)
	}

	user, err := s.identity.FindByName(ctx, req.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.metrics.ObserveAuth(OperationLogin, OutcomeUnknownUser)
			return nil, appErrors.ErrInvalidCredentials
		}
		s.metrics.ObserveAuth(OperationLogin, OutcomeError)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !user.IsActive {
		s.metrics.ObserveAuth(OperationLogin, OutcomeInactive)
		return nil, appErrors.ErrInactiveAccount
	}

	if !s.identity.CheckPassword(user, req.Password) {
		s.metrics.ObserveAuth(OperationLogin, OutcomeBadCredentials)
		return nil, appErrors.ErrInvalidCredentials
	}

	tokens, err := s.tokens.Issue(ctx, user, req.IP)
	if err != nil {
		s.metrics.ObserveAuth(OperationLogin, OutcomeError)
		return nil, err
	}

	s.recordAudit(ctx, user.ID, models.AuditActionLogin, req.IP, req.UserAgent, map[string]interface{}{"status": "success"})
	s.metrics.ObserveAuth(OperationLogin, OutcomeSuccess)

	return models.NewUserDto(user, tokens), nil
}

// Refresh exchanges an access token (expired or not) and the user's current
// refresh token for a new pair. The presented refresh token is single use:
// issuing the new pair overwrites it.
func (s *AccountService) Refresh(ctx context.Context, req models.RefreshTokenRequest) (*models.UserDto, error) {
	if err := s.validator.Struct(req); err != nil {
		s.metrics.ObserveAuth(OperationRefresh, OutcomeValidation)
		return nil, appErrors.WithCause(appErrors.ErrValidation, err)
	}

	claims, err := s.tokens.PrincipalFromExpiredToken(req.Token)
	if err != nil {
		s.logger.Warn("rejected access token on refresh", zap.String("client_address", req.IP), zap.Error(err))
		s.metrics.ObserveAuth(OperationRefresh, OutcomeInvalidToken)
		return nil, err
	}
	if claims.Email == "" {
		s.logger.Warn("access token without email claim on refresh", zap.String("client_address", req.IP))
		s.metrics.ObserveAuth(OperationRefresh, OutcomeInvalidToken)
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "token has no email claim")
	}

	user, err := s.identity.FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.metrics.ObserveAuth(OperationRefresh, OutcomeUnknownUser)
			return nil, appErrors.ErrAuthFailed
		}
		s.metrics.ObserveAuth(OperationRefresh, OutcomeError)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	waitStart := time.Now()
	release, err := s.locker.Acquire(ctx, user.ID)
	s.metrics.ObserveRefreshLockWait(time.Since(waitStart))
	if err != nil {
		if errors.Is(err, repository.ErrLockTimeout) {
			s.metrics.ObserveAuth(OperationRefresh, OutcomeInvalidRefresh)
			return nil, appErrors.WithCause(appErrors.ErrRefreshInProgress, err)
		}
		s.metrics.ObserveAuth(OperationRefresh, OutcomeError)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire refresh lock")
	}
	defer release()

	// Re-read under the lock so a rotation that completed while we waited is seen.
	user, err = s.identity.FindByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.metrics.ObserveAuth(OperationRefresh, OutcomeUnknownUser)
			return nil, appErrors.ErrAuthFailed
		}
		s.metrics.ObserveAuth(OperationRefresh, OutcomeError)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload user")
	}

	if !user.HasRefreshToken(req.RefreshToken, s.now()) {
		s.metrics.ObserveAuth(OperationRefresh, OutcomeInvalidRefresh)
		return nil, appErrors.ErrInvalidRefreshToken
	}

	if !user.IsActive {
		s.metrics.ObserveAuth(OperationRefresh, OutcomeInactive)
		return nil, appErrors.ErrInactiveAccount
	}

	tokens, err := s.tokens.Issue(ctx, user, req.IP)
	if err != nil {
		s.metrics.ObserveAuth(OperationRefresh, OutcomeError)
		return nil, err
	}

	s.recordAudit(ctx, user.ID, models.AuditActionTokenRefresh, req.IP, req.UserAgent, map[string]interface{}{"refresh": "rotated"})
	s.metrics.ObserveAuth(OperationRefresh, OutcomeSuccess)

	return models.NewUserDto(user, tokens), nil
}

// Register creates a user and assigns the default role. Every identity
// failure is reported, not just the first.
func (s *AccountService) Register(ctx context.Context, req models.RegisterRequest) error {
	if err := s.validator.Struct(req); err != nil {
		s.metrics.ObserveAuth(OperationRegister, OutcomeValidation)
		return appErrors.WithCause(appErrors.ErrValidation, err)
	}

	user := &models.User{UserName: req.Username, Email: req.Email, IsActive: true}
	result, err := s.identity.Create(ctx, user, req.Password)
	if err != nil {
		s.metrics.ObserveAuth(OperationRegister, OutcomeError)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	if !result.Succeeded {
		fields := make([]appErrors.FieldError, 0, len(result.Errors))
		for _, identityErr := range result.Errors {
			fields = append(fields, appErrors.FieldError{
				Field:   identityErr.Code,
				Key:     identityErr.Key,
				Params:  identityErr.Params,
				Message: identityErr.Description,
			})
		}
		s.metrics.ObserveAuth(OperationRegister, OutcomeValidation)
		return appErrors.Validation(fields...)
	}

	if err := s.identity.AddToRole(ctx, user, models.DefaultRole); err != nil {
		s.metrics.ObserveAuth(OperationRegister, OutcomeError)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign default role")
	}

	s.recordAudit(ctx, user.ID, models.AuditActionRegister, req.IP, req.UserAgent, map[string]interface{}{"role": models.DefaultRole})
	s.metrics.ObserveAuth(OperationRegister, OutcomeSuccess)

	return nil
}

func (s *AccountService) recordAudit(ctx context.Context, userID, action, ip, userAgent string, values map[string]interface{}) {
	if s.audit == nil {
		return
	}
	body, _ := json.Marshal(values)
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:    &userID,
		Action:    action,
		Resource:  models.AuditResourceAccount,
		NewValues: body,
		IPAddress: truncateRunes(ip, models.MaxAuditAddressLength),
		UserAgent: userAgent,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

// truncateRunes cuts s to at most n characters without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/account-api/internal/models"
	"github.com/noah-isme/account-api/internal/repository"
	"github.com/noah-isme/account-api/pkg/i18n"
)

// ErrUserNotFound is returned by identity lookups that match no user.
var ErrUserNotFound = errors.New("user not found")

// Identity error codes reported by Create.
const (
	CodeDuplicateUserName               = "DuplicateUserName"
	CodeDuplicateEmail                  = "DuplicateEmail"
	CodeInvalidUserName                 = "InvalidUserName"
	CodeInvalidEmail                    = "InvalidEmail"
	CodePasswordTooShort                = "PasswordTooShort"
	CodePasswordRequiresDigit           = "PasswordRequiresDigit"
	CodePasswordRequiresLower           = "PasswordRequiresLower"
	CodePasswordRequiresUpper           = "PasswordRequiresUpper"
	CodePasswordRequiresNonAlphanumeric = "PasswordRequiresNonAlphanumeric"
)

const allowedUserNameCharacters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-._@+"

type identityStore interface {
	FindByNormalizedUserName(ctx context.Context, normalized string) (*models.User, error)
	FindByNormalizedEmail(ctx context.Context, normalized string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	AddToRole(ctx context.Context, userID string, role models.UserRole) error
	Roles(ctx context.Context, userID string) ([]models.UserRole, error)
}

// IdentityError is one reason a user could not be created.
type IdentityError struct {
	Code        string
	Description string
	Key         string
	Params      []string
}

// IdentityResult reports the outcome of Create with every failure found.
type IdentityResult struct {
	Succeeded bool
	Errors    []IdentityError
}

// PasswordPolicy describes the complexity required of new passwords.
type PasswordPolicy struct {
	RequiredLength         int
	RequireDigit           bool
	RequireLowercase       bool
	RequireUppercase       bool
	RequireNonAlphanumeric bool
}

// DefaultPasswordPolicy requires six characters mixing digits, cases and symbols.
var DefaultPasswordPolicy = PasswordPolicy{
	RequiredLength:         6,
	RequireDigit:           true,
	RequireLowercase:       true,
	RequireUppercase:       true,
	RequireNonAlphanumeric: true,
}

// IdentityService owns user lookup, password hashing and role bookkeeping.
type IdentityService struct {
	store     identityStore
	validator *validator.Validate
	logger    *zap.Logger
	policy    PasswordPolicy
	hashCost  int
}

// IdentityOption customises an IdentityService.
type IdentityOption func(*IdentityService)

// WithPasswordPolicy overrides DefaultPasswordPolicy.
func WithPasswordPolicy(policy PasswordPolicy) IdentityOption {
	return func(s *IdentityService) { s.policy = policy }
}

// WithHashCost overrides bcrypt.DefaultCost.
func WithHashCost(cost int) IdentityOption {
	return func(s *IdentityService) { s.hashCost = cost }
}

// NewIdentityService constructs an IdentityService instance.
func NewIdentityService(store identityStore, validate *validator.Validate, logger *zap.Logger, opts ...IdentityOption) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	s := &IdentityService{store: store, validator: validate, logger: logger, policy: DefaultPasswordPolicy, hashCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeKey is the lookup form of usernames and emails.
func NormalizeKey(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// FindByName returns the user with the given username.
func (s *IdentityService) FindByName(ctx context.Context, username string) (*models.User, error) {
	return s.lookup(s.store.FindByNormalizedUserName(ctx, NormalizeKey(username)))
}

// FindByEmail returns the user with the given email.
func (s *IdentityService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.lookup(s.store.FindByNormalizedEmail(ctx, NormalizeKey(email)))
}

// FindByID returns the user with the given identifier.
func (s *IdentityService) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.lookup(s.store.FindByID(ctx, id))
}

func (s *IdentityService) lookup(user *models.User, err error) (*models.User, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Create validates and stores a new user with a hashed password. Validation
// failures are reported in the result, never as the error; the error is
// reserved for store and hashing failures.
func (s *IdentityService) Create(ctx context.Context, user *models.User, password string) (IdentityResult, error) {
	var failures []IdentityError

	userFailures, err := s.validateUser(ctx, user)
	if err != nil {
		return IdentityResult{}, err
	}
	failures = append(failures, userFailures...)
	failures = append(failures, s.validatePassword(password)...)

	if len(failures) > 0 {
		return IdentityResult{Errors: failures}, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return IdentityResult{}, fmt.Errorf("hash password: %w", err)
	}

	user.NormalizedUserName = NormalizeKey(user.UserName)
	user.NormalizedEmail = NormalizeKey(user.Email)
	user.PasswordHash = string(hash)

	if err := s.store.Create(ctx, user); err != nil {
		// A concurrent registration can win the race past the checks above.
		if errors.Is(err, repository.ErrUniqueViolation) {
			if strings.Contains(err.Error(), "email") {
				return IdentityResult{Errors: []IdentityError{duplicateEmail(user.Email)}}, nil
			}
			return IdentityResult{Errors: []IdentityError{duplicateUserName(user.UserName)}}, nil
		}
		return IdentityResult{}, err
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("username", user.UserName))
	return IdentityResult{Succeeded: true}, nil
}

// CheckPassword compares password against the stored bcrypt hash.
func (s *IdentityService) CheckPassword(user *models.User, password string) bool {
	if user == nil || user.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// AddToRole assigns role to user.
func (s *IdentityService) AddToRole(ctx context.Context, user *models.User, role models.UserRole) error {
	return s.store.AddToRole(ctx, user.ID, role)
}

// Roles lists the roles held by user.
func (s *IdentityService) Roles(ctx context.Context, user *models.User) ([]models.UserRole, error) {
	return s.store.Roles(ctx, user.ID)
}

func (s *IdentityService) validateUser(ctx context.Context, user *models.User) ([]IdentityError, error) {
	var failures []IdentityError

	if user.UserName == "" || strings.IndexFunc(user.UserName, func(r rune) bool {
		return !strings.ContainsRune(allowedUserNameCharacters, r)
	}) >= 0 {
		failures = append(failures, IdentityError{
			Code:        CodeInvalidUserName,
			Description: fmt.Sprintf("Username '%s' is invalid, can only contain letters or digits.", user.UserName),
			Key:         i18n.KeyInvalidUserName,
			Params:      []string{user.UserName},
		})
	} else {
		_, err := s.FindByName(ctx, user.UserName)
		switch {
		case err == nil:
			failures = append(failures, duplicateUserName(user.UserName))
		case !errors.Is(err, ErrUserNotFound):
			return nil, err
		}
	}

	if err := s.validator.Var(user.Email, "required,email"); err != nil {
		failures = append(failures, IdentityError{
			Code:        CodeInvalidEmail,
			Description: fmt.Sprintf("Email '%s' is invalid.", user.Email),
			Key:         i18n.KeyInvalidEmail,
			Params:      []string{user.Email},
		})
	} else {
		_, err := s.FindByEmail(ctx, user.Email)
		switch {
		case err == nil:
			failures = append(failures, duplicateEmail(user.Email))
		case !errors.Is(err, ErrUserNotFound):
			return nil, err
		}
	}

	return failures, nil
}

func (s *IdentityService) validatePassword(password string) []IdentityError {
	var failures []IdentityError
	var hasDigit, hasLower, hasUpper, hasOther bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case !unicode.IsLetter(r):
			hasOther = true
		}
	}

	if len(password) < s.policy.RequiredLength {
		failures = append(failures, IdentityError{
			Code:        CodePasswordTooShort,
			Description: fmt.Sprintf("Passwords must be at least %d characters.", s.policy.RequiredLength),
			Key:         i18n.KeyPasswordTooShort,
			Params:      []string{strconv.Itoa(s.policy.RequiredLength)},
		})
	}
	if s.policy.RequireNonAlphanumeric && !hasOther {
		failures = append(failures, IdentityError{
			Code:        CodePasswordRequiresNonAlphanumeric,
			Description: "Passwords must have at least one non alphanumeric character.",
			Key:         i18n.KeyPasswordRequiresNonAlphanum,
		})
	}
	if s.policy.RequireDigit && !hasDigit {
		failures = append(failures, IdentityError{
			Code:        CodePasswordRequiresDigit,
			Description: "Passwords must have at least one digit ('0'-'9').",
			Key:         i18n.KeyPasswordRequiresDigit,
		})
	}
	if s.policy.RequireLowercase && !hasLower {
		failures = append(failures, IdentityError{
			Code:        CodePasswordRequiresLower,
			Description: "Passwords must have at least one lowercase ('a'-'z').",
			Key:         i18n.KeyPasswordRequiresLower,
		})
	}
	if s.policy.RequireUppercase && !hasUpper {
		failures = append(failures, IdentityError{
			Code:        CodePasswordRequiresUpper,
			Description: "Passwords must have at least one uppercase ('A'-'Z').",
			Key:         i18n.KeyPasswordRequiresUpper,
		})
	}

	return failures
}

func duplicateUserName(username string) IdentityError {
	return IdentityError{
		Code:        CodeDuplicateUserName,
		Description: fmt.Sprintf("Username '%s' is already taken.", username),
		Key:         i18n.KeyDuplicateUserName,
		Params:      []string{username},
	}
}

func duplicateEmail(email string) IdentityError {
	return IdentityError{
		Code:        CodeDuplicateEmail,
		Description: fmt.Sprintf("Email '%s' is already taken.", email),
		Key:         i18n.KeyDuplicateEmail,
		Params:      []string{email},
	}
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/account-api/internal/models"
)

// MemoryUserRepository is a process-local user store with the same
// contract as UserRepository. Records are copied in and out so callers
// never share state with the store.
type MemoryUserRepository struct {
	mu        sync.RWMutex
	users     map[string]*models.User
	roles     map[string]map[models.UserRole]struct{}
	auditLogs []models.AuditLog
}

// NewMemoryUserRepository creates an empty in-memory store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[string]*models.User),
		roles: make(map[string]map[models.UserRole]struct{}),
	}
}

// FindByNormalizedUserName returns a user by normalized username.
func (r *MemoryUserRepository) FindByNormalizedUserName(_ context.Context, normalized string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.NormalizedUserName == normalized })
}

// FindByNormalizedEmail returns a user by normalized email address.
func (r *MemoryUserRepository) FindByNormalizedEmail(_ context.Context, normalized string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.NormalizedEmail == normalized })
}

// FindByID returns a user by identifier.
func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

// Create inserts a new user, enforcing the same unique keys as the schema.
func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.NormalizedUserName == user.NormalizedUserName {
			return fmt.Errorf("create user: users_normalized_username_key: %w", ErrUniqueViolation)
		}
		if existing.NormalizedEmail == user.NormalizedEmail {
			return fmt.Errorf("create user: users_normalized_email_key: %w", ErrUniqueViolation)
		}
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	r.users[user.ID] = cloneUser(user)
	return nil
}

// UpdateRefreshToken overwrites the stored refresh token and its expiry.
func (r *MemoryUserRepository) UpdateRefreshToken(_ context.Context, id, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	tokenCopy := token
	expiryCopy := expiresAt
	user.RefreshToken = &tokenCopy
	user.RefreshTokenExpiryTime = &expiryCopy
	user.UpdatedAt = time.Now().UTC()
	return nil
}

// AddToRole assigns role to the user.
func (r *MemoryUserRepository) AddToRole(_ context.Context, userID string, role models.UserRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return fmt.Errorf("add user to role: %w", sql.ErrNoRows)
	}
	held, ok := r.roles[userID]
	if !ok {
		held = make(map[models.UserRole]struct{})
		r.roles[userID] = held
	}
	held[role] = struct{}{}
	return nil
}

// Roles lists the roles held by a user.
func (r *MemoryUserRepository) Roles(_ context.Context, userID string) ([]models.UserRole, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roles := make([]models.UserRole, 0, len(r.roles[userID]))
	for role := range r.roles[userID] {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles, nil
}

// CreateAuditLog stores an audit log entry.
func (r *MemoryUserRepository) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	r.auditLogs = append(r.auditLogs, *log)
	return nil
}

// AuditLogs returns a snapshot of recorded audit entries.
func (r *MemoryUserRepository) AuditLogs() []models.AuditLog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.AuditLog, len(r.auditLogs))
	copy(out, r.auditLogs)
	return out
}

// Count returns the number of stored users.
func (r *MemoryUserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func (r *MemoryUserRepository) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if match(user) {
			return cloneUser(user), nil
		}
	}
	return nil, sql.ErrNoRows
}

func cloneUser(u *models.User) *models.User {
	clone := *u
	if u.RefreshToken != nil {
		token := *u.RefreshToken
		clone.RefreshToken = &token
	}
	if u.RefreshTokenExpiryTime != nil {
		expiry := *u.RefreshTokenExpiryTime
		clone.RefreshTokenExpiryTime = &expiry
	}
	return &clone
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/account-api/internal/models"
)

// ErrUniqueViolation is returned when an insert collides with a unique index.
var ErrUniqueViolation = errors.New("unique constraint violation")

const pqUniqueViolation = "23505"

const userColumns = `id, username, normalized_username, email, normalized_email, password_hash, first_name, last_name, image_url, is_active, refresh_token, refresh_token_expiry_time, created_at, updated_at`

// UserRepository provides database access for user management.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByNormalizedUserName returns a user by normalized username.
func (r *UserRepository) FindByNormalizedUserName(ctx context.Context, normalized string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE normalized_username = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, normalized); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &user, nil
}

// FindByNormalizedEmail returns a user by normalized email address.
func (r *UserRepository) FindByNormalizedEmail(ctx context.Context, normalized string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE normalized_email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, normalized); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, username, normalized_username, email, normalized_email, password_hash, first_name, last_name, image_url, is_active, created_at, updated_at) VALUES (:id, :username, :normalized_username, :email, :normalized_email, :password_hash, :first_name, :last_name, :image_url, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return fmt.Errorf("create user: %s: %w", pqErr.Constraint, ErrUniqueViolation)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateRefreshToken overwrites the stored refresh token and its expiry.
func (r *UserRepository) UpdateRefreshToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	const query = `UPDATE users SET refresh_token = $2, refresh_token_expiry_time = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, token, expiresAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddToRole assigns role to the user. Assigning a held role is a no-op.
func (r *UserRepository) AddToRole(ctx context.Context, userID string, role models.UserRole) error {
	const query = `INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT (user_id, role) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, role); err != nil {
		return fmt.Errorf("add user to role: %w", err)
	}
	return nil
}

// Roles lists the roles held by a user.
func (r *UserRepository) Roles(ctx context.Context, userID string) ([]models.UserRole, error) {
	const query = `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`
	var roles []models.UserRole
	if err := r.db.SelectContext(ctx, &roles, query, userID); err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}
	return roles, nil
}

// CreateAuditLog stores an audit log entry.
func (r *UserRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, new_values, ip_address, user_agent, created_at) VALUES (:id, :user_id, :action, :resource, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

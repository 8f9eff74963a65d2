package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ortografia/internal/database"
	"ortografia/internal/models"
)

// UserRepository handles database operations for accounts
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *UserRepository) WithTx(tx *database.Tx) *UserRepository {
	return &UserRepository{db: tx}
}

const userColumns = "id, name, email, password_hash, role, active, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser inserts a new account
func (r *UserRepository) CreateUser(ctx context.Context, name, email, passwordHash string, role models.Role) (*models.User, error) {
	ts := now()
	query := `
		INSERT INTO users (name, email, password_hash, role, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, name, email, passwordHash, role, true, ts, ts)
	if err != nil {
		return nil, wrapWrite(r.db, "create user", err)
	}

	return &models.User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Active:       true,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}, nil
}

func (r *UserRepository) getOne(ctx context.Context, where string, args ...any) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE " + where
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetUserByEmail retrieves a user by email address
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = ?", email)
}

// GetUserByLogin matches the login against the email first, then the name
func (r *UserRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	user, err := r.GetUserByEmail(ctx, login)
	if err != nil || user != nil {
		return user, err
	}
	return r.getOne(ctx, "name = ? ORDER BY id LIMIT 1", login)
}

// GetActiveUserByRole retrieves an active user only when it has the given role
func (r *UserRepository) GetActiveUserByRole(ctx context.Context, id int64, role models.Role) (*models.User, error) {
	return r.getOne(ctx, "id = ? AND role = ? AND active = ?", id, role, true)
}

// FindActiveChildByEmail looks up a student account by email
func (r *UserRepository) FindActiveChildByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = ? AND role = ? AND active = ?", email, models.RoleChild, true)
}

// SetActive activates or deactivates an account
func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET active = ?, updated_at = ? WHERE id = ?", active, now(), id)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// ListUsers returns every account ordered by ID
func (r *UserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

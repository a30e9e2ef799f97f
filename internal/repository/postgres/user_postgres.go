package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"docvault/internal/apperr"
	"docvault/internal/model"
	"docvault/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

const userColumns = "id, email, password_hash, role, created_at"

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user row and returns the stored record.
func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (id, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	row := r.db.QueryRowContext(ctx, q, u.ID, u.Email, u.PasswordHash, u.Role, u.CreatedAt)
	out, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.ConstraintViolation(err, "email %s already registered", u.Email)
		}
		return nil, err
	}
	return out, nil
}

// FindByID fetches a single user by ID.
func (r *UserPostgres) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

// FindByEmail fetches a single user by email.
func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, email))
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"neuroscan/internal/domain"
	"neuroscan/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	username TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	password_salt TEXT NOT NULL,
	iterations INTEGER NOT NULL,
	role TEXT NOT NULL,
	patient_id INTEGER,
	created_on DATETIME NOT NULL
);
`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Insert(ctx context.Context, user *domain.User) error {
	if user.CreatedOn.IsZero() {
		user.CreatedOn = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (username, password_hash, password_salt, iterations, role, patient_id, created_on)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.PasswordHash,
		user.PasswordSalt,
		user.Iterations,
		string(user.Role),
		user.PatientID,
		user.CreatedOn,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") ||
			strings.Contains(strings.ToLower(err.Error()), "primary key") {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT username, password_hash, password_salt, iterations, role, patient_id, created_on
FROM users
WHERE username = ?`,
		username,
	)

	var (
		user      domain.User
		role      string
		patientID sql.NullInt64
	)
	if err := row.Scan(
		&user.Username,
		&user.PasswordHash,
		&user.PasswordSalt,
		&user.Iterations,
		&role,
		&patientID,
		&user.CreatedOn,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	user.Role = domain.Role(role)
	if patientID.Valid {
		user.PatientID = &patientID.Int64
	}
	return &user, nil
}

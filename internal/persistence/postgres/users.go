package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/hotel-reservations/internal/persistence"
)

const userColumns = `id, first_name, last_name, email, phone_number, nationality, username,
	password_hash, security_question, security_answer_hash, is_admin, created_at, updated_at`

// CreateUser inserts a new user. Duplicate usernames or emails yield persistence.ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" || user.SecurityAnswerHash == "" {
		return persistence.ErrConstraintViolation
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		user.ID,
		strings.TrimSpace(user.FirstName),
		strings.TrimSpace(user.LastName),
		normalizeEmail(user.Email),
		strings.TrimSpace(user.PhoneNumber),
		strings.TrimSpace(user.Nationality),
		strings.TrimSpace(user.Username),
		user.PasswordHash,
		user.SecurityQuestion,
		user.SecurityAnswerHash,
		user.IsAdmin,
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	)
	return mapError(err)
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserByIdentifier matches the username case-insensitively or the normalised email.
func (s *Store) GetUserByIdentifier(ctx context.Context, identifier string) (persistence.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1) OR email = $2 LIMIT 1`,
		identifier, normalizeEmail(identifier),
	))
}

// UpdatePasswordHash overwrites the stored password hash.
func (s *Store) UpdatePasswordHash(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if id == "" || passwordHash == "" {
		return persistence.ErrConstraintViolation
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		passwordHash, updatedAt.UTC(), id,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListUsers returns every user ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY lower(username)`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, mapError(rows.Err())
}

func scanUser(row pgx.Row) (persistence.User, error) {
	var user persistence.User
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PhoneNumber,
		&user.Nationality,
		&user.Username,
		&user.PasswordHash,
		&user.SecurityQuestion,
		&user.SecurityAnswerHash,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, fmt.Errorf("scan user: %w", mapError(err))
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

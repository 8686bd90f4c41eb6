package repository

import (
	"context"
	"strings"

	"github.com/stemsi/quizwizz-backend/internal/model"
)

const userColumns = `id, username, email, password_hash, role, bio, created_at`

// CreateUser inserts a new user. Returns ErrConflict when the username or email is taken.
func (s *PGStore) CreateUser(ctx context.Context, u *model.User) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, role, bio)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		u.Username, strings.ToLower(u.Email), u.PasswordHash, u.Role, u.Bio,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	u.Email = strings.ToLower(u.Email)
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *PGStore) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	u := &model.User{}
	err := s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Bio, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// UpdateUserProfile writes username and bio. Returns ErrConflict when the
// username belongs to someone else.
func (s *PGStore) UpdateUserProfile(ctx context.Context, u *model.User) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET username = $2, bio = $3 WHERE id = $1`,
		u.ID, u.Username, u.Bio,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetUserByLogin retrieves a user by username or (case-insensitive) email.
func (s *PGStore) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	u := &model.User{}
	err := s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE username = $1 OR email = LOWER($1)
		 LIMIT 1`, login,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Bio, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

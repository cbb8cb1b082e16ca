// internal/data/user.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// PermissionMarkReturned lets a user see every loan and renew copies.
const PermissionMarkReturned = "catalog.can_mark_returned"

// User is a library account. Staff accounts may edit the catalog.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash []byte
	IsStaff      bool
	Created      time.Time
}

// String returns the username.
func (u *User) String() string { return u.Username }

// UserModel wraps a *sql.DB connection pool for the users and permissions tables.
type UserModel struct {
	DB *sql.DB
}

// Insert creates an account with a bcrypt-hashed password and returns its id.
// Returns ErrDuplicateUsername if the username is taken.
func (m UserModel) Insert(ctx context.Context, username, email, password string, staff bool) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var id int64
	err = m.DB.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, is_staff)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		username, email, hash, staff,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, ErrDuplicateUsername
		}
		return 0, err
	}
	return id, nil
}

// Authenticate returns the id of the user whose credentials match, or
// ErrInvalidCredentials.
func (m UserModel) Authenticate(ctx context.Context, username, password string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var (
		id   int64
		hash []byte
	)
	err := m.DB.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE username = $1`, username).
		Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrInvalidCredentials
		}
		return 0, err
	}

	err = bcrypt.CompareHashAndPassword(hash, []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return 0, ErrInvalidCredentials
		}
		return 0, err
	}
	return id, nil
}

const userColumns = `id, username, email, password_hash, is_staff, created`

func scanUser(scanner interface{ Scan(dest ...any) error }) (*User, error) {
	var user User
	err := scanner.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.IsStaff, &user.Created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Get retrieves a user by id.
func (m UserModel) Get(ctx context.Context, id int64) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanUser(m.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByUsername retrieves a user by username.
func (m UserModel) GetByUsername(ctx context.Context, username string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanUser(m.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// Choices returns every user ordered by username, for the borrower select.
func (m UserModel) Choices(ctx context.Context) ([]*User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Permissions returns the permission codenames granted to a user.
func (m UserModel) Permissions(ctx context.Context, id int64) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, `SELECT codename FROM user_permissions WHERE user_id = $1 ORDER BY codename`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	codes := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// Grant gives a permission to a user. Granting twice is a no-op.
func (m UserModel) Grant(ctx context.Context, id int64, codename string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := m.DB.ExecContext(ctx, `
		INSERT INTO user_permissions (user_id, codename)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, id, codename)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrRecordNotFound
		}
	}
	return err
}

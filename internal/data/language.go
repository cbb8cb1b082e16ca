// internal/data/language.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

// Language is a book's natural language, e.g. "English".
type Language struct {
	ID   int64
	Name string
}

// String returns the language name.
func (l *Language) String() string { return l.Name }

// LanguageInput holds the fields a client must supply when creating a language.
type LanguageInput struct {
	Name string `form:"language" validate:"required,max=50"`
}

// LanguageModel wraps a *sql.DB connection pool for the languages table.
type LanguageModel struct {
	DB *sql.DB
}

// Insert adds a new language. Returns ErrDuplicateLanguage if the name is taken.
func (m LanguageModel) Insert(ctx context.Context, language *Language) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err := m.DB.QueryRowContext(ctx,
		`INSERT INTO languages (language) VALUES ($1) RETURNING id`,
		language.Name,
	).Scan(&language.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateLanguage
		}
		return err
	}
	return nil
}

// Get retrieves a single language by its primary key.
func (m LanguageModel) Get(ctx context.Context, id int64) (*Language, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var language Language
	err := m.DB.QueryRowContext(ctx, `SELECT id, language FROM languages WHERE id = $1`, id).
		Scan(&language.ID, &language.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &language, nil
}

// GetAll returns every language ordered by name.
func (m LanguageModel) GetAll(ctx context.Context) ([]*Language, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, `SELECT id, language FROM languages ORDER BY language`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	languages := []*Language{}
	for rows.Next() {
		var language Language
		if err := rows.Scan(&language.ID, &language.Name); err != nil {
			return nil, err
		}
		languages = append(languages, &language)
	}
	return languages, rows.Err()
}

// Delete removes a language. Books that used it keep existing with no language.
func (m LanguageModel) Delete(ctx context.Context, id int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, `DELETE FROM languages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

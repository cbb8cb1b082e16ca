// internal/data/genre.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Genre represents a book genre, e.g. "Science Fiction".
type Genre struct {
	ID   int64
	Name string
}

// String returns the genre name.
func (g *Genre) String() string { return g.Name }

// GenreInput holds the fields a client must supply when creating a genre.
type GenreInput struct {
	Name string `form:"name" validate:"required,max=200"`
}

// GenreModel wraps a *sql.DB connection pool for the genres table.
type GenreModel struct {
	DB *sql.DB
}

// Insert adds a new genre and writes the assigned id back into genre.
func (m GenreModel) Insert(ctx context.Context, genre *Genre) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return m.DB.QueryRowContext(ctx,
		`INSERT INTO genres (name) VALUES ($1) RETURNING id`,
		genre.Name,
	).Scan(&genre.ID)
}

// Get retrieves a single genre by its primary key.
func (m GenreModel) Get(ctx context.Context, id int64) (*Genre, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var genre Genre
	err := m.DB.QueryRowContext(ctx, `SELECT id, name FROM genres WHERE id = $1`, id).
		Scan(&genre.ID, &genre.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &genre, nil
}

// GetAll returns every genre ordered by name.
func (m GenreModel) GetAll(ctx context.Context) ([]*Genre, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, `SELECT id, name FROM genres ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	genres := []*Genre{}
	for rows.Next() {
		var genre Genre
		if err := rows.Scan(&genre.ID, &genre.Name); err != nil {
			return nil, err
		}
		genres = append(genres, &genre)
	}
	return genres, rows.Err()
}

// Delete removes a genre. Links to books are removed by the foreign key cascade.
func (m GenreModel) Delete(ctx context.Context, id int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, `DELETE FROM genres WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Count returns the number of genres.
func (m GenreModel) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int
	err := m.DB.QueryRowContext(ctx, `SELECT count(*) FROM genres`).Scan(&n)
	return n, err
}

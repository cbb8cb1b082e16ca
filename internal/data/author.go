// internal/data/author.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Author represents a single author record stored in the database.
type Author struct {
	ID          int64
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
	DateOfDeath *time.Time
}

// String renders the author as "Last, First".
func (a *Author) String() string {
	return a.LastName + ", " + a.FirstName
}

// AuthorInput holds the fields a client supplies when creating or updating an author.
// Dates arrive as YYYY-MM-DD strings and are parsed by the handler.
type AuthorInput struct {
	FirstName   string `form:"first_name" validate:"required,max=100"`
	LastName    string `form:"last_name" validate:"required,max=100"`
	DateOfBirth string `form:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	DateOfDeath string `form:"date_of_death" validate:"omitempty,datetime=2006-01-02"`
}

// AuthorModel wraps a *sql.DB connection pool for the authors table.
type AuthorModel struct {
	DB *sql.DB
}

const authorColumns = `id, first_name, last_name, date_of_birth, date_of_death`

func scanAuthor(scanner interface{ Scan(dest ...any) error }, extra ...any) (*Author, error) {
	var (
		author      Author
		born, death sql.NullTime
	)
	dest := append(extra, &author.ID, &author.FirstName, &author.LastName, &born, &death)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}
	author.DateOfBirth = datePtr(born)
	author.DateOfDeath = datePtr(death)
	return &author, nil
}

// Insert adds a new author and writes the assigned id back into author.
func (m AuthorModel) Insert(ctx context.Context, author *Author) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return m.DB.QueryRowContext(ctx, `
		INSERT INTO authors (first_name, last_name, date_of_birth, date_of_death)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		author.FirstName, author.LastName, nullDate(author.DateOfBirth), nullDate(author.DateOfDeath),
	).Scan(&author.ID)
}

// Get retrieves a single author by its primary key.
func (m AuthorModel) Get(ctx context.Context, id int64) (*Author, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	row := m.DB.QueryRowContext(ctx, `SELECT `+authorColumns+` FROM authors WHERE id = $1`, id)
	author, err := scanAuthor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return author, nil
}

// GetAll retrieves a page of authors ordered by last name then first name.
func (m AuthorModel) GetAll(ctx context.Context, filters Filters) ([]*Author, Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, `
		SELECT count(*) OVER(), `+authorColumns+`
		FROM authors
		ORDER BY last_name, first_name, id
		LIMIT $1 OFFSET $2`, filters.limit(), filters.offset())
	if err != nil {
		return nil, Metadata{}, err
	}
	defer rows.Close()

	totalRecords := 0
	authors := []*Author{}
	for rows.Next() {
		author, err := scanAuthor(rows, &totalRecords)
		if err != nil {
			return nil, Metadata{}, err
		}
		authors = append(authors, author)
	}
	if err = rows.Err(); err != nil {
		return nil, Metadata{}, err
	}

	return authors, CalculateMetadata(totalRecords, filters.Page, filters.PageSize), nil
}

// Choices returns every author in list order, for select inputs.
func (m AuthorModel) Choices(ctx context.Context) ([]*Author, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, `SELECT `+authorColumns+` FROM authors ORDER BY last_name, first_name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	authors := []*Author{}
	for rows.Next() {
		author, err := scanAuthor(rows)
		if err != nil {
			return nil, err
		}
		authors = append(authors, author)
	}
	return authors, rows.Err()
}

// Update saves every field of author back to the database.
func (m AuthorModel) Update(ctx context.Context, author *Author) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, `
		UPDATE authors
		SET first_name = $1, last_name = $2, date_of_birth = $3, date_of_death = $4
		WHERE id = $5`,
		author.FirstName, author.LastName, nullDate(author.DateOfBirth), nullDate(author.DateOfDeath), author.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Delete removes the author. Their books survive with no author.
func (m AuthorModel) Delete(ctx context.Context, id int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Count returns the number of authors.
func (m AuthorModel) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int
	err := m.DB.QueryRowContext(ctx, `SELECT count(*) FROM authors`).Scan(&n)
	return n, err
}

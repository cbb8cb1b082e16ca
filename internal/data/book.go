// internal/data/book.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Book represents a single title in the catalog. Author and Language are
// populated on reads when the references are set.
type Book struct {
	ID         int64
	Title      string
	AuthorID   *int64
	Author     *Author
	Summary    string
	ISBN       string // 13 characters expected
	Genres     []*Genre
	LanguageID *int64
	Language   *Language
}

// String returns the book title.
func (b *Book) String() string { return b.Title }

// DisplayGenre joins the names of the first three genres.
func (b *Book) DisplayGenre() string {
	names := make([]string, 0, 3)
	for i, g := range b.Genres {
		if i == 3 {
			break
		}
		names = append(names, g.Name)
	}
	return strings.Join(names, ", ")
}

// GenreIDs returns the ids of the book's genres.
func (b *Book) GenreIDs() []int64 {
	ids := make([]int64, len(b.Genres))
	for i, g := range b.Genres {
		ids[i] = g.ID
	}
	return ids
}

// BookInput holds the fields a client must supply when creating or updating a book.
type BookInput struct {
	Title      string  `form:"title" validate:"required,max=200"`
	AuthorID   int64   `form:"author" validate:"required,gt=0"`
	Summary    string  `form:"summary" validate:"required,max=1000"`
	ISBN       string  `form:"isbn" validate:"required,max=13"`
	GenreIDs   []int64 `form:"genre" validate:"required,min=1,dive,gt=0"`
	LanguageID int64   `form:"language" validate:"required,gt=0"`
}

// BookModel wraps a *sql.DB connection pool for the books table.
type BookModel struct {
	DB *sql.DB
}

// bookSelect joins the optional author and language onto each book row.
const bookSelect = `
	SELECT b.id, b.title, b.summary, b.isbn, b.author_id, b.language_id,
	       a.first_name, a.last_name, a.date_of_birth, a.date_of_death,
	       l.language
	FROM books b
	LEFT JOIN authors a ON a.id = b.author_id
	LEFT JOIN languages l ON l.id = b.language_id`

func scanBook(scanner interface{ Scan(dest ...any) error }, extra ...any) (*Book, error) {
	var (
		book                 Book
		authorID, languageID sql.NullInt64
		firstName, lastName  sql.NullString
		born, death          sql.NullTime
		languageName         sql.NullString
	)
	dest := append(extra,
		&book.ID, &book.Title, &book.Summary, &book.ISBN, &authorID, &languageID,
		&firstName, &lastName, &born, &death,
		&languageName,
	)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}

	book.AuthorID = int64Ptr(authorID)
	if book.AuthorID != nil {
		book.Author = &Author{
			ID:          *book.AuthorID,
			FirstName:   firstName.String,
			LastName:    lastName.String,
			DateOfBirth: datePtr(born),
			DateOfDeath: datePtr(death),
		}
	}
	book.LanguageID = int64Ptr(languageID)
	if book.LanguageID != nil {
		book.Language = &Language{ID: *book.LanguageID, Name: languageName.String}
	}
	return &book, nil
}

// Insert adds a new book and its genre links in one transaction.
// The assigned id is written back into book.
func (m BookModel) Insert(ctx context.Context, book *Book) error {
	// Create a context with a 3-second timeout so a slow database cannot
	// hang the request.
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	// Rollback is a no-op once Commit has succeeded.
	defer tx.Rollback()

	// RETURNING gives back the id PostgreSQL assigned.
	err = tx.QueryRowContext(ctx, `
		INSERT INTO books (title, author_id, summary, isbn, language_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		book.Title, nullInt(book.AuthorID), book.Summary, book.ISBN, nullInt(book.LanguageID),
	).Scan(&book.ID)
	if err != nil {
		return err
	}

	if err := setGenres(ctx, tx, book.ID, book.GenreIDs()); err != nil {
		return err
	}
	return tx.Commit()
}

// setGenres replaces the genre links of a book inside tx.
func setGenres(ctx context.Context, tx *sql.Tx, bookID int64, genreIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM book_genres WHERE book_id = $1`, bookID); err != nil {
		return err
	}
	if len(genreIDs) == 0 {
		return nil
	}
	// pq.Array sends the ids as one bigint[] parameter; unnest expands it to rows.
	_, err := tx.ExecContext(ctx, `
		INSERT INTO book_genres (book_id, genre_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`,
		bookID, pq.Array(genreIDs),
	)
	return err
}

// Get retrieves a single book with its author, language and genres.
func (m BookModel) Get(ctx context.Context, id int64) (*Book, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	book, err := scanBook(m.DB.QueryRowContext(ctx, bookSelect+` WHERE b.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	rows, err := m.DB.QueryContext(ctx, `
		SELECT g.id, g.name
		FROM genres g
		JOIN book_genres bg ON bg.genre_id = g.id
		WHERE bg.book_id = $1
		ORDER BY g.id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	book.Genres = []*Genre{}
	for rows.Next() {
		var genre Genre
		if err := rows.Scan(&genre.ID, &genre.Name); err != nil {
			return nil, err
		}
		book.Genres = append(book.Genres, &genre)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return book, nil
}

// GetAll retrieves a page of books in insertion order.
func (m BookModel) GetAll(ctx context.Context, filters Filters) ([]*Book, Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	query := `
		SELECT count(*) OVER(), q.* FROM (` + bookSelect + `) q
		ORDER BY q.id
		LIMIT $1 OFFSET $2`
	rows, err := m.DB.QueryContext(ctx, query, filters.limit(), filters.offset())
	if err != nil {
		return nil, Metadata{}, err
	}
	defer rows.Close()

	totalRecords := 0
	books := []*Book{}
	for rows.Next() {
		book, err := scanBook(rows, &totalRecords)
		if err != nil {
			return nil, Metadata{}, err
		}
		books = append(books, book)
	}
	if err = rows.Err(); err != nil {
		return nil, Metadata{}, err
	}

	return books, CalculateMetadata(totalRecords, filters.Page, filters.PageSize), nil
}

// ByAuthor returns the books written by the given author, ordered by title.
func (m BookModel) ByAuthor(ctx context.Context, authorID int64) ([]*Book, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, bookSelect+` WHERE b.author_id = $1 ORDER BY b.title, b.id`, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []*Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// Update saves every field of book and replaces its genre links.
func (m BookModel) Update(ctx context.Context, book *Book) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE books
		SET title = $1, author_id = $2, summary = $3, isbn = $4, language_id = $5
		WHERE id = $6`,
		book.Title, nullInt(book.AuthorID), book.Summary, book.ISBN, nullInt(book.LanguageID), book.ID,
	)
	if err != nil {
		return err
	}
	if err := checkAffected(result); err != nil {
		return err
	}

	if err := setGenres(ctx, tx, book.ID, book.GenreIDs()); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes the book. Its instances survive with no book.
func (m BookModel) Delete(ctx context.Context, id int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Count returns the number of books.
func (m BookModel) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int
	err := m.DB.QueryRowContext(ctx, `SELECT count(*) FROM books`).Scan(&n)
	return n, err
}

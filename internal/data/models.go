// Package data provides the catalog entities and the database interaction
// logic for the local library.
package data

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrRecordNotFound is returned when a query finds no matching row.
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateLanguage is returned when a language name is already taken.
	ErrDuplicateLanguage = errors.New("duplicate language")

	// ErrDuplicateUsername is returned when a username is already registered.
	ErrDuplicateUsername = errors.New("duplicate username")

	// ErrInvalidCredentials is returned when a username/password pair does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// GenreStore is implemented by GenreModel and by the in-memory mocks.
type GenreStore interface {
	Insert(ctx context.Context, genre *Genre) error
	Get(ctx context.Context, id int64) (*Genre, error)
	GetAll(ctx context.Context) ([]*Genre, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// LanguageStore is implemented by LanguageModel and by the in-memory mocks.
type LanguageStore interface {
	Insert(ctx context.Context, language *Language) error
	Get(ctx context.Context, id int64) (*Language, error)
	GetAll(ctx context.Context) ([]*Language, error)
	Delete(ctx context.Context, id int64) error
}

// AuthorStore is implemented by AuthorModel and by the in-memory mocks.
type AuthorStore interface {
	Insert(ctx context.Context, author *Author) error
	Get(ctx context.Context, id int64) (*Author, error)
	GetAll(ctx context.Context, filters Filters) ([]*Author, Metadata, error)
	Choices(ctx context.Context) ([]*Author, error)
	Update(ctx context.Context, author *Author) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// BookStore is implemented by BookModel and by the in-memory mocks.
type BookStore interface {
	Insert(ctx context.Context, book *Book) error
	Get(ctx context.Context, id int64) (*Book, error)
	GetAll(ctx context.Context, filters Filters) ([]*Book, Metadata, error)
	ByAuthor(ctx context.Context, authorID int64) ([]*Book, error)
	Update(ctx context.Context, book *Book) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// BookInstanceStore is implemented by BookInstanceModel and by the in-memory mocks.
type BookInstanceStore interface {
	Insert(ctx context.Context, instance *BookInstance) error
	Get(ctx context.Context, id uuid.UUID) (*BookInstance, error)
	ForBook(ctx context.Context, bookID int64) ([]*BookInstance, error)
	Update(ctx context.Context, instance *BookInstance) error
	Renew(ctx context.Context, id uuid.UUID, dueBack time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, q InstanceQuery) (int, error)
	LoanedTo(ctx context.Context, userID int64, filters Filters) ([]*BookInstance, Metadata, error)
	Loaned(ctx context.Context, filters Filters) ([]*BookInstance, Metadata, error)
}

// UserStore is implemented by UserModel and by the in-memory mocks.
type UserStore interface {
	Insert(ctx context.Context, username, email, password string, staff bool) (int64, error)
	Authenticate(ctx context.Context, username, password string) (int64, error)
	Get(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Choices(ctx context.Context) ([]*User, error)
	Permissions(ctx context.Context, id int64) ([]string, error)
	Grant(ctx context.Context, id int64, codename string) error
}

// Models groups every store so handlers never import database/sql directly.
type Models struct {
	Genres    GenreStore
	Languages LanguageStore
	Authors   AuthorStore
	Books     BookStore
	Instances BookInstanceStore
	Users     UserStore
}

// NewModels constructs a Models value wired up to the given database connection pool.
func NewModels(db *sql.DB) Models {
	return Models{
		Genres:    GenreModel{DB: db},
		Languages: LanguageModel{DB: db},
		Authors:   AuthorModel{DB: db},
		Books:     BookModel{DB: db},
		Instances: BookInstanceModel{DB: db},
		Users:     UserModel{DB: db},
	}
}

// Filters holds pagination parameters extracted from URL query strings.
type Filters struct {
	Page     int // 1-indexed
	PageSize int
}

func (f Filters) limit() int  { return f.PageSize }
func (f Filters) offset() int { return (f.Page - 1) * f.PageSize }

// Metadata contains pagination information returned alongside list results.
type Metadata struct {
	CurrentPage  int
	PageSize     int
	FirstPage    int
	LastPage     int
	TotalRecords int
}

// HasPrevious reports whether a page exists before the current one.
func (m Metadata) HasPrevious() bool { return m.CurrentPage > m.FirstPage }

// HasNext reports whether a page exists after the current one.
func (m Metadata) HasNext() bool { return m.CurrentPage < m.LastPage }

// Previous returns the previous page number.
func (m Metadata) Previous() int { return m.CurrentPage - 1 }

// Next returns the next page number.
func (m Metadata) Next() int { return m.CurrentPage + 1 }

// Paginated reports whether there is more than one page.
func (m Metadata) Paginated() bool { return m.LastPage > 1 }

// CalculateMetadata computes page metadata from total record count and filter values.
func CalculateMetadata(totalRecords, page, pageSize int) Metadata {
	if totalRecords == 0 {
		return Metadata{}
	}
	return Metadata{
		CurrentPage:  page,
		PageSize:     pageSize,
		FirstPage:    1,
		LastPage:     int(math.Ceil(float64(totalRecords) / float64(pageSize))),
		TotalRecords: totalRecords,
	}
}

// Date returns the civil date y-m-d as midnight UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf strips the time of day from t, keeping the calendar date in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// nullDate converts an optional date into a database argument.
func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return DateOf(*t)
}

// datePtr converts a scanned sql.NullTime into an optional civil date.
func datePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	d := DateOf(nt.Time)
	return &d
}

func nullInt(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

// checkAffected converts a zero-row write into ErrRecordNotFound.
func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

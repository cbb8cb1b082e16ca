// internal/data/instance.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// LoanStatus is the availability of a single copy.
type LoanStatus string

const (
	StatusMaintenance LoanStatus = "m"
	StatusOnLoan      LoanStatus = "o"
	StatusAvailable   LoanStatus = "a"
	StatusReserved    LoanStatus = "r"
)

// LoanStatuses lists every status in display order.
var LoanStatuses = []LoanStatus{StatusMaintenance, StatusOnLoan, StatusAvailable, StatusReserved}

// Label returns the human-readable status.
func (s LoanStatus) Label() string {
	switch s {
	case StatusMaintenance:
		return "Maintenance"
	case StatusOnLoan:
		return "On loan"
	case StatusAvailable:
		return "Available"
	case StatusReserved:
		return "Reserved"
	}
	return string(s)
}

// Valid reports whether s is one of the known statuses.
func (s LoanStatus) Valid() bool {
	for _, known := range LoanStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// BookInstance is a physical copy of a book that can be borrowed.
// Book and Borrower are populated on reads with the title and username only.
type BookInstance struct {
	ID         uuid.UUID
	BookID     *int64
	Book       *Book
	Imprint    string
	DueBack    *time.Time
	BorrowerID *int64
	Borrower   *User
	Status     LoanStatus
}

// String renders the copy as "<id> (<title>)".
func (bi *BookInstance) String() string {
	if bi.Book == nil {
		return bi.ID.String()
	}
	return bi.ID.String() + " (" + bi.Book.Title + ")"
}

// IsOverdue reports whether the copy was due back before today.
func (bi *BookInstance) IsOverdue(today time.Time) bool {
	return bi.DueBack != nil && DateOf(today).After(DateOf(*bi.DueBack))
}

// BookInstanceInput holds the editable fields of a copy. Borrower is only
// honoured by the update form.
type BookInstanceInput struct {
	Imprint    string `form:"imprint" validate:"required,max=200"`
	Status     string `form:"status"`
	DueBack    string `form:"due_back" validate:"omitempty,datetime=2006-01-02"`
	BorrowerID int64  `form:"borrower" validate:"omitempty,gt=0"`
}

// InstanceQuery narrows Count. Zero fields match everything.
type InstanceQuery struct {
	Status        LoanStatus
	TitleContains string
}

// BookInstanceModel wraps a *sql.DB connection pool for the book_instances table.
type BookInstanceModel struct {
	DB *sql.DB
}

const instanceSelect = `
	SELECT bi.id, bi.book_id, bi.imprint, bi.due_back, bi.borrower_id, bi.status,
	       b.title, u.username
	FROM book_instances bi
	LEFT JOIN books b ON b.id = bi.book_id
	LEFT JOIN users u ON u.id = bi.borrower_id`

func scanInstance(scanner interface{ Scan(dest ...any) error }, extra ...any) (*BookInstance, error) {
	var (
		instance           BookInstance
		bookID, borrowerID sql.NullInt64
		dueBack            sql.NullTime
		status             string
		title, username    sql.NullString
	)
	dest := append(extra,
		&instance.ID, &bookID, &instance.Imprint, &dueBack, &borrowerID, &status,
		&title, &username,
	)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}

	instance.Status = LoanStatus(status)
	instance.DueBack = datePtr(dueBack)
	instance.BookID = int64Ptr(bookID)
	if instance.BookID != nil {
		instance.Book = &Book{ID: *instance.BookID, Title: title.String}
	}
	instance.BorrowerID = int64Ptr(borrowerID)
	if instance.BorrowerID != nil {
		instance.Borrower = &User{ID: *instance.BorrowerID, Username: username.String}
	}
	return &instance, nil
}

// Insert adds a new copy. A fresh random UUID is assigned when instance.ID is
// zero, and an empty status defaults to maintenance.
func (m BookInstanceModel) Insert(ctx context.Context, instance *BookInstance) error {
	if instance.ID == uuid.Nil {
		instance.ID = uuid.New()
	}
	if instance.Status == "" {
		instance.Status = StatusMaintenance
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := m.DB.ExecContext(ctx, `
		INSERT INTO book_instances (id, book_id, imprint, due_back, borrower_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		instance.ID, nullInt(instance.BookID), instance.Imprint, nullDate(instance.DueBack),
		nullInt(instance.BorrowerID), string(instance.Status),
	)
	return err
}

// Get retrieves a single copy by id.
func (m BookInstanceModel) Get(ctx context.Context, id uuid.UUID) (*BookInstance, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	instance, err := scanInstance(m.DB.QueryRowContext(ctx, instanceSelect+` WHERE bi.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return instance, nil
}

// ForBook returns every copy of a book ordered by due date.
func (m BookInstanceModel) ForBook(ctx context.Context, bookID int64) ([]*BookInstance, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, instanceSelect+` WHERE bi.book_id = $1 ORDER BY bi.due_back, bi.id`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	instances := []*BookInstance{}
	for rows.Next() {
		instance, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, instance)
	}
	return instances, rows.Err()
}

// Update saves the editable fields of a copy. The parent book is not changed.
func (m BookInstanceModel) Update(ctx context.Context, instance *BookInstance) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, `
		UPDATE book_instances
		SET imprint = $1, due_back = $2, borrower_id = $3, status = $4
		WHERE id = $5`,
		instance.Imprint, nullDate(instance.DueBack), nullInt(instance.BorrowerID), string(instance.Status), instance.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Renew sets a new due date on a copy. Concurrent renewals are last-write-wins.
func (m BookInstanceModel) Renew(ctx context.Context, id uuid.UUID, dueBack time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, `UPDATE book_instances SET due_back = $1 WHERE id = $2`, DateOf(dueBack), id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Delete removes a copy.
func (m BookInstanceModel) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, `DELETE FROM book_instances WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Count returns the number of copies matching q. TitleContains is a
// case-sensitive substring match on the parent book's title.
func (m BookInstanceModel) Count(ctx context.Context, q InstanceQuery) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int
	err := m.DB.QueryRowContext(ctx, `
		SELECT count(*)
		FROM book_instances bi
		LEFT JOIN books b ON b.id = bi.book_id
		WHERE ($1::text = '' OR bi.status = $1::text)
		AND ($2::text = '' OR strpos(b.title, $2::text) > 0)`,
		string(q.Status), q.TitleContains,
	).Scan(&n)
	return n, err
}

// LoanedTo returns a page of the copies on loan to userID, soonest due first.
func (m BookInstanceModel) LoanedTo(ctx context.Context, userID int64, filters Filters) ([]*BookInstance, Metadata, error) {
	return m.onLoan(ctx, `AND bi.borrower_id = $3`, filters, userID)
}

// Loaned returns a page of every copy on loan, soonest due first.
func (m BookInstanceModel) Loaned(ctx context.Context, filters Filters) ([]*BookInstance, Metadata, error) {
	return m.onLoan(ctx, ``, filters)
}

func (m BookInstanceModel) onLoan(ctx context.Context, where string, filters Filters, args ...any) ([]*BookInstance, Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	// count(*) OVER() returns the total number of matching rows on every row,
	// before LIMIT/OFFSET, so one query gives both the page and its metadata.
	query := `
		SELECT count(*) OVER(), q.* FROM (` + instanceSelect + `
		WHERE bi.status = 'o' ` + where + `) q
		ORDER BY q.due_back, q.id
		LIMIT $1 OFFSET $2`

	// Paging arguments are $1 and $2; the caller's filter arguments follow.
	rows, err := m.DB.QueryContext(ctx, query, append([]any{filters.limit(), filters.offset()}, args...)...)
	if err != nil {
		return nil, Metadata{}, err
	}
	defer rows.Close()

	totalRecords := 0
	instances := []*BookInstance{}
	for rows.Next() {
		instance, err := scanInstance(rows, &totalRecords)
		if err != nil {
			return nil, Metadata{}, err
		}
		instances = append(instances, instance)
	}
	if err = rows.Err(); err != nil {
		return nil, Metadata{}, err
	}

	return instances, CalculateMetadata(totalRecords, filters.Page, filters.PageSize), nil
}

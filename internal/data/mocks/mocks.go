// Package mocks provides in-memory implementations of the data stores with
// the same ordering and reference semantics as the PostgreSQL models.
package mocks

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aoideee/locallibrary/internal/data"
)

var (
	_ data.GenreStore        = GenreStore{}
	_ data.LanguageStore     = LanguageStore{}
	_ data.AuthorStore       = AuthorStore{}
	_ data.BookStore         = BookStore{}
	_ data.BookInstanceStore = InstanceStore{}
	_ data.UserStore         = UserStore{}
)

// DB is the shared in-memory state behind every mock store.
type DB struct {
	mu          sync.Mutex
	nextID      int64
	genres      map[int64]data.Genre
	languages   map[int64]data.Language
	authors     map[int64]data.Author
	books       map[int64]data.Book
	bookGenres  map[int64][]int64
	instances   map[uuid.UUID]data.BookInstance
	users       map[int64]data.User
	permissions map[int64][]string
}

// New returns an empty in-memory database.
func New() *DB {
	return &DB{
		genres:      map[int64]data.Genre{},
		languages:   map[int64]data.Language{},
		authors:     map[int64]data.Author{},
		books:       map[int64]data.Book{},
		bookGenres:  map[int64][]int64{},
		instances:   map[uuid.UUID]data.BookInstance{},
		users:       map[int64]data.User{},
		permissions: map[int64][]string{},
	}
}

// Models returns stores that share this database.
func (db *DB) Models() data.Models {
	return data.Models{
		Genres:    GenreStore{db},
		Languages: LanguageStore{db},
		Authors:   AuthorStore{db},
		Books:     BookStore{db},
		Instances: InstanceStore{db},
		Users:     UserStore{db},
	}
}

func (db *DB) id() int64 {
	db.nextID++
	return db.nextID
}

func page[T any](items []T, filters data.Filters) ([]T, data.Metadata) {
	meta := data.CalculateMetadata(len(items), filters.Page, filters.PageSize)
	start := min((filters.Page-1)*filters.PageSize, len(items))
	end := min(start+filters.PageSize, len(items))
	return slices.Clone(items[start:end]), meta
}

func ptr[T any](v T) *T { return &v }

// --- genres ---

type GenreStore struct{ db *DB }

func (s GenreStore) Insert(_ context.Context, genre *data.Genre) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	genre.ID = s.db.id()
	s.db.genres[genre.ID] = *genre
	return nil
}

func (s GenreStore) Get(_ context.Context, id int64) (*data.Genre, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	g, ok := s.db.genres[id]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	return &g, nil
}

func (s GenreStore) GetAll(_ context.Context) ([]*data.Genre, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	genres := []*data.Genre{}
	for _, g := range s.db.genres {
		genres = append(genres, ptr(g))
	}
	slices.SortFunc(genres, func(a, b *data.Genre) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return genres, nil
}

func (s GenreStore) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.genres[id]; !ok {
		return data.ErrRecordNotFound
	}
	delete(s.db.genres, id)
	for bookID, ids := range s.db.bookGenres {
		s.db.bookGenres[bookID] = slices.DeleteFunc(ids, func(g int64) bool { return g == id })
	}
	return nil
}

func (s GenreStore) Count(_ context.Context) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return len(s.db.genres), nil
}

// --- languages ---

type LanguageStore struct{ db *DB }

func (s LanguageStore) Insert(_ context.Context, language *data.Language) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, l := range s.db.languages {
		if l.Name == language.Name {
			return data.ErrDuplicateLanguage
		}
	}
	language.ID = s.db.id()
	s.db.languages[language.ID] = *language
	return nil
}

func (s LanguageStore) Get(_ context.Context, id int64) (*data.Language, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	l, ok := s.db.languages[id]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	return &l, nil
}

func (s LanguageStore) GetAll(_ context.Context) ([]*data.Language, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	languages := []*data.Language{}
	for _, l := range s.db.languages {
		languages = append(languages, ptr(l))
	}
	slices.SortFunc(languages, func(a, b *data.Language) int { return strings.Compare(a.Name, b.Name) })
	return languages, nil
}

func (s LanguageStore) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.languages[id]; !ok {
		return data.ErrRecordNotFound
	}
	delete(s.db.languages, id)
	for bookID, b := range s.db.books {
		if b.LanguageID != nil && *b.LanguageID == id {
			b.LanguageID = nil
			s.db.books[bookID] = b
		}
	}
	return nil
}

// --- authors ---

type AuthorStore struct{ db *DB }

func (s AuthorStore) Insert(_ context.Context, author *data.Author) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	author.ID = s.db.id()
	s.db.authors[author.ID] = *author
	return nil
}

func (s AuthorStore) Get(_ context.Context, id int64) (*data.Author, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	a, ok := s.db.authors[id]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	return &a, nil
}

func (s AuthorStore) sorted() []*data.Author {
	authors := []*data.Author{}
	for _, a := range s.db.authors {
		authors = append(authors, ptr(a))
	}
	slices.SortFunc(authors, func(a, b *data.Author) int {
		return cmp.Or(
			strings.Compare(a.LastName, b.LastName),
			strings.Compare(a.FirstName, b.FirstName),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return authors
}

func (s AuthorStore) GetAll(_ context.Context, filters data.Filters) ([]*data.Author, data.Metadata, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	authors, meta := page(s.sorted(), filters)
	return authors, meta, nil
}

func (s AuthorStore) Choices(_ context.Context) ([]*data.Author, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.sorted(), nil
}

func (s AuthorStore) Update(_ context.Context, author *data.Author) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.authors[author.ID]; !ok {
		return data.ErrRecordNotFound
	}
	s.db.authors[author.ID] = *author
	return nil
}

func (s AuthorStore) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.authors[id]; !ok {
		return data.ErrRecordNotFound
	}
	delete(s.db.authors, id)
	for bookID, b := range s.db.books {
		if b.AuthorID != nil && *b.AuthorID == id {
			b.AuthorID = nil
			s.db.books[bookID] = b
		}
	}
	return nil
}

func (s AuthorStore) Count(_ context.Context) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return len(s.db.authors), nil
}

// --- books ---

type BookStore struct{ db *DB }

// hydrate fills the joined fields the same way the SQL model does.
func (db *DB) hydrate(b data.Book) *data.Book {
	b.Author, b.Language = nil, nil
	if b.AuthorID != nil {
		if a, ok := db.authors[*b.AuthorID]; ok {
			b.Author = ptr(a)
		}
	}
	if b.LanguageID != nil {
		if l, ok := db.languages[*b.LanguageID]; ok {
			b.Language = ptr(l)
		}
	}
	b.Genres = []*data.Genre{}
	for _, id := range db.bookGenres[b.ID] {
		if g, ok := db.genres[id]; ok {
			b.Genres = append(b.Genres, ptr(g))
		}
	}
	slices.SortFunc(b.Genres, func(x, y *data.Genre) int { return cmp.Compare(x.ID, y.ID) })
	return &b
}

func (s BookStore) Insert(_ context.Context, book *data.Book) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	book.ID = s.db.id()
	s.db.books[book.ID] = *book
	s.db.bookGenres[book.ID] = book.GenreIDs()
	return nil
}

func (s BookStore) Get(_ context.Context, id int64) (*data.Book, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	b, ok := s.db.books[id]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	return s.db.hydrate(b), nil
}

func (s BookStore) GetAll(_ context.Context, filters data.Filters) ([]*data.Book, data.Metadata, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	books := []*data.Book{}
	for _, b := range s.db.books {
		books = append(books, s.db.hydrate(b))
	}
	slices.SortFunc(books, func(a, b *data.Book) int { return cmp.Compare(a.ID, b.ID) })
	books, meta := page(books, filters)
	return books, meta, nil
}

func (s BookStore) ByAuthor(_ context.Context, authorID int64) ([]*data.Book, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	books := []*data.Book{}
	for _, b := range s.db.books {
		if b.AuthorID != nil && *b.AuthorID == authorID {
			books = append(books, s.db.hydrate(b))
		}
	}
	slices.SortFunc(books, func(a, b *data.Book) int {
		return cmp.Or(strings.Compare(a.Title, b.Title), cmp.Compare(a.ID, b.ID))
	})
	return books, nil
}

func (s BookStore) Update(_ context.Context, book *data.Book) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.books[book.ID]; !ok {
		return data.ErrRecordNotFound
	}
	s.db.books[book.ID] = *book
	s.db.bookGenres[book.ID] = book.GenreIDs()
	return nil
}

func (s BookStore) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.books[id]; !ok {
		return data.ErrRecordNotFound
	}
	delete(s.db.books, id)
	delete(s.db.bookGenres, id)
	for instanceID, bi := range s.db.instances {
		if bi.BookID != nil && *bi.BookID == id {
			bi.BookID = nil
			s.db.instances[instanceID] = bi
		}
	}
	return nil
}

func (s BookStore) Count(_ context.Context) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return len(s.db.books), nil
}

// --- instances ---

type InstanceStore struct{ db *DB }

func (db *DB) hydrateInstance(bi data.BookInstance) *data.BookInstance {
	bi.Book, bi.Borrower = nil, nil
	if bi.BookID != nil {
		if b, ok := db.books[*bi.BookID]; ok {
			bi.Book = &data.Book{ID: b.ID, Title: b.Title}
		}
	}
	if bi.BorrowerID != nil {
		if u, ok := db.users[*bi.BorrowerID]; ok {
			bi.Borrower = &data.User{ID: u.ID, Username: u.Username}
		}
	}
	return &bi
}

// byDueBack orders like PostgreSQL's ascending sort: nulls last, then id.
func byDueBack(a, b *data.BookInstance) int {
	switch {
	case a.DueBack == nil && b.DueBack != nil:
		return 1
	case a.DueBack != nil && b.DueBack == nil:
		return -1
	case a.DueBack != nil && b.DueBack != nil:
		if c := a.DueBack.Compare(*b.DueBack); c != 0 {
			return c
		}
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}

func (s InstanceStore) Insert(_ context.Context, instance *data.BookInstance) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if instance.ID == uuid.Nil {
		instance.ID = uuid.New()
	}
	if instance.Status == "" {
		instance.Status = data.StatusMaintenance
	}
	s.db.instances[instance.ID] = *instance
	return nil
}

func (s InstanceStore) Get(_ context.Context, id uuid.UUID) (*data.BookInstance, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	bi, ok := s.db.instances[id]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	return s.db.hydrateInstance(bi), nil
}

func (s InstanceStore) filter(keep func(data.BookInstance) bool) []*data.BookInstance {
	instances := []*data.BookInstance{}
	for _, bi := range s.db.instances {
		if keep(bi) {
			instances = append(instances, s.db.hydrateInstance(bi))
		}
	}
	slices.SortFunc(instances, byDueBack)
	return instances
}

func (s InstanceStore) ForBook(_ context.Context, bookID int64) ([]*data.BookInstance, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	return s.filter(func(bi data.BookInstance) bool {
		return bi.BookID != nil && *bi.BookID == bookID
	}), nil
}

func (s InstanceStore) Update(_ context.Context, instance *data.BookInstance) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	current, ok := s.db.instances[instance.ID]
	if !ok {
		return data.ErrRecordNotFound
	}
	updated := *instance
	updated.BookID = current.BookID
	s.db.instances[instance.ID] = updated
	return nil
}

func (s InstanceStore) Renew(_ context.Context, id uuid.UUID, dueBack time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	bi, ok := s.db.instances[id]
	if !ok {
		return data.ErrRecordNotFound
	}
	bi.DueBack = ptr(data.DateOf(dueBack))
	s.db.instances[id] = bi
	return nil
}

func (s InstanceStore) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.instances[id]; !ok {
		return data.ErrRecordNotFound
	}
	delete(s.db.instances, id)
	return nil
}

func (s InstanceStore) Count(_ context.Context, q data.InstanceQuery) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	n := 0
	for _, bi := range s.db.instances {
		if q.Status != "" && bi.Status != q.Status {
			continue
		}
		if q.TitleContains != "" {
			if bi.BookID == nil {
				continue
			}
			b, ok := s.db.books[*bi.BookID]
			if !ok || !strings.Contains(b.Title, q.TitleContains) {
				continue
			}
		}
		n++
	}
	return n, nil
}

func (s InstanceStore) LoanedTo(_ context.Context, userID int64, filters data.Filters) ([]*data.BookInstance, data.Metadata, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	instances, meta := page(s.filter(func(bi data.BookInstance) bool {
		return bi.Status == data.StatusOnLoan && bi.BorrowerID != nil && *bi.BorrowerID == userID
	}), filters)
	return instances, meta, nil
}

func (s InstanceStore) Loaned(_ context.Context, filters data.Filters) ([]*data.BookInstance, data.Metadata, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	instances, meta := page(s.filter(func(bi data.BookInstance) bool {
		return bi.Status == data.StatusOnLoan
	}), filters)
	return instances, meta, nil
}

// --- users ---

type UserStore struct{ db *DB }

func (s UserStore) Insert(_ context.Context, username, email, password string, staff bool) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return 0, err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, u := range s.db.users {
		if u.Username == username {
			return 0, data.ErrDuplicateUsername
		}
	}
	id := s.db.id()
	s.db.users[id] = data.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsStaff:      staff,
		Created:      time.Now(),
	}
	return id, nil
}

func (s UserStore) Authenticate(ctx context.Context, username, password string) (int64, error) {
	u, err := s.GetByUsername(ctx, username)
	if err != nil {
		return 0, data.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return 0, data.ErrInvalidCredentials
	}
	return u.ID, nil
}

func (s UserStore) Get(_ context.Context, id int64) (*data.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	u, ok := s.db.users[id]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	return &u, nil
}

func (s UserStore) GetByUsername(_ context.Context, username string) (*data.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, u := range s.db.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, data.ErrRecordNotFound
}

func (s UserStore) Choices(_ context.Context) ([]*data.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	users := []*data.User{}
	for _, u := range s.db.users {
		users = append(users, ptr(u))
	}
	slices.SortFunc(users, func(a, b *data.User) int { return strings.Compare(a.Username, b.Username) })
	return users, nil
}

func (s UserStore) Permissions(_ context.Context, id int64) ([]string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	codes := slices.Clone(s.db.permissions[id])
	slices.Sort(codes)
	if codes == nil {
		codes = []string{}
	}
	return codes, nil
}

func (s UserStore) Grant(_ context.Context, id int64, codename string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.users[id]; !ok {
		return data.ErrRecordNotFound
	}
	if !slices.Contains(s.db.permissions[id], codename) {
		s.db.permissions[id] = append(s.db.permissions[id], codename)
	}
	return nil
}

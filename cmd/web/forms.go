// cmd/web/forms.go
// This file contains the HTML form types and the readers that fill them from
// a POST body. A reader returns an error only when the body cannot be parsed
// or a lookup fails; field problems are recorded on the form.
package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aoideee/locallibrary/internal/data"
	"github.com/aoideee/locallibrary/internal/validator"
)

const msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."

// parseForm parses the body, marking a failure as the client's fault.
func parseForm(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return &malformedFormError{err: err}
	}
	return nil
}

type bookForm struct {
	data.BookInput
	validator.Validator
}

type authorForm struct {
	data.AuthorInput
	validator.Validator
}

type instanceForm struct {
	data.BookInstanceInput
	validator.Validator
}

// renewForm carries the proposed due date. Field is the input name the date
// was posted under, either "renewal_date" or "due_back".
type renewForm struct {
	Field       string
	RenewalDate string
	validator.Validator
}

type loginForm struct {
	Username string `form:"username" validate:"required,max=150"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"-"`
	validator.Validator
}

type genreForm struct {
	data.GenreInput
	validator.Validator
}

type languageForm struct {
	data.LanguageInput
	validator.Validator
}

// readBookForm parses and validates the book form, including that every
// selected author, genre and language exists.
func (app *applicationDependencies) readBookForm(r *http.Request) (*bookForm, error) {
	if err := parseForm(r); err != nil {
		return nil, err
	}

	form := &bookForm{BookInput: data.BookInput{
		Title:      strings.TrimSpace(r.PostForm.Get("title")),
		AuthorID:   formInt64(r.PostForm, "author"),
		Summary:    strings.TrimSpace(r.PostForm.Get("summary")),
		ISBN:       strings.TrimSpace(r.PostForm.Get("isbn")),
		GenreIDs:   formInt64s(r.PostForm, "genre"),
		LanguageID: formInt64(r.PostForm, "language"),
	}}
	form.CheckStruct(form.BookInput)

	ctx := r.Context()
	if form.AuthorID > 0 {
		_, err := app.models.Authors.Get(ctx, form.AuthorID)
		if err := checkChoice(&form.Validator, "author", err); err != nil {
			return nil, err
		}
	}
	if form.LanguageID > 0 {
		_, err := app.models.Languages.Get(ctx, form.LanguageID)
		if err := checkChoice(&form.Validator, "language", err); err != nil {
			return nil, err
		}
	}
	for _, id := range form.GenreIDs {
		if id < 1 {
			continue
		}
		_, err := app.models.Genres.Get(ctx, id)
		if err := checkChoice(&form.Validator, "genre", err); err != nil {
			return nil, err
		}
	}
	return form, nil
}

// checkChoice records an invalid-choice error for field when a lookup
// reported a missing row. Any other lookup error is returned.
func checkChoice(v *validator.Validator, field string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, data.ErrRecordNotFound):
		v.AddError(field, msgInvalidChoice)
		return nil
	default:
		return err
	}
}

func (f *bookForm) book(id int64) *data.Book {
	book := &data.Book{
		ID:         id,
		Title:      f.Title,
		AuthorID:   &f.AuthorID,
		Summary:    f.Summary,
		ISBN:       f.ISBN,
		LanguageID: &f.LanguageID,
	}
	for _, gid := range f.GenreIDs {
		book.Genres = append(book.Genres, &data.Genre{ID: gid})
	}
	return book
}

func bookFormFrom(b *data.Book) *bookForm {
	return &bookForm{BookInput: data.BookInput{
		Title:      b.Title,
		AuthorID:   derefID(b.AuthorID),
		Summary:    b.Summary,
		ISBN:       b.ISBN,
		GenreIDs:   b.GenreIDs(),
		LanguageID: derefID(b.LanguageID),
	}}
}

func readAuthorForm(r *http.Request) (*authorForm, error) {
	if err := parseForm(r); err != nil {
		return nil, err
	}

	form := &authorForm{AuthorInput: data.AuthorInput{
		FirstName:   strings.TrimSpace(r.PostForm.Get("first_name")),
		LastName:    strings.TrimSpace(r.PostForm.Get("last_name")),
		DateOfBirth: strings.TrimSpace(r.PostForm.Get("date_of_birth")),
		DateOfDeath: strings.TrimSpace(r.PostForm.Get("date_of_death")),
	}}
	form.CheckStruct(form.AuthorInput)
	return form, nil
}

// author converts a valid form into an Author.
func (f *authorForm) author(id int64) *data.Author {
	born, _ := parseDate(f.DateOfBirth)
	died, _ := parseDate(f.DateOfDeath)
	return &data.Author{
		ID:          id,
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		DateOfBirth: born,
		DateOfDeath: died,
	}
}

func authorFormFrom(a *data.Author) *authorForm {
	return &authorForm{AuthorInput: data.AuthorInput{
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		DateOfBirth: isoDate(a.DateOfBirth),
		DateOfDeath: isoDate(a.DateOfDeath),
	}}
}

// readInstanceForm parses the copy form. The borrower field is only read
// when withBorrower is set, since the create form does not expose it.
func (app *applicationDependencies) readInstanceForm(r *http.Request, withBorrower bool) (*instanceForm, error) {
	if err := parseForm(r); err != nil {
		return nil, err
	}

	form := &instanceForm{BookInstanceInput: data.BookInstanceInput{
		Imprint: strings.TrimSpace(r.PostForm.Get("imprint")),
		Status:  r.PostForm.Get("status"),
		DueBack: strings.TrimSpace(r.PostForm.Get("due_back")),
	}}
	if withBorrower && r.PostForm.Get("borrower") != "" {
		form.BorrowerID = formInt64(r.PostForm, "borrower")
		if form.BorrowerID == 0 {
			// malformed ids fail the gt=0 rule
			form.BorrowerID = -1
		}
	}
	form.CheckStruct(form.BookInstanceInput)
	// An empty status falls back to maintenance in apply.
	form.Check(form.Status == "" || validator.In(data.LoanStatus(form.Status), data.LoanStatuses...), "status", msgInvalidChoice)

	if form.BorrowerID > 0 {
		_, err := app.models.Users.Get(r.Context(), form.BorrowerID)
		if err := checkChoice(&form.Validator, "borrower", err); err != nil {
			return nil, err
		}
	}
	return form, nil
}

// apply copies the form onto instance.
func (f *instanceForm) apply(instance *data.BookInstance) {
	instance.Imprint = f.Imprint
	instance.Status = data.LoanStatus(f.Status)
	if instance.Status == "" {
		instance.Status = data.StatusMaintenance
	}
	instance.DueBack, _ = parseDate(f.DueBack)
	instance.BorrowerID = nil
	if f.BorrowerID > 0 {
		id := f.BorrowerID
		instance.BorrowerID = &id
	}
}

func instanceFormFrom(bi *data.BookInstance) *instanceForm {
	return &instanceForm{BookInstanceInput: data.BookInstanceInput{
		Imprint:    bi.Imprint,
		Status:     string(bi.Status),
		DueBack:    isoDate(bi.DueBack),
		BorrowerID: derefID(bi.BorrowerID),
	}}
}

// readRenewForm accepts the date as "renewal_date", or as "due_back" when
// posted from the copy form, and checks it against today.
func (app *applicationDependencies) readRenewForm(r *http.Request) (*renewForm, error) {
	if err := parseForm(r); err != nil {
		return nil, err
	}

	form := &renewForm{Field: "renewal_date"}
	if _, ok := r.PostForm["renewal_date"]; !ok {
		if _, ok := r.PostForm["due_back"]; ok {
			form.Field = "due_back"
		}
	}
	form.RenewalDate = strings.TrimSpace(r.PostForm.Get(form.Field))

	if form.RenewalDate == "" {
		form.AddError(form.Field, "This field is required.")
		return form, nil
	}
	date, err := parseDate(form.RenewalDate)
	if err != nil {
		form.AddError(form.Field, "Enter a valid date.")
		return form, nil
	}
	if _, err := data.ValidateRenewalDate(*date, app.today()); err != nil {
		var dateErr *data.InvalidDateError
		if !errors.As(err, &dateErr) {
			return nil, err
		}
		form.AddError(form.Field, dateErr.Reason)
	}
	return form, nil
}

func readLoginForm(r *http.Request) (*loginForm, error) {
	if err := parseForm(r); err != nil {
		return nil, err
	}

	form := &loginForm{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Password: r.PostForm.Get("password"),
		Next:     r.PostForm.Get("next"),
	}
	form.CheckStruct(*form)
	form.Check(validator.NotBlank(form.Password), "password", "This field is required.")
	return form, nil
}

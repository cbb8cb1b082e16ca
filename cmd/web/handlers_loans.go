// cmd/web/handlers_loans.go
// This file contains the loan pages and the librarian renewal form.
package main

import (
	"net/http"

	"github.com/aoideee/locallibrary/internal/data"
)

// myBooksHandler handles GET /mybooks/: copies on loan to the current user,
// soonest due first.
func (app *applicationDependencies) myBooksHandler(w http.ResponseWriter, r *http.Request) {
	page, ok := app.readPage(r.URL.Query())
	if !ok {
		app.notFoundResponse(w, r)
		return
	}

	user := app.contextGetUser(r)
	instances, metadata, err := app.models.Instances.LoanedTo(r.Context(), user.ID, data.Filters{Page: page, PageSize: loansPerPage})
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	if pageOutOfRange(page, len(instances)) {
		app.notFoundResponse(w, r)
		return
	}

	td := app.newTemplateData(r)
	td.Instances = instances
	td.Metadata = metadata
	app.render(w, r, http.StatusOK, "bookinstance_list_borrowed_user.tmpl", td)
}

// allBorrowedHandler handles GET /all-borrowed/: every copy on loan.
func (app *applicationDependencies) allBorrowedHandler(w http.ResponseWriter, r *http.Request) {
	page, ok := app.readPage(r.URL.Query())
	if !ok {
		app.notFoundResponse(w, r)
		return
	}

	instances, metadata, err := app.models.Instances.Loaned(r.Context(), data.Filters{Page: page, PageSize: loansPerPage})
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	if pageOutOfRange(page, len(instances)) {
		app.notFoundResponse(w, r)
		return
	}

	td := app.newTemplateData(r)
	td.Instances = instances
	td.Metadata = metadata
	app.render(w, r, http.StatusOK, "bookinstance_list_borrowed_all.tmpl", td)
}

// renewBookFormHandler handles GET /books/:id/renew/, proposing a due date
// three weeks from today.
func (app *applicationDependencies) renewBookFormHandler(w http.ResponseWriter, r *http.Request) {
	instance, ok := app.loanFromPath(w, r)
	if !ok {
		return
	}

	form := &renewForm{
		Field:       "renewal_date",
		RenewalDate: isoDate(data.ProposedRenewalDate(app.today())),
	}
	app.renderRenewForm(w, r, http.StatusOK, instance, form)
}

// renewBookHandler handles POST /books/:id/renew/.
func (app *applicationDependencies) renewBookHandler(w http.ResponseWriter, r *http.Request) {
	instance, ok := app.loanFromPath(w, r)
	if !ok {
		return
	}

	form, err := app.readRenewForm(r)
	if err != nil {
		app.formErrorResponse(w, r, err)
		return
	}
	if !form.Valid() {
		app.renderRenewForm(w, r, http.StatusUnprocessableEntity, instance, form)
		return
	}

	dueBack, err := parseDate(form.RenewalDate)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	if err := app.models.Instances.Renew(r.Context(), instance.ID, *dueBack); err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	app.redirect(w, r, "/all-borrowed/")
}

func (app *applicationDependencies) renderRenewForm(w http.ResponseWriter, r *http.Request, status int, instance *data.BookInstance, form *renewForm) {
	td := app.newTemplateData(r)
	td.Instance = instance
	td.Form = form
	app.render(w, r, status, "book_renew_librarian.tmpl", td)
}

func (app *applicationDependencies) loanFromPath(w http.ResponseWriter, r *http.Request) (*data.BookInstance, bool) {
	id, err := app.readUUIDParam(r, "id")
	if err != nil {
		app.notFoundResponse(w, r)
		return nil, false
	}

	instance, err := app.models.Instances.Get(r.Context(), id)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return nil, false
	}
	return instance, true
}

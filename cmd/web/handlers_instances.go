// cmd/web/handlers_instances.go
// This file contains the handlers for book copies. Copies are created under
// their book; update and delete are addressed through it as well.
package main

import (
	"fmt"
	"net/http"

	"github.com/aoideee/locallibrary/internal/data"
)

func (app *applicationDependencies) renderInstanceForm(w http.ResponseWriter, r *http.Request, status int, page string, book *data.Book, instance *data.BookInstance, form *instanceForm) {
	td := app.newTemplateData(r)
	td.Book = book
	td.Instance = instance
	td.Form = form

	if instance != nil {
		users, err := app.models.Users.Choices(r.Context())
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}
		td.Users = users
	}

	app.render(w, r, status, page, td)
}

// createInstanceFormHandler handles GET /book/:id/instance/create/.
func (app *applicationDependencies) createInstanceFormHandler(w http.ResponseWriter, r *http.Request) {
	book, ok := app.bookFromPath(w, r)
	if !ok {
		return
	}
	form := &instanceForm{BookInstanceInput: data.BookInstanceInput{Status: string(data.StatusMaintenance)}}
	app.renderInstanceForm(w, r, http.StatusOK, "bookinstance_form.tmpl", book, nil, form)
}

// createInstanceHandler handles POST /book/:id/instance/create/. The copy
// always belongs to the book in the path.
func (app *applicationDependencies) createInstanceHandler(w http.ResponseWriter, r *http.Request) {
	book, ok := app.bookFromPath(w, r)
	if !ok {
		return
	}

	form, err := app.readInstanceForm(r, false)
	if err != nil {
		app.formErrorResponse(w, r, err)
		return
	}
	if !form.Valid() {
		app.renderInstanceForm(w, r, http.StatusUnprocessableEntity, "bookinstance_form.tmpl", book, nil, form)
		return
	}

	instance := &data.BookInstance{BookID: &book.ID}
	form.apply(instance)
	if err := app.models.Instances.Insert(r.Context(), instance); err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.sessionManager.Put(r.Context(), "flash", "Copy added.")
	app.redirect(w, r, fmt.Sprintf("/book/%d/", book.ID))
}

// updateInstanceFormHandler handles GET /book/:id/instance/:instance/update/.
func (app *applicationDependencies) updateInstanceFormHandler(w http.ResponseWriter, r *http.Request) {
	book, instance, ok := app.instanceFromPath(w, r)
	if !ok {
		return
	}
	app.renderInstanceForm(w, r, http.StatusOK, "bookinstance_edit_form.tmpl", book, instance, instanceFormFrom(instance))
}

// updateInstanceHandler handles POST /book/:id/instance/:instance/update/.
func (app *applicationDependencies) updateInstanceHandler(w http.ResponseWriter, r *http.Request) {
	book, instance, ok := app.instanceFromPath(w, r)
	if !ok {
		return
	}

	form, err := app.readInstanceForm(r, true)
	if err != nil {
		app.formErrorResponse(w, r, err)
		return
	}
	if !form.Valid() {
		app.renderInstanceForm(w, r, http.StatusUnprocessableEntity, "bookinstance_edit_form.tmpl", book, instance, form)
		return
	}

	form.apply(instance)
	if err := app.models.Instances.Update(r.Context(), instance); err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	app.redirect(w, r, instanceDonePath(book))
}

// deleteInstanceFormHandler handles GET /book/:id/instance/:instance/delete/.
func (app *applicationDependencies) deleteInstanceFormHandler(w http.ResponseWriter, r *http.Request) {
	book, instance, ok := app.instanceFromPath(w, r)
	if !ok {
		return
	}

	td := app.newTemplateData(r)
	td.Book = book
	td.Instance = instance
	app.render(w, r, http.StatusOK, "bookinstance_confirm_delete.tmpl", td)
}

// deleteInstanceHandler handles POST /book/:id/instance/:instance/delete/.
func (app *applicationDependencies) deleteInstanceHandler(w http.ResponseWriter, r *http.Request) {
	book, instance, ok := app.instanceFromPath(w, r)
	if !ok {
		return
	}

	if err := app.models.Instances.Delete(r.Context(), instance.ID); err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	app.sessionManager.Put(r.Context(), "flash", "Copy deleted.")
	app.redirect(w, r, instanceDonePath(book))
}

// instanceFromPath loads the copy named by the path and its book. A copy
// that belongs to another book is answered with 404. A copy whose book was
// deleted is found under any book id and comes back with a nil book.
func (app *applicationDependencies) instanceFromPath(w http.ResponseWriter, r *http.Request) (*data.Book, *data.BookInstance, bool) {
	bookID, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundResponse(w, r)
		return nil, nil, false
	}

	id, err := app.readUUIDParam(r, "instance")
	if err != nil {
		app.notFoundResponse(w, r)
		return nil, nil, false
	}

	instance, err := app.models.Instances.Get(r.Context(), id)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return nil, nil, false
	}

	// Orphaned copy: nothing in the path to check it against.
	if instance.BookID == nil {
		return nil, instance, true
	}
	if *instance.BookID != bookID {
		app.notFoundResponse(w, r)
		return nil, nil, false
	}

	book, err := app.models.Books.Get(r.Context(), bookID)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return nil, nil, false
	}
	return book, instance, true
}

// instanceDonePath is where a copy's update and delete forms return to.
func instanceDonePath(book *data.Book) string {
	if book == nil {
		return "/books/"
	}
	return fmt.Sprintf("/book/%d/", book.ID)
}

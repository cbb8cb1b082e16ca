// cmd/web/handlers_users.go
// This file contains the login and logout handlers.
package main

import (
	"errors"
	"net/http"

	"github.com/aoideee/locallibrary/internal/data"
	"github.com/aoideee/locallibrary/internal/validator"
)

// loginFormHandler handles GET /accounts/login/.
func (app *applicationDependencies) loginFormHandler(w http.ResponseWriter, r *http.Request) {
	td := app.newTemplateData(r)
	td.Form = &loginForm{}
	td.Next = r.URL.Query().Get("next")
	app.render(w, r, http.StatusOK, "login.tmpl", td)
}

// loginHandler handles POST /accounts/login/. On success the session token
// is renewed and the user is sent on to next, if it is a local path.
func (app *applicationDependencies) loginHandler(w http.ResponseWriter, r *http.Request) {
	form, err := readLoginForm(r)
	if err != nil {
		app.formErrorResponse(w, r, err)
		return
	}

	var id int64
	if form.Valid() {
		id, err = app.models.Users.Authenticate(r.Context(), form.Username, form.Password)
		if err != nil {
			if !errors.Is(err, data.ErrInvalidCredentials) {
				app.serverErrorResponse(w, r, err)
				return
			}
			form.AddNonFieldError("Please enter a correct username and password. Note that both fields may be case-sensitive.")
		}
	}
	if !form.Valid() {
		form.Password = ""
		td := app.newTemplateData(r)
		td.Form = form
		td.Next = form.Next
		app.render(w, r, http.StatusUnprocessableEntity, "login.tmpl", td)
		return
	}

	if err := app.sessionManager.RenewToken(r.Context()); err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	app.sessionManager.Put(r.Context(), authenticatedUserIDKey, id)

	target := "/"
	if validator.SafeRedirect(form.Next) {
		target = form.Next
	}
	app.redirect(w, r, target)
}

// logoutHandler handles POST /accounts/logout/.
func (app *applicationDependencies) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.sessionManager.RenewToken(r.Context()); err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	app.sessionManager.Remove(r.Context(), authenticatedUserIDKey)
	app.sessionManager.Put(r.Context(), "flash", "You have been logged out.")
	app.redirect(w, r, "/")
}

// cmd/web/handlers_taxonomy.go
// This file contains the genre and language maintenance handlers.
package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aoideee/locallibrary/internal/data"
)

// listGenresHandler handles GET /genres/.
func (app *applicationDependencies) listGenresHandler(w http.ResponseWriter, r *http.Request) {
	app.renderGenres(w, r, http.StatusOK, &genreForm{})
}

func (app *applicationDependencies) renderGenres(w http.ResponseWriter, r *http.Request, status int, form *genreForm) {
	genres, err := app.models.Genres.GetAll(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	td := app.newTemplateData(r)
	td.Genres = genres
	td.Form = form
	app.render(w, r, status, "genre_list.tmpl", td)
}

// createGenreHandler handles POST /genres/.
func (app *applicationDependencies) createGenreHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	form := &genreForm{GenreInput: data.GenreInput{Name: strings.TrimSpace(r.PostForm.Get("name"))}}
	form.CheckStruct(form.GenreInput)
	if !form.Valid() {
		app.renderGenres(w, r, http.StatusUnprocessableEntity, form)
		return
	}

	if err := app.models.Genres.Insert(r.Context(), &data.Genre{Name: form.Name}); err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.redirect(w, r, "/genres/")
}

// deleteGenreHandler handles POST /genre/:id/delete/.
func (app *applicationDependencies) deleteGenreHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	if err := app.models.Genres.Delete(r.Context(), id); err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	app.redirect(w, r, "/genres/")
}

// listLanguagesHandler handles GET /languages/.
func (app *applicationDependencies) listLanguagesHandler(w http.ResponseWriter, r *http.Request) {
	app.renderLanguages(w, r, http.StatusOK, &languageForm{})
}

func (app *applicationDependencies) renderLanguages(w http.ResponseWriter, r *http.Request, status int, form *languageForm) {
	languages, err := app.models.Languages.GetAll(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	td := app.newTemplateData(r)
	td.Languages = languages
	td.Form = form
	app.render(w, r, status, "language_list.tmpl", td)
}

// createLanguageHandler handles POST /languages/. A name already in use is
// reported against the field.
func (app *applicationDependencies) createLanguageHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	form := &languageForm{LanguageInput: data.LanguageInput{Name: strings.TrimSpace(r.PostForm.Get("language"))}}
	form.CheckStruct(form.LanguageInput)
	if !form.Valid() {
		app.renderLanguages(w, r, http.StatusUnprocessableEntity, form)
		return
	}

	err := app.models.Languages.Insert(r.Context(), &data.Language{Name: form.Name})
	if err != nil {
		if errors.Is(err, data.ErrDuplicateLanguage) {
			form.AddError("language", "Language with this Language already exists.")
			app.renderLanguages(w, r, http.StatusUnprocessableEntity, form)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	app.redirect(w, r, "/languages/")
}

// deleteLanguageHandler handles POST /language/:id/delete/. Books in the
// language are kept with their language cleared.
func (app *applicationDependencies) deleteLanguageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	if err := app.models.Languages.Delete(r.Context(), id); err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	app.redirect(w, r, "/languages/")
}

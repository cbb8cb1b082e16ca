// cmd/web/routes.go
package main

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/aoideee/locallibrary/internal/data"
	"github.com/aoideee/locallibrary/ui"
)

// routes registers every endpoint and wraps the router in the middleware chain:
//
//	recoverPanic → logRequest → rateLimit → commonHeaders → LoadAndSave → authenticate → router
//
// Sessions wrap everything that can render a page, since pages pop the flash.
// rateLimit sits outside them and answers in plain text.
//
// httprouter cannot register a static segment next to a parameter, so
// "/book/create/" is served by the "/book/:id/" route through createOr.
func (app *applicationDependencies) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.Handler(http.MethodGet, "/static/*filepath", http.FileServerFS(ui.Files))
	router.HandlerFunc(http.MethodGet, "/healthz", app.healthzHandler)

	router.HandlerFunc(http.MethodGet, "/", app.homeHandler)

	// Books
	router.HandlerFunc(http.MethodGet, "/books/", app.listBooksHandler)
	router.HandlerFunc(http.MethodGet, "/book/:id/", app.createOr("id", app.requireStaff(app.createBookFormHandler), app.showBookHandler))
	router.HandlerFunc(http.MethodPost, "/book/:id/", app.createOr("id", app.requireStaff(app.createBookHandler), app.allowOnly(http.MethodGet)))
	router.HandlerFunc(http.MethodGet, "/book/:id/update/", app.requireStaff(app.updateBookFormHandler))
	router.HandlerFunc(http.MethodPost, "/book/:id/update/", app.requireStaff(app.updateBookHandler))
	router.HandlerFunc(http.MethodGet, "/book/:id/delete/", app.requireStaff(app.deleteBookFormHandler))
	router.HandlerFunc(http.MethodPost, "/book/:id/delete/", app.requireStaff(app.deleteBookHandler))

	// Copies, nested under their book. A copy has no page of its own, so
	// anything but "create" in the :instance slot is a 404.
	router.HandlerFunc(http.MethodGet, "/book/:id/instance/:instance/", app.createOr("instance", app.requireStaff(app.createInstanceFormHandler), nil))
	router.HandlerFunc(http.MethodPost, "/book/:id/instance/:instance/", app.createOr("instance", app.requireStaff(app.createInstanceHandler), nil))
	router.HandlerFunc(http.MethodGet, "/book/:id/instance/:instance/update/", app.requireStaff(app.updateInstanceFormHandler))
	router.HandlerFunc(http.MethodPost, "/book/:id/instance/:instance/update/", app.requireStaff(app.updateInstanceHandler))
	router.HandlerFunc(http.MethodGet, "/book/:id/instance/:instance/delete/", app.requireStaff(app.deleteInstanceFormHandler))
	router.HandlerFunc(http.MethodPost, "/book/:id/instance/:instance/delete/", app.requireStaff(app.deleteInstanceHandler))

	// Authors
	router.HandlerFunc(http.MethodGet, "/authors/", app.listAuthorsHandler)
	router.HandlerFunc(http.MethodGet, "/author/:id/", app.createOr("id", app.requireStaff(app.createAuthorFormHandler), app.showAuthorHandler))
	router.HandlerFunc(http.MethodPost, "/author/:id/", app.createOr("id", app.requireStaff(app.createAuthorHandler), app.allowOnly(http.MethodGet)))
	router.HandlerFunc(http.MethodGet, "/author/:id/update/", app.requireStaff(app.updateAuthorFormHandler))
	router.HandlerFunc(http.MethodPost, "/author/:id/update/", app.requireStaff(app.updateAuthorHandler))
	router.HandlerFunc(http.MethodGet, "/author/:id/delete/", app.requireStaff(app.deleteAuthorFormHandler))
	router.HandlerFunc(http.MethodPost, "/author/:id/delete/", app.requireStaff(app.deleteAuthorHandler))

	// Loans
	router.HandlerFunc(http.MethodGet, "/mybooks/", app.requireAuthentication(app.myBooksHandler))
	router.HandlerFunc(http.MethodGet, "/all-borrowed/", app.requirePermission(data.PermissionMarkReturned, app.allBorrowedHandler))
	router.HandlerFunc(http.MethodGet, "/books/:id/renew/", app.requirePermission(data.PermissionMarkReturned, app.renewBookFormHandler))
	router.HandlerFunc(http.MethodPost, "/books/:id/renew/", app.requirePermission(data.PermissionMarkReturned, app.renewBookHandler))

	// Genres and languages
	router.HandlerFunc(http.MethodGet, "/genres/", app.listGenresHandler)
	router.HandlerFunc(http.MethodPost, "/genres/", app.requireStaff(app.createGenreHandler))
	router.HandlerFunc(http.MethodPost, "/genre/:id/delete/", app.requireStaff(app.deleteGenreHandler))
	router.HandlerFunc(http.MethodGet, "/languages/", app.listLanguagesHandler)
	router.HandlerFunc(http.MethodPost, "/languages/", app.requireStaff(app.createLanguageHandler))
	router.HandlerFunc(http.MethodPost, "/language/:id/delete/", app.requireStaff(app.deleteLanguageHandler))

	// Accounts
	router.HandlerFunc(http.MethodGet, "/accounts/login/", app.loginFormHandler)
	router.HandlerFunc(http.MethodPost, "/accounts/login/", app.loginHandler)
	router.HandlerFunc(http.MethodPost, "/accounts/logout/", app.logoutHandler)

	// recoverPanic is outermost so it catches panics from every layer.
	return app.recoverPanic(app.logRequest(app.rateLimit(commonHeaders(
		app.sessionManager.LoadAndSave(app.authenticate(router)),
	))))
}

// createOr sends requests whose param equals "create" to create and all
// others to other. A nil other answers 404.
func (app *applicationDependencies) createOr(param string, create, other http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if httprouter.ParamsFromContext(r.Context()).ByName(param) == "create" {
			create(w, r)
			return
		}
		if other == nil {
			app.notFoundResponse(w, r)
			return
		}
		other(w, r)
	}
}

// allowOnly answers 405 for a path that exists under other methods.
func (app *applicationDependencies) allowOnly(methods ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", strings.Join(methods, ", "))
		app.methodNotAllowedResponse(w, r)
	}
}

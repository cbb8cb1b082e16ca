// cmd/web/errors.go
// This file contains all error-response helpers for the application.
// Every handler failure ends up in one of these.
package main

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// logError logs an internal error with the request method and URL for context.
func (app *applicationDependencies) logError(r *http.Request, err error) {
	app.logger.Error(err.Error(),
		slog.String("request_method", r.Method),
		slog.String("request_url", r.URL.String()),
	)
}

// errorResponse renders the error page with the given status and message.
// It falls back to plain text if the page itself cannot be rendered.
func (app *applicationDependencies) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	td := app.newTemplateData(r)
	td.Status = status
	td.Message = message

	if err := app.renderPage(w, status, "error.tmpl", td); err != nil {
		// Fall back to plain text so the client still gets the status.
		app.logError(r, err)
		http.Error(w, message, status)
	}
}

// serverErrorResponse logs the failure and sends a generic 500 page.
// Internal details are never shown to the client.
func (app *applicationDependencies) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Error(err.Error(),
		slog.String("request_method", r.Method),
		slog.String("request_url", r.URL.String()),
		slog.String("trace", string(debug.Stack())),
	)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	http.Error(w, "the server encountered a problem and could not process your request", http.StatusInternalServerError)
}

// notFoundResponse sends a 404 Not Found page.
func (app *applicationDependencies) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, "The requested page could not be found.")
}

// forbiddenResponse sends a 403 Forbidden page.
func (app *applicationDependencies) forbiddenResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusForbidden, "You do not have permission to view this page.")
}

// methodNotAllowedResponse sends a 405 Method Not Allowed page.
func (app *applicationDependencies) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := "The " + r.Method + " method is not supported for this page."
	app.errorResponse(w, r, http.StatusMethodNotAllowed, message)
}

// badRequestResponse sends a 400 Bad Request page.
func (app *applicationDependencies) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

// rateLimitExceededResponse sends a plain-text 429. It runs outside the
// session layer, so it cannot render a page.
func (app *applicationDependencies) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Rate limit exceeded.", http.StatusTooManyRequests)
}

// malformedFormError marks a request body that could not be parsed.
type malformedFormError struct {
	err error
}

func (e *malformedFormError) Error() string { return e.err.Error() }
func (e *malformedFormError) Unwrap() error { return e.err }

// formErrorResponse answers a failed form read: 400 when the body itself was
// malformed, otherwise a logged 500 that hides the cause.
func (app *applicationDependencies) formErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var malformed *malformedFormError
	if errors.As(err, &malformed) {
		app.badRequestResponse(w, r, malformed)
		return
	}
	app.serverErrorResponse(w, r, err)
}

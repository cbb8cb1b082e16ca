// cmd/web/helpers.go
// This file contains general-purpose helper functions for the application.
// Error-response helpers live in errors.go; only non-error utilities are here.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/aoideee/locallibrary/internal/data"
)

// dateLayout is the wire format of every date field.
const dateLayout = "2006-01-02"

// readIDParam extracts a positive integer URL parameter added by httprouter.
func (app *applicationDependencies) readIDParam(r *http.Request, name string) (int64, error) {
	params := httprouter.ParamsFromContext(r.Context())
	id, err := strconv.ParseInt(params.ByName(name), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return id, nil
}

// readUUIDParam extracts a UUID URL parameter added by httprouter.
func (app *applicationDependencies) readUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	params := httprouter.ParamsFromContext(r.Context())
	id, err := uuid.Parse(params.ByName(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s parameter", name)
	}
	return id, nil
}

// readPage reads the "page" query parameter, defaulting to 1. It returns
// false if the value is present but not a positive integer.
func (app *applicationDependencies) readPage(qs url.Values) (int, bool) {
	s := qs.Get("page")
	if s == "" {
		return 1, true
	}
	page, err := strconv.Atoi(s)
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}

// pageOutOfRange reports whether a non-first page came back empty.
func pageOutOfRange(page, count int) bool {
	return page > 1 && count == 0
}

// parseDate parses an optional YYYY-MM-DD value. Empty input yields nil.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// formInt64 reads an integer form value. Missing or malformed input yields 0,
// which the struct validator reports as a missing choice.
func formInt64(form url.Values, key string) int64 {
	n, err := strconv.ParseInt(form.Get(key), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// formInt64s reads every value of a multi-select.
func formInt64s(form url.Values, key string) []int64 {
	values := form[key]
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			n = 0
		}
		ids = append(ids, n)
	}
	return ids
}

// today returns the current civil date.
func (app *applicationDependencies) today() time.Time {
	return data.DateOf(app.clock())
}

// newTemplateData returns the fields every page needs.
func (app *applicationDependencies) newTemplateData(r *http.Request) templateData {
	td := templateData{
		CurrentYear: app.clock().Year(),
		Today:       app.today(),
		Flash:       app.sessionManager.PopString(r.Context(), "flash"),
		Statuses:    data.LoanStatuses,
	}
	if user := app.contextGetUser(r); user != nil {
		td.User = user.User
		td.IsStaff = user.IsStaff
		td.CanMarkReturned = user.Has(data.PermissionMarkReturned)
	}
	return td
}

// renderPage executes a cached page into a buffer first so that template
// errors never produce half-written responses.
func (app *applicationDependencies) renderPage(w http.ResponseWriter, status int, page string, td templateData) error {
	ts, ok := app.templateCache[page]
	if !ok {
		return fmt.Errorf("the template %s does not exist", page)
	}

	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, "base", td); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// render writes a page and turns any failure into a 500.
func (app *applicationDependencies) render(w http.ResponseWriter, r *http.Request, status int, page string, td templateData) {
	if err := app.renderPage(w, status, page, td); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// redirect sends a 303 to path, the answer to every successful form POST.
func (app *applicationDependencies) redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// storeErrorResponse maps a store error to the matching response.
func (app *applicationDependencies) storeErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, data.ErrRecordNotFound):
		app.notFoundResponse(w, r)
	default:
		app.serverErrorResponse(w, r, err)
	}
}

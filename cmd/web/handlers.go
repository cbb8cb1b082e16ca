// cmd/web/handlers.go
// This file contains the index and health handlers, plus the page sizes
// shared by the list handlers.
package main

import (
	"context"
	"net/http"

	"github.com/aoideee/locallibrary/internal/data"
)

const (
	booksPerPage   = 5
	authorsPerPage = 5
	loansPerPage   = 2
)

// homeHandler handles GET /. It shows catalog counts and how many times this
// session has visited the page.
func (app *applicationDependencies) homeHandler(w http.ResponseWriter, r *http.Request) {
	s, err := app.catalogSummary(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	// The page shows the count before this visit; the session keeps the
	// incremented value for the next one.
	s.NumVisits = app.sessionManager.GetInt(r.Context(), "num_visits")
	app.sessionManager.Put(r.Context(), "num_visits", s.NumVisits+1)

	td := app.newTemplateData(r)
	td.Summary = s
	app.render(w, r, http.StatusOK, "index.tmpl", td)
}

func (app *applicationDependencies) catalogSummary(ctx context.Context) (*summary, error) {
	var (
		s   summary
		err error
	)
	if s.NumBooks, err = app.models.Books.Count(ctx); err != nil {
		return nil, err
	}
	if s.NumInstances, err = app.models.Instances.Count(ctx, data.InstanceQuery{}); err != nil {
		return nil, err
	}
	if s.NumInstancesAvailable, err = app.models.Instances.Count(ctx, data.InstanceQuery{Status: data.StatusAvailable}); err != nil {
		return nil, err
	}
	if s.NumAuthors, err = app.models.Authors.Count(ctx); err != nil {
		return nil, err
	}
	if s.NumGenres, err = app.models.Genres.Count(ctx); err != nil {
		return nil, err
	}
	if s.NumHPInstances, err = app.models.Instances.Count(ctx, data.InstanceQuery{TitleContains: "Harry Potter"}); err != nil {
		return nil, err
	}
	return &s, nil
}

// healthzHandler handles GET /healthz.
func (app *applicationDependencies) healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

// cmd/web/templates.go
// This file contains the template data, the template functions and the
// cache of parsed pages.
package main

import (
	"html/template"
	"io/fs"
	"path/filepath"
	"slices"
	"time"

	"github.com/aoideee/locallibrary/internal/data"
	"github.com/aoideee/locallibrary/ui"
)

// summary holds the counters shown on the home page.
type summary struct {
	NumBooks              int
	NumInstances          int
	NumInstancesAvailable int
	NumAuthors            int
	NumGenres             int
	NumHPInstances        int
	NumVisits             int
}

// templateData is the single context type passed to every page.
type templateData struct {
	CurrentYear     int
	Today           time.Time
	Flash           string
	User            *data.User
	IsStaff         bool
	CanMarkReturned bool

	Summary   *summary
	Author    *data.Author
	Authors   []*data.Author
	Book      *data.Book
	Books     []*data.Book
	Instance  *data.BookInstance
	Instances []*data.BookInstance
	Genres    []*data.Genre
	Languages []*data.Language
	Users     []*data.User
	Statuses  []data.LoanStatus
	Metadata  data.Metadata

	Form    any
	Next    string
	Status  int
	Message string
}

// dateValue unwraps the optional dates used across the models.
func dateValue(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	}
	return time.Time{}, false
}

// humanDate formats a date for display, e.g. "Jan 5, 2024".
func humanDate(v any) string {
	t, ok := dateValue(v)
	if !ok {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

// isoDate formats a date for <input type="date">.
func isoDate(v any) string {
	t, ok := dateValue(v)
	if !ok {
		return ""
	}
	return t.Format(dateLayout)
}

func hasID(ids []int64, id int64) bool {
	return slices.Contains(ids, id)
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

var functions = template.FuncMap{
	"humanDate": humanDate,
	"isoDate":   isoDate,
	"hasID":     hasID,
	"derefID":   derefID,
}

// newTemplateCache parses every page together with the base layout and partials.
func newTemplateCache() (map[string]*template.Template, error) {
	cache := map[string]*template.Template{}

	pages, err := fs.Glob(ui.Files, "html/pages/*.tmpl")
	if err != nil {
		return nil, err
	}

	for _, page := range pages {
		name := filepath.Base(page)

		patterns := []string{
			"html/base.tmpl",
			"html/partials/*.tmpl",
			page,
		}

		ts, err := template.New(name).Funcs(functions).ParseFS(ui.Files, patterns...)
		if err != nil {
			return nil, err
		}
		cache[name] = ts
	}

	return cache, nil
}

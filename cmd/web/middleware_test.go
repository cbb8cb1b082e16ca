package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoideee/locallibrary/internal/data"
)

func TestRecoverPanic(t *testing.T) {
	app, _ := newTestApplication(t)

	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	app.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})).ServeHTTP(rr, r)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "close", rr.Header().Get("Connection"))
}

func TestRateLimit(t *testing.T) {
	app, _ := newTestApplication(t)
	app.config.Limiter.Enabled = true
	app.config.Limiter.RPS = 0.001
	app.config.Limiter.Burst = 2

	ts := newTestServer(t, app.routes())

	for i := 0; i < 2; i++ {
		code, _, _ := ts.get(t, "/healthz")
		require.Equal(t, http.StatusOK, code)
	}
	code, _, body := ts.get(t, "/healthz")
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Contains(t, body, "Rate limit exceeded.")
}

type countingUsers struct {
	data.UserStore
	gets *atomic.Int64
}

func (s countingUsers) Get(ctx context.Context, id int64) (*data.User, error) {
	s.gets.Add(1)
	return s.UserStore.Get(ctx, id)
}

func TestRateLimitSkipsSessionLookup(t *testing.T) {
	app, db := newTestApplication(t)
	app.config.Limiter.Enabled = true
	app.config.Limiter.RPS = 0.001
	app.config.Limiter.Burst = 2

	var gets atomic.Int64
	app.models.Users = countingUsers{UserStore: app.models.Users, gets: &gets}

	ts := newTestServer(t, app.routes())
	ts.login(t, db, "alice", false)

	code, _, _ := ts.get(t, "/healthz")
	require.Equal(t, http.StatusOK, code)
	before := gets.Load()
	require.NotZero(t, before)

	code, header, body := ts.get(t, "/healthz")
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "Rate limit exceeded.", body)
	assert.Empty(t, header.Get("Set-Cookie"))
	assert.Equal(t, before, gets.Load())
}

func TestCreateOr(t *testing.T) {
	app, _ := newTestApplication(t)

	handler := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(name)) }
	}

	router := httprouter.New()
	router.HandlerFunc(http.MethodGet, "/thing/:id/", app.createOr("id", handler("create"), handler("show")))
	router.HandlerFunc(http.MethodPost, "/thing/:id/", app.createOr("id", handler("create"), nil))
	handlerWithSession := app.sessionManager.LoadAndSave(router)

	tests := []struct {
		method   string
		path     string
		wantCode int
		wantBody string
	}{
		{http.MethodGet, "/thing/create/", http.StatusOK, "create"},
		{http.MethodGet, "/thing/7/", http.StatusOK, "show"},
		{http.MethodPost, "/thing/create/", http.StatusOK, "create"},
		{http.MethodPost, "/thing/7/", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		rr := httptest.NewRecorder()
		handlerWithSession.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.wantCode, rr.Code, tt.path)
		if tt.wantBody != "" {
			assert.Equal(t, tt.wantBody, rr.Body.String())
		}
	}
}

func TestReadPage(t *testing.T) {
	app, _ := newTestApplication(t)

	tests := []struct {
		query    string
		wantPage int
		wantOK   bool
	}{
		{"", 1, true},
		{"page=1", 1, true},
		{"page=12", 12, true},
		{"page=0", 0, false},
		{"page=-2", 0, false},
		{"page=last", 0, false},
	}

	for _, tt := range tests {
		qs, err := url.ParseQuery(tt.query)
		require.NoError(t, err)

		page, ok := app.readPage(qs)
		assert.Equal(t, tt.wantOK, ok, tt.query)
		assert.Equal(t, tt.wantPage, page, tt.query)
	}
}

func TestPageOutOfRange(t *testing.T) {
	assert.False(t, pageOutOfRange(1, 0))
	assert.False(t, pageOutOfRange(2, 1))
	assert.True(t, pageOutOfRange(2, 0))
}

func TestFormInts(t *testing.T) {
	form := url.Values{"one": {"4"}, "bad": {"x"}, "many": {"1", "2", "y"}}

	assert.Equal(t, int64(4), formInt64(form, "one"))
	assert.Zero(t, formInt64(form, "bad"))
	assert.Zero(t, formInt64(form, "missing"))
	assert.Equal(t, []int64{1, 2, 0}, formInt64s(form, "many"))
	assert.Empty(t, formInt64s(form, "missing"))
}

// cmd/web/middleware.go
// This file contains HTTP middleware used to wrap the router, plus the
// per-route gates that check who the current user is.
package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/aoideee/locallibrary/internal/data"
)

// recoverPanic turns a panic in any downstream handler into a 500 response
// instead of a dropped connection.
func (app *applicationDependencies) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// defer runs while the goroutine unwinds, even after a panic.
		defer func() {
			if err := recover(); err != nil {
				// Close the connection once this response is written.
				w.Header().Set("Connection", "close")
				app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// logRequest writes one log line per request.
func (app *applicationDependencies) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.logger.Info("received request",
			"ip", r.RemoteAddr,
			"proto", r.Proto,
			"method", r.Method,
			"uri", r.URL.RequestURI(),
		)
		next.ServeHTTP(w, r)
	})
}

// commonHeaders sets the security headers every page is served with.
func commonHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("Referrer-Policy", "origin-when-cross-origin")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		next.ServeHTTP(w, r)
	})
}

// client holds a per-IP rate limiter and the time it was last seen.
type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimit implements per-IP token-bucket rate limiting. Clients not seen
// for three minutes are evicted by a background sweep. It sits outside the
// session layer, so a throttled request never touches the database.
func (app *applicationDependencies) rateLimit(next http.Handler) http.Handler {
	if !app.config.Limiter.Enabled {
		return next
	}

	var (
		mu      sync.Mutex
		clients = make(map[string]*client)
	)

	// Cleanup goroutine: remove stale IP entries every minute.
	go func() {
		for {
			time.Sleep(time.Minute)
			mu.Lock()
			for ip, c := range clients {
				if time.Since(c.lastSeen) > 3*time.Minute {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Strip the port from RemoteAddr.
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}

		mu.Lock()
		// First request from this IP gets a fresh bucket.
		if _, found := clients[ip]; !found {
			clients[ip] = &client{
				limiter: rate.NewLimiter(rate.Limit(app.config.Limiter.RPS), app.config.Limiter.Burst),
			}
		}
		clients[ip].lastSeen = time.Now()

		if !clients[ip].limiter.Allow() {
			// Unlock before writing the response.
			mu.Unlock()
			app.rateLimitExceededResponse(w, r)
			return
		}
		mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

// authenticate loads the user named by the session, if any, into the request
// context. A session pointing at a deleted account is treated as anonymous.
func (app *applicationDependencies) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := app.sessionManager.GetInt64(r.Context(), authenticatedUserIDKey)
		if id == 0 {
			next.ServeHTTP(w, r)
			return
		}

		user, err := app.models.Users.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, data.ErrRecordNotFound) {
				// The account was deleted after login.
				app.sessionManager.Remove(r.Context(), authenticatedUserIDKey)
				next.ServeHTTP(w, r)
				return
			}
			app.serverErrorResponse(w, r, err)
			return
		}

		perms, err := app.models.Users.Permissions(r.Context(), id)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}

		r = app.contextSetUser(r, &currentUser{User: user, Permissions: perms})
		next.ServeHTTP(w, r)
	})
}

// requireAuthentication redirects anonymous users to the login page,
// remembering where they were going.
func (app *applicationDependencies) requireAuthentication(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if app.contextGetUser(r) == nil {
			target := "/accounts/login/?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		// Pages behind a login must not be cached by shared proxies.
		w.Header().Add("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	}
}

// requireStaff allows only staff accounts through.
func (app *applicationDependencies) requireStaff(next http.HandlerFunc) http.HandlerFunc {
	return app.requireAuthentication(func(w http.ResponseWriter, r *http.Request) {
		if !app.contextGetUser(r).IsStaff {
			app.forbiddenResponse(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requirePermission allows only users holding the permission codename.
func (app *applicationDependencies) requirePermission(codename string, next http.HandlerFunc) http.HandlerFunc {
	return app.requireAuthentication(func(w http.ResponseWriter, r *http.Request) {
		if !app.contextGetUser(r).Has(codename) {
			app.forbiddenResponse(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// cmd/web/context.go
// This file contains the request-context helpers for the signed-in user.
package main

import (
	"context"
	"net/http"
	"slices"

	"github.com/aoideee/locallibrary/internal/data"
)

type contextKey string

const userContextKey = contextKey("user")

// authenticatedUserIDKey is the session key holding the logged-in user's id.
const authenticatedUserIDKey = "authenticatedUserID"

// currentUser is the logged-in account together with its granted permissions.
type currentUser struct {
	*data.User
	Permissions []string
}

// Has reports whether the user holds the permission codename.
func (u *currentUser) Has(codename string) bool {
	return slices.Contains(u.Permissions, codename)
}

func (app *applicationDependencies) contextSetUser(r *http.Request, user *currentUser) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, user)
	return r.WithContext(ctx)
}

// contextGetUser returns the logged-in user, or nil for anonymous requests.
func (app *applicationDependencies) contextGetUser(r *http.Request) *currentUser {
	user, ok := r.Context().Value(userContextKey).(*currentUser)
	if !ok {
		return nil
	}
	return user
}

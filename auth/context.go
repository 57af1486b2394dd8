package auth

import (
	"context"
	"net/url"
	"strings"

	"gamecatalog/models"
)

// Context is the identity bound to one request. Identify creates it; Login
// and Logout update it in place so the rest of the request sees the change.
type Context struct {
	User  *models.User
	Token string
}

type ctxKey struct{}

func WithContext(ctx context.Context, ac *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, ac)
}

// FromContext returns the request identity, or nil outside Identify.
func FromContext(ctx context.Context) *Context {
	ac, _ := ctx.Value(ctxKey{}).(*Context)
	return ac
}

// CurrentIdentity returns the logged in user, or nil for anonymous requests.
func CurrentIdentity(ctx context.Context) *models.User {
	if ac := FromContext(ctx); ac != nil {
		return ac.User
	}
	return nil
}

func RequireAuthenticated(ctx context.Context) (*models.User, error) {
	user := CurrentIdentity(ctx)
	if user == nil {
		return nil, models.ErrUnauthorized
	}
	return user, nil
}

func RequireAdmin(ctx context.Context) (*models.User, error) {
	user, err := RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		return nil, models.ErrForbidden
	}
	return user, nil
}

// SafeRedirect returns target when it is a path on this site and "/" otherwise.
func SafeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return target
}

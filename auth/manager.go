// Package auth binds users to browser sessions and guards routes that need a
// logged in user or an admin.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"gamecatalog/models"
	"gamecatalog/store"
	"gamecatalog/utils"

	"github.com/sirupsen/logrus"
)

const (
	SessionCookie = "session_token"
	DefaultTTL    = 24 * time.Hour
)

type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	// Get returns utils.ErrSessionNotFound for unknown or expired tokens.
	Get(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteUser(ctx context.Context, userID int64) error
}

type UserFinder interface {
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
}

type Options struct {
	TTL          time.Duration
	SecureCookie bool
	// Forbidden renders the response for logged in users lacking admin rights.
	Forbidden http.HandlerFunc
}

type Manager struct {
	sessions  SessionStore
	users     UserFinder
	logger    *logrus.Logger
	ttl       time.Duration
	secure    bool
	forbidden http.HandlerFunc
	now       func() time.Time
}

func NewManager(sessions SessionStore, users UserFinder, logger *logrus.Logger, opts Options) *Manager {
	m := &Manager{
		sessions:  sessions,
		users:     users,
		logger:    logger,
		ttl:       opts.TTL,
		secure:    opts.SecureCookie,
		forbidden: opts.Forbidden,
		now:       time.Now,
	}
	if m.ttl <= 0 {
		m.ttl = DefaultTTL
	}
	if m.forbidden == nil {
		m.forbidden = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		}
	}
	return m
}

// Login starts a fresh session for user. A session the request already
// carried is destroyed first so its token cannot be reused.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, r *http.Request, user *models.User) error {
	if old := utils.CookieValue(r, SessionCookie); old != "" {
		if err := m.sessions.Delete(ctx, old); err != nil {
			m.logger.WithError(err).Warn("failed to drop previous session")
		}
	}

	token, err := utils.GenerateToken(32)
	if err != nil {
		return err
	}
	now := m.now()
	session := models.Session{
		SessionToken: token,
		UserID:       user.ID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(m.ttl),
		UserAgent:    utils.GetUserAgent(r),
		IPAddress:    utils.GetIP(r),
	}
	if err := m.sessions.Create(ctx, session); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	m.setCookie(w, token, int(m.ttl.Seconds()))
	if ac := FromContext(ctx); ac != nil {
		ac.User = user
		ac.Token = token
	}

	m.logger.WithFields(logrus.Fields{
		"action":  "login",
		"user_id": user.ID,
	}).Info("session created")
	return nil
}

// Logout destroys the current session, if any, and always clears the cookie.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	m.setCookie(w, "", -1)

	var userID int64
	if ac := FromContext(ctx); ac != nil {
		if ac.User != nil {
			userID = ac.User.ID
		}
		ac.User = nil
		ac.Token = ""
	}

	token := utils.CookieValue(r, SessionCookie)
	if token == "" {
		return nil
	}
	if err := m.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"action":  "logout",
		"user_id": userID,
	}).Info("session destroyed")
	return nil
}

// Identify resolves the session cookie into a request-scoped Context. The
// user is loaded from the store on every request, so a changed admin flag
// takes effect immediately.
func (m *Manager) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac := &Context{}
		ctx := r.Context()

		if token := utils.CookieValue(r, SessionCookie); token != "" {
			m.resolve(ctx, w, token, ac)
		}

		next.ServeHTTP(w, r.WithContext(WithContext(ctx, ac)))
	})
}

func (m *Manager) resolve(ctx context.Context, w http.ResponseWriter, token string, ac *Context) {
	session, err := m.sessions.Get(ctx, token)
	if errors.Is(err, utils.ErrSessionNotFound) {
		m.setCookie(w, "", -1)
		return
	}
	if err != nil {
		m.logger.WithError(err).Error("failed to load session")
		return
	}

	user, err := m.users.FindUserByID(ctx, session.UserID)
	if errors.Is(err, store.ErrNotFound) {
		if err := m.sessions.DeleteUser(ctx, session.UserID); err != nil {
			m.logger.WithError(err).Error("failed to drop orphaned sessions")
		}
		m.setCookie(w, "", -1)
		return
	}
	if err != nil {
		m.logger.WithError(err).
			WithField("user_id", session.UserID).
			Error("failed to load session user")
		return
	}

	ac.User = user
	ac.Token = token
}

// RequireLogin sends anonymous visitors to the login page.
func (m *Manager) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		noStore(w)
		if _, err := RequireAuthenticated(r.Context()); err != nil {
			redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdminLogin sends anonymous visitors to the login page and answers
// 403 to logged in users that are not admins.
func (m *Manager) RequireAdminLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		noStore(w)
		_, err := RequireAdmin(r.Context())
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			redirectToLogin(w, r)
			return
		case errors.Is(err, models.ErrForbidden):
			if user := CurrentIdentity(r.Context()); user != nil {
				m.logger.WithFields(logrus.Fields{
					"user_id": user.ID,
					"path":    r.URL.Path,
				}).Warn("admin route refused")
			}
			m.forbidden(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Manager) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   maxAge,
	})
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("Pragma", "no-cache")
}

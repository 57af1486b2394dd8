package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"gamecatalog/utils"

	"github.com/sirupsen/logrus"
)

const (
	CSRFCookie = "csrf_token"
	CSRFField  = "csrf_token"
	CSRFHeader = "X-CSRF-Token"
)

type csrfKey struct{}

// CSRFToken returns the token forms must echo back in the csrf_token field.
func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(csrfKey{}).(string)
	return token
}

// CSRF implements the double-submit check: unsafe requests must send back,
// as a form field or header, the token held in the csrf_token cookie.
func CSRF(logger *logrus.Logger, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := utils.CookieValue(r, CSRFCookie)
			issued := false
			if token == "" {
				var err error
				token, err = utils.GenerateToken(32)
				if err != nil {
					logger.WithError(err).Error("failed to generate csrf token")
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				issued = true
				http.SetCookie(w, &http.Cookie{
					Name:     CSRFCookie,
					Value:    token,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			if !isSafeMethod(r.Method) {
				sent := r.PostFormValue(CSRFField)
				if sent == "" {
					sent = r.Header.Get(CSRFHeader)
				}
				if issued || subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1 {
					logger.WithFields(logrus.Fields{
						"method": r.Method,
						"path":   r.URL.Path,
					}).Warn("csrf token mismatch")
					http.Error(w, "invalid CSRF token", http.StatusForbidden)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfKey{}, token)))
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

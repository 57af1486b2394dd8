package utils

import (
	"encoding/base64"
	"net/http"
	"strings"

	"gamecatalog/models"
)

const flashCookie = "flash"

func CookieExists(r *http.Request, name string) bool {
	st, err := r.Cookie(name)
	return err == nil && st.Value != ""
}

// CookieValue returns the value of the named cookie or "" if it is absent.
func CookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// GetUserAgent returns the User-Agent string from the request
func GetUserAgent(r *http.Request) string {
	return r.Header.Get("User-Agent")
}

// GetIP returns the IP address of the client from the request
func GetIP(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.RemoteAddr
	}
	return ip
}

// SetFlash stores a one-shot message that survives the next redirect.
func SetFlash(w http.ResponseWriter, f models.Flash) {
	value := base64.URLEncoding.EncodeToString([]byte(f.Outcome + "|" + f.Message))
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60,
	})
}

// PopFlash reads the pending flash message, if any, and expires its cookie.
func PopFlash(w http.ResponseWriter, r *http.Request) *models.Flash {
	value := CookieValue(r, flashCookie)
	if value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	raw, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	outcome, message, ok := strings.Cut(string(raw), "|")
	if !ok {
		return nil
	}
	return &models.Flash{Outcome: outcome, Message: message}
}

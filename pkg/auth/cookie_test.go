package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveCookieSettings(t *testing.T) {
	tests := []struct {
		name         string
		baseURL      string
		cookieDomain string
		want         CookieSettings
	}{
		{"localhost http", "http://localhost:3480", "", CookieSettings{Secure: false}},
		{"https host-only", "https://journal.example.com", "", CookieSettings{Secure: true}},
		{"configured domain", "https://journal.example.com", ".example.com", CookieSettings{Secure: true, Domain: ".example.com"}},
		{"domain kept over http", "http://127.0.0.1:3480", "localhost", CookieSettings{Secure: false, Domain: "localhost"}},
		{"empty url is secure", "", "", CookieSettings{Secure: true}},
		{"invalid url is secure", "://bad", "", CookieSettings{Secure: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveCookieSettings(tt.baseURL, tt.cookieDomain))
		})
	}
}

func TestCookieSettings_ExpireCookie(t *testing.T) {
	cookie := CookieSettings{Secure: true, Domain: ".example.com"}.ExpireCookie("__session")

	assert.Equal(t, "__session", cookie.Name)
	assert.Empty(t, cookie.Value)
	assert.Equal(t, -1, cookie.MaxAge)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, ".example.com", cookie.Domain)
	assert.True(t, cookie.Secure)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
}

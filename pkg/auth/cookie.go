package auth

import (
	"net/http"
	"net/url"
)

// CookieSettings holds the attributes the session cookie was written with.
// Clearing a cookie only works when Domain and Path match the original.
type CookieSettings struct {
	// Secure restricts the cookie to HTTPS.
	Secure bool
	// Domain is the cookie domain scope. Empty means host-only.
	Domain string
}

// DeriveCookieSettings derives cookie attributes from the service base URL.
// Secure follows the URL scheme; an empty or unparsable URL is treated as HTTPS.
// The domain is never guessed from the host: the identity provider's frontend
// SDK decides it, so it is taken from configuration as-is.
func DeriveCookieSettings(baseURL, cookieDomain string) CookieSettings {
	return CookieSettings{
		Secure: isHTTPS(baseURL),
		Domain: cookieDomain,
	}
}

// ExpireCookie returns a cookie that tells the browser to drop name now.
func (s CookieSettings) ExpireCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Path:     "/",
		Domain:   s.Domain,
	}
}

func isHTTPS(baseURL string) bool {
	if baseURL == "" {
		return true
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return true
	}
	return parsedURL.Scheme != "http"
}

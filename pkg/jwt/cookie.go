package jwt

import (
	"net/http"
	"strings"
	"time"
)

// CreateCookie builds an http-only session cookie. Cross-site cookies
// (SameSite=None) require Secure, so plain-http requests fall back to Lax.
func CreateCookie(name, value, path string, expTime time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expTime,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite(secure),
	}
}

func DeleteCookie(name, path string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite(secure),
	}
}

// IsSecureRequest reports whether the client reached us over https,
// directly or through a proxy that sets X-Forwarded-Proto.
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	proto := r.Header.Get("X-Forwarded-Proto")
	for _, p := range strings.Split(proto, ",") {
		if strings.EqualFold(strings.TrimSpace(p), "https") {
			return true
		}
	}
	return false
}

func sameSite(secure bool) http.SameSite {
	if secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

package handlers

import (
	"net/http"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/middleware"
)

// RefreshCookieName is the cookie carrying the refresh token.
const RefreshCookieName = "refreshToken"

func authCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
	}
}

// setAuthCookies attaches both token cookies to the response.
func setAuthCookies(w http.ResponseWriter, pair auth.TokenPair) {
	http.SetCookie(w, authCookie(middleware.AccessCookieName, pair.AccessToken, 0))
	http.SetCookie(w, authCookie(RefreshCookieName, pair.RefreshToken, 0))
}

// clearAuthCookies expires both token cookies.
func clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, authCookie(middleware.AccessCookieName, "", -1))
	http.SetCookie(w, authCookie(RefreshCookieName, "", -1))
}

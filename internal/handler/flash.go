package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/msomdec/recruit-dashboard/internal/view"
)

const flashCookieName = "flash"

func setFlash(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(kind + ":" + message),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60,
	})
}

// popFlash reads and clears the pending notification.
func popFlash(w http.ResponseWriter, r *http.Request) *view.Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookieName, Path: "/", MaxAge: -1})

	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	kind, message, ok := strings.Cut(raw, ":")
	if !ok || message == "" {
		return nil
	}
	return &view.Flash{Kind: kind, Message: message}
}

func redirectWithFlash(w http.ResponseWriter, r *http.Request, to, kind, message string) {
	setFlash(w, kind, message)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// frame builds the page chrome for the signed-in user.
func frame(w http.ResponseWriter, r *http.Request) view.Frame {
	f := view.Frame{Flash: popFlash(w, r)}
	if user := UserFromContext(r.Context()); user != nil {
		f.UserName = user.Name
	}
	return f
}

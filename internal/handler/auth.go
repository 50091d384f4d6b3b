package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/msomdec/recruit-dashboard/internal/domain"
	"github.com/msomdec/recruit-dashboard/internal/view"
)

const loginFailedMessage = "Invalid email or password."

// AuthHandler serves the sign-in, registration and sign-out flows. The
// session itself comes from LoadSession.
type AuthHandler struct{}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

func loginMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidInput) {
		return "Email and password are required."
	}
	return domain.UserMessage(err, loginFailedMessage)
}

func signedIn(r *http.Request) bool {
	store := SessionFromContext(r.Context())
	return store != nil && store.IsAuthenticated()
}

// HandleRoot sends signed-in users to the dashboard and everyone else to
// the login page.
func (h *AuthHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if signedIn(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// HandleLoginPage renders the login form.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if signedIn(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	view.LoginPage(popFlash(w, r), view.LoginForm{}).Render(r.Context(), w)
}

// HandleLogin processes the login form.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	email := r.FormValue("email")

	user, err := SessionFromContext(r.Context()).Login(r.Context(), email, r.FormValue("password"))
	if err != nil {
		if !errors.Is(err, domain.ErrBackend) && !errors.Is(err, domain.ErrUnauthorized) && !errors.Is(err, domain.ErrInvalidInput) {
			slog.Error("login user", "error", err)
		}
		w.WriteHeader(http.StatusUnauthorized)
		view.LoginPage(nil, view.LoginForm{Email: email, Error: loginMessage(err)}).Render(r.Context(), w)
		return
	}

	redirectWithFlash(w, r, "/dashboard", "success", "Welcome back, "+user.Name+"!")
}

// HandleRegisterPage renders the registration form.
func (h *AuthHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	view.RegisterPage(popFlash(w, r), view.RegisterForm{}).Render(r.Context(), w)
}

// HandleRegister processes the registration form. A new account is not
// signed in; the user is sent to the login page.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := view.RegisterForm{Name: r.FormValue("name"), Email: r.FormValue("email")}

	err := SessionFromContext(r.Context()).Register(r.Context(), form.Name, form.Email, r.FormValue("password"))
	if err != nil {
		var vErr *domain.ValidationError
		switch {
		case errors.As(err, &vErr):
			form.FieldErrors = vErr.FieldErrors
			w.WriteHeader(http.StatusUnprocessableEntity)
		case errors.Is(err, domain.ErrDuplicateEmail):
			form.Error = "An account with that email already exists."
			w.WriteHeader(http.StatusConflict)
		case errors.Is(err, domain.ErrBackend):
			form.Error = domain.UserMessage(err, "Registration failed. Please try again.")
			w.WriteHeader(http.StatusBadGateway)
		default:
			slog.Error("register user", "error", err)
			form.Error = "An unexpected error occurred. Please try again."
			w.WriteHeader(http.StatusInternalServerError)
		}
		view.RegisterPage(nil, form).Render(r.Context(), w)
		return
	}

	redirectWithFlash(w, r, "/login", "success", "Registration successful. Please sign in.")
}

// HandleLogout clears the session and returns to the login page.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := SessionFromContext(r.Context()).Logout(r.Context()); err != nil {
		slog.Error("logout user", "error", err)
	}
	redirectWithFlash(w, r, "/login", "success", "You have been signed out.")
}

// HandleAPILogin processes a JSON login request.
// POST /api/auth/login
// Request:  {"email":"...","password":"..."}
// Response: {"user": {...}}
func (h *AuthHandler) HandleAPILogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := SessionFromContext(r.Context()).Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusUnprocessableEntity, loginMessage(err))
			return
		}
		if errors.Is(err, domain.ErrBackend) || errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, loginMessage(err))
			return
		}
		slog.Error("login user", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": toUserDTO(user)})
}

// HandleAPIRegister processes a JSON registration request.
// POST /api/auth/register
// Request:  {"name":"...","email":"...","password":"..."}
// Response: 201 {"message": "..."}
func (h *AuthHandler) HandleAPIRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if err := SessionFromContext(r.Context()).Register(r.Context(), req.Name, req.Email, req.Password); err != nil {
		writeServiceError(w, r, err, "Registration failed. Please try again.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Registration successful. Please sign in."})
}

// HandleAPILogout clears the session.
// POST /api/auth/logout
// Response: 204 No Content
func (h *AuthHandler) HandleAPILogout(w http.ResponseWriter, r *http.Request) {
	if err := SessionFromContext(r.Context()).Logout(r.Context()); err != nil {
		slog.Error("logout user", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the currently authenticated user.
// GET /api/auth/me
// Response: {"user": {...}} or 401
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": toUserDTO(user)})
}

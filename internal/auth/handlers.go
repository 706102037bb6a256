package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"storefront/internal/middleware"
	"storefront/internal/session"
	"storefront/internal/utils"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Handler serves the storefront signup/login/logout/profile routes.
type Handler struct {
	db       *gorm.DB
	sessions *session.Store
	verifier *Verifier
	log      *zap.Logger

	secureCookies bool
}

func NewHandler(db *gorm.DB, sessions *session.Store, verifier *Verifier, log *zap.Logger, secureCookies bool) *Handler {
	return &Handler{
		db:            db,
		sessions:      sessions,
		verifier:      verifier,
		log:           log,
		secureCookies: secureCookies,
	}
}

// Routes attaches the account routes onto the root router; the profile route
// is gated on a valid user-class session.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Get("/logout", h.Logout)
	r.With(middleware.RequireSession(h.sessions, session.ClassUser, "/login")).
		Get("/profile", h.Profile)
}

func (h *Handler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     session.ClassUser.CookieName(),
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookies,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// signupError re-renders the form data alongside the first failed check.
func signupError(w http.ResponseWriter, msg string, form map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":     msg,
		"form_data": form,
	})
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid form data"})
		return
	}

	username := r.PostForm.Get("username")
	email := r.PostForm.Get("email")
	password := r.PostForm.Get("password")
	confirm := r.PostForm.Get("confirm_password")
	firstName := r.PostForm.Get("first_name")
	lastName := r.PostForm.Get("last_name")

	echo := map[string]string{
		"username":   username,
		"email":      email,
		"first_name": firstName,
		"last_name":  lastName,
	}

	if password != confirm {
		signupError(w, "Passwords do not match", echo)
		return
	}
	if len(password) < 6 {
		signupError(w, "Password must be at least 6 characters long", echo)
		return
	}
	// bcrypt ignores input beyond 72 bytes.
	if len(password) > 72 {
		password = password[:72]
	}
	if len(username) < 3 {
		signupError(w, "Username must be at least 3 characters long", echo)
		return
	}
	if len(username) > 50 {
		signupError(w, "Username must be 50 characters or less", echo)
		return
	}
	if !emailPattern.MatchString(email) {
		signupError(w, "Please enter a valid email address", echo)
		return
	}

	var existing User
	if err := h.db.First(&existing, "username = ?", username).Error; err == nil {
		signupError(w, "Username already exists", echo)
		return
	}
	if err := h.db.First(&existing, "email = ?", email).Error; err == nil {
		signupError(w, "Email already exists", echo)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Server error hashing password", http.StatusInternalServerError)
		return
	}

	user := User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		FirstName:    firstName,
		LastName:     lastName,
		IsActive:     true,
	}
	if err := h.db.Create(&user).Error; err != nil {
		signupError(w, "Error creating account: "+err.Error(), echo)
		return
	}

	token, err := h.sessions.Create(user.ID, session.ClassUser, Payload(session.ClassUser, &user))
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	h.log.Info("signup", zap.String("user_id", user.ID))
	http.SetCookie(w, h.sessionCookie(token, int(session.DefaultTTL.Seconds())))
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid form data"})
		return
	}

	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	_, token, err := h.verifier.Login(username, password)
	if err != nil {
		// Customer-facing login keeps failures indistinct.
		status := http.StatusUnauthorized
		msg := "Invalid username or password"
		if errors.Is(err, ErrTooManyAttempts) {
			status = http.StatusTooManyRequests
			msg = "Too many login attempts"
		}
		writeJSON(w, status, map[string]any{
			"error":     msg,
			"form_data": map[string]string{"username": username},
		})
		return
	}

	http.SetCookie(w, h.sessionCookie(token, int(session.DefaultTTL.Seconds())))
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.ClassUser.CookieName()); err == nil {
		if err := h.sessions.Delete(cookie.Value); err != nil {
			h.log.Warn("failed to delete session", zap.Error(err))
		}
	}
	http.SetCookie(w, h.sessionCookie("", -1))
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok || userID == "" {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	var user User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		http.Error(w, "Couldn't find user", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

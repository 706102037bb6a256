package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/catalog"
	"storefront/internal/session"
	"storefront/internal/store"
)

const perPage = 20

// Handler implements the admin console: login, dashboard counts, and the
// generic model CRUD driven by the entity registry and the field binder.
type Handler struct {
	docs     *store.Store
	sessions *session.Store
	verifier *auth.Verifier
	binder   *Binder
	log      *zap.Logger

	secureCookies bool
}

func NewHandler(docs *store.Store, sessions *session.Store, verifier *auth.Verifier, log *zap.Logger, secureCookies bool) *Handler {
	return &Handler{
		docs:          docs,
		sessions:      sessions,
		verifier:      verifier,
		binder:        NewBinder(docs),
		log:           log,
		secureCookies: secureCookies,
	}
}

func (h *Handler) collection(model string) (*store.Collection, ModelConfig, bool) {
	cfg, ok := Models[model]
	if !ok {
		return nil, ModelConfig{}, false
	}
	return h.docs.Collection(cfg.Proto()), cfg, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// formEcho flattens the submitted values so the client can re-render the
// form without losing input. Passwords are never echoed.
func formEcho(form url.Values) map[string]string {
	out := make(map[string]string, len(form))
	for key := range form {
		if key == "password" {
			continue
		}
		out[key] = form.Get(key)
	}
	return out
}

func (h *Handler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     session.ClassAdmin.CookieName(),
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookies,
	}
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "POST credentials to log in"})
}

// Login authenticates an administrator and sets the admin session cookie.
// The three failure kinds surface as distinct messages.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid form data"})
		return
	}

	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Username and password are required"})
		return
	}

	_, token, err := h.verifier.AdminLogin(username, password)
	if err != nil {
		status, msg := loginFailure(err)
		writeJSON(w, status, map[string]any{
			"error":     msg,
			"form_data": map[string]string{"username": username},
		})
		return
	}

	http.SetCookie(w, h.sessionCookie(token, int(session.DefaultTTL.Seconds())))
	http.Redirect(w, r, "/admin/dashboard", http.StatusFound)
}

func loginFailure(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, auth.ErrInvalidPassword):
		return http.StatusUnauthorized, "Invalid password"
	case errors.Is(err, auth.ErrInsufficientPrivilege):
		return http.StatusForbidden, "Insufficient privileges"
	case errors.Is(err, auth.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "Too many login attempts"
	default:
		return http.StatusInternalServerError, "Login failed"
	}
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.ClassAdmin.CookieName()); err == nil {
		if err := h.sessions.Delete(cookie.Value); err != nil {
			h.log.Warn("failed to delete session", zap.Error(err))
		}
	}
	http.SetCookie(w, h.sessionCookie("", -1))
	http.Redirect(w, r, "/admin", http.StatusFound)
}

// Dashboard returns per-entity counts.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	counts := map[string]int64{}
	for name := range Models {
		coll, _, _ := h.collection(name)
		n, err := coll.Count(store.Filter{})
		if err != nil {
			http.Error(w, "Failed to count "+name+": "+err.Error(), http.StatusInternalServerError)
			return
		}
		counts[name] = n
	}
	writeJSON(w, http.StatusOK, counts)
}

// List returns one page of an entity's records with substring search across
// the registry's search fields and exact-match filtering on its filter
// fields.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	coll, cfg, ok := h.collection(model)
	if !ok {
		http.Error(w, "Model not found", http.StatusNotFound)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	filter := store.Filter{Eq: map[string]any{}, Sort: "created_at DESC"}

	if search := r.URL.Query().Get("search"); search != "" && len(cfg.SearchFields) > 0 {
		filter.Search = strings.Join(cfg.SearchFields, ",")
		filter.SearchTerm = search
	}

	filterField := r.URL.Query().Get("filter_field")
	filterValue := r.URL.Query().Get("filter_value")
	if filterField != "" && filterValue != "" {
		allowed := false
		for _, f := range cfg.ListFilter {
			if f == filterField {
				allowed = true
				break
			}
		}
		if !allowed {
			http.Error(w, "Field not filterable: "+filterField, http.StatusBadRequest)
			return
		}
		filter.Eq[filterField] = filterValue
	}

	total, err := coll.Count(filter)
	if err != nil {
		http.Error(w, "Failed to count records: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var rows []map[string]any
	if err := coll.Find(filter, (page-1)*perPage, perPage, &rows); err != nil {
		http.Error(w, "Failed to fetch records: "+err.Error(), http.StatusInternalServerError)
		return
	}

	totalPages := (total + perPage - 1) / perPage
	writeJSON(w, http.StatusOK, map[string]any{
		"model":        model,
		"list_display": cfg.ListDisplay,
		"objects":      rows,
		"page":         page,
		"total":        total,
		"total_pages":  totalPages,
	})
}

// referenceOptions lists the candidate rows for an entity's reference
// dropdowns; the mapping is the same fixed table the binder resolves with.
func (h *Handler) referenceOptions(model string) (map[string]any, error) {
	options := map[string]any{}
	switch model {
	case "products", "categories":
		var categories []catalog.Category
		coll, _, _ := h.collection("categories")
		if err := coll.Find(store.Filter{Sort: "name ASC"}, 0, 0, &categories); err != nil {
			return nil, err
		}
		if model == "products" {
			options["categories"] = categories
		} else {
			options["parent_categories"] = categories
		}
	case "orders":
		var users []auth.User
		coll, _, _ := h.collection("users")
		if err := coll.Find(store.Filter{Sort: "username ASC"}, 0, 0, &users); err != nil {
			return nil, err
		}
		options["users"] = users
	}
	return options, nil
}

// GetOne returns a single record together with its reference options.
func (h *Handler) GetOne(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	coll, _, ok := h.collection(model)
	if !ok {
		http.Error(w, "Model not found", http.StatusNotFound)
		return
	}

	var row map[string]any
	err := coll.GetByID(chi.URLParam(r, "id"), &row)
	if err == store.ErrNotFound {
		http.Error(w, "Object not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to fetch record: "+err.Error(), http.StatusInternalServerError)
		return
	}

	options, err := h.referenceOptions(model)
	if err != nil {
		http.Error(w, "Failed to fetch options: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"object": row, "options": options})
}

// Create binds the form onto a new record. Bind or persistence failures
// return the message plus the original form values for re-rendering.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	coll, cfg, ok := h.collection(model)
	if !ok {
		http.Error(w, "Model not found", http.StatusNotFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid form data"})
		return
	}

	patch, err := h.binder.Bind(model, cfg, r.PostForm, ModeCreate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":     err.Error(),
			"form_data": formEcho(r.PostForm),
		})
		return
	}

	now := time.Now()
	patch["id"] = uuid.NewString()
	patch["created_at"] = now
	patch["updated_at"] = now
	applyModelRules(model, patch, now)

	if err := coll.Insert(patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":     err.Error(),
			"form_data": formEcho(r.PostForm),
		})
		return
	}

	h.log.Info("admin create", zap.String("model", model), zap.Any("id", patch["id"]))
	http.Redirect(w, r, "/admin/"+model, http.StatusFound)
}

// applyModelRules fills derived fields on creation: slugs from names, and a
// first publication timestamp for products created active.
func applyModelRules(model string, patch map[string]any, now time.Time) {
	if model == "products" || model == "categories" {
		slug, _ := patch["slug"].(string)
		name, _ := patch["name"].(string)
		if slug == "" && name != "" {
			patch["slug"] = catalog.Slugify(name)
		}
	}
	if model == "products" {
		if active, _ := patch["is_active"].(bool); active {
			if _, set := patch["published_at"]; !set {
				patch["published_at"] = now
			}
		}
	}
}

// Update binds the form onto an existing record. When a user's admin flag
// changes, the cached class and payload of that user's sessions are rewritten
// in lockstep.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	coll, cfg, ok := h.collection(model)
	if !ok {
		http.Error(w, "Model not found", http.StatusNotFound)
		return
	}
	id := chi.URLParam(r, "id")

	var existing map[string]any
	err := coll.GetByID(id, &existing)
	if err == store.ErrNotFound {
		http.Error(w, "Object not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to fetch record: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid form data"})
		return
	}

	patch, err := h.binder.Bind(model, cfg, r.PostForm, ModeUpdate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":     err.Error(),
			"form_data": formEcho(r.PostForm),
		})
		return
	}
	patch["updated_at"] = time.Now()

	if err := coll.Update(id, patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":     err.Error(),
			"form_data": formEcho(r.PostForm),
		})
		return
	}

	if model == "users" {
		if _, touched := patch["is_admin"]; touched {
			if err := h.resyncUserSessions(id); err != nil {
				h.log.Warn("failed to resync sessions", zap.String("user_id", id), zap.Error(err))
			}
		}
	}

	h.log.Info("admin update", zap.String("model", model), zap.String("id", id))
	http.Redirect(w, r, "/admin/"+model, http.StatusFound)
}

// resyncUserSessions rewrites the user's sessions so the cached privilege
// snapshot matches the identity record. No session is not an error.
func (h *Handler) resyncUserSessions(userID string) error {
	coll, _, _ := h.collection("users")
	var user auth.User
	err := coll.GetByID(userID, &user)
	if err == store.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	class := session.ClassUser
	if user.IsAdmin {
		class = session.ClassAdmin
	}
	return h.sessions.RetagForUser(userID, class, auth.Payload(class, &user))
}

// Delete removes one record. A missing target is an explicit 404, not a
// redirect. Deleting a user deletes its sessions first; the storage layer
// has no cascade.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	coll, _, ok := h.collection(model)
	if !ok {
		http.Error(w, "Model not found", http.StatusNotFound)
		return
	}
	id := chi.URLParam(r, "id")

	if model == "users" {
		if err := h.sessions.DeleteForUser(id); err != nil {
			http.Error(w, "Failed to delete sessions: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	deleted, err := coll.DeleteByID(id)
	if err != nil {
		http.Error(w, "Failed to delete record: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "Object not found", http.StatusNotFound)
		return
	}

	h.log.Info("admin delete", zap.String("model", model), zap.String("id", id))
	http.Redirect(w, r, "/admin/"+model, http.StatusFound)
}

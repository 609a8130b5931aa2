package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"placescout/backend/internal/domain"
	"placescout/backend/internal/service"
	"placescout/backend/internal/store"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
}

func New(svc *service.Service, auth *AuthManager, allowedOrigin string) *API {
	return &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
	}
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(a.withMiddleware)

	r.Get("/healthz", a.handleHealth)
	r.Post("/api/v1/auth/login", a.handleLogin)

	// The bot frontend authenticates with a service account; per-user state
	// is addressed by the messenger user id in the path.
	r.Route("/api/v1/users/{userID}", func(r chi.Router) {
		r.Use(a.requireAuth("viewer", "admin"))

		r.Put("/categories", a.handleSaveCategories)
		r.Put("/wishes", a.handleSaveWishes)
		r.Put("/filters", a.handleSaveFilters)
		r.Put("/location", a.handleSetLocation)
		r.Delete("/location", a.handleClearLocation)
		r.Get("/places", a.handlePendingPlaces)
		r.Post("/browse/start", a.handleBrowseStart)
		r.Post("/browse/navigate", a.handleBrowseNavigate)
		r.Post("/viewed/{placeID}", a.handleMarkViewed)
		r.Post("/viewed/reset", a.handleResetViewed)
		r.Post("/activity", a.handleTouchActivity)
		r.Delete("/", a.handleDeleteUser)
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(a.requireAuth("admin"))

		r.Get("/users", a.handleListUsers)
		r.Get("/users/count", a.handleUsersCount)
		r.Get("/users/active-today", a.handleActiveToday)
		r.Get("/users/{userID}/stats", a.handleUserStats)
		r.Get("/daily-count", a.handleDailyCount)
		r.Post("/daily-count/reset", a.handleDailyCountReset)
		r.Get("/accounts", a.handleListAccounts)
		r.Post("/accounts", a.handleCreateAccount)
	})

	return r
}

func (a *API) requireAuth(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorization := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
				writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
				return
			}

			token := strings.TrimSpace(authorization[len("Bearer "):])
			actor, err := a.auth.ParseToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err)
				return
			}

			if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
				writeError(w, http.StatusForbidden, errors.New("forbidden role"))
				return
			}

			next.ServeHTTP(w, r.WithContext(service.WithActor(r.Context(), actor)))
		})
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleSaveCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	var req domain.CategoriesUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := a.service.SaveCategories(r.Context(), userID, req.Categories); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleSaveWishes(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	var req domain.WishesUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := a.service.SaveWishes(r.Context(), userID, req.Wishes); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleSaveFilters(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	var req domain.FiltersUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := a.service.SaveFilters(r.Context(), userID, req.Filters); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleSetLocation(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	var req domain.LocationUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := a.service.SetLocation(r.Context(), userID, req.Latitude, req.Longitude); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleClearLocation(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	if err := a.service.ClearLocation(r.Context(), userID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handlePendingPlaces(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 0, 400)
	offset := parsePositiveLimit(r.URL.Query().Get("offset"), 0, 0)
	sortByDistance := strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("sort_by_distance")), "true")

	places, err := a.service.Pending(r.Context(), userID, limit, offset, sortByDistance)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if places == nil {
		places = []domain.Place{}
	}
	writeJSON(w, http.StatusOK, domain.PlacesResponse{Places: places})
}

func (a *API) handleBrowseStart(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	sortByDistance := strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("sort_by_distance")), "true")
	result, err := a.service.StartBrowsing(r.Context(), userID, sortByDistance)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleBrowseNavigate(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	var req domain.NavigateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := a.service.Navigate(r.Context(), userID, req.Direction)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleMarkViewed(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}
	placeID, err := strconv.ParseInt(chi.URLParam(r, "placeID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid place id"))
		return
	}

	if err := a.service.MarkViewed(r.Context(), userID, placeID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleResetViewed(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	if err := a.service.ResetViewed(r.Context(), userID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleTouchActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	var req domain.ActivityTouchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := a.service.TouchActivity(r.Context(), userID, req.Action); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	if err := a.service.DeleteUser(r.Context(), userID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleUserStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	summary, err := a.service.UserStats(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ids, err := a.service.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_ids": ids})
}

func (a *API) handleUsersCount(w http.ResponseWriter, r *http.Request) {
	count, err := a.service.UsersCount(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.UsersCountResponse{Count: count})
}

func (a *API) handleActiveToday(w http.ResponseWriter, r *http.Request) {
	users, err := a.service.ActiveToday(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if users == nil {
		users = []domain.ActivitySummary{}
	}
	writeJSON(w, http.StatusOK, domain.ActiveTodayResponse{Users: users})
}

func (a *API) handleDailyCount(w http.ResponseWriter, r *http.Request) {
	count, err := a.service.DailyCount(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.UsersCountResponse{Count: count})
}

func (a *API) handleDailyCountReset(w http.ResponseWriter, r *http.Request) {
	if err := a.service.ResetDailyCount(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"accounts": a.auth.ListAccounts()})
}

func (a *API) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	account, err := a.auth.CreateAccount(domain.LoginRequest{Username: req.Username, Password: req.Password}, req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"account": account})
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

func pathUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("invalid user id"))
		return 0, false
	}
	return userID, true
}

// writeServiceError maps sentinel errors from the service and store layers to
// HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrInvalidInput):
		status = http.StatusBadRequest
	case strings.Contains(strings.ToLower(err.Error()), "admin role required"):
		status = http.StatusForbidden
	}
	writeError(w, status, err)
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx messages stay generic so internals never leak to clients.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

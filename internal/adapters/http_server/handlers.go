package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"foodfinder/internal/app"
	"foodfinder/internal/domain"
	"foodfinder/internal/mapview"
)

// User-facing messages carried over from the original forms.
const (
	msgInvalidCredentials = "Invalid username or password!"
	msgTransient          = "A problem occurred. Please try again later!"
	msgEmailTaken         = "Email existed! Please try with another email"
	msgPasswordMismatch   = "Password does not match!"
)

type Handlers struct {
	Auth     *app.AuthService
	Sessions domain.SessionStore
	Views    *mapview.Registry
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	// unauthenticated
	s.mux.Post("/v1/auth/signup", h.signup)
	s.mux.Post("/v1/auth/login", h.login)

	// session-guarded map view
	s.mux.Group(func(g chi.Router) {
		g.Use(RequireSession(h.Sessions))
		g.Post("/v1/auth/logout", h.logout)
		g.Get("/v1/map", h.mapState)
		g.Post("/v1/map/viewport", h.viewport)
		g.Post("/v1/map/click", h.click)
		g.Get("/v1/map/search", h.search)
		g.Post("/v1/map/search/result", h.searchResult)
		g.Post("/v1/map/search/clear", h.searchClear)
		g.Post("/v1/map/detail/close", h.closeDetail)
		g.Post("/v1/map/directions", h.startDirections)
		g.Post("/v1/map/geolocate", h.geolocate)
		g.Post("/v1/map/directions/cancel", h.cancelDirections)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// ---- auth ----

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "email and password are required")
		return
	}

	sess, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", msgInvalidCredentials)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable", msgTransient)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{
		"token":    sess.Token,
		"username": sess.Username,
	})
}

type signupRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *Handlers) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Email == "" || req.Password == "" {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "username, email and password are required")
		return
	}

	err := h.Auth.Signup(r.Context(), req.Username, req.Email, req.Password, req.ConfirmPassword)
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		writeProblem(w, http.StatusConflict, "Conflict", msgEmailTaken)
	case errors.Is(err, domain.ErrPasswordMismatch):
		writeProblem(w, http.StatusUnprocessableEntity, "Unprocessable Entity", msgPasswordMismatch)
	case err != nil:
		writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable", msgTransient)
	default:
		writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
	}
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	h.Views.Drop(sess.Token)
	if err := h.Auth.Logout(r.Context(), sess.Token); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable", msgTransient)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// ---- map view ----

func (h *Handlers) view(r *http.Request) *mapview.View {
	return h.Views.Acquire(r.Context(), sessionFrom(r).Token)
}

func (h *Handlers) mapState(w http.ResponseWriter, r *http.Request) {
	s, err := h.view(r).State()
	if err != nil {
		writeProblem(w, http.StatusGone, "Gone", "map view released")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Username string `json:"username"`
		mapview.Snapshot
	}{Username: sessionFrom(r).Username, Snapshot: s})
}

type viewportRequest struct {
	Center domain.Coords `json:"center"`
	Zoom   float64       `json:"zoom"`
}

func (h *Handlers) viewport(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid viewport payload")
		return
	}
	if err := h.view(r).SetViewport(req.Center, req.Zoom); err != nil {
		writeProblem(w, http.StatusGone, "Gone", "map view released")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) click(w http.ResponseWriter, r *http.Request) {
	var at domain.Coords
	if err := json.NewDecoder(r.Body).Decode(&at); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid click payload")
		return
	}
	detail, err := h.view(r).HandleClick(at)
	if err != nil {
		writeProblem(w, http.StatusGone, "Gone", "map view released")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Hit      bool                      `json:"hit"`
		Selected *mapview.RestaurantDetail `json:"selected,omitempty"`
	}{Hit: detail != nil, Selected: detail})
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "q is required")
		return
	}
	matches, err := h.view(r).Search(q)
	if err != nil {
		writeProblem(w, http.StatusGone, "Gone", "map view released")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Matches []mapview.SearchMatch `json:"matches"`
	}{Matches: matches})
}

func (h *Handlers) searchResult(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid result payload")
		return
	}
	if err := h.view(r).SelectResult(req.Title); err != nil {
		writeProblem(w, http.StatusGone, "Gone", "map view released")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) searchClear(w http.ResponseWriter, r *http.Request) {
	if err := h.view(r).ClearSearch(); err != nil {
		writeProblem(w, http.StatusGone, "Gone", "map view released")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) closeDetail(w http.ResponseWriter, r *http.Request) {
	if err := h.view(r).CloseDetail(); err != nil {
		writeProblem(w, http.StatusGone, "Gone", "map view released")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// startDirections kicks the flow off and returns immediately; the client
// delivers its geolocation fix to /v1/map/geolocate and polls the view
// state for the route. The flow outlives this request on purpose, so it
// runs on a fresh context; CancelDirections is its only stop signal.
func (h *Handlers) startDirections(w http.ResponseWriter, r *http.Request) {
	v := h.view(r)
	if err := v.CanStartDirections(); err != nil {
		switch {
		case errors.Is(err, mapview.ErrNoSelection):
			writeProblem(w, http.StatusConflict, "Conflict", "select a restaurant first")
		case errors.Is(err, mapview.ErrDirectionActive):
			writeProblem(w, http.StatusConflict, "Conflict", "direction overlay already active")
		default:
			writeProblem(w, http.StatusGone, "Gone", "map view released")
		}
		return
	}
	go func() {
		err := v.StartDirections(context.Background())
		switch {
		case err == nil, errors.Is(err, mapview.ErrCanceled):
		case errors.Is(err, mapview.ErrNoSelection), errors.Is(err, mapview.ErrDirectionActive):
			log.Debug().Err(err).Msg("direction start rejected")
		default:
			log.Error().Err(err).Msg("direction flow failed")
		}
	}()
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) geolocate(w http.ResponseWriter, r *http.Request) {
	var fix domain.Coords
	if err := json.NewDecoder(r.Body).Decode(&fix); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid fix payload")
		return
	}
	err := h.view(r).DeliverFix(fix)
	if errors.Is(err, mapview.ErrNoPendingFix) {
		// late or duplicate fix: discarded by design
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusGone, "Gone", "map view released")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) cancelDirections(w http.ResponseWriter, r *http.Request) {
	h.view(r).CancelDirections()
	w.WriteHeader(http.StatusNoContent)
}

package user

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/georgemunganga/shopfront-api/internal/apperr"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Guard is the slice of the authorization guard the user routes depend on.
type Guard interface {
	Authenticate(next http.Handler) http.Handler
	RequireAdmin(next http.Handler) http.Handler
	Authorize(ctx context.Context, ownerID int64) error
}

type Handler struct {
	service Service
	guard   Guard
	extra   []func(r chi.Router)
}

func NewHandler(service Service, guard Guard) *Handler {
	return &Handler{service: service, guard: guard}
}

// Extend registers routes owned by other modules under /api/users, behind the same
// authentication as the user routes.
func (h *Handler) Extend(routes ...func(r chi.Router)) *Handler {
	h.extra = append(h.extra, routes...)
	return h
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/api/users", func(r chi.Router) {
		r.Use(h.guard.Authenticate)

		r.Get("/profile", h.getProfile)
		r.Put("/profile", h.updateProfile)
		r.Get("/{id}", h.getUser)

		r.Group(func(r chi.Router) {
			r.Use(h.guard.RequireAdmin)
			r.Get("/", h.listUsers)
			r.Get("/stats", h.stats)
			r.Get("/search", h.searchUsers)
			r.Put("/{id}/roles", h.updateRoles)
			r.Delete("/{id}", h.deleteUser)
		})

		for _, routes := range h.extra {
			routes(r)
		}
	})
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	current, _ := FromContext(r.Context())
	respond(w, http.StatusOK, map[string]interface{}{"user": current})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	current, _ := FromContext(r.Context())
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	u, err := h.service.UpdateProfile(r.Context(), current.ID, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"message": "profile updated",
		"user":    u,
	})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"users": users, "count": len(users)})
}

func (h *Handler) searchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.SearchUsers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"users": users, "count": len(users)})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Stats(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, st)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.guard.Authorize(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	u, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"user": u})
}

func (h *Handler) updateRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		RoleIDs []int64 `json:"role_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	u, err := h.service.UpdateRoles(r.Context(), id, body.RoleIDs)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"message": "roles updated",
		"user":    u,
	})
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	current, _ := FromContext(r.Context())
	if err := h.service.DeleteUser(r.Context(), current.ID, id); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		log.Printf("[%s] %s %s: %v", middleware.GetReqID(r.Context()), r.Method, r.URL.Path, err)
	}
	respond(w, status, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

package location

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/georgemunganga/shopfront-api/internal/apperr"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Guard is the slice of the authorization guard the location routes depend on.
type Guard interface {
	Authenticate(next http.Handler) http.Handler
	RequireAdmin(next http.Handler) http.Handler
}

type Handler struct {
	service Service
	guard   Guard
}

func NewHandler(service Service, guard Guard) *Handler {
	return &Handler{service: service, guard: guard}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/api/locations", func(r chi.Router) {
		r.Get("/countries", h.listCountries)
		r.Get("/countries/{id}", h.getCountry)
		r.Get("/countries/{id}/states", h.countryStates)
		r.Get("/countries/{id}/cities", h.countryCities)
		r.Get("/states", h.listStates)
		r.Get("/states/{id}", h.getState)
		r.Get("/states/{id}/cities", h.stateCities)
		r.Get("/cities", h.listCities)
		r.Get("/cities/{id}", h.getCity)
		r.Get("/hierarchy", h.hierarchy)
		r.Get("/search", h.search)

		r.Group(func(r chi.Router) {
			r.Use(h.guard.Authenticate, h.guard.RequireAdmin)
			r.Post("/countries", h.createCountry)
			r.Post("/states", h.createState)
			r.Post("/cities", h.createCity)
		})
	})
}

func (h *Handler) listCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.service.ListCountries(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"countries": countries, "count": len(countries)})
}

func (h *Handler) getCountry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.service.GetCountry(r.Context(), id, flag(r, "include_states"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"country": c})
}

func (h *Handler) countryStates(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	states, err := h.service.ListStates(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"states": states, "count": len(states)})
}

func (h *Handler) countryCities(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.writeCities(w, r, CityFilter{CountryID: id})
}

func (h *Handler) createCountry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"CountryName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	c, err := h.service.CreateCountry(r.Context(), req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]interface{}{"message": "country created", "country": c})
}

func (h *Handler) listStates(w http.ResponseWriter, r *http.Request) {
	countryID, ok := queryID(w, r, "country_id")
	if !ok {
		return
	}
	states, err := h.service.ListStates(r.Context(), countryID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"states": states, "count": len(states)})
}

func (h *Handler) getState(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	st, err := h.service.GetState(r.Context(), id, flag(r, "include_cities"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"state": st})
}

func (h *Handler) stateCities(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.writeCities(w, r, CityFilter{StateID: id})
}

func (h *Handler) createState(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"StatesName"`
		CountryID int64  `json:"iD_Country"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	st, err := h.service.CreateState(r.Context(), req.Name, req.CountryID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]interface{}{"message": "state created", "state": st})
}

func (h *Handler) listCities(w http.ResponseWriter, r *http.Request) {
	stateID, ok := queryID(w, r, "state_id")
	if !ok {
		return
	}
	h.writeCities(w, r, CityFilter{StateID: stateID})
}

func (h *Handler) writeCities(w http.ResponseWriter, r *http.Request, f CityFilter) {
	cities, err := h.service.ListCities(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"cities": cities, "count": len(cities)})
}

func (h *Handler) getCity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.service.GetCity(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"city": c})
}

func (h *Handler) createCity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"CityName"`
		StateID int64  `json:"iD_States"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	c, err := h.service.CreateCity(r.Context(), req.Name, req.StateID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]interface{}{"message": "city created", "city": c})
}

func (h *Handler) hierarchy(w http.ResponseWriter, r *http.Request) {
	countries, err := h.service.Hierarchy(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"hierarchy": countries, "countries_count": len(countries)})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results, err := h.service.Search(r.Context(), q.Get("q"), q.Get("type"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"results": results, "count": len(results)})
}

func flag(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

func queryID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
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

package sales

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/georgemunganga/shopfront-api/internal/apperr"
	"github.com/georgemunganga/shopfront-api/internal/modules/user"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Guard is the slice of the authorization guard the sales routes depend on.
type Guard interface {
	Authenticate(next http.Handler) http.Handler
	RequireAdmin(next http.Handler) http.Handler
	Authorize(ctx context.Context, ownerID int64) error
	IsAdmin(ctx context.Context) bool
}

// UserLookup loads the owner shown alongside a user's sales history.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*user.User, error)
}

var errForeignSale = apperr.Forbidden("you do not have permission to view this sale")

// Handler exposes cart, checkout and sales history endpoints. Every route requires
// an authenticated caller.
type Handler struct {
	service Service
	guard   Guard
	users   UserLookup
}

func NewHandler(service Service, guard Guard, users UserLookup) *Handler {
	return &Handler{service: service, guard: guard, users: users}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/api/sales", func(r chi.Router) {
		r.Use(h.guard.Authenticate)

		r.Get("/cart", h.getCart)
		r.Post("/cart/add", h.addToCart)
		r.Put("/cart/update/{item_id}", h.updateCartEntry)
		r.Delete("/cart/remove/{item_id}", h.removeCartEntry)
		r.Delete("/cart/clear", h.clearCart)
		r.Post("/checkout", h.checkout)

		r.Get("/", h.listSales)
		r.Get("/user/{id}", h.userSales)
		r.Get("/{sale_id}", h.getSale)
		r.With(h.guard.RequireAdmin).Get("/stats", h.stats)
	})
}

// UserRoutes serves a user's sales history under the users prefix as
// GET /{id}/sales. The caller must mount it behind authentication.
func (h *Handler) UserRoutes(r chi.Router) {
	r.Get("/{id}/sales", h.userSales)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	current, _ := user.FromContext(r.Context())
	cart, err := h.service.Cart(r.Context(), current.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, cart)
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	current, _ := user.FromContext(r.Context())
	var req struct {
		ProductID int64 `json:"id_Product"`
		Quantity  *int  `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	entry, err := h.service.AddToCart(r.Context(), current.ID, req.ProductID, qty)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"message": "product added to cart", "item": entry})
}

func (h *Handler) updateCartEntry(w http.ResponseWriter, r *http.Request) {
	current, _ := user.FromContext(r.Context())
	id, ok := pathID(w, r, "item_id")
	if !ok {
		return
	}
	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	entry, err := h.service.UpdateCartEntry(r.Context(), current.ID, id, qty)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"message": "quantity updated", "item": entry})
}

func (h *Handler) removeCartEntry(w http.ResponseWriter, r *http.Request) {
	current, _ := user.FromContext(r.Context())
	id, ok := pathID(w, r, "item_id")
	if !ok {
		return
	}
	if err := h.service.RemoveCartEntry(r.Context(), current.ID, id); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "product removed from cart"})
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	current, _ := user.FromContext(r.Context())
	n, err := h.service.ClearCart(r.Context(), current.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"message": "cart cleared", "removed": n})
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	current, _ := user.FromContext(r.Context())
	var req struct {
		Description string `json:"DescripcionSale"`
	}
	// The body is optional.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sale, err := h.service.Checkout(r.Context(), current.ID, req.Description)
	if err != nil {
		respondError(w, r, err)
		return
	}
	sale.UserName = current.Name
	respond(w, http.StatusCreated, map[string]interface{}{
		"message": "purchase completed",
		"sale":    sale,
		"total":   sale.Total,
	})
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	current, _ := user.FromContext(r.Context())
	f, ok := pageFilter(w, r)
	if !ok {
		return
	}
	if !h.guard.IsAdmin(r.Context()) {
		f.UserID = current.ID
	}
	h.writeSales(w, r, f)
}

func (h *Handler) userSales(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.guard.Authorize(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	f, ok := pageFilter(w, r)
	if !ok {
		return
	}
	owner, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	f.UserID = id
	sales, page, err := h.service.ListSales(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"user": owner, "sales": sales, "pagination": page})
}

func (h *Handler) writeSales(w http.ResponseWriter, r *http.Request, f SaleFilter) {
	sales, page, err := h.service.ListSales(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"sales": sales, "pagination": page})
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "sale_id")
	if !ok {
		return
	}
	sale, err := h.service.GetSale(r.Context(), id)
	if errors.Is(err, ErrSaleNotFound) && !h.guard.IsAdmin(r.Context()) {
		// Non-admins get the same answer for missing and foreign sales.
		respondError(w, r, errForeignSale)
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.guard.Authorize(r.Context(), sale.UserID); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"sale": sale})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Stats(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, st)
}

func pageFilter(w http.ResponseWriter, r *http.Request) (SaleFilter, bool) {
	var f SaleFilter
	q := r.URL.Query()
	for name, dst := range map[string]*int{"page": &f.Page, "per_page": &f.PerPage} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name})
			return f, false
		}
		*dst = n
	}
	return f, true
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

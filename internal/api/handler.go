// Package api implements the HTTP surface of the storefront: catalog reads,
// order placement, order history, and the carrier flows.
package api

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/greengrocer/internal/domain/auth"
	"github.com/xenking/greengrocer/internal/domain/carrier"
	"github.com/xenking/greengrocer/internal/domain/coupon"
	"github.com/xenking/greengrocer/internal/domain/order"
	"github.com/xenking/greengrocer/internal/domain/product"
	"github.com/xenking/greengrocer/internal/domain/settings"
	"github.com/xenking/greengrocer/internal/domain/user"
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// APIKeyPepper is the HMAC key used when hashing incoming API keys for
	// lookup. It must match the pepper used when the keys were stored.
	APIKeyPepper []byte
}

// Handler serves the storefront HTTP API, delegating business logic to the
// injected domain services and repositories.
type Handler struct {
	products product.Repository
	coupons  coupon.Repository
	settings settings.Repository
	users    user.Repository
	orders   *order.Service
	history  order.Repository
	carriers *carrier.Arbiter
	apikeys  auth.Repository
	pepper   []byte
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg HandlerConfig,
	products product.Repository,
	coupons coupon.Repository,
	settingsRepo settings.Repository,
	users user.Repository,
	orders *order.Service,
	history order.Repository,
	carriers *carrier.Arbiter,
	apikeys auth.Repository,
) *Handler {
	return &Handler{
		products: products,
		coupons:  coupons,
		settings: settingsRepo,
		users:    users,
		orders:   orders,
		history:  history,
		carriers: carriers,
		apikeys:  apikeys,
		pepper:   cfg.APIKeyPepper,
	}
}

// Routes registers all API endpoints on the mux. Catalog reads are public;
// everything else requires an API key.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.handleListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.handleGetProduct)

	mux.HandleFunc("POST /api/orders", h.authenticate(h.handlePlaceOrder))
	mux.HandleFunc("GET /api/orders", h.authenticate(h.handleListOrders))
	mux.HandleFunc("GET /api/orders/unassigned", h.authenticate(h.handleListUnassigned))
	mux.HandleFunc("GET /api/orders/{id}", h.authenticate(h.handleGetOrder))
	mux.HandleFunc("POST /api/orders/{id}/assign", h.authenticate(h.handleAssignCarrier))
	mux.HandleFunc("POST /api/orders/{id}/complete", h.authenticate(h.handleCompleteOrder))
	mux.HandleFunc("GET /api/carriers/{id}/orders", h.authenticate(h.handleListCarrierOrders))
}

// writeJSON encodes a response body built by fill and writes it with the given
// status code.
func writeJSON(w http.ResponseWriter, status int, fill func(e *jx.Encoder)) {
	var e jx.Encoder
	fill(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the standard error body: {"code": N, "message": "..."}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

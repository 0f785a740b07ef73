package httphandler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

// DefaultSessionHeader carries the session id of cart requests.
const DefaultSessionHeader = "X-Session-ID"

type CartHandler struct {
	cart     port.Cart
	checkout port.Checkout
}

func RegisterCart(
	mux *http.ServeMux,
	cartSvc port.Cart,
	checkoutSvc port.Checkout,
	sessionHeader string,
) {
	if sessionHeader == "" {
		sessionHeader = DefaultSessionHeader
	}

	h := CartHandler{cart: cartSvc, checkout: checkoutSvc}
	session := RequireSession(sessionHeader)
	handle := func(pattern string, hf http.HandlerFunc) {
		mux.Handle(pattern, session(AllowJSON(hf)))
	}

	handle("GET /api/cart", h.Get)
	handle("POST /api/cart/items", h.AddItem)
	handle("PATCH /api/cart/items/{id}", h.UpdateItem)
	handle("DELETE /api/cart/items/{id}", h.RemoveItem)
	handle("DELETE /api/cart", h.Clear)
	handle("DELETE /api/session", h.EndSession)
	handle("POST /api/checkout", h.Checkout)
	handle("GET /api/payments", h.Payments)
}

func (h CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.Get"
	log := slog.With("op", op)

	snap, err := h.cart.Cart(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		writeFailure(w, log, err)
		return
	}
	writeData(w, http.StatusOK, cartFromDomain(snap))
}

func (h CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.AddItem"
	log := slog.With("op", op)

	var in AddCartItem
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.Warn("failed to parse JSON", "err", err)
		writeError(w, http.StatusBadRequest, "invalid JSON data")
		return
	}
	if in.ProductID == "" {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	quantity := cart.DefaultQuantity
	if in.Quantity != nil {
		quantity = *in.Quantity
	}

	snap, err := h.cart.AddToCart(
		r.Context(), sessionFrom(r.Context()), in.ProductID, quantity,
	)
	if err != nil {
		writeFailure(w, log, err)
		return
	}
	writeData(w, http.StatusOK, cartFromDomain(snap))
}

func (h CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.UpdateItem"
	log := slog.With("op", op)

	var in UpdateCartItem
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.Warn("failed to parse JSON", "err", err)
		writeError(w, http.StatusBadRequest, "invalid JSON data")
		return
	}
	if in.Quantity == nil {
		writeError(w, http.StatusBadRequest, "quantity is required")
		return
	}

	snap, err := h.cart.UpdateCartItem(
		r.Context(), sessionFrom(r.Context()), r.PathValue("id"), *in.Quantity,
	)
	if err != nil {
		writeFailure(w, log, err)
		return
	}
	writeData(w, http.StatusOK, cartFromDomain(snap))
}

func (h CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.RemoveItem"
	log := slog.With("op", op)

	snap, err := h.cart.RemoveCartItem(
		r.Context(), sessionFrom(r.Context()), r.PathValue("id"),
	)
	if err != nil {
		writeFailure(w, log, err)
		return
	}
	writeData(w, http.StatusOK, cartFromDomain(snap))
}

func (h CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.Clear"
	log := slog.With("op", op)

	snap, err := h.cart.ClearCart(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		writeFailure(w, log, err)
		return
	}
	writeData(w, http.StatusOK, cartFromDomain(snap))
}

func (h CartHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.EndSession"
	log := slog.With("op", op)

	if err := h.cart.EndSession(r.Context(), sessionFrom(r.Context())); err != nil {
		writeFailure(w, log, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"message": "session ended"})
}

func (h CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.Checkout"
	log := slog.With("op", op)

	var in CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.Warn("failed to parse JSON", "err", err)
		writeError(w, http.StatusBadRequest, "invalid JSON data")
		return
	}

	payment, err := h.checkout.Checkout(
		r.Context(),
		sessionFrom(r.Context()),
		domain.CheckoutDetails{
			Name:    in.Name,
			Email:   in.Email,
			Address: in.Address,
		},
	)
	if err != nil {
		writeFailure(w, log, err)
		return
	}
	writeData(w, http.StatusCreated, paymentFromDomain(payment))
}

func (h CartHandler) Payments(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.Payments"
	log := slog.With("op", op)

	payments, err := h.checkout.Payments(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		writeFailure(w, log, err)
		return
	}
	writeData(w, http.StatusOK, paymentsFromDomain(payments))
}

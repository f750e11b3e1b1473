package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/restaurant-mis/internal/domain/cart"
	"github.com/xenking/restaurant-mis/internal/domain/order"
)

// writeCart responds with the session's cart. Unknown sessions read as an
// empty cart without being registered.
func (h *Handler) writeCart(w http.ResponseWriter, r *http.Request) {
	c, ok := h.sessions.Lookup(r.PathValue("session"))
	if !ok {
		c = cart.New()
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, c) })
}

func itemID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return 0, errors.Wrap(errBadBody, "item id must be an integer")
	}
	return id, nil
}

// GetCart returns the session's cart with its totals.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, r)
}

// AddCartItem adds one unit of the posted menu item.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	item, err := decodeItem(r)
	if err != nil {
		mapOrderError(w, r, err)
		return
	}
	if item.Name == "" {
		writeFieldError(w, http.StatusUnprocessableEntity, "name", "name is required")
		return
	}
	h.sessions.Get(r.PathValue("session")).AddItem(item)
	h.writeCart(w, r)
}

// UpdateCartItem sets a line's quantity; zero or less removes it.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		mapOrderError(w, r, err)
		return
	}
	qty, err := decodeQuantity(r)
	if err != nil {
		mapOrderError(w, r, err)
		return
	}
	h.sessions.Get(r.PathValue("session")).UpdateQuantity(id, qty)
	h.writeCart(w, r)
}

// RemoveCartItem drops a line whatever its quantity.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		mapOrderError(w, r, err)
		return
	}
	h.sessions.Get(r.PathValue("session")).RemoveItem(id)
	h.writeCart(w, r)
}

// SetCartCustomer stores the customer's contact details on the cart. They
// are validated at checkout.
func (h *Handler) SetCartCustomer(w http.ResponseWriter, r *http.Request) {
	info, err := decodeCustomer(r)
	if err != nil {
		mapOrderError(w, r, err)
		return
	}
	h.sessions.Get(r.PathValue("session")).SetCustomer(info)
	h.writeCart(w, r)
}

// SetCartOpen opens or closes the cart drawer.
func (h *Handler) SetCartOpen(w http.ResponseWriter, r *http.Request) {
	open, err := decodeOpen(r)
	if err != nil {
		mapOrderError(w, r, err)
		return
	}
	c := h.sessions.Get(r.PathValue("session"))
	switch {
	case !open:
		c.Close()
	case !c.IsOpen():
		c.Toggle()
	}
	h.writeCart(w, r)
}

// ClearCart empties the cart and forgets the session.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	session := r.PathValue("session")
	if c, ok := h.sessions.Lookup(session); ok {
		c.Clear()
	}
	h.sessions.Drop(session)
	w.WriteHeader(http.StatusNoContent)
}

// Checkout turns the session's cart into a pending order and ends the
// session.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	session := r.PathValue("session")
	c, ok := h.sessions.Lookup(session)
	if !ok {
		mapOrderError(w, r, order.ErrEmptyCart)
		return
	}
	o, err := h.service.Checkout(r.Context(), c)
	if err != nil {
		mapOrderError(w, r, err)
		return
	}
	h.sessions.Drop(session)
	w.Header().Set("Location", "/api/orders/"+o.OrderNumber+"/receipt.html")
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeOrder(e, *o) })
}

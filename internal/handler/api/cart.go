package api

import (
	"net/http"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/handler"
	"github.com/google/uuid"
)

// CartHandler serves the authenticated user's cart.
type CartHandler struct {
	cartService domain.CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService domain.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

type addItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type applyCouponRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

// Get handles GET /api/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	req, err := handler.Requester(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	view, err := h.cartService.GetCart(r.Context(), req.UserID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, view)
}

// AddItem handles POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	const op = "api.cart.add_item"

	req, err := handler.Requester(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	var body addItemRequest
	if err := handler.Decode(r, op, &body); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	view, err := h.cartService.AddItem(r.Context(), req.UserID, uuid.MustParse(body.ProductID), body.Quantity)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, view)
}

// UpdateItem handles PUT /api/cart/items/{productID}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	const op = "api.cart.update_item"

	req, err := handler.Requester(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	productID, err := handler.PathUUID(r, "productID", op)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	var body updateItemRequest
	if err := handler.Decode(r, op, &body); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	view, err := h.cartService.UpdateItem(r.Context(), req.UserID, productID, body.Quantity)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, view)
}

// RemoveItem handles DELETE /api/cart/items/{productID}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	const op = "api.cart.remove_item"

	req, err := handler.Requester(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	productID, err := handler.PathUUID(r, "productID", op)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	view, err := h.cartService.RemoveItem(r.Context(), req.UserID, productID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, view)
}

// Clear handles DELETE /api/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	req, err := handler.Requester(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if err := h.cartService.Clear(r.Context(), req.UserID); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.Message(w, r, http.StatusOK, "Cart cleared")
}

// ApplyCoupon handles POST /api/cart/coupon
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	const op = "api.cart.apply_coupon"

	req, err := handler.Requester(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	var body applyCouponRequest
	if err := handler.Decode(r, op, &body); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	view, err := h.cartService.ApplyCoupon(r.Context(), req.UserID, body.Code)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, view)
}

// RemoveCoupon handles DELETE /api/cart/coupon
func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	req, err := handler.Requester(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	view, err := h.cartService.RemoveCoupon(r.Context(), req.UserID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, view)
}

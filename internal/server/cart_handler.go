package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Surajit-Basak/sundaraah-checkout/internal/cart"
	"github.com/Surajit-Basak/sundaraah-checkout/internal/catalog"
	"github.com/Surajit-Basak/sundaraah-checkout/internal/domain"
)

// CartService is the slice of the cart package the HTTP layer uses.
type CartService interface {
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)
	AddItem(ctx context.Context, cartID string, productID int64, quantity int) error
	UpdateQuantity(ctx context.Context, cartID string, productID int64, quantity int) error
	RemoveItem(ctx context.Context, cartID string, productID int64) error
	Clear(ctx context.Context, cartID string) error
}

// SettingsFetcher supplies the storefront settings for pricing previews.
type SettingsFetcher interface {
	FetchSettings(ctx context.Context) domain.SettingsSnapshot
}

type CartHandler struct {
	carts    CartService
	settings SettingsFetcher
	timeout  time.Duration
}

func NewCartHandler(carts CartService, settings SettingsFetcher, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:    carts,
		settings: settings,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartLineDTO struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Slug      string  `json:"slug"`
	UnitPrice float64 `json:"unit_price"`
	ImageURL  string  `json:"image_url,omitempty"`
	Quantity  int     `json:"quantity"`
}

type CartResponseDTO struct {
	CartID       string        `json:"cart_id"`
	Items        []CartLineDTO `json:"items"`
	Count        int           `json:"count"`
	Subtotal     float64       `json:"subtotal"`
	ShippingCost float64       `json:"shipping_cost"`
	Total        float64       `json:"total"`
	Currency     string        `json:"currency"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cartID := getCartToken(r.Context())
	if cartID == "" {
		respondError(w, http.StatusBadRequest, "missing_cart_token", "cart token is required")
		return
	}

	c, err := h.carts.GetCart(ctx, cartID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	settings := h.settings.FetchSettings(ctx)
	respondJSON(w, http.StatusOK, buildCartResponse(c, settings))
}

func buildCartResponse(c *domain.Cart, settings domain.SettingsSnapshot) CartResponseDTO {
	pricing := domain.ComputePricing(c.Subtotal(), settings)

	items := make([]CartLineDTO, 0, len(c.Items))
	for _, line := range c.Items {
		items = append(items, CartLineDTO{
			ProductID: line.ProductID,
			Name:      line.Name,
			Slug:      line.Slug,
			UnitPrice: line.UnitPrice,
			ImageURL:  line.ImageURL,
			Quantity:  line.Quantity,
		})
	}

	return CartResponseDTO{
		CartID:       c.CartID,
		Items:        items,
		Count:        c.Count(),
		Subtotal:     pricing.Subtotal,
		ShippingCost: pricing.ShippingCost,
		Total:        pricing.Total,
		Currency:     settings.Currency,
	}
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cartID := getCartToken(r.Context())
	if cartID == "" {
		respondError(w, http.StatusBadRequest, "missing_cart_token", "cart token is required")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	if err := h.carts.AddItem(ctx, cartID, req.ProductID, req.Quantity); err != nil {
		handleCartError(w, err)
		return
	}

	h.respondWithCart(ctx, w, http.StatusCreated, cartID)
}

// PUT /api/v1/cart/items/{productID}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cartID := getCartToken(r.Context())
	if cartID == "" {
		respondError(w, http.StatusBadRequest, "missing_cart_token", "cart token is required")
		return
	}

	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// Quantity <= 0 removes the line; the service treats it as a removal.
	if err := h.carts.UpdateQuantity(ctx, cartID, productID, req.Quantity); err != nil {
		handleCartError(w, err)
		return
	}

	h.respondWithCart(ctx, w, http.StatusOK, cartID)
}

// DELETE /api/v1/cart/items/{productID}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cartID := getCartToken(r.Context())
	if cartID == "" {
		respondError(w, http.StatusBadRequest, "missing_cart_token", "cart token is required")
		return
	}

	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	if err := h.carts.RemoveItem(ctx, cartID, productID); err != nil {
		handleCartError(w, err)
		return
	}

	h.respondWithCart(ctx, w, http.StatusOK, cartID)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cartID := getCartToken(r.Context())
	if cartID == "" {
		respondError(w, http.StatusBadRequest, "missing_cart_token", "cart token is required")
		return
	}

	if err := h.carts.Clear(ctx, cartID); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to clear cart")
		return
	}

	h.respondWithCart(ctx, w, http.StatusOK, cartID)
}

func (h *CartHandler) respondWithCart(ctx context.Context, w http.ResponseWriter, status int, cartID string) {
	c, err := h.carts.GetCart(ctx, cartID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}
	respondJSON(w, status, buildCartResponse(c, h.settings.FetchSettings(ctx)))
}

func parseProductID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productID must be a positive integer")
		return 0, false
	}
	return productID, true
}

func handleCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be positive")
	case errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", "product does not exist")
	case errors.Is(err, cart.ErrOutOfStock):
		respondError(w, http.StatusConflict, "out_of_stock", "product is out of stock")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

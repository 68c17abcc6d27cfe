package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Surajit-Basak/sundaraah-checkout/internal/catalog"
	"github.com/Surajit-Basak/sundaraah-checkout/internal/domain"
)

// ProductCatalog is the slice of the catalog the HTTP layer uses.
type ProductCatalog interface {
	GetAllProducts(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

type ProductsHandler struct {
	catalog ProductCatalog
	timeout time.Duration
}

func NewProductsHandler(catalog ProductCatalog, timeout time.Duration) *ProductsHandler {
	return &ProductsHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type ProductDTO struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url,omitempty"`
	InStock  bool    `json:"in_stock"`
}

// GET /api/v1/products
func (h *ProductsHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.GetAllProducts(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load products")
		return
	}

	dtos := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		dtos = append(dtos, convertProduct(p))
	}

	respondJSON(w, http.StatusOK, dtos)
}

// GET /api/v1/products/{productID}
func (h *ProductsHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	p, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "product_not_found", "product does not exist")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load product")
		return
	}

	respondJSON(w, http.StatusOK, convertProduct(p))
}

func convertProduct(p *domain.Product) ProductDTO {
	return ProductDTO{
		ID:       p.ID,
		Name:     p.Name,
		Slug:     p.Slug,
		Price:    p.Price,
		ImageURL: p.ImageURL,
		InStock:  p.InStock,
	}
}

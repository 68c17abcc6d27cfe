package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterDeps struct {
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Products *ProductsHandler
	Settings *SettingsHandler
	Registry *prometheus.Registry
	Timeout  time.Duration
}

// NewRouter assembles the full HTTP surface: storefront API under /api/v1,
// health and Prometheus metrics at the root.
func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(deps.Timeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(CartTokenMiddleware)

		r.Get("/settings", deps.Settings.GetSettings)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", deps.Products.ListProducts)
			r.Get("/{productID}", deps.Products.GetProduct)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", deps.Cart.GetCart)
			r.Delete("/", deps.Cart.ClearCart)
			r.Post("/items", deps.Cart.AddItem)
			r.Put("/items/{productID}", deps.Cart.UpdateQuantity)
			r.Delete("/items/{productID}", deps.Cart.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", deps.Checkout.InitiateCheckout)
			r.Get("/{checkoutID}", deps.Checkout.GetCheckout)
			r.Post("/{checkoutID}/payment", deps.Checkout.PaymentOutcome)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", deps.Orders.ListOrders)
			r.Get("/{orderID}", deps.Orders.GetOrder)
		})
	})

	return r
}

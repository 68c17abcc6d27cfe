package server

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Surajit-Basak/sundaraah-checkout/internal/catalog"
	"github.com/Surajit-Basak/sundaraah-checkout/internal/checkout"
	"github.com/Surajit-Basak/sundaraah-checkout/internal/domain"
	"github.com/Surajit-Basak/sundaraah-checkout/internal/order"
)

type mockCartService struct {
	cart       *domain.Cart
	addErr     error
	updateErr  error
	removeErr  error
	clearErr   error
	lastCartID string
}

func (m *mockCartService) GetCart(_ context.Context, cartID string) (*domain.Cart, error) {
	m.lastCartID = cartID
	return m.cart, nil
}

func (m *mockCartService) AddItem(_ context.Context, cartID string, productID int64, quantity int) error {
	m.lastCartID = cartID
	if m.addErr != nil {
		return m.addErr
	}
	m.cart.Items = append(m.cart.Items, domain.CartLine{ProductID: productID, Quantity: quantity})
	return nil
}

func (m *mockCartService) UpdateQuantity(_ context.Context, cartID string, productID int64, quantity int) error {
	m.lastCartID = cartID
	return m.updateErr
}

func (m *mockCartService) RemoveItem(_ context.Context, cartID string, productID int64) error {
	m.lastCartID = cartID
	return m.removeErr
}

func (m *mockCartService) Clear(_ context.Context, cartID string) error {
	m.lastCartID = cartID
	if m.clearErr != nil {
		return m.clearErr
	}
	m.cart.Items = nil
	return nil
}

type mockSettings struct {
	snapshot domain.SettingsSnapshot
}

func (m *mockSettings) FetchSettings(context.Context) domain.SettingsSnapshot {
	return m.snapshot
}

type mockCheckoutService struct {
	initiateResult *checkout.InitiateResult
	initiateErr    error
	outcomeResult  *checkout.OutcomeResult
	outcomeErr     error
	session        *domain.CheckoutSession
	sessionErr     error
	lastCartID     string
	lastOutcome    checkout.Outcome
}

func (m *mockCheckoutService) Initiate(_ context.Context, cartID string, _ checkout.InitiateRequest) (*checkout.InitiateResult, error) {
	m.lastCartID = cartID
	if m.initiateErr != nil {
		return nil, m.initiateErr
	}
	return m.initiateResult, nil
}

func (m *mockCheckoutService) HandleOutcome(_ context.Context, _ string, outcome checkout.Outcome, _, _ string) (*checkout.OutcomeResult, error) {
	m.lastOutcome = outcome
	if m.outcomeErr != nil {
		return nil, m.outcomeErr
	}
	return m.outcomeResult, nil
}

func (m *mockCheckoutService) GetSession(context.Context, string) (*domain.CheckoutSession, error) {
	if m.sessionErr != nil {
		return nil, m.sessionErr
	}
	return m.session, nil
}

type mockOrderReader struct {
	orders map[uuid.UUID]*domain.Order
}

func (m *mockOrderReader) GetOrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

func (m *mockOrderReader) ListOrdersByUserID(_ context.Context, userID string) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

type mockCatalog struct {
	products map[int64]*domain.Product
}

func (m *mockCatalog) GetAllProducts(context.Context) ([]*domain.Product, error) {
	out := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

type testEnv struct {
	router    chi.Router
	carts     *mockCartService
	checkouts *mockCheckoutService
	orders    *mockOrderReader
	catalog   *mockCatalog
	metrics   *Metrics
}

func newTestEnv() *testEnv {
	carts := &mockCartService{cart: &domain.Cart{
		CartID: "cart-1",
		Items: []domain.CartLine{
			{ProductID: 1, Name: "Gold Pendant", UnitPrice: 250, Quantity: 2},
		},
	}}
	settings := &mockSettings{snapshot: domain.SettingsSnapshot{
		ShippingFee:           50,
		FreeShippingThreshold: 1000,
		Currency:              "INR",
	}}
	checkouts := &mockCheckoutService{}
	orders := &mockOrderReader{orders: make(map[uuid.UUID]*domain.Order)}
	cat := &mockCatalog{products: map[int64]*domain.Product{
		1: {ID: 1, Name: "Gold Pendant", Slug: "gold-pendant", Price: 250, InStock: true},
	}}

	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	timeout := 5 * time.Second

	router := NewRouter(RouterDeps{
		Cart:     NewCartHandler(carts, settings, timeout),
		Checkout: NewCheckoutHandler(checkouts, metrics, timeout),
		Orders:   NewOrdersHandler(orders, timeout),
		Products: NewProductsHandler(cat, timeout),
		Settings: NewSettingsHandler(settings, timeout),
		Registry: registry,
		Timeout:  timeout,
	})

	return &testEnv{
		router:    router,
		carts:     carts,
		checkouts: checkouts,
		orders:    orders,
		catalog:   cat,
		metrics:   metrics,
	}
}

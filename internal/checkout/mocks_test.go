package checkout

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Surajit-Basak/sundaraah-checkout/internal/domain"
	"github.com/Surajit-Basak/sundaraah-checkout/internal/order"
)

// MockRepository implements RepoInterface with an in-memory session map and
// real compare-and-set semantics, so duplicate-signal races behave as they
// would against Postgres.
type MockRepository struct {
	mu        sync.Mutex
	Sessions  map[string]*domain.CheckoutSession
	CreateErr error
	GetErr    error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{Sessions: make(map[string]*domain.CheckoutSession)}
}

func (m *MockRepository) CreateSession(_ context.Context, session *domain.CheckoutSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	copied := *session
	m.Sessions[session.ID] = &copied
	return nil
}

func (m *MockRepository) GetSession(_ context.Context, id string) (*domain.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	session, ok := m.Sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (m *MockRepository) TransitionStatus(_ context.Context, id string, from, to domain.CheckoutStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.Sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if session.Status != from {
		return ErrStatusConflict
	}
	session.Status = to
	return nil
}

func (m *MockRepository) SetPaymentOutcome(_ context.Context, id string, from, to domain.CheckoutStatus, providerRef, failureReason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.Sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if session.Status != from {
		return ErrStatusConflict
	}
	session.Status = to
	session.ProviderReference = providerRef
	session.FailureReason = failureReason
	return nil
}

func (m *MockRepository) CompleteSession(_ context.Context, id, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.Sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if session.Status != domain.CheckoutStatusPaymentSucceeded {
		return ErrStatusConflict
	}
	session.Status = domain.CheckoutStatusCompleted
	session.OrderID = orderID
	return nil
}

func (m *MockRepository) RunMigrations(*Credentials) error { return nil }
func (m *MockRepository) Close() error                     { return nil }

// MockCartStore implements CartStore.
type MockCartStore struct {
	Cart     *domain.Cart
	GetErr   error
	ClearErr error
	Cleared  bool
}

func (m *MockCartStore) GetCart(context.Context, string) (*domain.Cart, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.Cart, nil
}

func (m *MockCartStore) Clear(context.Context, string) error {
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.Cleared = true
	m.Cart = &domain.Cart{CartID: m.Cart.CartID}
	return nil
}

// MockSettings implements SettingsFetcher.
type MockSettings struct {
	Snapshot domain.SettingsSnapshot
}

func (m *MockSettings) FetchSettings(context.Context) domain.SettingsSnapshot {
	return m.Snapshot
}

// MockGateway implements payment.Gateway.
type MockGateway struct {
	Session   *domain.PaymentSession
	Err       error
	CallCount int
	LastReq   struct {
		Amount   float64
		Currency string
	}
}

func (m *MockGateway) CreateSession(_ context.Context, amount float64, currency string) (*domain.PaymentSession, error) {
	m.CallCount++
	m.LastReq.Amount = amount
	m.LastReq.Currency = currency
	if m.Err != nil {
		return nil, m.Err
	}
	session := *m.Session
	session.Amount = amount
	session.Currency = currency
	return &session, nil
}

// MockOrderStore implements OrderStore.
type MockOrderStore struct {
	mu        sync.Mutex
	Orders    []*domain.Order
	CreateErr error
}

func (m *MockOrderStore) CreateOrder(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	for _, existing := range m.Orders {
		if existing.CheckoutID == o.CheckoutID {
			return order.ErrDuplicateCheckout
		}
	}
	m.Orders = append(m.Orders, o)
	return nil
}

func (m *MockOrderStore) GetOrderByCheckoutID(_ context.Context, checkoutID uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Orders {
		if existing.CheckoutID == checkoutID {
			return existing, nil
		}
	}
	return nil, order.ErrOrderNotFound
}

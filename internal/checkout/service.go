package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Surajit-Basak/sundaraah-checkout/internal/domain"
	"github.com/Surajit-Basak/sundaraah-checkout/internal/order"
	"github.com/Surajit-Basak/sundaraah-checkout/internal/payment"
)

// CartStore is the slice of the cart service the checkout flow needs.
type CartStore interface {
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)
	Clear(ctx context.Context, cartID string) error
}

// SettingsFetcher supplies the shipping configuration as of session start.
type SettingsFetcher interface {
	FetchSettings(ctx context.Context) domain.SettingsSnapshot
}

// OrderStore persists committed orders.
type OrderStore interface {
	CreateOrder(ctx context.Context, o *domain.Order) error
	GetOrderByCheckoutID(ctx context.Context, checkoutID uuid.UUID) (*domain.Order, error)
}

type Service struct {
	repo     RepoInterface
	carts    CartStore
	settings SettingsFetcher
	gateway  payment.Gateway
	orders   OrderStore
}

func NewService(repo RepoInterface, carts CartStore, settings SettingsFetcher, gateway payment.Gateway, orders OrderStore) *Service {
	return &Service{
		repo:     repo,
		carts:    carts,
		settings: settings,
		gateway:  gateway,
		orders:   orders,
	}
}

type InitiateRequest struct {
	CustomerName  string
	CustomerEmail string
	UserID        string
}

type InitiateResult struct {
	CheckoutID        string
	ProviderSessionID string
	ProviderPublicKey string
	Pricing           domain.PricingResult
	Currency          string
	Status            domain.CheckoutStatus
}

// Initiate validates the cart and customer fields, snapshots the cart against
// the live settings, opens a payment session for the derived total, and
// persists the checkout session. The amount is always recomputed here from
// the authoritative cart; a total posted by the client is never trusted.
func (s *Service) Initiate(ctx context.Context, cartID string, req InitiateRequest) (*InitiateResult, error) {
	if strings.TrimSpace(req.CustomerName) == "" || strings.TrimSpace(req.CustomerEmail) == "" {
		return nil, ErrMissingCustomer
	}

	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	settings := s.settings.FetchSettings(ctx)
	pricing := domain.ComputePricing(cart.Subtotal(), settings)
	snapshot := buildSnapshot(cart, pricing, settings)

	paySession, err := s.gateway.CreateSession(ctx, pricing.Total, settings.Currency)
	if err != nil {
		return nil, err
	}

	session := &domain.CheckoutSession{
		ID:                uuid.NewString(),
		CartID:            cartID,
		UserID:            req.UserID,
		CustomerName:      strings.TrimSpace(req.CustomerName),
		CustomerEmail:     strings.TrimSpace(req.CustomerEmail),
		ProviderSessionID: paySession.SessionID,
		Amount:            pricing.Total,
		Currency:          settings.Currency,
		Snapshot:          snapshot,
		Status:            domain.CheckoutStatusInitiated,
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	// The session handle goes straight back to the browser, which opens the
	// payment widget with it.
	if err := s.repo.TransitionStatus(ctx, session.ID, domain.CheckoutStatusInitiated, domain.CheckoutStatusWidgetOpen); err != nil {
		return nil, fmt.Errorf("failed to open checkout session: %w", err)
	}

	return &InitiateResult{
		CheckoutID:        session.ID,
		ProviderSessionID: paySession.SessionID,
		ProviderPublicKey: paySession.ProviderPublicKey,
		Pricing:           pricing,
		Currency:          settings.Currency,
		Status:            domain.CheckoutStatusWidgetOpen,
	}, nil
}

func buildSnapshot(cart *domain.Cart, pricing domain.PricingResult, settings domain.SettingsSnapshot) domain.CartSnapshot {
	snapshot := domain.CartSnapshot{
		Items:       make([]domain.CartSnapshotItem, 0, len(cart.Items)),
		Subtotal:    pricing.Subtotal,
		ShippingFee: pricing.ShippingCost,
		TotalAmount: pricing.Total,
		Currency:    settings.Currency,
		CapturedAt:  time.Now(),
	}

	for _, line := range cart.Items {
		snapshot.Items = append(snapshot.Items, domain.CartSnapshotItem{
			ProductID:   line.ProductID,
			ProductName: line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    line.UnitPrice * float64(line.Quantity),
		})
	}

	return snapshot
}

// Outcome is the browser widget's terminal signal for one payment attempt.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailure   Outcome = "failure"
	OutcomeDismissed Outcome = "dismissed"
)

type OutcomeResult struct {
	Status  domain.CheckoutStatus
	OrderID string
}

// HandleOutcome applies one widget signal to the session's state machine.
// The first success commits the order exactly once; failure and dismissal
// leave the cart untouched so the user can retry with a fresh session.
func (s *Service) HandleOutcome(ctx context.Context, checkoutID string, outcome Outcome, providerRef, reason string) (*OutcomeResult, error) {
	switch outcome {
	case OutcomeSuccess:
		return s.handleSuccess(ctx, checkoutID, providerRef)
	case OutcomeFailure:
		return s.recordAbort(ctx, checkoutID, domain.CheckoutStatusFailed, reason)
	case OutcomeDismissed:
		return s.recordAbort(ctx, checkoutID, domain.CheckoutStatusDismissed, "")
	default:
		return nil, fmt.Errorf("%w: unknown outcome %q", ErrIllegalTransition, outcome)
	}
}

func (s *Service) recordAbort(ctx context.Context, checkoutID string, to domain.CheckoutStatus, reason string) (*OutcomeResult, error) {
	err := s.repo.SetPaymentOutcome(ctx, checkoutID, domain.CheckoutStatusWidgetOpen, to, "", reason)
	if err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return nil, ErrIllegalTransition
		}
		return nil, err
	}
	return &OutcomeResult{Status: to}, nil
}

func (s *Service) handleSuccess(ctx context.Context, checkoutID, providerRef string) (*OutcomeResult, error) {
	err := s.repo.SetPaymentOutcome(ctx, checkoutID,
		domain.CheckoutStatusWidgetOpen, domain.CheckoutStatusPaymentSucceeded, providerRef, "")
	if err != nil && !errors.Is(err, ErrStatusConflict) {
		return nil, err
	}

	if errors.Is(err, ErrStatusConflict) {
		// A success signal already arrived for this session. Never commit a
		// second order; report what the first signal produced.
		return s.resolveDuplicateSuccess(ctx, checkoutID)
	}

	session, err := s.repo.GetSession(ctx, checkoutID)
	if err != nil {
		return nil, err
	}

	orderID, err := s.commitOrder(ctx, session, providerRef)
	if err != nil {
		return nil, err
	}

	// Cart is cleared only after the order is durably saved.
	if clearErr := s.carts.Clear(ctx, session.CartID); clearErr != nil {
		log.Printf("failed to clear cart %v after order %v: %v", session.CartID, orderID, clearErr)
	}

	if completeErr := s.repo.CompleteSession(ctx, checkoutID, orderID); completeErr != nil {
		// The order exists; the session row lagging behind is recoverable
		// from the orders table.
		log.Printf("failed to complete checkout session %v: %v", checkoutID, completeErr)
	}

	return &OutcomeResult{Status: domain.CheckoutStatusCompleted, OrderID: orderID}, nil
}

func (s *Service) resolveDuplicateSuccess(ctx context.Context, checkoutID string) (*OutcomeResult, error) {
	session, err := s.repo.GetSession(ctx, checkoutID)
	if err != nil {
		return nil, err
	}

	switch session.Status {
	case domain.CheckoutStatusCompleted:
		log.Printf("duplicate success signal for completed checkout %v, order %v", checkoutID, session.OrderID)
		return &OutcomeResult{Status: session.Status, OrderID: session.OrderID}, nil
	case domain.CheckoutStatusPaymentSucceeded:
		// First success is mid-commit, its commit failed, or the session row
		// lagged behind a committed order. If the order exists, report it and
		// catch the session up; never commit a second one.
		if checkoutUUID, parseErr := uuid.Parse(checkoutID); parseErr == nil {
			if existing, getErr := s.orders.GetOrderByCheckoutID(ctx, checkoutUUID); getErr == nil {
				if completeErr := s.repo.CompleteSession(ctx, checkoutID, existing.ID.String()); completeErr != nil {
					log.Printf("failed to complete checkout session %v: %v", checkoutID, completeErr)
				}
				return &OutcomeResult{Status: domain.CheckoutStatusCompleted, OrderID: existing.ID.String()}, nil
			}
		}
		log.Printf("duplicate success signal for in-flight checkout %v", checkoutID)
		return &OutcomeResult{Status: session.Status}, nil
	default:
		return nil, ErrIllegalTransition
	}
}

// commitOrder persists the order from the session snapshot. On failure the
// session stays PAYMENT_SUCCEEDED and the cart is deliberately NOT cleared:
// payment was taken, so the cart contents are the only record the user and
// support have to reconstruct the order.
func (s *Service) commitOrder(ctx context.Context, session *domain.CheckoutSession, providerRef string) (string, error) {
	checkoutUUID, err := uuid.Parse(session.ID)
	if err != nil {
		return "", fmt.Errorf("invalid checkout id %q: %w", session.ID, err)
	}

	items := make([]domain.OrderItem, len(session.Snapshot.Items))
	for i, item := range session.Snapshot.Items {
		items[i] = domain.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.UnitPrice,
		}
	}

	o := &domain.Order{
		ID:            uuid.New(),
		CheckoutID:    checkoutUUID,
		UserID:        session.UserID,
		CustomerName:  session.CustomerName,
		CustomerEmail: session.CustomerEmail,
		TotalAmount:   session.Snapshot.TotalAmount,
		ShippingFee:   session.Snapshot.ShippingFee,
		Currency:      session.Snapshot.Currency,
		Status:        domain.OrderStatusConfirmed,
		Items:         items,
	}

	if err := s.orders.CreateOrder(ctx, o); err != nil {
		if errors.Is(err, order.ErrDuplicateCheckout) {
			// The constraint backstop fired: an order for this checkout
			// already exists, so return it instead of failing.
			existing, getErr := s.orders.GetOrderByCheckoutID(ctx, checkoutUUID)
			if getErr != nil {
				return "", fmt.Errorf("%w: %v", ErrOrderPersist, getErr)
			}
			return existing.ID.String(), nil
		}
		log.Printf("order persist failed for checkout %v (provider ref %v): %v", session.ID, providerRef, err)
		return "", fmt.Errorf("%w: %v", ErrOrderPersist, err)
	}

	return o.ID.String(), nil
}

// GetSession exposes a session for the confirmation and status views.
func (s *Service) GetSession(ctx context.Context, checkoutID string) (*domain.CheckoutSession, error) {
	return s.repo.GetSession(ctx, checkoutID)
}

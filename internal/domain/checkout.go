package domain

import "time"

type CheckoutStatus string

const (
	CheckoutStatusInitiated        CheckoutStatus = "INITIATED"
	CheckoutStatusWidgetOpen       CheckoutStatus = "WIDGET_OPEN"
	CheckoutStatusPaymentSucceeded CheckoutStatus = "PAYMENT_SUCCEEDED"
	CheckoutStatusCompleted        CheckoutStatus = "COMPLETED"
	CheckoutStatusFailed           CheckoutStatus = "FAILED"
	CheckoutStatusDismissed        CheckoutStatus = "DISMISSED"
)

// validTransitions encodes the widget lifecycle. Every payment outcome goes
// through WIDGET_OPEN, and only a succeeded payment can complete. FAILED and
// DISMISSED are terminal for the session; a retry opens a new session with
// the cart untouched.
var validTransitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusInitiated:        {CheckoutStatusWidgetOpen},
	CheckoutStatusWidgetOpen:       {CheckoutStatusPaymentSucceeded, CheckoutStatusFailed, CheckoutStatusDismissed},
	CheckoutStatusPaymentSucceeded: {CheckoutStatusCompleted},
}

func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusCompleted || s == CheckoutStatusFailed || s == CheckoutStatusDismissed
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}

// CartSnapshotItem is an item with its price captured at checkout time.
// Prices in the snapshot are authoritative for the order; they must not be
// recomputed from the catalog later.
type CartSnapshotItem struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

// CartSnapshot represents the full cart and pricing state at checkout time.
type CartSnapshot struct {
	Items       []CartSnapshotItem `json:"items"`
	Subtotal    float64            `json:"subtotal"`
	ShippingFee float64            `json:"shipping_fee"`
	TotalAmount float64            `json:"total_amount"`
	Currency    string             `json:"currency"`
	CapturedAt  time.Time          `json:"captured_at"`
}

// CheckoutSession is the durable record of one checkout attempt against a
// fixed amount. ProviderSessionID is the opaque handle from the payment
// gateway; OrderID is set once the order has been committed.
type CheckoutSession struct {
	ID                string
	CartID            string
	UserID            string
	CustomerName      string
	CustomerEmail     string
	ProviderSessionID string
	ProviderReference string
	Amount            float64
	Currency          string
	Snapshot          CartSnapshot
	Status            CheckoutStatus
	OrderID           string
	FailureReason     string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

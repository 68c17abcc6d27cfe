package checkout

import "errors"

var (
	// ErrEmptyCart blocks checkout before any network call is made.
	ErrEmptyCart = errors.New("cart is empty, nothing to checkout")
	// ErrMissingCustomer blocks checkout when the customer name or email is blank.
	ErrMissingCustomer = errors.New("customer name and email are required")
	// ErrOrderPersist is the severe branch: payment succeeded but the order
	// failed to save. The cart is deliberately kept so the order can be
	// reconstructed with support.
	ErrOrderPersist = errors.New("payment succeeded but order could not be saved")
	// ErrIllegalTransition rejects a payment outcome that the session's
	// current status does not allow.
	ErrIllegalTransition = errors.New("illegal transition of checkout status")
)

package cart

import (
	"context"
	"errors"

	"github.com/Surajit-Basak/sundaraah-checkout/internal/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
)

// Repository defines the interface for cart data operations.
// Consumers define this interface, not the MongoDB implementation.
type Repository interface {
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)
	AddItem(ctx context.Context, cartID string, item domain.CartLine) error
	SetItemQuantity(ctx context.Context, cartID string, productID int64, quantity int) error
	RemoveItem(ctx context.Context, cartID string, productID int64) error
	DeleteCart(ctx context.Context, cartID string) error
}

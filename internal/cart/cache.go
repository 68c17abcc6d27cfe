package cart

import (
	"context"
	"errors"

	"github.com/Surajit-Basak/sundaraah-checkout/internal/domain"
)

type Cache interface {
	Get(ctx context.Context, cartID string) (*domain.Cart, error)
	Set(ctx context.Context, cartID string, cart *domain.Cart) error
	Delete(ctx context.Context, cartID string) error
}

var ErrCacheMiss = errors.New("cache miss")

package cart

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Surajit-Basak/sundaraah-checkout/internal/domain"
	"golang.org/x/sync/singleflight"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrOutOfStock      = errors.New("product is out of stock")
)

// ProductGetter resolves a product from the catalog. Cart lines always carry
// the catalog's price, never one supplied by the client.
type ProductGetter interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

type Service struct {
	repo    Repository
	cache   Cache
	catalog ProductGetter
	sfg     singleflight.Group // Prevents cache stampede
}

func NewService(repo Repository, cache Cache, catalog ProductGetter) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		catalog: catalog,
	}
}

func (s *Service) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(cartID, func() (interface{}, error) {

		cart, err := s.cache.Get(ctx, cartID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("cache get error: %v \n", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, cartID)
		if errGet != nil && errors.Is(errGet, ErrCartNotFound) { // not found cart return empty cart
			return &domain.Cart{
				CartID:    cartID,
				Items:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet // err from repo is not cache miss, return it
		}

		// Set the cache before returning: an async set could lose the race
		// with a concurrent invalidation and pin a stale cart for the TTL.
		errSet := s.cache.Set(ctx, cartID, cart)
		if errSet != nil {
			log.Printf("cache set error: %v \n", errSet)
		}

		return cart, nil // cart was not in cache, return it from repo
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem resolves the product from the catalog and merges the quantity into
// the cart. Adding the same product twice yields one line with the summed
// quantity.
func (s *Service) AddItem(ctx context.Context, cartID string, productID int64, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if !product.InStock {
		return ErrOutOfStock
	}

	line := domain.CartLine{
		ProductID: product.ID,
		Name:      product.Name,
		Slug:      product.Slug,
		UnitPrice: product.Price,
		ImageURL:  product.ImageURL,
		Quantity:  quantity,
	}

	if errAdd := s.repo.AddItem(ctx, cartID, line); errAdd != nil {
		log.Printf("repo add item error: %v \n", errAdd)
		return errAdd
	}

	invalidateCache(s, cartID)
	return nil
}

// UpdateQuantity sets the line's quantity to an absolute value. A quantity of
// zero or less removes the line. Updating a product that is not in the cart
// is a no-op.
func (s *Service) UpdateQuantity(ctx context.Context, cartID string, productID int64, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, cartID, productID)
	}

	errUpdate := s.repo.SetItemQuantity(ctx, cartID, productID, quantity)
	if errUpdate != nil {
		if errors.Is(errUpdate, ErrItemNotFound) {
			return nil
		}
		log.Printf("repo set item quantity error: %v \n", errUpdate)
		return errUpdate
	}

	invalidateCache(s, cartID)
	return nil
}

// RemoveItem deletes the line if present. Removing an absent line is a no-op.
func (s *Service) RemoveItem(ctx context.Context, cartID string, productID int64) error {
	errRemove := s.repo.RemoveItem(ctx, cartID, productID)
	if errRemove != nil {
		if errors.Is(errRemove, ErrCartNotFound) || errors.Is(errRemove, ErrItemNotFound) {
			return nil
		}
		log.Printf("repo remove item error: %v \n", errRemove)
		return errRemove
	}

	invalidateCache(s, cartID)
	return nil
}

// Clear empties the cart. Called after a committed order.
func (s *Service) Clear(ctx context.Context, cartID string) error {
	errDelete := s.repo.DeleteCart(ctx, cartID)
	if errDelete != nil {
		if errors.Is(errDelete, ErrCartNotFound) {
			return nil
		}
		log.Printf("repo delete cart error: %v \n", errDelete)
		return errDelete
	}

	invalidateCache(s, cartID)
	return nil
}

func invalidateCache(s *Service, cartID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	errInvalidate := s.cache.Delete(ctx, cartID)
	if errInvalidate != nil {
		log.Printf("cache invalidate error: %v \n", errInvalidate)
	}
}

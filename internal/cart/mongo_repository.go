package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Surajit-Basak/sundaraah-checkout/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		collection: db.Collection("carts"),
	}
}

// EnsureIndexes creates the unique cart_id index and the idle-cart TTL index.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	repo := &mongoRepository{collection: db.Collection("carts")}
	return repo.CreateIndexes(ctx)
}

func (m *mongoRepository) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	filter := bson.M{"cart_id": cartID}
	raw, err := m.collection.FindOne(ctx, filter).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	var cart domain.Cart
	if err := bson.Unmarshal(raw, &cart); err != nil {
		// A corrupted document must never brick the cart. Discard it and let
		// the caller start fresh.
		log.Printf("discarding malformed cart document %v: %v", cartID, err)
		if _, delErr := m.collection.DeleteOne(ctx, filter); delErr != nil {
			log.Printf("failed to delete malformed cart document %v: %v", cartID, delErr)
		}
		return nil, ErrCartNotFound
	}

	return &cart, nil
}

// AddItem merges the quantity into an existing line for the same product, or
// appends a new line. There is never more than one line per product.
func (m *mongoRepository) AddItem(ctx context.Context, cartID string, item domain.CartLine) error {
	now := time.Now()
	item.AddedAt = now

	filter := bson.M{"cart_id": cartID}

	// GetCart also discards a malformed document, so a corrupted cart is
	// recreated here instead of failing every subsequent add.
	existingCart, err := m.GetCart(ctx, cartID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			cart := &domain.Cart{
				CartID:    cartID,
				Items:     []domain.CartLine{item},
				CreatedAt: now,
				UpdatedAt: now,
			}

			_, err = m.collection.InsertOne(ctx, cart)
			if err != nil {
				return fmt.Errorf("failed to create cart with item: %w", err)
			}
			return nil
		}
		return fmt.Errorf("failed to check existing cart: %w", err)
	}

	if existingCart.Line(item.ProductID) != nil {
		// Same product already in the cart: increment its quantity
		update := bson.M{
			"$inc": bson.M{"items.$[elem].quantity": item.Quantity},
			"$set": bson.M{"updated_at": now},
		}
		arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{
				bson.M{"elem.product_id": item.ProductID},
			},
		})

		_, err = m.collection.UpdateOne(ctx, filter, update, arrayFilters)
		if err != nil {
			return fmt.Errorf("failed to increment existing item: %w", err)
		}
	} else {
		update := bson.M{
			"$push": bson.M{"items": item},
			"$set":  bson.M{"updated_at": now},
		}

		_, err = m.collection.UpdateOne(ctx, filter, update)
		if err != nil {
			return fmt.Errorf("failed to add new item: %w", err)
		}
	}

	return nil
}

func (m *mongoRepository) SetItemQuantity(ctx context.Context, cartID string, productID int64, quantity int) error {
	filter := bson.M{
		"cart_id":          cartID,
		"items.product_id": productID,
	}

	update := bson.M{
		"$set": bson.M{
			"items.$[elem].quantity": quantity,
			"updated_at":             time.Now(),
		},
	}

	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.product_id": productID},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to set item quantity: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (m *mongoRepository) RemoveItem(ctx context.Context, cartID string, productID int64) error {
	filter := bson.M{"cart_id": cartID}
	update := bson.M{
		"$pull": bson.M{
			"items": bson.M{"product_id": productID},
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (m *mongoRepository) DeleteCart(ctx context.Context, cartID string) error {
	filter := bson.M{"cart_id": cartID}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "cart_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

package domain

import "time"

// Cart holds the active line items for one storefront visitor. Carts are
// keyed by an opaque cart token so they work with or without a signed-in user.
type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"-"`
	CartID    string     `bson:"cart_id" json:"cart_id"`
	UserID    string     `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Items     []CartLine `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// CartLine is one product-and-quantity entry. UnitPrice is captured from the
// catalog when the line is created, never from the client.
type CartLine struct {
	ProductID int64     `bson:"product_id" json:"product_id"`
	Name      string    `bson:"name" json:"name"`
	Slug      string    `bson:"slug" json:"slug"`
	UnitPrice float64   `bson:"unit_price" json:"unit_price"`
	ImageURL  string    `bson:"image_url" json:"image_url"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

// Count is the total number of units across all lines.
func (c *Cart) Count() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// Subtotal is the sum of unit price times quantity across all lines.
func (c *Cart) Subtotal() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// Line returns the line for productID, or nil if the cart has none.
func (c *Cart) Line(productID int64) *CartLine {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

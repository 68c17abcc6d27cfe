package domain

// Product is the catalog view needed to build a cart line.
type Product struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url"`
	InStock  bool    `json:"in_stock"`
}

// PaymentSession is the opaque handle returned by the payment gateway for one
// checkout attempt at a fixed amount.
type PaymentSession struct {
	SessionID         string  `json:"session_id"`
	ProviderPublicKey string  `json:"provider_public_key"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency"`
}

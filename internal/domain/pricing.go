package domain

// PricingResult is derived from the cart subtotal and the settings snapshot.
// It is recomputed on demand and never persisted.
type PricingResult struct {
	Subtotal     float64 `json:"subtotal"`
	ShippingCost float64 `json:"shipping_cost"`
	Total        float64 `json:"total"`
}

// ComputePricing applies the flat-fee shipping rule: shipping is free when
// the subtotal reaches the free-shipping threshold (inclusive), otherwise the
// configured flat fee applies.
func ComputePricing(subtotal float64, settings SettingsSnapshot) PricingResult {
	shipping := settings.ShippingFee
	if subtotal >= settings.FreeShippingThreshold {
		shipping = 0
	}
	return PricingResult{
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Total:        subtotal + shipping,
	}
}

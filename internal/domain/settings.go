package domain

import "math"

// SettingsSnapshot is the read-only storefront configuration fetched once per
// checkout session from the backend settings store.
type SettingsSnapshot struct {
	ShippingFee           float64 `json:"shipping_fee"`
	FreeShippingThreshold float64 `json:"free_shipping_threshold"`
	SiteName              string  `json:"site_name"`
	Currency              string  `json:"currency"`
}

const DefaultCurrency = "INR"

// DefaultSettings is the degraded snapshot substituted when the settings
// fetch fails or returns partial data: no shipping fee, and a threshold of
// +Inf so shipping is never treated as free.
func DefaultSettings() SettingsSnapshot {
	return SettingsSnapshot{
		ShippingFee:           0,
		FreeShippingThreshold: math.Inf(1),
		Currency:              DefaultCurrency,
	}
}

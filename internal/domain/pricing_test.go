package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputePricing_BelowThreshold(t *testing.T) {
	settings := SettingsSnapshot{ShippingFee: 50, FreeShippingThreshold: 500}

	result := ComputePricing(499, settings)

	assert.Equal(t, 499.0, result.Subtotal)
	assert.Equal(t, 50.0, result.ShippingCost)
	assert.Equal(t, 549.0, result.Total)
}

func TestComputePricing_ThresholdIsInclusive(t *testing.T) {
	settings := SettingsSnapshot{ShippingFee: 50, FreeShippingThreshold: 500}

	result := ComputePricing(500, settings)

	assert.Equal(t, 500.0, result.Subtotal)
	assert.Equal(t, 0.0, result.ShippingCost)
	assert.Equal(t, 500.0, result.Total)
}

func TestComputePricing_DefaultSettingsNeverFree(t *testing.T) {
	// Fallback settings carry an infinite threshold, so no subtotal ever
	// qualifies for free shipping, and the fee defaults to zero.
	result := ComputePricing(1e9, DefaultSettings())

	assert.Equal(t, 0.0, result.ShippingCost)
	assert.Equal(t, 1e9, result.Total)
}

func TestComputePricing_ZeroThresholdEmptyCart(t *testing.T) {
	settings := SettingsSnapshot{ShippingFee: 50, FreeShippingThreshold: 0}

	result := ComputePricing(0, settings)

	assert.Equal(t, 0.0, result.ShippingCost)
	assert.Equal(t, 0.0, result.Total)
}

func TestCartDerivedTotals(t *testing.T) {
	cart := &Cart{
		Items: []CartLine{
			{ProductID: 1, UnitPrice: 100, Quantity: 2},
			{ProductID: 2, UnitPrice: 49.5, Quantity: 3},
		},
	}

	assert.Equal(t, 5, cart.Count())
	assert.Equal(t, 348.5, cart.Subtotal())
}

func TestCanTransitionTo(t *testing.T) {
	assert.True(t, CanTransitionTo(CheckoutStatusInitiated, CheckoutStatusWidgetOpen))
	assert.True(t, CanTransitionTo(CheckoutStatusWidgetOpen, CheckoutStatusPaymentSucceeded))
	assert.True(t, CanTransitionTo(CheckoutStatusWidgetOpen, CheckoutStatusFailed))
	assert.True(t, CanTransitionTo(CheckoutStatusWidgetOpen, CheckoutStatusDismissed))
	assert.True(t, CanTransitionTo(CheckoutStatusPaymentSucceeded, CheckoutStatusCompleted))

	// no transition skips WIDGET_OPEN
	assert.False(t, CanTransitionTo(CheckoutStatusInitiated, CheckoutStatusPaymentSucceeded))
	assert.False(t, CanTransitionTo(CheckoutStatusInitiated, CheckoutStatusCompleted))

	// terminal states have no exits
	assert.False(t, CanTransitionTo(CheckoutStatusCompleted, CheckoutStatusWidgetOpen))
	assert.False(t, CanTransitionTo(CheckoutStatusFailed, CheckoutStatusWidgetOpen))
	assert.False(t, CanTransitionTo(CheckoutStatusDismissed, CheckoutStatusWidgetOpen))

	// a second success for an already-succeeded session is rejected
	assert.False(t, CanTransitionTo(CheckoutStatusPaymentSucceeded, CheckoutStatusPaymentSucceeded))
}

func TestCheckoutStatusIsTerminal(t *testing.T) {
	assert.True(t, CheckoutStatusCompleted.IsTerminal())
	assert.True(t, CheckoutStatusFailed.IsTerminal())
	assert.True(t, CheckoutStatusDismissed.IsTerminal())
	assert.False(t, CheckoutStatusInitiated.IsTerminal())
	assert.False(t, CheckoutStatusWidgetOpen.IsTerminal())
	assert.False(t, CheckoutStatusPaymentSucceeded.IsTerminal())
}

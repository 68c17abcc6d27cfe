package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Surajit-Basak/sundaraah-checkout/internal/domain"
)

// Provider fetches the storefront settings snapshot from the backend
// settings store. A fetch failure never blocks checkout: the caller gets the
// degraded default snapshot (no free shipping, zero fee) and the failure is
// logged as a warning.
type Provider struct {
	client  *http.Client
	baseURL string
}

func NewProvider(baseURL string, timeout time.Duration) *Provider {
	return &Provider{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// wire shape from the settings store; pointers distinguish absent fields
// from legitimate zero values.
type settingsDTO struct {
	ShippingFee           *float64 `json:"shipping_fee"`
	FreeShippingThreshold *float64 `json:"free_shipping_threshold"`
	SiteName              string   `json:"site_name"`
	Currency              string   `json:"currency"`
}

// FetchSettings performs a single read of the settings snapshot. On any
// failure or partial payload it substitutes domain.DefaultSettings.
func (p *Provider) FetchSettings(ctx context.Context) domain.SettingsSnapshot {
	snapshot, err := p.fetch(ctx)
	if err != nil {
		log.Printf("warning: settings fetch failed, using defaults: %v", err)
		return domain.DefaultSettings()
	}
	return snapshot
}

func (p *Provider) fetch(ctx context.Context) (domain.SettingsSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/settings", nil)
	if err != nil {
		return domain.SettingsSnapshot{}, fmt.Errorf("failed to build settings request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.SettingsSnapshot{}, fmt.Errorf("settings request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.SettingsSnapshot{}, fmt.Errorf("settings store returned status %d", resp.StatusCode)
	}

	var dto settingsDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return domain.SettingsSnapshot{}, fmt.Errorf("failed to decode settings: %w", err)
	}

	if dto.ShippingFee == nil || dto.FreeShippingThreshold == nil {
		return domain.SettingsSnapshot{}, fmt.Errorf("settings payload is missing shipping fields")
	}
	if *dto.ShippingFee < 0 || *dto.FreeShippingThreshold < 0 {
		return domain.SettingsSnapshot{}, fmt.Errorf("settings payload has negative shipping values")
	}

	currency := dto.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	return domain.SettingsSnapshot{
		ShippingFee:           *dto.ShippingFee,
		FreeShippingThreshold: *dto.FreeShippingThreshold,
		SiteName:              dto.SiteName,
		Currency:              currency,
	}, nil
}

package server

import (
	"context"
	"math"
	"net/http"
	"time"
)

type SettingsHandler struct {
	settings SettingsFetcher
	timeout  time.Duration
}

func NewSettingsHandler(settings SettingsFetcher, timeout time.Duration) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		timeout:  timeout,
	}
}

type SettingsResponseDTO struct {
	ShippingFee           float64  `json:"shipping_fee"`
	FreeShippingThreshold *float64 `json:"free_shipping_threshold"`
	SiteName              string   `json:"site_name,omitempty"`
	Currency              string   `json:"currency"`
}

// GET /api/v1/settings
//
// An infinite threshold (the degraded fallback) is serialized as null, since
// JSON has no +Inf.
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snapshot := h.settings.FetchSettings(ctx)

	dto := SettingsResponseDTO{
		ShippingFee: snapshot.ShippingFee,
		SiteName:    snapshot.SiteName,
		Currency:    snapshot.Currency,
	}
	if !math.IsInf(snapshot.FreeShippingThreshold, 1) {
		threshold := snapshot.FreeShippingThreshold
		dto.FreeShippingThreshold = &threshold
	}

	respondJSON(w, http.StatusOK, dto)
}

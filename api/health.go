package api

import (
	"net/http"
)

// Index endpoint
func (a *API) Index(w http.ResponseWriter, r *http.Request) error {
	return a.HealthCheck(w, r)
}

// HealthCheck endpoint
func (a *API) HealthCheck(w http.ResponseWriter, r *http.Request) error {
	return sendJSON(w, http.StatusOK, map[string]string{
		"version":     a.version,
		"name":        "Stablelink",
		"description": "Stablelink is a payment-links API for creators accepting stablecoin payments",
	})
}

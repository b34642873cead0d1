package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/AMeenalosini/StressTesting/domain"
)

type HealthHandler struct {
	profile domain.BankProfile
	logger  *zap.Logger
}

func NewHealthHandler(profile domain.BankProfile, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{profile: profile, logger: logger}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, h.logger, http.MethodGet)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]string{
		"status":  "OK",
		"service": "Stress Testing API",
	})
}

// Profile reports the bank profile scenarios are evaluated against.
func (h *HealthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, h.logger, http.MethodGet)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, h.profile)
}

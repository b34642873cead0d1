package http

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/AMeenalosini/StressTesting/service"
)

type UnemploymentHandler struct {
	rates  UnemploymentSource
	logger *zap.Logger
}

func NewUnemploymentHandler(rates UnemploymentSource, logger *zap.Logger) *UnemploymentHandler {
	return &UnemploymentHandler{rates: rates, logger: logger}
}

type unemploymentResponse struct {
	UnemploymentRate float64 `json:"unemploymentRate"`
}

func (h *UnemploymentHandler) LatestRate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, h.logger, http.MethodGet)
		return
	}

	rate, err := h.rates.CurrentRate(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrUnemploymentSourceDisabled) {
			writeError(w, h.logger, http.StatusServiceUnavailable, err.Error())
			return
		}
		h.logger.Error("fetching unemployment data", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to fetch unemployment data")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, unemploymentResponse{UnemploymentRate: rate})
}

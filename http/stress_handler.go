package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/AMeenalosini/StressTesting/domain"
	"github.com/AMeenalosini/StressTesting/service"
)

// UnemploymentSource supplies the current unemployment rate in percent.
type UnemploymentSource interface {
	CurrentRate(ctx context.Context) (float64, error)
}

// Explainer summarises a stress result in prose.
type Explainer interface {
	Explain(ctx context.Context, profile domain.BankProfile, result domain.StressResult) string
}

// StressTestRequest is the POST /api/stress-test body. Missing or null
// shocks take the scenario defaults.
type StressTestRequest struct {
	UnemploymentShock *float64 `json:"unemploymentShock"`
	GDPShock          *float64 `json:"gdpShock"`
	// IncludeCurrentUnemployment adds the latest published unemployment
	// rate to the unemployment shock before evaluating.
	IncludeCurrentUnemployment bool `json:"includeCurrentUnemployment"`
	Explain                    bool `json:"explain"`
}

type StressHandler struct {
	service   *service.StressService
	rates     UnemploymentSource
	explainer Explainer
	logger    *zap.Logger
}

func NewStressHandler(
	service *service.StressService,
	rates UnemploymentSource,
	explainer Explainer,
	logger *zap.Logger,
) *StressHandler {
	return &StressHandler{service: service, rates: rates, explainer: explainer, logger: logger}
}

func (h *StressHandler) RunStressTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, h.logger, http.MethodPost)
		return
	}

	var req StressTestRequest
	// An empty body runs the default scenario.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Debug("decoding stress test request", zap.Error(err))
		writeError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	scenario, err := service.ResolveScenario(req.UnemploymentShock, req.GDPShock)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	if req.IncludeCurrentUnemployment {
		rate, err := h.rates.CurrentRate(r.Context())
		if err != nil {
			h.writeUnemploymentError(w, err)
			return
		}
		scenario.UnemploymentShock += rate
	}

	run, err := h.service.RunStressTest(scenario)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if req.Explain {
		run.Explanation = h.explainer.Explain(r.Context(), h.service.Profile(), run.StressResult)
	}

	writeJSON(w, h.logger, http.StatusOK, run)
}

func (h *StressHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, h.logger, http.MethodGet)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, h.logger, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := h.service.RecentRuns(limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]any{"runs": runs})
}

func (h *StressHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidProfile):
		h.logger.Error("bank profile rejected by evaluator", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "bank profile misconfigured")
	default:
		h.logger.Error("stress test failed", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal server error")
	}
}

func (h *StressHandler) writeUnemploymentError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrUnemploymentSourceDisabled) {
		writeError(w, h.logger, http.StatusServiceUnavailable, err.Error())
		return
	}
	h.logger.Error("fetching unemployment data", zap.Error(err))
	writeError(w, h.logger, http.StatusInternalServerError, "Failed to fetch unemployment data")
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AMeenalosini/StressTesting/domain"
	"github.com/AMeenalosini/StressTesting/repository"
	"github.com/AMeenalosini/StressTesting/service"
)

type stubRates struct {
	rate  float64
	err   error
	calls int
}

func (s *stubRates) CurrentRate(context.Context) (float64, error) {
	s.calls++
	return s.rate, s.err
}

type stubExplainer struct{}

func (stubExplainer) Explain(_ context.Context, profile domain.BankProfile, result domain.StressResult) string {
	return profile.Name + " " + string(result.Result)
}

func newTestStressHandler(t *testing.T, rates UnemploymentSource) *StressHandler {
	t.Helper()
	repo := repository.NewStressRunRepositoryMemory(0)
	svc, err := service.NewStressService(domain.DefaultBankProfile(), repo, zap.NewNop())
	require.NoError(t, err)
	return NewStressHandler(svc, rates, stubExplainer{}, zap.NewNop())
}

type stressResponse struct {
	RunID  string `json:"runId"`
	Inputs struct {
		UnemploymentShock float64 `json:"unemploymentShock"`
		GDPShock          float64 `json:"gdpShock"`
	} `json:"inputs"`
	Losses struct {
		CreditLoss int64 `json:"creditLoss"`
		MarketLoss int64 `json:"marketLoss"`
		TotalLoss  int64 `json:"totalLoss"`
	} `json:"losses"`
	Capital struct {
		BeforeStress int64 `json:"beforeStress"`
		AfterStress  int64 `json:"afterStress"`
	} `json:"capital"`
	Scenario             string  `json:"scenario"`
	CapitalAdequacyRatio string  `json:"capitalAdequacyRatio"`
	BaselMinimum         float64 `json:"baselMinimum"`
	Result               string  `json:"result"`
	Explanation          string  `json:"explanation"`
}

func postStressTest(t *testing.T, h *StressHandler, body string) (*httptest.ResponseRecorder, stressResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/stress-test", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.RunStressTest(w, req)

	var resp stressResponse
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestRunStressTestHandler_OK(t *testing.T) {
	h := newTestStressHandler(t, &stubRates{})

	w, resp := postStressTest(t, h, `{"unemploymentShock": 1, "gdpShock": -1}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "Severely Adverse", resp.Scenario)
	assert.Equal(t, 1.0, resp.Inputs.UnemploymentShock)
	assert.Equal(t, -1.0, resp.Inputs.GDPShock)
	assert.Equal(t, int64(20_000_000), resp.Losses.CreditLoss)
	assert.Equal(t, int64(15_000_000), resp.Losses.MarketLoss)
	assert.Equal(t, int64(35_000_000), resp.Losses.TotalLoss)
	assert.Equal(t, int64(120_000_000), resp.Capital.BeforeStress)
	assert.Equal(t, int64(85_000_000), resp.Capital.AfterStress)
	assert.Equal(t, "8.50", resp.CapitalAdequacyRatio)
	assert.Equal(t, 10.5, resp.BaselMinimum)
	assert.Equal(t, "FAIL", resp.Result)
}

func TestRunStressTestHandler_RatioIsAString(t *testing.T) {
	h := newTestStressHandler(t, &stubRates{})

	w, _ := postStressTest(t, h, `{"unemploymentShock": 0, "gdpShock": 0}`)
	require.Equal(t, http.StatusOK, w.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Equal(t, "12.00", raw["capitalAdequacyRatio"])
	assert.Equal(t, "PASS", raw["result"])
	assert.NotContains(t, raw, "Figures")
}

func TestRunStressTestHandler_Defaults(t *testing.T) {
	h := newTestStressHandler(t, &stubRates{})

	for name, body := range map[string]string{
		"empty body":   ``,
		"empty object": `{}`,
		"null fields":  `{"unemploymentShock": null, "gdpShock": null}`,
	} {
		t.Run(name, func(t *testing.T) {
			w, resp := postStressTest(t, h, body)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, 3.0, resp.Inputs.UnemploymentShock)
			assert.Equal(t, -4.0, resp.Inputs.GDPShock)
			assert.Equal(t, "0.00", resp.CapitalAdequacyRatio)
			assert.Equal(t, "FAIL", resp.Result)
		})
	}
}

func TestRunStressTestHandler_IncludeCurrentUnemployment(t *testing.T) {
	rates := &stubRates{rate: 4.5}
	h := newTestStressHandler(t, rates)

	w, resp := postStressTest(t, h, `{"unemploymentShock": 0.5, "gdpShock": 0, "includeCurrentUnemployment": true}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, rates.calls)
	assert.Equal(t, 5.0, resp.Inputs.UnemploymentShock)
	assert.Equal(t, int64(100_000_000), resp.Losses.CreditLoss)
}

func TestRunStressTestHandler_UnemploymentFailure(t *testing.T) {
	h := newTestStressHandler(t, &stubRates{err: errors.New("upstream down")})

	w, _ := postStressTest(t, h, `{"includeCurrentUnemployment": true}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch unemployment data"}`, w.Body.String())

	h = newTestStressHandler(t, &stubRates{err: service.ErrUnemploymentSourceDisabled})
	w, _ = postStressTest(t, h, `{"includeCurrentUnemployment": true}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRunStressTestHandler_RatesNotFetchedByDefault(t *testing.T) {
	rates := &stubRates{rate: 4.5}
	h := newTestStressHandler(t, rates)

	w, _ := postStressTest(t, h, `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, rates.calls)
}

func TestRunStressTestHandler_MethodNotAllowed(t *testing.T) {
	h := newTestStressHandler(t, &stubRates{})

	req := httptest.NewRequest(http.MethodGet, "/api/stress-test", nil)
	w := httptest.NewRecorder()
	h.RunStressTest(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, http.MethodPost, w.Header().Get("Allow"))
}

func TestRunStressTestHandler_BadRequest(t *testing.T) {
	h := newTestStressHandler(t, &stubRates{})

	for name, body := range map[string]string{
		"invalid json":    `{invalid-json}`,
		"string shock":    `{"unemploymentShock": "three"}`,
		"overflow":        `{"gdpShock": 1e400}`,
		"array body":      `[1, 2]`,
		"truncated input": `{"gdpShock": -4`,
	} {
		t.Run(name, func(t *testing.T) {
			w, _ := postStressTest(t, h, body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRunStressTestHandler_OverflowingShocks(t *testing.T) {
	h := newTestStressHandler(t, &stubRates{})

	for _, body := range []string{
		`{"unemploymentShock": 1e308}`,
		`{"unemploymentShock": -1e308, "gdpShock": 1e308}`,
		`{"unemploymentShock": 1e12}`,
	} {
		var w *httptest.ResponseRecorder
		require.NotPanics(t, func() { w, _ = postStressTest(t, h, body) }, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), "overflow", body)
	}
}

func TestListRunsHandler(t *testing.T) {
	h := newTestStressHandler(t, &stubRates{})
	for _, body := range []string{`{"unemploymentShock": 0, "gdpShock": 0}`, `{}`} {
		w, _ := postStressTest(t, h, body)
		require.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stress-test/runs?limit=1", nil)
	w := httptest.NewRecorder()
	h.ListRuns(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Runs []stressResponse `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Runs, 1)
	assert.Equal(t, "FAIL", resp.Runs[0].Result, "newest run should come first")
}

func TestListRunsHandler_BadLimit(t *testing.T) {
	h := newTestStressHandler(t, &stubRates{})

	for _, q := range []string{"?limit=abc", "?limit=-1", "?limit=101"} {
		req := httptest.NewRequest(http.MethodGet, "/api/stress-test/runs"+q, nil)
		w := httptest.NewRecorder()
		h.ListRuns(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestRunStressTestHandler_Explain(t *testing.T) {
	h := newTestStressHandler(t, &stubRates{})

	w, resp := postStressTest(t, h, `{"explain": true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Demo Global Bank FAIL", resp.Explanation)

	w, _ = postStressTest(t, h, `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "explanation")
}

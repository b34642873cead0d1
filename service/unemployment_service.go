package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/AMeenalosini/StressTesting/metrics"
	"github.com/AMeenalosini/StressTesting/repository"
)

const defaultFREDURL = "https://api.stlouisfed.org/fred/series/observations"

// ErrUnemploymentSourceDisabled is returned when no FRED API key is configured.
var ErrUnemploymentSourceDisabled = errors.New("unemployment data source not configured")

type UnemploymentConfig struct {
	APIKey   string
	BaseURL  string
	SeriesID string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// UnemploymentService fetches the latest unemployment rate from FRED.
type UnemploymentService struct {
	apiKey     string
	apiURL     string
	seriesID   string
	ttl        time.Duration
	httpClient *http.Client
	cache      repository.CacheRepository
	logger     *zap.Logger
}

type fredObservations struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

func NewUnemploymentService(
	cfg UnemploymentConfig,
	cache repository.CacheRepository,
	logger *zap.Logger,
) *UnemploymentService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultFREDURL
	}
	if cfg.SeriesID == "" {
		cfg.SeriesID = "UNRATE"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &UnemploymentService{
		apiKey:   cfg.APIKey,
		apiURL:   cfg.BaseURL,
		seriesID: cfg.SeriesID,
		ttl:      cfg.CacheTTL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache:  cache,
		logger: logger,
	}
}

func (s *UnemploymentService) Enabled() bool {
	return s.apiKey != ""
}

func (s *UnemploymentService) cacheKey() string {
	return "unemployment:" + s.seriesID
}

// CurrentRate returns the cached rate, fetching it when the cache is cold.
func (s *UnemploymentService) CurrentRate(ctx context.Context) (float64, error) {
	if !s.Enabled() {
		return 0, ErrUnemploymentSourceDisabled
	}

	if cached, ok := s.cache.Get(ctx, s.cacheKey()); ok {
		if rate, err := strconv.ParseFloat(cached, 64); err == nil {
			return rate, nil
		}
		s.logger.Warn("discarding unparsable cached unemployment rate", zap.String("value", cached))
	}

	return s.Refresh(ctx)
}

// Refresh fetches the rate upstream regardless of the cache and stores it.
func (s *UnemploymentService) Refresh(ctx context.Context) (float64, error) {
	if !s.Enabled() {
		return 0, ErrUnemploymentSourceDisabled
	}

	start := time.Now()
	rate, err := s.fetch(ctx)
	metrics.UnemploymentFetchLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UnemploymentFetches.WithLabelValues("error").Inc()
		return 0, err
	}
	metrics.UnemploymentFetches.WithLabelValues("ok").Inc()

	if err := s.cache.Set(ctx, s.cacheKey(), strconv.FormatFloat(rate, 'f', -1, 64), s.ttl); err != nil {
		s.logger.Warn("failed to cache unemployment rate", zap.Error(err))
	}
	return rate, nil
}

func (s *UnemploymentService) fetch(ctx context.Context) (float64, error) {
	params := url.Values{}
	params.Set("series_id", s.seriesID)
	params.Set("api_key", s.apiKey)
	params.Set("file_type", "json")
	params.Set("sort_order", "desc")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("build FRED request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("FRED request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("FRED API error (status %d): %s", resp.StatusCode, string(body))
	}

	var payload fredObservations
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode FRED response: %w", err)
	}
	if len(payload.Observations) == 0 {
		return 0, fmt.Errorf("FRED returned no observations for %s", s.seriesID)
	}

	obs := payload.Observations[0]
	// FRED reports a missing value as ".".
	rate, err := strconv.ParseFloat(obs.Value, 64)
	if err != nil || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, fmt.Errorf("FRED observation %s for %s has no numeric value %q", obs.Date, s.seriesID, obs.Value)
	}
	return rate, nil
}

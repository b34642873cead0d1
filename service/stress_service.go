package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AMeenalosini/StressTesting/domain"
	"github.com/AMeenalosini/StressTesting/metrics"
	"github.com/AMeenalosini/StressTesting/repository"
)

type StressService struct {
	profile domain.BankProfile
	repo    repository.StressRunRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewStressService binds the evaluator to a validated bank profile.
func NewStressService(
	profile domain.BankProfile,
	repo repository.StressRunRepository,
	logger *zap.Logger,
) (*StressService, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &StressService{
		profile: profile,
		repo:    repo,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Profile returns a copy of the configured bank profile.
func (s *StressService) Profile() domain.BankProfile {
	return s.profile
}

// RunStressTest evaluates the scenario and records the run.
func (s *StressService) RunStressTest(
	scenario domain.ScenarioInput,
) (domain.StressRun, error) {

	result, err := Evaluate(s.profile, scenario)
	if err != nil {
		metrics.StressTestErrors.WithLabelValues(errorKind(err)).Inc()
		return domain.StressRun{}, err
	}

	run := domain.StressRun{
		ID:           uuid.NewString(),
		RequestedAt:  s.now().UTC(),
		StressResult: result,
	}

	metrics.StressTests.WithLabelValues(string(result.Result)).Inc()
	metrics.LastCapitalAdequacyRatio.Set(result.Figures.CapitalAdequacyRatio)

	// Not critical if saving fails.
	if err := s.repo.Save(run); err != nil {
		s.logger.Warn("failed to save stress run", zap.String("run_id", run.ID), zap.Error(err))
	}

	s.logger.Info("stress test evaluated",
		zap.String("run_id", run.ID),
		zap.Float64("unemployment_shock", scenario.UnemploymentShock),
		zap.Float64("gdp_shock", scenario.GDPShock),
		zap.String("car", result.CapitalAdequacyRatio),
		zap.String("result", string(result.Result)),
	)
	return run, nil
}

// RecentRuns lists stored runs, newest first. A non-positive limit means the
// default page size.
func (s *StressService) RecentRuns(limit int) ([]domain.StressRun, error) {
	if limit <= 0 {
		limit = DefaultRecentRuns
	}
	if limit > MaxRecentRuns {
		return nil, fmt.Errorf("%w: limit exceeds the maximum of %d", domain.ErrInvalidInput, MaxRecentRuns)
	}
	return s.repo.Recent(limit)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrInvalidProfile):
		return "invalid_profile"
	default:
		return "internal"
	}
}

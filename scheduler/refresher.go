package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RateSource is anything that can re-fetch the unemployment rate.
type RateSource interface {
	Refresh(ctx context.Context) (float64, error)
}

// Refresher keeps the cached unemployment rate warm on a cron schedule.
type Refresher struct {
	cron    *cron.Cron
	source  RateSource
	timeout time.Duration
	logger  *zap.Logger
	ctx     context.Context
}

// NewRefresher registers the refresh job. The spec uses the standard five
// field cron syntax or descriptors such as "@every 6h".
func NewRefresher(ctx context.Context, spec string, source RateSource, timeout time.Duration, logger *zap.Logger) (*Refresher, error) {
	r := &Refresher{
		cron:    cron.New(),
		source:  source,
		timeout: timeout,
		logger:  logger,
		ctx:     ctx,
	}
	if _, err := r.cron.AddFunc(spec, r.RunNow); err != nil {
		return nil, fmt.Errorf("register unemployment refresh %q: %w", spec, err)
	}
	return r, nil
}

func (r *Refresher) Start() {
	r.cron.Start()
	r.logger.Info("unemployment refresher started")
}

// Stop waits for a running refresh to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("unemployment refresher stopped")
}

// RunNow performs one refresh immediately.
func (r *Refresher) RunNow() {
	ctx := r.ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	rate, err := r.source.Refresh(ctx)
	if err != nil {
		r.logger.Warn("unemployment refresh failed", zap.Error(err))
		return
	}
	r.logger.Info("unemployment rate refreshed", zap.Float64("rate", rate))
}

package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/stockroomhq/stockroom-backend/internal/expiry"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

// ExpiryJobParams configure the daily expiry scan.
type ExpiryJobParams struct {
	Logger   *logger.Logger
	Engine   expiry.Engine
	Interval time.Duration
}

type expiryJob struct {
	logg     *logger.Logger
	engine   expiry.Engine
	interval time.Duration
}

// NewExpiryJob builds the cron job that flags stock approaching expiry.
func NewExpiryJob(params ExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("expiry engine required")
	}
	return &expiryJob{
		logg:     params.Logger,
		engine:   params.Engine,
		interval: params.Interval,
	}, nil
}

func (j *expiryJob) Name() string { return "expiry_scan" }

func (j *expiryJob) Interval() time.Duration { return j.interval }

func (j *expiryJob) Run(ctx context.Context) error {
	result, err := j.engine.Scan(ctx)
	ctx = j.logg.WithFields(ctx, map[string]any{
		"scanned": result.Scanned,
		"alerts":  len(result.Alerts),
	})
	if err != nil {
		j.logg.Warn(ctx, "expiry scan finished with failures")
		return err
	}
	j.logg.Info(ctx, "expiry scan finished")
	return nil
}

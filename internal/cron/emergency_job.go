package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/stockroomhq/stockroom-backend/internal/reorder"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

// EmergencyJobParams configure the hourly emergency re-scan.
type EmergencyJobParams struct {
	Logger   *logger.Logger
	Engine   reorder.Engine
	Interval time.Duration
}

type emergencyJob struct {
	logg     *logger.Logger
	engine   reorder.Engine
	interval time.Duration
}

// NewEmergencyJob builds the cron job that re-scans between daily passes,
// acting only on candidates already at or under the emergency ratio.
func NewEmergencyJob(params EmergencyJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("reorder engine required")
	}
	return &emergencyJob{
		logg:     params.Logger,
		engine:   params.Engine,
		interval: params.Interval,
	}, nil
}

func (j *emergencyJob) Name() string { return "emergency_scan" }

func (j *emergencyJob) Interval() time.Duration { return j.interval }

func (j *emergencyJob) Run(ctx context.Context) error {
	result, err := j.engine.Scan(ctx, reorder.ScanParams{EmergencyOnly: true})
	ctx = j.logg.WithFields(ctx, map[string]any{
		"scanned": result.Scanned,
		"skipped": result.Skipped,
		"created": len(result.Created),
	})
	if err != nil {
		j.logg.Warn(ctx, "emergency scan finished with failures")
		return err
	}
	j.logg.Info(ctx, "emergency scan finished")
	return nil
}

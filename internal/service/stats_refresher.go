package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/class-schedule-api/internal/dto"
)

type statisticsWarmer interface {
	Get(ctx context.Context, rawStart, rawEnd string) (*dto.StatisticsResponse, bool, error)
}

type statisticsExporter interface {
	Statistics(ctx context.Context, rawStart, rawEnd, format string) (*ExportFile, error)
}

type snapshotStore interface {
	Save(name string, data []byte) (string, error)
	Prune(cutoff time.Time) ([]string, error)
}

// StatsRefresher drops cached statistics on a cron schedule so "today" rolls
// over, then recomputes the current semester's numbers.
type StatsRefresher struct {
	cron   *cron.Cron
	cache  *CacheService
	stats  statisticsWarmer
	logger *zap.Logger

	exporter  statisticsExporter
	snapshots snapshotStore
	retention time.Duration
	now       func() time.Time
}

// NewStatsRefresher parses schedule in loc. An empty schedule disables the job.
func NewStatsRefresher(schedule string, loc *time.Location, cache *CacheService, stats statisticsWarmer, logger *zap.Logger) (*StatsRefresher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	r := &StatsRefresher{cron: cron.New(cron.WithLocation(loc)), cache: cache, stats: stats, logger: logger, now: time.Now}
	if schedule == "" {
		return r, nil
	}
	if _, err := r.cron.AddFunc(schedule, func() { r.Refresh(context.Background()) }); err != nil {
		return nil, fmt.Errorf("parse STATS_REFRESH_CRON %q: %w", schedule, err)
	}
	return r, nil
}

// WithSnapshots makes every refresh also archive the current semester's
// statistics CSV, keeping files for retention (zero keeps them forever).
func (r *StatsRefresher) WithSnapshots(exporter statisticsExporter, store snapshotStore, retention time.Duration) *StatsRefresher {
	r.exporter = exporter
	r.snapshots = store
	r.retention = retention
	return r
}

// Refresh invalidates cached statistics and warms the current range.
func (r *StatsRefresher) Refresh(ctx context.Context) {
	if err := r.cache.InvalidateStatistics(ctx); err != nil {
		r.logger.Warn("statistics refresh: invalidate failed", zap.Error(err))
	}
	if r.stats == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, _, err := r.stats.Get(ctx, "", ""); err != nil {
		r.logger.Info("statistics refresh: current range not warmed", zap.Error(err))
		return
	}
	r.logger.Info("statistics refreshed")
	r.snapshot(ctx)
}

func (r *StatsRefresher) snapshot(ctx context.Context) {
	if r.exporter == nil || r.snapshots == nil {
		return
	}
	file, err := r.exporter.Statistics(ctx, "", "", ExportFormatCSV)
	if err != nil {
		r.logger.Warn("statistics snapshot: render failed", zap.Error(err))
		return
	}
	name := fmt.Sprintf("%s_%s", r.now().Format("20060102"), file.Filename)
	path, err := r.snapshots.Save(name, file.Data)
	if err != nil {
		r.logger.Warn("statistics snapshot: save failed", zap.Error(err))
		return
	}
	r.logger.Info("statistics snapshot saved", zap.String("path", path))

	if r.retention <= 0 {
		return
	}
	removed, err := r.snapshots.Prune(r.now().Add(-r.retention))
	if err != nil {
		r.logger.Warn("statistics snapshot: prune failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		r.logger.Info("statistics snapshots pruned", zap.Int("removed", len(removed)))
	}
}

// Start runs the schedule in the background.
func (r *StatsRefresher) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *StatsRefresher) Stop() {
	<-r.cron.Stop().Done()
}

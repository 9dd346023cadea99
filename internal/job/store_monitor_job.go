package job

import (
	"context"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/keenlabs/docvec/internal/service"
)

// StoreMonitorJob logs a periodic snapshot of the store and the ingest rate
// since the previous tick, so a long upload run can be watched from the
// monitor command.
type StoreMonitorJob struct {
	stats *service.StatsService

	mu         sync.Mutex
	lastChunks int64
	lastAt     time.Time
	baseline   int64
	started    bool
}

func NewStoreMonitorJob(stats *service.StatsService) *StoreMonitorJob {
	return &StoreMonitorJob{stats: stats}
}

func (j *StoreMonitorJob) Name() string {
	return "store_monitor"
}

func (j *StoreMonitorJob) Run(ctx context.Context) error {
	if j.stats == nil {
		return nil
	}
	snapshot, err := j.stats.Snapshot(ctx)
	if err != nil {
		return err
	}
	now := time.Now()

	j.mu.Lock()
	defer j.mu.Unlock()
	logger := logutil.GetLogger(ctx).With(
		zap.Int64("total_chunks", snapshot.TotalChunks),
		zap.Int64("total_files", snapshot.TotalFiles),
	)
	if !j.started {
		j.started = true
		j.baseline = snapshot.TotalChunks
		j.lastChunks = snapshot.TotalChunks
		j.lastAt = now
		logger.Info("store monitor started")
		return nil
	}

	delta := snapshot.TotalChunks - j.lastChunks
	elapsed := now.Sub(j.lastAt)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(delta) / elapsed.Minutes()
	}
	j.lastChunks = snapshot.TotalChunks
	j.lastAt = now

	logger.Info("store snapshot",
		zap.Int64("session_delta", snapshot.TotalChunks-j.baseline),
		zap.Int64("tick_delta", delta),
		zap.Float64("chunks_per_min", rate),
	)
	return nil
}

package base

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultReportInterval is how often a running sync logs its progress.
const DefaultReportInterval = 30 * time.Second

// ProgressReporter periodically logs how much a sync has emitted
type ProgressReporter struct {
	logger *zap.Logger

	// Progress tracking
	records   atomic.Int64
	pages     atomic.Int64
	dropped   atomic.Int64
	stream    atomic.Value // string
	startTime time.Time
	now       func() time.Time

	reportInterval time.Duration

	// Reporting control
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(logger *zap.Logger, interval time.Duration) *ProgressReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultReportInterval
	}
	pr := &ProgressReporter{
		logger:         logger,
		startTime:      time.Now(),
		now:            time.Now,
		reportInterval: interval,
		stopCh:         make(chan struct{}),
	}
	pr.stream.Store("")
	return pr
}

// Start begins periodic progress reporting
func (pr *ProgressReporter) Start() {
	pr.startTime = pr.now()
	pr.wg.Add(1)
	go func() {
		defer pr.wg.Done()
		ticker := time.NewTicker(pr.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-pr.stopCh:
				return
			case <-ticker.C:
				pr.reportCurrentProgress()
			}
		}
	}()
}

// Stop stops progress reporting. It is safe to call more than once.
func (pr *ProgressReporter) Stop() {
	pr.stopOnce.Do(func() {
		close(pr.stopCh)
		pr.wg.Wait()
	})
}

// SetStream records which stream is currently syncing
func (pr *ProgressReporter) SetStream(stream string) {
	pr.stream.Store(stream)
}

// Add counts pages and records just emitted
func (pr *ProgressReporter) Add(pages, records, dropped int) {
	pr.pages.Add(int64(pages))
	pr.records.Add(int64(records))
	pr.dropped.Add(int64(dropped))
}

// ProgressSnapshot represents a point-in-time progress snapshot
type ProgressSnapshot struct {
	Stream      string
	Pages       int64
	Records     int64
	Dropped     int64
	ElapsedTime time.Duration
	Throughput  float64
}

// GetSnapshot returns a progress snapshot
func (pr *ProgressReporter) GetSnapshot() ProgressSnapshot {
	elapsed := pr.now().Sub(pr.startTime)
	snap := ProgressSnapshot{
		Stream:      pr.stream.Load().(string),
		Pages:       pr.pages.Load(),
		Records:     pr.records.Load(),
		Dropped:     pr.dropped.Load(),
		ElapsedTime: elapsed,
	}
	if elapsed > 0 {
		snap.Throughput = float64(snap.Records) / elapsed.Seconds()
	}
	return snap
}

// reportCurrentProgress logs current progress
func (pr *ProgressReporter) reportCurrentProgress() {
	snap := pr.GetSnapshot()
	pr.logger.Info("progress update",
		zap.String("stream", snap.Stream),
		zap.Int64("pages", snap.Pages),
		zap.Int64("records", snap.Records),
		zap.Int64("dropped", snap.Dropped),
		zap.Float64("records_per_second", snap.Throughput),
		zap.Duration("elapsed", snap.ElapsedTime))
}

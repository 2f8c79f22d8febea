// Package purecloud syncs a Genesys Cloud organization as a Singer stream.
//
// A Runner walks the streams of Catalog in order, emitting SCHEMA and
// RECORD messages for each, then writes a STATE message carrying the next
// start date. Directory and routing streams are full syncs; analytics and
// workforce streams are fetched in daily windows from the start date.
package purecloud

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-purecloud/internal/pipeline"
	"github.com/ajitpratap0/tap-purecloud/pkg/config"
	"github.com/ajitpratap0/tap-purecloud/pkg/connector/base"
	"github.com/ajitpratap0/tap-purecloud/pkg/connector/core"
	"github.com/ajitpratap0/tap-purecloud/pkg/errors"
	"github.com/ajitpratap0/tap-purecloud/pkg/genesys"
	"github.com/ajitpratap0/tap-purecloud/pkg/metrics"
	"github.com/ajitpratap0/tap-purecloud/pkg/state"
)

const tracerName = "github.com/ajitpratap0/tap-purecloud/pkg/connector/sources/purecloud"

// API issues page requests against the platform API.
type API interface {
	Get(path string) pipeline.PageFunc
	Post(path string) pipeline.PageFunc
}

// AdherenceSource runs notification-backed historical adherence queries.
type AdherenceSource interface {
	HistoricalAdherence(ctx context.Context, q genesys.AdherenceQuery) ([]genesys.AdherenceRecord, error)
}

// Options carries the runner's collaborators.
type Options struct {
	Config    *config.Config
	API       API
	Adherence AdherenceSource
	Sink      core.Sink
	// Store persists the next start date; nil keeps state in the sink only
	Store  state.Store
	Logger *zap.Logger
	// Now defaults to time.Now
	Now func() time.Time
	// ProgressInterval is how often progress is logged (default 30s)
	ProgressInterval time.Duration
}

// Runner performs one sync.
type Runner struct {
	cfg       *config.Config
	api       API
	adherence AdherenceSource
	sink      core.Sink
	store     state.Store
	emitter   *pipeline.Emitter
	retry     *base.RetryPolicy
	logger    *zap.Logger
	now       func() time.Time
	runID     string
	pageOpts  pipeline.Options
	declared  map[string]bool
	progress  *base.ProgressReporter
}

// Summary reports what a sync emitted.
type Summary struct {
	RunID     string
	Start     time.Time
	NextStart time.Time
	Streams   map[string]pipeline.Stats
}

// New validates opts and creates a runner.
func New(opts Options) (*Runner, error) {
	if opts.Config == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "config is required")
	}
	if opts.API == nil || opts.Sink == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "api and sink are required")
	}
	if opts.Adherence == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "adherence source is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	store := opts.Store
	if store == nil {
		store = state.NopStore{}
	}

	rel := opts.Config.Reliability
	retry := base.NewRetryPolicy(rel.RetryAttempts, rel.RetryInterval, rel.RetryJitter)
	runID := uuid.NewString()
	logger = logger.With(zap.String("component", "purecloud"), zap.String("run_id", runID))

	return &Runner{
		cfg:       opts.Config,
		api:       opts.API,
		adherence: opts.Adherence,
		sink:      opts.Sink,
		store:     store,
		emitter:   pipeline.NewEmitter(opts.Sink, logger),
		retry:     retry,
		logger:    logger,
		now:       now,
		runID:     runID,
		pageOpts:  pipeline.Options{PageSize: opts.Config.PageSize},
		declared:  make(map[string]bool),
		progress:  base.NewProgressReporter(logger, opts.ProgressInterval),
	}, nil
}

// RunID identifies this sync in logs and traces.
func (r *Runner) RunID() string { return r.runID }

// Sync emits every stream and, when all succeed, the next state.
func (r *Runner) Sync(ctx context.Context) (*Summary, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "purecloud.sync",
		trace.WithAttributes(attribute.String("run_id", r.runID)))
	defer span.End()

	start, err := r.startTime(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	r.progress.Start()
	defer r.progress.Stop()

	today := pipeline.StartOfDay(r.now())
	next := today
	if start.After(today) {
		// never move the cursor backwards
		next = start
		r.logger.Warn("start date is in the future",
			zap.String("start_date", start.Format(config.DateLayout)))
	}
	summary := &Summary{
		RunID:     r.runID,
		Start:     start,
		NextStart: next,
		Streams:   make(map[string]pipeline.Stats),
	}
	r.logger.Info("starting sync",
		zap.String("start_date", start.Format(config.DateLayout)),
		zap.String("today", today.Format(config.DateLayout)))

	steps := []struct {
		name string
		fn   func(ctx context.Context, start, today time.Time, sum *Summary) error
	}{
		{StreamUsers, r.syncUsers},
		{StreamGroups, r.syncGroups},
		{StreamLocation, r.syncLocations},
		{StreamPresence, r.syncPresence},
		{StreamQueues, r.syncQueues},
		{StreamManagementUnit, r.syncManagementUnits},
		{StreamConversation, r.syncConversations},
		{StreamUserState, r.syncUserState},
	}
	for _, step := range steps {
		if err := r.track(ctx, step.name, func(ctx context.Context) error {
			return step.fn(ctx, start, today, summary)
		}); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return summary, err
		}
	}

	if err := r.commit(ctx, state.ForDay(next)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return summary, err
	}

	total := pipeline.Stats{}
	for _, st := range summary.Streams {
		total.Add(st)
	}
	r.logger.Info("sync complete",
		zap.Int("pages", total.Pages),
		zap.Int("records", total.Records),
		zap.Int("dropped", total.Dropped),
		zap.String("next_start_date", next.Format(config.DateLayout)))
	return summary, nil
}

// startTime prefers the stored cursor over the configured start date.
func (r *Runner) startTime(ctx context.Context) (time.Time, error) {
	st, err := r.store.Load(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if !st.Empty() {
		t, err := st.Time()
		if err != nil {
			return time.Time{}, err
		}
		r.logger.Info("resuming from state", zap.String("start_date", st.StartDate))
		return t, nil
	}
	t, err := r.cfg.StartTime()
	if err != nil {
		return time.Time{}, errors.Wrap(err, errors.ErrorTypeConfig, "invalid start_date")
	}
	return pipeline.StartOfDay(t), nil
}

// commit writes the STATE message and closes the sink. The cursor is saved
// only once the output is durable.
func (r *Runner) commit(ctx context.Context, next state.State) error {
	if err := r.sink.WriteState(ctx, next.Value()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write state")
	}
	if err := r.sink.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to finish output")
	}
	if err := r.store.Save(ctx, next); err != nil {
		return err
	}
	return nil
}

// track runs one top-level stream inside a span and records its duration.
func (r *Runner) track(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "purecloud.stream",
		trace.WithAttributes(attribute.String("stream", name)),
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	timer := metrics.NewTimer(name)
	r.logger.Info("syncing stream", zap.String("stream", name))
	err := fn(ctx)
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusFailure
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("stream failed", zap.String("stream", name), zap.Error(err))
	}
	metrics.StreamDuration.WithLabelValues(name, status).Observe(timer.Stop().Seconds())
	return err
}

// declare reports whether stream still needs its schema written. Child
// streams run once per parent but are declared only once per sync.
func (r *Runner) declare(stream string) bool {
	if r.declared[stream] {
		return false
	}
	r.declared[stream] = true
	return true
}

// declareIdle writes the schema of a declared windowed stream whose window
// range turned out empty.
func (r *Runner) declareIdle(ctx context.Context, stream string, declare, ran bool) error {
	if !declare || ran {
		return nil
	}
	return r.emitter.Declare(ctx, mustStream(stream))
}

func (r *Runner) record(sum *Summary, stream string, stats pipeline.Stats) {
	r.progress.SetStream(stream)
	r.progress.Add(stats.Pages, stats.Records, stats.Dropped)
	cur := sum.Streams[stream]
	cur.Add(stats)
	sum.Streams[stream] = cur
}

func newFetcher[T any](r *Runner, stream string, call pipeline.PageFunc, entity string) *pipeline.Fetcher[T] {
	return &pipeline.Fetcher[T]{
		Stream: stream,
		Call:   call,
		Entity: entity,
		Retry:  r.retry,
		Logger: r.logger,
	}
}

package pipeline

import (
	"context"
	"iter"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-purecloud/pkg/connector/core"
	"github.com/ajitpratap0/tap-purecloud/pkg/errors"
	"github.com/ajitpratap0/tap-purecloud/pkg/metrics"
)

// Stats summarizes one Emit or Collect call.
type Stats struct {
	Pages   int
	Records int
	Dropped int
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Pages += other.Pages
	s.Records += other.Records
	s.Dropped += other.Dropped
}

// Emitter writes transformed pages to a sink.
type Emitter struct {
	Sink   core.Sink
	Logger *zap.Logger
}

// NewEmitter creates an emitter writing to sink.
func NewEmitter(sink core.Sink, logger *zap.Logger) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{Sink: sink, Logger: logger.With(zap.String("component", "emitter"))}
}

// Emit streams pages into the sink without retaining records. When declare
// is set the schema is written first, even if no page follows.
func Emit[T any](ctx context.Context, e *Emitter, stream core.Stream, pages iter.Seq2[[]T, error], tr Transformer[T], anc Ancestor, declare bool) (Stats, error) {
	return run(ctx, e, stream, pages, tr, anc, declare, nil)
}

// Collect is Emit that also returns every record written, for callers that
// drive child streams from the parent's records.
func Collect[T any](ctx context.Context, e *Emitter, stream core.Stream, pages iter.Seq2[[]T, error], tr Transformer[T], anc Ancestor, declare bool) ([]core.Record, Stats, error) {
	var out []core.Record
	stats, err := run(ctx, e, stream, pages, tr, anc, declare, func(batch []core.Record) {
		out = append(out, batch...)
	})
	return out, stats, err
}

// Declare writes the schema of stream on its own, for streams with nothing
// to fetch in this sync.
func (e *Emitter) Declare(ctx context.Context, stream core.Stream) error {
	if err := e.Sink.WriteSchema(ctx, stream); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write schema").
			WithDetail("stream", stream.Name)
	}
	return nil
}

func run[T any](ctx context.Context, e *Emitter, stream core.Stream, pages iter.Seq2[[]T, error], tr Transformer[T], anc Ancestor, declare bool, keep func([]core.Record)) (Stats, error) {
	var stats Stats
	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if declare {
		if err := e.Declare(ctx, stream); err != nil {
			return stats, err
		}
	}

	for items, err := range pages {
		if err != nil {
			return stats, err
		}
		stats.Pages++

		batch := make([]core.Record, 0, len(items))
		for i, item := range items {
			records, terr := tr.Transform(anc, item)
			if terr != nil {
				stats.Dropped++
				metrics.RecordsDropped.WithLabelValues(stream.Name).Inc()
				logger.Warn("dropping record that failed to transform",
					zap.String("stream", stream.Name),
					zap.Int("page", stats.Pages),
					zap.Int("index", i),
					zap.Error(terr))
				continue
			}
			for _, rec := range records {
				if rec != nil {
					batch = append(batch, rec)
				}
			}
		}

		if len(batch) == 0 {
			continue
		}
		if err := e.Sink.WriteRecords(ctx, stream.Name, batch); err != nil {
			return stats, errors.Wrap(err, errors.ErrorTypeFile, "failed to write records").
				WithDetail("stream", stream.Name)
		}
		stats.Records += len(batch)
		metrics.RecordsEmitted.WithLabelValues(stream.Name).Add(float64(len(batch)))
		if keep != nil {
			keep(batch)
		}
	}

	return stats, nil
}

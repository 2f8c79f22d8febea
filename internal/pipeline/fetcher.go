package pipeline

import (
	"bytes"
	"context"
	"net/url"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-purecloud/pkg/connector/base"
	"github.com/ajitpratap0/tap-purecloud/pkg/errors"
	"github.com/ajitpratap0/tap-purecloud/pkg/metrics"
)

// PageFunc performs one API call and returns the raw JSON response body.
type PageFunc func(ctx context.Context, req Request) ([]byte, error)

// Keyed is implemented by entities delivered as a JSON object keyed by id.
// The fetcher passes each entry's key before the entity is used.
type Keyed interface {
	SetCollectionKey(key string)
}

// Page is one decoded response.
type Page[T any] struct {
	Items      []T
	PageNumber int
	PageCount  int
}

// Fetcher issues single page requests for one endpoint and extracts the
// named collection from the response.
type Fetcher[T any] struct {
	// Stream labels logs, spans and metrics
	Stream string
	// Call performs the request
	Call PageFunc
	// Entity is the response field holding the items
	Entity string
	// Params are merged into every request's query
	Params url.Values
	// Retry wraps Call; nil means a single attempt
	Retry  *base.RetryPolicy
	Logger *zap.Logger
}

// Fetch requests the page described by body. A missing or null collection
// yields an empty page.
func (f *Fetcher[T]) Fetch(ctx context.Context, body QueryBody) (*Page[T], error) {
	req, err := BuildRequest(body, f.Params)
	if err != nil {
		return nil, err
	}
	size, number := body.page()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "fetch_page")
	defer span.End()
	span.SetAttributes(
		attribute.String("stream", f.Stream),
		attribute.String("entity", f.Entity),
		attribute.Int("page_number", number),
		attribute.Int("page_size", size),
	)

	logger := f.logger()
	logger.Info("fetching page",
		zap.String("stream", f.Stream),
		zap.Int("page_size", size),
		zap.Int("page_number", number))

	policy := f.Retry
	if policy == nil {
		policy = base.NoRetryPolicy()
	}
	policy = policy.WithOnRetry(func(attempt int, delay time.Duration, err error) {
		metrics.FetchRetries.WithLabelValues(f.Stream).Inc()
		logger.Warn("rate limited, retrying page",
			zap.String("stream", f.Stream),
			zap.Int("page_number", number),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
	})

	timer := metrics.NewTimer(f.Stream)
	var raw []byte
	err = policy.Execute(ctx, func() error {
		var callErr error
		raw, callErr = f.Call(ctx, req)
		return callErr
	})
	metrics.FetchLatency.WithLabelValues(f.Stream).Observe(timer.Stop().Seconds())
	if err != nil {
		metrics.PagesFetched.WithLabelValues(f.Stream, metrics.StatusFailure).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}

	page, err := decodePage[T](raw, f.Entity)
	if err != nil {
		metrics.PagesFetched.WithLabelValues(f.Stream, metrics.StatusFailure).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return nil, err
	}
	page.PageNumber = number

	status := metrics.StatusSuccess
	if len(page.Items) == 0 {
		status = metrics.StatusEmpty
	}
	metrics.PagesFetched.WithLabelValues(f.Stream, status).Inc()
	span.SetAttributes(attribute.Int("items", len(page.Items)), attribute.Int("page_count", page.PageCount))

	return page, nil
}

func (f *Fetcher[T]) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

var nullJSON = []byte("null")

// decodePage extracts entity from a response envelope. Arrays decode in
// order; objects decode by ascending key.
func decodePage[T any](raw []byte, entity string) (*Page[T], error) {
	page := &Page[T]{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return page, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeAPI, "failed to decode response").
			WithDetail("entity", entity)
	}

	if pc, ok := envelope["pageCount"]; ok && !bytes.Equal(bytes.TrimSpace(pc), nullJSON) {
		if err := json.Unmarshal(pc, &page.PageCount); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeAPI, "failed to decode pageCount")
		}
	}

	items, err := decodeCollection[T](envelope[entity])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeAPI, "failed to decode collection").
			WithDetail("entity", entity)
	}
	page.Items = items
	return page, nil
}

func decodeCollection[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, nullJSON) {
		return nil, nil
	}

	if raw[0] != '{' {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var byKey map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byKey); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]T, 0, len(keys))
	for _, k := range keys {
		var item T
		if err := json.Unmarshal(byKey[k], &item); err != nil {
			return nil, err
		}
		if keyed, ok := any(&item).(Keyed); ok {
			keyed.SetCollectionKey(k)
		}
		items = append(items, item)
	}
	return items, nil
}

package pipeline

import (
	"context"
	stderrors "errors"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tap-purecloud/pkg/connector/core"
	"github.com/ajitpratap0/tap-purecloud/pkg/testutil"
)

func staticPages(batches ...[]testItem) iter.Seq2[[]testItem, error] {
	return func(yield func([]testItem, error) bool) {
		for _, b := range batches {
			if !yield(b, nil) {
				return
			}
		}
	}
}

var testStream = core.Stream{
	Name:          "things",
	Schema:        core.Object(map[string]*core.Schema{"id": core.String()}),
	KeyProperties: []string{"id"},
}

func idRecord(_ Ancestor, item testItem) (core.Record, error) {
	return core.Record{"id": item.ID}, nil
}

func TestEmitFanOutDropsNil(t *testing.T) {
	sink := testutil.NewMemorySink()
	e := NewEmitter(sink, testutil.TestLogger(t))

	fanOut := OneToMany[testItem](func(_ Ancestor, item testItem) ([]core.Record, error) {
		switch item.ID {
		case "a":
			return []core.Record{{"id": "a1"}, nil, {"id": "a2"}}, nil
		case "b":
			return nil, nil
		default:
			return []core.Record{{"id": item.ID}}, nil
		}
	})

	stats, err := Emit(context.Background(), e, testStream,
		staticPages([]testItem{{ID: "a"}, {ID: "b"}, {ID: "c"}}), fanOut, Ancestor{}, true)
	require.NoError(t, err)

	assert.Equal(t, Stats{Pages: 1, Records: 3}, stats)
	var ids []interface{}
	for _, r := range sink.Records("things") {
		ids = append(ids, r["id"])
	}
	assert.Equal(t, []interface{}{"a1", "a2", "c"}, ids)
}

func TestEmitOneToOneSkipsNil(t *testing.T) {
	sink := testutil.NewMemorySink()
	e := NewEmitter(sink, nil)

	tr := OneToOne[testItem](func(_ Ancestor, item testItem) (core.Record, error) {
		if item.ID == "skip" {
			return nil, nil
		}
		return core.Record{"id": item.ID}, nil
	})

	stats, err := Emit(context.Background(), e, testStream,
		staticPages([]testItem{{ID: "skip"}, {ID: "keep"}}), tr, Ancestor{}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Records)
	assert.Equal(t, []string{testutil.KindRecord}, sink.Kinds("things"))
}

func TestEmitDropsFailedTransform(t *testing.T) {
	sink := testutil.NewMemorySink()
	e := NewEmitter(sink, testutil.TestLogger(t))

	tr := OneToOne[testItem](func(_ Ancestor, item testItem) (core.Record, error) {
		if item.ID == "bad" {
			return nil, stderrors.New("missing start time")
		}
		return core.Record{"id": item.ID}, nil
	})

	stats, err := Emit(context.Background(), e, testStream,
		staticPages([]testItem{{ID: "1"}, {ID: "bad"}, {ID: "2"}}, []testItem{{ID: "bad"}}), tr, Ancestor{}, true)
	require.NoError(t, err)
	assert.Equal(t, Stats{Pages: 2, Records: 2, Dropped: 2}, stats)
	assert.Len(t, sink.Records("things"), 2)
}

func TestEmitSchemaOnceAcrossWindows(t *testing.T) {
	sink := testutil.NewMemorySink()
	e := NewEmitter(sink, nil)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for w := range Days(start, start.AddDate(0, 0, 3)) {
		_, err := Emit(context.Background(), e, testStream,
			staticPages([]testItem{{ID: w.Date()}}), OneToOne[testItem](idRecord), Ancestor{WindowStart: w.Start}, w.First)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, sink.SchemaCount("things"))
	assert.Equal(t, []string{testutil.KindSchema, testutil.KindRecord, testutil.KindRecord, testutil.KindRecord}, sink.Kinds("things"))
}

func TestEmitDeclaresEmptyStream(t *testing.T) {
	sink := testutil.NewMemorySink()
	e := NewEmitter(sink, nil)

	stats, err := Emit(context.Background(), e, testStream, staticPages(), OneToOne[testItem](idRecord), Ancestor{}, true)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.Equal(t, []string{testutil.KindSchema}, sink.Kinds("things"))
}

func TestEmitPassesAncestor(t *testing.T) {
	sink := testutil.NewMemorySink()
	e := NewEmitter(sink, nil)
	windowStart := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)

	tr := OneToOne[testItem](func(anc Ancestor, item testItem) (core.Record, error) {
		return core.Record{"id": item.ID, "parent": anc.ParentID, "day": anc.WindowStart}, nil
	})

	_, err := Emit(context.Background(), e, testStream, staticPages([]testItem{{ID: "x"}}), tr,
		Ancestor{ParentID: "mu-1", WindowStart: windowStart}, false)
	require.NoError(t, err)

	recs := sink.Records("things")
	require.Len(t, recs, 1)
	assert.Equal(t, "mu-1", recs[0]["parent"])
	assert.Equal(t, windowStart, recs[0]["day"])
}

func TestEmitStopsOnPageError(t *testing.T) {
	sink := testutil.NewMemorySink()
	e := NewEmitter(sink, nil)
	boom := stderrors.New("boom")

	var pages iter.Seq2[[]testItem, error] = func(yield func([]testItem, error) bool) {
		if !yield([]testItem{{ID: "1"}}, nil) {
			return
		}
		yield(nil, boom)
	}

	stats, err := Emit(context.Background(), e, testStream, pages, OneToOne[testItem](idRecord), Ancestor{}, true)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, stats.Records)
	assert.Len(t, sink.Records("things"), 1)
}

func TestEmitSinkFailure(t *testing.T) {
	sink := testutil.NewMemorySink()
	sink.FailOn = testutil.KindSchema
	sink.FailErr = stderrors.New("disk full")
	e := NewEmitter(sink, nil)

	_, err := Emit(context.Background(), e, testStream, staticPages([]testItem{{ID: "1"}}), OneToOne[testItem](idRecord), Ancestor{}, true)
	assert.ErrorIs(t, err, sink.FailErr)
}

func TestCollect(t *testing.T) {
	sink := testutil.NewMemorySink()
	e := NewEmitter(sink, nil)

	records, stats, err := Collect(context.Background(), e, testStream,
		staticPages([]testItem{{ID: "q1"}, {ID: "q2"}}, []testItem{{ID: "q3"}}), OneToOne[testItem](idRecord), Ancestor{}, true)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Records)
	require.Len(t, records, 3)
	assert.Equal(t, "q3", records[2]["id"])
	assert.Equal(t, records, sink.Records("things"))
}

func TestStatsAdd(t *testing.T) {
	s := Stats{Pages: 1, Records: 2}
	s.Add(Stats{Pages: 3, Records: 4, Dropped: 1})
	assert.Equal(t, Stats{Pages: 4, Records: 6, Dropped: 1}, s)
}

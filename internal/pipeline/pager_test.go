package pipeline

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/tap-purecloud/pkg/connector/base"
	"github.com/ajitpratap0/tap-purecloud/pkg/errors"
)

type testItem struct {
	ID  string `json:"id"`
	Key string `json:"-"`
}

func (i *testItem) SetCollectionKey(key string) { i.Key = key }

// pageServer answers requests with pages[n-1] for page number n and records
// every request it saw.
type pageServer struct {
	pageCount int
	pages     [][]testItem
	requests  []Request
	errs      map[int]error
}

func (s *pageServer) call(_ context.Context, req Request) ([]byte, error) {
	s.requests = append(s.requests, req)
	n := len(s.requests)
	if err, ok := s.errs[n]; ok {
		return nil, err
	}

	number := 0
	if v := req.Query.Get("pageNumber"); v != "" {
		number, _ = strconv.Atoi(v)
	} else {
		var body struct {
			PageNumber int    `json:"pageNumber"`
			Paging     Paging `json:"paging"`
		}
		if err := json.Unmarshal(req.Body, &body); err != nil {
			return nil, err
		}
		number = body.PageNumber
		if body.Paging.PageNumber > 0 {
			number = body.Paging.PageNumber
		}
	}

	var items []testItem
	if number >= 1 && number <= len(s.pages) {
		items = s.pages[number-1]
	}
	resp := map[string]interface{}{"entities": items}
	if s.pageCount > 0 {
		resp["pageCount"] = s.pageCount
	}
	return json.Marshal(resp)
}

func makeItems(n int, prefix string) []testItem {
	items := make([]testItem, n)
	for i := range items {
		items[i] = testItem{ID: fmt.Sprintf("%s-%d", prefix, i)}
	}
	return items
}

func drain[T any](t *testing.T, seq iter.Seq2[[]T, error]) ([][]T, error) {
	t.Helper()
	var batches [][]T
	for batch, err := range seq {
		if err != nil {
			return batches, err
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

func TestCountedTermination(t *testing.T) {
	tests := []struct {
		name        string
		pageCount   int
		pages       [][]testItem
		maxPages    int
		wantFetches int
		wantBatches int
	}{
		{
			name:        "stops at reported page count",
			pageCount:   3,
			pages:       [][]testItem{makeItems(100, "a"), makeItems(100, "b"), makeItems(20, "c"), makeItems(5, "d")},
			wantFetches: 3,
			wantBatches: 3,
		},
		{
			name:        "stops at cap before page count",
			pageCount:   5,
			pages:       [][]testItem{makeItems(100, "a"), makeItems(100, "b"), makeItems(100, "c")},
			maxPages:    1,
			wantFetches: 1,
			wantBatches: 1,
		},
		{
			name:        "single page when count is one",
			pageCount:   1,
			pages:       [][]testItem{makeItems(7, "a")},
			wantFetches: 1,
			wantBatches: 1,
		},
		{
			name:        "empty first page",
			pageCount:   0,
			pages:       nil,
			wantFetches: 1,
			wantBatches: 0,
		},
		{
			name:        "unreported count runs until empty",
			pages:       [][]testItem{makeItems(100, "a"), makeItems(3, "b")},
			wantFetches: 3,
			wantBatches: 2,
		},
		{
			name:        "empty page before count ends",
			pageCount:   4,
			pages:       [][]testItem{makeItems(100, "a"), {}},
			wantFetches: 2,
			wantBatches: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := &pageServer{pageCount: tt.pageCount, pages: tt.pages}
			f := &Fetcher[testItem]{Stream: "test", Call: srv.call, Entity: "entities", Logger: zaptest.NewLogger(t)}

			batches, err := drain(t, Counted(context.Background(), f, CountedPage{}, Options{MaxPages: tt.maxPages}))
			require.NoError(t, err)
			assert.Len(t, srv.requests, tt.wantFetches)
			assert.Len(t, batches, tt.wantBatches)
			for i, req := range srv.requests {
				assert.Equal(t, "100", req.Query.Get("pageSize"))
				assert.Equal(t, strconv.Itoa(i+1), req.Query.Get("pageNumber"))
			}
		})
	}
}

func TestOpenTermination(t *testing.T) {
	srv := &pageServer{pages: [][]testItem{makeItems(100, "a"), makeItems(100, "b"), makeItems(50, "c")}}
	f := &Fetcher[testItem]{Stream: "test", Call: srv.call, Entity: "entities"}

	body := CursorPaging{Filter: map[string]interface{}{"order": "asc"}}
	batches, err := drain(t, Open(context.Background(), f, body, Options{}))
	require.NoError(t, err)

	require.Len(t, srv.requests, 4)
	require.Len(t, batches, 3)
	assert.Len(t, batches[2], 50)
	for i, req := range srv.requests {
		assert.JSONEq(t, fmt.Sprintf(`{"order": "asc", "paging": {"pageSize": 100, "pageNumber": %d}}`, i+1), string(req.Body))
	}
}

func TestOpenIgnoresPageCount(t *testing.T) {
	srv := &pageServer{pageCount: 1, pages: [][]testItem{makeItems(2, "a"), makeItems(2, "b")}}
	f := &Fetcher[testItem]{Stream: "test", Call: srv.call, Entity: "entities"}

	batches, err := drain(t, Open(context.Background(), f, CursorPaging{}, Options{}))
	require.NoError(t, err)
	assert.Len(t, batches, 2)
	assert.Len(t, srv.requests, 3)
}

func TestCountedFilteredBody(t *testing.T) {
	srv := &pageServer{pageCount: 2, pages: [][]testItem{makeItems(2, "a"), makeItems(1, "b")}}
	f := &Fetcher[testItem]{Stream: "test", Call: srv.call, Entity: "entities"}

	body := FilteredCountedPage{Filter: map[string]interface{}{"query": []interface{}{}}}
	batches, err := drain(t, Counted(context.Background(), f, body, Options{PageSize: 2}))
	require.NoError(t, err)
	assert.Len(t, batches, 2)
	require.Len(t, srv.requests, 2)
	assert.JSONEq(t, `{"query": [], "pageSize": 2, "pageNumber": 2}`, string(srv.requests[1].Body))
}

func TestPagerRejectsMismatchedBody(t *testing.T) {
	tests := []struct {
		name  string
		pages func(f *Fetcher[testItem]) iter.Seq2[[]testItem, error]
	}{
		{"counted with cursor paging", func(f *Fetcher[testItem]) iter.Seq2[[]testItem, error] {
			return Counted(context.Background(), f, CursorPaging{}, Options{})
		}},
		{"open with counted page", func(f *Fetcher[testItem]) iter.Seq2[[]testItem, error] {
			return Open(context.Background(), f, CountedPage{}, Options{})
		}},
		{"open with filtered counted page", func(f *Fetcher[testItem]) iter.Seq2[[]testItem, error] {
			return Open(context.Background(), f, FilteredCountedPage{}, Options{})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := &pageServer{pages: [][]testItem{makeItems(1, "a")}}
			f := &Fetcher[testItem]{Stream: "test", Call: srv.call, Entity: "entities"}

			batches, err := drain(t, tt.pages(f))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
			assert.Empty(t, batches)
			assert.Empty(t, srv.requests)
		})
	}
}

func TestPagerIsLazy(t *testing.T) {
	srv := &pageServer{pageCount: 10, pages: [][]testItem{makeItems(1, "a"), makeItems(1, "b"), makeItems(1, "c")}}
	f := &Fetcher[testItem]{Stream: "test", Call: srv.call, Entity: "entities"}

	seq := Counted(context.Background(), f, CountedPage{}, Options{})
	assert.Empty(t, srv.requests)

	for range seq {
		assert.Len(t, srv.requests, 1)
		break
	}
	assert.Len(t, srv.requests, 1)
}

func TestPagerConsumedTwice(t *testing.T) {
	srv := &pageServer{pageCount: 1, pages: [][]testItem{makeItems(1, "a")}}
	f := &Fetcher[testItem]{Stream: "test", Call: srv.call, Entity: "entities"}

	seq := Counted(context.Background(), f, CountedPage{}, Options{})
	_, err := drain(t, seq)
	require.NoError(t, err)

	_, err = drain(t, seq)
	assert.ErrorIs(t, err, ErrSequenceConsumed)
	assert.Len(t, srv.requests, 1)
}

func TestPagerRetriesRateLimit(t *testing.T) {
	limited := errors.New(errors.ErrorTypeRateLimit, "too many requests").WithDetail(errors.DetailStatusCode, 429)
	srv := &pageServer{
		pageCount: 1,
		pages:     [][]testItem{makeItems(3, "a")},
		errs:      map[int]error{1: limited, 2: limited, 3: limited, 4: limited},
	}
	f := &Fetcher[testItem]{
		Stream: "test",
		Call:   srv.call,
		Entity: "entities",
		Retry:  base.NewRetryPolicy(5, 0, 0),
		Logger: zaptest.NewLogger(t),
	}

	batches, err := drain(t, Counted(context.Background(), f, CountedPage{}, Options{}))
	require.NoError(t, err)
	assert.Len(t, srv.requests, 5)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 3)
}

func TestPagerFatalError(t *testing.T) {
	serverErr := errors.New(errors.ErrorTypeAPI, "internal").WithDetail(errors.DetailStatusCode, 500)
	srv := &pageServer{
		pageCount: 3,
		pages:     [][]testItem{makeItems(1, "a"), makeItems(1, "b"), makeItems(1, "c")},
		errs:      map[int]error{2: serverErr},
	}
	f := &Fetcher[testItem]{Stream: "test", Call: srv.call, Entity: "entities", Retry: base.NewRetryPolicy(5, 0, 0)}

	batches, err := drain(t, Counted(context.Background(), f, CountedPage{}, Options{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, serverErr)
	assert.Len(t, batches, 1)
	assert.Len(t, srv.requests, 2)
}

func TestPagerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	srv := &pageServer{pageCount: 1, pages: [][]testItem{makeItems(1, "a")}}
	f := &Fetcher[testItem]{Stream: "test", Call: srv.call, Entity: "entities"}

	_, err := drain(t, Counted(ctx, f, CountedPage{}, Options{}))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, srv.requests)
}

func TestOneShot(t *testing.T) {
	calls := 0
	seq := OneShot(context.Background(), func(context.Context) ([]testItem, error) {
		calls++
		return makeItems(4, "x"), nil
	})

	batches, err := drain(t, seq)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 4)

	_, err = drain(t, seq)
	assert.ErrorIs(t, err, ErrSequenceConsumed)
	assert.Equal(t, 1, calls)

	empty := OneShot(context.Background(), func(context.Context) ([]testItem, error) { return nil, nil })
	batches, err = drain(t, empty)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestDecodeCollection(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantIDs   []string
		wantKeys  []string
		wantCount int
		wantError bool
	}{
		{name: "array", raw: `{"entities": [{"id": "1"}, {"id": "2"}], "pageCount": 4}`, wantIDs: []string{"1", "2"}, wantKeys: []string{"", ""}, wantCount: 4},
		{name: "missing collection", raw: `{"pageCount": 0}`},
		{name: "null collection", raw: `{"entities": null, "pageCount": null}`},
		{name: "empty body", raw: ``},
		{name: "keyed object in key order", raw: `{"entities": {"u2": {"id": "b"}, "u1": {"id": "a"}}}`, wantIDs: []string{"a", "b"}, wantKeys: []string{"u1", "u2"}},
		{name: "malformed", raw: `{"entities": "nope"}`, wantError: true},
		{name: "not json", raw: `<html>`, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := decodePage[testItem]([]byte(tt.raw), "entities")
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, page.PageCount)
			var ids, keys []string
			for _, item := range page.Items {
				ids = append(ids, item.ID)
				keys = append(keys, item.Key)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantKeys, keys)
		})
	}
}

func TestFetchMergesParams(t *testing.T) {
	var seen Request
	f := &Fetcher[testItem]{
		Stream: "users",
		Entity: "entities",
		Params: map[string][]string{"expand": {"locations"}},
		Call: func(_ context.Context, req Request) ([]byte, error) {
			seen = req
			return []byte(`{"entities": [{"id": "u"}], "pageCount": 1}`), nil
		},
	}

	page, err := f.Fetch(context.Background(), CountedPage{PageSize: 100, PageNumber: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, page.PageNumber)
	assert.Equal(t, "locations", seen.Query.Get("expand"))
	assert.True(t, strings.Contains(seen.Query.Encode(), "pageNumber=1"))
}

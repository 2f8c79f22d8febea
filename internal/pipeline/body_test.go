package pipeline

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tap-purecloud/pkg/errors"
)

func TestBuildRequest(t *testing.T) {
	filter := map[string]interface{}{"interval": "2024-01-01T00:00:00.000Z/2024-01-02T00:00:00.000Z", "order": "asc"}

	tests := []struct {
		name      string
		body      QueryBody
		params    url.Values
		wantQuery url.Values
		wantBody  string
		wantError bool
	}{
		{
			name:      "counted page as query parameters",
			body:      CountedPage{PageSize: 100, PageNumber: 2},
			params:    url.Values{"expand": {"locations"}},
			wantQuery: url.Values{"pageSize": {"100"}, "pageNumber": {"2"}, "expand": {"locations"}},
		},
		{
			name:      "filtered counted page as flat body",
			body:      FilteredCountedPage{PageSize: 25, PageNumber: 1, Filter: map[string]interface{}{"query": []string{}}},
			wantQuery: url.Values{},
			wantBody:  `{"query": [], "pageSize": 25, "pageNumber": 1}`,
		},
		{
			name:      "cursor paging as sub-object",
			body:      CursorPaging{Paging: Paging{PageSize: 100, PageNumber: 3}, Filter: filter},
			wantQuery: url.Values{},
			wantBody: `{
				"interval": "2024-01-01T00:00:00.000Z/2024-01-02T00:00:00.000Z",
				"order": "asc",
				"paging": {"pageSize": 100, "pageNumber": 3}
			}`,
		},
		{
			name:      "nil body",
			body:      nil,
			wantError: true,
		},
		{
			name:      "pointer variant is not a known shape",
			body:      &CountedPage{PageSize: 1, PageNumber: 1},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := BuildRequest(tt.body, tt.params)
			if tt.wantError {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantQuery, req.Query)
			if tt.wantBody == "" {
				assert.Nil(t, req.Body)
			} else {
				assert.JSONEq(t, tt.wantBody, string(req.Body))
			}
		})
	}

	// the filter passed in is not modified
	assert.Len(t, filter, 2)
}

func TestFetchRejectsUnknownBodyWithoutCalling(t *testing.T) {
	calls := 0
	f := &Fetcher[testItem]{
		Stream: "test",
		Entity: "entities",
		Call: func(context.Context, Request) ([]byte, error) {
			calls++
			return []byte(`{"entities": []}`), nil
		},
	}

	_, err := f.Fetch(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Equal(t, 0, calls)
}

package singer

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tap-purecloud/pkg/compression"
	"github.com/ajitpratap0/tap-purecloud/pkg/connector/core"
)

var extractedAt = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func usersStream() core.Stream {
	return core.Stream{
		Name:          "users",
		Schema:        core.Object(map[string]*core.Schema{"id": core.String(), "name": core.String()}),
		KeyProperties: []string{"id"},
	}
}

func TestDestinationMessages(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf, Options{Now: func() time.Time { return extractedAt }})
	ctx := context.Background()

	require.NoError(t, d.WriteSchema(ctx, usersStream()))
	require.NoError(t, d.WriteRecords(ctx, "users", []core.Record{
		{"id": "u1", "name": "Ada <admin>"},
		{"id": "u2", "name": nil},
	}))
	require.NoError(t, d.WriteState(ctx, core.State{"start_date": "2024-06-01"}))
	require.NoError(t, d.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)

	assert.JSONEq(t, `{
		"type": "SCHEMA",
		"stream": "users",
		"schema": {"type": ["null", "object"], "properties": {"id": {"type": ["null", "string"]}, "name": {"type": ["null", "string"]}}},
		"key_properties": ["id"]
	}`, lines[0])
	assert.JSONEq(t, `{"type": "RECORD", "stream": "users", "record": {"id": "u1", "name": "Ada <admin>"}, "time_extracted": "2024-06-01T12:00:00.000Z"}`, lines[1])
	assert.JSONEq(t, `{"type": "RECORD", "stream": "users", "record": {"id": "u2", "name": null}, "time_extracted": "2024-06-01T12:00:00.000Z"}`, lines[2])
	assert.JSONEq(t, `{"type": "STATE", "value": {"start_date": "2024-06-01"}}`, lines[3])
	assert.Contains(t, lines[1], "<admin>")

	assert.Equal(t, int64(2), d.RecordsWritten())
	assert.Equal(t, int64(1), d.SchemasWritten())
}

func TestDestinationEmptyKeyProperties(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf, Options{})
	require.NoError(t, d.WriteSchema(context.Background(), core.Stream{Name: "x", Schema: core.Object(nil)}))

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &msg))
	assert.Equal(t, []interface{}{}, msg["key_properties"])
}

func TestDestinationWriteAfterClose(t *testing.T) {
	d := New(&bytes.Buffer{}, Options{})
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	assert.Error(t, d.WriteState(context.Background(), core.State{}))
}

func TestOpenFile(t *testing.T) {
	tests := []struct {
		name      string
		algorithm compression.Algorithm
		wantExt   string
	}{
		{name: "plain", algorithm: compression.None, wantExt: ".jsonl"},
		{name: "gzip", algorithm: compression.Gzip, wantExt: ".jsonl.gz"},
		{name: "zstd", algorithm: compression.Zstd, wantExt: ".jsonl.zst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "out.jsonl")
			d, err := Open(Options{Path: path, Compression: tt.algorithm, Now: func() time.Time { return extractedAt }})
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(d.Path(), tt.wantExt))

			ctx := context.Background()
			require.NoError(t, d.WriteSchema(ctx, usersStream()))
			require.NoError(t, d.WriteRecords(ctx, "users", []core.Record{{"id": "u1"}}))
			require.NoError(t, d.Close())

			f, err := os.Open(d.Path())
			require.NoError(t, err)
			defer f.Close()

			r, err := compression.NewReader(f, tt.algorithm)
			require.NoError(t, err)
			defer r.Close()

			var types []string
			scanner := bufio.NewScanner(r)
			for scanner.Scan() {
				var msg struct {
					Type string `json:"type"`
				}
				require.NoError(t, json.Unmarshal(scanner.Bytes(), &msg))
				types = append(types, msg.Type)
			}
			require.NoError(t, scanner.Err())
			assert.Equal(t, []string{TypeSchema, TypeRecord}, types)
		})
	}
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Options{})
	assert.Error(t, err)
}

func TestWriteRecordsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := New(&bytes.Buffer{}, Options{})
	err := d.WriteRecords(ctx, "users", []core.Record{{"id": "u1"}})
	assert.ErrorIs(t, err, context.Canceled)
}

// shortWriter accepts limit bytes and then fails like a full disk.
type shortWriter struct {
	limit   int
	written int
}

func (w *shortWriter) Write(p []byte) (int, error) {
	if w.written+len(p) > w.limit {
		n := w.limit - w.written
		w.written = w.limit
		return n, syscall.ENOSPC
	}
	w.written += len(p)
	return len(p), nil
}

func TestCompressedCloseReportsWriteFailure(t *testing.T) {
	for _, algo := range []compression.Algorithm{compression.Gzip, compression.Zstd} {
		t.Run(string(algo), func(t *testing.T) {
			w := &shortWriter{limit: 10}
			d, err := NewCompressed(w, Options{Compression: algo})
			require.NoError(t, err)

			ctx := context.Background()
			require.NoError(t, d.WriteSchema(ctx, usersStream()))
			records := make([]core.Record, 200)
			for i := range records {
				records[i] = core.Record{"id": strings.Repeat("u", 64), "name": i}
			}
			require.NoError(t, d.WriteRecords(ctx, "users", records))
			require.NoError(t, d.WriteState(ctx, core.State{"start_date": "2024-06-01"}))

			require.Error(t, d.Close())
			assert.NoError(t, d.Close())
		})
	}
}

func TestCompressedRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	d, err := NewCompressed(&buf, Options{Compression: compression.Gzip})
	require.NoError(t, err)
	require.NoError(t, d.WriteState(context.Background(), core.State{"start_date": "2024-06-01"}))
	require.NoError(t, d.Close())

	r, err := compression.NewReader(&buf, compression.Gzip)
	require.NoError(t, err)
	defer r.Close()
	var msg StateMessage
	require.NoError(t, json.NewDecoder(r).Decode(&msg))
	assert.Equal(t, TypeState, msg.Type)
	assert.Equal(t, "2024-06-01", msg.Value["start_date"])
}

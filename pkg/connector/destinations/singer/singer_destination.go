// Package singer writes the tap's output as Singer protocol messages, one
// JSON object per line.
package singer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/ajitpratap0/tap-purecloud/pkg/compression"
	"github.com/ajitpratap0/tap-purecloud/pkg/connector/core"
)

// Message types
const (
	TypeSchema = "SCHEMA"
	TypeRecord = "RECORD"
	TypeState  = "STATE"
)

// SchemaMessage declares a stream.
type SchemaMessage struct {
	Type          string       `json:"type"`
	Stream        string       `json:"stream"`
	Schema        *core.Schema `json:"schema"`
	KeyProperties []string     `json:"key_properties"`
}

// RecordMessage carries one record.
type RecordMessage struct {
	Type          string      `json:"type"`
	Stream        string      `json:"stream"`
	Record        core.Record `json:"record"`
	TimeExtracted string      `json:"time_extracted,omitempty"`
}

// StateMessage carries the bookmark.
type StateMessage struct {
	Type  string     `json:"type"`
	Value core.State `json:"value"`
}

// Options configure a Destination.
type Options struct {
	// Path of the output file; empty writes to the supplied writer
	Path string
	// Compression applies to file output
	Compression compression.Algorithm
	Level       compression.Level
	// BufferSize of the line buffer (default 64KB)
	BufferSize int
	// Now stamps time_extracted; nil uses time.Now
	Now func() time.Time
}

// Destination is a core.Sink producing Singer messages. Output is flushed
// after every call so downstream targets see records as they are fetched.
type Destination struct {
	writer  *bufio.Writer
	encoder *json.Encoder
	closers []io.Closer
	now     func() time.Time
	path    string
	mu      sync.Mutex

	recordsWritten int64
	schemasWritten int64
	closed         bool
}

// New writes messages to w.
func New(w io.Writer, opts Options) *Destination {
	bufferSize := opts.BufferSize
	if bufferSize <= 0 {
		bufferSize = 64 * 1024 // default 64KB
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	writer := bufio.NewWriterSize(w, bufferSize)
	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)

	return &Destination{
		writer:  writer,
		encoder: encoder,
		now:     now,
	}
}

// Open writes messages to opts.Path, creating parent directories and adding
// the compression extension when it is missing.
func Open(opts Options) (*Destination, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("missing output path")
	}

	path := opts.Path
	if ext := opts.Compression.Extension(); ext != "" && !strings.HasSuffix(path, ext) {
		path += ext
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.Create(path) //nolint:gosec // G304: path comes from config
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", path, err)
	}

	d, err := NewCompressed(file, opts)
	if err != nil {
		file.Close()
		return nil, err
	}
	d.path = path
	// the compressor trailer must land before the file is synced and closed
	d.closers = append(d.closers, syncCloser{file})
	return d, nil
}

// NewCompressed writes messages to w through opts.Compression. The
// compressed stream is only complete once Close returns nil.
func NewCompressed(w io.Writer, opts Options) (*Destination, error) {
	cw, err := compression.NewWriter(w, &compression.Config{Algorithm: opts.Compression, Level: opts.Level})
	if err != nil {
		return nil, err
	}
	d := New(cw, opts)
	d.closers = []io.Closer{cw}
	return d, nil
}

type syncCloser struct {
	file *os.File
}

func (s syncCloser) Close() error {
	if err := s.file.Sync(); err != nil {
		s.file.Close()
		return fmt.Errorf("failed to sync %s: %w", s.file.Name(), err)
	}
	return s.file.Close()
}

// Path returns the output file path, or "" for writer output.
func (d *Destination) Path() string {
	return d.path
}

// WriteSchema implements core.Sink.
func (d *Destination) WriteSchema(_ context.Context, stream core.Stream) error {
	keys := stream.KeyProperties
	if keys == nil {
		keys = []string{}
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.write(SchemaMessage{Type: TypeSchema, Stream: stream.Name, Schema: stream.Schema, KeyProperties: keys}); err != nil {
		return err
	}
	atomic.AddInt64(&d.schemasWritten, 1)
	return d.writer.Flush()
}

// WriteRecords implements core.Sink.
func (d *Destination) WriteRecords(ctx context.Context, stream string, records []core.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	extracted := core.FormatTime(d.now())
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.write(RecordMessage{Type: TypeRecord, Stream: stream, Record: r, TimeExtracted: extracted}); err != nil {
			return err
		}
		atomic.AddInt64(&d.recordsWritten, 1)
	}
	return d.writer.Flush()
}

// WriteState implements core.Sink.
func (d *Destination) WriteState(_ context.Context, state core.State) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.write(StateMessage{Type: TypeState, Value: state}); err != nil {
		return err
	}
	return d.writer.Flush()
}

func (d *Destination) write(msg interface{}) error {
	if d.closed {
		return fmt.Errorf("destination is closed")
	}
	if err := d.encoder.Encode(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// RecordsWritten returns the number of RECORD messages written.
func (d *Destination) RecordsWritten() int64 {
	return atomic.LoadInt64(&d.recordsWritten)
}

// SchemasWritten returns the number of SCHEMA messages written.
func (d *Destination) SchemasWritten() int64 {
	return atomic.LoadInt64(&d.schemasWritten)
}

// Close flushes buffered output, ends the compressed stream and closes any
// file this destination opened. Output is durable only when it returns nil.
func (d *Destination) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	err := d.writer.Flush()
	for _, c := range d.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

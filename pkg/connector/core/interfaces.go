package core

import (
	"context"
)

// Record is one emitted row, keyed by output property name.
type Record map[string]interface{}

// State is the bookmark value written after a successful sync.
type State map[string]interface{}

// Stream describes one named output stream.
type Stream struct {
	Name          string
	Schema        *Schema
	KeyProperties []string
}

// Sink receives the tap's output. Writes happen in call order from a single
// goroutine, and a record is never written before its stream's schema.
type Sink interface {
	// WriteSchema declares a stream.
	WriteSchema(ctx context.Context, stream Stream) error
	// WriteRecords appends records to a declared stream.
	WriteRecords(ctx context.Context, stream string, records []Record) error
	// WriteState records the bookmark.
	WriteState(ctx context.Context, state State) error
	// Close flushes buffered output and makes it durable. A sync closes
	// the sink after the final STATE and before the cursor is saved, so
	// Close must be safe to call again.
	Close() error
}

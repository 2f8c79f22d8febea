package testutil

import (
	"context"
	"sync"

	"github.com/ajitpratap0/tap-purecloud/pkg/connector/core"
)

// Message kinds recorded by MemorySink
const (
	KindSchema = "SCHEMA"
	KindRecord = "RECORD"
	KindState  = "STATE"
)

// Message is one write observed by MemorySink. Records are expanded one per message.
type Message struct {
	Kind   string
	Stream string
	Schema core.Stream
	Record core.Record
	State  core.State
}

// MemorySink is a core.Sink that keeps every write in order.
type MemorySink struct {
	mu       sync.Mutex
	Messages []Message
	// FailOn makes the matching write kind return the error
	FailOn  string
	FailErr error
	// CloseErr is returned by the first Close
	CloseErr error
	closed   bool
}

// NewMemorySink creates an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// WriteSchema implements core.Sink.
func (s *MemorySink) WriteSchema(_ context.Context, stream core.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailOn == KindSchema {
		return s.FailErr
	}
	s.Messages = append(s.Messages, Message{Kind: KindSchema, Stream: stream.Name, Schema: stream})
	return nil
}

// WriteRecords implements core.Sink.
func (s *MemorySink) WriteRecords(_ context.Context, stream string, records []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailOn == KindRecord {
		return s.FailErr
	}
	for _, r := range records {
		s.Messages = append(s.Messages, Message{Kind: KindRecord, Stream: stream, Record: r})
	}
	return nil
}

// WriteState implements core.Sink.
func (s *MemorySink) WriteState(_ context.Context, state core.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailOn == KindState {
		return s.FailErr
	}
	s.Messages = append(s.Messages, Message{Kind: KindState, State: state})
	return nil
}

// Close implements core.Sink.
func (s *MemorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.CloseErr
}

// Closed reports whether Close was called.
func (s *MemorySink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Records returns the records written to stream, in order.
func (s *MemorySink) Records(stream string) []core.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Record
	for _, m := range s.Messages {
		if m.Kind == KindRecord && m.Stream == stream {
			out = append(out, m.Record)
		}
	}
	return out
}

// SchemaCount returns how many times stream's schema was written.
func (s *MemorySink) SchemaCount(stream string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.Messages {
		if m.Kind == KindSchema && m.Stream == stream {
			n++
		}
	}
	return n
}

// Kinds returns the kind of every message, in order, for stream ("" matches state).
func (s *MemorySink) Kinds(stream string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, m := range s.Messages {
		if m.Stream == stream {
			out = append(out, m.Kind)
		}
	}
	return out
}

// States returns every state written.
func (s *MemorySink) States() []core.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.State
	for _, m := range s.Messages {
		if m.Kind == KindState {
			out = append(out, m.State)
		}
	}
	return out
}

// Streams returns stream names in the order their first message appeared.
func (s *MemorySink) Streams() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, m := range s.Messages {
		if m.Stream == "" || seen[m.Stream] {
			continue
		}
		seen[m.Stream] = true
		out = append(out, m.Stream)
	}
	return out
}

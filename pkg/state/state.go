// Package state persists the tap's sync cursor between runs.
//
// The cursor is a single start_date. A file store reads and writes the
// Singer state file passed with --state; a postgres store keeps one row per
// tap key so scheduled runs can resume without a local file.
package state

import (
	"context"
	"fmt"
	"time"

	"github.com/ajitpratap0/tap-purecloud/pkg/config"
	"github.com/ajitpratap0/tap-purecloud/pkg/connector/core"
	"github.com/ajitpratap0/tap-purecloud/pkg/errors"
)

// KeyStartDate is the only state key the tap reads or writes.
const KeyStartDate = "start_date"

// State is the persisted cursor.
type State struct {
	StartDate string `json:"start_date,omitempty"`
}

// Empty reports whether no cursor has been recorded.
func (s State) Empty() bool {
	return s.StartDate == ""
}

// Time parses the cursor date.
func (s State) Time() (time.Time, error) {
	t, err := config.ParseDate(s.StartDate)
	if err != nil {
		return time.Time{}, errors.Wrap(err, errors.ErrorTypeState, "invalid start_date in state").
			WithDetail(KeyStartDate, s.StartDate)
	}
	return t, nil
}

// Value returns the state as a Singer STATE payload.
func (s State) Value() core.State {
	if s.Empty() {
		return core.State{}
	}
	return core.State{KeyStartDate: s.StartDate}
}

// ForDay returns the cursor for the UTC day containing t.
func ForDay(t time.Time) State {
	return State{StartDate: t.UTC().Format(config.DateLayout)}
}

// Store loads and saves the cursor.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, s State) error
	Close() error
}

// Backend names
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)

// New opens the store selected by cfg. A file backend without a path reads
// nothing and saves nothing.
func New(ctx context.Context, cfg config.StateConfig) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		if cfg.Path == "" {
			return NopStore{}, nil
		}
		return NewFileStore(cfg.Path), nil
	case BackendPostgres:
		return OpenPostgres(ctx, cfg.DSN, cfg.Key)
	case BackendNone:
		return NopStore{}, nil
	default:
		return nil, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("unknown state backend %q", cfg.Backend))
	}
}

// NopStore has no cursor and discards saves.
type NopStore struct{}

// Load implements Store.
func (NopStore) Load(context.Context) (State, error) { return State{}, nil }

// Save implements Store.
func (NopStore) Save(context.Context, State) error { return nil }

// Close implements Store.
func (NopStore) Close() error { return nil }

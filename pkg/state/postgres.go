package state

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ajitpratap0/tap-purecloud/pkg/errors"
)

const defaultQueryTimeout = 10 * time.Second

const createTable = `
CREATE TABLE IF NOT EXISTS tap_state (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps the cursor as a JSONB row keyed by tap name.
type PostgresStore struct {
	db      *pgxpool.Pool
	key     string
	timeout time.Duration
}

// OpenPostgres connects to dsn and ensures the state table exists.
func OpenPostgres(ctx context.Context, dsn, key string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "state.dsn is required for the postgres backend")
	}
	if key == "" {
		key = "tap-purecloud"
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create state pool")
	}

	s := NewPostgresStore(pool, key)
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(db *pgxpool.Pool, key string) *PostgresStore {
	return &PostgresStore{db: db, key: key, timeout: defaultQueryTimeout}
}

func (p *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.timeout)
}

func (p *PostgresStore) migrate(ctx context.Context) error {
	timeoutCtx, cancel := p.withTimeout(ctx)
	defer cancel()
	if _, err := p.db.Exec(timeoutCtx, createTable); err != nil {
		return errors.Wrap(err, errors.ErrorTypeState, "failed to create state table")
	}
	return nil
}

// Load reads the cursor row. No row is an empty state.
func (p *PostgresStore) Load(ctx context.Context) (State, error) {
	const query = `SELECT value FROM tap_state WHERE key = $1`

	timeoutCtx, cancel := p.withTimeout(ctx)
	defer cancel()

	var raw []byte
	err := p.db.QueryRow(timeoutCtx, query, p.key).Scan(&raw)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return State{}, nil
		}
		return State{}, errors.Wrap(err, errors.ErrorTypeState, "failed to load state").
			WithDetail("key", p.key)
	}

	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, errors.Wrap(err, errors.ErrorTypeState, "failed to parse stored state").
			WithDetail("key", p.key)
	}
	return s, nil
}

// Save upserts the cursor row.
func (p *PostgresStore) Save(ctx context.Context, s State) error {
	const query = `
	INSERT INTO tap_state (key, value, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	raw, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeState, "failed to encode state")
	}

	timeoutCtx, cancel := p.withTimeout(ctx)
	defer cancel()
	if _, err := p.db.Exec(timeoutCtx, query, p.key, raw); err != nil {
		return errors.Wrap(err, errors.ErrorTypeState, "failed to save state").
			WithDetail("key", p.key)
	}
	return nil
}

// Close releases the pool.
func (p *PostgresStore) Close() error {
	p.db.Close()
	return nil
}

package pipeline

import (
	"time"

	"github.com/ajitpratap0/tap-purecloud/pkg/connector/core"
)

// Ancestor carries what a transform may need from the enclosing sync: the
// parent entity's id for child streams and the current window start.
type Ancestor struct {
	ParentID    string
	WindowStart time.Time
}

// Transformer turns one API entity into zero or more records.
type Transformer[T any] interface {
	Transform(anc Ancestor, item T) ([]core.Record, error)
}

// OneToOne adapts a function producing at most one record. A nil record is skipped.
type OneToOne[T any] func(anc Ancestor, item T) (core.Record, error)

// Transform implements Transformer.
func (f OneToOne[T]) Transform(anc Ancestor, item T) ([]core.Record, error) {
	rec, err := f(anc, item)
	if err != nil || rec == nil {
		return nil, err
	}
	return []core.Record{rec}, nil
}

// OneToMany adapts a fan-out function. Nil records in the result are skipped.
type OneToMany[T any] func(anc Ancestor, item T) ([]core.Record, error)

// Transform implements Transformer.
func (f OneToMany[T]) Transform(anc Ancestor, item T) ([]core.Record, error) {
	return f(anc, item)
}

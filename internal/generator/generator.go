// Package generator supplies pluggable value sources. Code that mints
// identifiers takes a Generator so tests can substitute deterministic ones.
package generator

import "github.com/google/uuid"

// Generator produces successive values of type T.
type Generator[T any] interface {
	Next() (T, error)
}

// UUIDV4Generator yields random UUIDv4 strings.
type UUIDV4Generator struct{}

var _ Generator[string] = (*UUIDV4Generator)(nil)

func (*UUIDV4Generator) Next() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Static yields the same value on every call.
type Static[T any] struct {
	Value T
}

func (s Static[T]) Next() (T, error) { return s.Value, nil }

// Package records is the document persistence capability the domain
// packages build on: opaque string ids, JSON documents grouped into named
// collections, lookup by id or by a simple field predicate.
//
// Three backends are provided. MemoryStore keeps documents in process,
// PostgresStore keeps them in a jsonb column and SQLiteStore in a TEXT
// column queried with the json1 functions.
package records

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
)

var (
	// ErrNotFound is returned by FindByID when no document has the id.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned by Save when the document collides with
	// another one on a unique field (users' email or username).
	ErrDuplicate = errors.New("duplicate record")

	// ErrInvalidPredicate is returned for unknown operators or field names
	// that are not plain identifiers.
	ErrInvalidPredicate = errors.New("invalid predicate")
)

// Store is implemented by every backend. Save is an upsert of the whole
// document; there is no partial update and no version check, so the last
// writer wins.
type Store interface {
	Save(ctx context.Context, collection, id string, doc []byte) error
	FindByID(ctx context.Context, collection, id string) ([]byte, error)
	Find(ctx context.Context, collection string, p Predicate) ([][]byte, error)
	DeleteByID(ctx context.Context, collection, id string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

type Op int

const (
	// OpEquals matches a top-level string field equal to Value.
	OpEquals Op = iota + 1
	// OpContains matches a top-level array of strings containing Value.
	OpContains
)

type Condition struct {
	Field string
	Op    Op
	Value string
}

// Predicate is a disjunction: a document matches when any condition does.
// An empty predicate matches every document of the collection.
type Predicate struct {
	Any []Condition
}

func Eq(field, value string) Condition {
	return Condition{Field: field, Op: OpEquals, Value: value}
}

func Contains(field, value string) Condition {
	return Condition{Field: field, Op: OpContains, Value: value}
}

func Where(c Condition) Predicate {
	return Predicate{Any: []Condition{c}}
}

func AnyOf(cs ...Condition) Predicate {
	return Predicate{Any: cs}
}

var fieldName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Validate checks operators and field names. Backends that splice field
// names into SQL rely on it.
func (p Predicate) Validate() error {
	for _, c := range p.Any {
		if !fieldName.MatchString(c.Field) {
			return fmt.Errorf("%w: field %q", ErrInvalidPredicate, c.Field)
		}
		if c.Op != OpEquals && c.Op != OpContains {
			return fmt.Errorf("%w: operator %d", ErrInvalidPredicate, c.Op)
		}
	}
	return nil
}

// Match evaluates the predicate against a decoded document.
func (p Predicate) Match(doc map[string]any) bool {
	if len(p.Any) == 0 {
		return true
	}
	return slices.ContainsFunc(p.Any, func(c Condition) bool { return c.match(doc) })
}

func (c Condition) match(doc map[string]any) bool {
	v, ok := doc[c.Field]
	if !ok {
		return false
	}
	switch c.Op {
	case OpEquals:
		s, ok := v.(string)
		return ok && s == c.Value
	case OpContains:
		arr, ok := v.([]any)
		if !ok {
			return false
		}
		return slices.ContainsFunc(arr, func(e any) bool {
			s, ok := e.(string)
			return ok && s == c.Value
		})
	}
	return false
}

package records

import (
	"context"
	"encoding/json"
	"fmt"
)

// Collection is a typed JSON view over one named collection of a Store.
type Collection[T any] struct {
	store Store
	name  string
}

func NewCollection[T any](store Store, name string) Collection[T] {
	return Collection[T]{store: store, name: name}
}

func (c Collection[T]) Name() string { return c.name }

func (c Collection[T]) Put(ctx context.Context, id string, v *T) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.name, id, err)
	}
	return c.store.Save(ctx, c.name, id, doc)
}

func (c Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	doc, err := c.store.FindByID(ctx, c.name, id)
	if err != nil {
		return nil, err
	}
	return c.decode(doc)
}

func (c Collection[T]) Find(ctx context.Context, p Predicate) ([]*T, error) {
	docs, err := c.store.Find(ctx, c.name, p)
	if err != nil {
		return nil, err
	}

	out := make([]*T, 0, len(docs))
	for _, doc := range docs {
		v, err := c.decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// FindOne returns the first match or ErrNotFound.
func (c Collection[T]) FindOne(ctx context.Context, p Predicate) (*T, error) {
	found, err := c.Find(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return found[0], nil
}

func (c Collection[T]) Delete(ctx context.Context, id string) (bool, error) {
	return c.store.DeleteByID(ctx, c.name, id)
}

func (c Collection[T]) decode(doc []byte) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(doc, v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.name, err)
	}
	return v, nil
}

package records

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
)

// UniqueField declares that Field must hold distinct string values across
// the documents of Collection.
type UniqueField struct {
	Collection string
	Field      string
}

type memCollection struct {
	docs  map[string][]byte
	order []string
}

// MemoryStore keeps encoded documents in process. Stored bytes are copied
// in and out, so callers never share a document with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
	unique      []UniqueField
}

func NewMemoryStore(unique ...UniqueField) *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*memCollection),
		unique:      unique,
	}
}

func (s *MemoryStore) Save(ctx context.Context, collection, id string, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var decoded map[string]any
	if err := json.Unmarshal(doc, &decoded); err != nil {
		return fmt.Errorf("memory store: document is not a JSON object: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	if err := s.checkUnique(collection, id, decoded, c); err != nil {
		return err
	}

	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = slices.Clone(doc)
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, collection, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collection]
	if !ok {
		return nil, ErrNotFound
	}
	doc, ok := c.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(doc), nil
}

func (s *MemoryStore) Find(ctx context.Context, collection string, p Predicate) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collection]
	if !ok {
		return [][]byte{}, nil
	}

	out := make([][]byte, 0)
	for _, id := range c.order {
		doc := c.docs[id]
		var decoded map[string]any
		if err := json.Unmarshal(doc, &decoded); err != nil {
			return nil, fmt.Errorf("memory store: corrupt document %s/%s: %w", collection, id, err)
		}
		if p.Match(decoded) {
			out = append(out, slices.Clone(doc))
		}
	}
	return out, nil
}

func (s *MemoryStore) DeleteByID(ctx context.Context, collection, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collection]
	if !ok {
		return false, nil
	}
	if _, ok := c.docs[id]; !ok {
		return false, nil
	}
	delete(c.docs, id)
	c.order = slices.DeleteFunc(c.order, func(v string) bool { return v == id })
	return true, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() error {
	return nil
}

// collection must be called with mu held for writing.
func (s *MemoryStore) collection(name string) *memCollection {
	c, ok := s.collections[name]
	if !ok {
		c = &memCollection{docs: make(map[string][]byte)}
		s.collections[name] = c
	}
	return c
}

func (s *MemoryStore) checkUnique(collection, id string, doc map[string]any, c *memCollection) error {
	for _, u := range s.unique {
		if u.Collection != collection {
			continue
		}
		value, ok := doc[u.Field].(string)
		if !ok {
			continue
		}
		for otherID, otherDoc := range c.docs {
			if otherID == id {
				continue
			}
			var other map[string]any
			if err := json.Unmarshal(otherDoc, &other); err != nil {
				continue
			}
			if v, ok := other[u.Field].(string); ok && v == value {
				return fmt.Errorf("%w: %s.%s", ErrDuplicate, collection, u.Field)
			}
		}
	}
	return nil
}

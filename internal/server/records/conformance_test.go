package records

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStoreBehaviour runs the same checks against any backend. The store
// must enforce uniqueness of users' email and username.
func testStoreBehaviour(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("save and find by id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Save(ctx, "wishlists", "w1", []byte(`{"id":"w1","title":"A"}`)))
		doc, err := s.FindByID(ctx, "wishlists", "w1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"w1","title":"A"}`, string(doc))

		_, err = s.FindByID(ctx, "wishlists", "nope")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.FindByID(ctx, "users", "w1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("save replaces whole document", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Save(ctx, "wishlists", "w1", []byte(`{"id":"w1","title":"A","description":"d"}`)))
		require.NoError(t, s.Save(ctx, "wishlists", "w1", []byte(`{"id":"w1","title":"B"}`)))

		doc, err := s.FindByID(ctx, "wishlists", "w1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"w1","title":"B"}`, string(doc))

		all, err := s.Find(ctx, "wishlists", Predicate{})
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("find by predicate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Save(ctx, "wishlists", "w1", []byte(`{"id":"w1","ownerId":"u1","collaboratorIds":[]}`)))
		require.NoError(t, s.Save(ctx, "wishlists", "w2", []byte(`{"id":"w2","ownerId":"u2","collaboratorIds":["u1"]}`)))
		require.NoError(t, s.Save(ctx, "wishlists", "w3", []byte(`{"id":"w3","ownerId":"u3","collaboratorIds":["u2"]}`)))

		docs, err := s.Find(ctx, "wishlists", AnyOf(Eq("ownerId", "u1"), Contains("collaboratorIds", "u1")))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"w1", "w2"}, ids(t, docs))

		docs, err = s.Find(ctx, "wishlists", Where(Eq("ownerId", "u9")))
		require.NoError(t, err)
		assert.Empty(t, docs)

		docs, err = s.Find(ctx, "users", Predicate{})
		require.NoError(t, err)
		assert.Empty(t, docs)

		_, err = s.Find(ctx, "wishlists", Where(Eq("bad field", "x")))
		assert.ErrorIs(t, err, ErrInvalidPredicate)
	})

	t.Run("unique user fields", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Save(ctx, "users", "u1", []byte(`{"id":"u1","username":"alice","email":"a@x.io"}`)))

		err := s.Save(ctx, "users", "u2", []byte(`{"id":"u2","username":"alice","email":"b@x.io"}`))
		assert.ErrorIs(t, err, ErrDuplicate)

		err = s.Save(ctx, "users", "u3", []byte(`{"id":"u3","username":"bob","email":"a@x.io"}`))
		assert.ErrorIs(t, err, ErrDuplicate)

		// re-saving the same user is not a collision
		require.NoError(t, s.Save(ctx, "users", "u1", []byte(`{"id":"u1","username":"alice","email":"a@x.io"}`)))

		// wishlists carry no unique fields
		require.NoError(t, s.Save(ctx, "wishlists", "w1", []byte(`{"email":"a@x.io"}`)))
		require.NoError(t, s.Save(ctx, "wishlists", "w2", []byte(`{"email":"a@x.io"}`)))
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Save(ctx, "wishlists", "w1", []byte(`{"id":"w1"}`)))

		ok, err := s.DeleteByID(ctx, "wishlists", "w1")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.DeleteByID(ctx, "wishlists", "w1")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = s.FindByID(ctx, "wishlists", "w1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent registrations keep one winner", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		const n = 8
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				doc := fmt.Sprintf(`{"id":"u%d","username":"u%d","email":"same@x.io"}`, i, i)
				errs[i] = s.Save(ctx, "users", fmt.Sprintf("u%d", i), []byte(doc))
			}()
		}
		wg.Wait()

		ok := 0
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			assert.ErrorIs(t, err, ErrDuplicate)
		}
		assert.Equal(t, 1, ok)
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Ping(context.Background()))
	})
}

func ids(t *testing.T, docs [][]byte) []string {
	t.Helper()
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		var v struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(d, &v))
		out = append(out, v.ID)
	}
	return out
}

package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWishlist_Roles(t *testing.T) {
	wl := &Wishlist{OwnerID: "alice", CollaboratorIDs: []string{"bob"}}

	assert.True(t, wl.IsOwner("alice"))
	assert.False(t, wl.IsOwner("bob"))
	assert.True(t, wl.IsCollaborator("bob"))
	assert.True(t, wl.IsMember("alice"))
	assert.True(t, wl.IsMember("bob"))
	assert.False(t, wl.IsMember("carol"))
	assert.False(t, wl.IsMember(""))
}

func TestWishlist_SetCollaborators(t *testing.T) {
	wl := &Wishlist{OwnerID: "alice"}

	wl.SetCollaborators([]string{"bob", "alice", "", "carol", "bob"})

	assert.Equal(t, []string{"bob", "carol"}, wl.CollaboratorIDs)
	assert.NotContains(t, wl.CollaboratorIDs, wl.OwnerID)
}

func TestWishlist_SetCollaborators_NilGivesEmpty(t *testing.T) {
	wl := &Wishlist{OwnerID: "alice", CollaboratorIDs: []string{"bob"}}
	wl.SetCollaborators(nil)
	assert.NotNil(t, wl.CollaboratorIDs)
	assert.Empty(t, wl.CollaboratorIDs)
}

func TestWishlist_ProductIndex(t *testing.T) {
	wl := &Wishlist{Products: []Product{{ID: "p1"}, {ID: "p2"}}}
	assert.Equal(t, 1, wl.ProductIndex("p2"))
	assert.Equal(t, -1, wl.ProductIndex("nope"))
}

func TestWishlist_NormalizeSerialisesEmptyArrays(t *testing.T) {
	wl := &Wishlist{ID: "w1", OwnerID: "alice"}
	wl.Normalize()

	b, err := json.Marshal(wl)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"collaboratorIds":[]`)
	assert.Contains(t, string(b), `"products":[]`)
}

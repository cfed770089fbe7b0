package models

import (
	"slices"
	"time"
)

// Wishlist is the aggregate root. Products are embedded and share its
// lifecycle; the aggregate is always loaded and saved as a whole.
type Wishlist struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	OwnerID         string    `json:"ownerId"`
	OwnerUsername   string    `json:"ownerUsername"`
	CollaboratorIDs []string  `json:"collaboratorIds"`
	Products        []Product `json:"products"`
}

// Product is owned by exactly one Wishlist. CreatedAt and LastEditedAt are
// set by the server only.
type Product struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	ImageURL        string    `json:"imageUrl"`
	Price           float64   `json:"price"`
	AddedByUserID   string    `json:"addedByUserId"`
	AddedByUsername string    `json:"addedByUsername"`
	CreatedAt       time.Time `json:"createdAt"`
	LastEditedAt    time.Time `json:"lastEditedAt"`
}

// WishlistDraft carries caller-supplied fields for a new wishlist.
type WishlistDraft struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	CollaboratorIDs []string `json:"collaboratorIds"`
}

// WishlistPatch replaces title, description and the whole collaborator set.
type WishlistPatch struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	CollaboratorIDs []string `json:"collaboratorIds"`
}

// ProductDraft carries the caller-editable product fields.
type ProductDraft struct {
	Name     string  `json:"name"`
	ImageURL string  `json:"imageUrl"`
	Price    float64 `json:"price"`
}

// ProductPatch replaces name, image URL and price of an existing product.
type ProductPatch = ProductDraft

func (w *Wishlist) IsOwner(userID string) bool {
	return userID != "" && w.OwnerID == userID
}

func (w *Wishlist) IsCollaborator(userID string) bool {
	return userID != "" && slices.Contains(w.CollaboratorIDs, userID)
}

// IsMember reports whether userID is the owner or a collaborator.
func (w *Wishlist) IsMember(userID string) bool {
	return w.IsOwner(userID) || w.IsCollaborator(userID)
}

// SetCollaborators replaces the collaborator set. Duplicates, empty ids and
// the owner id are dropped, first occurrence order is kept.
func (w *Wishlist) SetCollaborators(ids []string) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == w.OwnerID || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	w.CollaboratorIDs = out
}

// ProductIndex returns the position of the product with the given id, or -1.
func (w *Wishlist) ProductIndex(productID string) int {
	return slices.IndexFunc(w.Products, func(p Product) bool { return p.ID == productID })
}

// Normalize replaces nil collections with empty ones so the aggregate
// always serialises with [] rather than null.
func (w *Wishlist) Normalize() {
	if w.CollaboratorIDs == nil {
		w.CollaboratorIDs = []string{}
	}
	if w.Products == nil {
		w.Products = []Product{}
	}
}

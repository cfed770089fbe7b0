// Package wishlists persists wishlist aggregates and their embedded
// products. Callers authorize actions before invoking a mutation; every
// mutation loads, changes and saves the whole aggregate.
package wishlists

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/dmitrijs2005/wishkeeper/internal/common"
	"github.com/dmitrijs2005/wishkeeper/internal/logging"
	"github.com/dmitrijs2005/wishkeeper/internal/server/models"
	"github.com/dmitrijs2005/wishkeeper/internal/server/records"
	"github.com/google/uuid"
)

const Collection = "wishlists"

// UserLookup resolves user ids for owner and adder snapshots.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type Store struct {
	lists records.Collection[models.Wishlist]
	users UserLookup
	now   func() time.Time
	log   logging.Logger
}

// NewStore uses time.Now when now is nil.
func NewStore(store records.Store, users UserLookup, now func() time.Time, log logging.Logger) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		lists: records.NewCollection[models.Wishlist](store, Collection),
		users: users,
		now:   now,
		log:   log.With("module", "wishlists"),
	}
}

// ListForUser returns the wishlists userID owns or collaborates on.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]*models.Wishlist, error) {
	found, err := s.lists.Find(ctx, records.AnyOf(
		records.Eq("ownerId", userID),
		records.Contains("collaboratorIds", userID),
	))
	if err != nil {
		return nil, common.StorageError(err)
	}
	for _, w := range found {
		w.Normalize()
	}
	return found, nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.Wishlist, error) {
	w, err := s.lists.Get(ctx, id)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return nil, common.ErrWishlistNotFound
		}
		return nil, common.StorageError(err)
	}
	w.Normalize()
	return w, nil
}

func (s *Store) Create(ctx context.Context, draft models.WishlistDraft, ownerID string) (*models.Wishlist, error) {
	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return nil, common.ErrOwnerNotFound
		}
		return nil, err
	}

	w := &models.Wishlist{
		ID:            uuid.NewString(),
		Title:         draft.Title,
		Description:   draft.Description,
		OwnerID:       owner.ID,
		OwnerUsername: owner.Username,
	}
	w.SetCollaborators(draft.CollaboratorIDs)
	if err := s.checkCollaborators(ctx, nil, w.CollaboratorIDs); err != nil {
		return nil, err
	}
	w.Normalize()

	if err := s.save(ctx, w); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "wishlist created", "wishlist_id", w.ID, "owner_id", w.OwnerID)
	return w, nil
}

// Update replaces title, description and the collaborator set. Owner and
// products are left as stored.
func (s *Store) Update(ctx context.Context, id string, patch models.WishlistPatch) (*models.Wishlist, error) {
	w, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := w.CollaboratorIDs
	w.Title = patch.Title
	w.Description = patch.Description
	w.SetCollaborators(patch.CollaboratorIDs)
	if err := s.checkCollaborators(ctx, previous, w.CollaboratorIDs); err != nil {
		return nil, err
	}

	if err := s.save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// Delete removes the wishlist together with its products.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := s.lists.Delete(ctx, id)
	if err != nil {
		return false, common.StorageError(err)
	}
	if ok {
		s.log.Info(ctx, "wishlist deleted", "wishlist_id", id)
	}
	return ok, nil
}

func (s *Store) AddProduct(ctx context.Context, wishlistID string, draft models.ProductDraft, addedBy string) (*models.Wishlist, error) {
	if err := validateProduct(draft); err != nil {
		return nil, err
	}

	w, err := s.Get(ctx, wishlistID)
	if err != nil {
		return nil, err
	}

	adder, err := s.users.FindByID(ctx, addedBy)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return nil, common.ErrAdderNotFound
		}
		return nil, err
	}

	now := s.now().UTC()
	w.Products = append(w.Products, models.Product{
		ID:              s.newProductID(w),
		Name:            draft.Name,
		ImageURL:        draft.ImageURL,
		Price:           draft.Price,
		AddedByUserID:   adder.ID,
		AddedByUsername: adder.Username,
		CreatedAt:       now,
		LastEditedAt:    now,
	})

	if err := s.save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// UpdateProduct returns common.ErrProductNotFound when the wishlist exists
// but holds no such product.
func (s *Store) UpdateProduct(ctx context.Context, wishlistID, productID string, patch models.ProductPatch) (*models.Wishlist, error) {
	if err := validateProduct(patch); err != nil {
		return nil, err
	}

	w, err := s.Get(ctx, wishlistID)
	if err != nil {
		return nil, err
	}

	i := w.ProductIndex(productID)
	if i < 0 {
		return nil, common.ErrProductNotFound
	}

	p := &w.Products[i]
	p.Name = patch.Name
	p.ImageURL = patch.ImageURL
	p.Price = patch.Price
	if now := s.now().UTC(); now.After(p.LastEditedAt) {
		p.LastEditedAt = now
	}

	if err := s.save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// RemoveProduct is a no-op, not an error, when the product is absent.
func (s *Store) RemoveProduct(ctx context.Context, wishlistID, productID string) (*models.Wishlist, error) {
	w, err := s.Get(ctx, wishlistID)
	if err != nil {
		return nil, err
	}

	i := w.ProductIndex(productID)
	if i < 0 {
		return w, nil
	}
	w.Products = append(w.Products[:i], w.Products[i+1:]...)

	if err := s.save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Store) save(ctx context.Context, w *models.Wishlist) error {
	if err := s.lists.Put(ctx, w.ID, w); err != nil {
		return common.StorageError(err)
	}
	return nil
}

// checkCollaborators requires ids added since previous to name existing
// users. Ids already present are not checked again.
func (s *Store) checkCollaborators(ctx context.Context, previous, ids []string) error {
	for _, id := range ids {
		if slices.Contains(previous, id) {
			continue
		}
		if _, err := s.users.FindByID(ctx, id); err != nil {
			if errors.Is(err, common.ErrUserNotFound) {
				return fmt.Errorf("%w: unknown collaborator %q", common.ErrValidation, id)
			}
			return err
		}
	}
	return nil
}

func (s *Store) newProductID(w *models.Wishlist) string {
	for {
		id := uuid.NewString()
		if w.ProductIndex(id) < 0 {
			return id
		}
	}
}

func validateProduct(d models.ProductDraft) error {
	if d.Price < 0 || math.IsNaN(d.Price) || math.IsInf(d.Price, 0) {
		return fmt.Errorf("%w: price must be a non-negative number", common.ErrValidation)
	}
	return nil
}

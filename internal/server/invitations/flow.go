// Package invitations grants wishlist membership to registered users by
// email. Nothing is sent to the invitee.
package invitations

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/wishkeeper/internal/common"
	"github.com/dmitrijs2005/wishkeeper/internal/logging"
	"github.com/dmitrijs2005/wishkeeper/internal/server/access"
	"github.com/dmitrijs2005/wishkeeper/internal/server/models"
)

type Wishlists interface {
	Get(ctx context.Context, id string) (*models.Wishlist, error)
	Update(ctx context.Context, id string, patch models.WishlistPatch) (*models.Wishlist, error)
}

type Users interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Outcome names the result of an invitation for metrics and logs.
type Outcome string

const (
	OutcomeInvited          Outcome = "invited"
	OutcomeAlreadyMember    Outcome = "already_member"
	OutcomeUserNotFound     Outcome = "user_not_found"
	OutcomeDenied           Outcome = "denied"
	OutcomeWishlistNotFound Outcome = "wishlist_not_found"
	OutcomeError            Outcome = "error"
)

type Flow struct {
	wishlists Wishlists
	users     Users
	log       logging.Logger
	observe   func(Outcome)
}

// NewFlow reports every outcome to observe when it is non-nil.
func NewFlow(wishlists Wishlists, users Users, log logging.Logger, observe func(Outcome)) *Flow {
	if observe == nil {
		observe = func(Outcome) {}
	}
	return &Flow{
		wishlists: wishlists,
		users:     users,
		log:       log.With("module", "invitations"),
		observe:   observe,
	}
}

// Invite adds the user registered under email to the wishlist's
// collaborators. A nil error means the user was invited. Checks run in a
// fixed order: wishlist exists, caller is owner, invitee exists, invitee
// is not a member yet.
func (f *Flow) Invite(ctx context.Context, wishlistID, callerID, email string) (*models.Wishlist, error) {
	w, err := f.invite(ctx, wishlistID, callerID, email)
	outcome := outcomeOf(err)
	f.observe(outcome)
	f.log.Info(ctx, "invitation", "wishlist_id", wishlistID, "caller_id", callerID, "outcome", string(outcome))
	return w, err
}

func (f *Flow) invite(ctx context.Context, wishlistID, callerID, email string) (*models.Wishlist, error) {
	w, err := f.wishlists.Get(ctx, wishlistID)
	if err != nil {
		return nil, err
	}

	if err := access.Authorize(callerID, w, access.ActionInvite); err != nil {
		return nil, err
	}

	invitee, err := f.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if w.IsMember(invitee.ID) {
		return nil, common.ErrAlreadyMember
	}

	return f.wishlists.Update(ctx, w.ID, models.WishlistPatch{
		Title:           w.Title,
		Description:     w.Description,
		CollaboratorIDs: append(w.CollaboratorIDs, invitee.ID),
	})
}

func outcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeInvited
	case errors.Is(err, common.ErrAlreadyMember):
		return OutcomeAlreadyMember
	case errors.Is(err, common.ErrUserNotFound):
		return OutcomeUserNotFound
	case errors.Is(err, common.ErrDenied):
		return OutcomeDenied
	case errors.Is(err, common.ErrWishlistNotFound):
		return OutcomeWishlistNotFound
	}
	return OutcomeError
}

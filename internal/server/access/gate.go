// Package access decides whether a caller may perform an action on a
// wishlist. Decisions depend only on the caller id and the wishlist's
// membership; callers without a resolved identity never get here.
package access

import (
	"fmt"

	"github.com/dmitrijs2005/wishkeeper/internal/common"
	"github.com/dmitrijs2005/wishkeeper/internal/server/models"
)

type Action int

const (
	ActionView Action = iota + 1
	ActionUpdate
	ActionDelete
	ActionAddProduct
	ActionUpdateProduct
	ActionRemoveProduct
	ActionInvite
)

func (a Action) String() string {
	switch a {
	case ActionView:
		return "view"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	case ActionAddProduct:
		return "add_product"
	case ActionUpdateProduct:
		return "update_product"
	case ActionRemoveProduct:
		return "remove_product"
	case ActionInvite:
		return "invite"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

type Role int

const (
	RoleStranger Role = iota
	RoleCollaborator
	RoleOwner
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleCollaborator:
		return "collaborator"
	}
	return "stranger"
}

func RoleOf(callerID string, w *models.Wishlist) Role {
	switch {
	case w.IsOwner(callerID):
		return RoleOwner
	case w.IsCollaborator(callerID):
		return RoleCollaborator
	}
	return RoleStranger
}

// minimum role required per action
var rules = map[Action]Role{
	ActionView:          RoleCollaborator,
	ActionUpdate:        RoleOwner,
	ActionDelete:        RoleOwner,
	ActionAddProduct:    RoleCollaborator,
	ActionUpdateProduct: RoleCollaborator,
	ActionRemoveProduct: RoleCollaborator,
	ActionInvite:        RoleOwner,
}

// Authorize returns nil when the caller may perform the action and
// common.ErrDenied otherwise. Unknown actions are denied.
func Authorize(callerID string, w *models.Wishlist, a Action) error {
	need, ok := rules[a]
	if !ok || w == nil || RoleOf(callerID, w) < need {
		return fmt.Errorf("%w: %s", common.ErrDenied, a)
	}
	return nil
}

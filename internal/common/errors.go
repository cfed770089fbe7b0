// Package common defines shared constants and sentinel errors used across
// client and server layers of WishKeeper. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Generic lookup failure. Entity-specific not-found errors below wrap it,
	// so errors.Is(err, ErrorNotFound) matches any of them.
	ErrorNotFound = errors.New("not found")

	ErrWishlistNotFound = fmt.Errorf("wishlist %w", ErrorNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", ErrorNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrorNotFound)

	// Referential integrity: the acting user vanished between token
	// resolution and the store write.
	ErrOwnerNotFound = errors.New("owner not found")
	ErrAdderNotFound = errors.New("user adding product not found")

	// Identity errors.
	ErrConflict           = errors.New("user with this email or username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")

	// Sharing errors.
	ErrDenied        = errors.New("access denied")
	ErrAlreadyMember = errors.New("user is already a member of this wishlist")

	// Input errors.
	ErrValidation = errors.New("validation error")

	// Record Store / Credential Store boundary failures.
	ErrStorage  = errors.New("storage failure")
	ErrInternal = errors.New("internal error")
)

// StorageError tags err as a failure at the Record Store boundary while
// keeping the original cause reachable through errors.Is / errors.As.
func StorageError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

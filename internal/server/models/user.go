// Package models defines the entities persisted by the server: users and
// wishlist aggregates with their embedded products.
package models

import "time"

// User is the public identity record. The credential hash lives only in
// the identity package's storage document and is never part of this type.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

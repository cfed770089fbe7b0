// Package credentials turns secrets into verifiable one-way hashes.
package credentials

import (
	"fmt"
	"strings"
)

// Hasher hashes and verifies user secrets. Hash output is self-describing,
// so Verify needs nothing but the stored string.
type Hasher interface {
	Hash(secret []byte) (string, error)
	Verify(secret []byte, hash string) bool
}

const (
	KindBcrypt   = "bcrypt"
	KindArgon2id = "argon2id"
)

// New returns the hasher registered under kind. An empty kind selects bcrypt.
func New(kind string) (Hasher, error) {
	switch strings.ToLower(kind) {
	case "", KindBcrypt:
		return NewBcrypt(0), nil
	case KindArgon2id:
		return NewArgon2id(), nil
	default:
		return nil, fmt.Errorf("unknown password hasher %q", kind)
	}
}

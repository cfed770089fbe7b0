package credentials

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/wishkeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
)

type Bcrypt struct {
	cost int
}

// NewBcrypt uses bcrypt.DefaultCost when cost is out of range.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Hash(secret []byte) (string, error) {
	h, err := bcrypt.GenerateFromPassword(secret, b.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password must not exceed 72 bytes", common.ErrValidation)
	}
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(h), nil
}

func (b *Bcrypt) Verify(secret []byte, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), secret) == nil
}

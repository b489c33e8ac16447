package hash

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PinHasher provides hashing logic to securely store PINs.
type PinHasher interface {
	Hash(pin string) (string, error)
	Compare(hash, pin string) bool
}

// BcryptHasher hashes PINs with bcrypt. A 4-digit PIN has little entropy,
// the cost factor is what slows down offline guessing.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(pin string) (string, error) {
	if pin == "" {
		return "", errors.New("empty pin")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt generate failed: %w", err)
	}

	return string(hashed), nil
}

func (h *BcryptHasher) Compare(hash, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}

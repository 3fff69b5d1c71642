package user

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Hasher derives and checks salted password hashes.
type Hasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// SetPassword stores a fresh bcrypt hash of plaintext on u.
func (h *Hasher) SetPassword(u *User, plaintext string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword is false for a wrong password and for a malformed stored hash.
func (h *Hasher) CheckPassword(u *User, plaintext string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)) == nil
}

// RejectUnknown compares plaintext against a throwaway hash of the same cost and
// reports false. Logins for unknown accounts call it so they take as long as a
// wrong password for a real one.
func (h *Hasher) RejectUnknown(plaintext string) bool {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("unknown-account"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext))
	return false
}

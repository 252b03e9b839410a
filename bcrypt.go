package auth

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is used when the configured cost is out of range.
const DefaultBcryptCost = 12

// Hasher hashes and verifies secrets with bcrypt. bcrypt salts every digest
// and compares in constant time, so digests never leak length or prefix
// information.
type Hasher struct {
	cost int

	// digest of a throwaway secret, compared against on account lookup
	// misses so they cost the same as a real mismatch
	dummy string
}

// NewHasher returns a Hasher with the given cost factor. Costs outside
// bcrypt's supported range fall back to DefaultBcryptCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}

	h := &Hasher{cost: cost}
	h.dummy, _ = h.Hash(uuid.NewString())
	return h
}

// Cost returns the configured cost factor.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash generates a salted digest for the given secret.
func (h *Hasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrNoEmptyString
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	return string(digest), err
}

// Verify reports whether secret matches digest. A missing or empty digest
// is a mismatch, never a panic or an error: freshly provisioned accounts
// may not have a usable password yet.
func (h *Hasher) Verify(secret, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}

// VerifyDummy burns one bcrypt comparison against a throwaway digest.
// Always returns false.
func (h *Hasher) VerifyDummy(secret string) bool {
	_ = bcrypt.CompareHashAndPassword([]byte(h.dummy), []byte(secret))
	return false
}

// RandomPasswordHash returns a digest of a random throwaway secret, used
// when provisioning accounts that must not be password loggable yet.
func (h *Hasher) RandomPasswordHash() string {
	digest, err := h.Hash(uuid.NewString())
	if err != nil {
		return h.RandomPasswordHash()
	}
	return digest
}

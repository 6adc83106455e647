package hash

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"golang.org/x/crypto/blake2b"
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const SaltLength = 10

// Hasher digests a secret together with a salt. Verification recomputes and
// compares, it never fails with an error.
type Hasher interface {
	Hash(secret, salt string) string
	Verify(secret, salt, digest string) bool
}

// New resolves one of the supported algorithm identifiers. The set is closed,
// callers pick the algorithm once at startup.
func New(algorithm string) (Hasher, error) {
	switch algorithm {
	case "blake2b":
		return blake2bHasher{}, nil
	default:
		return nil, fmt.Errorf("hash: algorithm %q is not supported", algorithm)
	}
}

type blake2bHasher struct{}

func (blake2bHasher) Hash(secret, salt string) string {
	sum := blake2b.Sum512([]byte(secret + salt))
	return hex.EncodeToString(sum[:])
}

func (h blake2bHasher) Verify(secret, salt, digest string) bool {
	return h.Hash(secret, salt) == digest
}

// NewSalt returns a fresh random alphanumeric salt.
func NewSalt() string {
	return RandomString(SaltLength)
}

// RandomString returns n random alphanumeric characters from crypto/rand.
func RandomString(n int) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(alphanumeric)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("hash: crypto/rand failed: %v", err))
		}
		out[i] = alphanumeric[idx.Int64()]
	}
	return string(out)
}

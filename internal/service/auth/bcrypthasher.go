package auth

import (
	"crypto/sha256"

	"golang.org/x/crypto/bcrypt"
)

// Hash of random password compared when user not found
const dummyHash = "$2a$10$q1rDXu2B7IKjJcJXHD14leYrK8rEdRwtcmzx5phZXYgMycFqkFfEa"

// Bcrypt password hasher
// Will be used as default one if user not provide it's own
//
// Password is hashed with sha256 first: bcrypt takes only first 72 bytes of input
type BcryptHasher struct {
	// bcrypt.DefaultCost if zero
	Cost int
}

func (h BcryptHasher) cost() int {
	if h.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return h.Cost
}

func (h BcryptHasher) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	hash, err := bcrypt.GenerateFromPassword(sum[:], h.cost())
	return string(hash), err
}

func (h BcryptHasher) Compare(hashedPassword string, password string) error {
	sum := sha256.Sum256([]byte(password))
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), sum[:])
}

package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// pinHashCost is the bcrypt cost used for hashing PINs. A 4-digit PIN has a
// tiny keyspace, so the work factor is kept high and online guessing is
// bounded by the account lockout policy rather than the hash alone.
const pinHashCost = 12

// HashPIN derives a one-way salted hash of the given PIN. The salt is
// generated and embedded by bcrypt; two hashes of the same PIN differ.
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), pinHashCost)
	if err != nil {
		return "", fmt.Errorf("error hashing PIN: %w", err)
	}

	return string(hash), nil
}

// VerifyPIN reports whether pin matches the stored bcrypt hash.
func VerifyPIN(pin, pinHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(pinHash), []byte(pin)) == nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. Stored hashes embed the salt, so the iteration count
// and key length must stay fixed for existing credentials to keep verifying.
const (
	pbkdf2Iterations = 1000
	pbkdf2KeyLen     = 64 // sha512 digest width
	pbkdf2SaltLen    = 16 // salt length in bytes
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted PBKDF2 hash of the password.
	Hash(password string) (string, error)

	// Verify checks if the password matches the stored hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or an error
	// when the stored hash is malformed.
	Verify(password, hash string) (bool, error)
}

// PBKDF2Hasher implements PasswordHasher using PBKDF2-SHA512.
// The encoded form is "hex(salt):hex(key)".
type PBKDF2Hasher struct{}

// NewPBKDF2Hasher creates a new PBKDF2Hasher.
func NewPBKDF2Hasher() *PBKDF2Hasher {
	return &PBKDF2Hasher{}
}

// Hash produces a salted PBKDF2-SHA512 hash of the password.
func (h *PBKDF2Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, pbkdf2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, sha512.New)

	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// Verify checks if the password matches the stored hash.
// A stored hash without the salt delimiter is a data-integrity error, not a
// mismatch, and is surfaced as such.
func (h *PBKDF2Hasher) Verify(password, encodedHash string) (bool, error) {
	saltHex, keyHex, found := strings.Cut(encodedHash, ":")
	if !found {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("stored credential is missing the salt delimiter")
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").With("part", "salt").Wrap(err)
	}

	expected, err := hex.DecodeString(keyHex)
	if err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").With("part", "key").Wrap(err)
	}
	if len(expected) == 0 {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("stored credential has an empty derived key")
	}

	computed := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, len(expected), sha512.New)

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

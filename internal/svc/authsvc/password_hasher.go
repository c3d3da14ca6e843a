package authsvc

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/mkrupp/simpletodo/internal/domain"
)

const (
	saltSize   = 16
	keySize    = 32
	iterations = 10_000
	separator  = "-"
)

// ErrEmptyPassword is returned when hashing an empty or whitespace password.
//
//nolint:gochecknoglobals
var ErrEmptyPassword = domain.NewValidationError("Password.Empty", "Password cannot be empty or whitespace.")

// PasswordHasher turns passwords into storable hashes and checks them.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hashed string) bool
}

// PBKDF2Hasher derives PBKDF2-SHA512 keys with a fresh random salt per hash
// and stores them as upper-case hex "HASH-SALT".
type PBKDF2Hasher struct{}

var _ PasswordHasher = PBKDF2Hasher{}

// Hash implements PasswordHasher.Hash.
func (PBKDF2Hasher) Hash(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, iterations, keySize, sha512.New)

	return strings.ToUpper(hex.EncodeToString(key)) + separator + strings.ToUpper(hex.EncodeToString(salt)), nil
}

// Verify implements PasswordHasher.Verify. Malformed stored values never match.
func (PBKDF2Hasher) Verify(password, hashed string) bool {
	hashHex, saltHex, ok := strings.Cut(hashed, separator)
	if !ok {
		return false
	}

	want, err := hex.DecodeString(hashHex)
	if err != nil || len(want) != keySize {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil || len(salt) == 0 {
		return false
	}

	got := pbkdf2.Key([]byte(password), salt, iterations, keySize, sha512.New)

	return subtle.ConstantTimeCompare(got, want) == 1
}

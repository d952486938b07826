package auth

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/mlevkov/promptkeep/internal/apperrors"
)

const (
	// Iteration count is 2^defaultHasherRounds, so hashing cost is tuned with single integer
	defaultHasherRounds = 10

	saltBytesLen   = 16
	derivedKeyLen  = 64
	storedHashSeps = 3
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

// PBKDF2 (sha512) password hasher
// Stored format: saltHex:iterations:derivedKeyHex
// Every call generates a fresh salt, so equal passwords never share a stored hash
type PBKDF2Hasher struct {
	// Iteration count as power of two: iterations = 2^Rounds
	// Zero value means default
	Rounds int
}

var DefaultHasher = PBKDF2Hasher{}

func (h PBKDF2Hasher) iterations() int {
	rounds := h.Rounds
	if rounds == 0 {
		rounds = defaultHasherRounds
	}
	return 1 << rounds
}

func (h PBKDF2Hasher) Hash(password string) (string, error) {
	b := make([]byte, saltBytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("error while generating salt. Err: %w", err)
	}
	salt := hex.EncodeToString(b)

	iterations := h.iterations()
	key := pbkdf2.Key([]byte(password), []byte(salt), iterations, derivedKeyLen, sha512.New)

	return fmt.Sprintf("%s:%d:%s", salt, iterations, hex.EncodeToString(key)), nil
}

// Compare recomputes the key with the stored salt and iteration count
// Malformed stored values fail the comparison, they never panic
func (h PBKDF2Hasher) Compare(hashedPassword string, password string) error {
	parts := strings.Split(hashedPassword, ":")
	if len(parts) != storedHashSeps {
		return fmt.Errorf("malformed stored hash: %w", apperrors.ErrInvalidCredentials)
	}

	salt, iterationsStr, keyHex := parts[0], parts[1], parts[2]

	iterations, err := strconv.Atoi(iterationsStr)
	if err != nil || iterations <= 0 {
		return fmt.Errorf("malformed iteration count: %w", apperrors.ErrInvalidCredentials)
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil || len(key) != derivedKeyLen {
		return fmt.Errorf("malformed derived key: %w", apperrors.ErrInvalidCredentials)
	}

	candidate := pbkdf2.Key([]byte(password), []byte(salt), iterations, len(key), sha512.New)

	if subtle.ConstantTimeCompare(key, candidate) != 1 {
		return apperrors.ErrInvalidCredentials
	}

	return nil
}

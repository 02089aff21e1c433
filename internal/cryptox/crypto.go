// Package cryptox implements the credential codec: salt generation,
// password-based key derivation and constant-time verification.
//
// Derivation is a pure function of (password, salt, iterations, algorithm);
// there is no inverse. The algorithm and work factor are stored next to each
// hash, so changing the configured defaults never breaks existing records.
package cryptox

import (
	"crypto/sha512"
	"crypto/subtle"
	"fmt"

	"github.com/josermendez0896/Nocturne-web/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// KDF names a key derivation algorithm persisted with a user record.
type KDF string

const (
	// KDFPBKDF2SHA512 is PBKDF2 with HMAC-SHA-512 (iteration-hard).
	KDFPBKDF2SHA512 KDF = "pbkdf2-sha512"
	// KDFArgon2ID is Argon2id (memory-hard); iterations map to its time cost.
	KDFArgon2ID KDF = "argon2id"
)

// argon2id cost parameters other than time.
const (
	argon2MemoryKiB = 64 * 1024
	argon2Threads   = 4
)

// Argon2 time cost: every pass walks the full memory cost, so the usable
// range is a handful of passes, not the PBKDF2 iteration counts.
const (
	Argon2DefaultTime = 3
	Argon2MaxTime     = 10
)

// Valid reports whether k is a supported algorithm.
func (k KDF) Valid() bool {
	return k == KDFPBKDF2SHA512 || k == KDFArgon2ID
}

// DefaultIterations is the work factor used for k when none is configured.
func (k KDF) DefaultIterations() int {
	if k == KDFArgon2ID {
		return Argon2DefaultTime
	}
	return common.DefaultIterations
}

// CheckCost rejects work factors k cannot use with common.ErrInvalidInput.
func (k KDF) CheckCost(iterations int) error {
	if iterations <= 0 {
		return fmt.Errorf("%w: iterations must be positive, got %d", common.ErrInvalidInput, iterations)
	}
	if k == KDFArgon2ID && iterations > Argon2MaxTime {
		return fmt.Errorf("%w: argon2id time cost must be at most %d, got %d",
			common.ErrInvalidInput, Argon2MaxTime, iterations)
	}
	return nil
}

// randomBytes is a seam for tests simulating an unavailable entropy source.
var randomBytes = common.RandomBytes

// GenerateSalt returns a fresh 16-byte salt.
func GenerateSalt() ([]byte, error) {
	return randomBytes(common.SaltSize)
}

// DeriveKey derives the 64-byte credential hash for password.
//
// The same inputs always produce the same output. Unknown algorithms and
// work factors outside KDF.CheckCost are rejected with
// common.ErrInvalidInput; a panic inside the primitive is reported as
// common.ErrCryptoUnavailable.
func DeriveKey(password []byte, salt []byte, iterations int, kdf KDF) (key []byte, err error) {
	if !kdf.Valid() {
		return nil, fmt.Errorf("%w: unsupported kdf %q", common.ErrInvalidInput, kdf)
	}
	if err := kdf.CheckCost(iterations); err != nil {
		return nil, err
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", common.ErrInvalidInput)
	}

	defer func() {
		if p := recover(); p != nil {
			key = nil
			err = fmt.Errorf("%w: %v", common.ErrCryptoUnavailable, p)
		}
	}()

	switch kdf {
	case KDFPBKDF2SHA512:
		return pbkdf2.Key(password, salt, iterations, common.DerivedKeySize, sha512.New), nil
	case KDFArgon2ID:
		return argon2.IDKey(password, salt, uint32(iterations), argon2MemoryKiB, argon2Threads, common.DerivedKeySize), nil
	default:
		return nil, fmt.Errorf("%w: unsupported kdf %q", common.ErrInvalidInput, kdf)
	}
}

// Verify reports whether candidate equals stored. Equal-length inputs are
// compared in constant time; a length mismatch returns false immediately.
func Verify(candidate, stored []byte) bool {
	if len(candidate) != len(stored) {
		return false
	}
	return subtle.ConstantTimeCompare(candidate, stored) == 1
}

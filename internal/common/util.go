package common

import (
	"crypto/rand"
	"fmt"
)

// RandomBytes returns n bytes from the system CSPRNG. A failing entropy
// source is reported as ErrCryptoUnavailable.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCryptoUnavailable, err)
	}
	return b, nil
}

// WipeByteArray overwrites b with zeros. Used for passwords read from the
// terminal once they have been handed to the codec.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

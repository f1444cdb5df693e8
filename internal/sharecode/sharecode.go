// Package sharecode generates the short public identifiers used in
// session URLs and allocates them uniquely against the order store.
package sharecode

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
)

// DefaultAlphabet is the 62-symbol alphanumeric alphabet codes are
// drawn from.
const DefaultAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// DefaultLength is the number of symbols in a share code.
const DefaultLength = 6

// DefaultMaxAttempts bounds how many candidate codes AllocateUnique
// tries before giving up.
const DefaultMaxAttempts = 5

// ErrAllocationExhausted is returned when no unused code was found
// within the attempt bound.  Callers report this as a recoverable
// failure instead of looping indefinitely.
var ErrAllocationExhausted = errors.New("share code allocation exhausted")

// CodeStore is the slice of the order store the allocator needs: an
// existence check against already-issued codes.
type CodeStore interface {
	ShareCodeExists(ctx context.Context, code string) (bool, error)
}

// Generator produces random share codes.  The zero value is not
// usable; construct one with New.  Alphabet and length are
// configurable so tests can shrink the code space.
type Generator struct {
	alphabet    string
	length      int
	maxAttempts int
}

// New returns a Generator with the default 6-symbol alphanumeric
// configuration.
func New() *Generator {
	return &Generator{alphabet: DefaultAlphabet, length: DefaultLength, maxAttempts: DefaultMaxAttempts}
}

// NewWith returns a Generator with a custom alphabet, code length and
// attempt bound.  It panics when the alphabet is empty or the length
// or bound is not positive, since every caller passes constants.
func NewWith(alphabet string, length, maxAttempts int) *Generator {
	if alphabet == "" || length <= 0 || maxAttempts <= 0 {
		panic("sharecode: invalid generator configuration")
	}
	return &Generator{alphabet: alphabet, length: length, maxAttempts: maxAttempts}
}

// Generate draws one code uniformly from the configured alphabet using
// crypto/rand.
func (g *Generator) Generate() (string, error) {
	max := big.NewInt(int64(len(g.alphabet)))
	buf := make([]byte, g.length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = g.alphabet[n.Int64()]
	}
	return string(buf), nil
}

// AllocateUnique generates candidate codes and accepts the first one
// the store has never issued.  After maxAttempts collisions it returns
// ErrAllocationExhausted.  The check-then-insert window that remains is
// closed at the store level: the orders table carries a unique key on
// share_code and the insert path retries on a duplicate-key error.
func (g *Generator) AllocateUnique(ctx context.Context, store CodeStore) (string, error) {
	for i := 0; i < g.maxAttempts; i++ {
		code, err := g.Generate()
		if err != nil {
			return "", err
		}
		exists, err := store.ShareCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrAllocationExhausted
}

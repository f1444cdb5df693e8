package sharecode

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory CodeStore backed by a set of issued codes.
type memStore struct {
	taken map[string]bool
	calls int
}

func (s *memStore) ShareCodeExists(_ context.Context, code string) (bool, error) {
	s.calls++
	return s.taken[code], nil
}

func TestGenerate_LengthAndAlphabet(t *testing.T) {
	g := New()
	for i := 0; i < 50; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		assert.Len(t, code, DefaultLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(DefaultAlphabet, r), "unexpected symbol %q", r)
		}
	}
}

func TestAllocateUnique_FindsTheOneFreeCode(t *testing.T) {
	// Shrink the space to two codes ("a" and "b") and pre-seed one of
	// them; a generous attempt bound must eventually land on the free
	// slot.
	g := NewWith("ab", 1, 64)
	store := &memStore{taken: map[string]bool{"a": true}}

	code, err := g.AllocateUnique(context.Background(), store)

	require.NoError(t, err)
	assert.Equal(t, "b", code)
}

func TestAllocateUnique_ExhaustsInsteadOfLooping(t *testing.T) {
	// Every code in the shrunken space is taken: the allocator must
	// stop at its bound and report failure.
	g := NewWith("ab", 1, 5)
	store := &memStore{taken: map[string]bool{"a": true, "b": true}}

	code, err := g.AllocateUnique(context.Background(), store)

	assert.ErrorIs(t, err, ErrAllocationExhausted)
	assert.Empty(t, code)
	assert.Equal(t, 5, store.calls)
}

func TestAllocateUnique_FirstCandidateAccepted(t *testing.T) {
	g := NewWith("x", 3, 5)
	store := &memStore{taken: map[string]bool{}}

	code, err := g.AllocateUnique(context.Background(), store)

	require.NoError(t, err)
	assert.Equal(t, "xxx", code)
	assert.Equal(t, 1, store.calls)
}

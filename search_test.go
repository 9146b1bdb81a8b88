package bps

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func allBackends(haystack []byte) map[string]searcher {
	return map[string]searcher{
		"linear":      newLinearSearcher(haystack),
		"rollinghash": newRollingHashSearcher(haystack),
		"suffixarray": newSuffixArraySearcher(haystack),
	}
}

// TestSearchBackendAgreement is spec §8 property #6: all three backends
// return the same length for the same (haystack, needle >= 4 bytes).
// Start positions may differ when more than one position ties.
func TestSearchBackendAgreement(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	alphabet := []byte("ABCD")

	for trial := 0; trial < 200; trial++ {
		haystack := randomBytes(rng, alphabet, 1+rng.Intn(300))
		needle := randomBytes(rng, alphabet, 4+rng.Intn(40))

		backends := allBackends(haystack)
		linearLen, _ := backends["linear"].findLongest(needle)
		for name, s := range backends {
			l, start := s.findLongest(needle)
			require.Equalf(t, linearLen, l, "backend %s disagreed with linear on length", name)
			if l > 0 {
				require.True(t, start+l <= len(haystack), "backend %s returned out-of-range start", name)
				require.Equal(t, haystack[start:start+l], needle[:l], "backend %s start position doesn't actually match", name)
			}
		}
	}
}

func randomBytes(rng *rand.Rand, alphabet []byte, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return b
}

func TestLinearSearcherFindsExactMatch(t *testing.T) {
	haystack := []byte("the quick brown fox jumps over the lazy dog")
	s := newLinearSearcher(haystack)
	length, start := s.findLongest([]byte("brown fox"))
	require.Equal(t, 9, length)
	require.Equal(t, 10, start)
}

func TestSuffixArrayMatchesLCPInvariant(t *testing.T) {
	haystack := []byte("banana banana banana")
	sa := buildSuffixArray(haystack)
	require.Len(t, sa, len(haystack))

	// The suffix array must actually be sorted.
	for i := 1; i < len(sa); i++ {
		require.LessOrEqual(t, compareSuffix(haystack, sa[i-1], haystack[sa[i]:]), 0)
	}

	// Each LCP entry must equal the common prefix of the two adjacent
	// suffixes it describes.
	lcp := buildLCPArray(haystack, sa)
	for i := 1; i < len(sa); i++ {
		want, _ := longestMatchScalar(haystack[sa[i-1]:], haystack[sa[i]:])
		require.EqualValues(t, want, lcp[i])
	}
}

func TestRollingHashSearcherNoMatch(t *testing.T) {
	s := newRollingHashSearcher([]byte("aaaaaaaaaa"))
	length, _ := s.findLongest([]byte("zzzz"))
	require.Equal(t, 0, length)
}

package bps

import (
	"bytes"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"
)

func TestLongestMatchBasic(t *testing.T) {
	cases := []struct {
		name          string
		a, b          []byte
		wantLen       int
		wantExhausted bool
	}{
		{"empty b", []byte("hello"), []byte(""), 0, true},
		{"identical", []byte("hello"), []byte("hello"), 5, true},
		{"prefix diverges immediately", []byte("abc"), []byte("xyz"), 0, false},
		{"b longer and a prefix of it", []byte("ab"), []byte("abcdef"), 2, false},
		{"b shorter and exhausted", []byte("abcdef"), []byte("abc"), 3, true},
		{"mismatch mid-way", []byte("abcXefg"), []byte("abcYefg"), 3, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			length, exhausted := longestMatch(c.a, c.b)
			require.Equal(t, c.wantLen, length)
			require.Equal(t, c.wantExhausted, exhausted)
		})
	}
}

// TestLongestMatchAroundLaneWidth exercises spec §8 boundary #11: sizes
// that straddle the SIMD lane width, and +-1 around it.
func TestLongestMatchAroundLaneWidth(t *testing.T) {
	for _, n := range []int{laneWidth - 1, laneWidth, laneWidth + 1, 2*laneWidth - 1, 2 * laneWidth, 2*laneWidth + 1} {
		t.Run("", func(t *testing.T) {
			a := bytes.Repeat([]byte{0x42}, n)
			b := bytes.Repeat([]byte{0x42}, n)
			length, exhausted := longestMatch(a, b)
			require.Equal(t, n, length)
			require.True(t, exhausted)

			// A single mismatch at every offset must be found exactly.
			for mismatchAt := 0; mismatchAt < n; mismatchAt++ {
				bb := append([]byte(nil), b...)
				bb[mismatchAt] ^= 0xFF
				l, ex := longestMatch(a, bb)
				require.Equal(t, mismatchAt, l)
				require.False(t, ex)
			}
		})
	}
}

// TestSIMDScalarAgreement is spec §8 property #5.
func TestSIMDScalarAgreement(t *testing.T) {
	f := func(a, b []byte) bool {
		l1, e1 := longestMatch(a, b)
		l2, e2 := longestMatchScalar(a, b)
		return l1 == l2 && e1 == e2
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 2000}); err != nil {
		t.Error(err)
	}
}

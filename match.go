package bps

import (
	"math/bits"

	"github.com/ajroetker/go-highway/hwy"
)

// laneWidth is the SIMD lane width in bytes this matcher processes per
// vector compare, mirroring the 16-byte chunks go-highway's
// BaseFindVarintEnds uses for its NEON/AVX2-compatible load shape.
const laneWidth = 16

// longestMatch returns the length of the longest common prefix of a and b,
// and whether that length exhausts b (i.e. b is a prefix of a). This is
// the primitive both the encoder's search step and its literal-vs-copy
// comparisons are built on (spec §4.3).
func longestMatch(a, b []byte) (length int, exhausted bool) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	i := 0
	for i+laneWidth <= n {
		va := hwy.LoadSlice[uint8](a[i : i+laneWidth])
		vb := hwy.LoadSlice[uint8](b[i : i+laneWidth])
		eqMask := hwy.Equal(va, vb)
		bits16 := uint32(hwy.BitsFromMask(eqMask))
		if bits16 == 0xFFFF {
			i += laneWidth
			continue
		}
		// Not every byte in this lane matched -- the first cleared bit
		// of the equality mask is the mismatch position, so it is read
		// straight from the mask without a scalar pass over the lane.
		mismatchOffset := bits.TrailingZeros32(^bits16 & 0xFFFF)
		return i + mismatchOffset, i+mismatchOffset == len(b)
	}

	// Scalar tail for the remainder shorter than one lane.
	for i < n && a[i] == b[i] {
		i++
	}
	return i, i == len(b)
}

// longestMatchScalar is the pure byte-at-a-time reference implementation,
// kept so property-based tests can cross-validate it against longestMatch
// on every platform (spec §8 property #5: "SIMD/scalar agreement").
func longestMatchScalar(a, b []byte) (length int, exhausted bool) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i, i == len(b)
}

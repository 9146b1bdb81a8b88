package bps

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"
)

func TestPutUvarintEncodesOneByteWithBiasFlag(t *testing.T) {
	// 0b1011 (11) fits in one byte; the terminator flag is the high bit.
	got := putUvarint(nil, 0b1011)
	require.Equal(t, []byte{0b1000_1011}, got)
}

func TestPutUvarintEncodesTwoBytes(t *testing.T) {
	got := putUvarint(nil, 651) // 0b101_0001011
	require.Equal(t, []byte{0b0_0001011, 0b1_0000100}, got)
}

func TestReadUvarintDecodesOneByte(t *testing.T) {
	value, n, err := readUvarint([]byte{0b1000_1011})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.EqualValues(t, 11, value)
}

func TestReadUvarintDecodesTwoBytes(t *testing.T) {
	value, n, err := readUvarint([]byte{0b0_0001011, 0b1_0000100})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.EqualValues(t, 651, value)
}

func TestReadUvarintFailsOnTruncatedStream(t *testing.T) {
	_, _, err := readUvarint([]byte{0x01, 0x02}) // no terminator byte
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestUvarintRoundTripProperty(t *testing.T) {
	// Spec §8 property #3: every n in [0, 2^64) round-trips, and its
	// encoding is between 1 and 10 bytes.
	f := func(n uint64) bool {
		encoded := putUvarint(nil, n)
		if len(encoded) < 1 || len(encoded) > maxVarintBytes {
			return false
		}
		if len(encoded) != uvarintSize(n) {
			return false
		}
		decoded, consumed, err := readUvarint(encoded)
		return err == nil && consumed == len(encoded) && decoded == n
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestSignedOffsetRoundTripProperty(t *testing.T) {
	// Spec §8 property #4, restricted to the 32-bit range spec.md names.
	f := func(d int32) bool {
		delta := int64(d)
		encoded := putSignedOffset(nil, delta)
		decoded, consumed, err := readSignedOffset(encoded)
		return err == nil && consumed == len(encoded) && decoded == delta
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestSignedOffsetZeroHasSingleEncoding(t *testing.T) {
	// +0 and -0 share one encoding (spec §4.1).
	require.Equal(t, putSignedOffset(nil, 0), putSignedOffset(nil, 0))
	d, _, err := readSignedOffset(putSignedOffset(nil, 0))
	require.NoError(t, err)
	require.EqualValues(t, 0, d)
}

func TestBigNumberTakesTenBytes(t *testing.T) {
	const big uint64 = 0xdeadbeefdeadbeef
	encoded := putUvarint(nil, big)
	require.Len(t, encoded, 10)

	decoded, n, err := readUvarint(encoded)
	require.NoError(t, err)
	require.Equal(t, 10, n)
	require.Equal(t, big, decoded)
}

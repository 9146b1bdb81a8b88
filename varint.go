package bps

// maxVarintBytes bounds a single varint read so a malicious or truncated
// patch can't force an unbounded scan: ceil(64/7) == 10.
const maxVarintBytes = 10

// putUvarint appends the BPS non-canonical varint encoding of n to dst and
// returns the extended slice. Every 7-bit group but the last contributes a
// bias of 128^(k+1) in addition to its own value, which is what makes the
// encoding of every non-negative integer unique (spec §4.1) -- a plain
// base-128 encoding would let a high group of zero be omitted or included
// ambiguously.
func putUvarint(dst []byte, n uint64) []byte {
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n == 0 {
			return append(dst, 0x80|b)
		}
		dst = append(dst, b)
		n--
	}
}

// uvarintSize returns the number of bytes putUvarint would emit for n,
// without allocating.
func uvarintSize(n uint64) int {
	size := 1
	for {
		n >>= 7
		if n == 0 {
			return size
		}
		n--
		size++
	}
}

// readUvarint decodes one BPS varint from the front of src, returning the
// value and the number of bytes consumed. It fails with ErrTruncated if the
// terminator byte isn't found within maxVarintBytes.
func readUvarint(src []byte) (value uint64, n int, err error) {
	var scale uint64 = 1
	for n = 0; n < len(src) && n < maxVarintBytes; n++ {
		b := src[n]
		value += uint64(b&0x7f) * scale
		if b&0x80 != 0 {
			return value, n + 1, nil
		}
		scale <<= 7
		value += scale
	}
	return 0, 0, &Error{Kind: Truncated, Detail: "varint runs past end of patch"}
}

// putSignedOffset appends the sign-magnitude encoding of a signed offset:
// the sign occupies the low bit, the magnitude the rest. This is distinct
// from zigzag encoding -- +0 and -0 share a single representation.
func putSignedOffset(dst []byte, d int64) []byte {
	var u uint64
	if d < 0 {
		u = (uint64(-d) << 1) | 1
	} else {
		u = uint64(d) << 1
	}
	return putUvarint(dst, u)
}

// readSignedOffset decodes a sign-magnitude signed offset varint.
func readSignedOffset(src []byte) (value int64, n int, err error) {
	u, n, err := readUvarint(src)
	if err != nil {
		return 0, 0, err
	}
	mag := int64(u >> 1)
	if u&1 != 0 {
		return -mag, n, nil
	}
	return mag, n, nil
}

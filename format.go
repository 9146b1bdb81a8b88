// Package bps implements the BPS1 binary patch format: given a source byte
// sequence and a target byte sequence, Encode produces a compact patch that
// Decode can later apply to the same source to reconstruct the target
// exactly. See spec.md / SPEC_FULL.md for the normative wire format.
package bps

import "hash/crc32"

// magic is the fixed 4-byte header every BPS1 patch starts with.
var magic = [4]byte{'B', 'P', 'S', '1'}

// Command opcodes, packed into the low 2 bits of each command varint.
const (
	opSourceRead = iota
	opTargetRead
	opSourceCopy
	opTargetCopy
)

// trailerSize is the 12 trailing bytes: three little-endian CRC32 values.
const trailerSize = 12

// minPatchSize is magic(4) + three zero-length-size varints(3) + trailer(12).
const minPatchSize = 4 + 1 + 1 + 1 + trailerSize

// maxSize is the largest byte range length this codec accepts, matching the
// reference implementation's signed 32-bit length fields (spec §3).
const maxSize = 1<<31 - 1

// patchSelfCRC is the fixed constant produced by CRC32(data ++
// LE32(CRC32(data))) for any data -- the concatenation identity spec §4.2
// describes. The decoder uses it to validate the patch file against
// itself without needing an externally supplied copy of the patch's CRC.
const patchSelfCRC = 0x2144DF1C

// crc32Table is the CRC-32/ISO-HDLC (reflected 0xEDB88320) table, the same
// one hash/crc32.ChecksumIEEE uses. Spec §4.2 calls CRC32 a well-known
// external function with a standard polynomial, so this codec defers to
// the stdlib implementation rather than hand-rolling one.
var crc32Table = crc32.IEEETable

func checksum(b []byte) uint32 {
	return crc32.Checksum(b, crc32Table)
}

// Patch is a fully decoded BPS1 patch: header fields plus the raw command
// stream, independent of any particular source/target pair. ParsePatch
// returns one (Decode uses it internally); Encode builds the wire bytes directly rather than materializing a
// Patch (the encoder never needs to re-read its own output).
type Patch struct {
	SourceSize uint64
	TargetSize uint64
	Metadata   string
	Commands   []byte // raw command stream, between the metadata block and the trailer

	SourceChecksum uint32
	TargetChecksum uint32
	PatchChecksum  uint32
}

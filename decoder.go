package bps

import "encoding/binary"

// ParsePatch splits a raw BPS1 byte sequence into its header fields, raw
// command stream, and trailer, without executing any commands. Decode uses
// it internally; it's exported because callers sometimes want header
// fields (e.g. declared sizes, metadata) without materializing a target.
func ParsePatch(raw []byte) (Patch, error) {
	if len(raw) < minPatchSize {
		return Patch{}, &Error{Kind: BadHeader, Detail: "patch shorter than minimum header+trailer size"}
	}
	if raw[0] != magic[0] || raw[1] != magic[1] || raw[2] != magic[2] || raw[3] != magic[3] {
		return Patch{}, &Error{Kind: BadHeader, Detail: "magic bytes are not BPS1"}
	}
	rest := raw[4:]

	sourceSize, n, err := readUvarint(rest)
	if err != nil {
		return Patch{}, err
	}
	rest = rest[n:]

	targetSize, n, err := readUvarint(rest)
	if err != nil {
		return Patch{}, err
	}
	rest = rest[n:]

	metadataSize, n, err := readUvarint(rest)
	if err != nil {
		return Patch{}, err
	}
	rest = rest[n:]

	if sourceSize > maxSize || targetSize > maxSize {
		return Patch{}, &Error{Kind: SizeOverflow, Detail: "declared size exceeds 2^31-1"}
	}
	if metadataSize > uint64(len(rest)) {
		return Patch{}, &Error{Kind: Truncated, Detail: "metadata runs past end of patch"}
	}
	metadata := string(rest[:metadataSize])
	rest = rest[metadataSize:]

	if len(rest) < trailerSize {
		return Patch{}, &Error{Kind: BadHeader, Detail: "patch missing trailer"}
	}
	commandLen := len(rest) - trailerSize
	commands := rest[:commandLen]
	trailer := rest[commandLen:]

	return Patch{
		SourceSize:     sourceSize,
		TargetSize:     targetSize,
		Metadata:       metadata,
		Commands:       commands,
		SourceChecksum: binary.LittleEndian.Uint32(trailer[0:4]),
		TargetChecksum: binary.LittleEndian.Uint32(trailer[4:8]),
		PatchChecksum:  binary.LittleEndian.Uint32(trailer[8:12]),
	}, nil
}

// Decode applies patch against source and returns the reconstructed
// target. Hard errors (malformed header, truncated command stream, a
// command that would read or write out of bounds) abort and return a
// non-nil error. CRC mismatches never abort -- they're accumulated into
// the returned warning list, per spec §4.4 and §7.
func Decode(source, patch []byte) (target []byte, warnings []Warning, err error) {
	p, err := ParsePatch(patch)
	if err != nil {
		return nil, nil, err
	}
	if p.SourceSize != uint64(len(source)) {
		return nil, nil, &Error{Kind: SizeMismatch, Detail: "declared source size does not match actual source length"}
	}

	target = make([]byte, p.TargetSize)

	var outputPos, sourceOff, targetOff uint64
	remaining := p.Commands

	for len(remaining) > 0 {
		header, n, err := readUvarint(remaining)
		if err != nil {
			return nil, nil, err
		}
		remaining = remaining[n:]

		action := header & 3
		length := (header >> 2) + 1

		if outputPos+length > p.TargetSize {
			return nil, nil, &Error{Kind: Truncated, Detail: "command would write past declared target size"}
		}

		switch action {
		case opSourceRead:
			if outputPos+length > uint64(len(source)) {
				return nil, nil, &Error{Kind: Truncated, Detail: "SourceRead would read past end of source"}
			}
			copy(target[outputPos:outputPos+length], source[outputPos:outputPos+length])
			outputPos += length

		case opTargetRead:
			if uint64(len(remaining)) < length {
				return nil, nil, &Error{Kind: Truncated, Detail: "TargetRead literal runs past end of patch"}
			}
			copy(target[outputPos:outputPos+length], remaining[:length])
			remaining = remaining[length:]
			outputPos += length

		case opSourceCopy:
			delta, n, err := readSignedOffset(remaining)
			if err != nil {
				return nil, nil, err
			}
			remaining = remaining[n:]
			sourceOff = addSignedOffset(sourceOff, delta)
			if sourceOff > uint64(len(source)) || sourceOff+length > uint64(len(source)) {
				return nil, nil, &Error{Kind: Truncated, Detail: "SourceCopy would read past end of source"}
			}
			copy(target[outputPos:outputPos+length], source[sourceOff:sourceOff+length])
			sourceOff += length
			outputPos += length

		case opTargetCopy:
			delta, n, err := readSignedOffset(remaining)
			if err != nil {
				return nil, nil, err
			}
			remaining = remaining[n:]
			targetOff = addSignedOffset(targetOff, delta)
			if targetOff > outputPos {
				return nil, nil, &Error{Kind: Truncated, Detail: "TargetCopy read range exceeds write range"}
			}
			copyTargetOverlap(target, targetOff, outputPos, length)
			targetOff += length
			outputPos += length
		}
	}

	if outputPos != p.TargetSize {
		warnings = append(warnings, Warning{Kind: TargetSizeMismatch, Expected: uint32(p.TargetSize), Actual: uint32(outputPos)})
	}

	if got := checksum(patch); got != patchSelfCRC {
		warnings = append(warnings, Warning{Kind: PatchCRCMismatch, Expected: patchSelfCRC, Actual: got})
	}
	if got := checksum(source); got != p.SourceChecksum {
		warnings = append(warnings, Warning{Kind: SourceCRCMismatch, Expected: p.SourceChecksum, Actual: got})
	}
	if got := checksum(target); got != p.TargetChecksum {
		warnings = append(warnings, Warning{Kind: TargetCRCMismatch, Expected: p.TargetChecksum, Actual: got})
	}

	return target, warnings, nil
}

// addSignedOffset applies a signed delta to an unsigned cursor. Cursors are
// modeled as uint64 rather than int64 because they're never legitimately
// negative once applied -- execution fails with Truncated before a
// negative read/write range is attempted.
func addSignedOffset(cursor uint64, delta int64) uint64 {
	if delta < 0 {
		return cursor - uint64(-delta)
	}
	return cursor + uint64(delta)
}

// copyTargetOverlap copies length bytes from target[readStart:] to
// target[writeStart:], handling the case where the read window overlaps
// the write window. A bulk copy() is only correct when the ranges don't
// overlap; when they do, each written byte must become visible to
// subsequent reads within the same command, producing the run-length
// repetition that is TargetCopy's defining feature (spec §4.4).
func copyTargetOverlap(target []byte, readStart, writeStart, length uint64) {
	if readStart+length <= writeStart {
		copy(target[writeStart:writeStart+length], target[readStart:readStart+length])
		return
	}
	for i := uint64(0); i < length; i++ {
		target[writeStart+i] = target[readStart+i]
	}
}

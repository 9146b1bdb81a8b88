package bps

import "bytes"

// minMatchLength is the sentinel spec §4.5 describes: a copy command costs
// at least one length/opcode varint plus one signed-offset varint, so a
// match shorter than 4 bytes is never cheaper than a literal.
const minMatchLength = 4

// SearchBackend selects which substring-search implementation the encoder
// uses for its SourceCopy/TargetCopy candidate search (spec §4.5). Linear
// is the only backend every conforming implementation must ship; the
// other two are performance specializations for larger inputs or
// repeated encodes against the same source.
type SearchBackend int

const (
	SearchLinear SearchBackend = iota
	SearchRollingHash
	SearchSuffixArray
)

func newSearcher(backend SearchBackend, haystack []byte) searcher {
	switch backend {
	case SearchRollingHash:
		return newRollingHashSearcher(haystack)
	case SearchSuffixArray:
		return newSuffixArraySearcher(haystack)
	default:
		return newLinearSearcher(haystack)
	}
}

// EncodeOptions configures the encoder's search backend. The zero value
// selects SearchLinear, correct (if slow on large inputs) for every case.
type EncodeOptions struct {
	Backend SearchBackend
}

// action is the tagged sum type spec §9 calls for: a dispatch table on a
// 2-bit opcode in the decoder, and (here) three ordered candidate
// evaluations in the encoder, never a class hierarchy.
type action struct {
	kind   int // opSourceRead, opSourceCopy, opTargetCopy, or -1 for "no copy found"
	length int
	start  int // meaning depends on kind: source or target start position
}

const actionNone = -1

// Encode produces a BPS1 patch that, applied to source via Decode,
// reconstructs target exactly. metadata is carried opaquely in the patch
// header. Every scratch structure (search backend, pending-literal
// builder) is constructed fresh inside this call and dropped on return --
// no state persists between calls, by design (spec §9 "encoder
// contamination" note: a clean reimplementation must avoid persistent
// mutable state between Encode calls).
func Encode(source, target []byte, metadata string) ([]byte, error) {
	return EncodeWithOptions(source, target, metadata, EncodeOptions{})
}

// EncodeWithOptions is Encode with an explicit search-backend choice.
func EncodeWithOptions(source, target []byte, metadata string, opts EncodeOptions) ([]byte, error) {
	if len(target) == 0 {
		return nil, &Error{Kind: EmptyTarget, Detail: "target length is 0"}
	}
	if len(source) > maxSize || len(target) > maxSize {
		return nil, &Error{Kind: SizeOverflow, Detail: "input exceeds 2^31-1 bytes"}
	}

	var body bytes.Buffer
	body.Write(magic[:])
	writeUvarintTo(&body, uint64(len(source)))
	writeUvarintTo(&body, uint64(len(target)))
	writeUvarintTo(&body, uint64(len(metadata)))
	body.WriteString(metadata)

	// The source range is fixed for the whole encode, so its searcher can
	// use whichever backend the caller chose (and, for the suffix-array
	// backend, amortize construction across every position). The target
	// prefix target[:pos] grows by one position at a time, so there is no
	// fixed haystack to amortize a precomputed index over; its candidate
	// search is targetSelfSearch, an exhaustive scan that builds no index
	// and ignores the chosen backend.
	sourceSearch := newSearcher(opts.Backend, source)

	var sourceOff, targetOff int
	var literalStart = -1

	flushLiteral := func(end int) {
		if literalStart < 0 {
			return
		}
		length := end - literalStart
		writeCommand(&body, opTargetRead, length)
		body.Write(target[literalStart:end])
		literalStart = -1
	}

	pos := 0
	for pos < len(target) {
		act := findNextAction(source, target, pos, sourceSearch)

		if act.kind == actionNone {
			if literalStart < 0 {
				literalStart = pos
			}
			pos++
			continue
		}

		flushLiteral(pos)

		switch act.kind {
		case opSourceRead:
			writeCommand(&body, opSourceRead, act.length)
		case opSourceCopy:
			delta := act.start - sourceOff
			writeCommand(&body, opSourceCopy, act.length)
			writeSignedOffsetTo(&body, int64(delta))
			sourceOff = act.start + act.length
		case opTargetCopy:
			delta := act.start - targetOff
			writeCommand(&body, opTargetCopy, act.length)
			writeSignedOffsetTo(&body, int64(delta))
			targetOff = act.start + act.length
		}
		pos += act.length
	}
	flushLiteral(pos)

	sourceCRC := checksum(source)
	targetCRC := checksum(target)
	var crcBuf [4]byte
	putLE32(crcBuf[:], sourceCRC)
	body.Write(crcBuf[:])
	putLE32(crcBuf[:], targetCRC)
	body.Write(crcBuf[:])

	patchCRC := checksum(body.Bytes())
	putLE32(crcBuf[:], patchCRC)
	body.Write(crcBuf[:])

	return body.Bytes(), nil
}

// findNextAction implements spec §4.5's per-position candidate evaluation:
// SourceRead, then SourceCopy, then TargetCopy, each adopted only on a
// strictly longer match than the best seen so far. This ordering (not
// part of the wire format) is what makes SourceRead win ties over
// SourceCopy over TargetCopy, matching the reference encoder's output for
// reproducibility.
func findNextAction(source, target []byte, pos int, sourceSearch searcher) action {
	best := action{kind: actionNone, length: minMatchLength - 1}

	if pos < len(source) {
		l, exhausted := longestMatch(source[pos:], target[pos:])
		if l > best.length {
			best = action{kind: opSourceRead, length: l, start: pos}
			if exhausted {
				return best
			}
		}
	}

	if len(source) > 0 {
		l, start := sourceSearch.findLongest(target[pos:])
		if l > best.length {
			best = action{kind: opSourceCopy, length: l, start: start}
		}
	}

	if pos > 0 {
		l, start := targetSelfSearch(target, pos)
		if l > best.length {
			best = action{kind: opTargetCopy, length: l, start: start}
		}
	}

	return best
}

// targetSelfSearch finds the longest run achievable by a TargetCopy
// command at output position pos: the longest match between some earlier
// start < pos and the remainder of target starting at pos.
//
// This cannot reuse the generic searcher backends used for SourceCopy:
// those treat haystack and needle as disjoint ranges, but a TargetCopy's
// read window is allowed to run into territory the command's own write
// is still producing (spec §4.4's overlap semantics, the format's
// defining feature for expressing run-length repetition). Since the
// encoder holds the complete, already-known target buffer, the match
// extension is simply a direct comparison against target itself past
// pos -- there's no "haystack" boundary to respect on the read side, only
// the requirement that the candidate start precede pos.
func targetSelfSearch(target []byte, pos int) (length, start int) {
	bestLen := 0
	bestStart := 0
	limit := pos
	for i := 0; i < limit; i++ {
		l, exhausted := targetOverlapMatchLen(target, i, pos)
		if l > bestLen {
			bestLen = l
			bestStart = i
			if exhausted {
				return bestLen, bestStart
			}
			// Unlike a disjoint-range search, a longer match doesn't
			// necessarily rule out starts closer to pos (periodic
			// content can match just as long from several starts), so
			// no early-termination shrinks limit here.
		}
	}
	return bestLen, bestStart
}

// targetOverlapMatchLen compares target[start:] against target[pos:],
// byte by byte, allowing start+k to run past pos -- which is exactly what
// happens when the decoder executes the resulting command, since each
// byte it reads was written earlier in the very same forward pass.
func targetOverlapMatchLen(target []byte, start, pos int) (length int, exhausted bool) {
	n := len(target) - pos
	i := 0
	for i < n && target[start+i] == target[pos+i] {
		i++
	}
	return i, i == n
}

func writeCommand(buf *bytes.Buffer, op, length int) {
	header := uint64(length-1)<<2 | uint64(op)
	writeUvarintTo(buf, header)
}

func writeUvarintTo(buf *bytes.Buffer, n uint64) {
	var tmp [maxVarintBytes]byte
	out := putUvarint(tmp[:0], n)
	buf.Write(out)
}

func writeSignedOffsetTo(buf *bytes.Buffer, d int64) {
	var tmp [maxVarintBytes]byte
	out := putSignedOffset(tmp[:0], d)
	buf.Write(out)
}

func putLE32(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
}

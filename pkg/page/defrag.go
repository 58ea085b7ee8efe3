package page

import "time"

// Defrag performs a single incremental compaction step.
//
// It pops the smallest-offset queued gap and reclaims it:
//
//   - If the gap is trailing — its end coincides with the current cursor —
//     there is nothing after it to move, so the cursor is simply rewound
//     to the gap's offset. This is the cheap case and is why gaps are
//     processed smallest-offset-first: a trailing gap can only be
//     recognized once every gap before it has already been reclaimed.
//   - Otherwise, the live bytes between the gap's end and the cursor are
//     shifted left by the gap's length with an overlap-safe copy, the
//     vacated tail is zero-filled, and every entry in the shifted region
//     is re-read and re-indexed at its new offset.
//
// Every gap still queued after this call has its offset rebased if the
// shift moved the bytes it points at (see rebaseGaps). Without this, a
// later Defrag call would pop a gap pointing at whatever now occupies its
// stale offset — not necessarily a tombstone header at all — and the
// subsequent memmove would read byte counts computed from that garbage.
// See SPEC_FULL.md §9 (open question 3) for why this departs from the
// system the format is derived from.
//
// Defrag is a no-op, returning false, if no gaps are queued. Callers that
// need a fully compacted page call Defrag repeatedly until QueuedGaps in
// Stats reaches zero. On a closed store Defrag returns ErrPageClosed.
// Otherwise a non-nil error means the shifted region's bytes didn't decode
// as the entries the index expected, or the flush after the shift failed;
// the page is left in whatever state the shift and zero-fill reached
// before the error.
func (s *Store) Defrag() (bool, error) {
	start := time.Now()
	if s.closed {
		return false, ErrPageClosed
	}

	g, ok := s.gaps.popGap()
	if !ok {
		return false, nil
	}

	if g.offset+g.length == s.offset {
		s.offset = g.offset
		s.metrics.ObserveDefrag(g.length, 0, time.Since(start))
		s.metrics.SetGauges(s.offset, len(s.index), s.gaps.Len())
		s.logDebug("defrag: trailing gap reclaimed", "offset", g.offset, "length", g.length)
		return true, nil
	}

	tailStart := g.offset + g.length
	tailLen := s.offset - tailStart
	copy(s.file.data[g.offset:g.offset+tailLen], s.file.data[tailStart:tailStart+tailLen])

	newCursor := g.offset + tailLen
	zeroFill(s.file.data[newCursor:s.offset])
	s.offset = newCursor

	reindexed, err := s.reindexFrom(g.offset, newCursor)
	if err != nil {
		return false, err
	}
	s.rebaseGaps(tailStart, g.length)

	if err := s.file.flush(); err != nil {
		return false, err
	}

	s.metrics.ObserveDefrag(g.length, reindexed, time.Since(start))
	s.metrics.SetGauges(s.offset, len(s.index), s.gaps.Len())
	s.logDebug("defrag: shifted region re-indexed", "offset", g.offset, "length", g.length, "entries", reindexed)
	return true, nil
}

// reindexFrom walks entries starting at offset until end, rewriting the
// index for every live entry it finds. Tombstoned entries in the shifted
// region are skipped here; their queued gaps are moved to the new offsets
// by rebaseGaps (see Defrag's doc comment). A key that fails UTF-8 validation
// means the shifted bytes don't hold the entry this loop expects, so the
// walk stops and reports ErrCorrupted rather than indexing garbage.
func (s *Store) reindexFrom(offset, end uint64) (int, error) {
	count := 0
	for offset < end {
		h := decodeHeaderAt(s.file.data, offset)
		if !h.tombstoned() {
			key, err := decodeKey(s.file.data[h.dataOffset() : h.dataOffset()+h.keySize])
			if err != nil {
				return count, err
			}
			s.index[key] = offset
			count++
		}
		offset += h.totalSize()
	}
	return count, nil
}

// rebaseGaps corrects the offset of every gap still queued after a shift:
// any gap at or past shiftStart moved left by shiftLen bytes along with
// the live entries it was interleaved with. Gaps before shiftStart were
// not touched by the memmove and keep their offset.
func (s *Store) rebaseGaps(shiftStart, shiftLen uint64) {
	pending := make([]gap, len(s.gaps))
	copy(pending, s.gaps)
	s.gaps = s.gaps[:0]
	for _, g := range pending {
		if g.offset >= shiftStart {
			g.offset -= shiftLen
		}
		s.gaps.pushGap(g)
	}
}

// zeroFill clears a byte range, used to keep the vacated tail of a defrag
// shift free of stale entry bytes so a subsequent recovery scan stops
// cleanly instead of reading garbage as a header.
func zeroFill(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

package page

// recover replays an existing page file from offset 0, reconstructing the
// in-memory index and gap heap that createPageFile starts with for a new
// file.
//
// The scan stops at the first header whose data_type byte is 0: a byte
// that can never appear in a header written by encodeHeader (data types
// start at 1), so a run of zero bytes can only mean the page's unwritten
// tail. Any other unrecognized data_type byte before that point means the
// file was not produced by this format, or was truncated mid-entry, and
// recovery fails with ErrCorrupted rather than guessing.
func (s *Store) recover() error {
	var offset uint64
	for offset < s.capacity {
		dataType := s.file.data[offset]
		if dataType == 0 {
			break
		}
		if !validDataType(dataType) {
			return ErrCorrupted
		}

		h := decodeHeaderAt(s.file.data, offset)
		if h.dataOffset()+h.keySize+h.valueSize > s.capacity {
			return ErrCorrupted
		}

		if h.tombstoned() {
			s.gaps.pushGap(gap{offset: offset, length: h.totalSize()})
		} else {
			key, err := decodeKey(s.file.data[h.dataOffset() : h.dataOffset()+h.keySize])
			if err != nil {
				return err
			}
			s.index[key] = offset
		}

		offset += h.totalSize()
	}

	s.offset = offset
	return nil
}

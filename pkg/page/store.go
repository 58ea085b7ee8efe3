// Package page implements a single-file, fixed-capacity, append-oriented
// key-value page store: a memory-mapped region on disk that maps string
// keys to one of three typed values (UTF-8 text, uint64, or an opaque
// blob), with point reads/writes/deletes and incremental, step-wise
// compaction ("defrag") that reclaims space left by deletions.
//
// A Store is single-writer, single-reader: it is not internally
// synchronized. Callers that need concurrent access must wrap every public
// call in an external mutex; see SPEC_FULL.md for the reasoning.
package page

import (
	"fmt"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"
)

// DefaultCapacity is the fixed page size used when no other capacity is
// requested: 4 MiB.
const DefaultCapacity = 4 * 1024 * 1024

// Store is a page: a backing file, its memory mapping, and the runtime
// state (index, gap heap, append cursor) needed to serve reads, writes,
// deletes, and defrag.
type Store struct {
	path     string
	capacity uint64

	file   *pageFile
	index  map[string]uint64
	gaps   gapHeap
	offset uint64
	closed bool

	log     *slog.Logger
	metrics Metrics
}

// Option configures optional Store behavior at Open time.
type Option func(*Store)

// WithLogger attaches a structured logger. Diagnostic events (entry
// counts, defrag steps, corruption during recovery) are emitted through
// it. A nil logger (the default) disables logging, not panics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithMetrics attaches an optional instrumentation sink. Pass nil (the
// default) for zero overhead.
func WithMetrics(m Metrics) Option {
	return func(s *Store) {
		if m != nil {
			s.metrics = m
		}
	}
}

// Open creates or opens the page file at path.
//
// If the file does not exist, it is created exclusively, sized to
// capacity, and mapped; the returned store is empty (offset=0, no index
// entries, no gaps). If mapping fails after the file was created, the
// file is removed and ErrMmapCreation is returned.
//
// If the file exists, Open validates its size against capacity and
// replays it with a recovery scan (see §4.2 of SPEC_FULL.md): live
// entries populate the index, tombstoned entries populate the gap heap,
// and the cursor is left one byte past the last entry read.
func Open(path string, capacity uint64, opts ...Option) (*Store, error) {
	if capacity == 0 {
		capacity = DefaultCapacity
	}

	s := &Store{
		path:     path,
		capacity: capacity,
		index:    make(map[string]uint64),
		metrics:  noopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}

	exists, err := fileExists(path)
	if err != nil {
		return nil, err
	}

	if exists {
		pf, err := openPageFile(path, capacity)
		if err != nil {
			return nil, err
		}
		s.file = pf
		if err := s.recover(); err != nil {
			s.logWarn("page recovery failed", "path", path, "error", err)
			pf.close()
			return nil, err
		}
		s.logInfo("page opened from existing file", "path", path, "offset", s.offset, "live_entries", len(s.index))
		return s, nil
	}

	pf, err := createPageFile(path, capacity)
	if err != nil {
		return nil, err
	}
	s.file = pf
	s.logInfo("page created", "path", path, "capacity", capacity)
	return s, nil
}

// Insert records key mapping to value at the current cursor, advances the
// cursor, and flushes.
//
// The capacity check below only accounts for the value's encoded byte
// length, not the header or key bytes that will also be written; this
// under-counting is intentional and preserved from the system this format
// is derived from (see SPEC_FULL.md §9, open question 2). A write can
// therefore still exceed the page if key_size + header_size pushes it
// over, in which case it does not return a clean error: if the header,
// the key, or an Integer value runs past the end, the write panics; String
// or Blob bytes past the end are silently dropped while the cursor still
// advances by the full entry size. Callers should size keys
// conservatively relative to remaining capacity.
func (s *Store) Insert(key string, v Value) error {
	start := time.Now()
	if s.closed {
		return ErrPageClosed
	}
	if !utf8.ValidString(key) {
		return ErrInvalidDataType
	}

	if s.offset+v.encodedLength() > s.capacity {
		return ErrNoSpaceLeft
	}
	if _, exists := s.index[key]; exists {
		return ErrKeyAlreadyExists
	}

	h := entryHeader{
		offset:    s.offset,
		dataType:  v.typ,
		flags:     flagLive,
		keySize:   uint64(len(key)),
		valueSize: v.encodedLength(),
	}

	encodeHeader(s.file.data, h)
	copy(s.file.data[h.dataOffset():], key)
	encodeValue(s.file.data[h.dataOffset()+h.keySize:], v)

	s.index[key] = s.offset
	s.offset += h.totalSize()

	if err := s.file.flush(); err != nil {
		return err
	}

	s.metrics.ObserveInsert(h.totalSize(), time.Since(start))
	s.metrics.SetGauges(s.offset, len(s.index), s.gaps.Len())
	s.logDebug("insert", "key", key, "type", v.typ.String(), "offset", h.offset, "size", h.totalSize())
	return nil
}

// Get decodes and returns the value stored for key. It never mutates
// state.
func (s *Store) Get(key string) (Value, error) {
	start := time.Now()
	if s.closed {
		return Value{}, ErrPageClosed
	}

	off, ok := s.index[key]
	if !ok {
		s.metrics.ObserveGet(false, time.Since(start))
		return Value{}, ErrKeyDoesNotExist
	}

	h := decodeHeaderAt(s.file.data, off)
	if !validDataType(byte(h.dataType)) {
		return Value{}, ErrInvalidDataType
	}

	valStart := h.dataOffset() + h.keySize
	v, err := decodeValue(h.dataType, s.file.data[valStart:valStart+h.valueSize])
	s.metrics.ObserveGet(err == nil, time.Since(start))
	return v, err
}

// Delete tombstones the entry for key: it flips the header's flag byte,
// removes the key from the index, and queues the freed region as a gap
// for a future Defrag call.
func (s *Store) Delete(key string) error {
	start := time.Now()
	if s.closed {
		return ErrPageClosed
	}

	off, ok := s.index[key]
	if !ok {
		return ErrKeyDoesNotExist
	}

	h := decodeHeaderAt(s.file.data, off)
	if h.tombstoned() {
		// Defensive: under the index invariants a live key never points
		// at a tombstoned header, so this branch should be unreachable.
		return ErrEntryAlreadyDeleted
	}

	h.flags = flagTombstone
	s.file.data[h.offset+offsetFlags] = flagTombstone

	delete(s.index, key)
	s.gaps.pushGap(gap{offset: h.offset, length: h.totalSize()})

	if err := s.file.flush(); err != nil {
		return err
	}

	s.metrics.ObserveDelete(time.Since(start))
	s.metrics.SetGauges(s.offset, len(s.index), s.gaps.Len())
	s.logDebug("delete", "key", key, "offset", h.offset, "size", h.totalSize())
	return nil
}

// Clear empties the index, resets the cursor to 0, and flushes. The gap
// heap is dropped: the page is considered clean and the residual bytes
// beyond offset=0 are logically unreachable. If deleteFile is true, the
// backing file is unlinked after the reset and the store can no longer be
// used.
func (s *Store) Clear(deleteFile bool) error {
	if s.closed {
		return ErrPageClosed
	}

	clear(s.index)
	s.gaps = nil
	s.offset = 0

	if err := s.file.flush(); err != nil {
		return err
	}

	s.metrics.SetGauges(0, 0, 0)
	s.logInfo("page cleared", "delete_file", deleteFile)

	if deleteFile {
		if err := s.file.close(); err != nil {
			return err
		}
		if err := s.file.unlink(s.path); err != nil {
			return err
		}
		s.closed = true
	}
	return nil
}

// Close unmaps and closes the backing file without deleting it.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.close()
}

// Offset returns the current append cursor.
func (s *Store) Offset() uint64 {
	return s.offset
}

// Capacity returns the fixed page size this store was opened with.
func (s *Store) Capacity() uint64 {
	return s.capacity
}

// Stats summarizes a store's current occupancy for observability and
// CLI introspection.
type Stats struct {
	Offset      uint64
	Capacity    uint64
	LiveEntries int
	QueuedGaps  int
}

// Stats returns a point-in-time snapshot of store occupancy.
func (s *Store) Stats() Stats {
	return Stats{
		Offset:      s.offset,
		Capacity:    s.capacity,
		LiveEntries: len(s.index),
		QueuedGaps:  s.gaps.Len(),
	}
}

// EntryInfo summarizes one live entry's key, type, and offset, for
// introspection (e.g. the CLI's dump command). It does not include the
// value: callers that need it call Get.
type EntryInfo struct {
	Key    string
	Offset uint64
	Type   DataType
}

// Entries lists every live entry. The result is in no particular order.
func (s *Store) Entries() []EntryInfo {
	entries := make([]EntryInfo, 0, len(s.index))
	for key, off := range s.index {
		h := decodeHeaderAt(s.file.data, off)
		entries = append(entries, EntryInfo{Key: key, Offset: off, Type: h.dataType})
	}
	return entries
}

func (s *Store) logInfo(msg string, args ...any) {
	if s.log != nil {
		s.log.Info(msg, args...)
	}
}

func (s *Store) logDebug(msg string, args ...any) {
	if s.log != nil {
		s.log.Debug(msg, args...)
	}
}

func (s *Store) logWarn(msg string, args ...any) {
	if s.log != nil {
		s.log.Warn(msg, args...)
	}
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("page: stat %s: %w", path, err)
}

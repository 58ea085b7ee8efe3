package page

import (
	"bytes"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func openTestStore(t *testing.T, capacity uint64) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.dat")
	s, err := Open(path, capacity)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestScenario walks the canonical insert/read/delete/defrag/defrag
// sequence: four entries of mixed type, two deletes, and defrag called
// until the gap heap drains. The expected offsets are re-derived from the
// §4.3 algorithm with word size fixed at 8, not copied from the system
// this format is derived from (its numbers reflect a different,
// host-dependent word size; see SPEC_FULL.md §9).
func TestScenario(t *testing.T) {
	s := openTestStore(t, DefaultCapacity)

	blob := bytes.Repeat([]byte{0xaa}, 33)

	mustInsert(t, s, "albert", NewString("value"))
	mustInsert(t, s, "peter", NewInteger(123))
	mustInsert(t, s, "tom", NewString("my third value"))
	mustInsert(t, s, "dan", NewBlob(blob))

	const headerSize = 18
	wantOffset := uint64(headerSize+6+5) + uint64(headerSize+5+8) + uint64(headerSize+3+14) + uint64(headerSize+3+33)
	if s.Offset() != wantOffset {
		t.Fatalf("Offset() after inserts = %d, want %d", s.Offset(), wantOffset)
	}
	if s.index["peter"] != 29 {
		t.Fatalf(`index["peter"] = %d, want 29`, s.index["peter"])
	}

	// Read-back.
	mustGetEquals(t, s, "albert", NewString("value"))
	mustGetEquals(t, s, "peter", NewInteger(123))
	mustGetEquals(t, s, "tom", NewString("my third value"))
	mustGetEquals(t, s, "dan", NewBlob(blob))

	// Delete albert and dan, then defrag once: the smallest gap (albert,
	// offset 0, length 29) is reclaimed by shifting [29, offset) left by
	// 29, moving peter to 0 and tom to 31, and rebasing dan's queued gap
	// from 95 to 66.
	if err := s.Delete("albert"); err != nil {
		t.Fatalf("Delete(albert) error = %v", err)
	}
	if err := s.Delete("dan"); err != nil {
		t.Fatalf("Delete(dan) error = %v", err)
	}

	reclaimed, err := s.Defrag()
	if err != nil {
		t.Fatalf("Defrag() error = %v", err)
	}
	if !reclaimed {
		t.Fatal("Defrag() = false, want true (one gap queued)")
	}
	if s.Offset() != 120 {
		t.Fatalf("Offset() after first defrag = %d, want 120", s.Offset())
	}
	if s.index["peter"] != 0 {
		t.Fatalf(`index["peter"] after first defrag = %d, want 0`, s.index["peter"])
	}
	if s.index["tom"] != 31 {
		t.Fatalf(`index["tom"] after first defrag = %d, want 31`, s.index["tom"])
	}

	// Second defrag: dan's rebased gap (offset 66, length 54) is now
	// trailing (66+54 == offset 120), so this is a pure cursor rewind.
	reclaimed, err = s.Defrag()
	if err != nil {
		t.Fatalf("Defrag() error = %v", err)
	}
	if !reclaimed {
		t.Fatal("Defrag() = false, want true (one gap queued)")
	}
	if s.Offset() != 66 {
		t.Fatalf("Offset() after second defrag = %d, want 66", s.Offset())
	}

	// No more gaps queued.
	if reclaimed, err = s.Defrag(); err != nil {
		t.Fatalf("Defrag() error = %v", err)
	} else if reclaimed {
		t.Error("Defrag() = true after heap drained, want false")
	}

	mustGetEquals(t, s, "peter", NewInteger(123))
	mustGetEquals(t, s, "tom", NewString("my third value"))

	if _, err := s.Get("albert"); err != ErrKeyDoesNotExist {
		t.Errorf("Get(albert) error = %v, want ErrKeyDoesNotExist", err)
	}
	if _, err := s.Get("dan"); err != ErrKeyDoesNotExist {
		t.Errorf("Get(dan) error = %v, want ErrKeyDoesNotExist", err)
	}
}

func TestInsertRejectsDuplicateKey(t *testing.T) {
	s := openTestStore(t, DefaultCapacity)
	mustInsert(t, s, "k", NewInteger(1))
	if err := s.Insert("k", NewInteger(2)); err != ErrKeyAlreadyExists {
		t.Fatalf("Insert() error = %v, want ErrKeyAlreadyExists", err)
	}
}

func TestInsertRejectsWhenValueExceedsCapacity(t *testing.T) {
	s := openTestStore(t, 64)
	big := make([]byte, 128)
	if err := s.Insert("big", NewBlob(big)); err != ErrNoSpaceLeft {
		t.Fatalf("Insert() error = %v, want ErrNoSpaceLeft", err)
	}
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t, DefaultCapacity)
	if _, err := s.Get("missing"); err != ErrKeyDoesNotExist {
		t.Fatalf("Get() error = %v, want ErrKeyDoesNotExist", err)
	}
}

func TestDeleteMissingKey(t *testing.T) {
	s := openTestStore(t, DefaultCapacity)
	if err := s.Delete("missing"); err != ErrKeyDoesNotExist {
		t.Fatalf("Delete() error = %v, want ErrKeyDoesNotExist", err)
	}
}

func TestClearResetsPage(t *testing.T) {
	s := openTestStore(t, DefaultCapacity)
	mustInsert(t, s, "a", NewInteger(1))
	mustInsert(t, s, "b", NewInteger(2))
	if err := s.Delete("a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if err := s.Clear(false); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	if s.Offset() != 0 {
		t.Errorf("Offset() after Clear = %d, want 0", s.Offset())
	}
	if _, err := s.Get("b"); err != ErrKeyDoesNotExist {
		t.Errorf("Get(b) after Clear error = %v, want ErrKeyDoesNotExist", err)
	}
	if st := s.Stats(); st.QueuedGaps != 0 {
		t.Errorf("QueuedGaps after Clear = %d, want 0", st.QueuedGaps)
	}

	mustInsert(t, s, "b", NewString("fresh"))
	mustGetEquals(t, s, "b", NewString("fresh"))
}

func TestOpenRecoversExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.dat")

	s1, err := Open(path, DefaultCapacity)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	mustInsert(t, s1, "alive", NewString("value"))
	mustInsert(t, s1, "gone", NewInteger(7))
	if err := s1.Delete("gone"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	wantOffset := s1.Offset()
	if err := s1.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s2, err := Open(path, DefaultCapacity)
	if err != nil {
		t.Fatalf("reopen Open() error = %v", err)
	}
	defer s2.Close()

	if s2.Offset() != wantOffset {
		t.Errorf("Offset() after reopen = %d, want %d", s2.Offset(), wantOffset)
	}
	mustGetEquals(t, s2, "alive", NewString("value"))
	if _, err := s2.Get("gone"); err != ErrKeyDoesNotExist {
		t.Errorf("Get(gone) after reopen error = %v, want ErrKeyDoesNotExist", err)
	}
	if st := s2.Stats(); st.QueuedGaps != 1 {
		t.Errorf("QueuedGaps after reopen = %d, want 1", st.QueuedGaps)
	}
	if reclaimed, err := s2.Defrag(); err != nil {
		t.Errorf("Defrag() after reopen error = %v", err)
	} else if !reclaimed {
		t.Error("Defrag() after reopen = false, want true")
	}
}

func TestStatsAndEntriesReflectOccupancy(t *testing.T) {
	s := openTestStore(t, DefaultCapacity)
	mustInsert(t, s, "a", NewInteger(1))
	mustInsert(t, s, "b", NewString("two"))
	if err := s.Delete("a"); err != nil {
		t.Fatalf("Delete(a) error = %v", err)
	}

	wantStats := Stats{Offset: s.Offset(), Capacity: DefaultCapacity, LiveEntries: 1, QueuedGaps: 1}
	if diff := cmp.Diff(wantStats, s.Stats()); diff != "" {
		t.Errorf("Stats() mismatch (-want +got):\n%s", diff)
	}

	wantEntries := []EntryInfo{{Key: "b", Offset: 27, Type: TypeString}}
	gotEntries := s.Entries()
	sort.Slice(gotEntries, func(i, j int) bool { return gotEntries[i].Key < gotEntries[j].Key })
	if diff := cmp.Diff(wantEntries, gotEntries, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}
}

func mustInsert(t *testing.T, s *Store, key string, v Value) {
	t.Helper()
	if err := s.Insert(key, v); err != nil {
		t.Fatalf("Insert(%q) error = %v", key, err)
	}
}

func mustGetEquals(t *testing.T, s *Store, key string, want Value) {
	t.Helper()
	got, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get(%q) error = %v", key, err)
	}
	if !got.Equal(want) {
		t.Errorf("Get(%q) = %v, want %v", key, got, want)
	}
}

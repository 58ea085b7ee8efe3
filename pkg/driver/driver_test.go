package driver

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dittokv/pagestore/pkg/page"
)

func newTestDriver(t *testing.T) *Driver {
	t.Helper()
	store, err := page.Open(filepath.Join(t.TempDir(), "page.dat"), page.DefaultCapacity)
	if err != nil {
		t.Fatalf("page.Open() error = %v", err)
	}
	d := New(store, 8)

	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)
	t.Cleanup(func() {
		cancel()
		d.Close()
		store.Close()
	})
	return d
}

func TestDriverInsertGetDelete(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()

	if err := d.Insert(ctx, "k", page.NewString("v")); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := d.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Equal(page.NewString("v")) {
		t.Errorf("Get() = %v, want String(v)", got)
	}

	if err := d.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := d.Get(ctx, "k"); err != page.ErrKeyDoesNotExist {
		t.Errorf("Get() after Delete error = %v, want ErrKeyDoesNotExist", err)
	}
}

func TestDriverSerializesConcurrentCallers(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()

	const n = 50
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			errs <- d.Insert(ctx, keyFor(i), page.NewInteger(uint64(i)))
		}(i)
	}
	for i := 0; i < n; i++ {
		if err := <-errs; err != nil {
			t.Errorf("concurrent Insert() error = %v", err)
		}
	}

	stats, err := d.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.LiveEntries != n {
		t.Errorf("LiveEntries = %d, want %d", stats.LiveEntries, n)
	}
}

func TestDriverSubmitRespectsContextTimeout(t *testing.T) {
	d := newTestDriver(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	if err := d.Insert(ctx, "k", page.NewInteger(1)); err == nil {
		t.Error("Insert() with expired context = nil error, want context error")
	}
}

func keyFor(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return string(letters[i%len(letters)]) + string(rune('0'+i/len(letters)))
}

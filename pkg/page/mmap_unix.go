//go:build !windows

// mmap_unix.go backs a page with a memory-mapped file on Unix-like systems.
//
// The file is sized to exactly Capacity bytes and mapped read/write with
// MAP_SHARED, so writes into the mapped region are visible to any other
// process mapping the same file and are eventually written back by the
// kernel. flush requests that writeback explicitly via msync; it does not
// guarantee device-level durability (see SPEC_FULL.md).

package page

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// pageFile owns the backing file descriptor and its memory mapping.
type pageFile struct {
	file *os.File
	data []byte
}

// createPageFile creates path exclusively, sizes it to capacity, and maps
// it read/write. If the mapping fails, the partially-created file is
// removed before returning ErrMmapCreation.
func createPageFile(path string, capacity uint64) (*pageFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("page: create file: %w", err)
	}

	if err := f.Truncate(int64(capacity)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("page: size file: %w", err)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(capacity), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, ErrMmapCreation
	}

	return &pageFile{file: f, data: data}, nil
}

// openPageFile opens an existing file of exactly capacity bytes and maps
// it read/write, for the recovery-scan path.
func openPageFile(path string, capacity uint64) (*pageFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("page: open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("page: stat file: %w", err)
	}
	if uint64(info.Size()) != capacity {
		f.Close()
		return nil, ErrCorrupted
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(capacity), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, ErrMmapCreation
	}

	return &pageFile{file: f, data: data}, nil
}

// flush requests the OS write dirty pages back to disk. Best-effort: it
// uses MS_ASYNC, matching the page store's documented durability
// guarantees (no fsync, no write-ahead log).
func (pf *pageFile) flush() error {
	if err := unix.Msync(pf.data, unix.MS_ASYNC); err != nil {
		return fmt.Errorf("page: msync: %w", err)
	}
	return nil
}

// close unmaps and closes the backing file.
func (pf *pageFile) close() error {
	if pf.data != nil {
		_ = unix.Msync(pf.data, unix.MS_SYNC)
		if err := unix.Munmap(pf.data); err != nil {
			return fmt.Errorf("page: munmap: %w", err)
		}
		pf.data = nil
	}
	if pf.file != nil {
		if err := pf.file.Close(); err != nil {
			return fmt.Errorf("page: close file: %w", err)
		}
		pf.file = nil
	}
	return nil
}

// unlink removes the backing file from disk. Called by Clear(true).
func (pf *pageFile) unlink(path string) error {
	return os.Remove(path)
}

//go:build windows

// mmap_windows.go is a stub: the page store's memory-mapping backend uses
// golang.org/x/sys/unix directly and has no Windows mapping path.

package page

// pageFile is an unused placeholder on Windows.
type pageFile struct{}

func createPageFile(_ string, _ uint64) (*pageFile, error) {
	return nil, ErrMmapCreation
}

func openPageFile(_ string, _ uint64) (*pageFile, error) {
	return nil, ErrMmapCreation
}

func (pf *pageFile) flush() error {
	return ErrMmapCreation
}

func (pf *pageFile) close() error {
	return nil
}

func (pf *pageFile) unlink(_ string) error {
	return nil
}

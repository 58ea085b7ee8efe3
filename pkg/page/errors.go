package page

import "errors"

// Page errors. Callers should compare with errors.Is; none of these wrap
// further causes.
var (
	// ErrNoSpaceLeft is returned by Insert when the page cannot accept the
	// value without exceeding its fixed capacity.
	ErrNoSpaceLeft = errors.New("page: no space left")

	// ErrKeyAlreadyExists is returned by Insert when the key is already
	// present in the index.
	ErrKeyAlreadyExists = errors.New("page: key already exists")

	// ErrKeyDoesNotExist is returned by Get and Delete when the key has no
	// index entry.
	ErrKeyDoesNotExist = errors.New("page: key does not exist")

	// ErrMmapCreation is returned by Open when the backing file was created
	// but could not be memory-mapped. The partially-created file is removed
	// before this error is returned.
	ErrMmapCreation = errors.New("page: failed to create memory map")

	// ErrEntryAlreadyDeleted is returned by Delete when the on-disk header
	// for an indexed key is already tombstoned. Under the index invariants
	// this should never happen; it exists as a defensive check.
	ErrEntryAlreadyDeleted = errors.New("page: entry already deleted")

	// ErrInvalidDataType is returned when a header's data_type byte is
	// outside {1, 2, 3}, when a stored value fails type-specific validation
	// (a String value is not valid UTF-8, or an Integer value's size is not
	// 8 bytes), and by Insert when the key is not valid UTF-8. A key read
	// back from the page that is not valid UTF-8 is reported as ErrCorrupted.
	ErrInvalidDataType = errors.New("page: invalid data type")

	// ErrCorrupted is returned by the recovery scan when an existing page
	// file cannot be parsed as a valid sequence of entries.
	ErrCorrupted = errors.New("page: file corrupted")

	// ErrPageClosed is returned when an operation is attempted on a page
	// that has already been closed or cleared with delete_file=true.
	ErrPageClosed = errors.New("page: closed")
)

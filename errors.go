package kernfat

import (
	"errors"
	"fmt"
)

// These errors classify every failure reported by the driver.
// Use errors.Is to check for them, the returned errors carry additional location information.
var (
	ErrInvalidParent      = errors.New("parent cluster does not hold a directory")
	ErrNotFound           = errors.New("no matching entry")
	ErrAlreadyExists      = errors.New("entry already exists")
	ErrWrongType          = errors.New("entry has the wrong type")
	ErrNotAFile           = fmt.Errorf("%w: not a file", ErrWrongType)
	ErrNotADirectory      = fmt.Errorf("%w: not a directory", ErrWrongType)
	ErrInsufficientBuffer = errors.New("buffer too small")
	ErrNoSpace            = errors.New("no space left on volume")
	ErrNotEmpty           = errors.New("directory not empty")
	ErrCorruptChain       = errors.New("corrupt cluster chain")
	ErrInvalidName        = errors.New("invalid 8.3 name")
	ErrNotInitialized     = errors.New("filesystem not initialized")
	ErrIndexFull          = errors.New("name index is full")
)

// Errors of the afero adapter.
var (
	ErrNotSupported = errors.New("operation not supported")
	ErrEmptyFile    = errors.New("empty files can not be stored")
)

// Device errors.
var (
	ErrOutOfRange  = errors.New("block address out of range")
	ErrShortBuffer = errors.New("buffer shorter than the requested blocks")
	ErrBlockCount  = errors.New("invalid block count")
)

package main

// FileLock is an exclusive lock on an open image.
type FileLock struct {
	fd uintptr
}

// fder is implemented by files of the operating system.
type fder interface {
	Fd() uintptr
}

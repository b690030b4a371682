//go:build unix

package main

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// lockImage takes an exclusive lock on file without waiting.
// Files without descriptor, like in memory files, are not locked.
func lockImage(file interface{}) (*FileLock, error) {
	f, ok := file.(fder)
	if !ok {
		return &FileLock{}, nil
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return nil, fmt.Errorf("image is in use: %w", err)
	}

	return &FileLock{fd: f.Fd()}, nil
}

// Unlock releases the lock. The file stays open.
func (l *FileLock) Unlock() error {
	if l.fd == 0 {
		return nil
	}
	if err := unix.Flock(int(l.fd), unix.LOCK_UN); err != nil {
		return fmt.Errorf("unlock: %w", err)
	}
	return nil
}

//go:build !windows

package recordmgr

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockFile acquires a non-blocking advisory exclusive lock on f. The
// engine's Non-goals exclude multi-process sharing of one file, so this
// exists only to fail fast and loud when a second process opens the
// same file rather than silently racing it.
func lockFile(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		if err == unix.EWOULDBLOCK {
			return ErrDatabaseLocked
		}
		return err
	}
	return nil
}

// unlockFile releases the lock taken by lockFile.
func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}

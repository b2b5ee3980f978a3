package rtnl

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// Sentinel errors for the semantic outcomes of kernel operations. Match
// with errors.Is; the raw errno stays available via errors.As on
// *KernelError (or errors.Is against a syscall.Errno).
var (
	ErrNotFound   = errors.New("object not found")
	ErrExists     = errors.New("object already exists")
	ErrPermission = errors.New("permission denied")
	ErrBusy       = errors.New("device or resource busy")
	ErrTimeout    = errors.New("timed out waiting for netlink reply")
)

// KernelError is a kernel rejection of a netlink request. The errno is
// preserved verbatim so operators can correlate failures with system
// logs, even when the error also matches a named sentinel.
type KernelError struct {
	Op    string
	Errno syscall.Errno
}

func (e *KernelError) Error() string {
	return fmt.Sprintf("%s: kernel rejected request: %s (%s)",
		e.Op, e.Errno.Error(), unix.ErrnoName(e.Errno))
}

// Unwrap exposes the raw errno for errors.Is/As chains.
func (e *KernelError) Unwrap() error {
	return e.Errno
}

// Is maps well-known errnos onto the sentinel taxonomy.
func (e *KernelError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Errno == unix.ENOENT || e.Errno == unix.ENODEV ||
			e.Errno == unix.ESRCH || e.Errno == unix.EADDRNOTAVAIL
	case ErrExists:
		return e.Errno == unix.EEXIST
	case ErrPermission:
		return e.Errno == unix.EPERM || e.Errno == unix.EACCES
	case ErrBusy:
		return e.Errno == unix.EBUSY
	}
	return false
}

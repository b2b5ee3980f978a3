//go:build linux

package netstate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"

	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"

	"grimm.is/burrow/internal/retry"
)

// Named namespaces live as bind mounts under this directory, the
// iproute2 convention netns.NewNamed follows.
const netnsRunDir = "/var/run/netns"

// CreateNamespace creates a named network namespace. netns.NewNamed
// switches the calling thread into the new namespace, so the thread is
// pinned for the duration and restored before returning.
func (m *manager) CreateNamespace(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("namespace name is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	runtime.LockOSThread()

	orig, err := netns.Get()
	if err != nil {
		runtime.UnlockOSThread()
		return fmt.Errorf("failed to get current namespace: %w", err)
	}

	handle, err := netns.NewNamed(name)
	if err == nil {
		handle.Close()
	}

	// Restore the thread's namespace no matter how creation went. If the
	// restore itself fails the thread stays locked and dies with its
	// goroutine rather than running in the wrong namespace.
	if restoreErr := netns.Set(orig); restoreErr != nil {
		orig.Close()
		m.log.Error("failed to restore namespace, abandoning thread", "error", restoreErr)
		return fmt.Errorf("failed to restore namespace: %w", restoreErr)
	}
	orig.Close()
	runtime.UnlockOSThread()

	if err != nil {
		if errors.Is(err, os.ErrExist) || errors.Is(err, unix.EEXIST) {
			return fmt.Errorf("namespace %q: %w", name, ErrExists)
		}
		return fmt.Errorf("failed to create namespace %q: %w", name, err)
	}

	m.log.Audit("netns_create", name, nil)
	return nil
}

// RemoveNamespace removes a named network namespace. The unmount can
// report busy briefly while sockets bound inside are torn down, so it
// is retried with backoff.
func (m *manager) RemoveNamespace(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("namespace name is required")
	}

	// A cached connection holds the namespace alive; drop it first.
	m.dropConn(name)

	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = m.cfg.Netlink.BusyRetryAttempts
	cfg.InitialDelay = m.cfg.BusyRetryDelay()
	cfg.RetryableErrors = []error{unix.EBUSY}

	err := retry.Do(ctx, cfg, func() error {
		return netns.DeleteNamed(name)
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, unix.ENOENT) {
			return fmt.Errorf("namespace %q: %w", name, ErrNotFound)
		}
		if errors.Is(err, unix.EBUSY) {
			return fmt.Errorf("namespace %q still in use: %w", name, ErrBusy)
		}
		return fmt.Errorf("failed to remove namespace %q: %w", name, err)
	}

	m.log.Audit("netns_remove", name, nil)
	return nil
}

// ListNamespaces returns the named namespaces on the host, sorted. A
// missing run directory just means none have been created yet.
func (m *manager) ListNamespaces() ([]string, error) {
	entries, err := os.ReadDir(netnsRunDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", netnsRunDir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// NamespaceExists reports whether a named namespace is present.
func (m *manager) NamespaceExists(name string) (bool, error) {
	h, err := netns.GetFromName(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, unix.ENOENT) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check namespace %q: %w", name, err)
	}
	h.Close()
	return true, nil
}

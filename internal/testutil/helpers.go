package testutil

import (
	"os"
	"testing"
)

// RequireVM skips the test if the BURROW_VM_TEST environment variable is not
// set. This ensures that tests requiring real kernel capabilities (network
// namespaces, netlink mutations) are only run in the proper environment.
func RequireVM(t *testing.T) {
	t.Helper()
	if os.Getenv("BURROW_VM_TEST") == "" {
		t.Skip("Skipping test: requires BURROW_VM_TEST environment")
	}
}

// RequireRoot skips the test unless running as root. Namespace and netlink
// mutations need CAP_NET_ADMIN and CAP_SYS_ADMIN.
func RequireRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() != 0 {
		t.Skip("Skipping test: requires root")
	}
}

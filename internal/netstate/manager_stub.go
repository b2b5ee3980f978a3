//go:build !linux

package netstate

import (
	"fmt"
	"runtime"

	"grimm.is/burrow/internal/config"
)

// NewManager is unavailable off Linux; rtnetlink has no equivalent on
// other platforms.
func NewManager(cfg *config.Config) (Manager, error) {
	return nil, fmt.Errorf("kernel network state management not supported on %s", runtime.GOOS)
}

//go:build linux

package netstate

import (
	"fmt"
	"sync"

	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"

	"grimm.is/burrow/internal/config"
	"grimm.is/burrow/internal/logging"
	"grimm.is/burrow/internal/rtnl"
)

// manager implements Manager against the running kernel. Connections
// are opened lazily, one per namespace, and kept for reuse; each
// connection is bound inside its namespace at open time so requests
// never touch the calling thread's namespace.
type manager struct {
	cfg *config.Config
	log *logging.Logger

	mu    sync.Mutex
	conns map[string]*rtnl.Conn
}

// NewManager returns a Manager backed by the running kernel.
func NewManager(cfg *config.Config) (Manager, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	return &manager{
		cfg:   cfg,
		log:   logging.WithComponent("netstate"),
		conns: make(map[string]*rtnl.Conn),
	}, nil
}

// conn returns the cached route connection for a namespace, opening it
// on first use. The empty namespace name means the daemon's own.
func (m *manager) conn(ns string) (*rtnl.Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.conns[ns]; ok {
		return c, nil
	}

	handle := netns.None()
	if ns != "" {
		h, err := netns.GetFromName(ns)
		if err != nil {
			return nil, fmt.Errorf("namespace %q: %w", ns, ErrNotFound)
		}
		defer h.Close()
		handle = h
	}

	c, err := rtnl.Dial(handle, unix.NETLINK_ROUTE, m.cfg.NetlinkTimeout())
	if err != nil {
		return nil, fmt.Errorf("namespace %q: %w", ns, err)
	}
	m.conns[ns] = c
	return c, nil
}

// dropConn closes and forgets the cached connection for a namespace.
// Called when the namespace goes away so a later namespace of the same
// name gets a fresh socket.
func (m *manager) dropConn(ns string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.conns[ns]; ok {
		c.Close()
		delete(m.conns, ns)
	}
}

// Close releases every cached connection.
func (m *manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ns, c := range m.conns {
		c.Close()
		delete(m.conns, ns)
	}
	return nil
}

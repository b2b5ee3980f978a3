package netstate

import "context"

// Manager is the full kernel network-state surface the daemon exposes.
// The namespace argument names a bound network namespace; the empty
// string means the namespace the daemon runs in.
type Manager interface {
	// Namespace lifecycle.
	CreateNamespace(ctx context.Context, name string) error
	RemoveNamespace(ctx context.Context, name string) error
	ListNamespaces() ([]string, error)
	NamespaceExists(name string) (bool, error)

	// Interfaces.
	ListInterfaces(ns string) ([]Interface, error)
	DeviceNames(ns string) ([]string, error)
	CreateInterface(ns string, req InterfaceRequest) (*Interface, error)
	DeleteInterface(ns, name string) error
	SetInterfaceUp(ns, name string) error

	// Addresses. ListAddresses with an empty device returns every
	// address in the namespace; each Address carries the owning
	// interface index either way.
	ListAddresses(ns, device string) ([]Address, error)
	AddAddress(ns, device string, req AddressRequest) error
	DeleteAddress(ns, device string, req AddressRequest) error

	// Routing policy rules.
	ListRules(ns string, family int) ([]Rule, error)
	AddRule(ns string, spec RuleSpec) error
	DeleteRule(ns string, spec RuleSpec) error

	// Watch streams link and address changes from a namespace until ctx
	// is done.
	Watch(ctx context.Context, ns string) (<-chan Event, error)

	Close() error
}

// Event is a link or address change observed in a namespace.
type Event struct {
	Kind      string `json:"kind"` // "link" or "address"
	Namespace string `json:"namespace,omitempty"`
	Device    string `json:"device,omitempty"`
	Index     int    `json:"index"`
	Detail    string `json:"detail,omitempty"`
}

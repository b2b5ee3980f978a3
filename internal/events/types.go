// Package events provides the pub/sub event bus for the daemon. Every
// kernel state change (namespaces, links, addresses, policy rules)
// flows through this hub to API subscribers and the history store.
package events

import "time"

// EventType identifies the category of event.
type EventType string

const (
	// Namespace lifecycle
	EventNamespaceCreate EventType = "namespace.create"
	EventNamespaceRemove EventType = "namespace.remove"

	// Interface events
	EventLinkAdd    EventType = "link.add"
	EventLinkDelete EventType = "link.delete"
	EventLinkChange EventType = "link.change"

	// Address events
	EventAddrAdd    EventType = "address.add"
	EventAddrDelete EventType = "address.delete"

	// Policy rule events
	EventRuleAdd    EventType = "rule.add"
	EventRuleDelete EventType = "rule.delete"
)

// Event is the core message passed through the event bus.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	// Source is the component that emitted the event: "api" for changes
	// made through the daemon, "kernel" for changes observed via the
	// change subscription (including ones made behind the daemon's back).
	Source string `json:"source"`
	Data   any    `json:"data,omitempty"`
}

// ChangeData is the payload for events observed from the kernel.
type ChangeData struct {
	Namespace string `json:"namespace,omitempty"`
	Device    string `json:"device,omitempty"`
	Index     int    `json:"index,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// MutationData is the payload for changes made through the API.
type MutationData struct {
	Namespace string `json:"namespace,omitempty"`
	Resource  string `json:"resource,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

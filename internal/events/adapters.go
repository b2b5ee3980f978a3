package events

import (
	"context"

	"grimm.is/burrow/internal/logging"
	"grimm.is/burrow/internal/netstate"
)

// KernelWatcher bridges kernel change subscriptions onto the hub, so
// API subscribers see changes made behind the daemon's back (iproute2,
// other daemons) alongside the daemon's own mutations.
type KernelWatcher struct {
	hub *Hub
	mgr netstate.Manager
	log *logging.Logger
}

// NewKernelWatcher creates a watcher publishing into hub.
func NewKernelWatcher(hub *Hub, mgr netstate.Manager) *KernelWatcher {
	return &KernelWatcher{
		hub: hub,
		mgr: mgr,
		log: logging.WithComponent("events"),
	}
}

// Run watches the given namespaces (the empty string is the daemon's
// own) until ctx is done. Each namespace gets its own subscription
// goroutine; Run returns once all of them have stopped.
func (w *KernelWatcher) Run(ctx context.Context, namespaces ...string) error {
	if len(namespaces) == 0 {
		namespaces = []string{""}
	}

	done := make(chan struct{}, len(namespaces))
	started := 0
	for _, ns := range namespaces {
		ch, err := w.mgr.Watch(ctx, ns)
		if err != nil {
			w.log.Error("kernel watch failed", "namespace", ns, "error", err)
			continue
		}
		started++
		go func(ns string, ch <-chan netstate.Event) {
			defer func() { done <- struct{}{} }()
			for ev := range ch {
				w.hub.Publish(changeEvent(ev))
			}
		}(ns, ch)
	}

	for i := 0; i < started; i++ {
		<-done
	}
	return ctx.Err()
}

// changeEvent converts a kernel change notification into a hub event.
func changeEvent(ev netstate.Event) Event {
	typ := EventLinkChange
	switch {
	case ev.Kind == "link" && ev.Detail == "removed":
		typ = EventLinkDelete
	case ev.Kind == "address" && len(ev.Detail) >= 5 && ev.Detail[:5] == "added":
		typ = EventAddrAdd
	case ev.Kind == "address":
		typ = EventAddrDelete
	}
	return Event{
		Type:   typ,
		Source: "kernel",
		Data: ChangeData{
			Namespace: ev.Namespace,
			Device:    ev.Device,
			Index:     ev.Index,
			Detail:    ev.Detail,
		},
	}
}

// PublishMutation records a change made through the API.
func PublishMutation(hub *Hub, typ EventType, namespace, resource, detail string) {
	if hub == nil {
		return
	}
	hub.Publish(Event{
		Type:   typ,
		Source: "api",
		Data: MutationData{
			Namespace: namespace,
			Resource:  resource,
			Detail:    detail,
		},
	})
}

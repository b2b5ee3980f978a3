//go:build linux

package netstate

import (
	"context"
	"fmt"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"
)

// Watch subscribes to link and address changes in a namespace and
// streams them until ctx is done. The returned channel is closed when
// the subscription ends.
func (m *manager) Watch(ctx context.Context, ns string) (<-chan Event, error) {
	handle := netns.None()
	if ns != "" {
		h, err := netns.GetFromName(ns)
		if err != nil {
			return nil, fmt.Errorf("namespace %q: %w", ns, ErrNotFound)
		}
		defer h.Close()
		handle = h
	}

	done := make(chan struct{})
	linkCh := make(chan netlink.LinkUpdate, 16)
	addrCh := make(chan netlink.AddrUpdate, 16)

	if err := netlink.LinkSubscribeAt(handle, linkCh, done); err != nil {
		close(done)
		return nil, fmt.Errorf("link subscribe in %q: %w", ns, err)
	}
	if err := netlink.AddrSubscribeAt(handle, addrCh, done); err != nil {
		close(done)
		return nil, fmt.Errorf("address subscribe in %q: %w", ns, err)
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-linkCh:
				if !ok {
					return
				}
				m.publish(ctx, out, linkEvent(ns, upd))
			case upd, ok := <-addrCh:
				if !ok {
					return
				}
				m.publish(ctx, out, addrEvent(ns, upd))
			}
		}
	}()
	return out, nil
}

func (m *manager) publish(ctx context.Context, out chan<- Event, ev Event) {
	select {
	case out <- ev:
	case <-ctx.Done():
	}
}

func linkEvent(ns string, upd netlink.LinkUpdate) Event {
	ev := Event{
		Kind:      "link",
		Namespace: ns,
		Index:     int(upd.Index),
	}
	if upd.Link != nil {
		ev.Device = upd.Link.Attrs().Name
	}
	switch {
	case upd.Header.Type == unix.RTM_DELLINK:
		ev.Detail = "removed"
	case upd.Flags&unix.IFF_UP != 0:
		ev.Detail = "up"
	default:
		ev.Detail = "down"
	}
	return ev
}

func addrEvent(ns string, upd netlink.AddrUpdate) Event {
	ev := Event{
		Kind:      "address",
		Namespace: ns,
		Index:     upd.LinkIndex,
	}
	if upd.NewAddr {
		ev.Detail = fmt.Sprintf("added %s", upd.LinkAddress.String())
	} else {
		ev.Detail = fmt.Sprintf("removed %s", upd.LinkAddress.String())
	}
	return ev
}

//go:build linux

package rtnl

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"

	vnl "github.com/vishvananda/netlink/nl"
	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"

	"grimm.is/burrow/internal/logging"
	"grimm.is/burrow/internal/metrics"
)

// Conn is a serialized request/reply connection over a netlink socket
// bound inside a target network namespace. Netlink sockets do not
// multiplex concurrent requests, so each exchange holds the connection
// lock from send to final reply.
type Conn struct {
	mu   sync.Mutex
	sock *vnl.NetlinkSocket
	pid  uint32
	seq  uint32
	log  *logging.Logger
}

// Dial opens a NETLINK_ROUTE socket inside the namespace identified by
// ns. Passing netns.None() binds to the caller's current namespace.
// The socket stays bound to the target namespace for its lifetime, so
// no further namespace switching (and no global lock) is needed.
func Dial(ns netns.NsHandle, protocol int, timeout time.Duration) (*Conn, error) {
	sock, err := vnl.GetNetlinkSocketAt(ns, netns.None(), protocol)
	if err != nil {
		return nil, fmt.Errorf("failed to open netlink socket: %w", err)
	}

	if timeout > 0 {
		tv := unix.NsecToTimeval(timeout.Nanoseconds())
		if err := sock.SetReceiveTimeout(&tv); err != nil {
			sock.Close()
			return nil, fmt.Errorf("failed to set receive timeout: %w", err)
		}
	}

	pid, err := sock.GetPid()
	if err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to read socket pid: %w", err)
	}

	metrics.Get().NamespaceSockets.Inc()
	return &Conn{
		sock: sock,
		pid:  pid,
		log:  logging.WithComponent("rtnl"),
	}, nil
}

// Close releases the underlying socket.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sock != nil {
		c.sock.Close()
		c.sock = nil
		metrics.Get().NamespaceSockets.Dec()
	}
}

// Execute sends a request and collects its replies.
//
// Dump requests (NLM_F_DUMP) return every reply body of the expected
// type, in kernel order, ending at NLMSG_DONE. Mutating requests carry
// NLM_F_ACK and end at the acknowledgement; a kernel error
// acknowledgement becomes a *KernelError carrying the errno verbatim.
// Replies whose sequence number does not match the request are stale
// leftovers from a timed-out exchange and are discarded.
func (c *Conn) Execute(op string, req *vnl.NetlinkRequest, resType uint16) ([][]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sock == nil {
		return nil, fmt.Errorf("%s: connection closed", op)
	}

	c.seq++
	req.Seq = c.seq

	m := metrics.Get()
	m.NetlinkRequests.WithLabelValues(op).Inc()
	start := time.Now()
	defer func() {
		m.NetlinkLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	if err := c.sock.Send(req); err != nil {
		return nil, fmt.Errorf("%s: netlink send: %w", op, err)
	}

	isDump := req.Flags&unix.NLM_F_DUMP != 0
	var res [][]byte

	for {
		msgs, from, err := c.sock.Receive()
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
				m.NetlinkTimeouts.WithLabelValues(op).Inc()
				return nil, fmt.Errorf("%s: %w", op, ErrTimeout)
			}
			return nil, fmt.Errorf("%s: netlink receive: %w", op, err)
		}
		if from.Pid != vnl.PidKernel {
			c.log.Debug("dropping message from non-kernel sender", "op", op, "pid", from.Pid)
			continue
		}

		for _, msg := range msgs {
			if msg.Header.Seq != req.Seq || msg.Header.Pid != c.pid {
				c.log.Debug("dropping stale reply", "op", op, "seq", msg.Header.Seq, "want", req.Seq)
				continue
			}

			switch msg.Header.Type {
			case unix.NLMSG_DONE:
				return res, nil
			case unix.NLMSG_ERROR:
				code := int32(native.Uint32(msg.Data[0:4]))
				if code == 0 {
					// ack
					return res, nil
				}
				errno := syscall.Errno(-code)
				m.NetlinkErrors.WithLabelValues(op, unix.ErrnoName(errno)).Inc()
				return nil, &KernelError{Op: op, Errno: errno}
			default:
				if resType != 0 && msg.Header.Type != resType {
					continue
				}
				body := make([]byte, len(msg.Data))
				copy(body, msg.Data)
				res = append(res, body)
				if !isDump && msg.Header.Flags&unix.NLM_F_MULTI == 0 && req.Flags&unix.NLM_F_ACK == 0 {
					return res, nil
				}
			}
		}
	}
}

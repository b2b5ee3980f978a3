//go:build linux

package api

import (
	"context"
	"net"

	"golang.org/x/sys/unix"
)

// connContext attaches unix socket peer credentials (SO_PEERCRED) to
// every request's context.
func connContext(ctx context.Context, c net.Conn) context.Context {
	uc, ok := c.(*net.UnixConn)
	if !ok {
		return ctx
	}

	raw, err := uc.SyscallConn()
	if err != nil {
		return ctx
	}

	var (
		cred    *unix.Ucred
		credErr error
	)
	if err := raw.Control(func(fd uintptr) {
		cred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	}); err != nil || credErr != nil || cred == nil {
		return ctx
	}

	return WithPeerCred(ctx, PeerCred{Pid: cred.Pid, Uid: cred.Uid, Gid: cred.Gid})
}

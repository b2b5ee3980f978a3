//go:build !linux

package api

import (
	"context"
	"net"
)

// connContext is a no-op off Linux; requests carry no credentials and
// are refused by authorize.
func connContext(ctx context.Context, c net.Conn) context.Context {
	return ctx
}

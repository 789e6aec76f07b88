package sntp

import (
	"context"
	"net"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// Dialer opens the datagram connection for one query. *net.Dialer
// satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Clock supplies the wall clock. Readings should carry a monotonic
// component, as time.Now does, so that the difference of two readings
// measures elapsed time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// any instant in the past unblocks pending I/O
var aLongTimeAgo = time.Unix(1, 0)

func (c *Client) dial(ctx context.Context) (conn net.Conn, err error) {
	dctx := ctx
	if c.sendTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, c.sendTimeout)
		defer cancel()
	}
	conn, err = c.dialer.DialContext(dctx, "udp", c.addr)
	if err != nil {
		return nil, c.transportError(ctx, "dial", err)
	}
	if c.ttl > 0 {
		if err = setTTL(conn, c.ttl); err != nil {
			conn.Close()
			return nil, c.transportError(ctx, "dial", err)
		}
	}
	return
}

func setTTL(conn net.Conn, ttl int) error {
	if ua, ok := conn.RemoteAddr().(*net.UDPAddr); ok && ua.IP.To4() == nil {
		return ipv6.NewConn(conn).SetHopLimit(ttl)
	}
	return ipv4.NewConn(conn).SetTTL(ttl)
}

// exchange sends req and reads the reply back into req. Deadlines come
// from the configured timeouts; cancelling ctx aborts the pending
// operation.
func (c *Client) exchange(ctx context.Context, conn net.Conn, req []byte) (n int, err error) {
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(aLongTimeAgo)
	})
	defer stop()

	if c.sendTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(c.sendTimeout))
	}
	if _, err = conn.Write(req); err != nil {
		return 0, c.transportError(ctx, "send", err)
	}

	if c.receiveTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(c.receiveTimeout))
	}
	n, err = conn.Read(req)
	if err != nil {
		return 0, c.transportError(ctx, "receive", err)
	}
	return
}

func (c *Client) transportError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return &TransportError{Op: op, Addr: c.addr, Err: err}
}

package mail

import (
	"net"
	"time"
)

// timeoutConn wraps a net.Conn so every read and write must complete
// within the configured timeout. The deadline is re-armed per call, so
// the bound applies to each protocol round trip rather than to the
// connection as a whole.
type timeoutConn struct {
	net.Conn
	timeout time.Duration
}

func newTimeoutConn(conn net.Conn, timeout time.Duration) net.Conn {
	if timeout <= 0 {
		return conn
	}
	return &timeoutConn{Conn: conn, timeout: timeout}
}

func (c *timeoutConn) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}

func (c *timeoutConn) Write(b []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(b)
}

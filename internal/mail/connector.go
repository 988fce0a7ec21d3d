package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/tohur/webmail/internal/config"
)

// Credentials carry one username/password pair for the duration of a
// single connection. They are never persisted.
type Credentials struct {
	Username string
	Password string
}

// Dialer opens transient, authenticated IMAP connections. Exactly one
// connection exists per mailbox operation; the caller closes it when
// the operation finishes.
type Dialer interface {
	Connect(ctx context.Context, params config.MailServerConfig, creds Credentials) (*imapclient.Client, error)
}

// Authenticator verifies a credential pair without keeping the
// connection around.
type Authenticator interface {
	Verify(ctx context.Context, params config.MailServerConfig, creds Credentials) error
}

// Connector is the production Dialer. It holds no state between
// operations: every Connect performs a full dial, handshake, and login.
type Connector struct{}

// NewConnector creates a Connector.
func NewConnector() *Connector {
	return &Connector{}
}

// Connect establishes a connection to the IMAP server, authenticates,
// and returns the connected client. The caller is responsible for
// calling Logout on the returned client. Failures of any kind (dial,
// TLS, login) are wrapped as a ConnectionError.
func (c *Connector) Connect(
	ctx context.Context,
	params config.MailServerConfig,
	creds Credentials,
) (*imapclient.Client, error) {
	addr := params.Addr()

	tlsConfig := &tls.Config{
		ServerName: params.Host,
	}
	if !params.ValidateCert {
		tlsConfig.InsecureSkipVerify = true
	}
	dialer := &net.Dialer{Timeout: params.ConnectTimeout()}
	opts := &imapclient.Options{
		TLSConfig: tlsConfig,
		Dialer:    dialer,
	}

	var client *imapclient.Client
	var err error

	// Both paths dial with the connect timeout and wrap the connection
	// so every subsequent round trip is bounded by the read timeout.
	if params.Encryption == "ssl" {
		// Implicit TLS: handshake during dial, then hand the
		// established connection to the client.
		var conn net.Conn
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
		if err == nil {
			client = imapclient.New(newTimeoutConn(conn, params.ReadTimeout()), opts)
		}
	} else {
		var conn net.Conn
		conn, err = dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			client, err = imapclient.NewStartTLS(newTimeoutConn(conn, params.ReadTimeout()), opts)
		}
	}
	if err != nil {
		return nil, &ConnectionError{Addr: addr, Err: fmt.Errorf("connecting to IMAP: %w", err)}
	}

	if err := client.Login(creds.Username, creds.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &ConnectionError{Addr: addr, Err: fmt.Errorf("login for %s: %w", creds.Username, err)}
	}

	return client, nil
}

// Verify checks credentials by opening and immediately closing a
// connection. Login uses this as its authentication check.
func (c *Connector) Verify(
	ctx context.Context,
	params config.MailServerConfig,
	creds Credentials,
) error {
	client, err := c.Connect(ctx, params, creds)
	if err != nil {
		return err
	}
	_ = client.Logout().Wait()
	return nil
}

// WithConnection runs fn against a freshly opened connection and
// guarantees the connection is released on every exit path, including
// a panic inside fn.
func (c *Connector) WithConnection(
	ctx context.Context,
	params config.MailServerConfig,
	creds Credentials,
	fn func(client *imapclient.Client) error,
) error {
	client, err := c.Connect(ctx, params, creds)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	return fn(client)
}

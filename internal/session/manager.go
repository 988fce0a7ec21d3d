package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tohur/webmail/internal/config"
	"github.com/tohur/webmail/internal/mail"
	"github.com/tohur/webmail/internal/model"
	"github.com/tohur/webmail/internal/store"
)

// Manager binds authenticated identities to browsing sessions. Login
// verifies credentials against the IMAP server before any session
// state exists; logout tears the session down without touching IMAP.
type Manager struct {
	identities store.IdentityStore
	sessions   Store
	auth       mail.Authenticator
	mailCfg    config.MailServerConfig
	codec      *TokenCodec
	ttl        time.Duration
}

// NewManager creates a session manager. codec may be nil, in which
// case the raw session id doubles as the client token.
func NewManager(
	identities store.IdentityStore,
	sessions Store,
	auth mail.Authenticator,
	mailCfg config.MailServerConfig,
	codec *TokenCodec,
	ttl time.Duration,
) *Manager {
	return &Manager{
		identities: identities,
		sessions:   sessions,
		auth:       auth,
		mailCfg:    mailCfg,
		codec:      codec,
		ttl:        ttl,
	}
}

// Login authenticates against the IMAP server with the supplied
// credentials and, only on success, resolves or creates the identity
// and establishes a session. Connector failures are wrapped as an
// AuthError and leave no session behind. The returned token is what
// the client presents on subsequent requests.
func (m *Manager) Login(ctx context.Context, email, password string) (*model.Identity, string, error) {
	creds := mail.Credentials{Username: email, Password: password}

	if err := m.auth.Verify(ctx, m.mailCfg, creds); err != nil {
		return nil, "", &mail.AuthError{Username: email, Err: err}
	}

	identity, err := m.identities.FindOrCreateIdentity(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("resolving identity for %s: %w", email, err)
	}

	sid := m.sessions.Create(m.ttl)
	m.sessions.Put(sid, KeyIdentityID, strconv.FormatInt(identity.ID, 10))
	m.sessions.Put(sid, KeyPassword, password)

	token := sid
	if m.codec != nil {
		token, err = m.codec.Issue(sid, identity.ID, identity.Email, m.ttl)
		if err != nil {
			m.sessions.Destroy(sid)
			return nil, "", err
		}
	}

	return identity, token, nil
}

// Logout invalidates the session, dropping the identity binding and
// the cached credential together. No IMAP interaction is required.
func (m *Manager) Logout(token string) {
	sid, err := m.resolve(token)
	if err != nil {
		return
	}
	m.sessions.Destroy(sid)
}

// IsAuthenticated reports whether the token maps to a live session.
func (m *Manager) IsAuthenticated(token string) bool {
	sid, err := m.resolve(token)
	if err != nil {
		return false
	}
	return m.sessions.Has(sid, KeyIdentityID)
}

// CurrentIdentity returns the identity bound to the session, or nil
// when the token is not authenticated.
func (m *Manager) CurrentIdentity(ctx context.Context, token string) (*model.Identity, error) {
	sid, err := m.resolve(token)
	if err != nil {
		return nil, err
	}

	raw, ok := m.sessions.Get(sid, KeyIdentityID)
	if !ok {
		return nil, fmt.Errorf("session is not authenticated")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt identity binding: %w", err)
	}

	return m.identities.GetIdentityByID(ctx, id)
}

// Credentials returns the IMAP credentials for the session: the
// identity's IMAP username combined with the session-cached password.
func (m *Manager) Credentials(ctx context.Context, token string) (mail.Credentials, error) {
	identity, err := m.CurrentIdentity(ctx, token)
	if err != nil {
		return mail.Credentials{}, err
	}

	sid, err := m.resolve(token)
	if err != nil {
		return mail.Credentials{}, err
	}
	password, ok := m.sessions.Get(sid, KeyPassword)
	if !ok {
		return mail.Credentials{}, fmt.Errorf("session holds no credential")
	}

	username := identity.IMAPUsername
	if username == "" {
		username = identity.Email
	}
	return mail.Credentials{Username: username, Password: password}, nil
}

// MailConfig returns the connection parameters handed to connectors.
func (m *Manager) MailConfig() config.MailServerConfig {
	return m.mailCfg
}

// resolve maps a client token to a session id.
func (m *Manager) resolve(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("missing session token")
	}
	if m.codec != nil {
		return m.codec.Parse(token)
	}
	return token, nil
}

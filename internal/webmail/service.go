// Package webmail implements the session-authenticated mailbox engine:
// every operation resolves the caller's session to IMAP credentials,
// opens one transient connection, performs a single logical task, and
// closes the connection before returning.
package webmail

import (
	"context"
	"fmt"
	"log"

	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/tohur/webmail/internal/config"
	"github.com/tohur/webmail/internal/mail"
	"github.com/tohur/webmail/internal/model"
	"github.com/tohur/webmail/internal/session"
	"github.com/tohur/webmail/internal/store"
)

// unavailableBody is the inert placeholder shown when a message body
// cannot be loaded. The page still renders.
var unavailableBody = model.SafeBody{
	Content: "<p>The message could not be loaded.</p>",
	IsHTML:  true,
}

// Service exposes the webmail operation surface. Results are
// structured data for an external presentation layer; no markup beyond
// sanitized message bodies is produced here.
type Service struct {
	sessions   *session.Manager
	identities store.IdentityStore
	connector  mail.Dialer
	mailCfg    config.MailServerConfig
	msgLimit   int
}

// NewService creates the webmail service.
func NewService(
	sessions *session.Manager,
	identities store.IdentityStore,
	connector mail.Dialer,
	mailCfg config.MailServerConfig,
	msgLimit int,
) *Service {
	if msgLimit <= 0 {
		msgLimit = 10
	}
	return &Service{
		sessions:   sessions,
		identities: identities,
		connector:  connector,
		mailCfg:    mailCfg,
		msgLimit:   msgLimit,
	}
}

// Login authenticates the credentials and returns the bound identity
// together with the session token for subsequent requests.
func (s *Service) Login(ctx context.Context, email, password string) (*model.Identity, string, error) {
	return s.sessions.Login(ctx, email, password)
}

// Logout destroys the session. Always succeeds.
func (s *Service) Logout(token string) {
	s.sessions.Logout(token)
}

// IsAuthenticated reports whether the token maps to a live session.
func (s *Service) IsAuthenticated(token string) bool {
	return s.sessions.IsAuthenticated(token)
}

// CurrentIdentity returns the identity bound to the session token.
func (s *Service) CurrentIdentity(ctx context.Context, token string) (*model.Identity, error) {
	return s.sessions.CurrentIdentity(ctx, token)
}

// UpdateIdentity updates the profile fields of the session's identity.
func (s *Service) UpdateIdentity(
	ctx context.Context,
	token string,
	profile model.IdentityProfile,
) (*model.Identity, error) {
	identity, err := s.sessions.CurrentIdentity(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.identities.UpdateIdentityProfile(ctx, identity.ID, profile)
}

// ListFolders returns the session's folders in canonical order. A
// connection failure degrades to an empty list: the mailbox still
// renders without a folder sidebar.
func (s *Service) ListFolders(ctx context.Context, token string) ([]model.Folder, error) {
	var folders []model.Folder
	err := s.withConnection(ctx, token, func(client *imapclient.Client) error {
		var err error
		folders, err = mail.ListFolders(client)
		return err
	})
	if err != nil {
		if mail.IsConnectionError(err) {
			log.Printf("webmail: listing folders failed: %v", err)
			return []model.Folder{}, nil
		}
		return nil, err
	}
	return folders, nil
}

// ListMessages returns up to limit messages of the named folder,
// sorted by date. An empty folder name means INBOX; a non-positive
// limit falls back to the configured default. A connection failure
// degrades to an empty list.
func (s *Service) ListMessages(
	ctx context.Context,
	token string,
	folder string,
	limit int,
	order model.SortOrder,
) ([]model.Message, error) {
	if limit <= 0 {
		limit = s.msgLimit
	}

	var messages []model.Message
	err := s.withConnection(ctx, token, func(client *imapclient.Client) error {
		var err error
		messages, err = mail.ListMessages(client, folder, limit, order)
		return err
	})
	if err != nil {
		if mail.IsConnectionError(err) {
			log.Printf("webmail: listing %s failed: %v", folderOrDefault(folder), err)
			return []model.Message{}, nil
		}
		return nil, err
	}
	return messages, nil
}

// ViewMessage fetches one message and renders its safe body. A
// connection failure degrades to an inert placeholder body; a missing
// message is surfaced distinctly.
func (s *Service) ViewMessage(
	ctx context.Context,
	token string,
	folder string,
	uid uint32,
) (*model.MessageView, error) {
	var raw *mail.RawMessage
	err := s.withConnection(ctx, token, func(client *imapclient.Client) error {
		var err error
		raw, err = mail.FetchMessage(client, folder, uid)
		return err
	})
	if err != nil {
		if mail.IsConnectionError(err) {
			log.Printf("webmail: viewing %d in %s failed: %v", uid, folderOrDefault(folder), err)
			return &model.MessageView{
				Message: model.Message{UID: uid},
				Body:    unavailableBody,
			}, nil
		}
		return nil, err
	}

	return &model.MessageView{
		Message:     raw.Message,
		Body:        mail.RenderBody(raw),
		Snippet:     mail.Snippet(raw),
		Attachments: raw.Attachments,
	}, nil
}

// MoveMessage moves a message between folders and returns the
// refreshed listing of the source folder, so the caller observes the
// post-mutation state immediately.
func (s *Service) MoveMessage(
	ctx context.Context,
	token string,
	fromFolder string,
	uid uint32,
	toFolder string,
) ([]model.Message, error) {
	if toFolder == "" {
		return nil, fmt.Errorf("destination folder must not be empty")
	}

	var messages []model.Message
	err := s.withConnection(ctx, token, func(client *imapclient.Client) error {
		if err := mail.MoveMessage(client, fromFolder, uid, toFolder); err != nil {
			return err
		}
		// Re-list on the same connection: the next read must not
		// observe the moved message in its original folder.
		var err error
		messages, err = mail.ListMessages(client, fromFolder, s.msgLimit, model.SortDesc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// DeleteMessage moves a message to Trash and returns the refreshed
// listing of the folder it was deleted from.
func (s *Service) DeleteMessage(
	ctx context.Context,
	token string,
	folder string,
	uid uint32,
) ([]model.Message, error) {
	return s.MoveMessage(ctx, token, folder, uid, mail.TrashFolder)
}

// withConnection resolves the session's credentials, opens a fresh
// connection, runs fn, and guarantees release on every exit path.
func (s *Service) withConnection(
	ctx context.Context,
	token string,
	fn func(client *imapclient.Client) error,
) error {
	creds, err := s.sessions.Credentials(ctx, token)
	if err != nil {
		return err
	}

	client, err := s.connector.Connect(ctx, s.mailCfg, creds)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	return fn(client)
}

func folderOrDefault(folder string) string {
	if folder == "" {
		return mail.DefaultFolder
	}
	return folder
}

package mail

import (
	"errors"
	"fmt"
	"sort"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/tohur/webmail/internal/model"
)

// DefaultFolder is selected when a listing names no folder.
const DefaultFolder = "INBOX"

// selectFolder selects folder on the connection, mapping a server NO
// response to FolderNotFoundError and anything else to ConnectionError.
func selectFolder(c conn, folder string) error {
	if folder == "" {
		folder = DefaultFolder
	}
	if err := c.Select(folder); err != nil {
		var imapErr *imap.Error
		if errors.As(err, &imapErr) && imapErr.Type == imap.StatusResponseTypeNo {
			return &FolderNotFoundError{Folder: folder}
		}
		return &ConnectionError{Err: fmt.Errorf("selecting %s: %w", folder, err)}
	}
	return nil
}

// ListMessages fetches up to limit messages from the named folder and
// returns them sorted by date. The sort happens here rather than as a
// server-side SORT command, over at most limit envelopes.
func ListMessages(
	client *imapclient.Client,
	folder string,
	limit int,
	order model.SortOrder,
) ([]model.Message, error) {
	return listMessages(&clientConn{c: client}, folder, limit, order)
}

func listMessages(c conn, folder string, limit int, order model.SortOrder) ([]model.Message, error) {
	if err := selectFolder(c, folder); err != nil {
		return nil, err
	}

	uids, err := c.SearchUIDs(&imap.SearchCriteria{})
	if err != nil {
		return nil, &ConnectionError{Err: fmt.Errorf("searching %s: %w", folder, err)}
	}

	// Always a non-nil slice: an empty folder lists as empty, not null.
	messages := []model.Message{}
	if len(uids) == 0 {
		return messages, nil
	}

	// Take the most recent UIDs; UIDs ascend in arrival order.
	if limit > 0 && len(uids) > limit {
		uids = uids[len(uids)-limit:]
	}

	bufs, err := c.FetchEnvelopes(imap.UIDSetNum(uids...))
	if err != nil {
		return nil, &ConnectionError{Err: fmt.Errorf("fetching envelopes: %w", err)}
	}
	for _, buf := range bufs {
		messages = append(messages, messageFromBuffer(buf))
	}

	sortMessages(messages, order)
	return messages, nil
}

// sortMessages orders messages by date. "asc" sorts oldest first; any
// other token, including an empty one, sorts newest first. The sort is
// stable, so equal dates keep their fetch order.
func sortMessages(messages []model.Message, order model.SortOrder) {
	if order == model.SortAsc {
		sort.SliceStable(messages, func(i, j int) bool {
			return messages[i].Date.Before(messages[j].Date)
		})
		return
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Date.After(messages[j].Date)
	})
}

// RawMessage holds one fully fetched message before rendering.
type RawMessage struct {
	Message     model.Message
	TextBody    string
	HTMLBody    string
	Attachments []model.Attachment
}

// FetchMessage fetches the full body of one message by UID within the
// named folder and parses it into its displayable parts.
func FetchMessage(
	client *imapclient.Client,
	folder string,
	uid uint32,
) (*RawMessage, error) {
	return fetchMessage(&clientConn{c: client}, folder, uid)
}

func fetchMessage(c conn, folder string, uid uint32) (*RawMessage, error) {
	if err := selectFolder(c, folder); err != nil {
		return nil, err
	}

	bodySection := &imap.FetchItemBodySection{
		Peek: true,
	}

	buf, err := c.FetchBody(imap.UIDSetNum(imap.UID(uid)), bodySection)
	if err != nil {
		return nil, &ConnectionError{Err: fmt.Errorf("fetching message %d: %w", uid, err)}
	}
	if buf == nil {
		return nil, &MessageNotFoundError{Folder: folder, UID: uid}
	}

	raw := &RawMessage{
		Message: messageFromBuffer(buf),
	}

	if body := buf.FindBodySection(bodySection); body != nil {
		textBody, htmlBody, attachments := parseMIMEBody(body)
		raw.TextBody = textBody
		raw.HTMLBody = htmlBody
		raw.Attachments = attachments
	}

	return raw, nil
}

// messageFromBuffer extracts the listing view from a fetch buffer.
func messageFromBuffer(buf *imapclient.FetchMessageBuffer) model.Message {
	msg := model.Message{
		UID: uint32(buf.UID),
	}

	if buf.Envelope != nil {
		msg.Subject = buf.Envelope.Subject
		msg.Date = buf.Envelope.Date

		if len(buf.Envelope.From) > 0 {
			from := buf.Envelope.From[0]
			if from.Name != "" {
				msg.From = from.Name
			} else {
				msg.From = from.Addr()
			}
		}

		for _, to := range buf.Envelope.To {
			msg.To = append(msg.To, to.Addr())
		}
	}

	for _, flag := range buf.Flags {
		if flag == imap.FlagSeen {
			msg.Seen = true
		}
	}

	return msg
}

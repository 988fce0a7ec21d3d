package mail

import (
	"fmt"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// TrashFolder is where deleted messages are moved. Deletion never
// erases a message permanently.
const TrashFolder = "Trash"

// MoveMessage moves one message, addressed by UID within fromFolder,
// into toFolder. A UID that does not exist in the source folder fails
// with MessageNotFoundError rather than silently doing nothing.
func MoveMessage(
	client *imapclient.Client,
	fromFolder string,
	uid uint32,
	toFolder string,
) error {
	return moveMessage(&clientConn{c: client}, fromFolder, uid, toFolder)
}

func moveMessage(c conn, fromFolder string, uid uint32, toFolder string) error {
	if err := selectFolder(c, fromFolder); err != nil {
		return err
	}

	uidSet := imap.UIDSetNum(imap.UID(uid))

	// Confirm the message exists before mutating anything.
	found, err := c.SearchUIDs(&imap.SearchCriteria{
		UID: []imap.UIDSet{uidSet},
	})
	if err != nil {
		return &ConnectionError{Err: fmt.Errorf("searching for %d in %s: %w", uid, fromFolder, err)}
	}
	if len(found) == 0 {
		return &MessageNotFoundError{Folder: fromFolder, UID: uid}
	}

	if err := c.Move(uidSet, toFolder); err == nil {
		return nil
	}

	// Servers without MOVE: copy, flag deleted, expunge.
	if err := c.Copy(uidSet, toFolder); err != nil {
		return &ConnectionError{Err: fmt.Errorf("copying %d to %s: %w", uid, toFolder, err)}
	}
	if err := c.AddDeletedFlag(uidSet); err != nil {
		return &ConnectionError{Err: fmt.Errorf("flagging %d deleted: %w", uid, err)}
	}
	if err := c.Expunge(); err != nil {
		return &ConnectionError{Err: fmt.Errorf("expunging %s: %w", fromFolder, err)}
	}

	return nil
}

// DeleteMessage moves a message to the trash folder. The next listing
// of the source folder will not contain the UID.
func DeleteMessage(client *imapclient.Client, folder string, uid uint32) error {
	return MoveMessage(client, folder, uid, TrashFolder)
}

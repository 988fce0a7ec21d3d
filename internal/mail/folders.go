package mail

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/tohur/webmail/internal/model"
)

// folderPriority is the fixed ordering table for well-known folders.
// Folders are matched case-insensitively by their display name; any
// folder not listed here sorts after all known ones, grouped by the
// first character of its upper-cased name.
var folderPriority = []string{
	"INBOX",
	"STARRED",
	"IMPORTANT",
	"SENT",
	"DRAFTS",
	"ARCHIVE",
	"SPAM",
	"JUNK",
	"TRASH",
}

// folderRank maps an upper-cased folder name to its sort rank. Every
// name maps to a rank, so the resulting order is total.
func folderRank(name string) int {
	upper := strings.ToUpper(name)
	for i, known := range folderPriority {
		if upper == known {
			return i
		}
	}
	if upper == "" {
		return len(folderPriority)
	}
	first := []rune(upper)[0]
	return len(folderPriority) + int(first)
}

// sortFolders orders folders by rank. The sort is stable: folders with
// equal rank keep their original relative order.
func sortFolders(folders []model.Folder) {
	sort.SliceStable(folders, func(i, j int) bool {
		return folderRank(folders[i].Name) < folderRank(folders[j].Name)
	})
}

// ListFolders fetches the folder set for the connected session and
// returns it in canonical order.
func ListFolders(client *imapclient.Client) ([]model.Folder, error) {
	return listFolders(&clientConn{c: client})
}

func listFolders(c conn) ([]model.Folder, error) {
	mailboxes, err := c.List()
	if err != nil {
		return nil, &ConnectionError{Err: fmt.Errorf("listing folders: %w", err)}
	}

	folders := make([]model.Folder, 0, len(mailboxes))
	for _, mbox := range mailboxes {
		folders = append(folders, model.Folder{
			Name: folderDisplayName(mbox.Mailbox, mbox.Delim),
			Path: mbox.Mailbox,
		})
	}

	sortFolders(folders)
	return folders, nil
}

// folderDisplayName returns the last hierarchy segment of a mailbox
// path, e.g. "Sent" for "INBOX/Sent".
func folderDisplayName(path string, delim rune) string {
	if delim == 0 {
		return path
	}
	segments := strings.Split(path, string(delim))
	return segments[len(segments)-1]
}

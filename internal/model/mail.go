package model

import "time"

// SortOrder controls the direction of a message listing.
type SortOrder string

const (
	// SortAsc lists oldest messages first.
	SortAsc SortOrder = "asc"

	// SortDesc lists newest messages first. Any sort token other than
	// "asc", including an empty one, resolves to descending.
	SortDesc SortOrder = "desc"
)

// Folder is a mailbox discovered on the IMAP server for one connection.
// Folders are never persisted; their ordering is computed per listing.
type Folder struct {
	// Name is the display segment of the folder, e.g. "Sent".
	Name string `json:"name"`

	// Path is the full server-side mailbox path, e.g. "INBOX/Sent".
	Path string `json:"path"`
}

// Message is the listing view of one message within a folder. The UID
// is stable only relative to the folder it was fetched from.
type Message struct {
	UID     uint32    `json:"uid"`
	Subject string    `json:"subject"`
	From    string    `json:"from"`
	To      []string  `json:"to,omitempty"`
	Date    time.Time `json:"date"`
	Seen    bool      `json:"seen"`
}

// SafeBody is sanitized, display-ready message content. When IsHTML is
// true the content is inert markup; otherwise it is escaped text that
// has already been wrapped into paragraph markup.
type SafeBody struct {
	Content string `json:"content"`
	IsHTML  bool   `json:"is_html"`
}

// MessageView is a fully fetched message prepared for display.
type MessageView struct {
	Message
	Body        SafeBody     `json:"body"`
	Snippet     string       `json:"snippet,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment holds metadata about a message attachment. Content is
// never retained, only described.
type Attachment struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	MIMEType string `json:"mime_type"`
}

package mail

import (
	"bytes"
	"io"
	"strings"

	gomail "github.com/emersion/go-message/mail"

	"github.com/tohur/webmail/internal/model"
)

// parseMIMEBody walks the MIME structure of a raw message and pulls
// out the plain-text body, the HTML body, and attachment metadata.
// Attachment content is never buffered; only its size is measured.
// A message that cannot be parsed at all is treated as plain text so
// the viewer still has something to show.
func parseMIMEBody(raw []byte) (textBody, htmlBody string, attachments []model.Attachment) {
	mr, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return string(raw), "", nil
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err != nil {
			// io.EOF ends the walk; a malformed part ends it early
			// with whatever was collected so far.
			return textBody, htmlBody, attachments
		}

		switch header := part.Header.(type) {
		case *gomail.InlineHeader:
			mediaType, _, _ := header.ContentType()
			isText := strings.HasPrefix(mediaType, "text/plain")
			isHTML := strings.HasPrefix(mediaType, "text/html")
			if !isText && !isHTML {
				continue
			}
			// First part of each kind wins; alternatives further down
			// the tree are usually degraded duplicates.
			if (isText && textBody != "") || (isHTML && htmlBody != "") {
				continue
			}

			content, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			if isText {
				textBody = string(content)
			} else {
				htmlBody = string(content)
			}

		case *gomail.AttachmentHeader:
			filename, _ := header.Filename()
			mediaType, _, _ := header.ContentType()

			size, err := io.Copy(io.Discard, part.Body)
			if err != nil {
				continue
			}
			attachments = append(attachments, model.Attachment{
				Filename: filename,
				Size:     size,
				MIMEType: mediaType,
			})
		}
	}
}

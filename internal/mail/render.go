package mail

import (
	"bytes"
	stdhtml "html"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/k3a/html2text"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/tohur/webmail/internal/model"
)

// htmlMarkers are the tags an HTML body may legitimately start with.
// Some IMAP servers hand back bodies with raw header text glued in
// front of the markup; everything before the first marker is dropped.
var htmlMarkers = []string{"<html", "<!doctype", "<body"}

const snippetLength = 160

// RenderBody produces the safe, display-ready body for a message.
// This is the trust boundary of the engine: remote message content is
// downgraded to inert markup here and nowhere else. Render failures
// degrade to escaped plain text; they never propagate.
func RenderBody(raw *RawMessage) model.SafeBody {
	if raw.HTMLBody != "" {
		safe, err := sanitizeHTML(raw.HTMLBody)
		if err == nil {
			return model.SafeBody{Content: safe, IsHTML: true}
		}
		log.Printf("webmail render: sanitizing message %d: %v", raw.Message.UID, err)
	}

	text := raw.TextBody
	if text == "" && raw.HTMLBody != "" {
		// No usable text part either; flatten the HTML instead.
		text = html2text.HTML2Text(raw.HTMLBody)
	}
	return model.SafeBody{Content: textToParagraphs(text), IsHTML: false}
}

// Snippet derives a short plain-text preview of a message body.
func Snippet(raw *RawMessage) string {
	text := strings.TrimSpace(raw.TextBody)
	if text == "" && raw.HTMLBody != "" {
		text = strings.TrimSpace(html2text.HTML2Text(raw.HTMLBody))
	}
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > snippetLength {
		// Back up to a rune boundary so the cut never splits a
		// multi-byte character.
		cut := snippetLength
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}

// sanitizeHTML parses untrusted markup tolerantly, removes every head
// element so styles and scripts cannot leak into the host page, and
// serializes only the body subtree's children.
func sanitizeHTML(body string) (string, error) {
	body = stripLeadingJunk(body)

	// html.Parse is error tolerant: recoverable problems are absorbed
	// into a best-effort DOM rather than returned.
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return "", err
	}

	removeNodes(doc, atom.Head)
	removeNodes(doc, atom.Script)
	removeNodes(doc, atom.Style)

	bodyNode := findNode(doc, atom.Body)
	if bodyNode == nil {
		return "", &RenderError{Reason: "no body element in parsed document"}
	}

	var buf bytes.Buffer
	for child := bodyNode.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&buf, child); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// stripLeadingJunk discards any raw header block preceding the first
// <html>, <!DOCTYPE> or <body> marker, case-insensitively. Bodies
// without any marker pass through unchanged.
func stripLeadingJunk(body string) string {
	lower := strings.ToLower(body)
	first := -1
	for _, marker := range htmlMarkers {
		if idx := strings.Index(lower, marker); idx >= 0 && (first < 0 || idx < first) {
			first = idx
		}
	}
	if first > 0 {
		return body[first:]
	}
	return body
}

// removeNodes strips every element of the given kind from the tree.
func removeNodes(n *html.Node, a atom.Atom) {
	var next *html.Node
	for child := n.FirstChild; child != nil; child = next {
		next = child.NextSibling
		if child.Type == html.ElementNode && child.DataAtom == a {
			n.RemoveChild(child)
			continue
		}
		removeNodes(child, a)
	}
}

// findNode returns the first element of the given kind, depth first.
func findNode(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findNode(child, a); found != nil {
			return found
		}
	}
	return nil
}

// textToParagraphs escapes plain text and converts line breaks into
// paragraph breaks. Raw text is never emitted as markup.
func textToParagraphs(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(stdhtml.EscapeString(line))
		b.WriteString("</p>\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

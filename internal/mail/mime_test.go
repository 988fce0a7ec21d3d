package mail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// crlf converts the readable LF test fixtures to wire line endings.
func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestParseMIMEBodyMultipart(t *testing.T) {
	raw := crlf(`From: sender@example.com
To: recipient@example.com
Subject: report
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="frontier"

--frontier
Content-Type: text/plain; charset=utf-8

hello plain
--frontier
Content-Type: text/html; charset=utf-8

<p>hello html</p>
--frontier
Content-Type: application/pdf
Content-Disposition: attachment; filename="report.pdf"
Content-Transfer-Encoding: base64

JVBERi0=
--frontier--
`)

	text, html, attachments := parseMIMEBody(raw)

	assert.Equal(t, "hello plain", strings.TrimSpace(text))
	assert.Equal(t, "<p>hello html</p>", strings.TrimSpace(html))

	require.Len(t, attachments, 1)
	assert.Equal(t, "report.pdf", attachments[0].Filename)
	assert.Equal(t, "application/pdf", attachments[0].MIMEType)
	assert.Greater(t, attachments[0].Size, int64(0))
}

func TestParseMIMEBodyPlainMessage(t *testing.T) {
	raw := crlf(`From: sender@example.com
Subject: plain
Content-Type: text/plain; charset=utf-8

just text
`)

	text, html, attachments := parseMIMEBody(raw)

	assert.Equal(t, "just text", strings.TrimSpace(text))
	assert.Empty(t, html)
	assert.Empty(t, attachments)
}

func TestParseMIMEBodyFirstPartOfEachKindWins(t *testing.T) {
	raw := crlf(`From: sender@example.com
Subject: duplicates
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="frontier"

--frontier
Content-Type: text/plain

first
--frontier
Content-Type: text/plain

second
--frontier--
`)

	text, _, _ := parseMIMEBody(raw)
	assert.Equal(t, "first", strings.TrimSpace(text))
}

func TestParseMIMEBodyUnparseableFallsBackToText(t *testing.T) {
	raw := []byte("this is not a mime message at all")

	text, html, attachments := parseMIMEBody(raw)

	assert.Equal(t, string(raw), text)
	assert.Empty(t, html)
	assert.Empty(t, attachments)
}

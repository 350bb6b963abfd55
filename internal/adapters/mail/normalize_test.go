package mail

import (
	"strings"
	"testing"
	"time"

	"github.com/mikey/app-tracker/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const assessmentMessage = "From: Acme Careers <careers@acme.com>\r\n" +
	"To: me@example.com\r\n" +
	"Subject: Complete your assessment\r\n" +
	"Date: Mon, 06 May 2024 10:30:00 +0200\r\n" +
	"Message-ID: <assess-1@acme.com>\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=\"b1\"\r\n" +
	"\r\n" +
	"--b1\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Please complete the online assessment.\r\n" +
	"--b1\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><head><style>p { color: red }</style></head><body>" +
	"<p>Please   complete\n the test</p>" +
	"<a href=\"https://acme.hackerrank.com/t/1\">Start Assessment</a> " +
	"<a href=\"https://acme.com/unsubscribe\">Unsubscribe</a> " +
	"<a href=\"https://acme.hackerrank.com/t/1\">start assessment now</a> " +
	"<a href=\"https://acme.com/portal\">View application</a>" +
	"<script>var tracking = 1;</script>" +
	"</body></html>\r\n" +
	"--b1--\r\n"

const htmlOnlyMessage = "From: talent@globex.io\r\n" +
	"Subject: Interview invitation\r\n" +
	"Date: Tue, 07 May 2024 09:00:00 +0000\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<div>We would like to <b>schedule a call</b>.</div>" +
	"<a href=\"https://cal.globex.io/x\">Book a time</a>\r\n"

func newTestNormalizer() *Normalizer {
	return NewNormalizer(config.DefaultRules().ActionKeywords, nil)
}

func TestFromRaw(t *testing.T) {
	n := newTestNormalizer()

	t.Run("multipart message keeps text and html bodies", func(t *testing.T) {
		email, err := n.FromRaw("m1", []byte(assessmentMessage))
		require.NoError(t, err)

		assert.Equal(t, "m1", email.ID)
		assert.Equal(t, "Complete your assessment", email.Subject)
		assert.Equal(t, "Acme Careers <careers@acme.com>", email.From)
		assert.Equal(t, "careers@acme.com", email.SenderEmail)
		assert.Equal(t, "Acme", email.SenderDomain)
		assert.True(t, email.Date.Equal(time.Date(2024, 5, 6, 8, 30, 0, 0, time.UTC)))

		assert.Contains(t, email.Body, "Please complete the online assessment.")
		assert.Contains(t, email.Body, "Please complete the test")
		assert.NotContains(t, email.Body, "color: red")
		assert.NotContains(t, email.Body, "tracking")
		assert.NotEmpty(t, email.Snippet)
	})

	t.Run("action links are deduplicated in document order", func(t *testing.T) {
		email, err := n.FromRaw("m1", []byte(assessmentMessage))
		require.NoError(t, err)

		assert.Equal(t, []string{"https://acme.hackerrank.com/t/1", "https://acme.com/portal"}, email.ActionLinks)
		assert.Equal(t, "https://acme.hackerrank.com/t/1", email.FirstActionLink())
	})

	t.Run("html-only message is converted to text", func(t *testing.T) {
		email, err := n.FromRaw("m2", []byte(htmlOnlyMessage))
		require.NoError(t, err)

		assert.Contains(t, email.Body, "We would like to schedule a call.")
		assert.NotContains(t, email.Body, "<div>")
		assert.Equal(t, "talent@globex.io", email.SenderEmail)
		assert.Equal(t, "Globex", email.SenderDomain)
		assert.Equal(t, []string{"https://cal.globex.io/x"}, email.ActionLinks)
	})

	t.Run("message ID is used when no ID is given", func(t *testing.T) {
		email, err := n.FromRaw("", []byte(assessmentMessage))
		require.NoError(t, err)
		assert.Equal(t, "assess-1@acme.com", email.ID)
	})
}

func TestFromParts(t *testing.T) {
	n := newTestNormalizer()
	fixed := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	t.Run("unparseable date falls back to now", func(t *testing.T) {
		email := n.FromParts(PartsInput{ID: "x", From: "hr@initech.com", Date: "yesterday-ish", Body: "hello"})
		assert.Equal(t, fixed, email.Date)
		assert.Equal(t, "hello", email.Snippet)
	})

	t.Run("explicit snippet wins", func(t *testing.T) {
		email := n.FromParts(PartsInput{ID: "x", Body: "long body", Snippet: "short"})
		assert.Equal(t, "short", email.Snippet)
		assert.Empty(t, email.ActionLinks)
	})
}

func TestParseSender(t *testing.T) {
	tests := []struct {
		name        string
		from        string
		wantAddress string
		wantDomain  string
	}{
		{name: "display name with angle address", from: "Acme Careers <careers@acme.com>", wantAddress: "careers@acme.com", wantDomain: "Acme"},
		{name: "bare address", from: "jobs@initech.co.uk", wantAddress: "jobs@initech.co.uk", wantDomain: "Initech"},
		{name: "subdomain keeps first label", from: "<no-reply@mail.globex.com>", wantAddress: "no-reply@mail.globex.com", wantDomain: "Mail"},
		{name: "no address", from: "Recruiting Team", wantAddress: "", wantDomain: ""},
		{name: "empty", from: "", wantAddress: "", wantDomain: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			address, domain := ParseSender(tt.from)
			assert.Equal(t, tt.wantAddress, address)
			assert.Equal(t, tt.wantDomain, domain)
		})
	}
}

func TestSnippet(t *testing.T) {
	long := strings.Repeat("é", SnippetLength+50)
	assert.Equal(t, SnippetLength, len([]rune(Snippet(long))))
	assert.Equal(t, "a b", Snippet("  a \n\t b "))
}

func TestHTMLToText(t *testing.T) {
	assert.Equal(t, "Hello world", HTMLToText("<style>x{}</style><p>Hello\n   world</p>"))
	assert.Equal(t, "", HTMLToText("<script>alert(1)</script>"))
}

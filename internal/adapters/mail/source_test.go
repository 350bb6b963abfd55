package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/backend/memory"
	imapclient "github.com/emersion/go-imap/client"
	"github.com/emersion/go-imap/server"
	"github.com/mikey/app-tracker/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func rawMessage(subject, from string, date time.Time) string {
	return fmt.Sprintf("From: %s\r\n"+
		"To: me@example.com\r\n"+
		"Subject: %s\r\n"+
		"Date: %s\r\n"+
		"Content-Type: text/plain; charset=utf-8\r\n"+
		"\r\n"+
		"Body of %s.\r\n", from, subject, date.Format(time.RFC1123Z), subject)
}

// startIMAPServer serves the go-imap memory backend, whose only user is username/password
func startIMAPServer(t *testing.T) string {
	t.Helper()

	s := server.New(memory.New())
	s.AllowInsecureAuth = true

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = s.Serve(listener)
	}()
	t.Cleanup(func() { _ = s.Close() })

	return listener.Addr().String()
}

func appendMessage(t *testing.T, addr, subject string, date time.Time) {
	t.Helper()

	c, err := imapclient.Dial(addr)
	require.NoError(t, err)
	defer func() { _ = c.Logout() }()

	require.NoError(t, c.Login("username", "password"))
	raw := rawMessage(subject, "Acme Careers <careers@acme.com>", date)
	require.NoError(t, c.Append("INBOX", []string{imap.SeenFlag}, date, strings.NewReader(raw)))
}

func TestIMAPSource(t *testing.T) {
	addr := startIMAPServer(t)
	now := time.Now()

	appendMessage(t, addr, "Thank you for applying", now.Add(-3*time.Hour))
	appendMessage(t, addr, "Interview invitation", now.Add(-2*time.Hour))
	appendMessage(t, addr, "Old news", now.AddDate(0, 0, -10))

	newSource := func(opts IMAPOptions) *IMAPSource {
		return NewIMAPSource(opts, newTestNormalizer(), nil)
	}
	opts := IMAPOptions{Address: addr, Username: "username", Password: "password"}

	t.Run("messages inside the window come back oldest first", func(t *testing.T) {
		emails, err := newSource(opts).Fetch(context.Background(), core.FetchQuery{LookbackDays: 1})
		require.NoError(t, err)

		// the memory backend seeds one message delivered now with a 2016 Date header
		require.Len(t, emails, 3)
		assert.Equal(t, "A little message, just for you", emails[0].Subject)
		assert.Equal(t, "Thank you for applying", emails[1].Subject)
		assert.Equal(t, "Interview invitation", emails[2].Subject)
		assert.True(t, strings.HasPrefix(emails[1].ID, "INBOX:"))
		assert.Equal(t, "careers@acme.com", emails[1].SenderEmail)
		assert.Contains(t, emails[1].Body, "Body of Thank you for applying.")
	})

	t.Run("limit keeps the newest messages", func(t *testing.T) {
		emails, err := newSource(opts).Fetch(context.Background(), core.FetchQuery{LookbackDays: 1, Limit: 2})
		require.NoError(t, err)

		require.Len(t, emails, 2)
		assert.Equal(t, "Thank you for applying", emails[0].Subject)
		assert.Equal(t, "Interview invitation", emails[1].Subject)
	})

	t.Run("wrong password fails", func(t *testing.T) {
		bad := opts
		bad.Password = "nope"
		_, err := newSource(bad).Fetch(context.Background(), core.FetchQuery{LookbackDays: 1})
		assert.ErrorContains(t, err, "failed to authenticate")
	})

	t.Run("unknown mailbox fails", func(t *testing.T) {
		missing := opts
		missing.Mailbox = "Archive"
		_, err := newSource(missing).Fetch(context.Background(), core.FetchQuery{LookbackDays: 1})
		assert.ErrorContains(t, err, "failed to select mailbox Archive")
	})

	t.Run("cancelled context fails before dialing", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newSource(opts).Fetch(ctx, core.FetchQuery{LookbackDays: 1})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

type fakeGmail struct {
	messages map[string]string
	query    string
	max      string
}

func (f *fakeGmail) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if strings.HasSuffix(r.URL.Path, "/users/me/messages") {
		f.query = r.URL.Query().Get("q")
		f.max = r.URL.Query().Get("maxResults")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"messages": []map[string]string{{"id": "m2"}, {"id": "gone"}, {"id": "m1"}},
		})
		return
	}

	id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	raw, ok := f.messages[id]
	if !ok || r.URL.Query().Get("format") != "raw" {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Not Found"}}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{
		"id":      id,
		"snippet": "We&#39;d like to talk",
		"raw":     base64.URLEncoding.EncodeToString([]byte(raw)),
	})
}

func TestGmailSource(t *testing.T) {
	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	fake := &fakeGmail{messages: map[string]string{
		"m1": rawMessage("Thank you for applying", "careers@acme.com", now.Add(-5*time.Hour)),
		"m2": rawMessage("Interview invitation", "careers@acme.com", now.Add(-time.Hour)),
	}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	svc, err := gmail.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	src := NewGmailSource(svc, "subject:(application OR interview)", newTestNormalizer(), nil)
	src.now = func() time.Time { return now }

	emails, err := src.Fetch(context.Background(), core.FetchQuery{LookbackDays: 1, Limit: 20})
	require.NoError(t, err)

	t.Run("query carries the cutoff date and the job filter", func(t *testing.T) {
		assert.Equal(t, "after:2024/05/05 subject:(application OR interview)", fake.query)
		assert.Equal(t, "20", fake.max)
	})

	t.Run("missing messages are skipped and the rest come back oldest first", func(t *testing.T) {
		require.Len(t, emails, 2)
		assert.Equal(t, "m1", emails[0].ID)
		assert.Equal(t, "m2", emails[1].ID)
		assert.Equal(t, "Interview invitation", emails[1].Subject)
	})

	t.Run("snippet comes from the API unescaped", func(t *testing.T) {
		assert.Equal(t, "We'd like to talk", emails[0].Snippet)
	})
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)

	files := map[string]string{
		"b.eml":     rawMessage("Interview invitation", "careers@acme.com", now.Add(-time.Hour)),
		"a.eml":     rawMessage("Thank you for applying", "careers@acme.com", now.AddDate(0, 0, -2)),
		"old.eml":   rawMessage("Ancient", "careers@acme.com", now.AddDate(0, 0, -40)),
		"notes.txt": "not a message",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}

	src := NewDirSource(dir, newTestNormalizer(), nil)
	src.now = func() time.Time { return now }

	t.Run("eml files inside the window come back oldest first", func(t *testing.T) {
		emails, err := src.Fetch(context.Background(), core.FetchQuery{LookbackDays: 30})
		require.NoError(t, err)

		require.Len(t, emails, 2)
		assert.Equal(t, "a", emails[0].ID)
		assert.Equal(t, "b", emails[1].ID)
	})

	t.Run("since overrides the lookback", func(t *testing.T) {
		emails, err := src.Fetch(context.Background(), core.FetchQuery{Since: now.Add(-2 * time.Hour), LookbackDays: 30})
		require.NoError(t, err)

		require.Len(t, emails, 1)
		assert.Equal(t, "Interview invitation", emails[0].Subject)
	})

	t.Run("missing directory fails", func(t *testing.T) {
		_, err := NewDirSource(filepath.Join(dir, "nope"), newTestNormalizer(), nil).Fetch(context.Background(), core.FetchQuery{})
		assert.Error(t, err)
	})
}

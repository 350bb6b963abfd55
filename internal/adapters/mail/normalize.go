package mail

import (
	"bytes"
	"fmt"
	"io"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	"github.com/mikey/app-tracker/internal/core"
	"github.com/mikey/app-tracker/internal/phraselist"
	"github.com/mikey/app-tracker/internal/utils"
	"go.uber.org/zap"
)

// SnippetLength is the number of runes of body text kept as a snippet
const SnippetLength = 200

var angleAddressPattern = regexp.MustCompile(`<(.+?)>`)

// Normalizer turns raw RFC 5322 messages into core.NormalizedEmail values
type Normalizer struct {
	actions *phraselist.Matcher
	logger  *zap.Logger
	now     func() time.Time
}

// NewNormalizer creates a normalizer that recognises action links by their anchor text
func NewNormalizer(actionKeywords []string, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{
		actions: phraselist.NewMatcher("action_keywords", actionKeywords, logger),
		logger:  logger,
		now:     time.Now,
	}
}

// FromRaw parses a raw message
func (n *Normalizer) FromRaw(id string, raw []byte) (*core.NormalizedEmail, error) {
	return n.FromReader(id, bytes.NewReader(raw))
}

// FromReader parses a message read from r
func (n *Normalizer) FromReader(id string, r io.Reader) (*core.NormalizedEmail, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message %s: %w", id, err)
	}

	for _, perr := range env.Errors {
		n.logger.Debug("MIME parse warning",
			zap.String("email_id", id),
			zap.String("warning", perr.Error()))
	}

	if id == "" {
		id = strings.Trim(env.GetHeader("Message-Id"), "<> ")
	}

	body := env.Text
	if env.HTML != "" {
		htmlText := HTMLToText(env.HTML)
		if hasPlainPart(env.Root) {
			body = strings.TrimSpace(env.Text + "\n" + htmlText)
		} else {
			body = htmlText
		}
	}

	return n.FromParts(PartsInput{
		ID:      id,
		Subject: env.GetHeader("Subject"),
		From:    env.GetHeader("From"),
		Date:    env.GetHeader("Date"),
		Body:    body,
		HTML:    env.HTML,
	}), nil
}

// PartsInput holds already-decoded message fields
type PartsInput struct {
	ID      string
	Subject string
	From    string
	Date    string
	Body    string
	HTML    string
	Snippet string
}

// FromParts builds a normalized email from decoded fields. An unparseable date becomes now.
func (n *Normalizer) FromParts(in PartsInput) *core.NormalizedEmail {
	date, err := mail.ParseDate(strings.TrimSpace(in.Date))
	if err != nil {
		n.logger.Debug("Unparseable email date, using now",
			zap.String("email_id", in.ID),
			zap.String("date", in.Date))
		date = n.now()
	}

	senderEmail, senderDomain := ParseSender(in.From)

	snippet := in.Snippet
	if snippet == "" {
		snippet = Snippet(in.Body)
	}

	return &core.NormalizedEmail{
		ID:           in.ID,
		Subject:      strings.TrimSpace(in.Subject),
		From:         in.From,
		SenderEmail:  senderEmail,
		SenderDomain: senderDomain,
		Body:         in.Body,
		Snippet:      snippet,
		Date:         date,
		ActionLinks:  n.ActionLinks(in.HTML),
	}
}

// ActionLinks returns the distinct hrefs of anchors whose text names an action, in document order
func (n *Normalizer) ActionLinks(html string) []string {
	if html == "" || n.actions.Len() == 0 {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		n.logger.Debug("Failed to parse HTML for action links", zap.Error(err))
		return nil
	}

	var links []string
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || seen[href] {
			return
		}
		if n.actions.Contains(strings.TrimSpace(s.Text())) {
			seen[href] = true
			links = append(links, href)
		}
	})
	return links
}

// HTMLToText strips markup, scripts and styles, and collapses whitespace
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return utils.CollapseWhitespace(html)
	}
	doc.Find("script, style, head").Remove()
	return utils.CollapseWhitespace(doc.Text())
}

// ParseSender extracts the sender address and a display company from a From header.
// The company is the first label of the address domain, title-cased.
func ParseSender(from string) (string, string) {
	address := ""
	if m := angleAddressPattern.FindStringSubmatch(from); m != nil {
		address = strings.TrimSpace(m[1])
	} else if strings.Contains(from, "@") {
		address = strings.TrimSpace(from)
	}

	at := strings.LastIndex(address, "@")
	if at < 0 {
		return address, ""
	}
	label, _, _ := strings.Cut(address[at+1:], ".")
	if label == "" {
		return address, ""
	}
	return address, utils.TitleCase(label)
}

// Snippet returns the first SnippetLength runes of the collapsed body
func Snippet(body string) string {
	text := utils.CollapseWhitespace(body)
	runes := []rune(text)
	if len(runes) <= SnippetLength {
		return text
	}
	return string(runes[:SnippetLength])
}

func hasPlainPart(p *enmime.Part) bool {
	for ; p != nil; p = p.NextSibling {
		if strings.EqualFold(p.ContentType, "text/plain") && p.Disposition != "attachment" {
			return true
		}
		if hasPlainPart(p.FirstChild) {
			return true
		}
	}
	return false
}

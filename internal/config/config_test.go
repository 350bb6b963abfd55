package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	t.Run("classifier chain defaults to the four Groq models", func(t *testing.T) {
		cc, err := cfg.GetClassifier()
		require.NoError(t, err)
		require.Len(t, cc.Chain, 4)
		assert.Equal(t, ChainEntry{Provider: "openai", Model: "llama-3.3-70b-versatile"}, cc.Chain[0])
		assert.Equal(t, "meta-llama/llama-4-maverick-17b-128e-instruct", cc.Chain[1].Model)
		assert.Equal(t, 3000, cc.MaxBodySize)
		assert.Equal(t, 300, cc.MaxTokens)
		assert.Equal(t, float32(0), cc.Temperature)
		assert.Equal(t, 30*time.Second, cc.RequestTimeout)
		assert.True(t, cc.CacheEnabled)
		assert.Equal(t, 24*time.Hour, cc.CacheTTL)
	})

	t.Run("pipeline defaults match batch and live modes", func(t *testing.T) {
		pc, err := cfg.GetPipeline()
		require.NoError(t, err)
		assert.Equal(t, 30, pc.LookbackDays)
		assert.Equal(t, 500, pc.BatchLimit)
		assert.Equal(t, 20, pc.LiveLimit)
		assert.Equal(t, 24*time.Hour, pc.LiveLookback)
		assert.Equal(t, time.Minute, pc.Interval)
	})

	t.Run("other sections", func(t *testing.T) {
		assert.True(t, cfg.GetTracker().ResolvePlaceholders)
		assert.Equal(t, "sqlite", cfg.GetStore().Type)
		assert.Equal(t, "Applications", cfg.GetSheets().SheetName)
		assert.Equal(t, "INBOX", cfg.GetIMAP().Mailbox)
		assert.Equal(t, "gmail", cfg.GetMail().Source)
		assert.Equal(t, "https://api.groq.com/openai/v1", cfg.GetOpenAI().BaseURL)
		assert.False(t, cfg.GetSMTP().Enabled)
	})
}

func TestParseChainEntry(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ChainEntry
		wantErr bool
	}{
		{name: "simple", raw: "gemini:gemini-1.5-flash", want: ChainEntry{Provider: "gemini", Model: "gemini-1.5-flash"}},
		{name: "model with colon", raw: "bedrock:anthropic.claude-3-haiku-20240307-v1:0", want: ChainEntry{Provider: "bedrock", Model: "anthropic.claude-3-haiku-20240307-v1:0"}},
		{name: "provider is lowercased", raw: " OpenAI:gpt-4o ", want: ChainEntry{Provider: "openai", Model: "gpt-4o"}},
		{name: "missing model", raw: "openai:", wantErr: true},
		{name: "missing separator", raw: "llama", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChainEntry(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadRules(t *testing.T) {
	t.Run("empty path returns the defaults", func(t *testing.T) {
		rules, err := LoadRules("")
		require.NoError(t, err)
		assert.Contains(t, rules.IgnoredSenders, "linkedin")
		assert.Contains(t, rules.NegativeSubjects, "survey")
		assert.Contains(t, rules.PositivePhrases, "thank you for applying")
		assert.Contains(t, rules.ActionKeywords, "start assessment")
		assert.Contains(t, rules.JobQuery, "from:greenhouse")
		assert.NotContains(t, rules.JobQuery, "\n")
	})

	t.Run("file lists replace defaults and absent lists are kept", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		content := "ignored_senders:\n  - spam.example\npositive_phrases:\n  - offer letter\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		rules, err := LoadRules(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"spam.example"}, rules.IgnoredSenders)
		assert.Equal(t, []string{"offer letter"}, rules.PositivePhrases)
		assert.Equal(t, DefaultRules().NegativeSubjects, rules.NegativeSubjects)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := LoadRules(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("ignored_senders: [unclosed"), 0o644))
		_, err := LoadRules(path)
		assert.Error(t, err)
	})
}

package config

import (
	"fmt"
	"strings"
	"time"
)

// ClassifierConfig represents the configuration of the classifier cascade
type ClassifierConfig struct {
	Chain          []ChainEntry
	MaxBodySize    int
	MaxTokens      int
	Temperature    float32
	RequestTimeout time.Duration
	CacheEnabled   bool
	CacheTTL       time.Duration
	CacheCleanup   time.Duration
}

// ChainEntry is one "provider:model" element of the cascade
type ChainEntry struct {
	Provider string
	Model    string
}

// ParseChainEntry splits "provider:model". The model may itself contain colons or slashes.
func ParseChainEntry(raw string) (ChainEntry, error) {
	provider, model, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok || provider == "" || model == "" {
		return ChainEntry{}, fmt.Errorf("invalid classifier chain entry %q, expected provider:model", raw)
	}
	return ChainEntry{Provider: strings.ToLower(provider), Model: model}, nil
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Enabled bool
	Region  string
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey string
}

// OpenAIConfig represents the configuration for OpenAI-compatible endpoints
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
}

// PipelineConfig represents batch and live pass settings
type PipelineConfig struct {
	LookbackDays  int
	BatchLimit    int
	LiveLimit     int
	LiveLookback  time.Duration
	Interval      time.Duration
	MinConfidence float64
}

// TrackerConfig represents status tracker settings
type TrackerConfig struct {
	ResolvePlaceholders bool
}

// StoreConfig represents the record store selection
type StoreConfig struct {
	Type        string
	SQLitePath  string
	MySQLDSN    string
	PostgresDSN string
}

// MailConfig represents the mail source selection
type MailConfig struct {
	Source  string
	DirPath string
}

// IMAPConfig represents the IMAP mail source
type IMAPConfig struct {
	Address  string
	Username string
	Password string
	Mailbox  string
	TLS      bool
}

// GoogleConfig represents OAuth files shared by Gmail and Sheets
type GoogleConfig struct {
	CredentialsFile string
	TokenFile       string
}

// SheetsConfig represents the spreadsheet store
type SheetsConfig struct {
	SpreadsheetID string
	SheetName     string
}

// HTTPConfig represents the JSON API server
type HTTPConfig struct {
	Enabled       bool
	ListenAddress string
}

// SMTPConfig represents the SMTP ingest listener
type SMTPConfig struct {
	Enabled       bool
	ListenAddress string
	Domain        string
}

// GetClassifier returns the classifier configuration
func (c *Config) GetClassifier() (ClassifierConfig, error) {
	timeout, err := c.GetDuration("classifier.request_timeout")
	if err != nil {
		return ClassifierConfig{}, fmt.Errorf("invalid classifier.request_timeout: %w", err)
	}
	cacheTTL, err := c.GetDuration("classifier.cache_ttl")
	if err != nil {
		return ClassifierConfig{}, fmt.Errorf("invalid classifier.cache_ttl: %w", err)
	}
	cacheCleanup, err := c.GetDuration("classifier.cache_cleanup_frequency")
	if err != nil {
		return ClassifierConfig{}, fmt.Errorf("invalid classifier.cache_cleanup_frequency: %w", err)
	}

	var chain []ChainEntry
	for _, raw := range c.GetStringSlice("classifier.chain") {
		entry, err := ParseChainEntry(raw)
		if err != nil {
			return ClassifierConfig{}, err
		}
		chain = append(chain, entry)
	}

	return ClassifierConfig{
		Chain:          chain,
		MaxBodySize:    c.GetInt("classifier.max_body_size"),
		MaxTokens:      c.GetInt("classifier.max_tokens"),
		Temperature:    float32(c.GetFloat64("classifier.temperature")),
		RequestTimeout: timeout,
		CacheEnabled:   c.GetBool("classifier.cache_enabled"),
		CacheTTL:       cacheTTL,
		CacheCleanup:   cacheCleanup,
	}, nil
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Enabled: c.GetBool("bedrock.enabled"),
		Region:  c.GetString("bedrock.region"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey: c.GetString("gemini.api_key"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:  c.GetString("openai.api_key"),
		BaseURL: c.GetString("openai.base_url"),
	}
}

// GetPipeline returns the pipeline configuration
func (c *Config) GetPipeline() (PipelineConfig, error) {
	liveLookback, err := c.GetDuration("pipeline.live_lookback")
	if err != nil {
		return PipelineConfig{}, fmt.Errorf("invalid pipeline.live_lookback: %w", err)
	}
	interval := time.Duration(c.GetInt("pipeline.interval_seconds")) * time.Second
	if interval <= 0 {
		return PipelineConfig{}, fmt.Errorf("pipeline.interval_seconds must be positive")
	}

	return PipelineConfig{
		LookbackDays:  c.GetInt("pipeline.lookback_days"),
		BatchLimit:    c.GetInt("pipeline.batch_limit"),
		LiveLimit:     c.GetInt("pipeline.live_limit"),
		LiveLookback:  liveLookback,
		Interval:      interval,
		MinConfidence: c.GetFloat64("pipeline.min_confidence"),
	}, nil
}

// GetTracker returns the tracker configuration
func (c *Config) GetTracker() TrackerConfig {
	return TrackerConfig{
		ResolvePlaceholders: c.GetBool("tracker.resolve_placeholders"),
	}
}

// GetStore returns the store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:        c.GetString("store.type"),
		SQLitePath:  c.GetString("store.sqlite_path"),
		MySQLDSN:    c.GetString("store.mysql_dsn"),
		PostgresDSN: c.GetString("store.postgres_dsn"),
	}
}

// GetMail returns the mail source configuration
func (c *Config) GetMail() MailConfig {
	return MailConfig{
		Source:  strings.ToLower(c.GetString("mail.source")),
		DirPath: c.GetString("dir.path"),
	}
}

// GetIMAP returns the IMAP configuration
func (c *Config) GetIMAP() IMAPConfig {
	return IMAPConfig{
		Address:  c.GetString("imap.address"),
		Username: c.GetString("imap.username"),
		Password: c.GetString("imap.password"),
		Mailbox:  c.GetString("imap.mailbox"),
		TLS:      c.GetBool("imap.tls"),
	}
}

// GetGoogle returns the Google OAuth configuration
func (c *Config) GetGoogle() GoogleConfig {
	return GoogleConfig{
		CredentialsFile: c.GetString("google.credentials_file"),
		TokenFile:       c.GetString("google.token_file"),
	}
}

// GetSheets returns the spreadsheet configuration
func (c *Config) GetSheets() SheetsConfig {
	return SheetsConfig{
		SpreadsheetID: c.GetString("sheets.spreadsheet_id"),
		SheetName:     c.GetString("sheets.sheet_name"),
	}
}

// GetHTTP returns the HTTP server configuration
func (c *Config) GetHTTP() HTTPConfig {
	return HTTPConfig{
		Enabled:       c.GetBool("server.http.enabled"),
		ListenAddress: c.GetString("server.http.listen_address"),
	}
}

// GetSMTP returns the SMTP ingest configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Enabled:       c.GetBool("server.smtp.enabled"),
		ListenAddress: c.GetString("server.smtp.listen_address"),
		Domain:        c.GetString("server.smtp.domain"),
	}
}

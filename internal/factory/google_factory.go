package factory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mikey/app-tracker/internal/config"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// GoogleScopes are requested for the shared Gmail and Sheets token
var GoogleScopes = []string{gmail.GmailReadonlyScope, sheets.SpreadsheetsScope}

// GoogleFactory creates authorised Google API services from an OAuth client file and a
// previously granted token file
type GoogleFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewGoogleFactory creates a new Google factory
func NewGoogleFactory(cfg *config.Config, logger *zap.Logger) *GoogleFactory {
	return &GoogleFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// storedToken accepts both the oauth2 token layout and the one written by the google-auth
// libraries ("token" instead of "access_token")
type storedToken struct {
	AccessToken  string `json:"access_token"`
	Token        string `json:"token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	Expiry       string `json:"expiry"`
}

// ReadToken loads an OAuth token file
func ReadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file %s: %w", path, err)
	}

	var st storedToken
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", path, err)
	}

	tok := &oauth2.Token{
		AccessToken:  st.AccessToken,
		TokenType:    st.TokenType,
		RefreshToken: st.RefreshToken,
	}
	if tok.AccessToken == "" {
		tok.AccessToken = st.Token
	}
	if st.Expiry != "" {
		// An unparseable expiry leaves the token expired, which forces a refresh
		if t, err := time.Parse(time.RFC3339Nano, st.Expiry); err == nil {
			tok.Expiry = t
		} else if t, err := time.Parse("2006-01-02T15:04:05.999999", st.Expiry); err == nil {
			tok.Expiry = t
		}
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("token file %s holds neither an access nor a refresh token", path)
	}
	return tok, nil
}

// WriteToken saves a token in the oauth2 layout
func WriteToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// HTTPClient returns a client that refreshes the stored token as needed.
// A refreshed token is written back to the token file.
func (f *GoogleFactory) HTTPClient(ctx context.Context) (*http.Client, error) {
	googleCfg := f.cfg.GetGoogle()

	credentials, err := os.ReadFile(googleCfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file %s: %w", googleCfg.CredentialsFile, err)
	}

	oauthCfg, err := google.ConfigFromJSON(credentials, GoogleScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	tok, err := ReadToken(googleCfg.TokenFile)
	if err != nil {
		return nil, err
	}

	ts := oauthCfg.TokenSource(ctx, tok)
	fresh, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh Google token: %w", err)
	}
	if fresh.AccessToken != tok.AccessToken {
		if err := WriteToken(googleCfg.TokenFile, fresh); err != nil {
			f.logger.Warn("Failed to persist refreshed token", zap.Error(err))
		} else {
			f.logger.Info("Refreshed Google token", zap.Time("expiry", fresh.Expiry))
		}
	}

	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(fresh, ts)), nil
}

// CreateGmailService creates an authorised Gmail client
func (f *GoogleFactory) CreateGmailService(ctx context.Context) (*gmail.Service, error) {
	client, err := f.HTTPClient(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return svc, nil
}

// CreateSheetsService creates an authorised Sheets client
func (f *GoogleFactory) CreateSheetsService(ctx context.Context) (*sheets.Service, error) {
	client, err := f.HTTPClient(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}
	return svc, nil
}

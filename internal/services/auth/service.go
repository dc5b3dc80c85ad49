package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2"

	"github.com/ternarybob/adlaunch/internal/common"
	"github.com/ternarybob/adlaunch/internal/models"
)

// expiryMargin is subtracted from the platform-side lifetime when computing
// expires_at, so "expired" checks trip before the token actually dies.
const expiryMargin = 5 * time.Minute

var (
	// ErrNoCredentials indicates no credential record has been stored yet
	ErrNoCredentials = errors.New("no credentials stored")

	// ErrNoRefreshToken indicates the stored record has no refresh token
	ErrNoRefreshToken = errors.New("no refresh token available")
)

// Service is the credential store: the single source of truth for the
// current token pair, persisted to one JSON file that is overwritten
// wholesale on every mutation.
type Service struct {
	path       string
	oauth      *oauth2.Config
	tokenURL   string
	httpClient *http.Client
	logger     arbor.ILogger

	mu     sync.Mutex
	record *models.TokenRecord
}

// NewService creates a credential store backed by the configured token file.
// A missing file is not an error; the store starts empty and is populated
// by the OAuth callback.
func NewService(cfg *common.Config, logger arbor.ILogger) *Service {
	s := &Service{
		path: cfg.Auth.TokenFile,
		oauth: &oauth2.Config{
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			RedirectURL:  cfg.Auth.RedirectURL,
			Scopes:       []string{"snapchat-marketing-api"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.Snapchat.AuthURL,
				TokenURL: cfg.Snapchat.TokenURL,
			},
		},
		tokenURL: cfg.Snapchat.TokenURL,
		httpClient: &http.Client{
			Timeout: cfg.Snapchat.RequestTimeout,
		},
		logger: logger,
	}

	if err := s.load(); err != nil {
		logger.Warn().Err(err).Str("path", s.path).Msg("No stored credentials loaded")
	}

	return s
}

// load reads the credential record from disk
func (s *Service) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var record models.TokenRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("failed to parse token file: %w", err)
	}

	s.mu.Lock()
	s.record = &record
	s.mu.Unlock()
	return nil
}

// save persists the record atomically (write temp file, rename over target)
func (s *Service) save(record *models.TokenRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token record: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".tokens-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close token file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return fmt.Errorf("failed to chmod token file: %w", err)
	}

	return os.Rename(tmp.Name(), s.path)
}

// Record returns a copy of the stored credential record, or nil
func (s *Service) Record() *models.TokenRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.Clone()
}

// AdAccountID returns the configured ad account id, or ""
func (s *Service) AdAccountID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return ""
	}
	return s.record.AdAccountID
}

// SetAdAccount updates the stored ad account selection and persists it
func (s *Service) SetAdAccount(id, name, organizationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.record == nil {
		return ErrNoCredentials
	}
	updated := s.record.Clone()
	updated.AdAccountID = id
	updated.AdAccountName = name
	updated.OrganizationID = organizationID

	if err := s.save(updated); err != nil {
		return err
	}
	s.record = updated
	return nil
}

// IsExpired reports whether the stored token is expired or expires within
// the safety margin. A missing record counts as expired.
func (s *Service) IsExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiredLocked()
}

func (s *Service) expiredLocked() bool {
	if s.record == nil || s.record.AccessToken == "" {
		return true
	}
	return !s.record.ExpiresAt.After(time.Now().Add(expiryMargin))
}

// tokenResponse is the token endpoint's JSON shape
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Refresh exchanges the stored refresh token for a new token pair. On any
// non-2xx response or transport failure the stored record is left
// untouched. Concurrent callers collapse into a single refresh: the mutex
// serializes them and the expiry re-check makes followers a no-op.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.expiredLocked() {
		return nil
	}
	return s.refreshLocked(ctx)
}

// ForceRefresh refreshes regardless of the stored expiry (admin endpoint)
func (s *Service) ForceRefresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *Service) refreshLocked(ctx context.Context) error {
	if s.record == nil {
		return ErrNoCredentials
	}
	if s.record.RefreshToken == "" {
		return ErrNoRefreshToken
	}

	clientID := s.record.ClientID
	clientSecret := s.record.ClientSecret
	if clientID == "" {
		clientID = s.oauth.ClientID
		clientSecret = s.oauth.ClientSecret
	}
	if clientID == "" {
		return errors.New("no client credentials configured")
	}

	s.logger.Info().Msg("Refreshing access token")

	form := url.Values{
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"refresh_token": {s.record.RefreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("token refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("token refresh rejected: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return errors.New("token response missing access_token")
	}
	if tr.ExpiresIn == 0 {
		tr.ExpiresIn = 3600
	}

	updated := s.record.Clone()
	updated.AccessToken = tr.AccessToken
	if tr.RefreshToken != "" {
		updated.RefreshToken = tr.RefreshToken
	}
	updated.ClientID = clientID
	updated.ClientSecret = clientSecret
	updated.ExpiresAt = time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - expiryMargin)

	if err := s.save(updated); err != nil {
		return fmt.Errorf("failed to persist refreshed token: %w", err)
	}
	s.record = updated

	s.logger.Info().Str("expires_at", updated.ExpiresAt.Format(time.RFC3339)).Msg("Token refreshed")
	return nil
}

// ValidToken returns a usable access token, refreshing first if needed.
// A failed refresh is fatal for the caller: it is never retried here.
func (s *Service) ValidToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expiredLocked() {
		if err := s.refreshLocked(ctx); err != nil {
			return "", err
		}
	}
	return s.record.AccessToken, nil
}

// AuthHeaders composes ValidToken into bearer-auth request headers
func (s *Service) AuthHeaders(ctx context.Context) (map[string]string, error) {
	token, err := s.ValidToken(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"Authorization": "Bearer " + token,
		"Content-Type":  "application/json",
	}, nil
}

// AuthCodeURL returns the operator-facing OAuth consent URL
func (s *Service) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ExchangeCode trades an authorization code for the initial token pair and
// persists the resulting credential record.
func (s *Service) ExchangeCode(ctx context.Context, code string) error {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("authorization code exchange failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record := &models.TokenRecord{}
	if s.record != nil {
		record = s.record.Clone()
	}
	record.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		record.RefreshToken = token.RefreshToken
	}
	record.ClientID = s.oauth.ClientID
	record.ClientSecret = s.oauth.ClientSecret
	record.ExpiresAt = token.Expiry.Add(-expiryMargin)

	if err := s.save(record); err != nil {
		return fmt.Errorf("failed to persist credentials: %w", err)
	}
	s.record = record

	s.logger.Info().Str("expires_at", record.ExpiresAt.Format(time.RFC3339)).Msg("Authorization complete, credentials stored")
	return nil
}

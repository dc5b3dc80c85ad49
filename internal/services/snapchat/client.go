package snapchat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/adlaunch/internal/common"
	"github.com/ternarybob/adlaunch/internal/httpclient"
	"github.com/ternarybob/adlaunch/internal/interfaces"
	"github.com/ternarybob/adlaunch/internal/models"
)

// Client is the typed Snapchat Marketing API client. All JSON calls route
// through the resilient executor and a shared rate limiter; responses are
// interpreted per the platform's envelope conventions before any payload
// reaches a caller.
type Client struct {
	adsBaseURL string
	auth       interfaces.TokenProvider
	http       *httpclient.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger

	mediaWaitTimeout  time.Duration
	mediaPollInterval time.Duration
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying resilient executor.
func WithHTTPClient(hc *httpclient.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRateLimit overrides the request pacing (requests per second).
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithMediaWait overrides the readiness polling cap and interval.
func WithMediaWait(timeout, interval time.Duration) ClientOption {
	return func(c *Client) {
		c.mediaWaitTimeout = timeout
		c.mediaPollInterval = interval
	}
}

// NewClient creates a platform client bound to a token provider.
func NewClient(cfg *common.Config, auth interfaces.TokenProvider, logger arbor.ILogger, opts ...ClientOption) *Client {
	c := &Client{
		adsBaseURL: strings.TrimRight(cfg.Snapchat.AdsBaseURL, "/"),
		auth:       auth,
		http: httpclient.New(
			httpclient.WithTimeout(cfg.Snapchat.RequestTimeout),
			httpclient.WithMaxRetries(cfg.Snapchat.MaxRetries),
			httpclient.WithBackoffBase(cfg.Snapchat.BackoffBase),
			httpclient.WithLogger(logger),
		),
		limiter:           rate.NewLimiter(rate.Limit(cfg.Snapchat.RateLimit), 1),
		logger:            logger,
		mediaWaitTimeout:  cfg.Bulk.MediaWaitTimeout,
		mediaPollInterval: cfg.Bulk.MediaPollInterval,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// doJSON paces, authenticates and executes one JSON API call, decoding the
// response body into out when the status is 2xx.
func (c *Client) doJSON(ctx context.Context, method, url, resource string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	headers, err := c.auth.AuthHeaders(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain credentials: %w", err)
	}

	resp, err := c.http.DoJSON(ctx, method, url, headers, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &APIError{
			StatusCode: resp.StatusCode,
			Resource:   resource,
			Reason:     strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		drainBody(resp)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", resource, err)
	}
	return nil
}

func drainBody(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
}

// subResult carries the per-element creation verdict shared by every
// creation envelope.
type subResult struct {
	SubRequestStatus      string `json:"sub_request_status"`
	SubRequestErrorReason string `json:"sub_request_error_reason"`
}

// checkEnvelope applies the platform's two-level success convention: an
// outer request_status of ERROR fails the whole call, and each element must
// report sub_request_status SUCCESS.
func checkEnvelope(resource, requestStatus string, elements []subResult) error {
	if strings.EqualFold(requestStatus, "ERROR") {
		reason := "unknown error"
		for _, e := range elements {
			if e.SubRequestErrorReason != "" {
				reason = e.SubRequestErrorReason
				break
			}
		}
		return &APIError{Resource: resource, Reason: reason}
	}
	if len(elements) == 0 {
		return &APIError{Resource: resource, Reason: "empty response envelope"}
	}
	for _, e := range elements {
		if !strings.EqualFold(e.SubRequestStatus, "SUCCESS") {
			reason := e.SubRequestErrorReason
			if reason == "" {
				reason = fmt.Sprintf("sub_request_status %q", e.SubRequestStatus)
			}
			return &APIError{Resource: resource, Reason: reason}
		}
	}
	return nil
}

// Me returns the authenticated user
func (c *Client) Me(ctx context.Context) (*models.UserInfo, error) {
	var out struct {
		Me models.UserInfo `json:"me"`
	}
	url := c.adsBaseURL + "/me"
	if err := c.doJSON(ctx, http.MethodGet, url, "me", nil, &out); err != nil {
		return nil, err
	}
	return &out.Me, nil
}

// AdAccounts lists the ad accounts of an organization
func (c *Client) AdAccounts(ctx context.Context, organizationID string) ([]models.AdAccount, error) {
	var out struct {
		AdAccounts []struct {
			AdAccount models.AdAccount `json:"adaccount"`
		} `json:"adaccounts"`
	}
	url := fmt.Sprintf("%s/organizations/%s/adaccounts", c.adsBaseURL, organizationID)
	if err := c.doJSON(ctx, http.MethodGet, url, "adaccounts", nil, &out); err != nil {
		return nil, err
	}

	accounts := make([]models.AdAccount, 0, len(out.AdAccounts))
	for _, item := range out.AdAccounts {
		accounts = append(accounts, item.AdAccount)
	}
	return accounts, nil
}

// Pixels lists the pixels of an ad account
func (c *Client) Pixels(ctx context.Context, adAccountID string) ([]models.Pixel, error) {
	var out struct {
		Pixels []struct {
			Pixel models.Pixel `json:"pixel"`
		} `json:"pixels"`
	}
	url := fmt.Sprintf("%s/adaccounts/%s/pixels", c.adsBaseURL, adAccountID)
	if err := c.doJSON(ctx, http.MethodGet, url, "pixels", nil, &out); err != nil {
		return nil, err
	}

	pixels := make([]models.Pixel, 0, len(out.Pixels))
	for _, item := range out.Pixels {
		pixels = append(pixels, item.Pixel)
	}
	return pixels, nil
}

// CreateCampaign creates one campaign under the ad account
func (c *Client) CreateCampaign(ctx context.Context, adAccountID string, campaign *models.Campaign) (*models.Campaign, error) {
	payload := map[string]interface{}{
		"campaigns": []*models.Campaign{campaign},
	}
	var out struct {
		RequestStatus string `json:"request_status"`
		Campaigns     []struct {
			subResult
			Campaign models.Campaign `json:"campaign"`
		} `json:"campaigns"`
	}

	url := fmt.Sprintf("%s/adaccounts/%s/campaigns", c.adsBaseURL, adAccountID)
	if err := c.doJSON(ctx, http.MethodPost, url, "campaign", payload, &out); err != nil {
		return nil, err
	}
	if err := checkEnvelope("campaign", out.RequestStatus, subResults(len(out.Campaigns), func(i int) subResult { return out.Campaigns[i].subResult })); err != nil {
		return nil, err
	}
	return &out.Campaigns[0].Campaign, nil
}

// CreateAdSquad creates one ad squad under the campaign
func (c *Client) CreateAdSquad(ctx context.Context, campaignID string, squad *models.AdSquad) (*models.AdSquad, error) {
	payload := map[string]interface{}{
		"adsquads": []*models.AdSquad{squad},
	}
	var out struct {
		RequestStatus string `json:"request_status"`
		AdSquads      []struct {
			subResult
			AdSquad models.AdSquad `json:"adsquad"`
		} `json:"adsquads"`
	}

	url := fmt.Sprintf("%s/campaigns/%s/adsquads", c.adsBaseURL, campaignID)
	if err := c.doJSON(ctx, http.MethodPost, url, "adsquad", payload, &out); err != nil {
		return nil, err
	}
	if err := checkEnvelope("adsquad", out.RequestStatus, subResults(len(out.AdSquads), func(i int) subResult { return out.AdSquads[i].subResult })); err != nil {
		return nil, err
	}
	return &out.AdSquads[0].AdSquad, nil
}

// CreateMedia registers a media placeholder (phase one of the upload)
func (c *Client) CreateMedia(ctx context.Context, adAccountID string, media *models.Media) (*models.Media, error) {
	payload := map[string]interface{}{
		"media": []*models.Media{media},
	}
	var out struct {
		RequestStatus string `json:"request_status"`
		Media         []struct {
			subResult
			Media models.Media `json:"media"`
		} `json:"media"`
	}

	url := fmt.Sprintf("%s/adaccounts/%s/media", c.adsBaseURL, adAccountID)
	if err := c.doJSON(ctx, http.MethodPost, url, "media", payload, &out); err != nil {
		return nil, err
	}
	if err := checkEnvelope("media", out.RequestStatus, subResults(len(out.Media), func(i int) subResult { return out.Media[i].subResult })); err != nil {
		return nil, err
	}
	return &out.Media[0].Media, nil
}

// UploadMediaFile attaches file bytes to a registered media id (phase two).
// The upload endpoint takes only the bearer header; multipart sets its own
// content type, and a 200 with a non-JSON body still counts as success.
func (c *Client) UploadMediaFile(ctx context.Context, mediaID, path string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open media file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to read media file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	token, err := c.auth.ValidToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain credentials: %w", err)
	}
	headers := map[string]string{
		"Authorization": "Bearer " + token,
		"Content-Type":  writer.FormDataContentType(),
	}

	url := fmt.Sprintf("%s/media/%s/upload", c.adsBaseURL, mediaID)
	resp, err := c.http.Do(ctx, http.MethodPost, url, headers, buf.Bytes())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &APIError{
			StatusCode: resp.StatusCode,
			Resource:   "media upload",
			Reason:     strings.TrimSpace(string(data)),
		}
	}

	drainBody(resp)
	return nil
}

// UploadMedia runs the full two-phase upload for one file and optionally
// blocks until the platform reports the media as ready.
func (c *Client) UploadMedia(ctx context.Context, adAccountID, path string, waitForReady bool) (*models.Media, error) {
	name := filepath.Base(path)
	mediaType := "IMAGE"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".mov":
		mediaType = "VIDEO"
	}

	created, err := c.CreateMedia(ctx, adAccountID, &models.Media{
		Name:        name,
		Type:        mediaType,
		AdAccountID: adAccountID,
	})
	if err != nil {
		return nil, err
	}

	if err := c.UploadMediaFile(ctx, created.ID, path); err != nil {
		return nil, err
	}

	if waitForReady {
		ready, err := c.WaitForMediaReady(ctx, created.ID)
		if err != nil {
			return nil, err
		}
		return ready, nil
	}
	return created, nil
}

// MediaStatus fetches the current processing state of a media id
func (c *Client) MediaStatus(ctx context.Context, mediaID string) (*models.Media, error) {
	var out struct {
		Media []struct {
			Media models.Media `json:"media"`
		} `json:"media"`
	}
	url := fmt.Sprintf("%s/media/%s", c.adsBaseURL, mediaID)
	if err := c.doJSON(ctx, http.MethodGet, url, "media", nil, &out); err != nil {
		return nil, err
	}
	if len(out.Media) == 0 {
		return nil, &APIError{Resource: "media", Reason: "empty response envelope"}
	}
	return &out.Media[0].Media, nil
}

// WaitForMediaReady polls media status until READY, a terminal failure, or
// the configured timeout.
func (c *Client) WaitForMediaReady(ctx context.Context, mediaID string) (*models.Media, error) {
	deadline := time.Now().Add(c.mediaWaitTimeout)

	for {
		media, err := c.MediaStatus(ctx, mediaID)
		if err != nil {
			return nil, err
		}

		switch media.MediaStatus {
		case models.MediaStatusReady:
			return media, nil
		case models.MediaStatusFailed, models.MediaStatusError:
			return nil, &APIError{Resource: "media", Reason: fmt.Sprintf("media %s processing failed (%s)", mediaID, media.MediaStatus)}
		}

		if time.Now().After(deadline) {
			return nil, &APIError{Resource: "media", Reason: fmt.Sprintf("media %s not ready after %s", mediaID, c.mediaWaitTimeout)}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.mediaPollInterval):
		}
	}
}

// CreateCreative creates one creative under the ad account
func (c *Client) CreateCreative(ctx context.Context, adAccountID string, creative *models.Creative) (*models.Creative, error) {
	payload := map[string]interface{}{
		"creatives": []*models.Creative{creative},
	}
	var out struct {
		RequestStatus string `json:"request_status"`
		Creatives     []struct {
			subResult
			Creative models.Creative `json:"creative"`
		} `json:"creatives"`
	}

	url := fmt.Sprintf("%s/adaccounts/%s/creatives", c.adsBaseURL, adAccountID)
	if err := c.doJSON(ctx, http.MethodPost, url, "creative", payload, &out); err != nil {
		return nil, err
	}
	if err := checkEnvelope("creative", out.RequestStatus, subResults(len(out.Creatives), func(i int) subResult { return out.Creatives[i].subResult })); err != nil {
		return nil, err
	}
	return &out.Creatives[0].Creative, nil
}

// CreateAd creates one ad under the ad squad
func (c *Client) CreateAd(ctx context.Context, adSquadID string, ad *models.Ad) (*models.Ad, error) {
	payload := map[string]interface{}{
		"ads": []*models.Ad{ad},
	}
	var out struct {
		RequestStatus string `json:"request_status"`
		Ads           []struct {
			subResult
			Ad models.Ad `json:"ad"`
		} `json:"ads"`
	}

	url := fmt.Sprintf("%s/adsquads/%s/ads", c.adsBaseURL, adSquadID)
	if err := c.doJSON(ctx, http.MethodPost, url, "ad", payload, &out); err != nil {
		return nil, err
	}
	if err := checkEnvelope("ad", out.RequestStatus, subResults(len(out.Ads), func(i int) subResult { return out.Ads[i].subResult })); err != nil {
		return nil, err
	}
	return &out.Ads[0].Ad, nil
}

// subResults adapts the per-resource anonymous element slices to the shared
// envelope check.
func subResults(n int, at func(int) subResult) []subResult {
	results := make([]subResult, n)
	for i := 0; i < n; i++ {
		results[i] = at(i)
	}
	return results
}

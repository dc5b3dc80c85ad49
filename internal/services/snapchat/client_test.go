package snapchat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/adlaunch/internal/common"
	"github.com/ternarybob/adlaunch/internal/models"
)

// staticTokens satisfies the token provider with a fixed token
type staticTokens struct{}

func (staticTokens) ValidToken(ctx context.Context) (string, error) { return "test-token", nil }
func (staticTokens) AuthHeaders(ctx context.Context) (map[string]string, error) {
	return map[string]string{
		"Authorization": "Bearer test-token",
		"Content-Type":  "application/json",
	}, nil
}
func (staticTokens) AdAccountID() string { return "acct-1" }

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Snapchat.AdsBaseURL = serverURL
	cfg.Snapchat.MaxRetries = 0
	return NewClient(cfg, staticTokens{}, arbor.NewLogger(),
		WithRateLimit(10000),
		WithMediaWait(200*time.Millisecond, 10*time.Millisecond),
	)
}

func TestCreateCampaignSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/adaccounts/acct-1/campaigns", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var payload struct {
			Campaigns []models.Campaign `json:"campaigns"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Campaigns, 1)
		assert.Equal(t, "Summer Launch", payload.Campaigns[0].Name)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"request_status": "SUCCESS",
			"campaigns": []map[string]interface{}{
				{
					"sub_request_status": "SUCCESS",
					"campaign":           map[string]interface{}{"id": "camp-1", "name": "Summer Launch"},
				},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	campaign, err := client.CreateCampaign(context.Background(), "acct-1", &models.Campaign{Name: "Summer Launch"})
	require.NoError(t, err)
	assert.Equal(t, "camp-1", campaign.ID)
}

func TestCreateCampaignOuterError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"request_status": "ERROR",
			"campaigns": []map[string]interface{}{
				{
					"sub_request_status":       "ERROR",
					"sub_request_error_reason": "daily_budget_micro below minimum",
				},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CreateCampaign(context.Background(), "acct-1", &models.Campaign{Name: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daily_budget_micro below minimum")

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestCreateAdSubRequestFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"request_status": "SUCCESS",
			"ads": []map[string]interface{}{
				{
					"sub_request_status":       "ERROR",
					"sub_request_error_reason": "The media associated hasn't been uploaded yet",
				},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CreateAd(context.Background(), "squad-1", &models.Ad{Name: "ad", AdSquadID: "squad-1", CreativeID: "cr-1"})
	require.Error(t, err)
	assert.True(t, IsMediaNotReady(err))
}

func TestIsMediaNotReady(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"matching reason", &APIError{Resource: "ad", Reason: "media hasn't been uploaded yet"}, true},
		{"other api error", &APIError{Resource: "ad", Reason: "invalid creative"}, false},
		{"plain error", context.DeadlineExceeded, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMediaNotReady(tt.err))
		})
	}
}

func TestHTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"request_status":"ERROR"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Me(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestMeAndAdAccounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"me": map[string]interface{}{"id": "user-1", "organization_id": "org-1"},
			})
		case "/organizations/org-1/adaccounts":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"adaccounts": []map[string]interface{}{
					{"adaccount": map[string]interface{}{"id": "acct-1", "name": "Main"}},
					{"adaccount": map[string]interface{}{"id": "acct-2", "name": "Backup"}},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	me, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "org-1", me.OrganizationID)

	accounts, err := client.AdAccounts(context.Background(), me.OrganizationID)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "Main", accounts[0].Name)
}

func TestUploadMediaTwoPhase(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(videoPath, []byte("fake video bytes"), 0644))

	var uploadedContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/adaccounts/acct-1/media":
			var payload struct {
				Media []models.Media `json:"media"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			require.Len(t, payload.Media, 1)
			assert.Equal(t, "VIDEO", payload.Media[0].Type)
			assert.Equal(t, "clip.mp4", payload.Media[0].Name)

			json.NewEncoder(w).Encode(map[string]interface{}{
				"request_status": "SUCCESS",
				"media": []map[string]interface{}{
					{
						"sub_request_status": "SUCCESS",
						"media":              map[string]interface{}{"id": "media-1", "name": "clip.mp4"},
					},
				},
			})
		case "/media/media-1/upload":
			uploadedContentType = r.Header.Get("Content-Type")
			require.NoError(t, r.ParseMultipartForm(1 << 20))
			_, header, err := r.FormFile("file")
			require.NoError(t, err)
			assert.Equal(t, "clip.mp4", header.Filename)
			// the real upload endpoint answers 200 with a non-JSON body
			w.Write([]byte("OK"))
		case "/media/media-1":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"media": []map[string]interface{}{
					{"media": map[string]interface{}{"id": "media-1", "media_status": "READY"}},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	media, err := client.UploadMedia(context.Background(), "acct-1", videoPath, true)
	require.NoError(t, err)
	assert.Equal(t, "media-1", media.ID)
	assert.Equal(t, models.MediaStatusReady, media.MediaStatus)
	assert.Contains(t, uploadedContentType, "multipart/form-data")
}

func TestWaitForMediaReadyTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"media": []map[string]interface{}{
				{"media": map[string]interface{}{"id": "media-1", "media_status": "PROCESSING"}},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.WaitForMediaReady(context.Background(), "media-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready after")
}

func TestWaitForMediaReadyTerminalFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"media": []map[string]interface{}{
				{"media": map[string]interface{}{"id": "media-1", "media_status": "FAILED"}},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.WaitForMediaReady(context.Background(), "media-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "processing failed")
}

func TestPixels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/adaccounts/acct-1/pixels", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"pixels": []map[string]interface{}{
				{"pixel": map[string]interface{}{"id": "pix-1", "name": "Store Pixel"}},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	pixels, err := client.Pixels(context.Background(), "acct-1")
	require.NoError(t, err)
	require.Len(t, pixels, 1)
	assert.Equal(t, "pix-1", pixels[0].ID)
}

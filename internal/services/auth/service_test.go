package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/adlaunch/internal/common"
	"github.com/ternarybob/adlaunch/internal/models"
)

func testConfig(t *testing.T, tokenURL string) *common.Config {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Auth.TokenFile = filepath.Join(t.TempDir(), "tokens.json")
	cfg.Snapchat.TokenURL = tokenURL
	return cfg
}

func writeRecord(t *testing.T, path string, record *models.TokenRecord) {
	t.Helper()
	data, err := json.Marshal(record)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0600))
}

func TestIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		token     string
		expired   bool
	}{
		{"valid for an hour", time.Now().Add(time.Hour), "tok", false},
		{"already expired", time.Now().Add(-time.Hour), "tok", true},
		{"inside the five minute margin", time.Now().Add(2 * time.Minute), "tok", true},
		{"just outside the margin", time.Now().Add(6 * time.Minute), "tok", false},
		{"no access token", time.Now().Add(time.Hour), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, "http://unused")
			writeRecord(t, cfg.Auth.TokenFile, &models.TokenRecord{
				AccessToken:  tt.token,
				RefreshToken: "refresh",
				ExpiresAt:    tt.expiresAt,
			})

			svc := NewService(cfg, arbor.NewLogger())
			assert.Equal(t, tt.expired, svc.IsExpired())
		})
	}
}

func TestIsExpiredNoRecord(t *testing.T) {
	cfg := testConfig(t, "http://unused")
	svc := NewService(cfg, arbor.NewLogger())
	assert.True(t, svc.IsExpired())
}

func TestRefreshSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.Form.Get("refresh_token"))
		assert.Equal(t, "cid", r.Form.Get("client_id"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"expires_in":    1800,
		})
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	writeRecord(t, cfg.Auth.TokenFile, &models.TokenRecord{
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
		ClientID:     "cid",
		ClientSecret: "secret",
		ExpiresAt:    time.Now().Add(-time.Hour),
	})

	svc := NewService(cfg, arbor.NewLogger())
	require.NoError(t, svc.Refresh(context.Background()))

	assert.False(t, svc.IsExpired())
	record := svc.Record()
	assert.Equal(t, "new-access", record.AccessToken)
	assert.Equal(t, "new-refresh", record.RefreshToken)
	// expires_at carries the five minute safety margin: 30m - 5m = 25m out
	assert.WithinDuration(t, time.Now().Add(25*time.Minute), record.ExpiresAt, 5*time.Second)

	// persisted to disk too
	data, err := os.ReadFile(cfg.Auth.TokenFile)
	require.NoError(t, err)
	var stored models.TokenRecord
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, "new-access", stored.AccessToken)
}

func TestRefreshRejectedLeavesStateUntouched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	original := &models.TokenRecord{
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
		ClientID:     "cid",
		ClientSecret: "secret",
		ExpiresAt:    time.Now().Add(-time.Hour).Truncate(time.Second),
	}
	writeRecord(t, cfg.Auth.TokenFile, original)

	svc := NewService(cfg, arbor.NewLogger())
	err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token refresh rejected")

	// in-memory record unchanged
	record := svc.Record()
	assert.Equal(t, "old-access", record.AccessToken)
	assert.Equal(t, "old-refresh", record.RefreshToken)

	// file unchanged
	data, err := os.ReadFile(cfg.Auth.TokenFile)
	require.NoError(t, err)
	var stored models.TokenRecord
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, "old-access", stored.AccessToken)
}

func TestRefreshWithoutRefreshToken(t *testing.T) {
	cfg := testConfig(t, "http://unused")
	writeRecord(t, cfg.Auth.TokenFile, &models.TokenRecord{
		AccessToken: "tok",
		ExpiresAt:   time.Now().Add(-time.Hour),
	})

	svc := NewService(cfg, arbor.NewLogger())
	err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoRefreshToken)
}

func TestValidTokenRefreshesWhenExpired(t *testing.T) {
	var calls int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "fresh",
			"expires_in":   3600,
		})
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	writeRecord(t, cfg.Auth.TokenFile, &models.TokenRecord{
		AccessToken:  "stale",
		RefreshToken: "refresh",
		ClientID:     "cid",
		ExpiresAt:    time.Now().Add(-time.Hour),
	})

	svc := NewService(cfg, arbor.NewLogger())

	// concurrent callers collapse into one refresh
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := svc.ValidToken(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "fresh", token)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestValidTokenStillValid(t *testing.T) {
	cfg := testConfig(t, "http://unreachable.invalid")
	writeRecord(t, cfg.Auth.TokenFile, &models.TokenRecord{
		AccessToken:  "current",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	})

	svc := NewService(cfg, arbor.NewLogger())
	token, err := svc.ValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "current", token)
}

func TestAuthHeaders(t *testing.T) {
	cfg := testConfig(t, "http://unused")
	writeRecord(t, cfg.Auth.TokenFile, &models.TokenRecord{
		AccessToken:  "current",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	})

	svc := NewService(cfg, arbor.NewLogger())
	headers, err := svc.AuthHeaders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer current", headers["Authorization"])
	assert.Equal(t, "application/json", headers["Content-Type"])
}

func TestSetAdAccount(t *testing.T) {
	cfg := testConfig(t, "http://unused")
	writeRecord(t, cfg.Auth.TokenFile, &models.TokenRecord{
		AccessToken:  "tok",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	})

	svc := NewService(cfg, arbor.NewLogger())
	require.NoError(t, svc.SetAdAccount("acct-1", "Main Account", "org-1"))
	assert.Equal(t, "acct-1", svc.AdAccountID())

	// survives a reload
	again := NewService(cfg, arbor.NewLogger())
	assert.Equal(t, "acct-1", again.AdAccountID())
	assert.Equal(t, "Main Account", again.Record().AdAccountName)
}

package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/adlaunch/internal/interfaces"
	"github.com/ternarybob/adlaunch/internal/services/auth"
)

// AuthHandler handles credential status, refresh and the OAuth flow
type AuthHandler struct {
	tokens *auth.Service
	client interfaces.PlatformClient
	logger arbor.ILogger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(tokens *auth.Service, client interfaces.PlatformClient, logger arbor.ILogger) *AuthHandler {
	return &AuthHandler{
		tokens: tokens,
		client: client,
		logger: logger,
	}
}

// GetStatusHandler handles GET /api/auth/status. When credentials are
// present it also surfaces the account discovery info used to pick an
// ad account.
func (h *AuthHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	record := h.tokens.Record()
	if record == nil {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"authenticated": false,
		})
		return
	}

	status := map[string]interface{}{
		"authenticated":   true,
		"expired":         h.tokens.IsExpired(),
		"expires_at":      record.ExpiresAt,
		"ad_account_id":   record.AdAccountID,
		"ad_account_name": record.AdAccountName,
	}

	if !h.tokens.IsExpired() {
		if me, err := h.client.Me(r.Context()); err == nil {
			status["user_id"] = me.ID
			status["organization_id"] = me.OrganizationID
			if accounts, err := h.client.AdAccounts(r.Context(), me.OrganizationID); err == nil {
				status["ad_accounts"] = accounts
			}
		}
	}

	WriteJSON(w, http.StatusOK, status)
}

// RefreshHandler handles POST /api/auth/refresh
func (h *AuthHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if err := h.tokens.ForceRefresh(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("Manual token refresh failed")
		WriteError(w, http.StatusBadGateway, "Token refresh failed: "+err.Error())
		return
	}

	WriteSuccess(w, "Token refreshed")
}

// LoginHandler handles GET /api/auth/login, redirecting to the consent page
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	http.Redirect(w, r, h.tokens.AuthCodeURL("adlaunch"), http.StatusFound)
}

// CallbackHandler handles GET /api/auth/callback, exchanging the
// authorization code for the initial credential record.
func (h *AuthHandler) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		WriteError(w, http.StatusBadRequest, "Missing authorization code")
		return
	}

	if err := h.tokens.ExchangeCode(r.Context(), code); err != nil {
		h.logger.Error().Err(err).Msg("Authorization code exchange failed")
		WriteError(w, http.StatusBadGateway, "Authorization failed: "+err.Error())
		return
	}

	WriteSuccess(w, "Authorization complete")
}

// SelectAccountHandler handles POST /api/auth/account?id=...&name=...&organization_id=...
func (h *AuthHandler) SelectAccountHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Ad account id required")
		return
	}

	if err := h.tokens.SetAdAccount(id, r.URL.Query().Get("name"), r.URL.Query().Get("organization_id")); err != nil {
		WriteError(w, http.StatusBadRequest, "Failed to store ad account: "+err.Error())
		return
	}

	WriteSuccess(w, "Ad account selected")
}

// PixelsHandler handles GET /api/pixels, listing the pixels of the
// configured ad account so an operator can pick a pixel id for jobs.
func (h *AuthHandler) PixelsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	adAccountID := h.tokens.AdAccountID()
	if adAccountID == "" {
		WriteError(w, http.StatusBadRequest, "No ad account configured")
		return
	}

	pixels, err := h.client.Pixels(r.Context(), adAccountID)
	if err != nil {
		WriteError(w, http.StatusBadGateway, "Failed to list pixels: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"pixels": pixels,
	})
}

package models

import "time"

// TokenRecord is the persisted credential record for the Marketing API.
// It is written wholesale to a single JSON file on every mutation and
// never deleted, only overwritten.
type TokenRecord struct {
	AccessToken    string    `json:"access_token"`
	RefreshToken   string    `json:"refresh_token"`
	ClientID       string    `json:"client_id"`
	ClientSecret   string    `json:"client_secret"`
	ExpiresAt      time.Time `json:"expires_at"`
	AdAccountID    string    `json:"ad_account_id"`
	AdAccountName  string    `json:"ad_account_name,omitempty"`
	OrganizationID string    `json:"organization_id,omitempty"`
}

// Clone returns a copy of the record
func (t *TokenRecord) Clone() *TokenRecord {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

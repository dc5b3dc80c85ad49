package models

// Wire types for the Snapchat Marketing API. Creation endpoints accept and
// return single objects wrapped in a list-typed envelope keyed by the
// plural resource name; envelope handling lives in the platform client.

// Targeting is the ad squad targeting spec
type Targeting struct {
	RegulatedContent bool          `json:"regulated_content"`
	Geos             []Geo         `json:"geos,omitempty"`
	Demographics     []Demographic `json:"demographics,omitempty"`
}

type Geo struct {
	CountryCode string `json:"country_code"`
}

type Demographic struct {
	MinAge int `json:"min_age"`
	MaxAge int `json:"max_age,omitempty"`
}

type Placement struct {
	Config string `json:"config"`
}

type Campaign struct {
	ID               string `json:"id,omitempty"`
	Name             string `json:"name"`
	Status           string `json:"status,omitempty"`
	StartTime        string `json:"start_time,omitempty"`
	BuyModel         string `json:"buy_model,omitempty"`
	Objective        string `json:"objective,omitempty"`
	DailyBudgetMicro int64  `json:"daily_budget_micro,omitempty"`
}

type AdSquad struct {
	ID               string     `json:"id,omitempty"`
	Name             string     `json:"name"`
	Status           string     `json:"status,omitempty"`
	CampaignID       string     `json:"campaign_id"`
	Type             string     `json:"type,omitempty"`
	Targeting        *Targeting `json:"targeting,omitempty"`
	PlacementV2      *Placement `json:"placement_v2,omitempty"`
	BillingEvent     string     `json:"billing_event,omitempty"`
	AutoBid          bool       `json:"auto_bid,omitempty"`
	OptimizationGoal string     `json:"optimization_goal,omitempty"`
	DailyBudgetMicro int64      `json:"daily_budget_micro,omitempty"`
	StartTime        string     `json:"start_time,omitempty"`
	PixelID          string     `json:"pixel_id,omitempty"`
}

// Media statuses reported by the platform while an upload is processed
const (
	MediaStatusReady         = "READY"
	MediaStatusPendingUpload = "PENDING_UPLOAD"
	MediaStatusProcessing    = "PROCESSING"
	MediaStatusFailed        = "FAILED"
	MediaStatusError         = "ERROR"
)

type Media struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"` // VIDEO or IMAGE
	AdAccountID string `json:"ad_account_id,omitempty"`
	MediaStatus string `json:"media_status,omitempty"`
}

type WebViewProperties struct {
	URL                    string   `json:"url"`
	AllowSnapJavascriptSDK bool     `json:"allow_snap_javascript_sdk"`
	UseImmersiveMode       bool     `json:"use_immersive_mode"`
	DeepLinkUrls           []string `json:"deep_link_urls"`
	BlockPreload           bool     `json:"block_preload"`
}

type ProfileProperties struct {
	ProfileID   string `json:"profile_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type Creative struct {
	ID                string             `json:"id,omitempty"`
	AdAccountID       string             `json:"ad_account_id"`
	Name              string             `json:"name"`
	Type              string             `json:"type,omitempty"`
	Headline          string             `json:"headline,omitempty"`
	BrandName         string             `json:"brand_name,omitempty"`
	CallToAction      string             `json:"call_to_action,omitempty"`
	TopSnapMediaID    string             `json:"top_snap_media_id,omitempty"`
	Shareable         bool               `json:"shareable"`
	ProfileProperties *ProfileProperties `json:"profile_properties,omitempty"`
	WebViewProperties *WebViewProperties `json:"web_view_properties,omitempty"`
}

type Ad struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	AdSquadID  string `json:"ad_squad_id"`
	CreativeID string `json:"creative_id"`
	Status     string `json:"status,omitempty"`
	Type       string `json:"type,omitempty"`
}

// UserInfo is the authenticated user returned by /me
type UserInfo struct {
	ID             string `json:"id"`
	Email          string `json:"email,omitempty"`
	DisplayName    string `json:"display_name,omitempty"`
	OrganizationID string `json:"organization_id"`
}

type AdAccount struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

type Pixel struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

// UploadedMedia is one successfully uploaded media item paired with the
// headline it will carry. Consumed exactly once by ad creation.
type UploadedMedia struct {
	MediaID   string `json:"media_id"`
	Headline  string `json:"headline"`
	VideoName string `json:"video_name"`
}

package models

// BulkJobSpec is a validated bulk-campaign job submission. All optional
// fields are resolved exactly once via ApplyDefaults at job-start time;
// pipeline stages never fall back on their own defaults.
type BulkJobSpec struct {
	// Campaign
	CampaignName   string `json:"campaign_name" validate:"required"`
	Objective      string `json:"objective" validate:"omitempty,oneof=SALES WEBSITE_VISITS AWARENESS APP_INSTALLS"`
	CampaignStatus string `json:"campaign_status" validate:"omitempty,oneof=ACTIVE PAUSED"`
	DailyBudget    int64  `json:"daily_budget" validate:"omitempty,gt=0"` // whole currency units

	// Ad squads
	AdSquadCount  int      `json:"ad_squad_count" validate:"omitempty,gt=0,lte=50"`
	AdSquadBudget int64    `json:"ad_squad_budget" validate:"omitempty,gt=0"` // whole currency units
	AdSquadStatus string   `json:"ad_squad_status" validate:"omitempty,oneof=ACTIVE PAUSED"`
	Countries     []string `json:"countries" validate:"omitempty,dive,len=2"`
	MinAge        int      `json:"min_age" validate:"omitempty,gte=13,lte=45"`
	MaxAge        int      `json:"max_age" validate:"omitempty,gte=13,lte=55"`
	PixelID       string   `json:"pixel_id"`

	// Ads
	TotalAds     int    `json:"total_ads" validate:"omitempty,gt=0,lte=1000"`
	AdsPerSquad  int    `json:"ads_per_squad" validate:"omitempty,gt=0"`
	AdStatus     string `json:"ad_status" validate:"omitempty,oneof=ACTIVE PAUSED"`
	BrandName    string `json:"brand_name" validate:"required,max=25"`
	LandingURL   string `json:"landing_url" validate:"required,url"`
	CallToAction string `json:"call_to_action"`

	// Local inputs
	VideosDir     string `json:"videos_dir" validate:"required"`
	HeadlinesCSV  string `json:"headlines_csv"`
	SkipCSVHeader bool   `json:"skip_csv_header"`

	// SuccessThreshold is the minimum created-ad count for a job to be
	// reported as completed rather than partial. Clamped to TotalAds.
	SuccessThreshold int `json:"success_threshold" validate:"omitempty,gt=0"`

	// AllowSyntheticHeadlines substitutes generated headlines when the CSV
	// is missing. Dev/test convenience only, never default behavior.
	AllowSyntheticHeadlines bool `json:"allow_synthetic_headlines"`
}

// ApplyDefaults resolves all optional fields to their default values
func (s *BulkJobSpec) ApplyDefaults() {
	if s.Objective == "" {
		s.Objective = "SALES"
	}
	if s.CampaignStatus == "" {
		s.CampaignStatus = "PAUSED"
	}
	if s.DailyBudget == 0 {
		s.DailyBudget = 100
	}
	if s.AdSquadCount == 0 {
		s.AdSquadCount = 5
	}
	if s.AdSquadBudget == 0 {
		s.AdSquadBudget = 25
	}
	if s.AdSquadStatus == "" {
		s.AdSquadStatus = "PAUSED"
	}
	if len(s.Countries) == 0 {
		s.Countries = []string{"sa"}
	}
	if s.MinAge == 0 {
		s.MinAge = 22
	}
	if s.MaxAge == 0 {
		s.MaxAge = 55
	}
	if s.TotalAds == 0 {
		s.TotalAds = 200
	}
	if s.AdsPerSquad == 0 {
		s.AdsPerSquad = 40
	}
	if s.AdStatus == "" {
		s.AdStatus = "PAUSED"
	}
	if s.CallToAction == "" {
		s.CallToAction = "SHOP_NOW"
	}
	if s.SuccessThreshold == 0 {
		s.SuccessThreshold = 50
	}
	if s.SuccessThreshold > s.TotalAds {
		s.SuccessThreshold = s.TotalAds
	}
}

package snapchat

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/adlaunch/internal/models"
)

// Payload builders translate a validated job spec into the wire objects the
// platform expects. All knobs come from the spec; nothing here talks HTTP.

// BuildCampaign constructs the campaign payload for a bulk job
func BuildCampaign(spec *models.BulkJobSpec, now time.Time) *models.Campaign {
	return &models.Campaign{
		Name:             spec.CampaignName,
		Status:           spec.CampaignStatus,
		StartTime:        now.UTC().Format(time.RFC3339),
		BuyModel:         "AUCTION",
		Objective:        spec.Objective,
		DailyBudgetMicro: spec.DailyBudget * 1_000_000,
	}
}

// BuildTargeting constructs geo and demographic targeting from the spec
func BuildTargeting(spec *models.BulkJobSpec) *models.Targeting {
	geos := make([]models.Geo, 0, len(spec.Countries))
	for _, country := range spec.Countries {
		geos = append(geos, models.Geo{CountryCode: strings.ToLower(country)})
	}

	return &models.Targeting{
		RegulatedContent: false,
		Geos:             geos,
		Demographics: []models.Demographic{
			{MinAge: spec.MinAge, MaxAge: spec.MaxAge},
		},
	}
}

// BuildAdSquad constructs the nth ad squad payload. The optimization goal
// follows the pixel: purchase optimization when a pixel id is configured,
// swipe-ups otherwise.
func BuildAdSquad(spec *models.BulkJobSpec, campaignID string, n int, now time.Time) *models.AdSquad {
	goal := "SWIPES"
	if spec.PixelID != "" {
		goal = "PIXEL_PURCHASE"
	}

	return &models.AdSquad{
		Name:             fmt.Sprintf("%s - Ad Set %d", spec.CampaignName, n),
		Status:           spec.AdSquadStatus,
		CampaignID:       campaignID,
		Type:             "SNAP_ADS",
		Targeting:        BuildTargeting(spec),
		PlacementV2:      &models.Placement{Config: "AUTOMATIC"},
		BillingEvent:     "IMPRESSION",
		AutoBid:          true,
		OptimizationGoal: goal,
		DailyBudgetMicro: spec.AdSquadBudget * 1_000_000,
		StartTime:        now.UTC().Format(time.RFC3339),
		PixelID:          spec.PixelID,
	}
}

// BuildCreative constructs a web-view creative for one uploaded media item
func BuildCreative(spec *models.BulkJobSpec, adAccountID string, item models.UploadedMedia, n int) *models.Creative {
	return &models.Creative{
		AdAccountID:    adAccountID,
		Name:           fmt.Sprintf("%s - Creative %d", spec.CampaignName, n),
		Type:           "WEB_VIEW",
		Headline:       item.Headline,
		BrandName:      spec.BrandName,
		CallToAction:   spec.CallToAction,
		TopSnapMediaID: item.MediaID,
		Shareable:      false,
		ProfileProperties: &models.ProfileProperties{
			DisplayName: spec.BrandName,
		},
		WebViewProperties: &models.WebViewProperties{
			URL:          spec.LandingURL,
			DeepLinkUrls: []string{},
			BlockPreload: true,
		},
	}
}

// BuildAd constructs the ad payload binding a creative to a squad
func BuildAd(spec *models.BulkJobSpec, adSquadID, creativeID string, n int) *models.Ad {
	return &models.Ad{
		Name:       fmt.Sprintf("%s - Ad %d", spec.CampaignName, n),
		AdSquadID:  adSquadID,
		CreativeID: creativeID,
		Status:     spec.AdStatus,
		Type:       "REMOTE_WEBPAGE",
	}
}

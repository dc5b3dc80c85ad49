package snapchat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/adlaunch/internal/models"
)

func defaultedSpec() *models.BulkJobSpec {
	spec := &models.BulkJobSpec{
		CampaignName: "Summer Launch",
		BrandName:    "Acme",
		LandingURL:   "https://example.com/shop",
		VideosDir:    "/videos",
	}
	spec.ApplyDefaults()
	return spec
}

func TestBuildCampaign(t *testing.T) {
	spec := defaultedSpec()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	campaign := BuildCampaign(spec, now)
	assert.Equal(t, "Summer Launch", campaign.Name)
	assert.Equal(t, "PAUSED", campaign.Status)
	assert.Equal(t, "AUCTION", campaign.BuyModel)
	assert.Equal(t, "SALES", campaign.Objective)
	assert.Equal(t, int64(100_000_000), campaign.DailyBudgetMicro)
	assert.Equal(t, "2026-08-30T12:00:00Z", campaign.StartTime)
}

func TestBuildTargetingLowercasesCountries(t *testing.T) {
	spec := defaultedSpec()
	spec.Countries = []string{"SA", "ae"}
	spec.MinAge = 22
	spec.MaxAge = 45

	targeting := BuildTargeting(spec)
	assert.False(t, targeting.RegulatedContent)
	assert.Equal(t, []models.Geo{{CountryCode: "sa"}, {CountryCode: "ae"}}, targeting.Geos)
	assert.Equal(t, []models.Demographic{{MinAge: 22, MaxAge: 45}}, targeting.Demographics)
}

func TestBuildAdSquadOptimizationGoal(t *testing.T) {
	now := time.Now()

	t.Run("swipes without pixel", func(t *testing.T) {
		spec := defaultedSpec()
		squad := BuildAdSquad(spec, "camp-1", 1, now)
		assert.Equal(t, "SWIPES", squad.OptimizationGoal)
		assert.Empty(t, squad.PixelID)
	})

	t.Run("pixel purchase with pixel", func(t *testing.T) {
		spec := defaultedSpec()
		spec.PixelID = "pix-1"
		squad := BuildAdSquad(spec, "camp-1", 1, now)
		assert.Equal(t, "PIXEL_PURCHASE", squad.OptimizationGoal)
		assert.Equal(t, "pix-1", squad.PixelID)
	})
}

func TestBuildAdSquadShape(t *testing.T) {
	spec := defaultedSpec()
	squad := BuildAdSquad(spec, "camp-1", 3, time.Now())

	assert.Equal(t, "Summer Launch - Ad Set 3", squad.Name)
	assert.Equal(t, "camp-1", squad.CampaignID)
	assert.Equal(t, "SNAP_ADS", squad.Type)
	assert.Equal(t, "AUTOMATIC", squad.PlacementV2.Config)
	assert.Equal(t, "IMPRESSION", squad.BillingEvent)
	assert.True(t, squad.AutoBid)
	assert.Equal(t, int64(25_000_000), squad.DailyBudgetMicro)
}

func TestBuildCreative(t *testing.T) {
	spec := defaultedSpec()
	item := models.UploadedMedia{MediaID: "media-7", Headline: "Big Sale Today", VideoName: "clip.mp4"}

	creative := BuildCreative(spec, "acct-1", item, 7)
	assert.Equal(t, "Summer Launch - Creative 7", creative.Name)
	assert.Equal(t, "WEB_VIEW", creative.Type)
	assert.Equal(t, "Big Sale Today", creative.Headline)
	assert.Equal(t, "Acme", creative.BrandName)
	assert.Equal(t, "SHOP_NOW", creative.CallToAction)
	assert.Equal(t, "media-7", creative.TopSnapMediaID)
	assert.False(t, creative.Shareable)
	assert.Equal(t, "Acme", creative.ProfileProperties.DisplayName)
	assert.Equal(t, "https://example.com/shop", creative.WebViewProperties.URL)
	assert.True(t, creative.WebViewProperties.BlockPreload)
	assert.NotNil(t, creative.WebViewProperties.DeepLinkUrls)
}

func TestBuildAd(t *testing.T) {
	spec := defaultedSpec()
	ad := BuildAd(spec, "squad-1", "cr-1", 12)

	assert.Equal(t, "Summer Launch - Ad 12", ad.Name)
	assert.Equal(t, "squad-1", ad.AdSquadID)
	assert.Equal(t, "cr-1", ad.CreativeID)
	assert.Equal(t, "PAUSED", ad.Status)
	assert.Equal(t, "REMOTE_WEBPAGE", ad.Type)
}

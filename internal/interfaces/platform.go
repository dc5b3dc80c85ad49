package interfaces

import (
	"context"

	"github.com/ternarybob/adlaunch/internal/models"
)

// PlatformClient is the typed surface of the remote ad platform used by the
// bulk orchestrator.
type PlatformClient interface {
	Me(ctx context.Context) (*models.UserInfo, error)
	AdAccounts(ctx context.Context, organizationID string) ([]models.AdAccount, error)
	Pixels(ctx context.Context, adAccountID string) ([]models.Pixel, error)

	CreateCampaign(ctx context.Context, adAccountID string, campaign *models.Campaign) (*models.Campaign, error)
	CreateAdSquad(ctx context.Context, campaignID string, squad *models.AdSquad) (*models.AdSquad, error)

	// UploadMedia performs the two-phase media protocol: register a media
	// placeholder, then attach file bytes. When waitForReady is true it
	// additionally polls until the media leaves its processing states.
	UploadMedia(ctx context.Context, adAccountID, path string, waitForReady bool) (*models.Media, error)
	MediaStatus(ctx context.Context, mediaID string) (*models.Media, error)

	CreateCreative(ctx context.Context, adAccountID string, creative *models.Creative) (*models.Creative, error)
	CreateAd(ctx context.Context, adSquadID string, ad *models.Ad) (*models.Ad, error)
}

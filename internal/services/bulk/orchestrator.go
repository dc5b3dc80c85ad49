package bulk

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/adlaunch/internal/common"
	"github.com/ternarybob/adlaunch/internal/interfaces"
	"github.com/ternarybob/adlaunch/internal/models"
	"github.com/ternarybob/adlaunch/internal/services/snapchat"
)

// Orchestrator runs bulk campaign jobs: one campaign, a fan-out of ad
// squads, an exact-count media upload pass and batched ad creation, with
// progress written to the registry at every stage boundary.
type Orchestrator struct {
	cfg      *common.BulkConfig
	tokens   interfaces.TokenProvider
	client   interfaces.PlatformClient
	registry *Registry
	logger   arbor.ILogger
}

// NewOrchestrator wires the orchestrator to its collaborators
func NewOrchestrator(cfg *common.BulkConfig, tokens interfaces.TokenProvider, client interfaces.PlatformClient, registry *Registry, logger arbor.ILogger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		tokens:   tokens,
		client:   client,
		registry: registry,
		logger:   logger,
	}
}

// Registry exposes the execution registry for the polling boundary
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Submit registers a new execution and launches its worker. The returned id
// is available for polling immediately; the pipeline runs in the background.
func (o *Orchestrator) Submit(spec *models.BulkJobSpec) string {
	id := common.NewExecutionID()
	o.registry.Create(id)

	common.SafeGo(o.logger, "bulk-execution-"+id, func() {
		o.Execute(context.Background(), id, spec)
	})

	return id
}

// progress moves the execution to a new stage and percent, appending a log
// line. Percent only ever moves forward.
func (o *Orchestrator) progress(id string, percent float64, stage, msg string) {
	o.registry.Update(id, func(e *models.Execution) {
		e.Status = models.ExecutionRunning
		if percent > e.Progress {
			e.Progress = percent
		}
		e.Stage = stage
		e.AppendLog(msg)
	})
}

// fail marks the execution as failed at its current stage
func (o *Orchestrator) fail(id string, err error) {
	o.logger.Error().Str("execution_id", id).Err(err).Msg("Bulk execution failed")
	o.registry.Update(id, func(e *models.Execution) {
		e.Status = models.ExecutionError
		e.Error = err.Error()
		e.AppendLog("FAILED: " + err.Error())
		e.ExecutionTime = time.Since(e.StartTime).Seconds()
	})
}

// Execute runs the full pipeline for one job. Stages before ad creation are
// fail-fast; per-item failures inside the fan-outs are tolerated and
// counted. Nothing is rolled back on failure.
func (o *Orchestrator) Execute(ctx context.Context, id string, spec *models.BulkJobSpec) {
	defer func() {
		if r := recover(); r != nil {
			o.fail(id, fmt.Errorf("execution panicked: %v", r))
		}
	}()

	start := time.Now()
	o.logger.Info().
		Str("execution_id", id).
		Str("campaign", spec.CampaignName).
		Int("total_ads", spec.TotalAds).
		Msg("Starting bulk execution")

	o.registry.Update(id, func(e *models.Execution) {
		e.AdsTarget = spec.TotalAds
	})

	// Stage: credentials
	o.progress(id, 5, "validating_token", "Validating access token")
	if _, err := o.tokens.ValidToken(ctx); err != nil {
		o.fail(id, fmt.Errorf("token validation failed: %w", err))
		return
	}

	// Stage: account
	o.progress(id, 10, "loading_account", "Loading account info")
	me, err := o.client.Me(ctx)
	if err != nil {
		o.fail(id, fmt.Errorf("failed to load user info: %w", err))
		return
	}
	adAccountID := o.tokens.AdAccountID()
	if adAccountID == "" {
		o.fail(id, fmt.Errorf("no ad account configured"))
		return
	}
	if me.OrganizationID != "" {
		if _, err := o.client.AdAccounts(ctx, me.OrganizationID); err != nil {
			o.logger.Warn().Str("execution_id", id).Err(err).Msg("Ad account listing failed, continuing with configured account")
		}
	}

	// Stage: campaign
	o.progress(id, 15, "creating_campaign", fmt.Sprintf("Creating campaign %q", spec.CampaignName))
	campaign, err := o.client.CreateCampaign(ctx, adAccountID, snapchat.BuildCampaign(spec, start))
	if err != nil {
		o.fail(id, fmt.Errorf("campaign creation failed: %w", err))
		return
	}
	o.registry.Update(id, func(e *models.Execution) {
		e.CampaignID = campaign.ID
	})
	o.progress(id, 20, "creating_campaign", "Campaign created: "+campaign.ID)

	// Stage: ad squads. Individual failures are logged; at least one squad
	// must survive for the job to continue.
	squads := make([]*models.AdSquad, 0, spec.AdSquadCount)
	for i := 1; i <= spec.AdSquadCount; i++ {
		squad, err := o.client.CreateAdSquad(ctx, campaign.ID, snapchat.BuildAdSquad(spec, campaign.ID, i, start))
		if err != nil {
			o.logger.Warn().Str("execution_id", id).Int("squad", i).Err(err).Msg("Ad squad creation failed")
			o.progress(id, 20, "creating_ad_squads", fmt.Sprintf("Ad squad %d failed: %v", i, err))
		} else {
			squads = append(squads, squad)
			percent := 20 + float64(i)*5
			if percent > 45 {
				percent = 45
			}
			o.progress(id, percent, "creating_ad_squads", fmt.Sprintf("Ad squad %d/%d created", i, spec.AdSquadCount))
		}
		o.pause(ctx, o.cfg.SquadCreatePause)
	}
	if len(squads) == 0 {
		o.fail(id, fmt.Errorf("all %d ad squad creations failed", spec.AdSquadCount))
		return
	}

	// Stage: local inputs
	o.progress(id, 50, "loading_inputs", "Loading videos and headlines")
	videos, err := ListVideos(spec.VideosDir, spec.TotalAds)
	if err != nil {
		o.fail(id, err)
		return
	}

	var headlines []string
	if spec.HeadlinesCSV != "" {
		headlines, err = LoadHeadlines(spec.HeadlinesCSV, spec.SkipCSVHeader)
		if err != nil {
			o.fail(id, err)
			return
		}
	}
	if len(headlines) == 0 {
		if !spec.AllowSyntheticHeadlines {
			o.fail(id, fmt.Errorf("no usable headlines available"))
			return
		}
		headlines = SyntheticHeadlines(spec.BrandName)
	}
	o.progress(id, 55, "loading_inputs", fmt.Sprintf("Loaded %d videos, %d headlines", len(videos), len(headlines)))

	// Stage: media uploads. The queue carries spare cycles of the videos;
	// the loop stops as soon as exactly TotalAds uploads have succeeded, so
	// items abandoned after their retry budget are made up by later queue
	// entries instead of shrinking the delivered count.
	queue := BuildUploadQueue(videos, spec.TotalAds)
	uploaded := make([]models.UploadedMedia, 0, spec.TotalAds)

	for i, videoPath := range queue {
		if len(uploaded) >= spec.TotalAds {
			break
		}
		var media *models.Media
		var uploadErr error
		for attempt := 1; attempt <= o.cfg.UploadRetries; attempt++ {
			media, uploadErr = o.client.UploadMedia(ctx, adAccountID, videoPath, false)
			if uploadErr == nil {
				break
			}
			o.logger.Warn().
				Str("execution_id", id).
				Str("video", filepath.Base(videoPath)).
				Int("attempt", attempt).
				Err(uploadErr).
				Msg("Media upload attempt failed")
			o.pause(ctx, o.cfg.UploadRetryPause)
		}
		if uploadErr != nil {
			o.progress(id, 0, "uploading_media", fmt.Sprintf("Upload %d skipped after %d attempts: %v", i+1, o.cfg.UploadRetries, uploadErr))
			continue
		}

		uploaded = append(uploaded, models.UploadedMedia{
			MediaID:   media.ID,
			Headline:  HeadlineFor(headlines, len(uploaded), spec.BrandName),
			VideoName: filepath.Base(videoPath),
		})

		percent := 55 + 20*float64(len(uploaded))/float64(spec.TotalAds)
		if len(uploaded)%10 == 0 || len(uploaded) == spec.TotalAds {
			o.progress(id, percent, "uploading_media", fmt.Sprintf("Uploaded %d/%d media", len(uploaded), spec.TotalAds))
		} else {
			o.registry.Update(id, func(e *models.Execution) {
				if percent > e.Progress {
					e.Progress = percent
				}
			})
		}
		o.registry.Update(id, func(e *models.Execution) {
			e.MediaUploaded = len(uploaded)
		})
	}
	if len(uploaded) == 0 {
		o.fail(id, fmt.Errorf("all media uploads failed (target %d)", spec.TotalAds))
		return
	}

	// Stage: readiness sample. A bounded spot check, not a gate; ad
	// creation handles stragglers itself.
	o.progress(id, 78, "checking_media", "Sampling media readiness")
	sample := uploaded
	if o.cfg.MediaSampleSize > 0 && len(sample) > o.cfg.MediaSampleSize {
		sample = sample[:o.cfg.MediaSampleSize]
	}
	ready := 0
	for _, item := range sample {
		media, err := o.client.MediaStatus(ctx, item.MediaID)
		if err != nil {
			continue
		}
		if media.MediaStatus == models.MediaStatusReady {
			ready++
		}
	}
	o.registry.Update(id, func(e *models.Execution) {
		e.MediaReady = ready
	})
	o.progress(id, 80, "checking_media", fmt.Sprintf("%d/%d sampled media ready", ready, len(sample)))

	// Stage: ad creation. Contiguous batches of AdsPerSquad media per
	// squad, in squad order. Each ad is a creative+ad call pair;
	// failures are counted and the loop moves on.
	created := 0
	failed := 0
	adIndex := 0
	for j, squad := range squads {
		batch := MediaBatch(uploaded, j, spec.AdsPerSquad)
		if len(batch) == 0 {
			break
		}
		for _, item := range batch {
			adIndex++
			creative, err := o.client.CreateCreative(ctx, adAccountID, snapchat.BuildCreative(spec, adAccountID, item, adIndex))
			if err == nil {
				_, err = o.client.CreateAd(ctx, squad.ID, snapchat.BuildAd(spec, squad.ID, creative.ID, adIndex))
			}
			if err != nil {
				failed++
				o.logger.Warn().Str("execution_id", id).Int("ad", adIndex).Err(err).Msg("Ad creation failed")
				if snapchat.IsMediaNotReady(err) {
					o.pause(ctx, o.cfg.MediaNotReadyPause)
				}
			} else {
				created++
			}

			o.registry.Update(id, func(e *models.Execution) {
				e.AdsCreated = created
				e.AdsFailed = failed
			})
			percent := 85 + 13*float64(adIndex)/float64(len(uploaded))
			if adIndex%10 == 0 {
				o.progress(id, percent, "creating_ads", fmt.Sprintf("Created %d ads (%d failed)", created, failed))
			} else {
				o.registry.Update(id, func(e *models.Execution) {
					if percent > e.Progress {
						e.Progress = percent
					}
				})
			}
			o.pause(ctx, o.cfg.AdCreatePause)
		}
	}

	// Final verdict
	threshold := spec.SuccessThreshold
	if threshold > spec.TotalAds {
		threshold = spec.TotalAds
	}
	elapsed := time.Since(start)
	o.registry.Update(id, func(e *models.Execution) {
		e.AdsCreated = created
		e.AdsFailed = failed
		e.ExecutionTime = elapsed.Seconds()
		if created >= threshold {
			e.Status = models.ExecutionCompleted
			e.Progress = 100
			e.Stage = "completed"
			e.AppendLog(fmt.Sprintf("Completed: %d ads created, %d failed in %s", created, failed, elapsed.Round(time.Second)))
		} else {
			e.Status = models.ExecutionPartial
			e.Progress = 95
			e.Stage = "partial"
			e.AppendLog(fmt.Sprintf("Partial: %d ads created (threshold %d), %d failed", created, threshold, failed))
		}
	})

	o.logger.Info().
		Str("execution_id", id).
		Int("ads_created", created).
		Int("ads_failed", failed).
		Dur("elapsed", elapsed).
		Msg("Bulk execution finished")
}

// pause sleeps unless the context is done. Zero pauses return immediately,
// which keeps tests fast.
func (o *Orchestrator) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

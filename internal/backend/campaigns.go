package backend

import (
	"context"
	"errors"
	"time"

	"github.com/example/culture-center/internal/center"
	"github.com/example/culture-center/internal/persistence"
)

// CampaignSource serves center.CampaignRegistry from a campaign repository.
type CampaignSource struct {
	repo persistence.CampaignRepository
	now  func() time.Time
}

var _ center.CampaignSource = (*CampaignSource)(nil)

// NewCampaignSource returns a source over repo.
func NewCampaignSource(repo persistence.CampaignRepository, now func() time.Time) *CampaignSource {
	if now == nil {
		now = time.Now
	}
	return &CampaignSource{repo: repo, now: now}
}

// FetchCampaigns returns every campaign, newest first.
func (s *CampaignSource) FetchCampaigns(ctx context.Context) ([]center.Campaign, error) {
	stored, err := s.repo.ListCampaigns(ctx)
	if err != nil {
		return nil, translate("fetch campaigns", err)
	}
	campaigns := make([]center.Campaign, 0, len(stored))
	for _, c := range stored {
		campaigns = append(campaigns, campaignOf(c))
	}
	return campaigns, nil
}

func (s *CampaignSource) FetchCampaign(ctx context.Context, id string) (center.Campaign, error) {
	stored, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return center.Campaign{}, translate("fetch campaign", err)
	}
	return campaignOf(stored), nil
}

func (s *CampaignSource) PersistCampaign(ctx context.Context, campaign center.Campaign) (center.Campaign, error) {
	record := campaignRecord(campaign)
	record.UpdatedAt = record.CreatedAt
	if err := s.repo.CreateCampaign(ctx, record); err != nil {
		return center.Campaign{}, translate("persist campaign", err)
	}
	return campaign, nil
}

func (s *CampaignSource) UpdateCampaign(ctx context.Context, campaign center.Campaign) (center.Campaign, error) {
	record := campaignRecord(campaign)
	record.UpdatedAt = s.now()
	if err := s.repo.UpdateCampaign(ctx, record); err != nil {
		return center.Campaign{}, translate("update campaign", err)
	}
	return campaign, nil
}

func (s *CampaignSource) DeleteCampaign(ctx context.Context, id string) error {
	err := s.repo.DeleteCampaign(ctx, id)
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		return ErrCampaignHasApplications
	}
	return translate("delete campaign", err)
}

func campaignOf(c persistence.Campaign) center.Campaign {
	return center.Campaign{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		MaxParticipants: c.MaxParticipants,
		StartDate:       c.StartDate,
		EndDate:         c.EndDate,
		TargetAudience:  c.TargetAudience,
		RequiredFields:  c.RequiredFields,
		Status:          center.CampaignStatus(c.Status),
		CreatedAt:       c.CreatedAt,
		CreatedBy:       c.CreatedBy,
	}
}

func campaignRecord(c center.Campaign) persistence.Campaign {
	return persistence.Campaign{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		MaxParticipants: c.MaxParticipants,
		StartDate:       c.StartDate,
		EndDate:         c.EndDate,
		TargetAudience:  c.TargetAudience,
		RequiredFields:  c.RequiredFields,
		Status:          string(c.Status),
		CreatedBy:       c.CreatedBy,
		CreatedAt:       c.CreatedAt,
	}
}

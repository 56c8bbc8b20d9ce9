package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/culture-center/internal/center"
	"github.com/example/culture-center/internal/persistence"
)

// ApplicationSource serves center.ApplicationRegistry from an application
// repository. New applications are checked against the stored campaign rather
// than the copy the caller holds.
type ApplicationSource struct {
	repo      persistence.ApplicationRepository
	campaigns persistence.CampaignRepository
	now       func() time.Time
}

var _ center.ApplicationSource = (*ApplicationSource)(nil)

// NewApplicationSource returns a source over repo that resolves campaigns
// through campaigns.
func NewApplicationSource(repo persistence.ApplicationRepository, campaigns persistence.CampaignRepository, now func() time.Time) *ApplicationSource {
	if now == nil {
		now = time.Now
	}
	return &ApplicationSource{repo: repo, campaigns: campaigns, now: now}
}

// FetchApplications returns every application with campaign and applicant details.
func (s *ApplicationSource) FetchApplications(ctx context.Context) ([]center.ApplicationSummary, error) {
	stored, err := s.repo.ListApplicationSummaries(ctx, persistence.ApplicationFilter{})
	if err != nil {
		return nil, translate("fetch applications", err)
	}
	summaries := make([]center.ApplicationSummary, 0, len(stored))
	for _, row := range stored {
		summaries = append(summaries, summaryOf(row))
	}
	return summaries, nil
}

// FetchApplication returns one application with campaign and applicant details.
func (s *ApplicationSource) FetchApplication(ctx context.Context, id string) (center.ApplicationSummary, error) {
	app, err := s.repo.GetApplication(ctx, id)
	if err != nil {
		return center.ApplicationSummary{}, translate("fetch application", err)
	}

	// user and campaign are unique together, so this narrows to the one row.
	rows, err := s.repo.ListApplicationSummaries(ctx, persistence.ApplicationFilter{
		CampaignID: app.CampaignID,
		UserID:     app.UserID,
	})
	if err != nil {
		return center.ApplicationSummary{}, translate("fetch application", err)
	}
	for _, row := range rows {
		if row.ID == app.ID {
			return summaryOf(row), nil
		}
	}
	return center.ApplicationSummary{Application: applicationOf(app)}, nil
}

// FetchUserApplications returns the applications submitted by userID.
func (s *ApplicationSource) FetchUserApplications(ctx context.Context, userID string) ([]center.Application, error) {
	stored, err := s.repo.ListApplications(ctx, persistence.ApplicationFilter{UserID: userID})
	if err != nil {
		return nil, translate("fetch user applications", err)
	}
	apps := make([]center.Application, 0, len(stored))
	for _, a := range stored {
		apps = append(apps, applicationOf(a))
	}
	return apps, nil
}

// PersistApplication stores a new application against the stored campaign:
// a missing or inactive campaign is center.ErrClosedForSubmission, the fields
// are validated against its required fields and trimmed to them. The
// repository's uniqueness constraint on user and campaign surfaces as
// center.ErrAlreadyApplied.
func (s *ApplicationSource) PersistApplication(ctx context.Context, app center.Application) (center.Application, error) {
	campaign, err := s.campaigns.GetCampaign(ctx, app.CampaignID)
	if errors.Is(err, persistence.ErrNotFound) {
		return center.Application{}, fmt.Errorf("campaign %s: %w", app.CampaignID, center.ErrClosedForSubmission)
	}
	if err != nil {
		return center.Application{}, translate("load campaign", err)
	}
	if center.CampaignStatus(campaign.Status) != center.CampaignActive {
		return center.Application{}, fmt.Errorf("campaign %s is %s: %w", campaign.ID, campaign.Status, center.ErrClosedForSubmission)
	}
	if fieldErrs := center.ValidateForm(campaign.RequiredFields, app.Fields); len(fieldErrs) > 0 {
		return center.Application{}, &center.ValidationError{FieldErrors: fieldErrs}
	}

	fields := make(map[string]string, len(campaign.RequiredFields))
	for _, name := range campaign.RequiredFields {
		fields[name] = app.Fields[name]
	}
	app.Fields = fields

	err = s.repo.CreateApplication(ctx, persistence.Application{
		ID:         app.ID,
		CampaignID: app.CampaignID,
		UserID:     app.UserID,
		Status:     string(app.Status),
		Fields:     app.Fields,
		CreatedAt:  app.CreatedAt,
		UpdatedAt:  app.CreatedAt,
	})
	if errors.Is(err, persistence.ErrDuplicate) {
		return center.Application{}, center.ErrAlreadyApplied
	}
	if err != nil {
		return center.Application{}, translate("persist application", err)
	}
	return app, nil
}

func (s *ApplicationSource) UpdateApplicationStatus(ctx context.Context, id string, status center.ApplicationStatus) error {
	return translate("update application status", s.repo.UpdateApplicationStatus(ctx, id, string(status), s.now()))
}

func summaryOf(row persistence.ApplicationSummary) center.ApplicationSummary {
	return center.ApplicationSummary{
		Application:   applicationOf(row.Application),
		CampaignTitle: row.CampaignTitle,
		UserName:      row.UserName,
		PhoneNumber:   row.PhoneNumber,
	}
}

func applicationOf(a persistence.Application) center.Application {
	return center.Application{
		ID:         a.ID,
		CampaignID: a.CampaignID,
		UserID:     a.UserID,
		Status:     center.ApplicationStatus(a.Status),
		Fields:     a.Fields,
		CreatedAt:  a.CreatedAt,
	}
}

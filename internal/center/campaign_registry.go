package center

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// CampaignSource is the data-access collaborator for campaign records.
type CampaignSource interface {
	FetchCampaigns(ctx context.Context) ([]Campaign, error)
	FetchCampaign(ctx context.Context, id string) (Campaign, error)
	PersistCampaign(ctx context.Context, campaign Campaign) (Campaign, error)
	UpdateCampaign(ctx context.Context, campaign Campaign) (Campaign, error)
	DeleteCampaign(ctx context.Context, id string) error
}

// CampaignRegistry is the in-memory campaign collection with single-selection tracking.
type CampaignRegistry struct {
	mu          sync.RWMutex
	campaigns   []Campaign
	selectedID  string
	selected    *Campaign
	errMsg      string
	source      CampaignSource
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCampaignRegistry constructs a campaign registry with the provided dependencies.
func NewCampaignRegistry(source CampaignSource, idGenerator func() string, now func() time.Time) *CampaignRegistry {
	return NewCampaignRegistryWithLogger(source, idGenerator, now, nil)
}

// NewCampaignRegistryWithLogger constructs a campaign registry with a specified logger.
func NewCampaignRegistryWithLogger(source CampaignSource, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CampaignRegistry {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CampaignRegistry{source: source, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (r *CampaignRegistry) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return registryLogger(ctx, r.logger, "CampaignRegistry", operation, attrs...)
}

// Campaigns returns a copy of the loaded collection.
func (r *CampaignRegistry) Campaigns() []Campaign {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneCampaigns(r.campaigns)
}

// Selected returns the currently viewed campaign, if any.
func (r *CampaignRegistry) Selected() (Campaign, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.selected == nil {
		return Campaign{}, false
	}
	return cloneCampaign(*r.selected), true
}

// Err returns the user-facing message of the last failed operation.
func (r *CampaignRegistry) Err() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.errMsg
}

// ClearError resets the error field only.
func (r *CampaignRegistry) ClearError() {
	r.mu.Lock()
	r.errMsg = ""
	r.mu.Unlock()
}

// List fetches every campaign from the data source and replaces the collection.
func (r *CampaignRegistry) List(ctx context.Context) (campaigns []Campaign, err error) {
	if r == nil {
		err = fmt.Errorf("CampaignRegistry is nil")
		return
	}

	start := time.Now()
	logger := r.loggerWith(ctx, "List")
	defer func() {
		r.settle(err)
		finish(ctx, logger, "CampaignRegistry", "List", start, err, "campaigns listed", "count", len(campaigns))
	}()

	if r.source == nil {
		err = fmt.Errorf("campaign source not configured")
		return
	}

	var fetched []Campaign
	fetched, err = r.source.FetchCampaigns(ctx)
	if err != nil {
		logger.WarnContext(ctx, "campaign source failed", "cause", err)
		err = upstream("fetch", msgFetchCampaigns)
		return
	}

	r.mu.Lock()
	r.campaigns = cloneCampaigns(fetched)
	r.mu.Unlock()

	campaigns = cloneCampaigns(fetched)
	return
}

// GetByID returns a campaign from the collection, falling back to the data source.
func (r *CampaignRegistry) GetByID(ctx context.Context, id string) (campaign Campaign, err error) {
	if r == nil {
		err = fmt.Errorf("CampaignRegistry is nil")
		return
	}

	r.mu.RLock()
	idx := indexOfCampaign(r.campaigns, id)
	if idx >= 0 {
		campaign = cloneCampaign(r.campaigns[idx])
	}
	r.mu.RUnlock()
	if idx >= 0 {
		return campaign, nil
	}

	start := time.Now()
	logger := r.loggerWith(ctx, "GetByID", "campaign_id", id)
	defer func() {
		r.settle(err)
		finish(ctx, logger, "CampaignRegistry", "GetByID", start, err, "campaign fetched from source")
	}()

	if r.source == nil {
		err = ErrNotFound
		return
	}

	campaign, err = r.source.FetchCampaign(ctx, id)
	if err != nil {
		err = r.mapSourceError(ctx, logger, err, "fetch", msgFetchCampaigns)
		campaign = Campaign{}
		return
	}
	return
}

// Select resolves id and records it as the currently viewed campaign.
func (r *CampaignRegistry) Select(ctx context.Context, id string) (Campaign, error) {
	if r == nil {
		return Campaign{}, fmt.Errorf("CampaignRegistry is nil")
	}

	campaign, err := r.GetByID(ctx, id)
	if err != nil {
		return Campaign{}, err
	}

	r.mu.Lock()
	selected := cloneCampaign(campaign)
	r.selected = &selected
	r.selectedID = campaign.ID
	r.mu.Unlock()
	return campaign, nil
}

// Create validates input, persists a new campaign and selects it.
func (r *CampaignRegistry) Create(ctx context.Context, params CreateCampaignParams) (campaign Campaign, err error) {
	if r == nil {
		err = fmt.Errorf("CampaignRegistry is nil")
		return
	}

	start := time.Now()
	logger := r.loggerWith(ctx, "Create", "principal_id", params.Principal.UserID)
	defer func() {
		r.settle(err)
		finish(ctx, logger, "CampaignRegistry", "Create", start, err, "campaign created", "campaign_id", campaign.ID)
	}()

	if !params.Principal.IsAdmin {
		err = ErrPermissionDenied
		return
	}

	input := normalizeCampaignInput(params.Input)
	if input.Status == "" {
		input.Status = CampaignDraft
	}
	if err = validateCampaignInput(input); err != nil {
		return
	}

	campaign = Campaign{
		ID:        r.idGenerator(),
		CreatedAt: r.now(),
		CreatedBy: params.Principal.UserID,
	}
	campaign.applyInput(input)

	if r.source != nil {
		var persisted Campaign
		persisted, err = r.source.PersistCampaign(ctx, campaign)
		if err != nil {
			err = r.mapSourceError(ctx, logger, err, "create", msgCreateCampaign)
			campaign = Campaign{}
			return
		}
		campaign = persisted
	}

	r.mu.Lock()
	r.campaigns = append(r.campaigns, cloneCampaign(campaign))
	selected := cloneCampaign(campaign)
	r.selected = &selected
	r.selectedID = campaign.ID
	r.mu.Unlock()
	return
}

// Update merges patch into a loaded campaign, validates the result and persists it.
func (r *CampaignRegistry) Update(ctx context.Context, params UpdateCampaignParams) (campaign Campaign, err error) {
	if r == nil {
		err = fmt.Errorf("CampaignRegistry is nil")
		return
	}

	start := time.Now()
	logger := r.loggerWith(ctx, "Update",
		"principal_id", params.Principal.UserID,
		"campaign_id", params.CampaignID,
	)
	defer func() {
		r.settle(err)
		finish(ctx, logger, "CampaignRegistry", "Update", start, err, "campaign updated", "status", campaign.Status)
	}()

	if !params.Principal.IsAdmin {
		err = ErrPermissionDenied
		return
	}

	r.mu.RLock()
	idx := indexOfCampaign(r.campaigns, params.CampaignID)
	var existing Campaign
	if idx >= 0 {
		existing = cloneCampaign(r.campaigns[idx])
	}
	r.mu.RUnlock()
	if idx < 0 {
		err = ErrNotFound
		return
	}

	merged := applyPatch(existing, params.Patch)
	input := normalizeCampaignInput(campaignInputOf(merged))
	if err = validateCampaignInput(input); err != nil {
		return
	}
	if !CanTransition(existing.Status, input.Status) {
		vErr := &ValidationError{}
		vErr.add("status", fmt.Sprintf("%s 상태에서 %s 상태로 변경할 수 없습니다.", existing.Status.Label(), input.Status.Label()))
		err = vErr
		return
	}
	merged.applyInput(input)

	campaign = merged
	if r.source != nil {
		var persisted Campaign
		persisted, err = r.source.UpdateCampaign(ctx, merged)
		if err != nil {
			err = r.mapSourceError(ctx, logger, err, "update", msgUpdateCampaign)
			campaign = Campaign{}
			return
		}
		campaign = persisted
	}

	r.mu.Lock()
	if i := indexOfCampaign(r.campaigns, campaign.ID); i >= 0 {
		r.campaigns[i] = cloneCampaign(campaign)
	}
	if r.selected != nil && r.selectedID == campaign.ID {
		selected := cloneCampaign(campaign)
		r.selected = &selected
	}
	r.mu.Unlock()
	return
}

// Delete removes a campaign and clears the selection when it pointed at it.
func (r *CampaignRegistry) Delete(ctx context.Context, principal Principal, id string) (err error) {
	if r == nil {
		return fmt.Errorf("CampaignRegistry is nil")
	}

	start := time.Now()
	logger := r.loggerWith(ctx, "Delete",
		"principal_id", principal.UserID,
		"campaign_id", id,
	)
	defer func() {
		r.settle(err)
		finish(ctx, logger, "CampaignRegistry", "Delete", start, err, "campaign deleted")
	}()

	if !principal.IsAdmin {
		return ErrPermissionDenied
	}

	if r.source != nil {
		if srcErr := r.source.DeleteCampaign(ctx, id); srcErr != nil {
			return r.mapSourceError(ctx, logger, srcErr, "delete", msgDeleteCampaign)
		}
	} else {
		r.mu.RLock()
		idx := indexOfCampaign(r.campaigns, id)
		r.mu.RUnlock()
		if idx < 0 {
			return ErrNotFound
		}
	}

	r.mu.Lock()
	if i := indexOfCampaign(r.campaigns, id); i >= 0 {
		r.campaigns = append(r.campaigns[:i:i], r.campaigns[i+1:]...)
	}
	if r.selectedID == id {
		r.selected = nil
		r.selectedID = ""
	}
	r.mu.Unlock()
	return nil
}

// mapSourceError keeps not-found distinguishable and hides every other cause
// behind the category message.
func (r *CampaignRegistry) mapSourceError(ctx context.Context, logger *slog.Logger, err error, category, message string) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	logger.WarnContext(ctx, "campaign source failed", "category", category, "cause", err)
	return upstream(category, message)
}

func (r *CampaignRegistry) settle(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case err == nil:
		r.errMsg = ""
	case errors.Is(err, ErrNotFound):
		r.errMsg = msgCampaignNotFound
	default:
		r.errMsg = UserMessage(err)
	}
}

func indexOfCampaign(campaigns []Campaign, id string) int {
	for i, c := range campaigns {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// FilterCampaigns returns the campaigns in status whose title, description or
// target audience contains query, ignoring case. An empty status or a blank
// query does not filter. Order is preserved.
func FilterCampaigns(campaigns []Campaign, status CampaignStatus, query string) []Campaign {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]Campaign, 0, len(campaigns))
	for _, c := range campaigns {
		if status != "" && c.Status != status {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(c.Title), query) &&
			!strings.Contains(strings.ToLower(c.Description), query) &&
			!strings.Contains(strings.ToLower(c.TargetAudience), query) {
			continue
		}
		out = append(out, c)
	}
	return out
}

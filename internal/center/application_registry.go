package center

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ApplicationSource is the data-access collaborator for application records.
type ApplicationSource interface {
	FetchApplications(ctx context.Context) ([]ApplicationSummary, error)
	FetchUserApplications(ctx context.Context, userID string) ([]Application, error)
	FetchApplication(ctx context.Context, id string) (ApplicationSummary, error)
	PersistApplication(ctx context.Context, app Application) (Application, error)
	UpdateApplicationStatus(ctx context.Context, id string, status ApplicationStatus) error
}

// ApplicationRegistry holds the admin view ("all") and the current user view
// ("mine") of submitted applications.
type ApplicationRegistry struct {
	mu          sync.RWMutex
	all         []ApplicationSummary
	mine        []Application
	mineOwner   string
	inflight    map[string]struct{}
	errMsg      string
	session     SessionReader
	source      ApplicationSource
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewApplicationRegistry constructs an application registry with the provided dependencies.
func NewApplicationRegistry(session SessionReader, source ApplicationSource, idGenerator func() string, now func() time.Time) *ApplicationRegistry {
	return NewApplicationRegistryWithLogger(session, source, idGenerator, now, nil)
}

// NewApplicationRegistryWithLogger constructs an application registry with a specified logger.
func NewApplicationRegistryWithLogger(session SessionReader, source ApplicationSource, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ApplicationRegistry {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ApplicationRegistry{
		session:     session,
		source:      source,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (r *ApplicationRegistry) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return registryLogger(ctx, r.logger, "ApplicationRegistry", operation, attrs...)
}

func (r *ApplicationRegistry) currentSession() Session {
	if r.session == nil {
		return Session{Status: SessionUnauthenticated}
	}
	return r.session.Snapshot()
}

// All returns a copy of the admin collection.
func (r *ApplicationRegistry) All() []ApplicationSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSummaries(r.all)
}

// Mine returns the current user's applications. A collection loaded for a
// different user is never returned.
func (r *ApplicationRegistry) Mine() []Application {
	session := r.currentSession()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !session.IsAuthenticated() || session.User.ID != r.mineOwner {
		return nil
	}
	return cloneApplications(r.mine)
}

// Err returns the user-facing message of the last failed operation.
func (r *ApplicationRegistry) Err() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.errMsg
}

// ClearError resets the error field only.
func (r *ApplicationRegistry) ClearError() {
	r.mu.Lock()
	r.errMsg = ""
	r.mu.Unlock()
}

// ListAll loads every application for an administrator and returns those
// belonging to campaignID. An empty campaignID returns everything.
func (r *ApplicationRegistry) ListAll(ctx context.Context, campaignID string) (apps []ApplicationSummary, err error) {
	if r == nil {
		err = fmt.Errorf("ApplicationRegistry is nil")
		return
	}

	session := r.currentSession()
	start := time.Now()
	logger := r.loggerWith(ctx, "ListAll",
		"principal_id", session.Principal().UserID,
		"campaign_id", campaignID,
	)
	defer func() {
		r.settle(err)
		finish(ctx, logger, "ApplicationRegistry", "ListAll", start, err, "applications listed", "count", len(apps))
	}()

	if err = requireAdmin(session); err != nil {
		return
	}
	if r.source == nil {
		err = fmt.Errorf("application source not configured")
		return
	}

	var fetched []ApplicationSummary
	fetched, err = r.source.FetchApplications(ctx)
	if err != nil {
		logger.WarnContext(ctx, "application source failed", "cause", err)
		err = upstream("fetch", msgFetchApplication)
		return
	}

	r.mu.Lock()
	r.all = cloneSummaries(fetched)
	r.mu.Unlock()

	apps = FilterByCampaign(fetched, campaignID)
	return
}

// FilterByCampaign returns the summaries belonging to campaignID, or all of
// them when campaignID is empty.
func FilterByCampaign(apps []ApplicationSummary, campaignID string) []ApplicationSummary {
	out := make([]ApplicationSummary, 0, len(apps))
	for _, app := range apps {
		if campaignID == "" || app.CampaignID == campaignID {
			out = append(out, cloneSummary(app))
		}
	}
	return out
}

// ListMine loads the current user's applications.
func (r *ApplicationRegistry) ListMine(ctx context.Context) (apps []Application, err error) {
	if r == nil {
		err = fmt.Errorf("ApplicationRegistry is nil")
		return
	}

	session := r.currentSession()
	start := time.Now()
	logger := r.loggerWith(ctx, "ListMine", "principal_id", session.Principal().UserID)
	defer func() {
		r.settle(err)
		finish(ctx, logger, "ApplicationRegistry", "ListMine", start, err, "user applications listed", "count", len(apps))
	}()

	if !session.IsAuthenticated() {
		err = ErrUnauthenticated
		return
	}
	if r.source == nil {
		err = fmt.Errorf("application source not configured")
		return
	}

	userID := session.User.ID
	var fetched []Application
	fetched, err = r.source.FetchUserApplications(ctx, userID)
	if err != nil {
		logger.WarnContext(ctx, "application source failed", "cause", err)
		err = upstream("fetch", msgFetchApplication)
		return
	}

	r.mu.Lock()
	r.mine = cloneApplications(fetched)
	r.mineOwner = userID
	r.mu.Unlock()

	apps = cloneApplications(fetched)
	return
}

// Submit creates a pending application for the current user. The eligibility
// gate is re-evaluated against the loaded "mine" collection and submissions in
// flight.
func (r *ApplicationRegistry) Submit(ctx context.Context, params SubmitParams) (app Application, err error) {
	if r == nil {
		err = fmt.Errorf("ApplicationRegistry is nil")
		return
	}

	session := r.currentSession()
	start := time.Now()
	logger := r.loggerWith(ctx, "Submit",
		"principal_id", session.Principal().UserID,
		"campaign_id", params.Campaign.ID,
	)
	defer func() {
		r.settle(err)
		finish(ctx, logger, "ApplicationRegistry", "Submit", start, err, "application submitted", "application_id", app.ID)
	}()

	key, decision := r.reserve(session, params.Campaign)
	if decision != EligibilityEligible {
		logger.InfoContext(ctx, "submission rejected by eligibility gate", "eligibility", decision.String())
		err = decision.Err()
		return
	}
	defer r.release(key)

	if fieldErrs := ValidateForm(params.Campaign.RequiredFields, params.Fields); len(fieldErrs) > 0 {
		err = &ValidationError{FieldErrors: fieldErrs}
		return
	}

	user := *session.User
	app = Application{
		ID:         r.idGenerator(),
		CampaignID: params.Campaign.ID,
		UserID:     user.ID,
		Status:     ApplicationPending,
		Fields:     submissionFields(params.Campaign.RequiredFields, params.Fields),
		CreatedAt:  r.now(),
	}

	if r.source != nil {
		var persisted Application
		persisted, err = r.source.PersistApplication(ctx, app)
		if err != nil {
			var vErr *ValidationError
			switch {
			case errors.Is(err, ErrAlreadyApplied), errors.Is(err, ErrClosedForSubmission):
			case errors.As(err, &vErr):
			default:
				logger.WarnContext(ctx, "application source failed", "cause", err)
				err = upstream("submit", msgSubmit)
			}
			app = Application{}
			return
		}
		app = persisted
	}

	r.mu.Lock()
	r.all = append(r.all, ApplicationSummary{
		Application:   cloneApplication(app),
		CampaignTitle: params.Campaign.Title,
		UserName:      user.Name,
		PhoneNumber:   user.PhoneNumber,
	})
	if r.mineOwner != user.ID {
		r.mine = nil
		r.mineOwner = user.ID
	}
	r.mine = append(r.mine, cloneApplication(app))
	r.mu.Unlock()
	return
}

// SetStatus moves an application to approved or rejected, reading it through
// from the data source when it is not loaded yet. Re-applying the current
// status succeeds without contacting the data source.
func (r *ApplicationRegistry) SetStatus(ctx context.Context, id string, status ApplicationStatus) (err error) {
	if r == nil {
		return fmt.Errorf("ApplicationRegistry is nil")
	}

	session := r.currentSession()
	start := time.Now()
	logger := r.loggerWith(ctx, "SetStatus",
		"principal_id", session.Principal().UserID,
		"application_id", id,
		"status", status,
	)
	defer func() {
		r.settle(err)
		finish(ctx, logger, "ApplicationRegistry", "SetStatus", start, err, "application status updated")
	}()

	if err = requireAdmin(session); err != nil {
		return
	}
	if status != ApplicationApproved && status != ApplicationRejected {
		vErr := &ValidationError{}
		vErr.add("status", "승인 또는 거절만 선택할 수 있습니다.")
		return vErr
	}

	current, lookupErr := r.lookup(ctx, logger, id)
	if lookupErr != nil {
		return lookupErr
	}
	if current.Status == status {
		return nil
	}

	if r.source != nil {
		if srcErr := r.source.UpdateApplicationStatus(ctx, id, status); srcErr != nil {
			if errors.Is(srcErr, ErrNotFound) {
				return ErrNotFound
			}
			logger.WarnContext(ctx, "application source failed", "cause", srcErr)
			return upstream("status", msgSetStatus)
		}
	}

	r.mu.Lock()
	for i := range r.all {
		if r.all[i].ID == id {
			r.all[i].Status = status
		}
	}
	for i := range r.mine {
		if r.mine[i].ID == id {
			r.mine[i].Status = status
		}
	}
	r.mu.Unlock()
	return nil
}

// Get returns one application with its campaign title and applicant details
// for an administrator. Loaded records are served first; anything else is read
// from the data source and added to the admin collection.
func (r *ApplicationRegistry) Get(ctx context.Context, id string) (app ApplicationSummary, err error) {
	if r == nil {
		err = fmt.Errorf("ApplicationRegistry is nil")
		return
	}

	session := r.currentSession()
	start := time.Now()
	logger := r.loggerWith(ctx, "Get",
		"principal_id", session.Principal().UserID,
		"application_id", id,
	)
	defer func() {
		r.settle(err)
		finish(ctx, logger, "ApplicationRegistry", "Get", start, err, "application loaded")
	}()

	if err = requireAdmin(session); err != nil {
		return
	}
	app, err = r.lookup(ctx, logger, id)
	return
}

func (r *ApplicationRegistry) lookup(ctx context.Context, logger *slog.Logger, id string) (ApplicationSummary, error) {
	if app, ok := r.loaded(id); ok {
		return app, nil
	}
	if r.source == nil || id == "" {
		return ApplicationSummary{}, ErrNotFound
	}

	fetched, err := r.source.FetchApplication(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ApplicationSummary{}, ErrNotFound
		}
		logger.WarnContext(ctx, "application source failed", "cause", err)
		return ApplicationSummary{}, upstream("fetch", msgFetchApplication)
	}

	r.mu.Lock()
	if indexOfSummary(r.all, fetched.ID) < 0 {
		r.all = append(r.all, cloneSummary(fetched))
	}
	r.mu.Unlock()
	return cloneSummary(fetched), nil
}

func (r *ApplicationRegistry) loaded(id string) (ApplicationSummary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := indexOfSummary(r.all, id); i >= 0 {
		return cloneSummary(r.all[i]), true
	}
	for _, app := range r.mine {
		if app.ID == id {
			return ApplicationSummary{Application: cloneApplication(app)}, true
		}
	}
	return ApplicationSummary{}, false
}

// reserve runs the eligibility gate under the registry lock and marks the
// user and campaign pair as in flight, so a concurrent submission for the same
// pair is refused as already applied until release.
func (r *ApplicationRegistry) reserve(session Session, campaign Campaign) (string, Eligibility) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var mine []Application
	if session.IsAuthenticated() && session.User.ID == r.mineOwner {
		mine = r.mine
	}
	decision := Decide(session, campaign, mine)
	if decision != EligibilityEligible {
		return "", decision
	}

	key := session.User.ID + "\x00" + campaign.ID
	if _, busy := r.inflight[key]; busy {
		return "", EligibilityAlreadyApplied
	}
	if r.inflight == nil {
		r.inflight = make(map[string]struct{})
	}
	r.inflight[key] = struct{}{}
	return key, EligibilityEligible
}

func (r *ApplicationRegistry) release(key string) {
	r.mu.Lock()
	delete(r.inflight, key)
	r.mu.Unlock()
}

func (r *ApplicationRegistry) settle(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case err == nil:
		r.errMsg = ""
	case errors.Is(err, ErrNotFound):
		r.errMsg = msgAppNotFound
	default:
		r.errMsg = UserMessage(err)
	}
}

// requireAdmin refuses every caller that is not an authenticated admin,
// anonymous callers included.
func requireAdmin(session Session) error {
	if !session.IsAuthenticated() || !session.IsAdmin() {
		return ErrPermissionDenied
	}
	return nil
}

func indexOfSummary(apps []ApplicationSummary, id string) int {
	for i, app := range apps {
		if app.ID == id {
			return i
		}
	}
	return -1
}

func cloneSummary(s ApplicationSummary) ApplicationSummary {
	out := s
	out.Application = cloneApplication(s.Application)
	return out
}

func cloneSummaries(in []ApplicationSummary) []ApplicationSummary {
	if len(in) == 0 {
		return nil
	}
	out := make([]ApplicationSummary, len(in))
	for i, s := range in {
		out[i] = cloneSummary(s)
	}
	return out
}

package center

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type sessionStub struct {
	session Session
}

func (s *sessionStub) Snapshot() Session { return s.session }

func signedIn(user User) *sessionStub {
	return &sessionStub{session: Session{User: &user, Token: "token-" + user.ID, Status: SessionAuthenticated}}
}

func adminUser() User {
	return User{ID: "admin-1", Email: "staff@example.com", Name: "관리자", Role: RoleAdmin}
}

type applicationSourceStub struct {
	mu sync.Mutex

	all    []ApplicationSummary
	allErr error

	mine    map[string][]Application
	mineErr error

	getErr error

	persistErr   error
	persistDelay time.Duration
	persisted    []Application

	statusErr     error
	statusUpdates int
}

func (s *applicationSourceStub) FetchApplications(ctx context.Context) ([]ApplicationSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.allErr != nil {
		return nil, s.allErr
	}
	out := cloneSummaries(s.all)
	for _, app := range s.persisted {
		out = append(out, ApplicationSummary{Application: cloneApplication(app)})
	}
	return out, nil
}

func (s *applicationSourceStub) FetchUserApplications(ctx context.Context, userID string) ([]Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mineErr != nil {
		return nil, s.mineErr
	}
	out := cloneApplications(s.mine[userID])
	for _, app := range s.persisted {
		if app.UserID == userID {
			out = append(out, cloneApplication(app))
		}
	}
	return out, nil
}

func (s *applicationSourceStub) FetchApplication(ctx context.Context, id string) (ApplicationSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return ApplicationSummary{}, s.getErr
	}
	for _, app := range s.all {
		if app.ID == id {
			return cloneSummary(app), nil
		}
	}
	for _, app := range s.persisted {
		if app.ID == id {
			return ApplicationSummary{Application: cloneApplication(app)}, nil
		}
	}
	return ApplicationSummary{}, ErrNotFound
}

func (s *applicationSourceStub) PersistApplication(ctx context.Context, app Application) (Application, error) {
	if s.persistDelay > 0 {
		time.Sleep(s.persistDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persistErr != nil {
		return Application{}, s.persistErr
	}
	s.persisted = append(s.persisted, cloneApplication(app))
	return app, nil
}

func (s *applicationSourceStub) UpdateApplicationStatus(ctx context.Context, id string, status ApplicationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statusErr != nil {
		return s.statusErr
	}
	s.statusUpdates++
	return nil
}

func newApplicationRegistry(session SessionReader, source ApplicationSource) *ApplicationRegistry {
	now := time.Date(2024, time.May, 3, 10, 0, 0, 0, time.UTC)
	return NewApplicationRegistry(session, source, func() string { return "app-1" }, func() time.Time { return now })
}

func TestApplicationRegistry_Submit(t *testing.T) {
	campaign := sampleCampaign("1", CampaignActive)

	t.Run("creates a pending application with exactly the required keys", func(t *testing.T) {
		source := &applicationSourceStub{}
		reg := newApplicationRegistry(signedIn(memberUser()), source)

		app, err := reg.Submit(context.Background(), SubmitParams{
			Campaign: campaign,
			Fields:   map[string]string{"이름": "김", "나이": "30", "메모": "무시됨"},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		if app.Status != ApplicationPending || app.ID != "app-1" || app.UserID != "user-1" {
			t.Fatalf("unexpected application: %+v", app)
		}
		if len(app.Fields) != 2 || app.Fields["이름"] != "김" || app.Fields["나이"] != "30" {
			t.Fatalf("unexpected fields: %v", app.Fields)
		}
		if len(reg.All()) != 1 || len(reg.Mine()) != 1 {
			t.Fatalf("expected application in both collections")
		}
		if reg.All()[0].CampaignTitle != campaign.Title {
			t.Fatalf("expected denormalized campaign title")
		}
	})

	t.Run("is visible through ListMine", func(t *testing.T) {
		source := &applicationSourceStub{}
		reg := newApplicationRegistry(signedIn(memberUser()), source)

		app, err := reg.Submit(context.Background(), SubmitParams{
			Campaign: campaign,
			Fields:   map[string]string{"이름": "김", "나이": "30"},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		mine, err := reg.ListMine(context.Background())
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(mine) != 1 || mine[0].ID != app.ID || mine[0].Status != ApplicationPending {
			t.Fatalf("expected submitted application, got %+v", mine)
		}
	})

	t.Run("rejects a second submission", func(t *testing.T) {
		source := &applicationSourceStub{}
		session := signedIn(memberUser())
		reg := newApplicationRegistry(session, source)
		params := SubmitParams{Campaign: campaign, Fields: map[string]string{"이름": "김", "나이": "30"}}

		if _, err := reg.Submit(context.Background(), params); err != nil {
			t.Fatalf("expected first submission to succeed, got %v", err)
		}
		if got := Decide(session.Snapshot(), campaign, reg.Mine()); got != EligibilityAlreadyApplied {
			t.Fatalf("expected already applied, got %s", got)
		}
		if _, err := reg.Submit(context.Background(), params); !errors.Is(err, ErrAlreadyApplied) {
			t.Fatalf("expected ErrAlreadyApplied, got %v", err)
		}
		if len(source.persisted) != 1 {
			t.Fatalf("expected a single persisted application, got %d", len(source.persisted))
		}
	})

	t.Run("maps a storage level duplicate", func(t *testing.T) {
		source := &applicationSourceStub{persistErr: ErrAlreadyApplied}
		reg := newApplicationRegistry(signedIn(memberUser()), source)

		_, err := reg.Submit(context.Background(), SubmitParams{Campaign: campaign, Fields: map[string]string{"이름": "김", "나이": "30"}})
		if !errors.Is(err, ErrAlreadyApplied) {
			t.Fatalf("expected ErrAlreadyApplied, got %v", err)
		}
	})

	t.Run("requires a session", func(t *testing.T) {
		reg := newApplicationRegistry(&sessionStub{}, &applicationSourceStub{})

		_, err := reg.Submit(context.Background(), SubmitParams{Campaign: campaign})
		if !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("admins cannot submit", func(t *testing.T) {
		reg := newApplicationRegistry(signedIn(adminUser()), &applicationSourceStub{})

		_, err := reg.Submit(context.Background(), SubmitParams{Campaign: campaign, Fields: map[string]string{"이름": "김", "나이": "30"}})
		if !errors.Is(err, ErrClosedForSubmission) {
			t.Fatalf("expected ErrClosedForSubmission, got %v", err)
		}
	})

	t.Run("validates required fields", func(t *testing.T) {
		source := &applicationSourceStub{}
		reg := newApplicationRegistry(signedIn(memberUser()), source)

		_, err := reg.Submit(context.Background(), SubmitParams{Campaign: campaign, Fields: map[string]string{"이름": " "}})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if len(vErr.FieldErrors) != 2 {
			t.Fatalf("expected both fields to be reported, got %v", vErr.FieldErrors)
		}
		if len(source.persisted) != 0 || len(reg.All()) != 0 {
			t.Fatalf("expected no partial write")
		}
	})

	t.Run("hides persistence failures", func(t *testing.T) {
		reg := newApplicationRegistry(signedIn(memberUser()), &applicationSourceStub{persistErr: errors.New("disk full")})

		_, err := reg.Submit(context.Background(), SubmitParams{Campaign: campaign, Fields: map[string]string{"이름": "김", "나이": "30"}})
		if err == nil || err.Error() != msgSubmit {
			t.Fatalf("expected submit message, got %v", err)
		}
		if reg.Err() != msgSubmit {
			t.Fatalf("expected error field to be set, got %q", reg.Err())
		}
	})

	t.Run("keeps source refusals", func(t *testing.T) {
		reg := newApplicationRegistry(signedIn(memberUser()), &applicationSourceStub{persistErr: fmt.Errorf("campaign 1: %w", ErrClosedForSubmission)})

		_, err := reg.Submit(context.Background(), SubmitParams{Campaign: campaign, Fields: map[string]string{"이름": "김", "나이": "30"}})
		if !errors.Is(err, ErrClosedForSubmission) {
			t.Fatalf("expected ErrClosedForSubmission, got %v", err)
		}
		if len(reg.All()) != 0 || len(reg.Mine()) != 0 {
			t.Fatalf("expected no partial write")
		}

		fieldErr := &ValidationError{FieldErrors: map[string]string{"나이": "나이을(를) 입력해주세요."}}
		reg = newApplicationRegistry(signedIn(memberUser()), &applicationSourceStub{persistErr: fieldErr})
		_, err = reg.Submit(context.Background(), SubmitParams{Campaign: campaign, Fields: map[string]string{"이름": "김", "나이": "30"}})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["나이"] == "" {
			t.Fatalf("expected the source validation error, got %v", err)
		}
	})

	t.Run("a failed submission can be retried", func(t *testing.T) {
		source := &applicationSourceStub{persistErr: errors.New("disk full")}
		reg := newApplicationRegistry(signedIn(memberUser()), source)
		params := SubmitParams{Campaign: campaign, Fields: map[string]string{"이름": "김", "나이": "30"}}

		if _, err := reg.Submit(context.Background(), params); err == nil {
			t.Fatalf("expected the first attempt to fail")
		}
		source.persistErr = nil
		if _, err := reg.Submit(context.Background(), params); err != nil {
			t.Fatalf("expected retry to succeed, got %v", err)
		}
	})
}

func TestApplicationRegistry_SubmitConcurrently(t *testing.T) {
	campaign := sampleCampaign("1", CampaignActive)
	source := &applicationSourceStub{persistDelay: 20 * time.Millisecond}
	reg := newApplicationRegistry(signedIn(memberUser()), source)

	const callers = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		refused   int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Submit(context.Background(), SubmitParams{
				Campaign: campaign,
				Fields:   map[string]string{"이름": "김", "나이": "30"},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrAlreadyApplied):
				refused++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || refused != callers-1 {
		t.Fatalf("expected one success and %d refusals, got %d and %d", callers-1, succeeded, refused)
	}
	if len(reg.Mine()) != 1 || len(reg.All()) != 1 {
		t.Fatalf("expected a single application in memory, got mine=%d all=%d", len(reg.Mine()), len(reg.All()))
	}
	source.mu.Lock()
	defer source.mu.Unlock()
	if len(source.persisted) != 1 {
		t.Fatalf("expected a single persisted application, got %d", len(source.persisted))
	}
}

func TestApplicationRegistry_SubmitDifferentCampaignsConcurrently(t *testing.T) {
	source := &applicationSourceStub{persistDelay: 10 * time.Millisecond}
	reg := newApplicationRegistry(signedIn(memberUser()), source)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = reg.Submit(context.Background(), SubmitParams{
				Campaign: sampleCampaign(fmt.Sprint(i+1), CampaignActive),
				Fields:   map[string]string{"이름": "김", "나이": "30"},
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("submission %d failed: %v", i+1, err)
		}
	}
	if len(reg.Mine()) != 3 {
		t.Fatalf("expected three applications, got %d", len(reg.Mine()))
	}
}

func TestApplicationRegistry_ListAll(t *testing.T) {
	summaries := []ApplicationSummary{
		{Application: Application{ID: "a", CampaignID: "1", UserID: "user-1", Status: ApplicationPending}},
		{Application: Application{ID: "b", CampaignID: "2", UserID: "user-2", Status: ApplicationApproved}},
	}

	t.Run("filters by campaign for administrators", func(t *testing.T) {
		reg := newApplicationRegistry(signedIn(adminUser()), &applicationSourceStub{all: summaries})

		got, err := reg.ListAll(context.Background(), "1")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(got) != 1 || got[0].ID != "a" {
			t.Fatalf("unexpected filtered result: %+v", got)
		}
		if len(reg.All()) != 2 {
			t.Fatalf("expected the full collection to be kept")
		}
	})

	t.Run("empty campaign returns everything", func(t *testing.T) {
		reg := newApplicationRegistry(signedIn(adminUser()), &applicationSourceStub{all: summaries})

		got, err := reg.ListAll(context.Background(), "")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected every application, got %d", len(got))
		}
	})

	t.Run("rejects members", func(t *testing.T) {
		reg := newApplicationRegistry(signedIn(memberUser()), &applicationSourceStub{all: summaries})

		if _, err := reg.ListAll(context.Background(), ""); !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
		if reg.Err() != msgPermissionDenied {
			t.Fatalf("expected permission message, got %q", reg.Err())
		}
	})

	t.Run("rejects anonymous callers", func(t *testing.T) {
		reg := newApplicationRegistry(&sessionStub{}, &applicationSourceStub{all: summaries})

		if _, err := reg.ListAll(context.Background(), ""); !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
		if reg.Err() != msgPermissionDenied {
			t.Fatalf("expected permission message, got %q", reg.Err())
		}
		if len(reg.All()) != 0 {
			t.Fatalf("expected nothing to be loaded")
		}
	})

	t.Run("includes a fresh submission", func(t *testing.T) {
		source := &applicationSourceStub{}
		member := newApplicationRegistry(signedIn(memberUser()), source)
		if _, err := member.Submit(context.Background(), SubmitParams{
			Campaign: sampleCampaign("1", CampaignActive),
			Fields:   map[string]string{"이름": "김", "나이": "30"},
		}); err != nil {
			t.Fatalf("expected submission success, got %v", err)
		}

		admin := newApplicationRegistry(signedIn(adminUser()), source)
		got, err := admin.ListAll(context.Background(), "1")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(got) != 1 || got[0].UserID != "user-1" {
			t.Fatalf("expected submitted application, got %+v", got)
		}
	})
}

func TestApplicationRegistry_ListMine(t *testing.T) {
	t.Run("requires a session", func(t *testing.T) {
		reg := newApplicationRegistry(&sessionStub{}, &applicationSourceStub{})
		if _, err := reg.ListMine(context.Background()); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("drops a collection owned by another user", func(t *testing.T) {
		session := signedIn(memberUser())
		source := &applicationSourceStub{mine: map[string][]Application{
			"user-1": {{ID: "a", CampaignID: "1", UserID: "user-1", Status: ApplicationPending}},
		}}
		reg := newApplicationRegistry(session, source)
		if _, err := reg.ListMine(context.Background()); err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		other := memberUser()
		other.ID = "user-2"
		session.session.User = &other
		if got := reg.Mine(); got != nil {
			t.Fatalf("expected no applications for a different user, got %+v", got)
		}
	})

	t.Run("hides fetch failures", func(t *testing.T) {
		reg := newApplicationRegistry(signedIn(memberUser()), &applicationSourceStub{mineErr: errors.New("timeout")})
		_, err := reg.ListMine(context.Background())
		if err == nil || err.Error() != msgFetchApplication {
			t.Fatalf("expected fetch message, got %v", err)
		}
	})
}

func TestApplicationRegistry_SetStatus(t *testing.T) {
	summaries := []ApplicationSummary{
		{Application: Application{ID: "a", CampaignID: "1", UserID: "user-1", Status: ApplicationPending}},
	}

	t.Run("approves idempotently", func(t *testing.T) {
		source := &applicationSourceStub{all: summaries}
		reg := newApplicationRegistry(signedIn(adminUser()), source)
		if _, err := reg.ListAll(context.Background(), ""); err != nil {
			t.Fatalf("expected list success, got %v", err)
		}

		for i := 0; i < 2; i++ {
			if err := reg.SetStatus(context.Background(), "a", ApplicationApproved); err != nil {
				t.Fatalf("expected success on call %d, got %v", i+1, err)
			}
		}

		all := reg.All()
		if all[0].Status != ApplicationApproved || all[0].CampaignID != "1" {
			t.Fatalf("unexpected record: %+v", all[0])
		}
		if source.statusUpdates != 1 {
			t.Fatalf("expected a single source update, got %d", source.statusUpdates)
		}
	})

	t.Run("reads through an application that is not loaded", func(t *testing.T) {
		source := &applicationSourceStub{all: summaries}
		reg := newApplicationRegistry(signedIn(adminUser()), source)

		if err := reg.SetStatus(context.Background(), "a", ApplicationApproved); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		all := reg.All()
		if len(all) != 1 || all[0].Status != ApplicationApproved {
			t.Fatalf("expected the fetched record to be updated, got %+v", all)
		}
		if source.statusUpdates != 1 {
			t.Fatalf("expected a source update, got %d", source.statusUpdates)
		}
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		reg := newApplicationRegistry(signedIn(adminUser()), &applicationSourceStub{all: summaries})
		if _, err := reg.ListAll(context.Background(), ""); err != nil {
			t.Fatalf("expected list success, got %v", err)
		}

		if err := reg.SetStatus(context.Background(), "missing", ApplicationRejected); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if reg.Err() != msgAppNotFound {
			t.Fatalf("expected not found message, got %q", reg.Err())
		}
	})

	t.Run("rejects members and anonymous callers", func(t *testing.T) {
		reg := newApplicationRegistry(signedIn(memberUser()), &applicationSourceStub{all: summaries})
		if err := reg.SetStatus(context.Background(), "a", ApplicationApproved); !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}

		reg = newApplicationRegistry(&sessionStub{}, &applicationSourceStub{all: summaries})
		if err := reg.SetStatus(context.Background(), "a", ApplicationApproved); !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
	})

	t.Run("only approve or reject", func(t *testing.T) {
		reg := newApplicationRegistry(signedIn(adminUser()), &applicationSourceStub{all: summaries})
		err := reg.SetStatus(context.Background(), "a", ApplicationPending)

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("hides source failures without mutating", func(t *testing.T) {
		source := &applicationSourceStub{all: summaries, statusErr: errors.New("conflict")}
		reg := newApplicationRegistry(signedIn(adminUser()), source)
		if _, err := reg.ListAll(context.Background(), ""); err != nil {
			t.Fatalf("expected list success, got %v", err)
		}

		err := reg.SetStatus(context.Background(), "a", ApplicationRejected)
		if err == nil || err.Error() != msgSetStatus {
			t.Fatalf("expected status message, got %v", err)
		}
		if reg.All()[0].Status != ApplicationPending {
			t.Fatalf("expected status unchanged")
		}
	})
}

func TestApplicationRegistry_Get(t *testing.T) {
	summaries := []ApplicationSummary{
		{
			Application:   Application{ID: "a", CampaignID: "1", UserID: "user-1", Status: ApplicationPending, Fields: map[string]string{"이름": "김"}},
			CampaignTitle: "도자기 교실",
			UserName:      "김회원",
		},
	}

	t.Run("reads through and caches", func(t *testing.T) {
		source := &applicationSourceStub{all: summaries}
		reg := newApplicationRegistry(signedIn(adminUser()), source)

		got, err := reg.Get(context.Background(), "a")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if got.CampaignTitle != "도자기 교실" || got.Fields["이름"] != "김" {
			t.Fatalf("unexpected application: %+v", got)
		}

		source.getErr = errors.New("offline")
		if _, err := reg.Get(context.Background(), "a"); err != nil {
			t.Fatalf("expected cached record, got %v", err)
		}
		if len(reg.All()) != 1 {
			t.Fatalf("expected the record in the admin collection")
		}
	})

	t.Run("missing is not found", func(t *testing.T) {
		reg := newApplicationRegistry(signedIn(adminUser()), &applicationSourceStub{})
		if _, err := reg.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if reg.Err() != msgAppNotFound {
			t.Fatalf("expected not found message, got %q", reg.Err())
		}
	})

	t.Run("hides fetch failures", func(t *testing.T) {
		reg := newApplicationRegistry(signedIn(adminUser()), &applicationSourceStub{getErr: errors.New("offline")})
		_, err := reg.Get(context.Background(), "a")
		if err == nil || err.Error() != msgFetchApplication {
			t.Fatalf("expected fetch message, got %v", err)
		}
	})

	t.Run("administrators only", func(t *testing.T) {
		reg := newApplicationRegistry(signedIn(memberUser()), &applicationSourceStub{all: summaries})
		if _, err := reg.Get(context.Background(), "a"); !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
	})
}

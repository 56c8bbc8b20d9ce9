package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/culture-center/internal/center"
	"github.com/example/culture-center/internal/persistence"
	"github.com/example/culture-center/internal/testfixtures"
)

type sourceFixture struct {
	harness      *testfixtures.SQLiteHarness
	clock        *testfixtures.Clock
	campaigns    *CampaignSource
	applications *ApplicationSource
	admin        testfixtures.UserFixture
	member       testfixtures.UserFixture
}

func newSourceFixture(t *testing.T) sourceFixture {
	t.Helper()
	harness := testfixtures.NewSQLiteHarness(t)
	clock := testfixtures.NewClock(time.Time{})
	admin := testfixtures.NewUserFixture(testfixtures.WithUserAdmin(true))
	member := testfixtures.NewUserFixture()
	harness.Seed(t, []persistence.User{admin.Persistence(), member.Persistence()}, nil)

	return sourceFixture{
		harness:      harness,
		clock:        clock,
		campaigns:    NewCampaignSource(harness.Campaigns, clock.NowFunc()),
		applications: NewApplicationSource(harness.Applications, harness.Campaigns, clock.NowFunc()),
		admin:        admin,
		member:       member,
	}
}

func TestCampaignSourceLifecycle(t *testing.T) {
	f := newSourceFixture(t)
	ctx := context.Background()
	campaign := testfixtures.NewCampaignFixture(testfixtures.WithCampaignCreator(f.admin.ID)).Center()

	persisted, err := f.campaigns.PersistCampaign(ctx, campaign)
	require.NoError(t, err)
	assert.Equal(t, campaign.ID, persisted.ID)

	fetched, err := f.campaigns.FetchCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.Title, fetched.Title)
	assert.Equal(t, campaign.RequiredFields, fetched.RequiredFields)
	assert.Equal(t, center.CampaignActive, fetched.Status)

	fetched.Status = center.CampaignClosed
	f.clock.Advance(time.Hour)
	_, err = f.campaigns.UpdateCampaign(ctx, fetched)
	require.NoError(t, err)

	stored, err := f.harness.Campaigns.GetCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, "closed", stored.Status)
	assert.True(t, stored.UpdatedAt.Equal(f.clock.Now()))
	assert.True(t, stored.CreatedAt.Equal(campaign.CreatedAt))

	list, err := f.campaigns.FetchCampaigns(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, f.campaigns.DeleteCampaign(ctx, campaign.ID))
	_, err = f.campaigns.FetchCampaign(ctx, campaign.ID)
	assert.ErrorIs(t, err, center.ErrNotFound)
}

func TestCampaignSourceMissing(t *testing.T) {
	f := newSourceFixture(t)
	ctx := context.Background()

	_, err := f.campaigns.UpdateCampaign(ctx, testfixtures.NewCampaignFixture(testfixtures.WithCampaignCreator(f.admin.ID)).Center())
	assert.ErrorIs(t, err, center.ErrNotFound)
	assert.ErrorIs(t, f.campaigns.DeleteCampaign(ctx, "missing"), center.ErrNotFound)
}

func TestApplicationSourceLifecycle(t *testing.T) {
	f := newSourceFixture(t)
	ctx := context.Background()
	campaign := testfixtures.NewCampaignFixture(testfixtures.WithCampaignCreator(f.admin.ID))
	f.harness.Seed(t, nil, []persistence.Campaign{campaign.Persistence()})

	app := testfixtures.NewApplicationFixture(campaign.ID, f.member.ID).Center()
	_, err := f.applications.PersistApplication(ctx, app)
	require.NoError(t, err)

	t.Run("second submission", func(t *testing.T) {
		again := testfixtures.NewApplicationFixture(campaign.ID, f.member.ID).Center()
		_, err := f.applications.PersistApplication(ctx, again)
		assert.ErrorIs(t, err, center.ErrAlreadyApplied)
	})

	t.Run("campaign with applications cannot be deleted", func(t *testing.T) {
		assert.ErrorIs(t, f.campaigns.DeleteCampaign(ctx, campaign.ID), ErrCampaignHasApplications)
	})

	t.Run("mine", func(t *testing.T) {
		mine, err := f.applications.FetchUserApplications(ctx, f.member.ID)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, app.ID, mine[0].ID)
		assert.Equal(t, center.ApplicationPending, mine[0].Status)
		assert.Equal(t, app.Fields, mine[0].Fields)

		others, err := f.applications.FetchUserApplications(ctx, f.admin.ID)
		require.NoError(t, err)
		assert.Empty(t, others)
	})

	t.Run("summaries", func(t *testing.T) {
		all, err := f.applications.FetchApplications(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, campaign.Title, all[0].CampaignTitle)
		assert.Equal(t, f.member.Name, all[0].UserName)
		assert.Equal(t, f.member.PhoneNumber, all[0].PhoneNumber)
	})

	t.Run("single summary", func(t *testing.T) {
		got, err := f.applications.FetchApplication(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, app.ID, got.ID)
		assert.Equal(t, campaign.Title, got.CampaignTitle)
		assert.Equal(t, f.member.Name, got.UserName)
		assert.Equal(t, app.Fields, got.Fields)

		_, err = f.applications.FetchApplication(ctx, "missing")
		assert.ErrorIs(t, err, center.ErrNotFound)
	})

	t.Run("status", func(t *testing.T) {
		require.NoError(t, f.applications.UpdateApplicationStatus(ctx, app.ID, center.ApplicationApproved))
		stored, err := f.harness.Applications.GetApplication(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, "approved", stored.Status)

		assert.ErrorIs(t, f.applications.UpdateApplicationStatus(ctx, "missing", center.ApplicationApproved), center.ErrNotFound)
	})
}

func TestApplicationSourceChecksStoredCampaign(t *testing.T) {
	f := newSourceFixture(t)
	ctx := context.Background()
	active := testfixtures.NewCampaignFixture(testfixtures.WithCampaignCreator(f.admin.ID))
	closed := testfixtures.NewCampaignFixture(
		testfixtures.WithCampaignCreator(f.admin.ID),
		testfixtures.WithCampaignStatus(center.CampaignClosed),
	)
	f.harness.Seed(t, nil, []persistence.Campaign{active.Persistence(), closed.Persistence()})

	t.Run("closed campaign", func(t *testing.T) {
		stale := testfixtures.NewApplicationFixture(closed.ID, f.member.ID).Center()
		_, err := f.applications.PersistApplication(ctx, stale)
		assert.ErrorIs(t, err, center.ErrClosedForSubmission)
	})

	t.Run("missing campaign", func(t *testing.T) {
		orphan := testfixtures.NewApplicationFixture("campaign-missing", f.member.ID).Center()
		_, err := f.applications.PersistApplication(ctx, orphan)
		assert.ErrorIs(t, err, center.ErrClosedForSubmission)
	})

	t.Run("fields follow the stored campaign", func(t *testing.T) {
		partial := testfixtures.NewApplicationFixture(active.ID, f.member.ID,
			testfixtures.WithApplicationFields(map[string]string{"이름": "회원"}),
		).Center()
		_, err := f.applications.PersistApplication(ctx, partial)
		var vErr *center.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "연락처")

		extra := testfixtures.NewApplicationFixture(active.ID, f.member.ID,
			testfixtures.WithApplicationFields(map[string]string{"이름": "회원", "연락처": "010-1", "메모": "추가"}),
		).Center()
		persisted, err := f.applications.PersistApplication(ctx, extra)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"이름": "회원", "연락처": "010-1"}, persisted.Fields)

		stored, err := f.harness.Applications.GetApplication(ctx, extra.ID)
		require.NoError(t, err)
		assert.NotContains(t, stored.Fields, "메모")
	})

	list, err := f.harness.Applications.ListApplications(ctx, persistence.ApplicationFilter{CampaignID: closed.ID})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRegistriesOverSources(t *testing.T) {
	f := newSourceFixture(t)
	ctx := context.Background()
	factory := testfixtures.NewRegistryFactory(testfixtures.WithClock(f.clock))

	issuer, err := NewTokenIssuer("secret", time.Hour, f.clock.NowFunc())
	require.NoError(t, err)
	auth := NewAuthenticator(f.harness.Users, issuer, testfixtures.NewIDGenerator("account").NextFunc(), f.clock.NowFunc(), WithArgon2idParams(fastParams))
	adminParams := center.RegisterParams{Name: "관리자", Email: "staff@example.com", Password: "pw", PhoneNumber: "010"}
	_, err = auth.CreateAdmin(ctx, adminParams)
	require.NoError(t, err)

	session := factory.NewSessionStore(auth, nil)
	require.NoError(t, session.Login(ctx, "staff@example.com", "pw"))

	campaigns := factory.NewCampaignRegistry(f.campaigns)
	input := testfixtures.NewCampaignFixture(testfixtures.WithCampaignWindow(f.clock.Window(-1, 7))).Input()
	created, err := campaigns.Create(ctx, center.CreateCampaignParams{Principal: session.Snapshot().Principal(), Input: input})
	require.NoError(t, err)

	require.NoError(t, session.Register(ctx, center.RegisterParams{Name: "회원", Email: "member@example.com", Password: "pw", PhoneNumber: "010-1"}))
	apps := factory.NewApplicationRegistry(session, f.applications)
	_, err = apps.ListMine(ctx)
	require.NoError(t, err)

	submitted, err := apps.Submit(ctx, center.SubmitParams{
		Campaign: created,
		Fields:   map[string]string{"이름": "회원", "연락처": "010-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, center.ApplicationPending, submitted.Status)

	_, err = apps.Submit(ctx, center.SubmitParams{
		Campaign: created,
		Fields:   map[string]string{"이름": "회원", "연락처": "010-1"},
	})
	assert.ErrorIs(t, err, center.ErrAlreadyApplied)

	err = campaigns.Delete(ctx, center.Principal{UserID: "account-001", IsAdmin: true}, created.ID)
	assert.ErrorIs(t, err, center.ErrUpstreamFailure)

	draft, err := campaigns.Create(ctx, center.CreateCampaignParams{
		Principal: center.Principal{UserID: "account-001", IsAdmin: true},
		Input: testfixtures.NewCampaignFixture(
			testfixtures.WithCampaignStatus(center.CampaignDraft),
			testfixtures.WithCampaignWindow(f.clock.Window(-1, 7)),
		).Input(),
	})
	require.NoError(t, err)
	forged := draft
	forged.Status = center.CampaignActive
	_, err = apps.Submit(ctx, center.SubmitParams{
		Campaign: forged,
		Fields:   map[string]string{"이름": "회원", "연락처": "010-1"},
	})
	assert.ErrorIs(t, err, center.ErrClosedForSubmission)
	assert.Len(t, apps.Mine(), 1)
}

package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/culture-center/internal/center"
	"github.com/example/culture-center/internal/persistence"
)

var (
	userCounter        uint64
	campaignCounter    uint64
	applicationCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic account that can be materialised for
// center or persistence tests.
type UserFixture struct {
	ID           string
	Email        string
	Name         string
	PhoneNumber  string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic member fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		Name:         fmt.Sprintf("회원 %03d", idx),
		PhoneNumber:  fmt.Sprintf("010-0000-%04d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserPasswordHash overrides the stored password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithUserAdmin toggles the admin flag.
func WithUserAdmin(isAdmin bool) UserOption {
	return func(f *UserFixture) {
		f.IsAdmin = isAdmin
	}
}

// Center converts the fixture into the session-facing user model.
func (f UserFixture) Center() center.User {
	role := center.RoleUser
	if f.IsAdmin {
		role = center.RoleAdmin
	}
	return center.User{
		ID:          f.ID,
		Email:       f.Email,
		Name:        f.Name,
		PhoneNumber: f.PhoneNumber,
		Role:        role,
		CreatedAt:   f.CreatedAt,
	}
}

// Principal returns the principal acting as this user.
func (f UserFixture) Principal() center.Principal {
	return center.Principal{UserID: f.ID, IsAdmin: f.IsAdmin}
}

// Persistence converts the fixture into the stored record.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		Name:         f.Name,
		PhoneNumber:  f.PhoneNumber,
		PasswordHash: f.PasswordHash,
		IsAdmin:      f.IsAdmin,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.CreatedAt,
	}
}

// --------------------------- Campaign fixtures ---------------------------

// CampaignFixture represents a deterministic campaign. The default window
// spans a week starting at ReferenceTime and the status is active.
type CampaignFixture struct {
	ID              string
	Title           string
	Description     string
	TargetAudience  string
	MaxParticipants int
	StartDate       time.Time
	EndDate         time.Time
	RequiredFields  []string
	Status          center.CampaignStatus
	CreatedBy       string
	CreatedAt       time.Time
}

// CampaignOption configures the generated campaign fixture.
type CampaignOption func(*CampaignFixture)

// NewCampaignFixture returns a deterministic campaign fixture with optional overrides.
func NewCampaignFixture(opts ...CampaignOption) CampaignFixture {
	idx := atomic.AddUint64(&campaignCounter, 1)
	fixture := CampaignFixture{
		ID:              fmt.Sprintf("campaign-%03d", idx),
		Title:           fmt.Sprintf("문화 강좌 %03d", idx),
		Description:     "주말 문화 강좌",
		TargetAudience:  "성인",
		MaxParticipants: 20,
		StartDate:       referenceTime,
		EndDate:         referenceTime.Add(7 * 24 * time.Hour),
		RequiredFields:  []string{"이름", "연락처"},
		Status:          center.CampaignActive,
		CreatedBy:       "admin-001",
		CreatedAt:       referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithCampaignID overrides the generated campaign ID.
func WithCampaignID(id string) CampaignOption {
	return func(f *CampaignFixture) {
		f.ID = id
	}
}

// WithCampaignStatus overrides the campaign status.
func WithCampaignStatus(status center.CampaignStatus) CampaignOption {
	return func(f *CampaignFixture) {
		f.Status = status
	}
}

// WithCampaignWindow overrides the recruitment window.
func WithCampaignWindow(start, end time.Time) CampaignOption {
	return func(f *CampaignFixture) {
		f.StartDate = start
		f.EndDate = end
	}
}

// WithCampaignRequiredFields overrides the declared application fields.
func WithCampaignRequiredFields(fields ...string) CampaignOption {
	return func(f *CampaignFixture) {
		f.RequiredFields = append([]string(nil), fields...)
	}
}

// WithCampaignCreator overrides the creating admin.
func WithCampaignCreator(userID string) CampaignOption {
	return func(f *CampaignFixture) {
		f.CreatedBy = userID
	}
}

// Center converts the fixture into the registry model.
func (f CampaignFixture) Center() center.Campaign {
	return center.Campaign{
		ID:              f.ID,
		Title:           f.Title,
		Description:     f.Description,
		MaxParticipants: f.MaxParticipants,
		StartDate:       f.StartDate,
		EndDate:         f.EndDate,
		TargetAudience:  f.TargetAudience,
		RequiredFields:  append([]string(nil), f.RequiredFields...),
		Status:          f.Status,
		CreatedAt:       f.CreatedAt,
		CreatedBy:       f.CreatedBy,
	}
}

// Input converts the fixture into campaign form input.
func (f CampaignFixture) Input() center.CampaignInput {
	return center.CampaignInput{
		Title:           f.Title,
		Description:     f.Description,
		TargetAudience:  f.TargetAudience,
		MaxParticipants: f.MaxParticipants,
		StartDate:       f.StartDate,
		EndDate:         f.EndDate,
		RequiredFields:  append([]string(nil), f.RequiredFields...),
		Status:          f.Status,
	}
}

// Persistence converts the fixture into the stored record.
func (f CampaignFixture) Persistence() persistence.Campaign {
	return persistence.Campaign{
		ID:              f.ID,
		Title:           f.Title,
		Description:     f.Description,
		MaxParticipants: f.MaxParticipants,
		StartDate:       f.StartDate,
		EndDate:         f.EndDate,
		TargetAudience:  f.TargetAudience,
		RequiredFields:  append([]string(nil), f.RequiredFields...),
		Status:          string(f.Status),
		CreatedBy:       f.CreatedBy,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.CreatedAt,
	}
}

// ------------------------- Application fixtures --------------------------

// ApplicationFixture represents a deterministic pending application.
type ApplicationFixture struct {
	ID         string
	CampaignID string
	UserID     string
	Status     center.ApplicationStatus
	Fields     map[string]string
	CreatedAt  time.Time
}

// ApplicationOption configures the generated application fixture.
type ApplicationOption func(*ApplicationFixture)

// NewApplicationFixture returns a pending application of userID to campaignID.
func NewApplicationFixture(campaignID, userID string, opts ...ApplicationOption) ApplicationFixture {
	idx := atomic.AddUint64(&applicationCounter, 1)
	fixture := ApplicationFixture{
		ID:         fmt.Sprintf("application-%03d", idx),
		CampaignID: campaignID,
		UserID:     userID,
		Status:     center.ApplicationPending,
		Fields:     map[string]string{"이름": "홍길동", "연락처": "010-1234-5678"},
		CreatedAt:  referenceTime.Add(time.Duration(idx) * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithApplicationID overrides the generated application ID.
func WithApplicationID(id string) ApplicationOption {
	return func(f *ApplicationFixture) {
		f.ID = id
	}
}

// WithApplicationStatus overrides the review status.
func WithApplicationStatus(status center.ApplicationStatus) ApplicationOption {
	return func(f *ApplicationFixture) {
		f.Status = status
	}
}

// WithApplicationFields overrides the submitted field values.
func WithApplicationFields(fields map[string]string) ApplicationOption {
	return func(f *ApplicationFixture) {
		f.Fields = fields
	}
}

// Center converts the fixture into the registry model.
func (f ApplicationFixture) Center() center.Application {
	return center.Application{
		ID:         f.ID,
		CampaignID: f.CampaignID,
		UserID:     f.UserID,
		Status:     f.Status,
		Fields:     copyFields(f.Fields),
		CreatedAt:  f.CreatedAt,
	}
}

// Persistence converts the fixture into the stored record.
func (f ApplicationFixture) Persistence() persistence.Application {
	return persistence.Application{
		ID:         f.ID,
		CampaignID: f.CampaignID,
		UserID:     f.UserID,
		Status:     string(f.Status),
		Fields:     copyFields(f.Fields),
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.CreatedAt,
	}
}

func copyFields(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

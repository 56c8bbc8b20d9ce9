package center

import "time"

// Role identifies the capability level of a user account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User represents a member or administrator of the culture center.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phoneNumber"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SessionStatus tracks where the session store is in its lifecycle.
type SessionStatus string

const (
	SessionInitializing    SessionStatus = "initializing"
	SessionRestoring       SessionStatus = "restoring"
	SessionPending         SessionStatus = "pending"
	SessionAuthenticated   SessionStatus = "authenticated"
	SessionUnauthenticated SessionStatus = "unauthenticated"
)

// Session is a read snapshot of the session store.
type Session struct {
	User   *User
	Token  string
	Status SessionStatus
	Error  string
}

// IsAuthenticated reports whether both a user and a token are held.
func (s Session) IsAuthenticated() bool {
	return s.User != nil && s.Token != ""
}

// IsAdmin reports whether the authenticated user is an administrator.
func (s Session) IsAdmin() bool {
	return s.IsAuthenticated() && s.User.IsAdmin()
}

// Principal returns the acting principal for admin commands.
func (s Session) Principal() Principal {
	if !s.IsAuthenticated() {
		return Principal{}
	}
	return Principal{UserID: s.User.ID, IsAdmin: s.User.IsAdmin()}
}

// Principal represents the authenticated user invoking a registry command.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// CampaignStatus is the recruitment state of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignClosed    CampaignStatus = "closed"
	CampaignCancelled CampaignStatus = "cancelled"
)

// Valid reports whether the status is one of the known campaign states.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignActive, CampaignClosed, CampaignCancelled:
		return true
	}
	return false
}

// Campaign is an admin-created program with a recruitment window and a declared
// list of required application fields.
type Campaign struct {
	ID              string
	Title           string
	Description     string
	MaxParticipants int
	StartDate       time.Time
	EndDate         time.Time
	TargetAudience  string
	RequiredFields  []string
	Status          CampaignStatus
	CreatedAt       time.Time
	CreatedBy       string
}

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Application is a user's submission against a campaign.
type Application struct {
	ID         string
	CampaignID string
	UserID     string
	Status     ApplicationStatus
	Fields     map[string]string
	CreatedAt  time.Time
}

// ApplicationSummary is an application denormalized for admin listings.
type ApplicationSummary struct {
	Application
	CampaignTitle string
	UserName      string
	PhoneNumber   string
}

// RegisterParams captures the data required to create a member account.
type RegisterParams struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber string
}

// CampaignInput captures caller provided campaign fields.
type CampaignInput struct {
	Title           string         `field:"title" validate:"required"`
	Description     string         `field:"description" validate:"required"`
	TargetAudience  string         `field:"target_audience" validate:"required"`
	MaxParticipants int            `field:"max_participants" validate:"gt=0"`
	StartDate       time.Time      `field:"start_date" validate:"required"`
	EndDate         time.Time      `field:"end_date" validate:"required,gtefield=StartDate"`
	RequiredFields  []string       `field:"required_fields" validate:"min=1,unique,dive,required"`
	Status          CampaignStatus `field:"status" validate:"omitempty,campaign_status"`
}

// CampaignPatch carries a partial campaign update. Nil fields keep their prior value.
type CampaignPatch struct {
	Title           *string
	Description     *string
	TargetAudience  *string
	MaxParticipants *int
	StartDate       *time.Time
	EndDate         *time.Time
	RequiredFields  []string
	Status          *CampaignStatus
}

// CreateCampaignParams wraps the data required to create a campaign.
type CreateCampaignParams struct {
	Principal Principal
	Input     CampaignInput
}

// UpdateCampaignParams wraps the data required to update a campaign.
type UpdateCampaignParams struct {
	Principal  Principal
	CampaignID string
	Patch      CampaignPatch
}

// SubmitParams wraps the data required to submit an application.
type SubmitParams struct {
	Campaign Campaign
	Fields   map[string]string
}

func cloneCampaign(c Campaign) Campaign {
	out := c
	if c.RequiredFields != nil {
		out.RequiredFields = make([]string, len(c.RequiredFields))
		copy(out.RequiredFields, c.RequiredFields)
	}
	return out
}

func cloneCampaigns(in []Campaign) []Campaign {
	if len(in) == 0 {
		return nil
	}
	out := make([]Campaign, len(in))
	for i, c := range in {
		out[i] = cloneCampaign(c)
	}
	return out
}

func cloneApplication(a Application) Application {
	out := a
	if a.Fields != nil {
		out.Fields = make(map[string]string, len(a.Fields))
		for k, v := range a.Fields {
			out.Fields[k] = v
		}
	}
	return out
}

func cloneApplications(in []Application) []Application {
	if len(in) == 0 {
		return nil
	}
	out := make([]Application, len(in))
	for i, a := range in {
		out[i] = cloneApplication(a)
	}
	return out
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	copied := *u
	return &copied
}

package main

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/example/culture-center/internal/center"
)

const timestampLayout = "2006-01-02 15:04"

type userView struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Phone string `yaml:"phone,omitempty"`
	Role  string `yaml:"role"`
}

type sessionView struct {
	Status    string    `yaml:"status"`
	User      *userView `yaml:"user,omitempty"`
	ExpiresAt string    `yaml:"expires_at,omitempty"`
	Screens   []string  `yaml:"screens"`
	Error     string    `yaml:"error,omitempty"`
}

type campaignView struct {
	ID              string   `yaml:"id"`
	Title           string   `yaml:"title"`
	Status          string   `yaml:"status"`
	TargetAudience  string   `yaml:"target_audience"`
	MaxParticipants int      `yaml:"max_participants"`
	Period          string   `yaml:"period"`
	Description     string   `yaml:"description,omitempty"`
	RequiredFields  []string `yaml:"required_fields,omitempty"`
}

type campaignDetailView struct {
	campaignView `yaml:",inline"`
	Form         []string `yaml:"form,omitempty"`
	Notice       string   `yaml:"notice,omitempty"`
}

type applicationView struct {
	ID          string            `yaml:"id"`
	CampaignID  string            `yaml:"campaign_id"`
	Campaign    string            `yaml:"campaign,omitempty"`
	Applicant   string            `yaml:"applicant,omitempty"`
	Phone       string            `yaml:"phone,omitempty"`
	Status      string            `yaml:"status"`
	Fields      map[string]string `yaml:"fields,omitempty"`
	SubmittedAt string            `yaml:"submitted_at"`
}

type fieldValue struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

type applicationDetailView struct {
	ID          string       `yaml:"id"`
	Status      string       `yaml:"status"`
	Campaign    campaignView `yaml:"campaign"`
	Applicant   string       `yaml:"applicant,omitempty"`
	Phone       string       `yaml:"phone,omitempty"`
	SubmittedAt string       `yaml:"submitted_at"`
	Fields      []fieldValue `yaml:"fields"`
	Actions     []string     `yaml:"actions,omitempty"`
}

func userViewOf(u center.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.PhoneNumber, Role: u.Role.Label()}
}

func sessionViewOf(s center.Session) sessionView {
	view := sessionView{Status: string(s.Status), Error: s.Error}
	if s.IsAuthenticated() {
		user := userViewOf(*s.User)
		view.User = &user
	}
	for _, screen := range center.Screens(center.CapabilitiesOf(s)) {
		view.Screens = append(view.Screens, string(screen))
	}
	return view
}

func campaignViewOf(c center.Campaign, detailed bool) campaignView {
	view := campaignView{
		ID:              c.ID,
		Title:           c.Title,
		Status:          c.Status.Label(),
		TargetAudience:  c.TargetAudience,
		MaxParticipants: c.MaxParticipants,
		Period:          c.StartDate.Format(dateLayout) + " ~ " + c.EndDate.Format(dateLayout),
	}
	if detailed {
		view.Description = c.Description
		view.RequiredFields = c.RequiredFields
	}
	return view
}

func applicationViewOf(a center.ApplicationSummary) applicationView {
	return applicationView{
		ID:          a.ID,
		CampaignID:  a.CampaignID,
		Campaign:    a.CampaignTitle,
		Applicant:   a.UserName,
		Phone:       a.PhoneNumber,
		Status:      a.Status.Label(),
		Fields:      a.Fields,
		SubmittedAt: a.CreatedAt.Local().Format(timestampLayout),
	}
}

// applicationDetailViewOf lists field values in the campaign's declared order,
// followed by any values stored under names the campaign no longer declares.
func applicationDetailViewOf(a center.ApplicationSummary, campaign center.Campaign) applicationDetailView {
	view := applicationDetailView{
		ID:          a.ID,
		Status:      a.Status.Label(),
		Campaign:    campaignViewOf(campaign, false),
		Applicant:   a.UserName,
		Phone:       a.PhoneNumber,
		SubmittedAt: a.CreatedAt.Local().Format(timestampLayout),
		Fields:      make([]fieldValue, 0, len(a.Fields)),
	}

	declared := make(map[string]bool, len(campaign.RequiredFields))
	for _, name := range campaign.RequiredFields {
		declared[name] = true
		view.Fields = append(view.Fields, fieldValue{Name: name, Value: a.Fields[name]})
	}
	extra := make([]string, 0)
	for name := range a.Fields {
		if !declared[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		view.Fields = append(view.Fields, fieldValue{Name: name, Value: a.Fields[name]})
	}

	if a.Status == center.ApplicationPending {
		view.Actions = []string{"approve", "reject"}
	}
	return view
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return enc.Close()
}

// printError writes the user-facing message followed by any field errors in
// a stable order.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, center.UserMessage(err))

	var vErr *center.ValidationError
	if !errors.As(err, &vErr) {
		return
	}
	fields := make([]string, 0, len(vErr.FieldErrors))
	for field := range vErr.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintf(w, "  %s: %s\n", field, vErr.FieldErrors[field])
	}
}

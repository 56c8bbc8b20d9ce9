package persistence

import "time"

// User represents a member or administrator account.
type User struct {
	ID           string
	Email        string
	Name         string
	PhoneNumber  string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Campaign represents a program with a recruitment window.
type Campaign struct {
	ID              string
	Title           string
	Description     string
	MaxParticipants int
	StartDate       time.Time
	EndDate         time.Time
	TargetAudience  string
	RequiredFields  []string
	Status          string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Application represents a submission against a campaign.
type Application struct {
	ID         string
	CampaignID string
	UserID     string
	Status     string
	Fields     map[string]string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ApplicationSummary joins an application with its campaign title and applicant contact.
type ApplicationSummary struct {
	Application
	CampaignTitle string
	UserName      string
	PhoneNumber   string
}

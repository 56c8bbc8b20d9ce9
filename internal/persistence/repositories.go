package persistence

import (
	"context"
	"time"
)

// UserRepository stores member and administrator accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// CampaignRepository exposes CRUD operations for campaigns.
type CampaignRepository interface {
	CreateCampaign(ctx context.Context, campaign Campaign) error
	UpdateCampaign(ctx context.Context, campaign Campaign) error
	GetCampaign(ctx context.Context, id string) (Campaign, error)
	ListCampaigns(ctx context.Context) ([]Campaign, error)
	DeleteCampaign(ctx context.Context, id string) error
}

// ApplicationFilter narrows application queries. Empty fields match everything.
type ApplicationFilter struct {
	CampaignID string
	UserID     string
}

// ApplicationRepository stores applications. Applications are never deleted.
type ApplicationRepository interface {
	CreateApplication(ctx context.Context, app Application) error
	UpdateApplicationStatus(ctx context.Context, id, status string, updatedAt time.Time) error
	GetApplication(ctx context.Context, id string) (Application, error)
	ListApplications(ctx context.Context, filter ApplicationFilter) ([]Application, error)
	ListApplicationSummaries(ctx context.Context, filter ApplicationFilter) ([]ApplicationSummary, error)
}

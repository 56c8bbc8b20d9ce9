package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/culture-center/internal/persistence"
)

// CampaignRepository implements persistence.CampaignRepository using SQLite.
type CampaignRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewCampaignRepository creates a new SQLite campaign repository.
func NewCampaignRepository(pool *ConnectionPool) *CampaignRepository {
	return &CampaignRepository{pool: pool, mapper: NewErrorMapper()}
}

type campaignRow struct {
	ID              string `db:"id"`
	Title           string `db:"title"`
	Description     string `db:"description"`
	MaxParticipants int    `db:"max_participants"`
	StartDate       string `db:"start_date"`
	EndDate         string `db:"end_date"`
	TargetAudience  string `db:"target_audience"`
	RequiredFields  string `db:"required_fields"`
	Status          string `db:"status"`
	CreatedBy       string `db:"created_by"`
	CreatedAt       string `db:"created_at"`
	UpdatedAt       string `db:"updated_at"`
}

const campaignColumns = `id, title, description, max_participants, start_date, end_date, target_audience, required_fields, status, created_by, created_at, updated_at`

func campaignRowOf(c persistence.Campaign) (campaignRow, error) {
	fields := c.RequiredFields
	if fields == nil {
		fields = []string{}
	}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return campaignRow{}, fmt.Errorf("failed to encode required_fields: %w", err)
	}
	return campaignRow{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		MaxParticipants: c.MaxParticipants,
		StartDate:       formatTime(c.StartDate),
		EndDate:         formatTime(c.EndDate),
		TargetAudience:  c.TargetAudience,
		RequiredFields:  string(encoded),
		Status:          c.Status,
		CreatedBy:       c.CreatedBy,
		CreatedAt:       formatTime(c.CreatedAt),
		UpdatedAt:       formatTime(c.UpdatedAt),
	}, nil
}

func (row campaignRow) toModel() (persistence.Campaign, error) {
	c := persistence.Campaign{
		ID:              row.ID,
		Title:           row.Title,
		Description:     row.Description,
		MaxParticipants: row.MaxParticipants,
		TargetAudience:  row.TargetAudience,
		Status:          row.Status,
		CreatedBy:       row.CreatedBy,
	}
	if err := json.Unmarshal([]byte(row.RequiredFields), &c.RequiredFields); err != nil {
		return persistence.Campaign{}, fmt.Errorf("failed to decode required_fields: %w", err)
	}

	var err error
	if c.StartDate, err = parseTime("start_date", row.StartDate); err != nil {
		return persistence.Campaign{}, err
	}
	if c.EndDate, err = parseTime("end_date", row.EndDate); err != nil {
		return persistence.Campaign{}, err
	}
	if c.CreatedAt, err = parseTime("created_at", row.CreatedAt); err != nil {
		return persistence.Campaign{}, err
	}
	if c.UpdatedAt, err = parseTime("updated_at", row.UpdatedAt); err != nil {
		return persistence.Campaign{}, err
	}
	return c, nil
}

// CreateCampaign inserts a new campaign.
func (r *CampaignRepository) CreateCampaign(ctx context.Context, campaign persistence.Campaign) error {
	if campaign.ID == "" {
		return persistence.ErrConstraintViolation
	}
	row, err := campaignRowOf(campaign)
	if err != nil {
		return err
	}

	_, err = r.pool.db.NamedExecContext(ctx,
		`INSERT INTO campaigns (`+campaignColumns+`) VALUES (:id, :title, :description, :max_participants, :start_date, :end_date, :target_audience, :required_fields, :status, :created_by, :created_at, :updated_at)`,
		row,
	)
	return r.mapper.MapError(err)
}

// UpdateCampaign replaces the mutable columns of an existing campaign.
func (r *CampaignRepository) UpdateCampaign(ctx context.Context, campaign persistence.Campaign) error {
	row, err := campaignRowOf(campaign)
	if err != nil {
		return err
	}

	result, err := r.pool.db.NamedExecContext(ctx, `
		UPDATE campaigns
		SET title = :title, description = :description, max_participants = :max_participants,
			start_date = :start_date, end_date = :end_date, target_audience = :target_audience,
			required_fields = :required_fields, status = :status, updated_at = :updated_at
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetCampaign retrieves a campaign by ID.
func (r *CampaignRepository) GetCampaign(ctx context.Context, id string) (persistence.Campaign, error) {
	if id == "" {
		return persistence.Campaign{}, persistence.ErrNotFound
	}

	var row campaignRow
	if err := r.pool.db.GetContext(ctx, &row, `SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id); err != nil {
		return persistence.Campaign{}, r.mapper.MapError(err)
	}
	return row.toModel()
}

// ListCampaigns returns every campaign, newest first.
func (r *CampaignRepository) ListCampaigns(ctx context.Context) ([]persistence.Campaign, error) {
	var rows []campaignRow
	if err := r.pool.db.SelectContext(ctx, &rows, `SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, r.mapper.MapError(err)
	}

	campaigns := make([]persistence.Campaign, 0, len(rows))
	for _, row := range rows {
		c, err := row.toModel()
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, nil
}

// DeleteCampaign removes a campaign. Campaigns that already received
// applications cannot be deleted because applications are never removed.
func (r *CampaignRepository) DeleteCampaign(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		var applications int
		if err := tx.GetContext(ctx, &applications, `SELECT COUNT(*) FROM applications WHERE campaign_id = ?`, id); err != nil {
			return r.mapper.MapError(err)
		}
		if applications > 0 {
			return persistence.ErrForeignKeyViolation
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM campaigns WHERE id = ?`, id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

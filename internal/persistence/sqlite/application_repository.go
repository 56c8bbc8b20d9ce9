package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/example/culture-center/internal/persistence"
)

// ApplicationRepository implements persistence.ApplicationRepository using SQLite.
type ApplicationRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewApplicationRepository creates a new SQLite application repository.
func NewApplicationRepository(pool *ConnectionPool) *ApplicationRepository {
	return &ApplicationRepository{pool: pool, mapper: NewErrorMapper()}
}

type applicationRow struct {
	ID         string `db:"id"`
	CampaignID string `db:"campaign_id"`
	UserID     string `db:"user_id"`
	Status     string `db:"status"`
	Fields     string `db:"fields"`
	CreatedAt  string `db:"created_at"`
	UpdatedAt  string `db:"updated_at"`
}

type summaryRow struct {
	applicationRow
	CampaignTitle string `db:"campaign_title"`
	UserName      string `db:"user_name"`
	PhoneNumber   string `db:"phone_number"`
}

func (row applicationRow) toModel() (persistence.Application, error) {
	app := persistence.Application{
		ID:         row.ID,
		CampaignID: row.CampaignID,
		UserID:     row.UserID,
		Status:     row.Status,
	}
	if err := json.Unmarshal([]byte(row.Fields), &app.Fields); err != nil {
		return persistence.Application{}, fmt.Errorf("failed to decode fields: %w", err)
	}

	var err error
	if app.CreatedAt, err = parseTime("created_at", row.CreatedAt); err != nil {
		return persistence.Application{}, err
	}
	if app.UpdatedAt, err = parseTime("updated_at", row.UpdatedAt); err != nil {
		return persistence.Application{}, err
	}
	return app, nil
}

// CreateApplication inserts an application. A second application by the same
// user for the same campaign fails with persistence.ErrDuplicate.
func (r *ApplicationRepository) CreateApplication(ctx context.Context, app persistence.Application) error {
	if app.ID == "" {
		return persistence.ErrConstraintViolation
	}

	fields := app.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}

	_, err = r.pool.db.ExecContext(ctx, `
		INSERT INTO applications (id, campaign_id, user_id, status, fields, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		app.ID,
		app.CampaignID,
		app.UserID,
		app.Status,
		string(encoded),
		formatTime(app.CreatedAt),
		formatTime(app.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateApplicationStatus replaces the review status of an application.
func (r *ApplicationRepository) UpdateApplicationStatus(ctx context.Context, id, status string, updatedAt time.Time) error {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE applications SET status = ?, updated_at = ? WHERE id = ?`,
		status, formatTime(updatedAt), id,
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

// GetApplication retrieves an application by ID.
func (r *ApplicationRepository) GetApplication(ctx context.Context, id string) (persistence.Application, error) {
	if id == "" {
		return persistence.Application{}, persistence.ErrNotFound
	}

	var row applicationRow
	err := r.pool.db.GetContext(ctx, &row,
		`SELECT id, campaign_id, user_id, status, fields, created_at, updated_at FROM applications WHERE id = ?`, id)
	if err != nil {
		return persistence.Application{}, r.mapper.MapError(err)
	}
	return row.toModel()
}

// ListApplications returns applications matching filter, newest first.
func (r *ApplicationRepository) ListApplications(ctx context.Context, filter persistence.ApplicationFilter) ([]persistence.Application, error) {
	where, args := applicationWhere("", filter)

	var rows []applicationRow
	err := r.pool.db.SelectContext(ctx, &rows,
		`SELECT id, campaign_id, user_id, status, fields, created_at, updated_at FROM applications`+where+` ORDER BY created_at DESC, id DESC`,
		args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}

	apps := make([]persistence.Application, 0, len(rows))
	for _, row := range rows {
		app, err := row.toModel()
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, nil
}

// ListApplicationSummaries returns applications joined with the campaign title
// and the applicant's name and phone number, newest first.
func (r *ApplicationRepository) ListApplicationSummaries(ctx context.Context, filter persistence.ApplicationFilter) ([]persistence.ApplicationSummary, error) {
	where, args := applicationWhere("a.", filter)

	var rows []summaryRow
	err := r.pool.db.SelectContext(ctx, &rows, `
		SELECT a.id, a.campaign_id, a.user_id, a.status, a.fields, a.created_at, a.updated_at,
			c.title AS campaign_title, u.name AS user_name, u.phone_number AS phone_number
		FROM applications a
		JOIN campaigns c ON c.id = a.campaign_id
		JOIN users u ON u.id = a.user_id`+where+`
		ORDER BY a.created_at DESC, a.id DESC`,
		args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}

	summaries := make([]persistence.ApplicationSummary, 0, len(rows))
	for _, row := range rows {
		app, err := row.applicationRow.toModel()
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, persistence.ApplicationSummary{
			Application:   app,
			CampaignTitle: row.CampaignTitle,
			UserName:      row.UserName,
			PhoneNumber:   row.PhoneNumber,
		})
	}
	return summaries, nil
}

func applicationWhere(prefix string, filter persistence.ApplicationFilter) (string, []any) {
	var clauses []string
	var args []any
	if filter.CampaignID != "" {
		clauses = append(clauses, prefix+"campaign_id = ?")
		args = append(args, filter.CampaignID)
	}
	if filter.UserID != "" {
		clauses = append(clauses, prefix+"user_id = ?")
		args = append(args, filter.UserID)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

package sqlite

import (
	"context"
	"strings"

	"github.com/example/culture-center/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool, mapper: NewErrorMapper()}
}

type userRow struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	Name         string `db:"name"`
	PhoneNumber  string `db:"phone_number"`
	PasswordHash string `db:"password_hash"`
	IsAdmin      bool   `db:"is_admin"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

func (row userRow) toModel() (persistence.User, error) {
	user := persistence.User{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		PhoneNumber:  row.PhoneNumber,
		PasswordHash: row.PasswordHash,
		IsAdmin:      row.IsAdmin,
	}
	var err error
	if user.CreatedAt, err = parseTime("created_at", row.CreatedAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime("updated_at", row.UpdatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

const userColumns = `id, email, name, phone_number, password_hash, is_admin, created_at, updated_at`

// CreateUser inserts a new account. Emails are unique case-insensitively.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		normalizeEmail(user.Email),
		user.Name,
		user.PhoneNumber,
		user.PasswordHash,
		user.IsAdmin,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by email address.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalized)
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...any) (persistence.User, error) {
	var row userRow
	if err := r.pool.db.GetContext(ctx, &row, query, args...); err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}
	return row.toModel()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

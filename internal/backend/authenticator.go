package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/culture-center/internal/center"
	"github.com/example/culture-center/internal/persistence"
)

// Authenticator verifies credentials against the user repository and issues
// signed session tokens. Accounts created through Register are never admins.
type Authenticator struct {
	users       persistence.UserRepository
	tokens      *TokenIssuer
	idGenerator func() string
	now         func() time.Time
	params      Argon2idParams
	logger      *slog.Logger
}

// AuthenticatorOption configures an Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithArgon2idParams overrides the hashing parameters for new passwords.
func WithArgon2idParams(params Argon2idParams) AuthenticatorOption {
	return func(a *Authenticator) {
		a.params = params
	}
}

// WithAuthLogger sets the base logger.
func WithAuthLogger(logger *slog.Logger) AuthenticatorOption {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

// NewAuthenticator wires an Authenticator over users and tokens.
func NewAuthenticator(users persistence.UserRepository, tokens *TokenIssuer, idGenerator func() string, now func() time.Time, opts ...AuthenticatorOption) *Authenticator {
	if now == nil {
		now = time.Now
	}
	a := &Authenticator{
		users:       users,
		tokens:      tokens,
		idGenerator: idGenerator,
		now:         now,
		params:      DefaultArgon2idParams,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = defaultLogger(a.logger)
	return a
}

// Login returns the account and a fresh token when email and password match.
func (a *Authenticator) Login(ctx context.Context, email, password string) (center.User, string, error) {
	logger := adapterLogger(ctx, a.logger, "Authenticator", "Login", "email", email)

	stored, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return center.User{}, "", ErrInvalidCredentials
		}
		return center.User{}, "", fmt.Errorf("login: %w", err)
	}

	if err := VerifyPassword(stored.PasswordHash, password); err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			logger.WarnContext(ctx, "stored password hash unusable", "user_id", stored.ID, "error", err)
		}
		return center.User{}, "", ErrInvalidCredentials
	}

	return a.session(stored)
}

// Register creates a member account and signs it in.
func (a *Authenticator) Register(ctx context.Context, params center.RegisterParams) (center.User, string, error) {
	stored, err := a.create(ctx, params, false)
	if err != nil {
		return center.User{}, "", err
	}
	adapterLogger(ctx, a.logger, "Authenticator", "Register").InfoContext(ctx, "member registered", "user_id", stored.ID)
	return a.session(stored)
}

// CreateAdmin creates an administrator account. It is reachable only from
// operator tooling, never from the session store.
func (a *Authenticator) CreateAdmin(ctx context.Context, params center.RegisterParams) (center.User, error) {
	stored, err := a.create(ctx, params, true)
	if err != nil {
		return center.User{}, err
	}
	adapterLogger(ctx, a.logger, "Authenticator", "CreateAdmin").InfoContext(ctx, "administrator created", "user_id", stored.ID)
	return userOf(stored), nil
}

// Resolve returns the account a token was issued to.
func (a *Authenticator) Resolve(ctx context.Context, token string) (center.User, *Claims, error) {
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return center.User{}, nil, err
	}
	stored, err := a.users.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return center.User{}, nil, ErrInvalidToken
		}
		return center.User{}, nil, fmt.Errorf("resolve: %w", err)
	}
	return userOf(stored), claims, nil
}

func (a *Authenticator) create(ctx context.Context, params center.RegisterParams, isAdmin bool) (persistence.User, error) {
	vErr := &center.ValidationError{FieldErrors: map[string]string{}}
	if strings.TrimSpace(params.Name) == "" {
		vErr.FieldErrors["name"] = "이름을 입력해주세요."
	}
	if strings.TrimSpace(params.Email) == "" {
		vErr.FieldErrors["email"] = "이메일을 입력해주세요."
	}
	if params.Password == "" {
		vErr.FieldErrors["password"] = "비밀번호를 입력해주세요."
	}
	if vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	hash, err := HashPassword(params.Password, a.params)
	if err != nil {
		return persistence.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := a.now()
	stored := persistence.User{
		ID:           a.idGenerator(),
		Email:        strings.ToLower(strings.TrimSpace(params.Email)),
		Name:         strings.TrimSpace(params.Name),
		PhoneNumber:  strings.TrimSpace(params.PhoneNumber),
		PasswordHash: hash,
		IsAdmin:      isAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.users.CreateUser(ctx, stored); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return persistence.User{}, ErrEmailTaken
		}
		return persistence.User{}, fmt.Errorf("create user: %w", err)
	}
	return stored, nil
}

func (a *Authenticator) session(stored persistence.User) (center.User, string, error) {
	user := userOf(stored)
	token, err := a.tokens.Issue(user)
	if err != nil {
		return center.User{}, "", err
	}
	return user, token, nil
}

func userOf(u persistence.User) center.User {
	role := center.RoleUser
	if u.IsAdmin {
		role = center.RoleAdmin
	}
	return center.User{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		Role:        role,
		CreatedAt:   u.CreatedAt,
	}
}

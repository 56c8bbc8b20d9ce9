package center

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Keys under which the session is persisted.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// Authenticator is the auth backend that issues identities and tokens.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (User, string, error)
	Register(ctx context.Context, params RegisterParams) (User, string, error)
}

// SessionStorage persists small string values across restarts.
type SessionStorage interface {
	Save(ctx context.Context, key, value string) error
	Load(ctx context.Context, key string) (string, bool, error)
	Remove(ctx context.Context, key string) error
}

// BatchSessionStorage is implemented by storages that can save several keys
// atomically. The session store prefers it so the token is never persisted
// without its user.
type BatchSessionStorage interface {
	SessionStorage
	SaveAll(ctx context.Context, values map[string]string) error
}

// SessionReader exposes the current session snapshot to other registries.
type SessionReader interface {
	Snapshot() Session
}

// SessionStore holds the authenticated identity and keeps it persisted.
type SessionStore struct {
	mu      sync.RWMutex
	status  SessionStatus
	user    *User
	token   string
	errMsg  string
	auth    Authenticator
	storage SessionStorage
	logger  *slog.Logger
}

// NewSessionStore constructs a session store in the initializing state.
func NewSessionStore(auth Authenticator, storage SessionStorage) *SessionStore {
	return NewSessionStoreWithLogger(auth, storage, nil)
}

// NewSessionStoreWithLogger constructs a session store with a specified logger.
func NewSessionStoreWithLogger(auth Authenticator, storage SessionStorage, logger *slog.Logger) *SessionStore {
	return &SessionStore{
		status:  SessionInitializing,
		auth:    auth,
		storage: storage,
		logger:  defaultLogger(logger),
	}
}

func (s *SessionStore) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return registryLogger(ctx, s.logger, "SessionStore", operation, attrs...)
}

// Snapshot returns a copy of the current session state.
func (s *SessionStore) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Session{
		User:   cloneUser(s.user),
		Token:  s.token,
		Status: s.status,
		Error:  s.errMsg,
	}
}

// Capabilities derives the navigation capability set from the current session.
func (s *SessionStore) Capabilities() Capabilities {
	return CapabilitiesOf(s.Snapshot())
}

// Restore loads a persisted session. Any failure leaves the store unauthenticated.
func (s *SessionStore) Restore(ctx context.Context) (err error) {
	if s == nil {
		return fmt.Errorf("SessionStore is nil")
	}

	start := time.Now()
	logger := s.loggerWith(ctx, "Restore")
	s.setStatus(SessionRestoring)

	var user User
	var token string
	var found bool
	defer func() {
		if err != nil || !found {
			s.setUnauthenticated("")
		} else {
			s.setAuthenticated(user, token)
		}
		finish(ctx, logger, "SessionStore", "Restore", start, err, "session restored", "restored", found)
	}()

	if s.storage == nil {
		return nil
	}

	token, found, err = s.loadToken(ctx)
	if err != nil || !found {
		return err
	}

	var raw string
	raw, found, err = s.storage.Load(ctx, UserKey)
	if err != nil || !found {
		return err
	}
	if err = json.Unmarshal([]byte(raw), &user); err != nil {
		found = false
		err = fmt.Errorf("decode persisted user: %w", err)
		return err
	}
	if user.ID == "" {
		found = false
	}
	return nil
}

func (s *SessionStore) loadToken(ctx context.Context) (string, bool, error) {
	token, ok, err := s.storage.Load(ctx, TokenKey)
	if err != nil {
		return "", false, err
	}
	token = strings.TrimSpace(token)
	return token, ok && token != "", nil
}

// Login authenticates with email and password and persists the new session.
func (s *SessionStore) Login(ctx context.Context, email, password string) (err error) {
	if s == nil {
		return fmt.Errorf("SessionStore is nil")
	}

	email = strings.TrimSpace(email)
	start := time.Now()
	logger := s.loggerWith(ctx, "Login", "email", email)

	var user User
	defer func() {
		finish(ctx, logger, "SessionStore", "Login", start, err, "login succeeded", "user_id", user.ID)
	}()

	vErr := &ValidationError{}
	if email == "" {
		vErr.add("email", "이메일을 입력해주세요.")
	}
	if password == "" {
		vErr.add("password", "비밀번호를 입력해주세요.")
	}
	if vErr.HasErrors() {
		s.setUnauthenticated(msgLoginFailed)
		err = vErr
		return
	}

	s.setPending()
	user, err = s.authenticate(ctx, func() (User, string, error) {
		if s.auth == nil {
			return User{}, "", fmt.Errorf("authenticator not configured")
		}
		return s.auth.Login(ctx, email, password)
	}, "login", msgLoginFailed, logger)
	return
}

// Register creates a member account and persists the new session.
func (s *SessionStore) Register(ctx context.Context, params RegisterParams) (err error) {
	if s == nil {
		return fmt.Errorf("SessionStore is nil")
	}

	params.Name = strings.TrimSpace(params.Name)
	params.Email = strings.TrimSpace(params.Email)
	params.PhoneNumber = strings.TrimSpace(params.PhoneNumber)

	start := time.Now()
	logger := s.loggerWith(ctx, "Register", "email", params.Email)

	var user User
	defer func() {
		finish(ctx, logger, "SessionStore", "Register", start, err, "registration succeeded", "user_id", user.ID)
	}()

	vErr := &ValidationError{}
	if params.Name == "" {
		vErr.add("name", "이름을 입력해주세요.")
	}
	if params.Email == "" {
		vErr.add("email", "이메일을 입력해주세요.")
	}
	if params.Password == "" {
		vErr.add("password", "비밀번호를 입력해주세요.")
	}
	if params.PhoneNumber == "" {
		vErr.add("phone_number", "전화번호를 입력해주세요.")
	}
	if vErr.HasErrors() {
		s.setUnauthenticated(msgRegisterFailed)
		err = vErr
		return
	}

	s.setPending()
	user, err = s.authenticate(ctx, func() (User, string, error) {
		if s.auth == nil {
			return User{}, "", fmt.Errorf("authenticator not configured")
		}
		u, token, err := s.auth.Register(ctx, params)
		u.Role = RoleUser
		return u, token, err
	}, "register", msgRegisterFailed, logger)
	return
}

// authenticate runs call, persists its result and settles the session state.
func (s *SessionStore) authenticate(ctx context.Context, call func() (User, string, error), category, message string, logger *slog.Logger) (User, error) {
	user, token, err := call()
	if err == nil && (user.ID == "" || token == "") {
		err = fmt.Errorf("auth backend returned an incomplete session")
	}
	if err == nil {
		err = s.persist(ctx, user, token)
	}
	if err != nil {
		logger.WarnContext(ctx, "auth backend call failed", "cause", err)
		s.setUnauthenticated(message)
		return User{}, upstream(category, message)
	}

	s.setAuthenticated(user, token)
	return user, nil
}

func (s *SessionStore) persist(ctx context.Context, user User, token string) error {
	if s.storage == nil {
		return nil
	}
	encoded, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if batch, ok := s.storage.(BatchSessionStorage); ok {
		return batch.SaveAll(ctx, map[string]string{TokenKey: token, UserKey: string(encoded)})
	}
	if err := s.storage.Save(ctx, TokenKey, token); err != nil {
		return err
	}
	if err := s.storage.Save(ctx, UserKey, string(encoded)); err != nil {
		if rmErr := s.storage.Remove(ctx, TokenKey); rmErr != nil {
			return errors.Join(err, rmErr)
		}
		return err
	}
	return nil
}

// Logout clears the persisted and in-memory session. Storage failures are logged
// and do not prevent the in-memory state from being cleared.
func (s *SessionStore) Logout(ctx context.Context) {
	if s == nil {
		return
	}

	start := time.Now()
	logger := s.loggerWith(ctx, "Logout")
	if s.storage != nil {
		for _, key := range []string{TokenKey, UserKey} {
			if err := s.storage.Remove(ctx, key); err != nil {
				logger.WarnContext(ctx, "failed to remove persisted session key", "key", key, "error", err)
			}
		}
	}

	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.status = SessionUnauthenticated
	s.mu.Unlock()

	finish(ctx, logger, "SessionStore", "Logout", start, nil, "logged out")
}

// ClearError resets the error field only.
func (s *SessionStore) ClearError() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
}

func (s *SessionStore) setStatus(status SessionStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *SessionStore) setPending() {
	s.mu.Lock()
	s.status = SessionPending
	s.errMsg = ""
	s.mu.Unlock()
}

func (s *SessionStore) setAuthenticated(user User, token string) {
	s.mu.Lock()
	s.user = &user
	s.token = token
	s.status = SessionAuthenticated
	s.errMsg = ""
	s.mu.Unlock()
}

func (s *SessionStore) setUnauthenticated(message string) {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.status = SessionUnauthenticated
	s.errMsg = message
	s.mu.Unlock()
}

package backend

import (
	"errors"
	"fmt"

	"github.com/example/culture-center/internal/center"
	"github.com/example/culture-center/internal/persistence"
)

var (
	// ErrInvalidCredentials is returned when the email is unknown or the password does not match.
	ErrInvalidCredentials = errors.New("backend: invalid credentials")
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("backend: email already registered")
	// ErrInvalidToken is returned when a session token fails signature or expiry checks.
	ErrInvalidToken = errors.New("backend: invalid token")
	// ErrCampaignHasApplications is returned when deleting a campaign that received applications.
	ErrCampaignHasApplications = errors.New("backend: campaign has applications")
)

// translate maps persistence sentinels onto the errors the center registries
// recognise. Unknown errors are wrapped with the operation name.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return center.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

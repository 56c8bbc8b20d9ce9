package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/culture-center/internal/center"
)

// RegistryFactory assists tests with constructing center registries using
// deterministic identifiers and clocks.
type RegistryFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// RegistryFactoryOption configures a RegistryFactory instance.
type RegistryFactoryOption func(*RegistryFactory)

// NewRegistryFactory constructs a RegistryFactory with defaults.
func NewRegistryFactory(opts ...RegistryFactoryOption) *RegistryFactory {
	factory := &RegistryFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) RegistryFactoryOption {
	return func(factory *RegistryFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) RegistryFactoryOption {
	return func(factory *RegistryFactory) {
		factory.IDGenerator = generator
	}
}

// WithLogger sets the logger handed to every registry.
func WithLogger(logger *slog.Logger) RegistryFactoryOption {
	return func(factory *RegistryFactory) {
		factory.Logger = logger
	}
}

// NewSessionStore builds a session store over the given collaborators.
func (f *RegistryFactory) NewSessionStore(auth center.Authenticator, storage center.SessionStorage) *center.SessionStore {
	return center.NewSessionStoreWithLogger(auth, storage, f.Logger)
}

// NewCampaignRegistry builds a campaign registry backed by source.
func (f *RegistryFactory) NewCampaignRegistry(source center.CampaignSource) *center.CampaignRegistry {
	return center.NewCampaignRegistryWithLogger(source, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewApplicationRegistry builds an application registry that reads the
// current principal from session.
func (f *RegistryFactory) NewApplicationRegistry(session center.SessionReader, source center.ApplicationSource) *center.ApplicationRegistry {
	return center.NewApplicationRegistryWithLogger(session, source, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/hotel-reservations/internal/application"
)

// FastArgon2Params keeps hashing cheap in tests. Never use outside tests.
var FastArgon2Params = application.Argon2idParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// FastHash hashes secret with FastArgon2Params. Hashes verify with
// application.VerifyPassword like production ones.
func FastHash(secret string) (string, error) {
	return application.CreatePasswordHash(secret, FastArgon2Params)
}

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
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
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// ReservationServiceDeps captures dependencies for constructing a reservation service.
type ReservationServiceDeps struct {
	Reservations application.ReservationRepository
	Rooms        application.RoomLookup
	Logger       *slog.Logger
}

// NewReservationService builds a reservation service using the factory clock and IDs.
func (f *ServiceFactory) NewReservationService(deps ReservationServiceDeps) *application.ReservationService {
	return application.NewReservationServiceWithLogger(
		deps.Reservations,
		deps.Rooms,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		deps.Logger,
	)
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Credentials application.CredentialStore
	Sessions    application.SessionRepository
	SessionTTL  time.Duration
	Logger      *slog.Logger
}

// NewAuthService builds an auth service whose tokens and IDs come from the factory generator.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	return application.NewAuthService(application.AuthServiceConfig{
		Credentials:    deps.Credentials,
		Sessions:       deps.Sessions,
		TokenGenerator: f.IDGenerator.NextFunc(),
		IDGenerator:    f.IDGenerator.NextFunc(),
		Now:            f.Clock.NowFunc(),
		SessionTTL:     deps.SessionTTL,
		Logger:         deps.Logger,
	})
}

// CredentialServiceDeps captures dependencies for constructing a credential service.
type CredentialServiceDeps struct {
	Users    application.UserStore
	Sessions application.SessionRevoker
	Logger   *slog.Logger
}

// NewCredentialService builds a credential service that hashes with FastHash.
func (f *ServiceFactory) NewCredentialService(deps CredentialServiceDeps) *application.CredentialService {
	return application.NewCredentialService(application.CredentialServiceConfig{
		Users:       deps.Users,
		Sessions:    deps.Sessions,
		Hash:        FastHash,
		IDGenerator: f.IDGenerator.NextFunc(),
		Now:         f.Clock.NowFunc(),
		Logger:      deps.Logger,
	})
}

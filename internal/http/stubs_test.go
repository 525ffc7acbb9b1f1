package http

import (
	"context"
	"sync"
	"time"

	"github.com/example/hotel-reservations/internal/application"
)

var (
	guestPrincipal = application.Principal{UserID: "user-alice", Username: "alice"}
	adminPrincipal = application.Principal{UserID: "user-admin", Username: "admin", IsAdmin: true}
)

type sessionValidatorStub struct {
	principals map[string]application.Principal
	errs       map[string]error
}

func (s *sessionValidatorStub) ValidateSession(_ context.Context, token string) (application.Principal, error) {
	if err, ok := s.errs[token]; ok {
		return application.Principal{}, err
	}
	if principal, ok := s.principals[token]; ok {
		return principal, nil
	}
	return application.Principal{}, application.ErrUnauthorized
}

type roomCatalogStub struct {
	rooms []application.Room
	err   error
}

func (s *roomCatalogStub) ListRooms(context.Context) ([]application.Room, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]application.Room(nil), s.rooms...), nil
}

type reservationServiceStub struct {
	mu sync.Mutex

	createFn func(application.CreateReservationParams) (application.Reservation, error)
	updateFn func(application.UpdateReservationParams) (application.Reservation, error)
	cancelFn func(application.Principal, string) error
	getFn    func(application.Principal, string) (application.Reservation, error)

	listed    []application.Reservation
	all       []application.Reservation
	listErr   error
	cancelled []string
}

func (s *reservationServiceStub) Create(_ context.Context, params application.CreateReservationParams) (application.Reservation, error) {
	if s.createFn == nil {
		return application.Reservation{}, application.ErrStorageUnavailable
	}
	return s.createFn(params)
}

func (s *reservationServiceStub) Update(_ context.Context, params application.UpdateReservationParams) (application.Reservation, error) {
	if s.updateFn == nil {
		return application.Reservation{}, application.ErrStorageUnavailable
	}
	return s.updateFn(params)
}

func (s *reservationServiceStub) Cancel(_ context.Context, principal application.Principal, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelFn != nil {
		if err := s.cancelFn(principal, id); err != nil {
			return err
		}
	}
	s.cancelled = append(s.cancelled, id)
	return nil
}

func (s *reservationServiceStub) Get(_ context.Context, principal application.Principal, id string) (application.Reservation, error) {
	if s.getFn == nil {
		return application.Reservation{}, application.ErrNotFound
	}
	return s.getFn(principal, id)
}

func (s *reservationServiceStub) ListForUser(context.Context, application.Principal) ([]application.Reservation, error) {
	return s.listed, s.listErr
}

func (s *reservationServiceStub) ListAll(_ context.Context, principal application.Principal) ([]application.Reservation, error) {
	if !principal.IsAdmin {
		return nil, application.ErrUnauthorized
	}
	return s.all, s.listErr
}

type authServiceStub struct {
	result     application.AuthenticateResult
	err        error
	revokeErr  error
	lastParams application.AuthenticateParams
	revoked    []string
}

func (s *authServiceStub) Authenticate(_ context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
	s.lastParams = params
	if s.err != nil {
		return application.AuthenticateResult{}, s.err
	}
	return s.result, nil
}

func (s *authServiceStub) RevokeSession(_ context.Context, token string) error {
	s.revoked = append(s.revoked, token)
	return s.revokeErr
}

type credentialServiceStub struct {
	registerErr error
	registered  []application.SignUpInput
	resetErr    error
	resets      []application.ResetPasswordInput
	questions   map[string]string
}

func (s *credentialServiceStub) Register(_ context.Context, input application.SignUpInput) (application.User, error) {
	if s.registerErr != nil {
		return application.User{}, s.registerErr
	}
	s.registered = append(s.registered, input)
	return application.User{ID: "user-new", Username: input.Username}, nil
}

func (s *credentialServiceStub) ResetPassword(_ context.Context, input application.ResetPasswordInput) error {
	if s.resetErr != nil {
		return s.resetErr
	}
	s.resets = append(s.resets, input)
	return nil
}

func (s *credentialServiceStub) SecurityQuestion(_ context.Context, identifier string) (string, error) {
	if question, ok := s.questions[identifier]; ok {
		return question, nil
	}
	return "", application.ErrNotFound
}

type userDirectoryStub struct {
	users   []application.User
	details map[string]application.UserDetail
}

func (s *userDirectoryStub) ListUsers(_ context.Context, principal application.Principal) ([]application.User, error) {
	if !principal.IsAdmin {
		return nil, application.ErrUnauthorized
	}
	return s.users, nil
}

func (s *userDirectoryStub) GetUser(_ context.Context, principal application.Principal, id string) (application.UserDetail, error) {
	if !principal.IsAdmin {
		return application.UserDetail{}, application.ErrUnauthorized
	}
	detail, ok := s.details[id]
	if !ok {
		return application.UserDetail{}, application.ErrNotFound
	}
	return detail, nil
}

type pingerStub struct {
	err error
}

func (p pingerStub) Ping(context.Context) error { return p.err }

func june(day int) time.Time {
	return time.Date(2030, time.June, day, 0, 0, 0, 0, time.UTC)
}

package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// UserReservations lists the reservations owned by a user.
type UserReservations interface {
	ListReservationsForUser(ctx context.Context, userID string) ([]Reservation, error)
}

// UserService backs the administrator views of user accounts.
type UserService struct {
	users        UserRepository
	reservations UserReservations
	logger       *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, reservations UserReservations, logger *slog.Logger) *UserService {
	return &UserService{users: users, reservations: reservations, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// ListUsers returns all users for administrators, ordered by username.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	if s.users == nil {
		return nil, nil
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		s.loggerWith(ctx, "ListUsers", "principal_id", principal.UserID).
			ErrorContext(ctx, "failed to list users", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	out := make([]User, len(users))
	copy(out, users)

	sort.Slice(out, func(i, j int) bool {
		if strings.EqualFold(out[i].Username, out[j].Username) {
			return out[i].ID < out[j].ID
		}
		return strings.ToLower(out[i].Username) < strings.ToLower(out[j].Username)
	})

	return out, nil
}

// GetUser returns one user together with their reservations for administrators.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (detail UserDetail, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil || s.reservations == nil {
		err = fmt.Errorf("user service not configured")
		return
	}

	logger := s.loggerWith(ctx, "GetUser", "principal_id", principal.UserID, "user_id", userID)
	defer func() {
		if err != nil {
			logger.Log(ctx, levelFor(err), "failed to load user", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		err = ErrNotFound
		return
	}

	detail.User, err = s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrNotFound
		}
		return
	}

	detail.Reservations, err = s.reservations.ListReservationsForUser(ctx, userID)
	if err != nil {
		detail = UserDetail{}
	}
	return
}

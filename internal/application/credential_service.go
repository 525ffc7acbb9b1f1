package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// MinPasswordLength is the shortest password accepted at sign-up and reset.
const MinPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

// UserStore captures the persistence operations needed for registration and recovery.
type UserStore interface {
	CreateUser(ctx context.Context, creds UserCredentials) (User, error)
	GetUserCredentials(ctx context.Context, identifier string) (UserCredentials, error)
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string, updatedAt time.Time) error
}

// SessionRevoker invalidates every session of a user.
type SessionRevoker interface {
	RevokeUserSessions(ctx context.Context, userID string, revokedAt time.Time) error
}

// CredentialService registers users and resets forgotten passwords.
type CredentialService struct {
	users       UserStore
	sessions    SessionRevoker
	hash        Hasher
	verify      PasswordVerifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// CredentialServiceConfig groups the dependencies of a CredentialService.
type CredentialServiceConfig struct {
	Users       UserStore
	Sessions    SessionRevoker
	Hash        Hasher
	Verify      PasswordVerifier
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewCredentialService constructs a CredentialService, filling defaults for optional dependencies.
func NewCredentialService(cfg CredentialServiceConfig) *CredentialService {
	if cfg.Hash == nil {
		cfg.Hash = HashPassword
	}
	if cfg.Verify == nil {
		cfg.Verify = VerifyPassword
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = func() string { return "" }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &CredentialService{
		users:       cfg.Users,
		sessions:    cfg.Sessions,
		hash:        cfg.Hash,
		verify:      cfg.Verify,
		idGenerator: cfg.IDGenerator,
		now:         cfg.Now,
		logger:      defaultLogger(cfg.Logger),
	}
}

func (s *CredentialService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CredentialService", operation, attrs...)
}

// Register validates the sign-up form and stores a new non-admin user.
func (s *CredentialService) Register(ctx context.Context, input SignUpInput) (user User, err error) {
	if s == nil || s.users == nil {
		err = fmt.Errorf("CredentialService not configured")
		return
	}

	input = normalizeSignUpInput(input)
	logger := s.loggerWith(ctx, "Register", "username", input.Username)
	defer func() {
		logOutcome(ctx, logger, err, "user registered", "user_id", user.ID)
	}()

	if vErr := validateSignUpInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	var creds UserCredentials
	creds, err = s.newCredentials(input.Password, input.SecurityQuestion, input.SecurityAnswer)
	if err != nil {
		return
	}
	now := s.now()
	creds.User = User{
		ID:          s.idGenerator(),
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
		Nationality: input.Nationality,
		Username:    input.Username,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	user, err = s.users.CreateUser(ctx, creds)
	return
}

// ResetPassword replaces the password of the user matching identifier when the
// security question and answer match. Every mismatch reports ErrNotFound so
// callers cannot tell which part was wrong. On success all of the user's
// sessions are revoked.
func (s *CredentialService) ResetPassword(ctx context.Context, input ResetPasswordInput) (err error) {
	if s == nil || s.users == nil {
		return fmt.Errorf("CredentialService not configured")
	}

	identifier := strings.TrimSpace(input.Identifier)
	logger := s.loggerWith(ctx, "ResetPassword", "identifier", identifier)
	var userID string
	defer func() {
		logOutcome(ctx, logger, err, "password reset", "user_id", userID)
	}()

	vErr := &ValidationError{}
	if identifier == "" {
		vErr.add("identifier", "username or email is required")
	}
	if strings.TrimSpace(input.SecurityAnswer) == "" {
		vErr.add("security_answer", "security answer is required")
	}
	validateNewPassword(vErr, input.NewPassword, input.PasswordConfirmation, "new_password")
	if vErr.HasErrors() {
		return vErr
	}

	creds, err := s.users.GetUserCredentials(ctx, identifier)
	if err != nil {
		return err
	}
	if strings.TrimSpace(creds.SecurityQuestion) != strings.TrimSpace(input.SecurityQuestion) {
		return ErrNotFound
	}
	if verifyErr := s.verify(creds.SecurityAnswerHash, NormalizeSecurityAnswer(input.SecurityAnswer)); verifyErr != nil {
		return ErrNotFound
	}

	hash, err := s.hash(input.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	userID = creds.User.ID
	if err = s.users.UpdatePasswordHash(ctx, userID, hash, now); err != nil {
		return err
	}
	if s.sessions != nil {
		if err = s.sessions.RevokeUserSessions(ctx, userID, now); err != nil {
			return err
		}
	}
	return nil
}

// SecurityQuestion returns the stored question for identifier so the reset
// form can display it. Unknown identifiers report ErrNotFound.
func (s *CredentialService) SecurityQuestion(ctx context.Context, identifier string) (string, error) {
	if s == nil || s.users == nil {
		return "", fmt.Errorf("CredentialService not configured")
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", ErrNotFound
	}
	creds, err := s.users.GetUserCredentials(ctx, identifier)
	if err != nil {
		return "", err
	}
	return creds.SecurityQuestion, nil
}

// AdminAccount describes the administrator created at start-up.
type AdminAccount struct {
	Username string
	Email    string
	Password string
}

// EnsureAdmin creates the administrator account when no user holds its
// username yet. An existing account is left untouched.
func (s *CredentialService) EnsureAdmin(ctx context.Context, account AdminAccount) (user User, err error) {
	if s == nil || s.users == nil {
		err = fmt.Errorf("CredentialService not configured")
		return
	}

	username := strings.TrimSpace(account.Username)
	logger := s.loggerWith(ctx, "EnsureAdmin", "username", username)

	existing, lookupErr := s.users.GetUserCredentials(ctx, username)
	switch {
	case lookupErr == nil:
		if !existing.User.IsAdmin {
			logger.WarnContext(ctx, "bootstrap admin username belongs to a non-admin user")
		}
		return existing.User, nil
	case !errors.Is(lookupErr, ErrNotFound):
		return User{}, lookupErr
	}

	defer func() {
		logOutcome(ctx, logger, err, "bootstrap admin created", "user_id", user.ID)
	}()

	vErr := &ValidationError{}
	if !usernamePattern.MatchString(username) {
		vErr.add("username", "username must be 3-32 letters, digits, '.', '_' or '-'")
	}
	email := strings.ToLower(strings.TrimSpace(account.Email))
	if _, parseErr := mail.ParseAddress(email); parseErr != nil {
		vErr.add("email", "email is invalid")
	}
	validateNewPassword(vErr, account.Password, account.Password, "password")
	if vErr.HasErrors() {
		err = vErr
		return
	}

	// The recovery answer is random so the admin password can only be
	// changed through configuration.
	var creds UserCredentials
	creds, err = s.newCredentials(account.Password, "Administrator account", s.idGenerator()+s.idGenerator())
	if err != nil {
		return
	}
	now := s.now()
	creds.User = User{
		ID:        s.idGenerator(),
		FirstName: "Site",
		LastName:  "Administrator",
		Email:     email,
		Username:  username,
		IsAdmin:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	user, err = s.users.CreateUser(ctx, creds)
	return
}

func (s *CredentialService) newCredentials(password, question, answer string) (UserCredentials, error) {
	passwordHash, err := s.hash(password)
	if err != nil {
		return UserCredentials{}, fmt.Errorf("hash password: %w", err)
	}
	answerHash, err := s.hash(NormalizeSecurityAnswer(answer))
	if err != nil {
		return UserCredentials{}, fmt.Errorf("hash security answer: %w", err)
	}
	return UserCredentials{
		PasswordHash:       passwordHash,
		SecurityQuestion:   strings.TrimSpace(question),
		SecurityAnswerHash: answerHash,
	}, nil
}

func normalizeSignUpInput(input SignUpInput) SignUpInput {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.PhoneNumber = strings.TrimSpace(input.PhoneNumber)
	input.Nationality = strings.TrimSpace(input.Nationality)
	input.Username = strings.TrimSpace(input.Username)
	input.SecurityQuestion = strings.TrimSpace(input.SecurityQuestion)
	return input
}

func validateSignUpInput(input SignUpInput) *ValidationError {
	vErr := &ValidationError{}

	if input.FirstName == "" {
		vErr.add("first_name", "first name is required")
	}
	if input.LastName == "" {
		vErr.add("last_name", "last name is required")
	}

	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is invalid")
	}

	if input.Username == "" {
		vErr.add("username", "username is required")
	} else if !usernamePattern.MatchString(input.Username) {
		vErr.add("username", "username must be 3-32 letters, digits, '.', '_' or '-'")
	}

	validateNewPassword(vErr, input.Password, input.PasswordConfirmation, "password")

	if input.SecurityQuestion == "" {
		vErr.add("security_question", "security question is required")
	}
	if strings.TrimSpace(input.SecurityAnswer) == "" {
		vErr.add("security_answer", "security answer is required")
	}

	return vErr
}

func validateNewPassword(vErr *ValidationError, password, confirmation, field string) {
	switch {
	case password == "":
		vErr.add(field, "password is required")
	case len(password) < MinPasswordLength:
		vErr.add(field, fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	case password != confirmation:
		vErr.add("password_confirmation", "passwords do not match")
	}
}

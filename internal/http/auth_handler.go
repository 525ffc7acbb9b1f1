package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/hotel-reservations/internal/application"
	"github.com/example/hotel-reservations/internal/observability/metrics"
)

type authService interface {
	Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error)
	RevokeSession(ctx context.Context, token string) error
}

type credentialService interface {
	Register(ctx context.Context, input application.SignUpInput) (application.User, error)
	ResetPassword(ctx context.Context, input application.ResetPasswordInput) error
	SecurityQuestion(ctx context.Context, identifier string) (string, error)
}

// AuthHandler serves sign-up, sign-in, password reset and sign-out.
type AuthHandler struct {
	auth        authService
	credentials credentialService
	renderer    *renderer
	jar         cookieJar
	logger      *slog.Logger
}

func newAuthHandler(auth authService, credentials credentialService, rd *renderer, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:        auth,
		credentials: credentials,
		renderer:    rd,
		jar:         cookieJar{secure: secureCookies},
		logger:      defaultLogger(logger),
	}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

type signInForm struct {
	Identifier string
	Next       string
}

// SignInPage renders the sign-in form.
func (h *AuthHandler) SignInPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.render(w, r, http.StatusOK, "signin", pageData{
		Title: "Sign in",
		Data:  signInForm{Next: safeNext(r.URL.Query().Get("next"))},
	})
}

// SignIn authenticates the submitted credentials and sets the session cookie.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	form := signInForm{
		Identifier: strings.TrimSpace(r.PostFormValue("identifier")),
		Next:       safeNext(r.PostFormValue("next")),
	}
	logger := h.log(r.Context(), "SignIn", "identifier", form.Identifier)

	result, err := h.auth.Authenticate(r.Context(), application.AuthenticateParams{
		Identifier:  form.Identifier,
		Password:    r.PostFormValue("password"),
		Fingerprint: r.UserAgent(),
	})
	if err != nil {
		if errors.Is(err, application.ErrInvalidCredentials) {
			metrics.ObserveSignIn("rejected")
			logger.InfoContext(r.Context(), "sign-in rejected", "error_kind", application.ErrorKind(err))
			h.renderer.render(w, r, http.StatusUnauthorized, "signin", pageData{
				Title:  "Sign in",
				Notice: "Invalid username/email or password.",
				Data:   form,
			})
			return
		}
		metrics.ObserveSignIn("error")
		logger.ErrorContext(r.Context(), "sign-in failed", "error", err, "error_kind", application.ErrorKind(err))
		h.renderer.handleServiceError(w, r, err)
		return
	}

	metrics.ObserveSignIn("accepted")
	h.jar.setSession(w, result.Session.Token, result.Session.ExpiresAt)
	logger.InfoContext(r.Context(), "user signed in", "user_id", result.User.ID, "is_admin", result.User.IsAdmin)

	target := form.Next
	if target == "" {
		target = listingFor(application.Principal{UserID: result.User.ID, IsAdmin: result.User.IsAdmin})
	}
	h.renderer.redirectWithFlash(w, r, target, "Welcome back, "+result.User.FirstName+"!")
}

// SignUpPage renders the registration form.
func (h *AuthHandler) SignUpPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.render(w, r, http.StatusOK, "signup", pageData{Title: "Create an account", Data: application.SignUpInput{}})
}

// SignUp registers a new account and sends the visitor to the sign-in page.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	input := application.SignUpInput{
		FirstName:            r.PostFormValue("first_name"),
		LastName:             r.PostFormValue("last_name"),
		Email:                r.PostFormValue("email"),
		PhoneNumber:          r.PostFormValue("phone_number"),
		Nationality:          r.PostFormValue("nationality"),
		Username:             r.PostFormValue("username"),
		Password:             r.PostFormValue("password"),
		PasswordConfirmation: r.PostFormValue("password_confirmation"),
		SecurityQuestion:     r.PostFormValue("security_question"),
		SecurityAnswer:       r.PostFormValue("security_answer"),
	}
	logger := h.log(r.Context(), "SignUp", "username", strings.TrimSpace(input.Username))

	user, err := h.credentials.Register(r.Context(), input)
	if err != nil {
		input.Password, input.PasswordConfirmation, input.SecurityAnswer = "", "", ""
		if fieldErrors, ok := validationErrors(err); ok {
			h.renderer.render(w, r, http.StatusUnprocessableEntity, "signup", pageData{
				Title:  "Create an account",
				Notice: statusMessage(http.StatusUnprocessableEntity),
				Errors: fieldErrors,
				Data:   input,
			})
			return
		}
		if errors.Is(err, application.ErrAlreadyExists) {
			h.renderer.render(w, r, http.StatusConflict, "signup", pageData{
				Title:  "Create an account",
				Notice: "That username or email address is already registered.",
				Data:   input,
			})
			return
		}
		logger.ErrorContext(r.Context(), "registration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.renderer.handleServiceError(w, r, err)
		return
	}

	logger.InfoContext(r.Context(), "user registered", "user_id", user.ID)
	h.renderer.redirectWithFlash(w, r, "/signin", "Account created. Please sign in.")
}

type resetForm struct {
	Identifier       string
	SecurityQuestion string
}

// ForgotPasswordPage renders the reset form. When an identifier is supplied
// its security question is filled in.
func (h *AuthHandler) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	form := resetForm{Identifier: strings.TrimSpace(r.URL.Query().Get("identifier"))}
	var notice string
	if form.Identifier != "" {
		question, err := h.credentials.SecurityQuestion(r.Context(), form.Identifier)
		switch {
		case err == nil:
			form.SecurityQuestion = question
		case errors.Is(err, application.ErrNotFound):
			notice = "Enter your security question exactly as you registered it."
		default:
			h.renderer.handleServiceError(w, r, err)
			return
		}
	}
	h.renderer.render(w, r, http.StatusOK, "forgot_password", pageData{Title: "Reset your password", Notice: notice, Data: form})
}

// ForgotPassword resets the password when the security answer matches.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	input := application.ResetPasswordInput{
		Identifier:           r.PostFormValue("identifier"),
		SecurityQuestion:     r.PostFormValue("security_question"),
		SecurityAnswer:       r.PostFormValue("security_answer"),
		NewPassword:          r.PostFormValue("new_password"),
		PasswordConfirmation: r.PostFormValue("password_confirmation"),
	}
	form := resetForm{Identifier: strings.TrimSpace(input.Identifier), SecurityQuestion: strings.TrimSpace(input.SecurityQuestion)}
	logger := h.log(r.Context(), "ForgotPassword", "identifier", form.Identifier)

	err := h.credentials.ResetPassword(r.Context(), input)
	if err != nil {
		if fieldErrors, ok := validationErrors(err); ok {
			h.renderer.render(w, r, http.StatusUnprocessableEntity, "forgot_password", pageData{
				Title:  "Reset your password",
				Notice: statusMessage(http.StatusUnprocessableEntity),
				Errors: fieldErrors,
				Data:   form,
			})
			return
		}
		if errors.Is(err, application.ErrNotFound) {
			logger.InfoContext(r.Context(), "password reset rejected")
			h.renderer.render(w, r, http.StatusUnprocessableEntity, "forgot_password", pageData{
				Title:  "Reset your password",
				Notice: "The details you entered do not match our records.",
				Data:   form,
			})
			return
		}
		logger.ErrorContext(r.Context(), "password reset failed", "error", err, "error_kind", application.ErrorKind(err))
		h.renderer.handleServiceError(w, r, err)
		return
	}

	logger.InfoContext(r.Context(), "password reset")
	h.renderer.redirectWithFlash(w, r, "/signin", "Password updated. Please sign in with your new password.")
}

// SignOut revokes the current session. The cookie is cleared even when the
// session is already gone.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if token := sessionTokenFromRequest(r); token != "" {
		if err := h.auth.RevokeSession(r.Context(), token); err != nil && !errors.Is(err, application.ErrInvalidCredentials) {
			h.log(r.Context(), "SignOut").ErrorContext(r.Context(), "failed to revoke session", "error", err, "error_kind", application.ErrorKind(err))
		}
	}
	h.jar.clearSession(w)
	h.renderer.redirectWithFlash(w, r, "/", "You have been signed out.")
}

// safeNext accepts only local absolute paths so sign-in cannot redirect off site.
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}

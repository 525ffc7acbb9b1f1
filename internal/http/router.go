package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
)

// CSRFFieldName is the form field carrying the CSRF token.
const CSRFFieldName = "csrf_token"

// RouterConfig wires the services behind the site.
type RouterConfig struct {
	Rooms        roomCatalog
	Reservations interface {
		reservationService
		reservationLedger
	}
	Auth        authService
	Credentials credentialService
	Users       userDirectory
	Sessions    SessionValidator
	Database    Pinger

	// CSRFKey is the 32 byte key used to sign CSRF tokens. An empty key
	// disables CSRF protection.
	CSRFKey       []byte
	SecureCookies bool
	// MetricsHandler serves GET /metrics when set.
	MetricsHandler http.Handler
	Logger         *slog.Logger
	Middleware     []func(http.Handler) http.Handler
}

// NewRouter builds the site handler.
func NewRouter(cfg RouterConfig) (http.Handler, error) {
	logger := defaultLogger(cfg.Logger)
	rd, err := newRenderer(logger, cfg.SecureCookies)
	if err != nil {
		return nil, err
	}
	if cfg.Rooms == nil || cfg.Reservations == nil || cfg.Auth == nil || cfg.Credentials == nil || cfg.Users == nil {
		return nil, fmt.Errorf("router: missing service dependency")
	}

	pages := newPageHandler(cfg.Rooms, rd, logger)
	reservations := newReservationHandler(cfg.Reservations, cfg.Rooms, rd, logger)
	auth := newAuthHandler(cfg.Auth, cfg.Credentials, rd, cfg.SecureCookies, logger)
	admin := newAdminHandler(cfg.Reservations, cfg.Users, rd, logger)
	health := newHealthHandler(cfg.Database, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(Metrics)
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Get("/health", health.Check)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		if len(cfg.CSRFKey) > 0 {
			if !cfg.SecureCookies {
				r.Use(plaintextRequests)
			}
			r.Use(csrf.Protect(cfg.CSRFKey,
				csrf.Secure(cfg.SecureCookies),
				csrf.Path("/"),
				csrf.SameSite(csrf.SameSiteLaxMode),
				csrf.FieldName(CSRFFieldName),
				csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					handlerLogger(r.Context(), logger, "CSRF", "", "reason", csrf.FailureReason(r)).
						WarnContext(r.Context(), "request rejected by CSRF check")
					rd.renderError(w, r, http.StatusForbidden, "Your form has expired. Please go back, reload the page and try again.")
				})),
			))
		}
		r.Use(LoadSession(cfg.Sessions, logger, cfg.SecureCookies))

		r.NotFound(pages.NotFound)
		r.Get("/", pages.Home)
		r.Get("/rooms", pages.Rooms)

		r.Get("/signup", auth.SignUpPage)
		r.Post("/signup", auth.SignUp)
		r.Get("/signin", auth.SignInPage)
		r.Post("/signin", auth.SignIn)
		r.Get("/forgot_password", auth.ForgotPasswordPage)
		r.Post("/forgot_password", auth.ForgotPassword)
		r.Get("/logout", auth.SignOut)

		r.Group(func(r chi.Router) {
			r.Use(RequireUser)
			r.Get("/reserve", reservations.New)
			r.Post("/reserve", reservations.Create)
			r.Get("/reservations", reservations.List)
			r.Get("/edit_reservation/{id}", reservations.Edit)
			r.Post("/edit_reservation/{id}", reservations.Update)
			r.Get("/cancel_reservation/{id}", reservations.Cancel)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin(cfg.SecureCookies))
			r.Get("/admin", admin.Dashboard)
			r.Get("/admin/user/{id}", admin.User)
		})
	})

	return r, nil
}

// plaintextRequests marks requests as plain HTTP so the CSRF check skips the
// Referer comparison that only applies to TLS.
func plaintextRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}

package http

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/csrf"

	"github.com/example/hotel-reservations/internal/application"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "templates/layout.html"

var templateFuncs = template.FuncMap{
	"price": formatPrice,
	"date":  formatDate,
	"field": func(errs map[string]string, name string) string { return errs[name] },
}

// pageData is the root value handed to every template.
type pageData struct {
	Title     string
	Principal application.Principal
	Flash     string
	Notice    string
	CSRFToken string
	Errors    map[string]string
	Data      any
}

type renderer struct {
	pages  map[string]*template.Template
	jar    cookieJar
	logger *slog.Logger
}

func newRenderer(logger *slog.Logger, secureCookies bool) (*renderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		if name == layoutTemplate {
			continue
		}
		tmpl, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS, layoutTemplate, name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[strings.TrimSuffix(strings.TrimPrefix(name, "templates/"), ".html")] = tmpl
	}

	return &renderer{pages: pages, jar: cookieJar{secure: secureCookies}, logger: defaultLogger(logger)}, nil
}

// render executes page into a buffer so that template failures can still
// produce a clean 500 response.
func (rd *renderer) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	ctx := r.Context()
	tmpl, ok := rd.pages[page]
	if !ok {
		rd.loggerFor(ctx).ErrorContext(ctx, "unknown template", "page", page)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if principal, ok := PrincipalFromContext(ctx); ok {
		data.Principal = principal
	}
	data.CSRFToken = csrf.Token(r)
	if data.Flash == "" {
		data.Flash = rd.jar.popFlash(w, r)
	}
	if data.Errors == nil {
		data.Errors = map[string]string{}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		rd.loggerFor(ctx).ErrorContext(ctx, "failed to render template", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		rd.loggerFor(ctx).WarnContext(ctx, "failed to write response", "page", page, "error", err)
	}
}

func (rd *renderer) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if message == "" {
		message = statusMessage(status)
	}
	rd.render(w, r, status, "error", pageData{
		Title:  http.StatusText(status),
		Notice: message,
		Data:   status,
	})
}

// handleServiceError renders the error page matching err. Validation and
// conflict errors are expected to be handled by the form handlers.
func (rd *renderer) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		rd.renderError(w, r, http.StatusInternalServerError, "")
	case errors.Is(err, application.ErrUnauthorized):
		rd.renderError(w, r, http.StatusForbidden, "")
	case errors.Is(err, application.ErrNotFound):
		rd.renderError(w, r, http.StatusNotFound, "")
	default:
		rd.renderError(w, r, http.StatusInternalServerError, "")
	}
}

func (rd *renderer) redirectWithFlash(w http.ResponseWriter, r *http.Request, target, message string) {
	rd.jar.setFlash(w, message)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (rd *renderer) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return rd.logger
}

func statusMessage(status int) string {
	switch status {
	case http.StatusForbidden:
		return "You do not have permission to perform this action."
	case http.StatusNotFound:
		return "The page you requested could not be found."
	case http.StatusConflict:
		return "The room is not available for the requested dates."
	case http.StatusUnprocessableEntity:
		return "Please correct the highlighted fields."
	default:
		return "Something went wrong on our side. Please try again later."
	}
}

// formatPrice renders an amount in minor units as a decimal string.
func formatPrice(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func validationErrors(err error) (map[string]string, bool) {
	var vErr *application.ValidationError
	if errors.As(err, &vErr) && vErr.HasErrors() {
		return vErr.FieldErrors, true
	}
	return nil, false
}

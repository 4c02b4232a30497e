package handler

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/chatgate/chatgate/internal/server/middleware"
	"github.com/chatgate/chatgate/internal/service"
	"github.com/chatgate/chatgate/internal/session"
)

// Operator is the console's view of operator authentication.
type Operator interface {
	Login(password string) (string, session.Session, error)
	Session(token string) (session.Session, error)
	Logout(token string)
	SessionTTL() int
}

// KeyCounter reports how many keys have been issued.
type KeyCounter interface {
	CountKeys(ctx context.Context) (int64, error)
}

// CookieConfig names and scopes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// ConsoleHandler serves the operator pages: /login, /logout and /dashboard.
type ConsoleHandler struct {
	operator  Operator
	keys      KeyCounter
	catalog   ModelCatalog
	templates *template.Template
	cookie    CookieConfig
	logger    *slog.Logger
}

func NewConsoleHandler(operator Operator, keys KeyCounter, catalog ModelCatalog, templates *template.Template, cookie CookieConfig, logger *slog.Logger) *ConsoleHandler {
	return &ConsoleHandler{
		operator:  operator,
		keys:      keys,
		catalog:   catalog,
		templates: templates,
		cookie:    cookie,
		logger:    logger,
	}
}

type loginPage struct {
	Error string
}

type dashboardPage struct {
	KeyCount    int64
	Models      []string
	ModelsError string
	BaseURL     string
	Expires     string
}

// Root handles GET /.
func (h *ConsoleHandler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// LoginPage handles GET /login. An operator who already holds a session
// goes straight to the dashboard.
func (h *ConsoleHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(h.cookie.Name); err == nil {
		if _, err := h.operator.Session(c.Value); err == nil {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
	}
	h.render(w, http.StatusOK, "login.html", loginPage{})
}

// Login handles POST /login with form field "password".
func (h *ConsoleHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, "login.html", loginPage{Error: "Malformed form submission"})
		return
	}

	token, _, err := h.operator.Login(r.PostFormValue("password"))
	if errors.Is(err, service.ErrInvalidPassword) {
		h.render(w, http.StatusUnauthorized, "login.html", loginPage{Error: "Invalid password"})
		return
	}
	if err != nil {
		h.logger.Error("session creation failed", "error", err)
		h.render(w, http.StatusInternalServerError, "login.html", loginPage{Error: "Could not start a session"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   h.operator.SessionTTL(),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout handles GET /logout.
func (h *ConsoleHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(h.cookie.Name); err == nil {
		h.operator.Logout(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Dashboard handles GET /dashboard. Routes using it must sit behind the
// session gate.
func (h *ConsoleHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	page := dashboardPage{BaseURL: baseURL(r)}
	if sess, ok := middleware.GetSession(r.Context()); ok {
		page.Expires = sess.ExpiresAt.UTC().Format("2006-01-02 15:04 MST")
	}

	n, err := h.keys.CountKeys(r.Context())
	if err != nil {
		h.logger.Error("count keys failed", "error", err)
		page.KeyCount = -1
	} else {
		page.KeyCount = n
	}

	models, err := h.catalog.List(r.Context())
	if err != nil {
		page.ModelsError = err.Error()
	}
	page.Models = models

	h.render(w, http.StatusOK, "dashboard.html", page)
}

func (h *ConsoleHandler) render(w http.ResponseWriter, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("render template failed", "template", name, "error", err)
	}
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

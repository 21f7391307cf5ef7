package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/foodrescue/foodrescued/internal/activity"
	"github.com/foodrescue/foodrescued/internal/backend"
	"github.com/foodrescue/foodrescued/internal/flash"
	"github.com/foodrescue/foodrescued/internal/metrics"
	"github.com/foodrescue/foodrescued/internal/session"
)

// SessionStore is the session persistence the handlers need. Satisfied by
// *session.Store.
type SessionStore interface {
	session.Resolver
	Create(ctx context.Context, user *backend.User) (*session.Session, string, error)
	Delete(ctx context.Context, token string) error
}

// ActivityRecorder accepts user action events. Satisfied by
// *activity.Collector; may be nil.
type ActivityRecorder interface {
	Record(ev activity.Event)
}

// authHandler groups login, signup and logout.
type authHandler struct {
	backend  *backend.Client
	sessions SessionStore
	activity ActivityRecorder
	metrics  *metrics.Metrics
	render   *Renderer
}

func newAuthHandler(client *backend.Client, sessions SessionStore, recorder ActivityRecorder, m *metrics.Metrics, render *Renderer) *authHandler {
	return &authHandler{backend: client, sessions: sessions, activity: recorder, metrics: m, render: render}
}

// ShowLogin handles GET /login.
func (h *authHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render.Render(w, http.StatusOK, "login", baseData(w, r))
}

// Login handles POST /login. Login is an email lookup; the product has no
// passwords.
func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")

	user, err := h.backend.FindUserByEmail(r.Context(), email)
	if err != nil {
		flashError(w, r, "login", err)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.openSession(w, r, user, activity.ActionLogin, "Willkommen zurück, "+user.Name+"!")
}

// ShowSignup handles GET /signup.
func (h *authHandler) ShowSignup(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render.Render(w, http.StatusOK, "signup", baseData(w, r))
}

// Signup handles POST /signup. Providers additionally get a business profile;
// a profile failure does not undo the registration.
func (h *authHandler) Signup(w http.ResponseWriter, r *http.Request) {
	name := r.PostFormValue("name")
	email := r.PostFormValue("email")
	rolle := r.PostFormValue("rolle")

	user, err := h.backend.RegisterUser(r.Context(), name, email, rolle)
	if err != nil {
		flashError(w, r, "signup", err)
		http.Redirect(w, r, "/signup", http.StatusSeeOther)
		return
	}

	if user.Rolle == backend.RoleProvider {
		profile := backend.ProviderProfile{
			UserID:         user.ID,
			Geschaeftsname: strings.TrimSpace(r.PostFormValue("geschaeftsname")),
			Geschaeftstyp:  r.PostFormValue("geschaeftstyp"),
			Adresse:        strings.TrimSpace(r.PostFormValue("adresse")),
		}
		if err := h.backend.CreateProviderProfile(r.Context(), profile); err != nil {
			flashError(w, r, "create_profile", err)
		}
	}

	h.openSession(w, r, user, activity.ActionRegistrierung, "Registrierung erfolgreich. Willkommen, "+user.Name+"!")
}

// openSession creates the session row, sets the cookie and lands the user on
// the dashboard.
func (h *authHandler) openSession(w http.ResponseWriter, r *http.Request, user *backend.User, action, greeting string) {
	_, token, err := h.sessions.Create(r.Context(), user)
	if err != nil {
		flashError(w, r, "create_session", err)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	session.SetCookie(w, token)
	if h.metrics != nil {
		h.metrics.SessionsCreatedTotal.Inc()
	}
	h.record(activity.Event{UserID: user.ID, UserRole: user.Rolle, Action: action, Success: true})

	flash.Success(w, r, greeting)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout handles POST /logout. Deleting the session row clears every cached
// user field at once.
func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := session.TokenFromRequest(r); token != "" {
		if err := h.sessions.Delete(r.Context(), token); err != nil {
			flashError(w, r, "logout", err)
		}
	}

	sess := session.FromContext(r.Context())
	if sess != nil {
		h.record(activity.Event{UserID: sess.UserID, UserRole: sess.UserRole, Action: activity.ActionLogout, Success: true})
	}
	if h.metrics != nil {
		h.metrics.LogoutsTotal.Inc()
	}

	session.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *authHandler) record(ev activity.Event) {
	if h.activity != nil {
		h.activity.Record(ev)
	}
}

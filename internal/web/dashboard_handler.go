package web

import (
	"log/slog"
	"net/http"

	"github.com/foodrescue/foodrescued/internal/backend"
	"github.com/foodrescue/foodrescued/internal/flash"
	"github.com/foodrescue/foodrescued/internal/session"
)

// dashboardHandler renders the role-based overview.
type dashboardHandler struct {
	backend *backend.Client
	render  *Renderer
}

func newDashboardHandler(client *backend.Client, render *Renderer) *dashboardHandler {
	return &dashboardHandler{backend: client, render: render}
}

// Show handles GET /dashboard. The auth gate has already run; the session is
// guaranteed to be present. A failed list fetch degrades to an empty list
// with an error banner instead of breaking the page.
func (h *dashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	data := baseData(w, r)

	switch {
	case sess.IsProvider():
		offers, err := h.backend.ListOwnOffers(r.Context(), sess.UserID)
		if err != nil {
			data.Flash = append(data.Flash, inlineError(r, "list_own_offers", err))
		} else {
			data.Offers = offers
		}
	case sess.IsPicker():
		pickups, err := h.backend.ListPickups(r.Context(), sess.UserID)
		if err != nil {
			data.Flash = append(data.Flash, inlineError(r, "list_pickups", err))
		} else {
			data.Pickups = pickups
		}
	}

	h.render.Render(w, http.StatusOK, "dashboard", data)
}

// inlineError logs a failed fetch and returns its banner for the page being
// rendered right now. Used when the handler renders instead of redirecting,
// where a flash cookie would only show up one page too late.
func inlineError(r *http.Request, action string, err error) flash.Message {
	slog.Error("action failed",
		"action", action,
		"error", err,
		"request_id", RequestIDFromContext(r.Context()),
	)
	return flash.Message{Kind: flash.KindError, Text: errorText(err)}
}

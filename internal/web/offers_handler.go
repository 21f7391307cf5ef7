package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/foodrescue/foodrescued/internal/activity"
	"github.com/foodrescue/foodrescued/internal/backend"
	"github.com/foodrescue/foodrescued/internal/flash"
	"github.com/foodrescue/foodrescued/internal/session"
)

// offersHandler covers offer creation and publishing (provider side) and
// search, detail and reservation (picker side).
type offersHandler struct {
	backend  *backend.Client
	activity ActivityRecorder
	render   *Renderer
}

func newOffersHandler(client *backend.Client, recorder ActivityRecorder, render *Renderer) *offersHandler {
	return &offersHandler{backend: client, activity: recorder, render: render}
}

// NewForm handles GET /angebote/neu.
func (h *offersHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, "offer_new", baseData(w, r))
}

// Create handles POST /angebote. Validation failures never reach the backend;
// success lands back on the dashboard with a fresh, reloaded offer list.
func (h *offersHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	in := backend.CreateOfferInput{
		AnbieterID:   sess.UserID,
		Titel:        r.PostFormValue("titel"),
		Beschreibung: r.PostFormValue("beschreibung"),
		Tags:         splitTags(r.PostFormValue("tags")),
		Zeitfenster: backend.TimeWindow{
			Von: r.PostFormValue("von"),
			Bis: r.PostFormValue("bis"),
		},
	}

	offer, err := h.backend.CreateOffer(r.Context(), in)
	if err != nil {
		flashError(w, r, "create_offer", err)
		http.Redirect(w, r, "/angebote/neu", http.StatusSeeOther)
		return
	}

	h.record(activity.Event{
		UserID:   sess.UserID,
		UserRole: sess.UserRole,
		Action:   activity.ActionAngebotErstellt,
		EntityID: offer.ID,
		Success:  true,
	})
	flash.Success(w, r, "Angebot \""+offer.Titel+"\" wurde erstellt.")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Publish handles POST /angebote/{id}/veroeffentlichen.
func (h *offersHandler) Publish(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	offerID := chi.URLParam(r, "id")

	if err := h.backend.PublishOffer(r.Context(), offerID); err != nil {
		flashError(w, r, "publish_offer", err)
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	h.record(activity.Event{
		UserID:   sess.UserID,
		UserRole: sess.UserRole,
		Action:   activity.ActionAngebotVeroeffentlicht,
		EntityID: offerID,
		Success:  true,
	})
	flash.Success(w, r, "Angebot wurde veröffentlicht.")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// List handles GET /angebote, the picker's search view.
func (h *offersHandler) List(w http.ResponseWriter, r *http.Request) {
	data := baseData(w, r)

	offers, err := h.backend.ListAvailableOffers(r.Context())
	if err != nil {
		data.Flash = append(data.Flash, inlineError(r, "list_available", err))
	} else {
		data.Offers = offers
	}

	h.render.Render(w, http.StatusOK, "offers", data)
}

// Detail handles GET /angebote/{id}. A failed fetch degrades to a static
// error line inside the detail view rather than redirecting away.
func (h *offersHandler) Detail(w http.ResponseWriter, r *http.Request) {
	data := baseData(w, r)
	offerID := chi.URLParam(r, "id")

	offer, err := h.backend.GetOffer(r.Context(), offerID)
	if err != nil {
		inlineError(r, "get_offer", err)
		data.FetchError = "Angebot konnte nicht geladen werden."
	} else {
		data.Offer = offer
	}

	h.render.Render(w, http.StatusOK, "offer_detail", data)
}

// Reserve handles POST /angebote/{id}/reservieren. The redirect back to the
// search view happens only after the reservation resolved, so the reloaded
// list already reflects it.
func (h *offersHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	offerID := chi.URLParam(r, "id")

	if err := h.backend.ReserveOffer(r.Context(), offerID, sess.UserID); err != nil {
		flashError(w, r, "reserve_offer", err)
		http.Redirect(w, r, "/angebote", http.StatusSeeOther)
		return
	}

	h.record(activity.Event{
		UserID:   sess.UserID,
		UserRole: sess.UserRole,
		Action:   activity.ActionAngebotReserviert,
		EntityID: offerID,
		Success:  true,
	})
	flash.Success(w, r, "Angebot reserviert. Dein Abholcode steht in der Übersicht.")
	http.Redirect(w, r, "/angebote", http.StatusSeeOther)
}

func (h *offersHandler) record(ev activity.Event) {
	if h.activity != nil {
		h.activity.Record(ev)
	}
}

// splitTags turns a comma-separated input into a clean tag list.
func splitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

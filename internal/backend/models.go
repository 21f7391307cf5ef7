package backend

// The FoodRescue backend speaks German on the wire. Field names below follow
// its JSON contract; only the Go identifiers are translated.

// Offer lifecycle states as reported by the backend.
const (
	StatusDraft     = "ENTWURF"
	StatusAvailable = "VERFUEGBAR"
	StatusReserved  = "RESERVIERT"
)

// User roles as stored by the backend.
const (
	RoleProvider = "ANBIETER"
	RolePicker   = "ABHOLER"
)

// User is a registered FoodRescue account.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Rolle string `json:"rolle"`
}

// TimeWindow is an offer's pickup window. Values are datetime-local strings
// (e.g. "2024-01-01T10:00") passed through unmodified.
type TimeWindow struct {
	Von string `json:"von"`
	Bis string `json:"bis"`
}

// Offer is a donation listing.
type Offer struct {
	ID           string     `json:"id"`
	AnbieterID   string     `json:"anbieterId"`
	Titel        string     `json:"titel"`
	Beschreibung string     `json:"beschreibung"`
	Tags         []string   `json:"tags"`
	Zeitfenster  TimeWindow `json:"zeitfenster"`
	Status       string     `json:"status"`
}

// CanPublish reports whether the publish transition is still open.
func (o Offer) CanPublish() bool {
	return o.Status == StatusDraft
}

// CreateOfferInput is the payload for creating a draft offer.
type CreateOfferInput struct {
	AnbieterID   string     `json:"anbieterId"`
	Titel        string     `json:"titel"`
	Beschreibung string     `json:"beschreibung"`
	Tags         []string   `json:"tags"`
	Zeitfenster  TimeWindow `json:"zeitfenster"`
}

// Pickup is a picker's planned pickup, derived from a reservation.
type Pickup struct {
	ReservierungID      string `json:"reservierungId"`
	AngebotID           string `json:"angebotId"`
	AngebotTitel        string `json:"angebotTitel"`
	AngebotBeschreibung string `json:"angebotBeschreibung"`
	Status              string `json:"status"`
	Abholcode           string `json:"abholcode"`
	ZeitfensterVon      string `json:"zeitfensterVon"`
	ZeitfensterBis      string `json:"zeitfensterBis"`
}

// ProviderProfile is the business profile attached to a provider account.
type ProviderProfile struct {
	UserID         string   `json:"userId"`
	Geschaeftsname string   `json:"geschaeftsname"`
	Geschaeftstyp  string   `json:"geschaeftstyp"`
	Adresse        string   `json:"adresse"`
	Breitengrad    *float64 `json:"breitengrad"`
	Laengengrad    *float64 `json:"laengengrad"`
}

type createdID struct {
	ID string `json:"id"`
}

type reserveRequest struct {
	AngebotID string `json:"angebotId"`
	AbholerID string `json:"abholerId"`
}

type registerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Rolle string `json:"rolle"`
}

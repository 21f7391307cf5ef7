package activity

import "time"

// Actions recorded by the gateway. Names follow the backend's domain events.
const (
	ActionRegistrierung          = "registrierung"
	ActionLogin                  = "login"
	ActionLogout                 = "logout"
	ActionAngebotErstellt        = "angebot_erstellt"
	ActionAngebotVeroeffentlicht = "angebot_veroeffentlicht"
	ActionAngebotReserviert      = "angebot_reserviert"
)

// Event is one user action seen by the gateway, successful or not.
type Event struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserRole  string    `json:"user_role"`
	Action    string    `json:"action"`
	EntityID  string    `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Detail    string    `json:"detail"`
}

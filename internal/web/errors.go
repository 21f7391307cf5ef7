package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/foodrescue/foodrescued/internal/backend"
	"github.com/foodrescue/foodrescued/internal/flash"
)

const connectivityMessage = "Verbindung zum Server fehlgeschlagen. Bitte versuche es später erneut."

// errorText maps a backend client error to the German message shown to the
// user. Validation and remote errors carry their own message; network errors
// collapse to a generic connectivity line.
func errorText(err error) string {
	var ve *backend.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var re *backend.RemoteError
	if errors.As(err, &re) {
		return re.Message
	}
	var ne *backend.NetworkError
	if errors.As(err, &ne) {
		return connectivityMessage
	}
	return "Ein unerwarteter Fehler ist aufgetreten."
}

// flashError logs a failed action and queues its message as an error banner.
func flashError(w http.ResponseWriter, r *http.Request, action string, err error) {
	slog.Error("action failed",
		"action", action,
		"error", err,
		"request_id", RequestIDFromContext(r.Context()),
	)
	flash.Error(w, r, errorText(err))
}

// Package flash carries one-shot notification banners across redirects using
// a cookie. Each banner is rendered with its own auto-dismiss timer; pushing
// several messages stacks independent banners rather than coalescing them.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
)

// cookieName holds the pending banners until the next HTML response.
const cookieName = "foodrescue_flash"

// DismissAfter is how long a banner stays on screen.
const DismissAfter = 4 * time.Second

// Kind distinguishes banner styling.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Message is a single banner.
type Message struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Success queues a success banner for the next rendered page.
func Success(w http.ResponseWriter, r *http.Request, text string) {
	Push(w, r, KindSuccess, text)
}

// Error queues an error banner for the next rendered page.
func Error(w http.ResponseWriter, r *http.Request, text string) {
	Push(w, r, KindError, text)
}

// Push appends a message to the pending set. Messages already queued on the
// response in this request are kept, so repeated pushes stack.
func Push(w http.ResponseWriter, r *http.Request, kind Kind, text string) {
	pending := peekResponse(w)
	if pending == nil {
		pending = peek(r)
	}
	messages := append(pending, Message{Kind: kind, Text: text})
	data, err := json.Marshal(messages)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop drains all pending messages and clears the cookie.
func Pop(w http.ResponseWriter, r *http.Request) []Message {
	messages := peek(r)
	if len(messages) == 0 {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	return messages
}

// peek decodes the pending messages without clearing them. A malformed
// cookie yields no messages.
func peek(r *http.Request) []Message {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return nil
	}
	return decode(c.Value)
}

// peekResponse reads messages already queued on the outgoing response. The
// last Set-Cookie wins, matching browser behavior.
func peekResponse(w http.ResponseWriter) []Message {
	resp := http.Response{Header: w.Header()}
	var messages []Message
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			messages = decode(c.Value)
		}
	}
	return messages
}

func decode(value string) []Message {
	if value == "" {
		return nil
	}
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil
	}
	return messages
}

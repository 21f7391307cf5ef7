package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// maxErrorBody caps how much of an error response body is read (64 KB).
const maxErrorBody = 64 << 10

// genericRemoteMessage is shown when the backend gives us nothing usable.
const genericRemoteMessage = "Unbekannter Fehler vom Server."

// timeWindowLayouts covers datetime-local values and full RFC 3339 stamps.
var timeWindowLayouts = []string{"2006-01-02T15:04", time.RFC3339}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MetricsRecorder is an optional interface for recording backend call metrics.
type MetricsRecorder interface {
	ObserveBackendDuration(op string, seconds float64)
	IncBackendError(op, kind string)
}

// Client is a typed HTTP client for the FoodRescue REST backend. Every
// operation issues exactly one request; there are no retries.
type Client struct {
	baseURL string
	client  *http.Client
	metrics MetricsRecorder
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// SetMetrics sets the optional metrics recorder.
func (c *Client) SetMetrics(m MetricsRecorder) {
	c.metrics = m
}

// RegisterUser creates a new account. Role must be ANBIETER or ABHOLER.
func (c *Client) RegisterUser(ctx context.Context, name, email, rolle string) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || rolle == "" {
		return nil, &ValidationError{Message: "Bitte fülle alle Pflichtfelder aus."}
	}
	if !emailPattern.MatchString(email) {
		return nil, &ValidationError{Message: "Bitte eine korrekte E-Mail eingeben (Format z.B. name@email.de)"}
	}
	if rolle != RoleProvider && rolle != RolePicker {
		return nil, &ValidationError{Message: "Bitte wähle deine Rolle (Abholen oder Anbieten)."}
	}

	var user User
	err := c.do(ctx, "register_user", http.MethodPost, "/api/users", registerRequest{
		Name:  name,
		Email: email,
		Rolle: rolle,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByEmail looks up an account for login.
func (c *Client) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, &ValidationError{Message: "Bitte E-Mail-Adresse eingeben."}
	}
	if !emailPattern.MatchString(email) {
		return nil, &ValidationError{Message: "Bitte eine korrekte E-Mail eingeben (Format z.B. name@email.de)"}
	}

	var user User
	path := "/api/users/by-email?email=" + url.QueryEscape(email)
	if err := c.do(ctx, "find_user", http.MethodGet, path, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateProviderProfile attaches a business profile to a provider account.
func (c *Client) CreateProviderProfile(ctx context.Context, profile ProviderProfile) error {
	if profile.UserID == "" || strings.TrimSpace(profile.Geschaeftsname) == "" {
		return &ValidationError{Message: "Bitte fülle alle Pflichtfelder aus."}
	}
	if profile.Geschaeftstyp == "" {
		profile.Geschaeftstyp = "SONSTIGES"
	}
	return c.do(ctx, "create_profile", http.MethodPost, "/api/anbieter-profile", profile, nil)
}

// CreateOffer creates a draft offer. All validation happens before any
// network I/O.
func (c *Client) CreateOffer(ctx context.Context, in CreateOfferInput) (*Offer, error) {
	in.Titel = strings.TrimSpace(in.Titel)
	in.Beschreibung = strings.TrimSpace(in.Beschreibung)
	if in.AnbieterID == "" || in.Titel == "" || in.Zeitfenster.Von == "" || in.Zeitfenster.Bis == "" {
		return nil, &ValidationError{Message: "Bitte fülle alle Pflichtfelder aus."}
	}

	von, err := parseWindowTime(in.Zeitfenster.Von)
	if err != nil {
		return nil, &ValidationError{Message: "Ungültiges Zeitfenster."}
	}
	bis, err := parseWindowTime(in.Zeitfenster.Bis)
	if err != nil {
		return nil, &ValidationError{Message: "Ungültiges Zeitfenster."}
	}
	if !von.Before(bis) {
		return nil, &ValidationError{Message: "Ungültiges Zeitfenster: 'Von' muss vor 'Bis' liegen."}
	}

	var created createdID
	if err := c.do(ctx, "create_offer", http.MethodPost, "/api/angebote", in, &created); err != nil {
		return nil, err
	}

	return &Offer{
		ID:           created.ID,
		AnbieterID:   in.AnbieterID,
		Titel:        in.Titel,
		Beschreibung: in.Beschreibung,
		Tags:         in.Tags,
		Zeitfenster:  in.Zeitfenster,
		Status:       StatusDraft,
	}, nil
}

// PublishOffer transitions a draft offer to VERFUEGBAR.
func (c *Client) PublishOffer(ctx context.Context, offerID string) error {
	path := "/api/angebote/" + url.PathEscape(offerID) + "/veroeffentlichen"
	return c.do(ctx, "publish_offer", http.MethodPost, path, nil, nil)
}

// ListOwnOffers returns all offers belonging to a provider.
func (c *Client) ListOwnOffers(ctx context.Context, anbieterID string) ([]Offer, error) {
	var offers []Offer
	path := "/api/angebote/anbieter/" + url.PathEscape(anbieterID)
	if err := c.do(ctx, "list_own_offers", http.MethodGet, path, nil, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

// ListAvailableOffers returns published offers that are still reservable.
func (c *Client) ListAvailableOffers(ctx context.Context) ([]Offer, error) {
	var offers []Offer
	if err := c.do(ctx, "list_available", http.MethodGet, "/api/angebote/verfuegbar", nil, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

// GetOffer fetches a single offer by ID.
func (c *Client) GetOffer(ctx context.Context, offerID string) (*Offer, error) {
	var offer Offer
	path := "/api/angebote/" + url.PathEscape(offerID)
	if err := c.do(ctx, "get_offer", http.MethodGet, path, nil, &offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

// ReserveOffer claims an available offer for a picker. The backend rejects
// offers that are no longer available.
func (c *Client) ReserveOffer(ctx context.Context, angebotID, abholerID string) error {
	if abholerID == "" {
		return &ValidationError{Message: "Nicht eingeloggt (userId fehlt)."}
	}
	return c.do(ctx, "reserve_offer", http.MethodPost, "/api/reservierungen", reserveRequest{
		AngebotID: angebotID,
		AbholerID: abholerID,
	}, nil)
}

// ListPickups returns a picker's planned pickups.
func (c *Client) ListPickups(ctx context.Context, userID string) ([]Pickup, error) {
	var pickups []Pickup
	path := "/api/reservierungen/user/" + url.PathEscape(userID)
	if err := c.do(ctx, "list_pickups", http.MethodGet, path, nil, &pickups); err != nil {
		return nil, err
	}
	return pickups, nil
}

// do executes one request against the backend. A non-2xx response becomes a
// RemoteError, a transport failure a NetworkError.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if c.metrics != nil {
		c.metrics.ObserveBackendDuration(op, time.Since(start).Seconds())
	}
	if err != nil {
		kind := classifyNetworkError(err)
		if c.metrics != nil {
			c.metrics.IncBackendError(op, kind)
		}
		return &NetworkError{Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if c.metrics != nil {
			c.metrics.IncBackendError(op, "remote")
		}
		return &RemoteError{
			Status:  resp.StatusCode,
			Message: extractErrorMessage(resp.Body),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding %s response: %w", op, err)
		}
	}
	return nil
}

// extractErrorMessage pulls the backend's message out of an error response:
// JSON field "message" if present, else the raw body, else a generic fallback.
func extractErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return genericRemoteMessage
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return string(bytes.TrimSpace(data))
}

func parseWindowTime(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeWindowLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

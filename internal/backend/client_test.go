package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// newCountingServer returns a test server that records how many requests it
// received alongside the last request seen.
func newCountingServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int) {
	t.Helper()
	count := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &count
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(srv.URL, 5*time.Second)
}

// ---------------------------------------------------------------------------
// CreateOffer
// ---------------------------------------------------------------------------

func TestCreateOfferValidationBlocksNetworkCall(t *testing.T) {
	srv, count := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the backend")
	})
	c := newTestClient(srv)

	cases := []struct {
		name string
		in   CreateOfferInput
	}{
		{"missing title", CreateOfferInput{
			AnbieterID:  "u1",
			Zeitfenster: TimeWindow{Von: "2024-01-01T10:00", Bis: "2024-01-01T12:00"},
		}},
		{"missing provider", CreateOfferInput{
			Titel:       "Brot",
			Zeitfenster: TimeWindow{Von: "2024-01-01T10:00", Bis: "2024-01-01T12:00"},
		}},
		{"from equals to", CreateOfferInput{
			AnbieterID:  "u1",
			Titel:       "Brot",
			Zeitfenster: TimeWindow{Von: "2024-01-01T10:00", Bis: "2024-01-01T10:00"},
		}},
		{"from after to", CreateOfferInput{
			AnbieterID:  "u1",
			Titel:       "Brot",
			Zeitfenster: TimeWindow{Von: "2024-01-01T12:00", Bis: "2024-01-01T10:00"},
		}},
		{"unparsable window", CreateOfferInput{
			AnbieterID:  "u1",
			Titel:       "Brot",
			Zeitfenster: TimeWindow{Von: "gestern", Bis: "morgen"},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.CreateOffer(context.Background(), tc.in)
			if !IsValidation(err) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}

	if *count != 0 {
		t.Errorf("expected zero backend requests, got %d", *count)
	}
}

func TestCreateOfferSendsExpectedBody(t *testing.T) {
	var gotBody map[string]any
	srv, _ := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/angebote" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &gotBody); err != nil {
			t.Fatalf("invalid request body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"a-1"}`))
	})
	c := newTestClient(srv)

	offer, err := c.CreateOffer(context.Background(), CreateOfferInput{
		AnbieterID:   "u1",
		Titel:        "Brot",
		Beschreibung: "Reste vom Vortag",
		Tags:         []string{"backware", "vegan"},
		Zeitfenster:  TimeWindow{Von: "2024-01-01T10:00", Bis: "2024-01-01T12:00"},
	})
	if err != nil {
		t.Fatalf("CreateOffer failed: %v", err)
	}

	if gotBody["anbieterId"] != "u1" || gotBody["titel"] != "Brot" {
		t.Errorf("unexpected body: %v", gotBody)
	}
	window, _ := gotBody["zeitfenster"].(map[string]any)
	if window["von"] != "2024-01-01T10:00" || window["bis"] != "2024-01-01T12:00" {
		t.Errorf("unexpected window: %v", window)
	}

	if offer.ID != "a-1" {
		t.Errorf("expected created id a-1, got %q", offer.ID)
	}
	if offer.Status != StatusDraft {
		t.Errorf("new offer must start as draft, got %q", offer.Status)
	}
}

// ---------------------------------------------------------------------------
// ReserveOffer
// ---------------------------------------------------------------------------

func TestReserveOfferWithoutUserIDMakesNoCall(t *testing.T) {
	srv, count := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {})
	c := newTestClient(srv)

	err := c.ReserveOffer(context.Background(), "42", "")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Message != "Nicht eingeloggt (userId fehlt)." {
		t.Errorf("unexpected message %q", ve.Message)
	}
	if *count != 0 {
		t.Errorf("expected zero backend requests, got %d", *count)
	}
}

func TestReserveOfferPostsReservation(t *testing.T) {
	srv, _ := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/reservierungen" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body reserveRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.AngebotID != "42" || body.AbholerID != "u7" {
			t.Errorf("unexpected body %+v", body)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"r-1"}`))
	})
	c := newTestClient(srv)

	if err := c.ReserveOffer(context.Background(), "42", "u7"); err != nil {
		t.Fatalf("ReserveOffer failed: %v", err)
	}
}

func TestReserveOfferConflictCarriesBackendMessage(t *testing.T) {
	srv, _ := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"Angebot ist nicht mehr verfügbar"}`))
	})
	c := newTestClient(srv)

	err := c.ReserveOffer(context.Background(), "42", "u7")
	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if re.Status != http.StatusConflict {
		t.Errorf("expected status 409, got %d", re.Status)
	}
	if re.Message != "Angebot ist nicht mehr verfügbar" {
		t.Errorf("expected backend message, got %q", re.Message)
	}
}

// ---------------------------------------------------------------------------
// Error message extraction
// ---------------------------------------------------------------------------

func TestExtractErrorMessage(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"json message", `{"message":"Titel fehlt"}`, "Titel fehlt"},
		{"json without message", `{"code":"oops"}`, `{"code":"oops"}`},
		{"plain text", "kaputt", "kaputt"},
		{"empty body", "", genericRemoteMessage},
		{"whitespace body", "  \n ", genericRemoteMessage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := extractErrorMessage(strings.NewReader(tc.body))
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Network failures
// ---------------------------------------------------------------------------

func TestNetworkErrorOnClosedServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := newTestClient(srv)
	srv.Close()

	_, err := c.ListAvailableOffers(context.Background())
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if ne.Kind != "connection_refused" && ne.Kind != "network" {
		t.Errorf("unexpected classification %q", ne.Kind)
	}
}

func TestNetworkErrorOnCanceledContext(t *testing.T) {
	srv, _ := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	c := newTestClient(srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListAvailableOffers(ctx)
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func TestListOwnOffersDecodes(t *testing.T) {
	srv, _ := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/angebote/anbieter/u1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"a-1","titel":"Brot","status":"ENTWURF","tags":["backware"],
			 "zeitfenster":{"von":"2024-01-01T10:00","bis":"2024-01-01T12:00"}},
			{"id":"a-2","titel":"Suppe","status":"VERFUEGBAR"}
		]`))
	})
	c := newTestClient(srv)

	offers, err := c.ListOwnOffers(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListOwnOffers failed: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(offers))
	}
	if !offers[0].CanPublish() {
		t.Error("draft offer should be publishable")
	}
	if offers[1].CanPublish() {
		t.Error("available offer must not be publishable")
	}
}

func TestGetOfferEscapesID(t *testing.T) {
	srv, _ := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/api/angebote/a%2F1" {
			t.Errorf("unexpected path %s", r.URL.EscapedPath())
		}
		_, _ = w.Write([]byte(`{"id":"a/1","titel":"Brot","status":"VERFUEGBAR"}`))
	})
	c := newTestClient(srv)

	offer, err := c.GetOffer(context.Background(), "a/1")
	if err != nil {
		t.Fatalf("GetOffer failed: %v", err)
	}
	if offer.Titel != "Brot" {
		t.Errorf("unexpected offer %+v", offer)
	}
}

func TestListPickupsDecodes(t *testing.T) {
	srv, _ := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/reservierungen/user/u7" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[
			{"reservierungId":"r-1","angebotId":"a-1","angebotTitel":"Brot",
			 "status":"GEPLANT","abholcode":"XK42QP",
			 "zeitfensterVon":"2024-01-01T10:00","zeitfensterBis":"2024-01-01T12:00"}
		]`))
	})
	c := newTestClient(srv)

	pickups, err := c.ListPickups(context.Background(), "u7")
	if err != nil {
		t.Fatalf("ListPickups failed: %v", err)
	}
	if len(pickups) != 1 || pickups[0].Abholcode != "XK42QP" {
		t.Errorf("unexpected pickups %+v", pickups)
	}
}

// ---------------------------------------------------------------------------
// Registration and login
// ---------------------------------------------------------------------------

func TestRegisterUserValidation(t *testing.T) {
	srv, count := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {})
	c := newTestClient(srv)

	cases := []struct {
		name, user, email, rolle string
	}{
		{"blank name", "", "a@b.de", RolePicker},
		{"blank email", "Anna", "", RolePicker},
		{"bad email", "Anna", "not-an-email", RolePicker},
		{"bad role", "Anna", "a@b.de", "ADMIN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.RegisterUser(context.Background(), tc.user, tc.email, tc.rolle); !IsValidation(err) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
	if *count != 0 {
		t.Errorf("expected zero backend requests, got %d", *count)
	}
}

func TestFindUserByEmail(t *testing.T) {
	srv, _ := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/by-email" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("email"); got != "anna@b.de" {
			t.Errorf("unexpected email param %q", got)
		}
		_, _ = w.Write([]byte(`{"id":"u1","name":"Anna","email":"anna@b.de","rolle":"ABHOLER"}`))
	})
	c := newTestClient(srv)

	user, err := c.FindUserByEmail(context.Background(), "anna@b.de")
	if err != nil {
		t.Fatalf("FindUserByEmail failed: %v", err)
	}
	if user.Rolle != RolePicker {
		t.Errorf("unexpected user %+v", user)
	}
}

package web

import (
	"net/http"
	"strings"
	"testing"

	"github.com/foodrescue/foodrescued/internal/backend"
)

func TestDashboardRequiresLogin(t *testing.T) {
	env := newTestEnv(t, jsonHandler(http.StatusOK, `[]`))
	requireRedirect(t, env.get("/dashboard", ""), "/login")
}

func TestDashboardGreetsUserByName(t *testing.T) {
	env := newTestEnv(t, jsonHandler(http.StatusOK, `[]`))
	token := env.sessions.seed(backend.RolePicker)

	rec := env.get("/dashboard", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Hallo, Mara!") {
		t.Error("expected greeting with the cached user name")
	}
	if !strings.Contains(body, "Abholer") {
		t.Error("expected role display name on the dashboard")
	}
}

func TestDashboardProviderPublishOnlyForDrafts(t *testing.T) {
	offers := `[
		{"id":"o1","anbieterId":"u1","titel":"Brot vom Vortag","beschreibung":"","tags":[],"zeitfenster":{"von":"2024-01-01T10:00","bis":"2024-01-01T12:00"},"status":"ENTWURF"},
		{"id":"o2","anbieterId":"u1","titel":"Suppengemüse","beschreibung":"","tags":[],"zeitfenster":{"von":"2024-01-02T10:00","bis":"2024-01-02T12:00"},"status":"VERFUEGBAR"}
	]`
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/angebote/anbieter/u1" {
			t.Errorf("unexpected backend path %s", r.URL.Path)
		}
		jsonHandler(http.StatusOK, offers)(w, r)
	}))
	token := env.sessions.seed(backend.RoleProvider)

	rec := env.get("/dashboard", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "Brot vom Vortag") || !strings.Contains(body, "Suppengemüse") {
		t.Fatal("expected both offers on the dashboard")
	}
	// Exactly one publish form: the ENTWURF offer, never the published one.
	if got := strings.Count(body, "/veroeffentlichen"); got != 1 {
		t.Errorf("expected exactly 1 publish action, got %d", got)
	}
	if !strings.Contains(body, "/angebote/o1/veroeffentlichen") {
		t.Error("publish action must target the draft offer")
	}
}

func TestDashboardPickerShowsPickups(t *testing.T) {
	pickups := `[
		{"reservierungId":"r1","angebotId":"o1","angebotTitel":"Brot vom Vortag","angebotBeschreibung":"Noch gut","status":"RESERVIERT","abholcode":"XK4P7Q","zeitfensterVon":"2024-01-01T10:00","zeitfensterBis":"2024-01-01T12:00"}
	]`
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/reservierungen/user/u1" {
			t.Errorf("unexpected backend path %s", r.URL.Path)
		}
		jsonHandler(http.StatusOK, pickups)(w, r)
	}))
	token := env.sessions.seed(backend.RolePicker)

	rec := env.get("/dashboard", token)
	body := rec.Body.String()
	if !strings.Contains(body, "Brot vom Vortag") {
		t.Error("expected pickup title on the dashboard")
	}
	if !strings.Contains(body, "XK4P7Q") {
		t.Error("expected Abholcode on the dashboard")
	}
	if strings.Contains(body, "/veroeffentlichen") {
		t.Error("picker dashboard must not render publish actions")
	}
}

func TestDashboardBackendDownDegradesToBanner(t *testing.T) {
	env := newTestEnv(t, jsonHandler(http.StatusOK, `[]`))
	env.server.Close()
	token := env.sessions.seed(backend.RoleProvider)

	rec := env.get("/dashboard", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard must still render, got status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), connectivityMessage) {
		t.Error("expected connectivity banner on the rendered page")
	}
}

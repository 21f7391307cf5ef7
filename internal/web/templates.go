package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/foodrescue/foodrescued/internal/backend"
	"github.com/foodrescue/foodrescued/internal/flash"
	"github.com/foodrescue/foodrescued/internal/session"
)

//go:embed templates
var content embed.FS

var templateFuncs = template.FuncMap{
	"join": strings.Join,
}

// Renderer executes the embedded page templates. If FOODRESCUE_DEV=1 is set,
// templates are re-parsed from disk on each request for live reloading.
type Renderer struct {
	pages map[string]*template.Template
	dev   bool
}

// NewRenderer parses all embedded templates up front so a broken template
// aborts startup instead of failing on first render.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{dev: os.Getenv("FOODRESCUE_DEV") == "1"}

	pages, err := parsePages(content)
	if err != nil {
		return nil, err
	}
	r.pages = pages
	return r, nil
}

func parsePages(fsys fs.FS) (map[string]*template.Template, error) {
	names, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}

	pages := make(map[string]*template.Template)
	for _, file := range names {
		base := path.Base(file)
		if base == "layout.html" {
			continue
		}
		t, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(fsys, "templates/layout.html", file)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", base, err)
		}
		pages[strings.TrimSuffix(base, ".html")] = t
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no page templates found")
	}
	return pages, nil
}

// Render executes a page template into the response. Render errors are logged
// and turned into a plain 500 so a half-written body never goes out.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data *viewData) {
	pages := r.pages
	if r.dev {
		fresh, err := parsePages(os.DirFS("internal/web"))
		if err != nil {
			http.Error(w, "template reload failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		pages = fresh
	}

	t, ok := pages[page]
	if !ok {
		slog.Error("unknown page template", "page", page)
		http.Error(w, "page not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		slog.Error("template execution failed", "page", page, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// viewData is the data passed to every page template. Session and Flash are
// always set; the remaining fields are filled per page.
type viewData struct {
	Session       *session.Session
	Flash         []flash.Message
	DismissMillis int64

	Offers     []backend.Offer
	Pickups    []backend.Pickup
	Offer      *backend.Offer
	FetchError string
}

// baseData pops pending flash messages and pulls the session out of the
// request context.
func baseData(w http.ResponseWriter, r *http.Request) *viewData {
	return &viewData{
		Session:       session.FromContext(r.Context()),
		Flash:         flash.Pop(w, r),
		DismissMillis: flash.DismissAfter.Milliseconds(),
	}
}

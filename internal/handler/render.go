// Package handler contains the HTTP handlers: parse the form, call the
// service, then redirect or render. No business rules live here.
package handler

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/sakif/quotefeed/internal/model"
)

// pages are the templates rendered on top of the base layout. Each page
// file defines the "content" block that base.html pulls in.
var pages = []string{"index", "login", "register", "profile"}

// Renderer holds the parsed templates so they are compiled once at
// startup, not per request. Each page gets its own template set because
// every page defines the same "content" block.
type Renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

// NewRenderer parses base.html plus every page template under
// templateDir.
func NewRenderer(templateDir string, logger *slog.Logger) (*Renderer, error) {
	templates := make(map[string]*template.Template, len(pages))
	base := filepath.Join(templateDir, "base.html")

	for _, page := range pages {
		tmpl, err := template.ParseFiles(base, filepath.Join(templateDir, page+".html"))
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", page, err)
		}
		templates[page] = tmpl
	}

	return &Renderer{templates: templates, logger: logger}, nil
}

// pageData is what every template receives. CurrentUser is nil for
// anonymous visitors; the other fields are page-specific.
type pageData struct {
	Title       string
	CurrentUser *model.User
	Quotes      []model.FeedQuote
	ProfileUser *model.User
	// GitHubLogin tells the login page whether to offer the OAuth link;
	// it is false whenever the provider is not configured.
	GitHubLogin bool
}

// Render executes the named page template. Template failures after the
// first byte can't be recovered, so errors are logged and answered with
// a plain 500 when the header hasn't been sent yet.
func (rd *Renderer) Render(w http.ResponseWriter, page string, data pageData) {
	tmpl, ok := rd.templates[page]
	if !ok {
		rd.logger.Error("unknown template", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		rd.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

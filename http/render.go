package http

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"sync"

	"firetype/chart"
	"firetype/ml"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// renderer holds the parsed page templates. In dev mode they are read from
// dir and can be reloaded while the server runs.
type renderer struct {
	mu   sync.RWMutex
	tmpl *template.Template
	dir  string
}

func newRenderer(dir string) (*renderer, error) {
	r := &renderer{dir: dir}
	if err := r.Reload(""); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-parses every template. The previous set stays active when
// parsing fails.
func (r *renderer) Reload(string) error {
	var source fs.FS = embeddedTemplates
	pattern := "templates/*.html"
	if r.dir != "" {
		source = os.DirFS(r.dir)
		pattern = "*.html"
	}
	tmpl, err := template.New("").ParseFS(source, pattern)
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	r.mu.Lock()
	r.tmpl = tmpl
	r.mu.Unlock()
	return nil
}

func (r *renderer) render(w http.ResponseWriter, status int, name string, data interface{}) error {
	r.mu.RLock()
	tmpl := r.tmpl
	r.mu.RUnlock()

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
	return nil
}

type resultView struct {
	FireType string
	// Confidence is the formatted percentage, empty when unavailable.
	Confidence string
}

type pageData struct {
	Title            string
	Input            ml.FeatureVector
	ConfidenceLevels []string
	Result           *resultView
	Error            string
	Figure           template.JS
	LiveReload       bool
}

func (s *Server) newPage(input ml.FeatureVector) (pageData, error) {
	figure, err := json.Marshal(chart.Scatter3D(input))
	if err != nil {
		return pageData{}, fmt.Errorf("encode chart: %w", err)
	}
	return pageData{
		Title:            "Fire Type Classifier",
		Input:            input,
		ConfidenceLevels: ml.ConfidenceLevelNames(),
		Figure:           template.JS(figure),
		LiveReload:       s.hub != nil,
	}, nil
}

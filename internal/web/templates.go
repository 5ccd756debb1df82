package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"nlsql/internal/logging"
)

//go:embed templates/*.html
var embedded embed.FS

// Page template names.
const (
	IndexTemplate   = "index.html"
	ResultsTemplate = "results.html"
)

var funcs = template.FuncMap{
	"cell": FormatCell,
}

// FormatCell renders one result cell; SQL NULL is shown explicitly.
func FormatCell(v interface{}) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprint(v)
}

// Renderer renders the named page templates. It is safe for concurrent use.
type Renderer struct {
	mu   sync.RWMutex
	tmpl *template.Template
	src  fs.FS
	dir  string
}

// NewRenderer parses the templates from dir, or the embedded set when dir is empty.
func NewRenderer(dir string) (*Renderer, error) {
	var src fs.FS
	if dir == "" {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, err
		}
		src = sub
	} else {
		src = os.DirFS(dir)
	}

	r := &Renderer{src: src, dir: dir}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) reload() error {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(r.src, "*.html")
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	for _, name := range []string{IndexTemplate, ResultsTemplate} {
		if tmpl.Lookup(name) == nil {
			return fmt.Errorf("template %s not found", name)
		}
	}

	r.mu.Lock()
	r.tmpl = tmpl
	r.mu.Unlock()
	return nil
}

// Render executes the named template with data.
func (r *Renderer) Render(w io.Writer, name string, data interface{}) error {
	r.mu.RLock()
	tmpl := r.tmpl
	r.mu.RUnlock()
	return tmpl.ExecuteTemplate(w, name, data)
}

// Watch reparses the templates whenever a file in the template directory
// changes, until ctx is done. A failed reparse keeps the previous templates.
func (r *Renderer) Watch(ctx context.Context) error {
	if r.dir == "" {
		return fmt.Errorf("embedded templates cannot be watched")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(r.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", r.dir, err)
	}
	logging.HTTPDebug("watching templates in %s", r.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != ".html" {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := r.reload(); err != nil {
				logging.HTTPError("template reload failed, keeping previous set: %v", err)
				continue
			}
			logging.HTTPDebug("templates reloaded after %s", event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.HTTPError("template watcher error: %v", err)
		}
	}
}

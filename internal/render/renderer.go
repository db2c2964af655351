// Package render turns embed Specs into HTML using the embedded templates,
// optionally overridden from a directory on disk.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/jmylchreest/supervideo/internal/assets"
	"github.com/jmylchreest/supervideo/internal/embed"
)

// ErrTemplateNotFound is returned when neither the override directory nor
// the embedded set has the requested template.
var ErrTemplateNotFound = errors.New("template not found")

// TemplateRenderer renders a named template with a data map.
type TemplateRenderer interface {
	Render(name string, data map[string]any) (string, error)
}

// Renderer renders templates and caches each parsed template by name.
// It is safe for concurrent use.
type Renderer struct {
	embedded    fs.FS
	overrides   afero.Fs
	overrideDir string
	logger      *slog.Logger

	mu    sync.RWMutex
	cache map[string]*template.Template
}

// NewRenderer creates a Renderer over the embedded templates.
func NewRenderer() (*Renderer, error) {
	embedded, err := assets.GetTemplatesFS()
	if err != nil {
		return nil, fmt.Errorf("opening embedded templates: %w", err)
	}
	return &Renderer{
		embedded: embedded,
		logger:   slog.Default(),
		cache:    make(map[string]*template.Template),
	}, nil
}

// WithOverrides makes templates found in dir on fsys take precedence over
// the embedded ones. An empty dir disables overrides.
func (r *Renderer) WithOverrides(fsys afero.Fs, dir string) *Renderer {
	r.overrides = fsys
	r.overrideDir = dir
	r.Reload()
	return r
}

// WithLogger sets the logger.
func (r *Renderer) WithLogger(logger *slog.Logger) *Renderer {
	r.logger = logger
	return r
}

// Reload drops every cached template so the next Render re-reads sources.
func (r *Renderer) Reload() {
	r.mu.Lock()
	r.cache = make(map[string]*template.Template)
	r.mu.Unlock()
}

// Render executes the named template with data.
func (r *Renderer) Render(name string, data map[string]any) (string, error) {
	tmpl, err := r.lookup(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering template %s: %w", name, err)
	}
	return buf.String(), nil
}

func (r *Renderer) lookup(name string) (*template.Template, error) {
	r.mu.RLock()
	tmpl, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	src, origin, err := r.source(name)
	if err != nil {
		return nil, err
	}

	tmpl, err = template.New(name).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parsing template %s from %s: %w", name, origin, err)
	}

	r.mu.Lock()
	r.cache[name] = tmpl
	r.mu.Unlock()

	r.logger.Debug("template loaded",
		slog.String("template", name),
		slog.String("origin", origin),
	)
	return tmpl, nil
}

func (r *Renderer) source(name string) ([]byte, string, error) {
	if strings.ContainsAny(name, `/\`) || name == "" || name == "." || name == ".." {
		return nil, "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	file := name + assets.TemplateExt

	if r.overrides != nil && r.overrideDir != "" {
		p := path.Join(r.overrideDir, file)
		data, err := afero.ReadFile(r.overrides, p)
		if err == nil {
			return data, p, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("reading template override %s: %w", p, err)
		}
	}

	data, err := fs.ReadFile(r.embedded, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
		}
		return nil, "", fmt.Errorf("reading embedded template %s: %w", name, err)
	}
	return data, "embedded", nil
}

// RenderSpec renders the markup for spec and queues its player call on
// loader. The result is the prelude, the player template and the view map,
// in that order.
func RenderSpec(tr TemplateRenderer, loader ScriptLoader, spec embed.Spec) (string, error) {
	player, err := tr.Render(spec.Template.Name, spec.Template.Data)
	if err != nil {
		return "", err
	}
	mapa, err := tr.Render(spec.Mapa.Name, spec.Mapa.Data)
	if err != nil {
		return "", err
	}

	if loader != nil {
		loader.Call(spec.Script)
	}

	var sb strings.Builder
	sb.WriteString(spec.Prelude)
	sb.WriteString(player)
	sb.WriteString(mapa)
	return sb.String(), nil
}

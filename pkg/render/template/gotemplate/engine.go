package gotemplate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-policyforge/pkg/render/template"
)

// DefaultExtension is appended to template names that have none.
const DefaultExtension = ".tpl"

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	name    string
	dir     string
	files   fs.FS
	ext     string
	globals pongo2.Context
}

// WithName labels the template set; pongo2 uses it in error messages.
func WithName(name string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cfg.name = trimmed
		}
	}
}

// WithBaseDir reads templates from dir before falling back to WithFS.
// Templates found on disk are parsed on every render so edits show up
// without a restart.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.dir = strings.TrimSpace(dir)
	}
}

// WithFS reads templates from files, usually an embed.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.files = files
	}
}

// WithExtension overrides DefaultExtension.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.ext = ext
	}
}

// WithGlobalData exposes values to every template. Later calls win on key
// collisions.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		for key, value := range data {
			if key = strings.TrimSpace(key); key != "" {
				cfg.globals[key] = value
			}
		}
	}
}

// Engine renders pongo2 templates with autoescaping enabled.
type Engine struct {
	set   *pongo2.TemplateSet
	ext   string
	cache bool

	mu     sync.RWMutex
	parsed map[string]*pongo2.Template
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New builds an Engine. WithBaseDir or WithFS is required.
func New(options ...Option) (*Engine, error) {
	cfg := &config{
		name:    "policyforge",
		ext:     DefaultExtension,
		globals: pongo2.Context{},
	}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	var loaders []pongo2.TemplateLoader
	if cfg.dir != "" {
		local, err := pongo2.NewLocalFileSystemLoader(cfg.dir)
		if err != nil {
			return nil, fmt.Errorf("gotemplate: templates dir %q: %w", cfg.dir, err)
		}
		loaders = append(loaders, local)
	}
	if cfg.files != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.files))
	}
	if len(loaders) == 0 {
		return nil, errors.New("gotemplate: a templates dir or fs.FS is required")
	}

	set := pongo2.NewSet(cfg.name, loaders...)
	set.Globals.Update(cfg.globals)

	return &Engine{
		set:    set,
		ext:    cfg.ext,
		cache:  cfg.dir == "",
		parsed: make(map[string]*pongo2.Template),
	}, nil
}

// RenderTemplate executes the named template, appending the configured
// extension when name has none.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.set == nil {
		return "", errors.New("gotemplate: engine is nil")
	}
	if !strings.HasSuffix(name, e.ext) {
		name += e.ext
	}

	tmpl, err := e.lookup(name)
	if err != nil {
		return "", err
	}

	ctx, err := toContext(data)
	if err != nil {
		return "", fmt.Errorf("gotemplate: %s: convert data: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(ctx, &buf); err != nil {
		return "", fmt.Errorf("gotemplate: execute %s: %w", name, err)
	}

	rendered := buf.String()
	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", fmt.Errorf("gotemplate: write %s: %w", name, err)
		}
	}
	return rendered, nil
}

func (e *Engine) lookup(name string) (*pongo2.Template, error) {
	if e.cache {
		e.mu.RLock()
		tmpl, ok := e.parsed[name]
		e.mu.RUnlock()
		if ok {
			return tmpl, nil
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tmpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: load %s: %w", name, err)
	}
	if e.cache {
		e.parsed[name] = tmpl
	}
	return tmpl, nil
}

// toContext passes maps through and round-trips anything else through JSON,
// so struct tags decide the names templates see.
func toContext(data any) (pongo2.Context, error) {
	switch v := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case pongo2.Context:
		return v, nil
	case map[string]any:
		return pongo2.Context(v), nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	// Numbers stay json.Number so integers print without a fraction.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	ctx := pongo2.Context{}
	if err := dec.Decode(&ctx); err != nil {
		return nil, err
	}
	return ctx, nil
}

// internal/view/registry.go
//
// Template registry: ref discovery, parse caching, and rendering.
//
// Refs are logical names of the form "<component>/<template>", resolved
// from disk as components/<component>/templates/<template>.html.  All
// *.html files in one directory parse as a single set so sub-templates
// ({{ template "row" . }}) work out-of-the-box.
//
// Unknown refs are a configuration error: main verifies every ref a
// component declares at boot (MustHave) and dies before serving, so
// request-time rendering never discovers a missing template.
//
// Parsed sets are cached in a small LRU keyed by directory; dev mode skips
// the cache so template edits show up without a restart.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/yanizio/weft/internal/cache"
)

// ErrUnknownTemplate is returned for refs never registered or discovered.
var ErrUnknownTemplate = errors.New("view: unknown template ref")

// Registry resolves refs to parsed template sets and renders them.
type Registry struct {
	mu     sync.RWMutex
	dirs   map[string]string             // ref → directory holding its set
	static map[string]*template.Template // refs added from source strings
	lru    *cache.LRU                    // directory → parsed set
	dev    bool
}

// NewRegistry returns an empty registry.  dev == true disables the parse
// cache.
func NewRegistry(dev bool) *Registry {
	return &Registry{
		dirs:   make(map[string]string),
		static: make(map[string]*template.Template),
		lru:    cache.New(256),
		dev:    dev,
	}
}

// Discover walks base/<comp>/templates/*.html and registers a ref
// "<comp>/<name>" per file.  It errors when the walk finds nothing, which
// almost always means a wrong working directory.
func (reg *Registry) Discover(base string) error {
	files, err := filepath.Glob(filepath.Join(base, "*", "templates", "*.html"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("view: no templates under %s", base)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, f := range files {
		dir := filepath.Dir(f)
		comp := filepath.Base(filepath.Dir(dir))
		name := strings.TrimSuffix(filepath.Base(f), ".html")
		reg.dirs[comp+"/"+name] = dir
	}
	return nil
}

// AddString registers a ref parsed from source.  Used by tests and by dev
// tooling; production refs come from Discover.
func (reg *Registry) AddString(ref, src string) error {
	name := refName(ref)
	t, err := template.New(name).Funcs(funcMap()).Parse(src)
	if err != nil {
		return fmt.Errorf("view: parse %s: %w", ref, err)
	}
	reg.mu.Lock()
	reg.static[ref] = t
	reg.mu.Unlock()
	return nil
}

// Has reports whether ref is renderable.  Boot code calls this (via
// MustHave) for every declared ref so misconfiguration fails fast.
func (reg *Registry) Has(ref string) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	if _, ok := reg.static[ref]; ok {
		return true
	}
	_, ok := reg.dirs[ref]
	return ok
}

// Render executes ref against values and returns the bytes.  Errors from
// the template engine propagate unwrapped in meaning: the caller treats
// any failure as fatal for the request.
func (reg *Registry) Render(ref string, values map[string]any) ([]byte, error) {
	t, err := reg.lookup(ref)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, execName(t, refName(ref)), values); err != nil {
		return nil, fmt.Errorf("view: render %s: %w", ref, err)
	}
	return buf.Bytes(), nil
}

//
// internal: lookup and parse
//

func (reg *Registry) lookup(ref string) (*template.Template, error) {
	reg.mu.RLock()
	if t, ok := reg.static[ref]; ok {
		reg.mu.RUnlock()
		return t, nil
	}
	dir, ok := reg.dirs[ref]
	reg.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, ref)
	}
	return reg.load(dir)
}

// load parses (or fetches from the LRU) the template set for one
// directory.
func (reg *Registry) load(dir string) (*template.Template, error) {
	if !reg.dev {
		if v, ok := reg.lru.Get(dir); ok {
			return v.(*template.Template), nil
		}
	}

	t, err := template.New(filepath.Base(dir)).Funcs(funcMap()).
		ParseGlob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, err
	}

	if !reg.dev {
		reg.lru.Add(dir, t)
	}
	return t, nil
}

// execName picks the concrete template to execute.
//
// Priority:
//  1. "<name>.html" when the file carries no {{ define }} block.
//  2. "<name>" for a root template defined in code.
func execName(t *template.Template, name string) string {
	if tmpl := t.Lookup(name + ".html"); tmpl != nil {
		return name + ".html"
	}
	return name
}

// refName returns the template part of "<component>/<template>".
func refName(ref string) string {
	if i := strings.LastIndexByte(ref, '/'); i != -1 {
		return ref[i+1:]
	}
	return ref
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}

func funcMap() template.FuncMap {
	return template.FuncMap{"dict": dict}
}

//
// package-level default
//

var defaultReg atomic.Pointer[Registry]

// Configure discovers templates under base and installs the result as the
// process-wide registry.
func Configure(base string, dev bool) error {
	reg := NewRegistry(dev)
	if err := reg.Discover(base); err != nil {
		return err
	}
	defaultReg.Store(reg)
	return nil
}

// Default returns the process-wide registry, or nil before Configure.
func Default() *Registry { return defaultReg.Load() }

// SetDefault installs reg directly.  Tests use this with AddString-built
// registries.
func SetDefault(reg *Registry) { defaultReg.Store(reg) }

// Render renders through the default registry.
func Render(ref string, values map[string]any) ([]byte, error) {
	reg := Default()
	if reg == nil {
		return nil, errors.New("view: registry not configured")
	}
	return reg.Render(ref, values)
}

// MustHave panics when any ref is unknown.  Called from main after every
// component registered, before the listener opens.
func MustHave(refs ...string) {
	reg := Default()
	if reg == nil {
		panic("view: registry not configured")
	}
	for _, ref := range refs {
		if !reg.Has(ref) {
			panic("view: missing template ref " + ref)
		}
	}
}

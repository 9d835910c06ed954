// internal/component/registry.go
//
// Component registry (compile-time plug-ins).
//
// Context
// -------
// A Component is a vertical slice of the application: its routes, its
// templates, and nothing else.  Components register themselves in an
// init() function via component.Register, and cmd/web mounts every
// registered router under the component's name at boot.  The registry
// is written once during init and read forever after, so no locking is
// needed beyond the registration mutex.
//
// Usage
// -----
//
//	func init() { component.Register(&Dashboard{}) }
//
// Notes
// -----
// • Template refs returned by Templates() are verified at boot; a typo
//   fails startup rather than a request.
// • Oxford commas, two spaces after periods.
package component

import (
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Component is implemented by every vertical slice.
type Component interface {
	// Name returns the mount name, e.g. "dashboard".  The router mounts
	// at "/<name>" except for the designated root component.
	Name() string

	// Routes returns the chi router holding the component's handlers.
	Routes() chi.Router

	// Templates lists the template refs ("component/name") the
	// component renders, so boot can verify they all exist.
	Templates() []string
}

var (
	mu       sync.Mutex
	registry = map[string]Component{}
)

// Register adds c to the registry.  Duplicate names panic: two
// components claiming one mount point is a programming error.
func Register(c Component) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[c.Name()]; dup {
		panic("component: duplicate registration for " + c.Name())
	}
	registry[c.Name()] = c
}

// All returns the registered components sorted by name, so mount order
// (and therefore route precedence) is deterministic across builds.
func All() []Component {
	mu.Lock()
	defer mu.Unlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

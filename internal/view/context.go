// internal/view/context.go
//
// Per-request render context.
//
// Context
// -------
// Every handler receives a *view.Context from the dispatcher and passes it
// down to the composer.  It bundles:
//
//   - Values   — arbitrary render variables set by handler code.
//   - Shell    — which document wrapper the templates should emit.
//   - Notices  — the request's notification queue.
//   - Info     — parsed UA and geo attributes.
//
// The context lives exactly one request: built by dispatch.Open, mutated by
// the handler, read (never mutated) by the composer, then discarded.  It is
// never persisted and has no cross-request identity.
//
// Notes
// -----
// • The composer treats the context as read-only.
// • Oxford commas, two spaces after periods.
package view

import (
	"net/http"

	"github.com/yanizio/weft/internal/notice"
	"github.com/yanizio/weft/internal/requestinfo"
)

//
// shell selection
//

// Shell selects the outer document wrapper.
type Shell int

const (
	// ShellFull emits the complete HTML document.
	ShellFull Shell = iota
	// ShellEmpty passes fragment markup through with no wrapper.
	ShellEmpty
)

// String returns the template-facing form, "full" or "empty".
func (s Shell) String() string {
	if s == ShellEmpty {
		return "empty"
	}
	return "full"
}

// IsFull reports whether the full document wrapper applies.
func (s Shell) IsFull() bool { return s == ShellFull }

//
// render context
//

// Context is created once per request and passed to handlers, the
// composer, and (as a value map) templates.
type Context struct {
	Request   *http.Request
	SessionID string

	Shell             Shell
	JustAuthenticated bool

	// HistoryURL, when set, instructs the fragment client to replace the
	// browser address bar without navigating.  The composer turns it into
	// a response header.
	HistoryURL string

	Values  map[string]any
	Notices *notice.Queue
	Info    *requestinfo.RequestInfo
}

// NewContext initialises a Context with an empty value bag and a fresh
// notice queue.
func NewContext(r *http.Request) *Context {
	return &Context{
		Request: r,
		Values:  make(map[string]any, 8),
		Notices: notice.New(),
	}
}

// Set stores one render variable.
func (c *Context) Set(key string, val any) { c.Values[key] = val }

// RenderValues returns a fresh map of Values plus the reserved keys every
// template can rely on.  Each call copies, so fragment-specific additions
// (IsOOB, ActiveSection) never leak between fragments.
func (c *Context) RenderValues() map[string]any {
	m := make(map[string]any, len(c.Values)+3)
	for k, v := range c.Values {
		m[k] = v
	}
	m["Shell"] = c.Shell
	m["JustAuthenticated"] = c.JustAuthenticated
	if c.Info != nil {
		m["UA"] = c.Info.UA
	}
	return m
}

// internal/fragment/compose.go
//
// Out-of-band fragment composition.
//
// Context
// -------
// A fragment response is one primary block followed by zero or more
// secondary blocks, each wrapped in a swap marker the fragment client uses
// to splice it into the DOM.  Compose renders everything into a private
// buffer and writes the response only when every fragment succeeded, so a
// render failure never leaks a half-composed body.
//
// Emission order is fixed: primary, explicit secondaries in declaration
// order, the synthesized navigation fragment, then the synthesized notice
// fragment.  Identical inputs therefore compose byte-identical output,
// which the golden tests rely on.
//
// Notes
// -----
// • A fragment-only endpoint reached without the client marker is a wiring
//   bug in the UI layer, never a user error.  It logs loudly and returns
//   500; it must not degrade to a full page.
// • Oxford commas, two spaces after periods.

package fragment

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/weft/internal/metrics"
	"github.com/yanizio/weft/internal/view"
)

//
// protocol constants
//

const (
	// MarkerHeader is the inbound fragment-client marker.
	MarkerHeader = "HX-Request"
	// PushURLHeader carries the browser-history instruction.
	PushURLHeader = "HX-Push-Url"
	// RedirectHeader asks the fragment client to perform a full
	// navigation, used when a fragment request must be redirected.
	RedirectHeader = "HX-Redirect"

	// NoticeTarget and NavTarget are the reserved ids for synthesized
	// secondary fragments.
	NoticeTarget = "weft-notices"
	NavTarget    = "weft-nav"

	// NoticeTemplate and NavTemplate are the refs the synthesized
	// fragments render with.  Both live under components/core/templates.
	NoticeTemplate = "core/notices"
	NavTemplate    = "core/nav"
)

// Strict controls duplicate-target handling: panic in dev, log-and-
// first-wins in production.  main sets this from config.
var Strict bool

// ErrNoFragmentMarker reports a fragment-only endpoint reached without
// the client marker.
var ErrNoFragmentMarker = errors.New("fragment: request lacks fragment marker")

// IsFragment reports whether the transport layer flagged this request as
// coming from the fragment client.
func IsFragment(r *http.Request) bool {
	return r.Header.Get(MarkerHeader) == "true"
}

//
// descriptors and options
//

// Descriptor names one fragment: the DOM id it replaces and the template
// ref that produces its markup.
type Descriptor struct {
	Target   string
	Template string
}

// Options tune one composition.
type Options struct {
	// Secondary fragments emit in declaration order.  Targets must be
	// unique; producing a duplicate is a caller error.
	Secondary []Descriptor

	// ActiveSection, when non-empty, synthesizes a navigation fragment
	// marking that section active.
	ActiveSection string

	// PushURL replaces the browser address bar without navigation.  When
	// empty, the context's HistoryURL applies.
	PushURL string

	// SuppressNotices skips the automatic notice fold for endpoints that
	// render notices themselves.
	SuppressNotices bool
}

//
// composition
//

// Compose renders the primary fragment plus all secondary fragments and
// writes the buffered result.  The request must carry the fragment
// marker; on a render error nothing is written and the caller should
// finish with WriteError.
func Compose(w http.ResponseWriter, r *http.Request, vc *view.Context, primary Descriptor, opt Options) error {
	if !IsFragment(r) {
		metrics.ProtocolViolationsTotal.Inc()
		zap.S().Errorw("fragment endpoint hit without marker",
			"path", r.URL.Path,
			"referer", r.Referer(),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return ErrNoFragmentMarker
	}

	var buf bytes.Buffer

	// 1. Primary block, unwrapped.
	head, err := view.Render(primary.Template, vc.RenderValues())
	if err != nil {
		metrics.ComposeErrorsTotal.Inc()
		return err
	}
	buf.Write(head)

	// 2. Secondary blocks: explicit, then nav, then notices.
	secs := make([]Descriptor, 0, len(opt.Secondary)+2)
	extra := make(map[string]map[string]any, 2)

	secs = append(secs, opt.Secondary...)

	if opt.ActiveSection != "" {
		secs = append(secs, Descriptor{Target: NavTarget, Template: NavTemplate})
		extra[NavTarget] = map[string]any{"ActiveSection": opt.ActiveSection}
	}

	if !opt.SuppressNotices && vc.Notices.Len() > 0 {
		entries := vc.Notices.DrainAll()
		metrics.NoticesDrainedTotal.Add(float64(len(entries)))
		secs = append(secs, Descriptor{Target: NoticeTarget, Template: NoticeTemplate})
		extra[NoticeTarget] = map[string]any{"Notices": entries}
	}

	seen := make(map[string]struct{}, len(secs))
	emitted := 0
	for _, d := range secs {
		if _, dup := seen[d.Target]; dup {
			if Strict {
				panic(fmt.Sprintf("fragment: duplicate secondary target %q", d.Target))
			}
			zap.S().Errorw("duplicate secondary target, keeping first",
				"target", d.Target, "path", r.URL.Path)
			continue
		}
		seen[d.Target] = struct{}{}

		values := vc.RenderValues()
		values["IsOOB"] = true
		for k, v := range extra[d.Target] {
			values[k] = v
		}

		body, err := view.Render(d.Template, values)
		if err != nil {
			metrics.ComposeErrorsTotal.Inc()
			return err
		}
		writeOOB(&buf, d.Target, body)
		emitted++
	}

	// 3. Response-level instructions, then the buffered body in one shot.
	if push := opt.PushURL; push != "" {
		w.Header().Set(PushURLHeader, push)
	} else if vc.HistoryURL != "" {
		w.Header().Set(PushURLHeader, vc.HistoryURL)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}

	metrics.ComposeTotal.Inc()
	metrics.SecondaryFragments.Observe(float64(emitted))
	return nil
}

// Require wraps a fragment-only handler and rejects unmarked requests
// before any handler logic runs.
func Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !IsFragment(r) {
			metrics.ProtocolViolationsTotal.Inc()
			zap.S().Errorw("fragment endpoint hit without marker",
				"path", r.URL.Path,
				"referer", r.Referer(),
			)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		next(w, r)
	}
}

// WriteError sends the best-effort fallback after a failed composition:
// one generic error block at the primary swap position, nothing else.
func WriteError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`<div class="weft-error">Something went wrong.  Please retry.</div>`))
}

// writeOOB wraps one rendered secondary block in its swap marker.
func writeOOB(buf *bytes.Buffer, target string, body []byte) {
	fmt.Fprintf(buf, `<div id=%q hx-swap-oob="innerHTML">`, target)
	buf.Write(body)
	buf.WriteString("</div>")
}

// internal/dispatch/dispatcher.go
//
// Request dispatch: shell selection and render-context construction.
//
// Context
// -------
// Open is the first call in every handler.  It inspects the inbound
// request for the fragment-client marker, picks the document shell (empty
// pass-through for fragment requests, full document otherwise), and seeds
// the render context: session id, one-shot post-login flag, request info,
// and a fresh notice queue.
//
// The just-authenticated flag is at-most-once: Open consumes and clears
// it in the same request, so a retry after a lost response never sees it
// again.
//
// Render is the baseline used directly by full-page endpoints — exactly
// one template executed against the context values plus the shell, no
// fragment composition.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package dispatch

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/weft/internal/fragment"
	"github.com/yanizio/weft/internal/requestinfo"
	"github.com/yanizio/weft/internal/session"
	"github.com/yanizio/weft/internal/view"
)

// Open builds the per-request view context.  Called once at the top of
// every handler; later stages read what earlier stages wrote, in order:
// dispatcher, resolver, handler, composer.
func Open(w http.ResponseWriter, r *http.Request) *view.Context {
	vc := view.NewContext(r)

	if fragment.IsFragment(r) {
		vc.Shell = view.ShellEmpty
	}

	vc.SessionID = session.ID(w, r)
	vc.Info = requestinfo.FromContext(r.Context())

	// One-shot login flag: consume and clear in the same request.
	store := session.Default()
	flag, err := store.Get(r.Context(), vc.SessionID, session.KeyJustAuthenticated)
	if err != nil {
		zap.S().Errorw("session read failed", "key", session.KeyJustAuthenticated, "err", err)
	} else if flag == "1" {
		vc.JustAuthenticated = true
		if err := store.Delete(r.Context(), vc.SessionID, session.KeyJustAuthenticated); err != nil {
			zap.S().Errorw("one-shot flag clear failed", "err", err)
		}
	}

	return vc
}

// Render executes one template against the context values and streams the
// bytes.  Render failures are fatal for the request: the caller gets a
// clean 500, never a partial page.
func Render(w http.ResponseWriter, vc *view.Context, ref string) error {
	out, err := view.Render(ref, vc.RenderValues())
	if err != nil {
		zap.S().Errorw("full render failed", "ref", ref, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = w.Write(out)
	return err
}

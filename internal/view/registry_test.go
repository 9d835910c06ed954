// internal/view/registry_test.go
//
// Unit-tests for the template registry.
//
// Workflow / Structure
// --------------------
// Disk-backed refs use a t.TempDir tree shaped like the real repo
// (components/<comp>/templates/<name>.html); string refs use AddString.
//
// Run: go test ./internal/view -v

package view

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeTemplate lays down base/<comp>/templates/<name>.html.
func writeTemplate(t *testing.T, base, comp, name, src string) {
	t.Helper()
	dir := filepath.Join(base, comp, "templates")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".html"), []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDiscoverAndRender(t *testing.T) {
	base := t.TempDir()
	writeTemplate(t, base, "dashboard", "panel", `<p>hello {{ .Name }}</p>`)

	reg := NewRegistry(false)
	if err := reg.Discover(base); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if !reg.Has("dashboard/panel") {
		t.Fatalf("expected ref dashboard/panel to exist")
	}

	out, err := reg.Render("dashboard/panel", map[string]any{"Name": "weft"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(out) != "<p>hello weft</p>" {
		t.Fatalf("Render = %q", out)
	}
}

func TestUnknownRef(t *testing.T) {
	reg := NewRegistry(false)
	if reg.Has("nope/missing") {
		t.Fatalf("Has reported an unknown ref")
	}
	if _, err := reg.Render("nope/missing", nil); !errors.Is(err, ErrUnknownTemplate) {
		t.Fatalf("Render err = %v, want ErrUnknownTemplate", err)
	}
}

func TestAddStringAndSharedSet(t *testing.T) {
	base := t.TempDir()
	// Two templates in one directory parse as one set, so "panel" can
	// include "row".
	writeTemplate(t, base, "dash", "panel", `<ul>{{ template "row.html" . }}</ul>`)
	writeTemplate(t, base, "dash", "row", `<li>{{ .Name }}</li>`)

	reg := NewRegistry(false)
	if err := reg.Discover(base); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	out, err := reg.Render("dash/panel", map[string]any{"Name": "x"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(out) != "<ul><li>x</li></ul>" {
		t.Fatalf("Render = %q", out)
	}

	if err := reg.AddString("core/inline", `ok {{ .N }}`); err != nil {
		t.Fatalf("AddString: %v", err)
	}
	out, err = reg.Render("core/inline", map[string]any{"N": 1})
	if err != nil {
		t.Fatalf("Render static: %v", err)
	}
	if string(out) != "ok 1" {
		t.Fatalf("Render static = %q", out)
	}
}

func TestShellString(t *testing.T) {
	if ShellFull.String() != "full" || ShellEmpty.String() != "empty" {
		t.Fatalf("Shell.String mismatch: %q / %q", ShellFull, ShellEmpty)
	}
	if !ShellFull.IsFull() || ShellEmpty.IsFull() {
		t.Fatalf("Shell.IsFull mismatch")
	}
}

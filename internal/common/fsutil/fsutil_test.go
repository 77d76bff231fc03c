package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestExpandHome(t *testing.T) {
	// Set a deterministic HOME for the duration of this test so we never skip.
	origHome, hadHome := os.LookupEnv("HOME")
	origUserProfile, hadUserProfile := os.LookupEnv("USERPROFILE")
	t.Cleanup(func() {
		if hadHome {
			_ = os.Setenv("HOME", origHome)
		} else {
			_ = os.Unsetenv("HOME")
		}
		if hadUserProfile {
			_ = os.Setenv("USERPROFILE", origUserProfile)
		} else {
			_ = os.Unsetenv("USERPROFILE")
		}
	})

	home := t.TempDir()
	// Configure both env vars for cross-platform behavior of os.UserHomeDir.
	_ = os.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		_ = os.Setenv("USERPROFILE", home)
	}
	// raw path unaffected
	if got, err := ExpandHome("/tmp"); err != nil || got != "/tmp" {
		t.Fatalf("got %q err=%v", got, err)
	}
	// empty path
	if got, err := ExpandHome(""); err != nil || got != "" {
		t.Fatalf("got %q err=%v", got, err)
	}
	// ~ expansion
	p, err := ExpandHome("~")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p != home {
		t.Fatalf("expected %q, got %q", home, p)
	}
	// ~/subdir
	sub := "test-sub"
	exp, err := ExpandHome("~/" + sub)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if runtime.GOOS == "windows" {
		if filepath.Base(exp) != sub {
			t.Fatalf("unexpected expanded path: %q", exp)
		}
	} else {
		expected := filepath.Join(home, sub)
		if exp != expected {
			t.Fatalf("expected %q, got %q", expected, exp)
		}
	}
}

func TestIsSegment(t *testing.T) {
	cases := map[string]bool{
		"Acme":        true,
		"gadget-v2":   true,
		"model.v1":    true,
		"":            false,
		".":           false,
		"..":          false,
		"a/b":         false,
		`a\b`:         false,
		"../etc":      false,
		"nul\x00byte": false,
	}
	for in, want := range cases {
		if got := IsSegment(in); got != want {
			t.Fatalf("IsSegment(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "card.json")
	if err := WriteFileAtomic(p, []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteFileAtomic(p, []byte(`{"a":2}`), 0o644); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != `{"a":2}` {
		t.Fatalf("unexpected content %q", b)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}

func TestAbsPathAndExists(t *testing.T) {
	dir := t.TempDir()
	abs, err := AbsPath(dir)
	if err != nil || !filepath.IsAbs(abs) {
		t.Fatalf("abs=%q err=%v", abs, err)
	}
	if !PathExists(abs) {
		t.Fatalf("expected %q to exist", abs)
	}
	if PathExists(filepath.Join(abs, "missing")) {
		t.Fatalf("missing path reported as existing")
	}
}

func TestFindArtifact(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "Acme"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, p := range []string{filepath.Join(dir, "Acme", "nested.pt2"), filepath.Join(dir, "flat.pt2"), filepath.Join(dir, "Acme", "both.pt2"), filepath.Join(dir, "both.pt2")} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	cases := []struct {
		dir, org, name string
		want           string
	}{
		{dir, "Acme", "nested.pt2", filepath.Join(dir, "Acme", "nested.pt2")},
		{dir, "Acme", "flat.pt2", filepath.Join(dir, "flat.pt2")},
		{dir, "Acme", "both.pt2", filepath.Join(dir, "Acme", "both.pt2")},
		{dir, "../x", "flat.pt2", filepath.Join(dir, "flat.pt2")},
		{dir, "Acme", "missing.pt2", ""},
		{dir, "Acme", "../flat.pt2", ""},
		{dir, "", "Acme", ""},
		{"", "Acme", "nested.pt2", ""},
	}
	for _, c := range cases {
		got, ok := FindArtifact(c.dir, c.org, c.name)
		if got != c.want || ok != (c.want != "") {
			t.Fatalf("FindArtifact(%q, %q, %q) = %q, %v; want %q", c.dir, c.org, c.name, got, ok, c.want)
		}
	}
}

package e2e

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"exporthub/internal/httpapi"
	"exporthub/internal/publish"
	"exporthub/internal/registry"
	"exporthub/internal/storage"
)

// writeArtifact creates a fake exported program and returns its path.
func writeArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write artifact %s: %v", p, err)
	}
	return p
}

func publishAll(t *testing.T, configs string, st storage.Storage, reqs ...publish.Request) {
	t.Helper()
	p := &publish.Publisher{
		ConfigsDir: configs,
		Storage:    st,
		Logger:     zerolog.Nop(),
		Now:        func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}
	if _, err := p.PublishAll(context.Background(), reqs); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func newServerForDir(t *testing.T, configs string, opts ...registry.Option) (*httptest.Server, *registry.Registry) {
	t.Helper()
	reg, err := registry.New(configs, opts...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(reg))
	t.Cleanup(srv.Close)
	return srv, reg
}

// noRedirect returns a client that reports redirects instead of following them.
func noRedirect() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
}

func get(t *testing.T, c *http.Client, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

//go:build !swagger

package httpapi

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMountSwagger_NoOp(t *testing.T) {
	r := chi.NewRouter()
	// Should be a no-op and not panic
	MountSwagger(r)

	if w := do(t, NewMux(newCatalogService()), http.MethodGet, "/swagger/index.html"); w.Code != http.StatusNotFound {
		t.Fatalf("swagger should not be mounted without the build tag, status=%d", w.Code)
	}
}

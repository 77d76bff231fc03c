package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"exporthub/internal/registry"
	"exporthub/pkg/types"
)

type mockService struct {
	orgs    []string
	grouped map[string][]types.ModelCard
	cards   map[string]types.ModelCard // "<folder>/<filename id>"
	report  types.ScanReport
	ready   bool
	err     error
}

func (m *mockService) Organizations() []string { return append([]string{}, m.orgs...) }
func (m *mockService) ModelsByOrganization(org string) []types.ModelCard {
	return append([]types.ModelCard{}, m.grouped[org]...)
}
func (m *mockService) AllModelsByOrganization() map[string][]types.ModelCard { return m.grouped }
func (m *mockService) TopModels(org string, limit int) []types.ModelCard {
	all := m.ModelsByOrganization(org)
	return all[:min(max(limit, 0), len(all))]
}
func (m *mockService) Model(org, id string) (types.ModelCard, error) {
	if m.err != nil {
		return types.ModelCard{}, m.err
	}
	c, ok := m.cards[org+"/"+id]
	if !ok {
		return types.ModelCard{}, registry.ErrModelNotFound(org, id)
	}
	return c, nil
}
func (m *mockService) Report() types.ScanReport { return m.report }
func (m *mockService) Ready() bool              { return m.ready }

type mockHTTPError struct {
	msg  string
	code int
}

func (e mockHTTPError) Error() string   { return e.msg }
func (e mockHTTPError) StatusCode() int { return e.code }

func card(org, id string, fields map[string]any) types.ModelCard {
	return types.ModelCard{Organization: org, ModelID: id, FilenameID: id, ConfigPath: "/configs/" + org + "/" + id + ".json", Fields: fields}
}

// newCatalogService models the cross-folder claim scenario: Globex/gadget.json
// claims organization Acme.
func newCatalogService() *mockService {
	widget := card("Acme", "widget", map[string]any{"model_name": "Acme/widget", "sha256": "abc123", "input_sizes": []any{[]any{1.0, 3.0}}})
	gadget := card("Acme", "gadget-v2", map[string]any{"description": "y"})
	gadget.FilenameID = "gadget"
	gadget.ConfigPath = "/configs/Globex/gadget.json"
	return &mockService{
		orgs:    []string{"Acme", "Globex"},
		grouped: map[string][]types.ModelCard{"Acme": {widget, gadget}},
		cards:   map[string]types.ModelCard{"Acme/widget": widget, "Globex/gadget": gadget},
		report:  types.ScanReport{ID: "scan-1", Folders: 2, Cards: 2, Skipped: []types.SkippedFile{}},
		ready:   true,
	}
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestAPIOrganizations(t *testing.T) {
	w := do(t, NewMux(newCatalogService()), http.MethodGet, "/api/organizations")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	var body types.OrganizationsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Organizations) != 2 || body.Organizations[0] != "Acme" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestAPIOrganizationModels(t *testing.T) {
	h := NewMux(newCatalogService())
	w := do(t, h, http.MethodGet, "/api/organizations/Acme/models")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.OrganizationModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Organization != "Acme" || len(body.Models) != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Models[1].ModelID != "gadget-v2" || body.Models[1].FilenameID != "gadget" || body.Models[1].Fields["description"] != "y" {
		t.Fatalf("claimed card not flattened correctly: %+v", body.Models[1])
	}

	w = do(t, h, http.MethodGet, "/api/organizations/Acme/models?limit=1")
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if w.Code != http.StatusOK || len(body.Models) != 1 || body.Models[0].ModelID != "widget" {
		t.Fatalf("limit not applied: %d %+v", w.Code, body)
	}

	for _, bad := range []string{"0", "-1", "abc"} {
		if w := do(t, h, http.MethodGet, "/api/organizations/Acme/models?limit="+bad); w.Code != http.StatusBadRequest {
			t.Fatalf("limit=%s: status=%d", bad, w.Code)
		}
	}
}

func TestAPIOrganizationModels_NotFound(t *testing.T) {
	w := do(t, NewMux(newCatalogService()), http.MethodGet, "/api/organizations/Globex/models")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Code != http.StatusNotFound || body.Error != "Organization 'Globex' not found or has no models" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestAPICatalog(t *testing.T) {
	w := do(t, NewMux(newCatalogService()), http.MethodGet, "/api/catalog")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.CatalogResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Organizations["Acme"]) != 2 || len(body.Organizations["Globex"]) != 0 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestAPIModel(t *testing.T) {
	h := NewMux(newCatalogService())
	w := do(t, h, http.MethodGet, "/api/models/Globex/gadget")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var raw map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("json: %v", err)
	}
	if raw["organization"] != "Acme" || raw["model_id"] != "gadget-v2" || raw["filename_id"] != "gadget" || raw["description"] != "y" {
		t.Fatalf("unexpected card: %v", raw)
	}

	w = do(t, h, http.MethodGet, "/api/models/Acme/gadget-v2")
	if w.Code != http.StatusNotFound {
		t.Fatalf("logical id must not be addressable, status=%d", w.Code)
	}
	var e types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("json: %v", err)
	}
	if e.Error != "Model card 'gadget-v2' in organization 'Acme' not found" {
		t.Fatalf("unexpected error: %+v", e)
	}
}

func TestAPIModel_ErrorMapping(t *testing.T) {
	svc := newCatalogService()
	svc.err = mockHTTPError{msg: "slow down", code: http.StatusTooManyRequests}
	if w := do(t, NewMux(svc), http.MethodGet, "/api/models/Acme/widget"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d", w.Code)
	}
	svc.err = fmt.Errorf("disk on fire")
	if w := do(t, NewMux(svc), http.MethodGet, "/api/models/Acme/widget"); w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", registry.ErrModelNotFound("Acme", "nope"), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", registry.ErrModelNotFound("Acme", "nope")), http.StatusNotFound},
		{"custom status", mockHTTPError{msg: "slow down", code: http.StatusTooManyRequests}, http.StatusTooManyRequests},
		{"plain", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := statusFor(tc.err); got != tc.want {
				t.Fatalf("statusFor(%v)=%d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestAPIScan(t *testing.T) {
	w := do(t, NewMux(newCatalogService()), http.MethodGet, "/api/scan")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var rep types.ScanReport
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatalf("json: %v", err)
	}
	if rep.ID != "scan-1" || rep.Cards != 2 {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestHealthAndReady(t *testing.T) {
	svc := newCatalogService()
	h := NewMux(svc)
	if w := do(t, h, http.MethodGet, "/healthz"); w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", w.Code, w.Body.String())
	}
	if w := do(t, h, http.MethodGet, "/readyz"); w.Code != http.StatusOK {
		t.Fatalf("readyz: %d", w.Code)
	}
	svc.ready = false
	if w := do(t, h, http.MethodGet, "/readyz"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz not ready: %d", w.Code)
	}
}

func TestSecurityAndCORSHeaders(t *testing.T) {
	SetCORSOptions(true, []string{"*"}, []string{"GET", "OPTIONS"}, []string{"Content-Type"})
	defer SetCORSOptions(false, nil, nil, nil)

	h := NewMux(newCatalogService())
	req := httptest.NewRequest(http.MethodGet, "/api/organizations", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options=nosniff, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatalf("expected CORS header Access-Control-Allow-Origin to be set")
	}
}

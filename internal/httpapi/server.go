package httpapi

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"exporthub/pkg/types"
)

// Service defines the catalog reads required by the HTTP layer.
// *registry.Registry implements it.
type Service interface {
	Organizations() []string
	ModelsByOrganization(org string) []types.ModelCard
	AllModelsByOrganization() map[string][]types.ModelCard
	TopModels(org string, limit int) []types.ModelCard
	Model(org, filenameID string) (types.ModelCard, error)
	Report() types.ScanReport
	Ready() bool
}

type server struct {
	svc Service
}

func NewMux(svc Service) http.Handler {
	s := &server{svc: svc}
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(accessLog)
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}

	// HTML catalog
	r.Get("/", s.indexPage)
	r.Get("/organization/{organization}", s.organizationPage)
	r.Get("/model/{organization}/{modelID}", s.modelPage)
	r.Get("/download/{organization}/{modelID}", s.download)

	// JSON API
	r.Route("/api", func(r chi.Router) {
		r.Get("/organizations", s.apiOrganizations)
		r.Get("/organizations/{organization}/models", s.apiOrganizationModels)
		r.Get("/catalog", s.apiCatalog)
		r.Get("/models/{organization}/{modelID}", s.apiModel)
		r.Get("/scan", s.apiScan)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("configs root unavailable"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		renderNotFound(w, "Page not found")
	})

	return r
}

// pathParam returns a decoded route parameter. chi matches on the raw path
// when the request carries escapes Go would not produce itself (e.g. %26), and
// leaves those escapes in the parameter.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

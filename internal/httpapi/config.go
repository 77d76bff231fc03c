package httpapi

import "exporthub/internal/registry"

// topModels is the number of cards per organization on the landing page.
var topModels = registry.DefaultTopModels

// SetTopModels configures the landing page grid size (<= 0 restores the default).
func SetTopModels(n int) {
	if n <= 0 {
		topModels = registry.DefaultTopModels
		return
	}
	topModels = n
}

// artifactsDir is where /download looks for artifact files that were not
// uploaded to a remote backend. Empty disables local serving.
var artifactsDir string

// SetArtifactsDir sets the local artifacts directory.
func SetArtifactsDir(dir string) { artifactsDir = dir }

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

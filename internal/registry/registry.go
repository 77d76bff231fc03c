package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"exporthub/internal/common/fsutil"
	"exporthub/pkg/types"
)

// DefaultTopModels is the number of models shown per organization on the
// landing page (a 2x3 grid).
const DefaultTopModels = 6

// Registry reads model cards from a configs root. It holds no catalog state of
// its own: unless a cache is configured, every call rescans the tree. All
// methods are safe for concurrent use.
type Registry struct {
	root  string
	log   zerolog.Logger
	cache *gocache.Cache
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for skipped files and scan errors.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithCache keeps scan results for up to ttl, keyed by a fingerprint of the
// tree so any file change is picked up on the next call. ttl <= 0 disables it.
func WithCache(ttl time.Duration) Option {
	return func(r *Registry) {
		if ttl <= 0 {
			r.cache = nil
			return
		}
		r.cache = gocache.New(ttl, 2*ttl)
	}
}

// New returns a Registry rooted at root ('~' is expanded). A missing root is
// accepted and reads as empty; a root that exists but cannot be listed, or is
// not a directory, is an error.
func New(root string, opts ...Option) (*Registry, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("configs root is required")
	}
	abs, err := fsutil.AbsPath(root)
	if err != nil {
		return nil, err
	}
	r := &Registry{root: abs, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	st, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		r.log.Warn().Str("root", abs).Msg("configs root does not exist; serving an empty catalog")
		return r, nil
	case err != nil:
		return nil, fmt.Errorf("stat configs root: %w", err)
	case !st.IsDir():
		return nil, fmt.Errorf("configs root %s is not a directory", abs)
	}
	if _, err := os.ReadDir(abs); err != nil {
		return nil, fmt.Errorf("read configs root: %w", err)
	}
	return r, nil
}

// Root returns the absolute configs root.
func (r *Registry) Root() string { return r.root }

// Ready reports whether the configs root exists and can be listed.
func (r *Registry) Ready() bool {
	_, err := os.ReadDir(r.root)
	return err == nil
}

// Scan performs (or reuses from the cache) one pass over the tree.
func (r *Registry) Scan() (*Catalog, types.ScanReport) {
	if r.cache == nil {
		return scanTree(r.root, r.log)
	}
	return r.cachedScan()
}

// Report returns the diagnostic report of a scan.
func (r *Registry) Report() types.ScanReport {
	_, rep := r.Scan()
	return rep
}

// Organizations lists the top-level folder names, sorted.
func (r *Registry) Organizations() []string {
	cat, _ := r.Scan()
	return cat.Organizations()
}

// ModelsByOrganization lists the cards whose effective organization is org,
// whether stored under org/ or claimed from another folder.
func (r *Registry) ModelsByOrganization(org string) []types.ModelCard {
	cat, _ := r.Scan()
	return cat.ByOrganization(org)
}

// AllModelsByOrganization buckets every card by effective organization in a
// single scan.
func (r *Registry) AllModelsByOrganization() map[string][]types.ModelCard {
	cat, _ := r.Scan()
	return cat.Grouped()
}

// TopModels returns the first limit entries of ModelsByOrganization(org). It
// is a plain truncation in scan order, not a ranking.
func (r *Registry) TopModels(org string, limit int) []types.ModelCard {
	return truncate(r.ModelsByOrganization(org), limit)
}

func truncate(cards []types.ModelCard, limit int) []types.ModelCard {
	if limit <= 0 {
		return cards[:0]
	}
	if len(cards) > limit {
		return cards[:limit]
	}
	return cards
}

// Model loads the card stored at <root>/<org>/<filenameID>.json. Addressing
// is purely physical: an organization or model_id declared inside some other
// card never makes it reachable here.
func (r *Registry) Model(org, filenameID string) (types.ModelCard, error) {
	if !fsutil.IsSegment(org) || !fsutil.IsSegment(filenameID) || strings.HasPrefix(filenameID, ".") {
		return types.ModelCard{}, ErrModelNotFound(org, filenameID)
	}
	path := filepath.Join(r.root, org, filenameID+cardExt)
	cf, err := readCard(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.log.Warn().Err(err).Str("organization", org).Str("path", path).Msg("unreadable model card")
		}
		return types.ModelCard{}, modelNotFoundError{org: org, id: filenameID, cause: err}
	}
	return resolve(org, filenameID, path, cf), nil
}

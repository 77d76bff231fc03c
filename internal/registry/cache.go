package registry

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
	gocache "github.com/patrickmn/go-cache"

	"exporthub/pkg/types"
)

type cached struct {
	catalog *Catalog
	report  types.ScanReport
}

// fingerprint hashes the shape of the tree: every folder and card file with
// its size and modification time. It is much cheaper than decoding the cards
// and changes whenever a card is written, renamed or removed. Rewrites that
// keep both size and mtime are only picked up after the cache TTL.
func fingerprint(root string) (string, error) {
	dirs, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return "missing", nil
		}
		return "", err
	}
	d := xxhash.New()
	for _, de := range dirs {
		orgDir := filepath.Join(root, de.Name())
		if !isDir(orgDir, de) {
			continue
		}
		_, _ = d.WriteString("d\x00" + de.Name() + "\x00")
		files, err := os.ReadDir(orgDir)
		if err != nil {
			_, _ = d.WriteString("unreadable\x00")
			continue
		}
		for _, f := range files {
			if _, ok := cardStem(f.Name()); !ok {
				continue
			}
			info, err := os.Stat(filepath.Join(orgDir, f.Name()))
			if err != nil {
				continue
			}
			_, _ = d.WriteString(f.Name() + "\x00" +
				strconv.FormatInt(info.Size(), 10) + "\x00" +
				strconv.FormatInt(info.ModTime().UnixNano(), 10) + "\x00")
		}
	}
	return strconv.FormatUint(d.Sum64(), 16), nil
}

func (r *Registry) cachedScan() (*Catalog, types.ScanReport) {
	key, err := fingerprint(r.root)
	if err != nil {
		r.log.Debug().Err(err).Msg("fingerprint failed; scanning without cache")
		return scanTree(r.root, r.log)
	}
	if v, ok := r.cache.Get(key); ok {
		c := v.(cached)
		cacheHits.Inc()
		rep := c.report
		rep.Cached = true
		rep.Skipped = slices.Clone(rep.Skipped)
		rep.Notices = slices.Clone(rep.Notices)
		return c.catalog, rep
	}
	cat, rep := scanTree(r.root, r.log)
	// Only the latest tree shape is worth keeping.
	r.cache.Flush()
	r.cache.Set(key, cached{catalog: cat, report: rep}, gocache.DefaultExpiration)
	return cat, rep
}

// Invalidate drops cached scan results. It is a no-op without WithCache.
func (r *Registry) Invalidate() {
	if r.cache != nil {
		r.cache.Flush()
	}
}

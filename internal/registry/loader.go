package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"exporthub/pkg/types"
)

const cardExt = ".json"

// Skip reasons recorded in types.SkippedFile.
const (
	reasonRead      = "read"
	reasonParse     = "parse"
	reasonNotObject = "not_object"
)

// cardFile is a decoded card body before identity resolution. Organization
// and ModelID are nil when the body does not carry a usable value.
type cardFile struct {
	Organization *string
	ModelID      *string
	Fields       map[string]any
	Notices      []string
}

// readError carries the skip reason alongside the underlying error.
type readError struct {
	reason string
	err    error
}

func (e *readError) Error() string { return e.reason + ": " + e.err.Error() }
func (e *readError) Unwrap() error { return e.err }

// readCard reads and decodes one card file. Numbers are kept as json.Number
// so pass-through fields round-trip exactly.
func readCard(path string) (*cardFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &readError{reason: reasonRead, err: err}
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &readError{reason: reasonParse, err: err}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, &readError{reason: reasonParse, err: errors.New("trailing data after JSON value")}
	}
	body, ok := v.(map[string]any)
	if !ok {
		return nil, &readError{reason: reasonNotObject, err: fmt.Errorf("top-level JSON value is %T, want object", v)}
	}
	return decodeCard(body), nil
}

// decodeCard separates the identity keys from the pass-through fields.
func decodeCard(body map[string]any) *cardFile {
	cf := &cardFile{Fields: make(map[string]any, len(body))}
	for k, v := range body {
		switch k {
		case types.KeyOrganization, types.KeyModelID:
			s, ok := v.(string)
			if !ok || strings.TrimSpace(s) == "" {
				cf.Notices = append(cf.Notices, fmt.Sprintf("ignored %q: want non-empty string", k))
				continue
			}
			if k == types.KeyOrganization {
				cf.Organization = &s
			} else {
				cf.ModelID = &s
			}
		case types.KeyFilenameID, types.KeyConfigPath:
			cf.Notices = append(cf.Notices, fmt.Sprintf("ignored reserved key %q", k))
		default:
			cf.Fields[k] = v
		}
	}
	slices.Sort(cf.Notices)
	return cf
}

// resolve applies the precedence rule: card field if set, else folder name
// (organization) or filename stem (model id). FilenameID is always the stem.
func resolve(folder, stem, path string, cf *cardFile) types.ModelCard {
	card := types.ModelCard{
		Organization: folder,
		ModelID:      stem,
		FilenameID:   stem,
		ConfigPath:   path,
		Fields:       cf.Fields,
	}
	if cf.Organization != nil {
		card.Organization = *cf.Organization
	}
	if cf.ModelID != nil {
		card.ModelID = *cf.ModelID
	}
	return card
}

// cardStem returns the filename id for a card file name, or false when the
// entry is not a card (hidden files, other extensions).
func cardStem(name string) (string, bool) {
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, cardExt) {
		return "", false
	}
	stem := strings.TrimSuffix(name, cardExt)
	return stem, stem != ""
}

// isDir follows symlinks, matching how the tree looks to a reader.
func isDir(path string, e fs.DirEntry) bool {
	if e.Type()&fs.ModeSymlink == 0 {
		return e.IsDir()
	}
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

func isRegular(path string, e fs.DirEntry) bool {
	if e.Type()&fs.ModeSymlink == 0 {
		return e.Type().IsRegular()
	}
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

// scanTree performs one full pass over root. Folders and files are visited in
// lexicographic order (os.ReadDir sorts by name), so results are deterministic.
func scanTree(root string, log zerolog.Logger) (cat *Catalog, rep types.ScanReport) {
	start := time.Now()
	rep = types.ScanReport{
		ID:            uuid.NewString(),
		Root:          root,
		StartedUnixMs: start.UnixMilli(),
		Skipped:       []types.SkippedFile{},
	}
	cat = &Catalog{root: root, orgs: []string{}}
	defer func() {
		rep.DurationMs = time.Since(start).Milliseconds()
		observeScan(rep, time.Since(start))
	}()

	dirs, err := os.ReadDir(root)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Error().Err(err).Str("root", root).Msg("configs root unreadable")
			rep.RootExists = true
			rep.Notices = append(rep.Notices, "read root: "+err.Error())
		}
		return cat, rep
	}
	rep.RootExists = true

	for _, d := range dirs {
		orgDir := filepath.Join(root, d.Name())
		if !isDir(orgDir, d) {
			continue
		}
		folder := d.Name()
		cat.orgs = append(cat.orgs, folder)
		rep.Folders++

		files, err := os.ReadDir(orgDir)
		if err != nil {
			log.Warn().Err(err).Str("organization", folder).Str("path", orgDir).Msg("skipping unreadable organization folder")
			rep.Skipped = append(rep.Skipped, types.SkippedFile{Path: orgDir, Organization: folder, Reason: reasonRead, Error: err.Error()})
			continue
		}
		for _, f := range files {
			stem, ok := cardStem(f.Name())
			if !ok {
				continue
			}
			path := filepath.Join(orgDir, f.Name())
			if !isRegular(path, f) {
				continue
			}
			rep.FilesScanned++
			cf, err := readCard(path)
			if err != nil {
				reason := reasonRead
				var re *readError
				if errors.As(err, &re) {
					reason = re.reason
				}
				log.Warn().Err(err).Str("organization", folder).Str("path", path).Msg("skipping model card")
				rep.Skipped = append(rep.Skipped, types.SkippedFile{Path: path, Organization: folder, Reason: reason, Error: err.Error()})
				continue
			}
			for _, n := range cf.Notices {
				rep.Notices = append(rep.Notices, path+": "+n)
			}
			cat.entries = append(cat.entries, entry{folder: folder, card: resolve(folder, stem, path, cf)})
		}
	}
	rep.Cards = len(cat.entries)
	rep.Notices = append(rep.Notices, duplicateNotices(cat.entries)...)
	return cat, rep
}

// duplicateNotices reports logical model ids claimed by more than one file
// within the same effective organization. Both cards are kept.
func duplicateNotices(entries []entry) []string {
	type key struct{ org, id string }
	first := make(map[key]string, len(entries))
	var out []string
	for _, e := range entries {
		k := key{e.card.Organization, e.card.ModelID}
		if p, ok := first[k]; ok {
			out = append(out, fmt.Sprintf("duplicate model_id %q in organization %q: %s and %s", k.id, k.org, p, e.card.ConfigPath))
			continue
		}
		first[k] = e.card.ConfigPath
	}
	return out
}

package types

import (
	"encoding/json"
	"maps"
	"path/filepath"
	"slices"
)

// Reserved model card keys. Organization and ModelID may be set by the card
// file itself; FilenameID and ConfigPath are always derived from the file's
// location and win over anything the file contains.
const (
	KeyOrganization = "organization"
	KeyModelID      = "model_id"
	KeyFilenameID   = "filename_id"
	KeyConfigPath   = "config_path"
)

// Well-known pass-through keys written by the publisher.
const (
	KeyModelName     = "model_name"
	KeyModelFileName = "model_file_name"
	KeySHA256        = "sha256"
	KeyURL           = "url"
	KeyInputSizes    = "input_sizes"
	KeySizeBytes     = "size_bytes"
	KeyExportedAt    = "exported_at"
)

// ModelCard is one model card file with its identity resolved.
type ModelCard struct {
	// Effective organization: the card's own "organization" field, else the folder name.
	// example: DeepChem
	Organization string `json:"organization" example:"DeepChem"`
	// Logical model id: the card's own "model_id" field, else the filename stem.
	// example: ChemBERTa-100M-MLM
	ModelID string `json:"model_id" example:"ChemBERTa-100M-MLM"`
	// Filename stem used for addressing; never taken from the card body.
	// example: ChemBERTa-100M-MLM
	FilenameID string `json:"filename_id" example:"ChemBERTa-100M-MLM"`
	// Absolute path of the backing JSON file.
	// example: /srv/configs/DeepChem/ChemBERTa-100M-MLM.json
	ConfigPath string `json:"config_path" example:"/srv/configs/DeepChem/ChemBERTa-100M-MLM.json"`
	// Remaining card fields, passed through unmodified.
	Fields map[string]any `json:"-" swaggerignore:"true"`
}

// MarshalJSON flattens Fields next to the resolved identity keys.
func (c ModelCard) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Fields)+4)
	maps.Copy(out, c.Fields)
	out[KeyOrganization] = c.Organization
	out[KeyModelID] = c.ModelID
	out[KeyFilenameID] = c.FilenameID
	out[KeyConfigPath] = c.ConfigPath
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON. Non-string identity values are
// left in Fields.
func (c *ModelCard) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*c = ModelCard{}
	take := func(key string, dst *string) {
		if s, ok := raw[key].(string); ok {
			*dst = s
			delete(raw, key)
		}
	}
	take(KeyOrganization, &c.Organization)
	take(KeyModelID, &c.ModelID)
	take(KeyFilenameID, &c.FilenameID)
	take(KeyConfigPath, &c.ConfigPath)
	if len(raw) > 0 {
		c.Fields = raw
	}
	return nil
}

// Clone returns a copy whose Fields, including nested JSON arrays and
// objects, can be modified independently.
func (c ModelCard) Clone() ModelCard {
	if c.Fields != nil {
		c.Fields = cloneValue(c.Fields).(map[string]any)
	}
	return c
}

// cloneValue deep-copies decoded JSON values. Scalars are immutable and
// returned as is.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case [][]int64:
		out := make([][]int64, len(t))
		for i, e := range t {
			out[i] = slices.Clone(e)
		}
		return out
	default:
		return v
	}
}

func (c ModelCard) str(key string) string {
	s, _ := c.Fields[key].(string)
	return s
}

// ModelName is the human-readable name, falling back to the model id.
func (c ModelCard) ModelName() string {
	if s := c.str(KeyModelName); s != "" {
		return s
	}
	return c.ModelID
}

// SHA256 is the hex digest of the exported artifact, if recorded.
func (c ModelCard) SHA256() string { return c.str(KeySHA256) }

// FileName is the artifact's local file name, if recorded.
func (c ModelCard) FileName() string { return c.str(KeyModelFileName) }

// URL is the remote download location, if the artifact was uploaded.
func (c ModelCard) URL() string { return c.str(KeyURL) }

// Folder is the organization folder the card file physically lives in. Page
// links and downloads address cards by Folder and FilenameID.
func (c ModelCard) Folder() string {
	if c.ConfigPath == "" {
		return c.Organization
	}
	return filepath.Base(filepath.Dir(c.ConfigPath))
}

// InputSizes returns the recorded example input shapes. Entries that are not
// lists of numbers are skipped.
func (c ModelCard) InputSizes() [][]int64 {
	if v, ok := c.Fields[KeyInputSizes].([][]int64); ok {
		return v
	}
	list, ok := c.Fields[KeyInputSizes].([]any)
	if !ok {
		return nil
	}
	var out [][]int64
	for _, item := range list {
		dims, ok := item.([]any)
		if !ok {
			continue
		}
		shape := make([]int64, 0, len(dims))
		for _, d := range dims {
			switch n := d.(type) {
			case float64:
				shape = append(shape, int64(n))
			case json.Number:
				if i, err := n.Int64(); err == nil {
					shape = append(shape, i)
				}
			}
		}
		out = append(out, shape)
	}
	return out
}

// SkippedFile records a card file that could not be loaded.
type SkippedFile struct {
	// example: /srv/configs/Acme/bad.json
	Path string `json:"path" example:"/srv/configs/Acme/bad.json"`
	// Folder the file was found in.
	// example: Acme
	Organization string `json:"organization" example:"Acme"`
	// Short machine-friendly category: read, parse, not_object.
	// example: parse
	Reason string `json:"reason" example:"parse"`
	// example: invalid character '}' looking for beginning of object key string
	Error string `json:"error" example:"invalid character '}' looking for beginning of object key string"`
}

// ScanReport describes one pass over the configs root.
type ScanReport struct {
	// Unique id of this scan.
	ID string `json:"id"`
	// Absolute configs root.
	Root string `json:"root"`
	// False when the root does not exist; all results are empty then.
	RootExists bool `json:"root_exists"`
	// Scan start, unix milliseconds.
	StartedUnixMs int64 `json:"started_unix_ms"`
	// Wall time of the scan in milliseconds.
	DurationMs int64 `json:"duration_ms"`
	// True when the result came from the cache instead of a fresh scan.
	Cached bool `json:"cached"`
	// Number of organization folders seen.
	Folders int `json:"folders"`
	// Number of *.json files considered.
	FilesScanned int `json:"files_scanned"`
	// Number of cards loaded.
	Cards int `json:"cards"`
	// Files excluded from results.
	Skipped []SkippedFile `json:"skipped"`
	// Non-fatal observations (ignored identity fields, model_id collisions).
	Notices []string `json:"notices,omitempty"`
}

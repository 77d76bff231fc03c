package publish

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Manifest lists the models a batch publish run exports.
type Manifest struct {
	Models []Request `json:"models" yaml:"models" toml:"models"`
}

// LoadManifest reads a manifest by extension (.yaml/.yml, .json, .toml).
// Relative artifact paths are resolved against the manifest's directory.
func LoadManifest(path string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &m)
	case ".json":
		err = json.Unmarshal(b, &m)
	case ".toml":
		err = toml.Unmarshal(b, &m)
	default:
		return m, fmt.Errorf("unsupported manifest extension: %s", ext)
	}
	if err != nil {
		return m, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	base := filepath.Dir(path)
	for i := range m.Models {
		if a := m.Models[i].Artifact; a != "" && !filepath.IsAbs(a) {
			m.Models[i].Artifact = filepath.Join(base, a)
		}
	}
	return m, nil
}

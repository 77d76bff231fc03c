// Package publish turns an exported model artifact into a model card under
// the configs root, optionally uploading the artifact to a storage backend
// first.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"exporthub/internal/checksum"
	"exporthub/internal/common/fsutil"
	"exporthub/internal/storage"
	"exporthub/pkg/types"
)

// DefaultArtifactExt is used when the artifact file has no extension.
const DefaultArtifactExt = ".pt2"

// Request describes one artifact to publish.
type Request struct {
	// ModelName is "<organization>/<name>", e.g. "DeepChem/ChemBERTa-100M-MLM".
	ModelName string `json:"model_name" yaml:"model_name" toml:"model_name"`
	// Artifact is the path of the exported model file.
	Artifact string `json:"artifact" yaml:"artifact" toml:"artifact"`
	// InputSizes lists the example input shapes used for export.
	InputSizes [][]int64 `json:"input_sizes" yaml:"input_sizes" toml:"input_sizes"`
	// Organization overrides the organization recorded in the card. When it
	// differs from the folder the card is written to, the card claims it.
	Organization string `json:"organization" yaml:"organization" toml:"organization"`
	// Folder overrides the organization folder derived from ModelName.
	Folder string `json:"folder" yaml:"folder" toml:"folder"`
	// ModelID sets an explicit logical model id.
	ModelID string `json:"model_id" yaml:"model_id" toml:"model_id"`
	// Extra fields copied into the card verbatim.
	Extra map[string]any `json:"extra" yaml:"extra" toml:"extra"`
}

// Result is what Publish wrote.
type Result struct {
	ConfigPath string
	Card       types.ModelCard
	Upload     *storage.UploadResult
	// Skipped is set when SkipExisting found the card and artifact already
	// published with the same checksum; nothing was written.
	Skipped bool
}

// Publisher writes model cards into ConfigsDir.
type Publisher struct {
	ConfigsDir string
	// Storage is optional; without it the card carries no url.
	Storage storage.Storage
	Logger  zerolog.Logger
	// SkipExisting leaves a card alone when it already records the artifact's
	// sha256 and, with a backend, the artifact is already uploaded.
	SkipExisting bool
	// Now is overridable for tests.
	Now func() time.Time
}

// ValidationError reports a request that cannot be published.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid publish request: %s %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Layout resolves where a request's card and artifact go.
type Layout struct {
	Folder        string // organization folder under the configs root
	Stem          string // card file name without .json
	ModelFileName string // artifact name recorded in the card
}

// storageKey is the object key the artifact is uploaded under.
func (l Layout) storageKey() string { return l.Folder + "/" + l.ModelFileName }

// PlanLayout derives the card location from the request. The artifact file
// name is the model name with "/" replaced by "_" plus the artifact's
// extension.
func PlanLayout(req Request) (Layout, error) {
	name := strings.TrimSpace(req.ModelName)
	if name == "" {
		return Layout{}, &ValidationError{Field: "model_name", Reason: "is required"}
	}
	folder, stem, ok := strings.Cut(name, "/")
	if !ok {
		folder, stem = "", name
	}
	if req.Folder != "" {
		folder = req.Folder
	}
	if folder == "" {
		folder = req.Organization
	}
	if folder == "" {
		return Layout{}, &ValidationError{Field: "model_name", Reason: `must be "<organization>/<name>" or come with an organization`}
	}
	stem = strings.ReplaceAll(stem, "/", "_")
	if !fsutil.IsSegment(folder) || strings.HasPrefix(folder, ".") {
		return Layout{}, &ValidationError{Field: "organization", Reason: fmt.Sprintf("%q is not a valid folder name", folder)}
	}
	if !fsutil.IsSegment(stem) || strings.HasPrefix(stem, ".") {
		return Layout{}, &ValidationError{Field: "model_name", Reason: fmt.Sprintf("%q is not a valid file name", stem)}
	}
	ext := filepath.Ext(req.Artifact)
	if ext == "" {
		ext = DefaultArtifactExt
	}
	return Layout{
		Folder:        folder,
		Stem:          stem,
		ModelFileName: strings.ReplaceAll(name, "/", "_") + ext,
	}, nil
}

// Publish hashes the artifact, uploads it when a backend is configured and
// writes the card atomically.
func (p *Publisher) Publish(ctx context.Context, req Request) (*Result, error) {
	layout, err := PlanLayout(req)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(req.Artifact)
	if err != nil {
		return nil, &ValidationError{Field: "artifact", Reason: err.Error()}
	}
	if !st.Mode().IsRegular() {
		return nil, &ValidationError{Field: "artifact", Reason: fmt.Sprintf("%s is not a regular file", req.Artifact)}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := fsutil.AbsPath(p.ConfigsDir)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(root, layout.Folder)
	path := filepath.Join(dir, layout.Stem+".json")

	log := p.Logger.With().Str("model", req.ModelName).Str("artifact", req.Artifact).Logger()
	log.Info().Msg("calculating sha256")
	sum, size, err := checksum.FileSHA256(req.Artifact)
	if err != nil {
		return nil, fmt.Errorf("hash artifact: %w", err)
	}

	if p.SkipExisting {
		res, err := p.existing(ctx, path, layout, sum)
		if err != nil {
			return nil, err
		}
		if res != nil {
			log.Info().Str("config_path", path).Str("sha256", sum).Msg("already published; skipping")
			return res, nil
		}
	}

	fields := make(map[string]any, len(req.Extra)+8)
	for k, v := range req.Extra {
		switch k {
		case types.KeyOrganization, types.KeyModelID, types.KeyFilenameID, types.KeyConfigPath:
			log.Warn().Str("key", k).Msg("ignoring reserved key in extra fields")
		default:
			fields[k] = v
		}
	}
	inputSizes := req.InputSizes
	if inputSizes == nil {
		inputSizes = [][]int64{}
	}
	fields[types.KeyModelName] = req.ModelName
	fields[types.KeyInputSizes] = inputSizes
	fields[types.KeyModelFileName] = layout.ModelFileName
	fields[types.KeySHA256] = sum
	fields[types.KeySizeBytes] = size
	fields[types.KeyExportedAt] = p.now().UTC().Format(time.RFC3339)

	var upload *storage.UploadResult
	if p.Storage != nil {
		upload, err = p.upload(ctx, req.Artifact, layout, size)
		if err != nil {
			return nil, err
		}
		if upload.Checksum != "" && upload.Checksum != sum {
			return nil, &checksum.MismatchError{Path: req.Artifact, Expected: sum, Actual: upload.Checksum}
		}
		fields[types.KeyURL] = upload.URL
		log.Info().Str("key", upload.Key).Str("url", upload.URL).Msg("artifact uploaded")
	}

	body := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		body[k] = v
	}
	if req.Organization != "" && req.Organization != layout.Folder {
		body[types.KeyOrganization] = req.Organization
	}
	if req.ModelID != "" {
		body[types.KeyModelID] = req.ModelID
	}
	data, err := json.MarshalIndent(body, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode model card: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create organization folder: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write model card: %w", err)
	}
	log.Info().Str("config_path", path).Str("sha256", sum).Msg("model card written")

	card := types.ModelCard{
		Organization: layout.Folder,
		ModelID:      layout.Stem,
		FilenameID:   layout.Stem,
		ConfigPath:   path,
		Fields:       fields,
	}
	if req.Organization != "" {
		card.Organization = req.Organization
	}
	if req.ModelID != "" {
		card.ModelID = req.ModelID
	}
	return &Result{ConfigPath: path, Card: card, Upload: upload}, nil
}

func (p *Publisher) upload(ctx context.Context, artifact string, layout Layout, size int64) (*storage.UploadResult, error) {
	f, err := os.Open(artifact)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	res, err := p.Storage.Upload(ctx, layout.storageKey(), f, size)
	if err != nil {
		return nil, fmt.Errorf("upload artifact: %w", err)
	}
	return res, nil
}

// existing returns the card already at path when it records sum and, with a
// backend configured, the artifact is stored under its key. A nil result
// means the request must be published.
func (p *Publisher) existing(ctx context.Context, path string, layout Layout, sum string) (*Result, error) {
	if !fsutil.PathExists(path) {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read existing model card: %w", err)
	}
	var card types.ModelCard
	if err := json.Unmarshal(b, &card); err != nil || !strings.EqualFold(card.SHA256(), sum) {
		return nil, nil
	}
	if p.Storage != nil {
		ok, err := p.Storage.Exists(ctx, layout.storageKey())
		if err != nil {
			return nil, fmt.Errorf("check uploaded artifact: %w", err)
		}
		if !ok {
			return nil, nil
		}
	}
	if card.Organization == "" {
		card.Organization = layout.Folder
	}
	if card.ModelID == "" {
		card.ModelID = layout.Stem
	}
	card.FilenameID = layout.Stem
	card.ConfigPath = path
	return &Result{ConfigPath: path, Card: card, Skipped: true}, nil
}

// PublishAll publishes every request, continuing past failures. The returned
// error joins the individual failures.
func (p *Publisher) PublishAll(ctx context.Context, reqs []Request) ([]*Result, error) {
	var (
		results []*Result
		errs    []error
	)
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := p.Publish(ctx, req)
		if err != nil {
			p.Logger.Error().Err(err).Str("model", req.ModelName).Msg("publish failed")
			errs = append(errs, fmt.Errorf("%s: %w", req.ModelName, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (p *Publisher) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

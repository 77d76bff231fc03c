package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"exporthub/internal/publish"
	"exporthub/internal/storage"
)

func newPublishCmd(c *cli) *cobra.Command {
	var (
		req             publish.Request
		inputSizes      []string
		manifest        string
		backend, prefix string
		noUpload, skip  bool
	)
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Hash an exported artifact, upload it and write its model card",
		Example: "  exporthub publish --model-name DeepChem/ChemBERTa-77M-MLM --artifact ./out/model.pt2 --input-size 1,128\n" +
			"  exporthub publish --manifest models.yaml --storage s3",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if backend != "" {
				c.cfg.Storage.Backend = backend
			}
			if prefix != "" {
				c.cfg.Storage.S3.Prefix = prefix
			}
			if noUpload {
				c.cfg.Storage.Backend = ""
			}

			var reqs []publish.Request
			switch {
			case manifest != "":
				if req.ModelName != "" || req.Artifact != "" {
					return errors.New("--manifest cannot be combined with --model-name or --artifact")
				}
				m, err := publish.LoadManifest(manifest)
				if err != nil {
					return fmt.Errorf("load manifest: %w", err)
				}
				if len(m.Models) == 0 {
					return fmt.Errorf("manifest %s lists no models", manifest)
				}
				reqs = m.Models
			case req.ModelName != "" && req.Artifact != "":
				sizes, err := parseInputSizes(inputSizes)
				if err != nil {
					return err
				}
				req.InputSizes = sizes
				reqs = []publish.Request{req}
			default:
				return errors.New("publish requires --manifest, or --model-name and --artifact")
			}

			p := &publish.Publisher{ConfigsDir: c.cfg.ConfigsDir, Logger: c.log, SkipExisting: skip}
			if c.cfg.Storage.Backend != "" {
				st, err := storage.New(c.cfg.Storage)
				if err != nil {
					return err
				}
				p.Storage = st
			}

			results, err := p.PublishAll(cmd.Context(), reqs)
			for _, res := range results {
				if res.Skipped {
					fmt.Fprintf(c.stdout, "unchanged %s sha256=%s\n", res.ConfigPath, res.Card.SHA256())
					continue
				}
				fmt.Fprintf(c.stdout, "wrote %s sha256=%s", res.ConfigPath, res.Card.SHA256())
				if u := res.Card.URL(); u != "" {
					fmt.Fprintf(c.stdout, " url=%s", u)
				}
				fmt.Fprintln(c.stdout)
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.ModelName, "model-name", "", `Model name "<organization>/<name>"`)
	f.StringVar(&req.Artifact, "artifact", "", "Exported artifact file")
	f.StringArrayVar(&inputSizes, "input-size", nil, "Example input shape, e.g. 1,3,224,224 (repeatable)")
	f.StringVar(&req.Organization, "organization", "", "Organization the card claims (defaults to the folder)")
	f.StringVar(&req.Folder, "folder", "", "Organization folder to write the card under")
	f.StringVar(&req.ModelID, "model-id", "", "Logical model id (defaults to the file name)")
	f.StringVar(&manifest, "manifest", "", "Publish every model listed in a .yaml/.json/.toml manifest")
	f.StringVar(&backend, "storage", "", "Upload backend: "+strings.Join(storage.Backends(), "|"))
	f.StringVar(&prefix, "s3-prefix", "", "Key prefix for S3 uploads")
	f.BoolVar(&noUpload, "no-upload", false, "Skip uploading even if a backend is configured")
	f.BoolVar(&skip, "skip-existing", false, "Leave cards whose artifact is already published with the same sha256")
	return cmd
}

// parseInputSizes parses shapes like "1,3,224,224".
func parseInputSizes(specs []string) ([][]int64, error) {
	out := make([][]int64, 0, len(specs))
	for _, s := range specs {
		parts := splitCSV(s)
		if len(parts) == 0 {
			return nil, fmt.Errorf("empty --input-size")
		}
		shape := make([]int64, 0, len(parts))
		for _, p := range parts {
			n, err := strconv.ParseInt(p, 10, 64)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid --input-size %q: dimension %q is not a non-negative integer", s, p)
			}
			shape = append(shape, n)
		}
		out = append(out, shape)
	}
	return out, nil
}

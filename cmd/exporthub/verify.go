package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"exporthub/internal/checksum"
	"exporthub/internal/common/fsutil"
	"exporthub/internal/registry"
)

func newVerifyCmd(c *cli) *cobra.Command {
	var artifact string
	cmd := &cobra.Command{
		Use:     "verify <organization> <filename-id>",
		Short:   "Check an artifact against the sha256 recorded in its model card",
		Example: "  exporthub verify DeepChem ChemBERTa-77M-MLM --artifact ./out/model.pt2",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.New(c.cfg.ConfigsDir, registry.WithLogger(c.log))
			if err != nil {
				return err
			}
			card, err := reg.Model(args[0], args[1])
			if err != nil {
				return err
			}
			want := card.SHA256()
			if want == "" {
				return fmt.Errorf("model card %s records no sha256", card.ConfigPath)
			}
			path := artifact
			if path == "" {
				var ok bool
				if path, ok = fsutil.FindArtifact(c.cfg.ArtifactsDir, args[0], card.FileName()); !ok {
					return fmt.Errorf("no --artifact given and %q not found under %s", card.FileName(), c.cfg.ArtifactsDir)
				}
			}
			if err := checksum.Verify(path, want); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "OK %s sha256=%s\n", path, want)
			return nil
		},
	}
	cmd.Flags().StringVar(&artifact, "artifact", "", "Artifact file to check (defaults to the card's file under the artifacts dir)")
	return cmd
}

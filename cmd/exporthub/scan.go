package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"exporthub/internal/registry"
)

func newScanCmd(c *cli) *cobra.Command {
	var asJSON, strict bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the configs root and report organizations, cards and skipped files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.New(c.cfg.ConfigsDir, registry.WithLogger(c.log))
			if err != nil {
				return err
			}
			cat, rep := reg.Scan()
			if asJSON {
				enc := json.NewEncoder(c.stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(rep); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(c.stdout, "root %s: %d folders, %d files, %d cards, %d skipped\n",
					rep.Root, rep.Folders, rep.FilesScanned, rep.Cards, len(rep.Skipped))
				tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ORGANIZATION\tMODEL ID\tFILE")
				grouped := cat.Grouped()
				for _, org := range slices.Sorted(maps.Keys(grouped)) {
					for _, m := range grouped[org] {
						fmt.Fprintf(tw, "%s\t%s\t%s\n", org, m.ModelID, m.ConfigPath)
					}
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				for _, s := range rep.Skipped {
					fmt.Fprintf(c.stdout, "skipped %s (%s): %s\n", s.Path, s.Reason, s.Error)
				}
				for _, n := range rep.Notices {
					fmt.Fprintf(c.stdout, "notice: %s\n", n)
				}
			}
			if strict && len(rep.Skipped) > 0 {
				return fmt.Errorf("%d card files skipped", len(rep.Skipped))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the scan report as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any card file was skipped")
	return cmd
}

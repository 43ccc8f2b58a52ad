package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"leadscout-engine/internal/export"
	"leadscout-engine/internal/poll"
)

func newExportCmd() *cobra.Command {
	var (
		dir          string
		includeStale bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Rewrite leads.json and leads.csv from the store without fetching",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			cfg := a.config()
			if dir == "" {
				dir = poll.OutputDir(cfg, a.dataDir)
			}
			if !cmd.Flags().Changed("include-stale") {
				includeStale = cfg.Run.IncludeStale
			}

			leads, err := a.db.ListLeads(cmd.Context(), includeStale)
			if err != nil {
				return err
			}
			files, err := export.WriteFiles(dir, cfg.Output.JSONName, cfg.Output.CSVName, leads)
			if err != nil {
				return err
			}
			fmt.Println(files.JSON)
			fmt.Println(files.CSV)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default output.dir or <data-dir>/output)")
	cmd.Flags().BoolVar(&includeStale, "include-stale", false, "include stale leads (default run.include_stale)")
	return cmd
}

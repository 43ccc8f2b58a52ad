package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"leadscout-engine/internal/poll"
)

func newRunCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and write the output files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode != "" && !poll.ValidMode(mode) {
				return fmt.Errorf("unknown mode %q (want full, legacy or queries)", mode)
			}
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			r := poll.NewRunner(a.db, a.dataDir, a.config, nil)
			sum, runErr := r.Run(cmd.Context(), mode)
			if sum.RunID != "" {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				_ = enc.Encode(sum)
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "full, legacy or queries (default run.mode)")
	return cmd
}

func newQueriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queries",
		Short: "Write search_queries.md and print it, without fetching anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			r := poll.NewRunner(a.db, a.dataDir, a.config, nil)
			sum, err := r.Run(cmd.Context(), poll.ModeQueries)
			if err != nil {
				return err
			}
			if len(sum.Outputs) == 0 {
				return fmt.Errorf("run %s wrote no queries file", sum.RunID)
			}
			b, err := os.ReadFile(sum.Outputs[0])
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}

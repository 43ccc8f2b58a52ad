package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/logger"
	"leadscout-engine/internal/poll"
)

var (
	flagDataDir string
	flagConfig  string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "leadscout",
		Short:         "Find homeowners asking for landscaping work",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(logger.FromEnv())
		},
	}
	root.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default $LEADSCOUT_DATA_DIR or the XDG data dir)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default <data-dir>/config.yml)")

	root.AddCommand(newRunCmd(), newServeCmd(), newExportCmd(), newQueriesCmd(), newSecretsCmd())
	return root
}

// exitCode lets scripts tell a dead pipeline from a busy one.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, domain.ErrTotalPipelineFailure):
		return 2
	case errors.Is(err, poll.ErrRunInProgress):
		return 3
	case errors.Is(err, domain.ErrStoreWriteConflict):
		return 4
	default:
		return 1
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(exitCode(err))
}

// Command leadtime-cli analyses procurement files locally, generates sample
// data and submits files to a running leadtime server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/leadtime/pkg/logger"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "leadtime-cli",
		Short: "Procurement lead-time and delay analysis",
		Long: `leadtime-cli answers lead-time and delay questions about procurement
order files (CSV or XLSX):

  - which supplier has the highest average lead time
  - which transportation mode has the lowest average lead time
  - which delivery month has the highest average delay
  - which disruption type causes the longest delay
  - which product category has the shortest average lead time

It runs the analysis locally, generates synthetic order files, or submits
files to a running leadtime server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithFormat(opts.logFormat), logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			return logger.SetLevelString(opts.logLevel)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", logger.FormatText, "log format: text or json")

	cmd.AddCommand(newAnalyzeCmd(), newSampleCmd(), newSubmitCmd())
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

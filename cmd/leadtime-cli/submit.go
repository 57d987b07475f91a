package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/leadtime/internal/client"
	"github.com/okian/leadtime/pkg/logger"
)

type submitOptions struct {
	url     string
	sheet   string
	wait    time.Duration
	timeout time.Duration
}

func newSubmitCmd() *cobra.Command {
	opts := &submitOptions{}
	cmd := &cobra.Command{
		Use:   "submit FILE",
		Short: "Upload a file to a running leadtime server",
		Long: `Upload a CSV or XLSX file to a running leadtime server. With --wait the
command polls until the analysis finishes and prints its answers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.url, "url", "http://localhost:9080", "base URL of the server")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "worksheet to read from an XLSX file")
	cmd.Flags().DurationVar(&opts.wait, "wait", 0, "poll for the result for up to this long (0 returns immediately)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", client.DefaultTimeout, "HTTP request timeout")
	return cmd
}

func runSubmit(cmd *cobra.Command, path string, opts *submitOptions) error {
	ctx := cmd.Context()
	log := logger.Named("submit")
	c := client.New(opts.url, client.WithTimeout(opts.timeout))

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sub, err := c.Submit(ctx, path, f, opts.sheet)
	if err != nil {
		return fmt.Errorf("submit %s: %w", path, err)
	}
	log.Info(ctx, "submitted", logger.String("id", sub.ID), logger.Bool("duplicate", sub.Duplicate))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "analysis %s %s", sub.ID, sub.Status)
	if sub.Duplicate {
		fmt.Fprint(out, " (duplicate)")
	}
	fmt.Fprintln(out)

	if opts.wait <= 0 {
		return nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, opts.wait)
	defer cancel()

	a, err := c.Wait(waitCtx, sub.ID)
	if err != nil {
		return err
	}
	if a.Report == nil {
		return fmt.Errorf("analysis %s finished without a report", a.ID)
	}
	return renderText(out, *a.Report)
}

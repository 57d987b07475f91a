package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/leadtime/internal/adapters/export"
	"github.com/okian/leadtime/internal/adapters/ingest"
	"github.com/okian/leadtime/internal/domain/analysis"
	"github.com/okian/leadtime/pkg/logger"
)

// Output formats of the analyze command.
const (
	outputText = "text"
	outputJSON = "json"
	outputCSV  = "csv"
)

type analyzeOptions struct {
	sheet       string
	format      string
	xlsxOut     string
	previewRows int
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyse a CSV or XLSX file locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "worksheet to read from an XLSX file (default first)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", outputText, "output format: text, json or csv")
	cmd.Flags().StringVar(&opts.xlsxOut, "xlsx", "", "also write the full report workbook to this path")
	cmd.Flags().IntVar(&opts.previewRows, "preview", analysis.DefaultPreviewRows, "records to include in the report preview")
	return cmd
}

func runAnalyze(cmd *cobra.Command, path string, opts *analyzeOptions) error {
	ctx := cmd.Context()
	log := logger.Named("analyze")

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ds, err := ingest.Read(path, f, opts.sheet)
	if err != nil {
		return err
	}
	log.Info(ctx, "dataset loaded", logger.String("file", path), logger.Int("records", ds.Len()))

	rep := analysis.BuildReport(ds, analysis.WithPreviewRows(opts.previewRows))
	for kind, n := range rep.Skipped {
		if n > 0 {
			log.Warn(ctx, "records skipped", logger.String("metric", string(kind)), logger.Int("count", n))
		}
	}

	if opts.xlsxOut != "" {
		if err := writeXLSXFile(opts.xlsxOut, rep); err != nil {
			return err
		}
		log.Info(ctx, "workbook written", logger.String("file", opts.xlsxOut))
	}

	out := cmd.OutOrStdout()
	switch opts.format {
	case outputText:
		return renderText(out, rep)
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case outputCSV:
		return export.WriteCSV(out, rep.Answers)
	default:
		return fmt.Errorf("unknown format %q: want text, json or csv", opts.format)
	}
}

func writeXLSXFile(path string, rep analysis.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return export.WriteXLSX(f, rep)
}

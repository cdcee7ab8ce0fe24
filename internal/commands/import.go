package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bankimport-dev/bankimport/internal/config"
	"github.com/bankimport-dev/bankimport/internal/importer"
	"github.com/bankimport-dev/bankimport/internal/ledger"
	"github.com/bankimport-dev/bankimport/internal/pdftext"
	"github.com/bankimport-dev/bankimport/internal/pipeline"
	"github.com/bankimport-dev/bankimport/internal/report"
)

func newImportCommand() *cobra.Command {
	var format string
	var configPath string
	var onError string
	var outputPath string
	var reportPath string

	cmd := &cobra.Command{
		Use:   "import --format FORMAT FILE...",
		Short: "Convert bank export files into journal entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(importOptions{
				format:     format,
				configPath: configPath,
				onError:    onError,
				outputPath: outputPath,
				reportPath: reportPath,
				files:      args,
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "export format (see 'bankimport formats')")
	_ = cmd.MarkFlagRequired("format")
	cmd.Flags().StringVar(&configPath, "config", "", "path to the rule configuration")
	cmd.Flags().StringVar(&onError, "on-error", "skip", "malformed record policy: skip or abort")
	cmd.Flags().StringVar(&outputPath, "output", "", "write journal entries to a file instead of stdout")
	cmd.Flags().StringVar(&reportPath, "report", "", "append unmatched transactions to a CSV review report")

	return cmd
}

type importOptions struct {
	format     string
	configPath string
	onError    string
	outputPath string
	reportPath string
	files      []string
}

func runImport(opts importOptions) error {
	settings, err := LoadSettings()
	if err != nil {
		return err
	}

	configPath := opts.configPath
	if configPath == "" {
		configPath = settings.ConfigPath
	}
	if configPath == "" {
		configPath = defaultConfigPath()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if settings.PdftotextPath != "" {
		cfg.Pdftotext.Path = settings.PdftotextPath
	}

	policy, err := pipeline.ParsePolicy(opts.onError)
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg, importer.DefaultRegistry(), policy)
	if err != nil {
		return err
	}

	var entries []ledger.Entry
	unmatchedTotal := 0
	for _, file := range opts.files {
		result, err := importFile(p, cfg, file, opts.format)
		if err != nil {
			return err
		}
		entries = append(entries, result.Entries...)
		unmatchedTotal += len(result.Unmatched)

		if opts.reportPath != "" {
			if err := report.Append(opts.reportPath, filepath.Base(file), result.Unmatched); err != nil {
				return err
			}
		}
	}

	text := ledger.RenderAll(entries)
	if opts.outputPath != "" {
		if err := os.WriteFile(opts.outputPath, []byte(text), 0o644); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	} else {
		fmt.Print(text)
	}

	if unmatchedTotal > 0 {
		fmt.Fprintf(os.Stderr, "%d transaction(s) resolved via fallback accounts; extend the configuration to match them\n", unmatchedTotal)
	}
	return nil
}

// importFile feeds one file through the pipeline. PDF inputs are run
// through pdftotext first and parsed with the extracted-text variant of
// the format.
func importFile(p *pipeline.Pipeline, cfg *config.Config, file, format string) (*pipeline.Result, error) {
	if strings.EqualFold(filepath.Ext(file), ".pdf") {
		text, err := pdftext.Extract(cfg.Pdftotext.Path, file)
		if err != nil {
			return nil, err
		}
		if !strings.HasSuffix(strings.ToLower(format), "-pdf") {
			format += "-pdf"
		}
		return p.ProcessFile(filepath.Base(file), strings.NewReader(text), format)
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", file, err)
	}
	defer f.Close()

	return p.ProcessFile(filepath.Base(file), f, format)
}

// File: cmd/report.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/applyflow/internal/reporting"
	"github.com/xkilldash9x/applyflow/internal/results"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		input  string
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "report [run-id]",
		Short: "Render a stored run",
		Long: `Loads a run from the database (the latest one when no ID is given) or
from a JSON report passed with --input, and renders it in another format.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				run *results.Run
				err error
			)
			if input != "" {
				run, err = readJSONReport(input)
			} else {
				id := ""
				if len(args) == 1 {
					id = args[0]
				}
				run, err = loadStoredRun(cmd, a, id)
			}
			if err != nil {
				return err
			}
			if format == "" {
				format = reporting.FormatText
			}
			a.logger.Debug("Rendering run", zap.String("run_id", run.ID), zap.String("format", format))

			return writeReport(cmd.OutOrStdout(), run, format, output)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "JSON report to render instead of a stored run")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: junit, json or text (default text)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default stdout)")
	return cmd
}

func readJSONReport(path string) (*results.Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report %s: %w", path, err)
	}
	defer f.Close()
	return reporting.DecodeRun(f)
}

func loadStoredRun(cmd *cobra.Command, a *app, id string) (*results.Run, error) {
	ctx := cmd.Context()
	s, cleanup, err := a.stores.Create(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if id == "" {
		if id, err = s.LatestRunID(ctx); err != nil {
			return nil, err
		}
	}
	return s.LoadRun(ctx, id)
}

// File: cmd/fields.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/applyflow/internal/action"
	"github.com/xkilldash9x/applyflow/internal/fields"
	"github.com/xkilldash9x/applyflow/internal/pages/jobs"
)

type fieldView struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Kind     string `json:"kind"`
	Position int    `json:"position"`
	Path     string `json:"path,omitempty"`
}

// nodePather is implemented by handles that can report a positional XPath
// for the node they resolve to.
type nodePather interface {
	NodePath(ctx context.Context) (string, error)
}

func newFieldsCmd(a *app) *cobra.Command {
	var (
		root   string
		driver string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "fields <url-or-file>",
		Short: "List the required fields of an application form",
		Long: `Opens a page (a URL, or a saved HTML snapshot with --driver snapshot) and
prints the required text inputs and selects found under --root, in
document order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if driver != "" {
				a.cfg.SetBrowserDriver(driver)
			}
			views, err := extractFields(cmd.Context(), a, args[0], root)
			if err != nil {
				return err
			}
			return printFields(cmd.OutOrStdout(), views, asJSON)
		},
	}
	cmd.Flags().StringVar(&root, "root", jobs.ApplyJobDialog, "XPath of the form container")
	cmd.Flags().StringVar(&driver, "driver", "", "browser driver: chromedp, playwright or snapshot")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func extractFields(ctx context.Context, a *app, target, root string) ([]fieldView, error) {
	cfg, logger := a.cfg, a.logger

	factory, shutdown, err := pageFactory(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			logger.Warn("Browser driver shutdown failed", zap.Error(err))
		}
	}()

	page, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	exec := action.New(logger, action.PolicyFromConfig(cfg.Action()))
	if err := exec.Navigate(ctx, page, target, "open "+target); err != nil {
		return nil, err
	}
	xcfg, err := fields.ExtractorConfigFromConfig(cfg.Discovery())
	if err != nil {
		return nil, err
	}
	found, err := fields.NewExtractor(logger, exec, xcfg).Extract(ctx, page.Locate(root))
	if err != nil {
		return nil, err
	}
	return fieldViews(ctx, logger, found), nil
}

// fieldViews flattens found in document order. Paths are resolved while the
// page is still open.
func fieldViews(ctx context.Context, logger *zap.Logger, found *fields.RequiredFields) []fieldView {
	var views []fieldView
	for _, kind := range fields.Kinds() {
		for _, key := range found.Keys(kind) {
			d, _ := found.Get(kind, key)
			v := fieldView{Key: key, Label: d.Label, Kind: kind.String(), Position: d.Position}
			if np, ok := d.Handle.(nodePather); ok {
				path, err := np.NodePath(ctx)
				if err != nil {
					logger.Debug("Could not resolve node path", zap.String("field", key), zap.Error(err))
				}
				v.Path = path
			}
			views = append(views, v)
		}
	}
	return views
}

func printFields(w io.Writer, views []fieldView, asJSON bool) error {
	if asJSON {
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}
	for _, v := range views {
		if _, err := fmt.Fprintf(w, "%-6s %s\n", v.Kind, v.Key); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d required fields\n", len(views))
	return err
}

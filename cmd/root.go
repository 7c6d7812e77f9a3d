// File: cmd/root.go
// Package cmd holds the applyflow command tree.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/applyflow/internal/config"
	"github.com/xkilldash9x/applyflow/internal/observability"
)

// app carries what PersistentPreRunE loads for the subcommands.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
	stores  storeProvider
}

// Execute runs the command tree with ctx, normally a signal-aware context
// from main.
func Execute(ctx context.Context) error {
	root, _ := newRootCmd(NewStoreProvider())
	err := root.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errScenariosFailed) {
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command execution failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	observability.Sync()
	return err
}

// NewRootCommand returns a fresh command tree wired to the production store.
func NewRootCommand() *cobra.Command {
	root, _ := newRootCmd(NewStoreProvider())
	return root
}

func newRootCmd(stores storeProvider) (*cobra.Command, *app) {
	a := &app{stores: stores}

	root := &cobra.Command{
		Use:           "applyflow",
		Short:         "applyflow runs browser end-to-end scenarios against a job application flow.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)
			if err := initializeConfig(v, a.cfgFile); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}
			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				return err
			}
			a.cfg = cfg

			observability.Initialize(cfg.Logger(), zapcore.Lock(os.Stderr))
			a.logger = observability.GetLogger()
			a.logger.Debug("Starting applyflow", zap.String("version", Version))
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newRunCmd(a),
		newFieldsCmd(a),
		newReportCmd(a),
		newVersionCmd(),
	)
	return root, a
}

// initializeConfig reads the config file and environment into v.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("APPLYFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

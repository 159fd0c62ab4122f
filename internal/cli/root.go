// Package cli provides the depdash command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clintrovert/depdash/internal/api/rest"
	"github.com/clintrovert/depdash/internal/config"
)

// Builder creates the reconciler the commands operate on
type Builder func(cfg *config.Config, logger *zap.Logger) (rest.Service, error)

type runtime struct {
	build      Builder
	configPath string
	debug      bool
	logger     *zap.Logger
	cfg        *config.Config
}

// NewRootCommand creates the root command. logger may be nil, in which case
// one is created from the --debug flag.
func NewRootCommand(build Builder, logger *zap.Logger, version string) *cobra.Command {
	rt := &runtime{build: build, logger: logger}

	root := &cobra.Command{
		Use:   "depdash",
		Short: "Maintain a dependency dashboard issue",
		Long: `depdash keeps a single dashboard issue in an issue tracker in sync
with a desired title and body. It creates the issue when it is missing,
updates it when the title or body drifted, and leaves it alone otherwise.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.logger != nil {
				return nil
			}
			var err error
			if rt.debug {
				rt.logger, err = zap.NewDevelopment()
			} else {
				rt.logger, err = zap.NewProduction()
			}
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", "", "path to a TOML config file")
	root.PersistentFlags().BoolVar(&rt.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newEnsureCommand(rt),
		newCloseCommand(rt),
		newFindCommand(rt),
		newGetCommand(rt),
		newServeCommand(rt),
	)
	return root
}

// service loads configuration and builds the reconciler
func (rt *runtime) service() (rest.Service, error) {
	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return nil, err
	}

	if cwd, err := os.Getwd(); err == nil {
		if err := cfg.InferRepository(cwd); err != nil {
			rt.logger.Debug("could not infer repository from git remote", zap.Error(err))
		}
	}

	svc, err := rt.build(cfg, rt.logger)
	if err != nil {
		return nil, err
	}
	rt.cfg = cfg
	return svc, nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ralt/upt/internal/config"
	"github.com/ralt/upt/pkg/upt"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE
// handlers. A nil Err means the message was already printed.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// RegistryBuilder builds the plugin registry once the configuration is known.
// Backends write to stdout when no output is given.
type RegistryBuilder func(cfg *config.Config, stdout io.Writer) (*upt.Registry, error)

// app holds what the subcommands share
type app struct {
	build      RegistryBuilder
	logger     *logrus.Logger
	configPath string
	cfg        *config.Config
}

func (a *app) registry(cmd *cobra.Command) (*upt.Registry, error) {
	return a.build(a.cfg, cmd.OutOrStdout())
}

// NewRootCmd creates the root command. Subcommands log through logger.
func NewRootCmd(build RegistryBuilder, logger *logrus.Logger) *cobra.Command {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	a := &app{build: build, logger: logger}

	rootCmd := &cobra.Command{
		Use:   "upt",
		Short: "Translate upstream packages into distribution package definitions",
		Long: `upt reads the metadata of a package from an upstream ecosystem (a
frontend, such as pypi or npm) and writes an equivalent package definition
for a distribution (a backend, such as arch or rpm).`,
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
			return &ExitError{Code: 1}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Configuration file (default $XDG_CONFIG_HOME/upt/config.yaml)")

	rootCmd.AddCommand(newListCmd(a, upt.Frontends, "list-frontends", "List the available frontends"))
	rootCmd.AddCommand(newListCmd(a, upt.Backends, "list-backends", "List the available backends"))
	rootCmd.AddCommand(newPackageCmd(a))

	return rootCmd
}

// Execute runs cmd and returns the process exit code. Errors that were not
// already reported are written to stderr directly, so --quiet never hides them.
func Execute(ctx context.Context, cmd *cobra.Command) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), exitErr.Err)
		}
		return exitErr.Code
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Fatal error: %v\n", err)
	return 1
}

func newListCmd(a *app, category upt.Category, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := a.registry(cmd)
			if err != nil {
				return err
			}
			for _, name := range registry.Names(category) {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

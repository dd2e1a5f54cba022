package cli

import (
	"fmt"

	"github.com/ralt/upt/internal/dispatch"
	uptlog "github.com/ralt/upt/internal/log"
	"github.com/spf13/cobra"
)

// newPackageCmd creates the package command
func newPackageCmd(a *app) *cobra.Command {
	var (
		req         dispatch.Request
		debug       bool
		quiet       bool
		downloadDir string
	)

	cmd := &cobra.Command{
		Use:   "package -f FRONTEND -b BACKEND [-o OUTPUT] PACKAGE",
		Short: "Create a package definition",
		Long: `Parses PACKAGE with the given frontend and writes the package
definition produced by the given backend to OUTPUT, or to standard output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Package = args[0]

			level := uptlog.LevelInfo
			switch {
			case debug:
				level = uptlog.LevelDebug
			case quiet:
				level = uptlog.LevelQuiet
			}
			uptlog.Configure(a.logger, level, cmd.OutOrStdout(), cmd.ErrOrStderr())

			if cmd.Flags().Changed("download-dir") {
				a.cfg.Download.Dir = downloadDir
			}

			registry, err := a.registry(cmd)
			if err != nil {
				return err
			}

			err = dispatch.Run(cmd.Context(), registry, a.logger, req)
			if err != nil && dispatch.IsReported(err) {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return &ExitError{Code: 1}
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&req.Frontend, "frontend", "f", "", "Frontend used to parse the package")
	cmd.Flags().StringVarP(&req.Backend, "backend", "b", "", "Backend used to create the package definition")
	cmd.Flags().StringVarP(&req.Output, "output", "o", "", "Output file or directory (default standard output)")
	cmd.Flags().StringVar(&downloadDir, "download-dir", "", "Directory archives are downloaded to (default temporary directory)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not log anything")

	_ = cmd.MarkFlagRequired("frontend")
	_ = cmd.MarkFlagRequired("backend")
	cmd.MarkFlagsMutuallyExclusive("debug", "quiet")

	return cmd
}

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/coverkit/internal/application"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/config"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/reporters"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/wizard"
	"github.com/felixgeelhaar/coverkit/internal/mcp"
)

func (a *app) runCommand() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run [tests...]",
		Short: "Run tests with coverage, write reports and check thresholds",
		Long: `Run executes the project's tests in isolated workers with coverage
collection enabled. Without arguments every discovered test runs; with
arguments only the named test files or packages run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := f.overrides(cmd)
			if err != nil {
				return err
			}
			req := a.request(cmd)
			req.Overrides = overrides
			req.Files = args
			req.Runner = f.runner
			req.Command = f.command
			req.BlobDir = f.blobOut
			req.Workers = f.workers
			req.Resolve.Strict = f.strict

			svc, err := a.service(cmd, a.stdout)
			if err != nil {
				return err
			}
			if f.watch {
				return a.runWatch(cmd.Context(), svc, req)
			}
			result, err := svc.Run(cmd.Context(), req)
			return a.printResult(result, err)
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) mergeCommand() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "merge <blob|dir>...",
		Short: "Merge coverage blobs from earlier runs into one report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := f.overrides(cmd)
			if err != nil {
				return err
			}
			req := a.request(cmd)
			req.Overrides = overrides
			req.Resolve.Strict = f.strict

			svc, err := a.service(cmd, a.stdout)
			if err != nil {
				return err
			}
			result, err := svc.Merge(cmd.Context(), req, args)
			return a.printResult(result, err)
		},
	}
	f.registerReportFlags(cmd)
	return cmd
}

func (a *app) resolveCommand() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the fully-defaulted coverage configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overrides, err := f.overrides(cmd)
			if err != nil {
				return err
			}
			req := a.request(cmd)
			req.Overrides = overrides
			req.Resolve.Strict = f.strict

			svc, err := a.service(cmd, a.stdout)
			if err != nil {
				return err
			}
			resolved, err := svc.Resolve(cmd.Context(), req)
			if err != nil {
				return err
			}
			for _, w := range resolved.Warnings {
				fmt.Fprintln(a.stderr, "warning:", w)
			}
			return config.WriteResolved(a.stdout, resolved)
		},
	}
	f.registerReportFlags(cmd)
	return cmd
}

func (a *app) initCommand() *cobra.Command {
	var (
		force          bool
		nonInteractive bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .coverkit.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := joinDir(a.flags.dir, a.flags.configPath)
			if _, err := os.Stat(path); err == nil && !force {
				return usageError{err: fmt.Errorf("%s already exists (use --force to overwrite)", path)}
			}

			svc, err := a.service(cmd, a.stdout)
			if err != nil {
				return err
			}
			req := a.request(cmd)
			req.ConfigRequired = false
			opts, err := svc.Options(req)
			if err != nil {
				return err
			}

			if !nonInteractive && isTerminal(a.stdin) {
				var confirmed bool
				opts, confirmed, err = wizard.Run(opts, svc.Providers(), a.stdout, a.stdin)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(a.stdout, "Init cancelled.")
					return nil
				}
			} else if opts.Enabled == nil {
				enabled := true
				opts.Enabled = &enabled
			}

			if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
				return err
			}
			file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600) // #nosec G304 -- path comes from the --config flag
			if err != nil {
				return err
			}
			if err := config.Write(file, opts); err != nil {
				_ = file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")
	cmd.Flags().BoolVar(&nonInteractive, "no-interactive", false, "Write defaults without the wizard")
	return cmd
}

func (a *app) mcpCommand() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve coverage tools over the Model Context Protocol (stdio)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// stdout carries the protocol; test and reporter output goes to stderr
			svc, err := a.service(cmd, a.stderr)
			if err != nil {
				return err
			}
			mcp.Version = Version
			server := mcp.New(svc, mcp.Config{Dir: a.flags.dir, ConfigPath: a.flags.configPath, Workers: workers})
			return server.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of isolated workers (default: available parallelism)")
	return cmd
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(a.stdout, "coverkit %s (commit %s, built %s)\n", Version, Commit, Date)
		},
	}
}

// printResult writes the run outcome and maps it to an error.
func (a *app) printResult(result application.RunResult, err error) error {
	for _, file := range result.Partial {
		fmt.Fprintf(a.stderr, "warning: no coverage collected for %s\n", file)
	}
	for _, file := range result.Failed {
		fmt.Fprintf(a.stderr, "FAIL %s\n", file)
	}
	if err != nil {
		// report-on-failure still evaluates thresholds when tests fail
		if len(result.Summary.Files) > 0 {
			reporters.WriteEvaluation(a.stdout, result.Evaluation)
		}
		return err
	}
	reporters.WriteEvaluation(a.stdout, result.Evaluation)
	if result.BlobPath != "" {
		fmt.Fprintf(a.stdout, "Wrote coverage blob %s\n", result.BlobPath)
	}
	if !result.Passed() {
		return errThresholds
	}
	return nil
}

func joinDir(dir, path string) string {
	if filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

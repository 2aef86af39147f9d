// Package cli implements the coverkit command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/coverkit/internal/application"
	"github.com/felixgeelhaar/coverkit/internal/domain"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/logging"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitFailed     = 1 // tests or thresholds failed
	ExitConfig     = 2 // invalid configuration or usage
	ExitProvider   = 3 // provider initialization or report generation failed
	ExitCapability = 4 // provider lacks a required capability
)

// Service defines the application operations the command line needs.
type Service interface {
	Options(req application.Request) (domain.CoverageOptions, error)
	Resolve(ctx context.Context, req application.Request) (domain.ResolvedCoverageOptions, error)
	Run(ctx context.Context, req application.Request) (application.RunResult, error)
	Watch(ctx context.Context, req application.Request, watcher application.FileWatcher, callback application.WatchCallback) error
	Merge(ctx context.Context, req application.Request, inputs []string) (application.RunResult, error)
	Providers() []string
}

// Env is what a Service is built from once global flags are parsed.
type Env struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	EnvFile string
}

// ServiceFactory builds the service for a command.
type ServiceFactory func(env Env) Service

var errThresholds = errors.New("coverage thresholds not met")

// usageError marks errors raised by cobra before a command ran.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// globalFlags are shared by every command.
type globalFlags struct {
	dir        string
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
}

// app carries the state of one invocation.
type app struct {
	stdout     io.Writer
	stderr     io.Writer
	stdin      io.Reader
	newService ServiceFactory
	flags      globalFlags
	// started is set once arguments are validated and a command runs.
	started bool
}

// Run executes the command line and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer, newService ServiceFactory) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, stdout, stderr, os.Stdin, newService)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, stdin io.Reader, newService ServiceFactory) int {
	a := &app{stdout: stdout, stderr: stderr, stdin: stdin, newService: newService}
	root := a.rootCommand()
	if len(args) > 0 {
		args = args[1:]
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil && !a.started {
		err = usageError{err: err}
	}
	return exitCode(err, stderr)
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "coverkit",
		Short:         "Collect, merge and enforce test coverage across runners",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			a.started = true
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.dir, "dir", "C", ".", "Project directory")
	pf.StringVarP(&a.flags.configPath, "config", "c", application.DefaultConfigFile, "Config file path, relative to the project directory")
	pf.StringVar(&a.flags.envFile, "env-file", ".env", "Dotenv file with COVERKIT_* overrides")
	pf.StringVar(&a.flags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.StringVar(&a.flags.logFormat, "log-format", logging.FormatText, "Log format (text, json)")

	root.AddCommand(
		a.runCommand(),
		a.mergeCommand(),
		a.resolveCommand(),
		a.initCommand(),
		a.mcpCommand(),
		a.versionCommand(),
	)
	return root
}

// service builds the service with command output sent to stdout.
func (a *app) service(cmd *cobra.Command, stdout io.Writer) (Service, error) {
	logger, err := logging.New(logging.Config{Level: a.flags.logLevel, Format: a.flags.logFormat, Output: a.stderr})
	if err != nil {
		return nil, usageError{err: err}
	}
	envFile := a.flags.envFile
	if !cmd.Flags().Changed("env-file") && envFile != "" {
		envFile = joinDir(a.flags.dir, envFile)
	}
	return a.newService(Env{Stdout: stdout, Stderr: a.stderr, Logger: logger, EnvFile: envFile}), nil
}

// request returns the shared part of every application request.
func (a *app) request(cmd *cobra.Command) application.Request {
	return application.Request{
		Dir:            a.flags.dir,
		ConfigPath:     a.flags.configPath,
		ConfigRequired: cmd.Flags().Changed("config"),
	}
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return ExitOK
	}
	if !errors.Is(err, errThresholds) {
		fmt.Fprintln(stderr, "coverkit:", err)
	}
	return codeFor(err)
}

func codeFor(err error) int {
	var usage usageError
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, domain.ErrTestsFailed), errors.Is(err, errThresholds):
		return ExitFailed
	case errors.As(err, &usage), domain.IsConfigError(err), errors.Is(err, application.ErrConfigNotFound):
		return ExitConfig
	case domain.IsCapabilityError(err):
		return ExitCapability
	default:
		return ExitProvider
	}
}

package runners

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

// ErrEmptyCommand is returned when a command template has no words.
var ErrEmptyCommand = errors.New("empty test command")

// CommandExecutor runs one test file per call through an external command.
type CommandExecutor struct {
	// Dir is the directory the command runs in.
	Dir string
	// Command is the argv template; see the package documentation for
	// placeholders.
	Command []string
	Stdout  io.Writer
	Stderr  io.Writer
	// Exec overrides command execution (for testing).
	Exec func(ctx context.Context, dir string, argv, env []string) error
}

// NewCommandExecutor splits a command template on whitespace.
func NewCommandExecutor(dir, command string) CommandExecutor {
	return CommandExecutor{Dir: dir, Command: strings.Fields(command)}
}

// Execute implements application.TestExecutor.
func (e CommandExecutor) Execute(ctx context.Context, w domain.WorkerContext, file string) error {
	if len(e.Command) == 0 {
		return ErrEmptyCommand
	}
	argv := Expand(e.Command, w, file)
	execFn := e.Exec
	if execFn == nil {
		execFn = e.runCommand
	}
	if err := execFn(ctx, e.Dir, argv, Env(w, file)); err != nil {
		return fmt.Errorf("%s %s: %w", argv[0], file, err)
	}
	return nil
}

// Expand substitutes the placeholders of every template word.
func Expand(template []string, w domain.WorkerContext, file string) []string {
	base := path.Base(strings.ReplaceAll(file, "\\", "/"))
	r := strings.NewReplacer(
		"{file}", file,
		"{name}", strings.TrimSuffix(base, path.Ext(base)),
		"{profile}", w.ProfilePath(file),
		"{dir}", w.TempDir,
	)
	out := make([]string, len(template))
	for i, word := range template {
		out[i] = r.Replace(word)
	}
	return out
}

// Env returns the worker variables exported to the child process.
func Env(w domain.WorkerContext, file string) []string {
	return []string{
		"COVERKIT_PROFILE=" + w.ProfilePath(file),
		"COVERKIT_WORKER_DIR=" + w.TempDir,
		"COVERKIT_WORKER_ID=" + strconv.Itoa(w.WorkerID),
		"COVERKIT_RUN_ID=" + w.RunID,
	}
}

func (e CommandExecutor) runCommand(ctx context.Context, dir string, argv, env []string) error {
	// #nosec G204 -- Command comes from the runner preset or user configuration
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = writerOr(e.Stdout, os.Stdout)
	cmd.Stderr = writerOr(e.Stderr, os.Stderr)
	return cmd.Run()
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}

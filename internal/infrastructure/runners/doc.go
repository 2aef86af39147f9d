// Package runners turns test files into toolchain command lines.
//
// A Runner describes one language toolchain: the marker files that
// identify a project, the coverage provider its output feeds, the test
// file patterns and a command template. The Registry detects the runner
// for a project directory and builds an application.TestExecutor for it.
//
// Command templates are split on whitespace and support the placeholders:
//
//	{file}     the test file, relative to the project directory
//	{name}     the test file's base name without extension
//	{profile}  the per-file profile path inside the worker directory
//	{dir}      the worker directory
//
// The same values are exported to the child process as COVERKIT_PROFILE,
// COVERKIT_WORKER_DIR, COVERKIT_WORKER_ID and COVERKIT_RUN_ID.
//
// Usage:
//
//	registry := runners.NewRegistry()
//	runner, err := registry.Detect(projectDir)
//	if err != nil {
//	    return err
//	}
//	files, err := runner.Discover(ctx, projectDir)
//	executor := registry.Executor(runner, projectDir, os.Stdout, os.Stderr)
package runners

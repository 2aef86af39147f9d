package runners

import (
	"context"
	"io"

	"github.com/felixgeelhaar/coverkit/internal/application"
)

// Planner implements application.TestPlanner over a runner registry.
type Planner struct {
	Registry *Registry
	Stdout   io.Writer
	Stderr   io.Writer
}

// Plan picks the runner for req.Dir and lists its tests. A command
// template replaces the runner's executor; without explicit files the
// runner still discovers them.
func (p Planner) Plan(ctx context.Context, req application.PlanRequest) (application.TestPlan, error) {
	runner, err := p.runner(req)
	if err != nil {
		if req.Command == "" || len(req.Files) == 0 {
			return application.TestPlan{}, err
		}
		executor := NewCommandExecutor(req.Dir, req.Command)
		executor.Stdout, executor.Stderr = p.Stdout, p.Stderr
		return application.TestPlan{Runner: "command", Executor: executor, Files: req.Files}, nil
	}

	plan := application.TestPlan{Runner: runner.Name, Provider: runner.Provider, Files: req.Files}
	if req.Command != "" {
		executor := NewCommandExecutor(req.Dir, req.Command)
		executor.Stdout, executor.Stderr = p.Stdout, p.Stderr
		plan.Executor = executor
	} else {
		plan.Executor = p.Registry.Executor(runner, req.Dir, p.Stdout, p.Stderr)
	}
	if len(plan.Files) == 0 {
		if plan.Files, err = runner.Discover(ctx, req.Dir); err != nil {
			return application.TestPlan{}, err
		}
	}
	return plan, nil
}

func (p Planner) runner(req application.PlanRequest) (Runner, error) {
	if req.Runner != "" {
		return p.Registry.Get(req.Runner)
	}
	return p.Registry.Detect(req.Dir)
}

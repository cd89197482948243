package harness

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// SuiteResult summarizes a batch of scenario runs.
type SuiteResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure represents a failed scenario.
type ScenarioFailure struct {
	Name         string `json:"name,omitempty"`
	ScenarioPath string `json:"scenario_path"`
	Error        string `json:"error"`
}

// RunAll loads and runs the scenario files at paths, at most parallel at a
// time (0 means GOMAXPROCS). Every scenario gets its own database, so runs
// are independent. Failures are reported in path order.
func RunAll(ctx context.Context, paths []string, parallel int) (*SuiteResult, error) {
	if parallel <= 0 {
		parallel = runtime.GOMAXPROCS(0)
	}

	failures := make([]*ScenarioFailure, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			failures[i] = runOne(gctx, path)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &SuiteResult{Total: len(paths)}
	for _, f := range failures {
		if f == nil {
			result.Passed++
			continue
		}
		result.Failed++
		result.Failures = append(result.Failures, *f)
	}
	return result, nil
}

// runOne returns nil when the scenario passes.
func runOne(ctx context.Context, path string) *ScenarioFailure {
	scenario, err := LoadScenario(path)
	if err != nil {
		return &ScenarioFailure{ScenarioPath: path, Error: fmt.Sprintf("failed to load scenario: %v", err)}
	}
	result, err := Run(ctx, scenario)
	if err != nil {
		return &ScenarioFailure{Name: scenario.Name, ScenarioPath: path, Error: fmt.Sprintf("scenario execution failed: %v", err)}
	}
	if !result.Pass {
		return &ScenarioFailure{
			Name:         scenario.Name,
			ScenarioPath: path,
			Error:        strings.Join(result.Errors, "; "),
		}
	}
	return nil
}

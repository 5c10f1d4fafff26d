// Package validator implements the Workflow Validator: definition-time
// checks that a job graph is well-formed before it's ever run.
package validator

import (
	"fmt"
	"sort"

	"github.com/workforge/workforge/job"
	"github.com/workforge/workforge/resolver"
)

// Issue is a single validation failure, carrying the job name it
// pertains to so callers can report actionable messages.
type Issue struct {
	JobName string
	Message string
}

func (i Issue) String() string {
	if i.JobName == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.JobName, i.Message)
}

// Error aggregates every Issue found by Validate. A graph with zero
// issues passes validation; Error is returned only when len(Issues) > 0.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("validator: %s", e.Issues[0])
	}
	msg := fmt.Sprintf("validator: %d issues found:", len(e.Issues))
	for _, iss := range e.Issues {
		msg += fmt.Sprintf("\n  - %s", iss)
	}
	return msg
}

// Validate checks g for every definition-time invariant a runnable
// workflow graph must satisfy: every dependency and input-binding
// reference resolves to a known job, the graph has no cycles, and at
// least one start job and one terminal job exist.
//
// There is deliberately no type-consistency-across-edges check: Job
// carries no type declarations (inputs/outputs cross the DAG as `any`,
// by design), so "where a type is provided" is always vacuous here.
func Validate(g *job.Graph) error {
	var issues []Issue

	names := make(map[string]bool, len(g.Jobs))
	for name := range g.Jobs {
		names[name] = true
	}

	issues = append(issues, checkDependencies(g, names)...)
	issues = append(issues, checkInputBindings(g, names)...)
	issues = append(issues, checkCycles(g)...)
	issues = append(issues, checkStartAndTerminalJobs(g)...)

	if len(issues) == 0 {
		return nil
	}
	sort.Slice(issues, func(i, k int) bool {
		if issues[i].JobName != issues[k].JobName {
			return issues[i].JobName < issues[k].JobName
		}
		return issues[i].Message < issues[k].Message
	})
	return &Error{Issues: issues}
}

func checkDependencies(g *job.Graph, names map[string]bool) []Issue {
	var issues []Issue
	for _, name := range g.Names() {
		j := g.Jobs[name]
		for _, dep := range j.Dependencies {
			if !names[dep] {
				issues = append(issues, Issue{JobName: name, Message: fmt.Sprintf("needs unknown job %q", dep)})
			}
		}
	}
	return issues
}

func checkInputBindings(g *job.Graph, names map[string]bool) []Issue {
	var issues []Issue
	for _, name := range g.Names() {
		j := g.Jobs[name]
		switch j.Input.Kind {
		case job.InputFromJob:
			if !names[j.Input.JobName] {
				issues = append(issues, Issue{JobName: name, Message: fmt.Sprintf("inputsFromJob references unknown job %q", j.Input.JobName)})
			}
		case job.InputFromMultiple:
			for _, src := range j.Input.Sources {
				if !names[src.JobName] {
					issues = append(issues, Issue{JobName: name, Message: fmt.Sprintf("inputsFromMultiple references unknown job %q", src.JobName)})
				}
			}
		}
		if j.FallbackJobName != "" && !names[j.FallbackJobName] {
			issues = append(issues, Issue{JobName: name, Message: fmt.Sprintf("fallbackTo references unknown job %q", j.FallbackJobName)})
		}
	}
	return issues
}

func checkCycles(g *job.Graph) []Issue {
	if _, err := resolver.New().Levels(g); err != nil {
		var cycleErr *resolver.CircularDependencyError
		if isCircular(err, &cycleErr) {
			return []Issue{{Message: fmt.Sprintf("circular dependency among jobs: %v", cycleErr.Residual)}}
		}
		return []Issue{{Message: err.Error()}}
	}
	return nil
}

func isCircular(err error, target **resolver.CircularDependencyError) bool {
	if ce, ok := err.(*resolver.CircularDependencyError); ok {
		*target = ce
		return true
	}
	return false
}

func checkStartAndTerminalJobs(g *job.Graph) []Issue {
	var issues []Issue

	hasStart := false
	hasTerminal := false
	for _, name := range g.Names() {
		j := g.Jobs[name]
		if len(j.Dependencies) == 0 {
			hasStart = true
		}
		if j.OutputToWorkflow || j.TerminatesWorkflow {
			hasTerminal = true
		}
	}

	if len(g.Names()) == 0 {
		return issues
	}
	if !hasStart {
		issues = append(issues, Issue{Message: "graph has no start job (a job with no dependencies)"})
	}
	if !hasTerminal {
		issues = append(issues, Issue{Message: "graph has no terminal job (outputsToWorkflow or terminatesWorkflow)"})
	}
	return issues
}

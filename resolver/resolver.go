// Package resolver implements the Dependency Resolver: it orders a
// Job graph into execution levels via a Kahn-style topological sort,
// caching results by graph signature so repeated resolution of the same
// graph shape is free.
package resolver

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/workforge/workforge/job"
)

// CircularDependencyError reports a graph that could not be fully
// ordered: Residual lists the job names that still had unsatisfied
// dependencies when no further progress could be made.
type CircularDependencyError struct {
	Residual []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("resolver: circular dependency among jobs %v", e.Residual)
}

// Resolver computes and caches execution levels for Job graphs.
type Resolver struct {
	mu    sync.Mutex
	cache map[string][][]string
}

// New creates an empty Resolver.
func New() *Resolver {
	return &Resolver{cache: make(map[string][][]string)}
}

// Levels returns an ordered list of levels: each level is the set of job
// names (sorted lexicographically) whose dependencies are all satisfied
// by jobs in prior levels. Results are cached by a signature of the
// graph's dependency shape, so resolving the same shape twice returns
// the cached list unchanged.
func (r *Resolver) Levels(g *job.Graph) ([][]string, error) {
	sig := signature(g)

	r.mu.Lock()
	if cached, ok := r.cache[sig]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	levels, err := computeLevels(g)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[sig] = levels
	r.mu.Unlock()

	return levels, nil
}

// computeLevels runs Kahn's algorithm: repeatedly peel off the set of
// not-yet-scheduled jobs whose dependencies are all already scheduled,
// lexicographically sorted within each level for a stable order.
func computeLevels(g *job.Graph) ([][]string, error) {
	remaining := make(map[string][]string, len(g.Jobs))
	for name, j := range g.Jobs {
		remaining[name] = append([]string{}, j.Dependencies...)
	}

	scheduled := make(map[string]bool, len(remaining))
	var levels [][]string

	for len(scheduled) < len(remaining) {
		var level []string
		for name, deps := range remaining {
			if scheduled[name] {
				continue
			}
			if allSatisfied(deps, scheduled) {
				level = append(level, name)
			}
		}

		if len(level) == 0 {
			var residual []string
			for name := range remaining {
				if !scheduled[name] {
					residual = append(residual, name)
				}
			}
			sort.Strings(residual)
			return nil, &CircularDependencyError{Residual: residual}
		}

		sort.Strings(level)
		for _, name := range level {
			scheduled[name] = true
		}
		levels = append(levels, level)
	}

	return levels, nil
}

func allSatisfied(deps []string, scheduled map[string]bool) bool {
	for _, d := range deps {
		if !scheduled[d] {
			return false
		}
	}
	return true
}

// signature canonicalizes the graph's dependency shape as a
// name->sorted(deps) map and hashes it with SHA-256, so cosmetically
// reordered (but structurally identical) graphs share a cache entry.
func signature(g *job.Graph) string {
	names := make([]string, 0, len(g.Jobs))
	for name := range g.Jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		deps := append([]string{}, g.Jobs[name].Dependencies...)
		sort.Strings(deps)
		fmt.Fprintf(h, "%s<-%v;", name, deps)
	}
	return hex.EncodeToString(h.Sum(nil))
}

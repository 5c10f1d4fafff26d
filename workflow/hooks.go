package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/workforge/workforge/observability"
)

func (e *Engine) invokeOnWorkflowStart() {
	if e.cfg.Hooks.OnWorkflowStart == nil {
		return
	}
	defer safeguard()
	e.cfg.Hooks.OnWorkflowStart(e.cfg.Name)
}

func (e *Engine) invokeOnWorkflowComplete(result *Result) {
	if e.cfg.Hooks.OnWorkflowComplete == nil {
		return
	}
	defer safeguard()
	e.cfg.Hooks.OnWorkflowComplete(result)
}

func (e *Engine) invokeOnJobStart(jobName string) {
	if e.cfg.Hooks.OnJobStart == nil {
		return
	}
	defer safeguard()
	e.cfg.Hooks.OnJobStart(jobName)
}

func (e *Engine) invokeOnJobComplete(jobName string, output any, duration time.Duration) {
	if e.cfg.Hooks.OnJobComplete == nil {
		return
	}
	defer safeguard()
	e.cfg.Hooks.OnJobComplete(jobName, output, duration)
}

func (e *Engine) invokeOnJobError(jobName string, err error) {
	if e.cfg.Hooks.OnJobError == nil {
		return
	}
	defer safeguard()
	e.cfg.Hooks.OnJobError(jobName, err)
}

// safeguard recovers a panicking hook so one misbehaving callback can't
// take down a run, and logs the panic value through slog's default
// logger. Hook errors have no return path by design; a hook that needs
// to report failure should do so through its own logger.
func safeguard() {
	if r := recover(); r != nil {
		slog.Default().Error("workflow: hook panicked", "panic", r)
	}
}

func (e *Engine) emitWorkflowStart(ctx context.Context) {
	e.cfg.Observer.OnEvent(ctx, observability.Event{
		Type:      EventWorkflowStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "workflow",
		Data:      map[string]any{"name": e.cfg.Name},
	})
}

func (e *Engine) emitWorkflowComplete(ctx context.Context, result *Result) {
	e.cfg.Observer.OnEvent(ctx, observability.Event{
		Type:      EventWorkflowComplete,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "workflow",
		Data: map[string]any{
			"name":    e.cfg.Name,
			"success": result.Success,
			"elapsed": result.Duration,
		},
	})
}

func (e *Engine) emitJobStart(ctx context.Context, jobName string) {
	e.cfg.Observer.OnEvent(ctx, observability.Event{
		Type:      EventJobStart,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "workflow",
		Data:      map[string]any{"job": jobName},
	})
}

func (e *Engine) emitJobSkipped(ctx context.Context, jobName string) {
	e.cfg.Observer.OnEvent(ctx, observability.Event{
		Type:      EventJobSkipped,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "workflow",
		Data:      map[string]any{"job": jobName},
	})
}

func (e *Engine) emitJobComplete(ctx context.Context, jobName string, output any, duration time.Duration) {
	e.cfg.Observer.OnEvent(ctx, observability.Event{
		Type:      EventJobComplete,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "workflow",
		Data:      map[string]any{"job": jobName, "duration": duration},
	})
}

func (e *Engine) emitJobFailed(ctx context.Context, jobName string, err error) {
	e.cfg.Observer.OnEvent(ctx, observability.Event{
		Type:      EventJobFailed,
		Level:     observability.LevelError,
		Timestamp: time.Now(),
		Source:    "workflow",
		Data:      map[string]any{"job": jobName, "error": err.Error()},
	})
}

func (e *Engine) emitHalted(ctx context.Context, err error) {
	e.cfg.Observer.OnEvent(ctx, observability.Event{
		Type:      EventHalted,
		Level:     observability.LevelError,
		Timestamp: time.Now(),
		Source:    "workflow",
		Data:      map[string]any{"error": err.Error()},
	})
}

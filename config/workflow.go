package config

import "time"

// WorkflowConfig tunes a single Workflow Engine run.
type WorkflowConfig struct {
	Name    string        `json:"name"`
	Timeout time.Duration `json:"timeout"`
	Breaker BreakerConfig `json:"breaker"`
	DLQ     DLQConfig     `json:"dlq"`
}

// DefaultWorkflowConfig returns an untimed workflow with default
// breaker and in-memory DLQ settings.
func DefaultWorkflowConfig(name string) WorkflowConfig {
	return WorkflowConfig{
		Name:    name,
		Breaker: DefaultBreakerConfig(),
		DLQ:     DefaultDLQConfig(),
	}
}

func (c *WorkflowConfig) Merge(source WorkflowConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}
	if source.Timeout > 0 {
		c.Timeout = source.Timeout
	}
	c.Breaker.Merge(source.Breaker)
	c.DLQ.Merge(source.DLQ)
}

package job

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/workforge/workforge/breaker"
	"github.com/workforge/workforge/retry"
)

// yamlDoc is the on-disk shape LoadGraph parses. Durations are plain
// strings (e.g. "500ms", "2s"), parsed with time.ParseDuration, since
// yaml.v3 has no native time.Duration support.
type yamlDoc struct {
	Jobs []yamlJob `yaml:"jobs"`
}

type yamlJob struct {
	Name               string       `yaml:"name"`
	RunsWith           string       `yaml:"runsWith"`
	Needs              []string     `yaml:"needs,omitempty"`
	Input              *yamlInput   `yaml:"input,omitempty"`
	OutputsToWorkflow  bool         `yaml:"outputsToWorkflow,omitempty"`
	TerminatesWorkflow bool         `yaml:"terminatesWorkflow,omitempty"`
	RetryOnError       *yamlRetry   `yaml:"retryOnError,omitempty"`
	CircuitBreaker     *yamlBreaker `yaml:"circuitBreaker,omitempty"`
	FallbackTo         string       `yaml:"fallbackTo,omitempty"`
}

type yamlInput struct {
	From     string            `yaml:"from"` // "workflow" | "job" | "multiple"
	Job      string            `yaml:"job,omitempty"`
	Multiple []yamlMultiSource `yaml:"multiple,omitempty"`
}

type yamlMultiSource struct {
	Job      string            `yaml:"job"`
	Mappings map[string]string `yaml:"mappings,omitempty"`
}

type yamlRetry struct {
	MaxAttempts         int      `yaml:"maxAttempts"`
	Strategy            string   `yaml:"strategy"`
	ConstantDelay       string   `yaml:"constantDelay,omitempty"`
	LinearInit          string   `yaml:"linearInit,omitempty"`
	LinearInc           string   `yaml:"linearInc,omitempty"`
	LinearMax           string   `yaml:"linearMax,omitempty"`
	ExpInit             string   `yaml:"expInit,omitempty"`
	ExpMult             float64  `yaml:"expMult,omitempty"`
	ExpMax              string   `yaml:"expMax,omitempty"`
	ExpJitter           bool     `yaml:"expJitter,omitempty"`
	Timeout             string   `yaml:"timeout,omitempty"`
	RetryableErrorKinds []string `yaml:"retryableErrorKinds,omitempty"`
}

type yamlBreaker struct {
	Threshold     int    `yaml:"threshold"`
	Timeout       string `yaml:"timeout"`
	HalfOpenCalls int    `yaml:"halfOpenCalls"`
	SharedKey     string `yaml:"sharedKey,omitempty"`
}

// LoadGraph parses a YAML workflow definition into a Graph, using the
// same Job fields the fluent builder produces. It does not validate
// dependency references or check for cycles — that's the validator's
// job, run separately.
func LoadGraph(r io.Reader) (*Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("job: read graph definition: %w", err)
	}

	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("job: parse graph definition: %w", err)
	}

	g := NewGraph()
	for _, yj := range doc.Jobs {
		j, err := yj.toJob()
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", yj.Name, err)
		}
		if err := g.Add(j); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (yj yamlJob) toJob() (*Job, error) {
	j := New(yj.Name, yj.RunsWith)
	if yj.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if yj.RunsWith == "" {
		return nil, fmt.Errorf("runsWith is required")
	}
	j.Needs(yj.Needs...)
	j.OutputToWorkflow = yj.OutputsToWorkflow
	j.TerminatesWorkflow = yj.TerminatesWorkflow
	j.FallbackJobName = yj.FallbackTo

	if yj.Input != nil {
		binding, err := yj.Input.toBinding()
		if err != nil {
			return nil, err
		}
		j.Input = binding
	}

	if yj.RetryOnError != nil {
		policy, err := yj.RetryOnError.toPolicy()
		if err != nil {
			return nil, err
		}
		j.RetryPolicy = &policy
	}

	if yj.CircuitBreaker != nil {
		cfg, err := yj.CircuitBreaker.toConfig()
		if err != nil {
			return nil, err
		}
		j.Breaker = &BreakerBinding{Config: cfg, SharedKey: yj.CircuitBreaker.SharedKey}
	}

	return j, nil
}

func (yi yamlInput) toBinding() (InputBinding, error) {
	switch yi.From {
	case "", "workflow":
		return InputBinding{Kind: InputFromWorkflow}, nil
	case "job":
		if yi.Job == "" {
			return InputBinding{}, fmt.Errorf("input.from: \"job\" requires input.job")
		}
		return InputBinding{Kind: InputFromJob, JobName: yi.Job}, nil
	case "multiple":
		sources := make([]MultiSource, 0, len(yi.Multiple))
		for _, m := range yi.Multiple {
			ms := MultiSource{JobName: m.Job}
			for target, source := range m.Mappings {
				ms.Mappings = append(ms.Mappings, FieldMapping{TargetField: target, SourceField: source})
			}
			sources = append(sources, ms)
		}
		return InputBinding{Kind: InputFromMultiple, Sources: sources}, nil
	default:
		return InputBinding{}, fmt.Errorf("input.from: unknown value %q", yi.From)
	}
}

func (yr yamlRetry) toPolicy() (retry.Policy, error) {
	p := retry.Policy{
		MaxAttempts:         yr.MaxAttempts,
		ExpMult:             yr.ExpMult,
		ExpJitter:           yr.ExpJitter,
		RetryableErrorKinds: yr.RetryableErrorKinds,
	}

	switch yr.Strategy {
	case "", "none":
		p.Strategy = retry.StrategyNone
	case "constant":
		p.Strategy = retry.StrategyConstant
	case "linear":
		p.Strategy = retry.StrategyLinear
	case "exponential":
		p.Strategy = retry.StrategyExponential
	default:
		return p, fmt.Errorf("retryOnError.strategy: unknown value %q", yr.Strategy)
	}

	durations := []struct {
		field string
		src   string
		dst   *time.Duration
	}{
		{"constantDelay", yr.ConstantDelay, &p.ConstantDelay},
		{"linearInit", yr.LinearInit, &p.LinearInit},
		{"linearInc", yr.LinearInc, &p.LinearInc},
		{"linearMax", yr.LinearMax, &p.LinearMax},
		{"expInit", yr.ExpInit, &p.ExpInit},
		{"expMax", yr.ExpMax, &p.ExpMax},
		{"timeout", yr.Timeout, &p.Timeout},
	}
	for _, d := range durations {
		if d.src == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.src)
		if err != nil {
			return p, fmt.Errorf("retryOnError.%s: %w", d.field, err)
		}
		*d.dst = parsed
	}
	return p, nil
}

func (yb yamlBreaker) toConfig() (breaker.Config, error) {
	cfg := breaker.DefaultConfig()
	if yb.Threshold > 0 {
		cfg.Threshold = yb.Threshold
	}
	if yb.HalfOpenCalls > 0 {
		cfg.HalfOpenCalls = yb.HalfOpenCalls
	}
	if yb.Timeout != "" {
		parsed, err := time.ParseDuration(yb.Timeout)
		if err != nil {
			return cfg, fmt.Errorf("circuitBreaker.timeout: %w", err)
		}
		cfg.Timeout = parsed
	}
	return cfg, nil
}

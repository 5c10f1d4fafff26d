package config

import "github.com/workforge/workforge/observability"

// ObserverConfig names the Observer implementation a component should
// use, resolved at runtime via observability's registry.
type ObserverConfig struct {
	Name string `json:"observer"` // "noop", "slog", or a custom registered name
}

// DefaultObserverConfig returns "slog", matching the corpus default of
// structured logging over silence.
func DefaultObserverConfig() ObserverConfig {
	return ObserverConfig{Name: "slog"}
}

func (c *ObserverConfig) Merge(source ObserverConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}
}

// Build resolves c.Name via observability.GetObserver.
func (c ObserverConfig) Build() (observability.Observer, error) {
	if c.Name == "" {
		return observability.NoOpObserver{}, nil
	}
	return observability.GetObserver(c.Name)
}

package matching

import (
	"context"
	"fmt"

	"github.com/spigell/career-path/internal/career"
	"github.com/spigell/career-path/internal/catalog"
	"go.uber.org/zap"
)

// Filter represents a single narrowing step applied to the career paths of a matched job.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Apply(ctx context.Context, q Query, paths []catalog.CareerPath) ([]catalog.CareerPath, Step, error)
}

// Query is the resolved input shared by every filter.
type Query struct {
	CurrentClass string
	Stage        career.Stage
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially and returns the surviving paths.
func Run(ctx context.Context, logger *zap.Logger, q Query, steps []Filter, paths []catalog.CareerPath) ([]catalog.CareerPath, error) {
	for _, step := range steps {
		if !step.IsEnabled() {
			if logger != nil {
				logger.Debug("filter disabled", zap.String("name", step.Name()))
			}
			continue
		}

		next, info, err := step.Apply(ctx, q, paths)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if logger != nil {
			logger.Debug("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		paths = next
	}

	return paths, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		s := Status{Name: step.Name(), Enabled: step.IsEnabled()}
		if r, ok := step.(interface{ DisabledReason() string }); ok {
			s.Reason = r.DisabledReason()
		}
		statuses = append(statuses, s)
	}
	return statuses
}

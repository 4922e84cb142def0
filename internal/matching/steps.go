package matching

import (
	"context"
	"strings"

	"github.com/spigell/career-path/internal/career"
	"github.com/spigell/career-path/internal/catalog"
)

const (
	EducationTypeFilter = "education_type"
	StageStepsFilter    = "stage_steps"
)

type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func (t *toggle) DisabledReason() string { return t.reason }

type educationTypeFilter struct {
	toggle
}

// NewEducationType keeps only paths whose step at the user's stage mentions the
// user's class. Paths without a step at that stage are kept, as is everything
// when the class is empty.
func NewEducationType() Filter {
	return &educationTypeFilter{}
}

func (f *educationTypeFilter) Name() string { return EducationTypeFilter }

func (f *educationTypeFilter) Apply(_ context.Context, q Query, paths []catalog.CareerPath) ([]catalog.CareerPath, Step, error) {
	initial := len(paths)
	class := career.Normalize(q.CurrentClass)
	if class == "" {
		return paths, Step{Initial: initial, Left: initial}, nil
	}

	kept := make([]catalog.CareerPath, 0, initial)
	for _, path := range paths {
		step, ok := stepAt(path, int(q.Stage))
		if !ok || strings.Contains(career.Normalize(step.Description), class) {
			kept = append(kept, path)
		}
	}

	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}

type stageStepsFilter struct {
	toggle
}

// NewStageSteps drops every step that lies before the user's stage.
func NewStageSteps() Filter {
	return &stageStepsFilter{}
}

func (f *stageStepsFilter) Name() string { return StageStepsFilter }

func (f *stageStepsFilter) Apply(_ context.Context, q Query, paths []catalog.CareerPath) ([]catalog.CareerPath, Step, error) {
	out := make([]catalog.CareerPath, 0, len(paths))
	for _, path := range paths {
		out = append(out, catalog.CareerPath{
			PathName: path.PathName,
			Steps:    FilterSteps(path.Steps, q.Stage),
		})
	}

	// Counts are paths, and no path is dropped here.
	return out, Step{Initial: len(paths), Left: len(out)}, nil
}

// FilterSteps returns the steps numbered at or after stage, in their original order.
func FilterSteps(steps []catalog.Step, stage career.Stage) []catalog.Step {
	out := make([]catalog.Step, 0, len(steps))
	for _, s := range steps {
		if s.StepNumber >= int(stage) {
			out = append(out, s)
		}
	}
	return out
}

func stepAt(path catalog.CareerPath, number int) (catalog.Step, bool) {
	for _, s := range path.Steps {
		if s.StepNumber == number {
			return s, true
		}
	}
	return catalog.Step{}, false
}

// DefaultFilters returns the narrowing pipeline used by the matcher.
func DefaultFilters() []Filter {
	return []Filter{
		NewEducationType(),
		NewStageSteps(),
	}
}

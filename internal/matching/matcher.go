// Package matching resolves a career profile against the job catalog into a
// roadmap of the career paths still ahead of the user.
package matching

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/career-path/internal/career"
	"github.com/spigell/career-path/internal/catalog"
)

// NominalStages is the fixed path length assumed by the completion bar. It is a
// presentation heuristic and does not depend on the number of steps in a path.
const NominalStages = 5

// StepStatus places a roadmap step relative to the user's stage.
type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepCurrent   StepStatus = "current"
	StepFuture    StepStatus = "future"
)

// RoadmapStep is a catalog step annotated with its status.
type RoadmapStep struct {
	Number      int        `json:"stepNumber"`
	Description string     `json:"description"`
	Status      StepStatus `json:"status"`
}

// RoadmapPath is a career path trimmed to the steps ahead of the user.
type RoadmapPath struct {
	Name       string        `json:"pathName"`
	Steps      []RoadmapStep `json:"steps"`
	Completion float64       `json:"completionPercent"`
}

// Roadmap is the matcher output. An empty Paths list is a valid "nothing found" result.
type Roadmap struct {
	JobTitle     string        `json:"jobTitle"`
	JobKey       string        `json:"jobKey,omitempty"`
	Group        string        `json:"group,omitempty"`
	CurrentClass string        `json:"currentClass"`
	CurrentStage career.Stage  `json:"currentStage"`
	Found        bool          `json:"found"`
	Paths        []RoadmapPath `json:"paths"`
}

// Matcher resolves profiles against a catalog.
type Matcher struct {
	catalog *catalog.Catalog
	filters []Filter
	logger  *zap.Logger
}

// NewMatcher creates a matcher with the default filter pipeline.
func NewMatcher(c *catalog.Catalog, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Matcher{
		catalog: c,
		filters: DefaultFilters(),
		logger:  logger,
	}
}

// Filters exposes the pipeline so callers can disable steps by name.
func (m *Matcher) Filters() []Filter {
	return m.filters
}

// Match resolves the triple into a roadmap.
func (m *Matcher) Match(ctx context.Context, t career.Triple) (*Roadmap, error) {
	if m.catalog == nil {
		return nil, fmt.Errorf("catalog is not loaded")
	}

	stage := career.StageOf(t.CurrentClass)
	roadmap := &Roadmap{
		JobTitle:     t.DreamJob,
		CurrentClass: t.CurrentClass,
		CurrentStage: stage,
		Paths:        []RoadmapPath{},
	}

	job, group := Lookup(m.catalog, t.Sector, t.DreamJob)
	if job == nil {
		m.logger.Info("no catalog job matched",
			zap.String("dream_job", t.DreamJob),
			zap.String("sector", t.Sector.String()),
		)
		return roadmap, nil
	}

	roadmap.Found = true
	roadmap.JobTitle = job.FullName
	roadmap.JobKey = job.Key
	roadmap.Group = group

	paths, err := Run(ctx, m.logger, Query{CurrentClass: t.CurrentClass, Stage: stage}, m.filters, job.CareerPaths)
	if err != nil {
		return nil, err
	}

	completion := Completion(stage)
	for i, path := range paths {
		name := strings.TrimSpace(path.PathName)
		if name == "" {
			name = fmt.Sprintf("Option %d", i+1)
		}

		steps := make([]RoadmapStep, 0, len(path.Steps))
		for _, s := range path.Steps {
			steps = append(steps, RoadmapStep{
				Number:      s.StepNumber,
				Description: s.Description,
				Status:      StatusOf(s.StepNumber, stage),
			})
		}

		roadmap.Paths = append(roadmap.Paths, RoadmapPath{
			Name:       name,
			Steps:      steps,
			Completion: completion,
		})
	}

	m.logger.Info("roadmap resolved",
		zap.String("job", job.FullName),
		zap.Int("stage", int(stage)),
		zap.Int("paths", len(roadmap.Paths)),
	)

	return roadmap, nil
}

// Lookup finds the first job in catalog order whose full name equals, contains or
// is contained in dreamJob, or whose key equals dreamJob. It returns the job and
// the name of its group, or nil when nothing matches.
func Lookup(c *catalog.Catalog, sector career.Sector, dreamJob string) (*catalog.Job, string) {
	if dreamJob == "" {
		return nil, ""
	}

	for _, g := range c.Groups(sector) {
		for i := range g.Jobs {
			job := &g.Jobs[i]
			if job.FullName == dreamJob ||
				strings.Contains(job.FullName, dreamJob) ||
				strings.Contains(dreamJob, job.FullName) ||
				job.Key == dreamJob {
				return job, g.Name
			}
		}
	}

	return nil, ""
}

// Completion is the share of NominalStages already behind a user at stage.
func Completion(stage career.Stage) float64 {
	return float64(stage-1) / NominalStages * 100
}

// StatusOf classifies a step number relative to the user's stage.
func StatusOf(number int, stage career.Stage) StepStatus {
	switch {
	case number < int(stage):
		return StepCompleted
	case number == int(stage):
		return StepCurrent
	default:
		return StepFuture
	}
}

// Package catalog loads the read-only job catalog: jobs grouped by sector, each
// with one or more career paths made of numbered steps.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/spigell/career-path/internal/career"
)

const (
	PublicGroup  = "publicSector"
	PrivateGroup = "privateSector"
)

//go:embed catalog.yaml
var bundled []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Step is a single numbered milestone of a career path.
type Step struct {
	StepNumber  int    `yaml:"stepNumber" json:"stepNumber"`
	Description string `yaml:"description" json:"description"`
}

// CareerPath is one ordered route to a job.
type CareerPath struct {
	PathName string `yaml:"pathName" json:"pathName"`
	Steps    []Step `yaml:"steps" json:"steps"`
}

// Job is a catalog entry identified by its key within a group.
type Job struct {
	Key         string       `yaml:"key" json:"key"`
	FullName    string       `yaml:"fullName" json:"fullName"`
	CareerPaths []CareerPath `yaml:"careerPaths" json:"careerPaths"`
}

// Group is an ordered list of jobs of one sector.
type Group struct {
	Name string `yaml:"-" json:"name"`
	Jobs []Job  `yaml:"jobs" json:"jobs"`
}

// Catalog is the immutable job catalog. It is safe for concurrent reads.
type Catalog struct {
	Public  Group
	Private Group
}

type document struct {
	// Descriptions holds YAML anchors shared between steps.
	Descriptions map[string]string `yaml:"descriptions"`
	Public       Group             `yaml:"publicSector"`
	Private      Group             `yaml:"privateSector"`
}

// Default returns the catalog bundled into the binary. It is parsed once.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(bytes.NewReader(bundled))
	})
	return defaultCatalog, defaultErr
}

// Load reads the catalog from path, or returns the bundled one when path is empty.
func Load(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer file.Close()

	c, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog.
func Parse(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catalog is empty")
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	doc.Public.Name = PublicGroup
	doc.Private.Name = PrivateGroup

	c := &Catalog{Public: doc.Public, Private: doc.Private}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) validate() error {
	for _, g := range []Group{c.Public, c.Private} {
		seen := make(map[string]struct{}, len(g.Jobs))
		for i, job := range g.Jobs {
			if strings.TrimSpace(job.Key) == "" {
				return fmt.Errorf("%s: job #%d has no key", g.Name, i)
			}
			if strings.TrimSpace(job.FullName) == "" {
				return fmt.Errorf("%s.%s: full name is required", g.Name, job.Key)
			}
			if _, dup := seen[job.Key]; dup {
				return fmt.Errorf("%s: duplicate job key %q", g.Name, job.Key)
			}
			seen[job.Key] = struct{}{}

			for _, path := range job.CareerPaths {
				last := 0
				for _, step := range path.Steps {
					if step.StepNumber < 1 {
						return fmt.Errorf("%s.%s: path %q has step number %d < 1", g.Name, job.Key, path.PathName, step.StepNumber)
					}
					if step.StepNumber <= last {
						return fmt.Errorf("%s.%s: path %q step numbers must increase (%d after %d)", g.Name, job.Key, path.PathName, step.StepNumber, last)
					}
					last = step.StepNumber
				}
			}
		}
	}
	return nil
}

// Groups returns the groups the matcher scans for a sector. When the sector does
// not narrow, the public group is scanned before the private one.
func (c *Catalog) Groups(sector career.Sector) []*Group {
	switch sector {
	case career.PrivateSector:
		return []*Group{&c.Private}
	case career.PublicSector:
		return []*Group{&c.Public}
	default:
		return []*Group{&c.Public, &c.Private}
	}
}

// JobNames returns the full names offered by the wizard for a sector. When the
// sector does not narrow, private jobs are listed before public ones.
func (c *Catalog) JobNames(sector career.Sector) []string {
	var groups []*Group
	switch sector {
	case career.PrivateSector:
		groups = []*Group{&c.Private}
	case career.PublicSector:
		groups = []*Group{&c.Public}
	default:
		groups = []*Group{&c.Private, &c.Public}
	}

	var names []string
	for _, g := range groups {
		for _, job := range g.Jobs {
			names = append(names, job.FullName)
		}
	}
	return names
}

// Len returns the number of jobs across both groups.
func (c *Catalog) Len() int {
	return len(c.Public.Jobs) + len(c.Private.Jobs)
}

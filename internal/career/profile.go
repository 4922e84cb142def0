// Package career holds the career profile domain: sectors, education stages and
// the profile record produced by the intake wizard.
package career

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrValidation marks a profile that violates a required-field rule.
var ErrValidation = errors.New("validation failed")

// Submission is the payload a caller sends to store a career profile.
type Submission struct {
	UserID       string `json:"userId,omitempty" mapstructure:"userId"`
	CurrentClass string `json:"currentClass" mapstructure:"currentClass"`
	Sector       string `json:"sector" mapstructure:"sector"`
	DreamJob     string `json:"dreamJob" mapstructure:"dreamJob"`
}

// Record is a stored career profile. Records are immutable once created.
type Record struct {
	ID           string    `json:"id" mapstructure:"id"`
	UserID       string    `json:"userId,omitempty" mapstructure:"userId"`
	CurrentClass string    `json:"currentClass" mapstructure:"currentClass"`
	Sector       string    `json:"sector" mapstructure:"sector"`
	DreamJob     string    `json:"dreamJob" mapstructure:"dreamJob"`
	CreatedAt    time.Time `json:"createdAt" mapstructure:"createdAt"`
}

// Normalized trims every field and canonicalizes the sector label.
// It returns an ErrValidation-wrapped error when a required field is missing.
func (s Submission) Normalized() (Submission, error) {
	out := Submission{
		UserID:       strings.TrimSpace(s.UserID),
		CurrentClass: strings.TrimSpace(s.CurrentClass),
		DreamJob:     strings.TrimSpace(s.DreamJob),
	}

	if out.CurrentClass == "" {
		return out, fmt.Errorf("%w: currentClass is required", ErrValidation)
	}

	sector, err := ParseSector(s.Sector)
	if err != nil {
		return out, err
	}
	out.Sector = sector.String()

	if out.DreamJob == "" && sector != UnknownSector {
		return out, fmt.Errorf("%w: dreamJob may only be empty when sector is %q", ErrValidation, UnknownSector)
	}

	return out, nil
}

// Submission returns the core fields of the record.
func (r *Record) Submission() Submission {
	return Submission{
		UserID:       r.UserID,
		CurrentClass: r.CurrentClass,
		Sector:       r.Sector,
		DreamJob:     r.DreamJob,
	}
}

// Triple is the (class, sector, dream job) input of the path matcher.
type Triple struct {
	CurrentClass string
	Sector       Sector
	DreamJob     string
}

// TripleOf converts a submission into a matcher triple. An unparsable sector
// becomes empty, which the matcher treats as "scan every group".
func TripleOf(s Submission) Triple {
	sector, _ := ParseSector(s.Sector)
	return Triple{
		CurrentClass: strings.TrimSpace(s.CurrentClass),
		Sector:       sector,
		DreamJob:     strings.TrimSpace(s.DreamJob),
	}
}

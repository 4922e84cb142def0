package career

import (
	"fmt"
	"strings"
)

// Sector is the top-level grouping a user picks for their dream job.
type Sector string

const (
	PrivateSector Sector = "Private Sector"
	PublicSector  Sector = "Public Sector"
	// OtherSector does not narrow job search or matching.
	OtherSector Sector = "Other"
	// UnknownSector sends the user to a human-assist flow instead of the matcher.
	UnknownSector Sector = "Don't Know"
)

// Sectors lists sectors in the order the wizard offers them.
var Sectors = []Sector{PrivateSector, PublicSector, OtherSector, UnknownSector}

var sectorAliases = map[string]Sector{
	"private":        PrivateSector,
	"private sector": PrivateSector,
	"privatesector":  PrivateSector,
	"public":         PublicSector,
	"public sector":  PublicSector,
	"publicsector":   PublicSector,
	"other":          OtherSector,
	"unknown":        UnknownSector,
	"don't know":     UnknownSector,
	"dont know":      UnknownSector,
}

// ParseSector resolves a display label or identifier into a Sector.
// Unlike free-text handling it never defaults: unrecognized input is an error.
func ParseSector(s string) (Sector, error) {
	key := strings.ToLower(strings.Join(strings.Fields(s), " "))
	if key == "" {
		return "", fmt.Errorf("%w: sector is required", ErrValidation)
	}

	sector, ok := sectorAliases[key]
	if !ok {
		return "", fmt.Errorf("%w: unknown sector %q", ErrValidation, s)
	}

	return sector, nil
}

// Narrows reports whether the sector restricts the catalog to a single group.
func (s Sector) Narrows() bool {
	return s == PrivateSector || s == PublicSector
}

func (s Sector) String() string { return string(s) }

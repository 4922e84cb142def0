package career

import (
	"strings"
	"unicode"
)

// Stage is the ordinal education bucket used as the lower bound for roadmap steps.
type Stage int

const (
	StageSchool Stage = iota + 1
	StageSeniorSecondary
	StageUndergraduate
	StagePostgraduate
)

// Class is an entry of the closed list of education levels a user can pick.
type Class struct {
	Name  string
	Stage Stage
}

// Classes is the ordered class list shown by the wizard.
var Classes = []Class{
	{"5th", StageSchool},
	{"6th", StageSchool},
	{"7th", StageSchool},
	{"8th", StageSchool},
	{"9th", StageSchool},
	{"10th", StageSchool},
	{"11th", StageSeniorSecondary},
	{"12th", StageSeniorSecondary},
	{"Btech", StageUndergraduate},
	{"Bsc", StageUndergraduate},
	{"BE", StageUndergraduate},
	{"BCA", StageUndergraduate},
	{"BA", StageUndergraduate},
	{"BFA", StageUndergraduate},
	{"B.Des", StageUndergraduate},
	{"BJMC", StageUndergraduate},
	{"BBA", StageUndergraduate},
	{"Bcom", StageUndergraduate},
	{"BMS", StageUndergraduate},
	{"MBBS", StageUndergraduate},
	{"BDS", StageUndergraduate},
	{"BPharma", StageUndergraduate},
	{"BPT", StageUndergraduate},
	{"BSC Nursing", StageUndergraduate},
	{"LLB", StageUndergraduate},
	{"BSW", StageUndergraduate},
	{"BHM", StageUndergraduate},
	{"BTTM", StageUndergraduate},
	{"Mtech", StagePostgraduate},
	{"Msc", StagePostgraduate},
	{"MBA", StagePostgraduate},
	{"MA", StagePostgraduate},
	{"MCA", StagePostgraduate},
	{"Mcom", StagePostgraduate},
	{"Masters", StagePostgraduate},
}

var classIndex = func() map[string]Class {
	idx := make(map[string]Class, len(Classes))
	for _, c := range Classes {
		idx[Normalize(c.Name)] = c
	}
	return idx
}()

// ClassNames returns class names in display order.
func ClassNames() []string {
	names := make([]string, 0, len(Classes))
	for _, c := range Classes {
		names = append(names, c.Name)
	}
	return names
}

// LookupClass finds a class by name ignoring case, periods and whitespace.
func LookupClass(name string) (Class, bool) {
	c, ok := classIndex[Normalize(name)]
	return c, ok
}

// StageOf maps a class to its stage. Free text falls back to the postgraduate
// markers "Master" and "M."; anything else is stage 1.
func StageOf(class string) Stage {
	if c, ok := LookupClass(class); ok {
		return c.Stage
	}

	if strings.Contains(class, "Master") || strings.Contains(class, "M.") {
		return StagePostgraduate
	}

	return StageSchool
}

// Normalize lowercases s and strips periods and whitespace so that
// "B.Sc Nursing" and "bscnursing" compare equal.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if r == '.' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

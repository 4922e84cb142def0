// Package wizard implements the intake flow that collects a career profile:
// class, then sector, then dream job, then a summary that is submitted.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/career-path/internal/assist"
	"github.com/spigell/career-path/internal/career"
	"github.com/spigell/career-path/internal/catalog"
	"github.com/spigell/career-path/internal/logger"
)

// State is a wizard step.
type State int

const (
	ClassSelect State = iota
	SectorSelect
	DreamJobSelect
	Summary
	// Submitted and HandedOff are terminal.
	Submitted
	HandedOff
)

var stateNames = map[State]string{
	ClassSelect:    "class_select",
	SectorSelect:   "sector_select",
	DreamJobSelect: "dream_job_select",
	Summary:        "summary",
	Submitted:      "submitted",
	HandedOff:      "handed_off",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Submitted || s == HandedOff
}

var (
	// ErrTransition is returned when an action is not allowed in the current state.
	ErrTransition = errors.New("transition not allowed")
	// ErrSubmitInFlight is returned while a previous submission has not finished.
	ErrSubmitInFlight = errors.New("submission already in flight")
	// ErrPersistence wraps a failed store call. The wizard state is kept for retry.
	ErrPersistence = errors.New("could not save career profile")
)

// Submitter stores a profile. A non-empty token selects the authenticated endpoint.
type Submitter interface {
	Submit(ctx context.Context, s career.Submission, token string) (*career.Record, error)
}

// Identity is the session identity injected by the caller.
type Identity struct {
	UserID string
	Token  string
}

// Wizard is a single intake session. It is safe for concurrent use, but is
// meant to be driven by one user.
type Wizard struct {
	catalog   *catalog.Catalog
	submitter Submitter
	handoff   assist.Handoff
	logger    *zap.Logger

	mu       sync.Mutex
	state    State
	profile  career.Submission
	sector   career.Sector
	identity Identity
	inFlight bool
	record   *career.Record
	ticket   *assist.Ticket
}

// New creates a wizard at ClassSelect. handoff may be nil, in which case the
// Unknown sector only stores the partial profile.
func New(c *catalog.Catalog, submitter Submitter, handoff assist.Handoff, log *zap.Logger) (*Wizard, error) {
	if c == nil {
		return nil, errors.New("catalog is required")
	}
	if submitter == nil {
		return nil, errors.New("submitter is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Wizard{
		catalog:   c,
		submitter: submitter,
		handoff:   handoff,
		logger:    log,
		state:     ClassSelect,
	}, nil
}

// SetIdentity replaces the session identity used by the next submission.
func (w *Wizard) SetIdentity(id Identity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.identity = Identity{UserID: strings.TrimSpace(id.UserID), Token: strings.TrimSpace(id.Token)}
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Profile returns the values entered so far.
func (w *Wizard) Profile() career.Submission {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.profile
}

// Record returns the stored record once a submission succeeded.
func (w *Wizard) Record() *career.Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.record
}

// Ticket returns the hand-off ticket for the Unknown sector branch.
func (w *Wizard) Ticket() *assist.Ticket {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ticket
}

// ClassOptions filters the class list by query.
func (w *Wizard) ClassOptions(query string) []string {
	return catalog.Search(career.ClassNames(), query)
}

// JobOptions filters the jobs of the selected sector by query. Before a
// narrowing sector is chosen both groups are offered.
func (w *Wizard) JobOptions(query string) []string {
	w.mu.Lock()
	sector := w.sector
	w.mu.Unlock()
	return catalog.Search(w.catalog.JobNames(sector), query)
}

// SelectClass records the class and moves to SectorSelect.
func (w *Wizard) SelectClass(class string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.expect(ClassSelect); err != nil {
		return err
	}

	c, ok := career.LookupClass(class)
	if !ok {
		return fmt.Errorf("%w: %q is not in the class list", career.ErrValidation, strings.TrimSpace(class))
	}

	w.profile.CurrentClass = c.Name
	w.move(SectorSelect)
	return nil
}

// SelectSector records the sector. Private, Public and Other continue to
// DreamJobSelect. Unknown submits the partial profile and hands the user off.
func (w *Wizard) SelectSector(ctx context.Context, s career.Sector) error {
	w.mu.Lock()

	if err := w.expect(SectorSelect); err != nil {
		w.mu.Unlock()
		return err
	}

	s, err := career.ParseSector(s.String())
	if err != nil {
		w.mu.Unlock()
		return err
	}

	if s != w.sector {
		w.profile.DreamJob = ""
	}
	w.sector = s
	w.profile.Sector = s.String()

	if s != career.UnknownSector {
		w.move(DreamJobSelect)
		w.mu.Unlock()
		return nil
	}

	sub := w.submission()
	token := w.identity.Token
	w.inFlight = true
	w.mu.Unlock()

	rec, err := w.submitter.Submit(ctx, sub, token)

	w.mu.Lock()
	w.inFlight = false
	if err != nil {
		w.mu.Unlock()
		w.logger.Warn("early submission failed", append(logger.ProfileFields(career.TripleOf(sub)), zap.Error(err))...)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	w.record = rec
	w.move(HandedOff)
	w.mu.Unlock()

	if w.handoff == nil {
		return nil
	}

	ticket, err := w.handoff.HandOff(ctx, rec)
	if err != nil {
		return fmt.Errorf("hand-off: %w", err)
	}

	w.mu.Lock()
	w.ticket = ticket
	w.mu.Unlock()
	return nil
}

// SelectDreamJob records the dream job and moves to Summary. Free text is allowed.
func (w *Wizard) SelectDreamJob(job string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.expect(DreamJobSelect); err != nil {
		return err
	}

	job = strings.TrimSpace(job)
	if job == "" {
		return fmt.Errorf("%w: dream job is required", career.ErrValidation)
	}

	w.profile.DreamJob = job
	w.move(Summary)
	return nil
}

// Submit stores the profile. On failure the wizard stays on Summary.
func (w *Wizard) Submit(ctx context.Context) (*career.Record, error) {
	w.mu.Lock()

	if err := w.expect(Summary); err != nil {
		w.mu.Unlock()
		return nil, err
	}

	sub := w.submission()
	if sub.CurrentClass == "" || sub.Sector == "" || sub.DreamJob == "" {
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: class, sector and dream job are required", career.ErrValidation)
	}

	token := w.identity.Token
	w.inFlight = true
	w.mu.Unlock()

	rec, err := w.submitter.Submit(ctx, sub, token)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.inFlight = false

	if err != nil {
		w.logger.Warn("submission failed", append(logger.ProfileFields(career.TripleOf(sub)), zap.Error(err))...)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	w.record = rec
	w.move(Submitted)
	w.logger.Info("career profile submitted",
		append(logger.ProfileFields(career.TripleOf(sub)),
			zap.String("record_id", rec.ID),
			zap.Bool("authenticated", token != ""),
		)...,
	)
	return rec, nil
}

// Back returns to the previous step, keeping the entered values.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inFlight {
		return ErrSubmitInFlight
	}

	switch w.state {
	case SectorSelect:
		w.move(ClassSelect)
	case DreamJobSelect:
		w.move(SectorSelect)
	case Summary:
		w.move(DreamJobSelect)
	default:
		return fmt.Errorf("%w: back from %s", ErrTransition, w.state)
	}
	return nil
}

// expect must be called with mu held.
func (w *Wizard) expect(s State) error {
	if w.inFlight {
		return ErrSubmitInFlight
	}
	if w.state != s {
		return fmt.Errorf("%w: in %s, expected %s", ErrTransition, w.state, s)
	}
	return nil
}

// move must be called with mu held.
func (w *Wizard) move(to State) {
	w.logger.Debug("wizard transition", zap.Stringer("from", w.state), zap.Stringer("to", to))
	w.state = to
}

// submission must be called with mu held.
func (w *Wizard) submission() career.Submission {
	sub := w.profile
	sub.UserID = w.identity.UserID
	return sub
}

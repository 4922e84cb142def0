package wizard

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/career-path/internal/assist"
	"github.com/spigell/career-path/internal/career"
	"github.com/spigell/career-path/internal/catalog"
)

type stubSubmitter struct {
	mu      sync.Mutex
	calls   []career.Submission
	tokens  []string
	err     error
	release chan struct{}
	started chan struct{}
}

func (s *stubSubmitter) Submit(ctx context.Context, sub career.Submission, token string) (*career.Record, error) {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, sub)
	s.tokens = append(s.tokens, token)
	if s.err != nil {
		return nil, s.err
	}
	return &career.Record{
		ID:           "rec-1",
		UserID:       sub.UserID,
		CurrentClass: sub.CurrentClass,
		Sector:       sub.Sector,
		DreamJob:     sub.DreamJob,
		CreatedAt:    time.Now(),
	}, nil
}

type stubHandoff struct {
	got *career.Record
	err error
}

func (h *stubHandoff) HandOff(_ context.Context, rec *career.Record) (*assist.Ticket, error) {
	h.got = rec
	if h.err != nil {
		return nil, h.err
	}
	return &assist.Ticket{Channel: assist.ChannelLiveChat, Message: assist.Message(rec.CurrentClass, rec.DreamJob)}, nil
}

func newWizard(t *testing.T, sub Submitter, h assist.Handoff) *Wizard {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	w, err := New(c, sub, h, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return w
}

func toSummary(t *testing.T, w *Wizard) {
	t.Helper()
	if err := w.SelectClass("10th"); err != nil {
		t.Fatalf("select class: %v", err)
	}
	if err := w.SelectSector(context.Background(), career.PrivateSector); err != nil {
		t.Fatalf("select sector: %v", err)
	}
	if err := w.SelectDreamJob("Data Science"); err != nil {
		t.Fatalf("select dream job: %v", err)
	}
}

func TestHappyPath(t *testing.T) {
	sub := &stubSubmitter{}
	w := newWizard(t, sub, nil)
	w.SetIdentity(Identity{UserID: "u-1", Token: "tok"})

	toSummary(t, w)
	if w.State() != Summary {
		t.Fatalf("expected summary, got %s", w.State())
	}

	rec, err := w.Submit(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.State() != Submitted || w.Record() != rec {
		t.Fatalf("expected submitted state with record, got %s", w.State())
	}

	want := career.Submission{UserID: "u-1", CurrentClass: "10th", Sector: "Private Sector", DreamJob: "Data Science"}
	if !reflect.DeepEqual(sub.calls, []career.Submission{want}) {
		t.Fatalf("unexpected submissions: %+v", sub.calls)
	}
	if sub.tokens[0] != "tok" {
		t.Fatalf("expected token to be passed, got %q", sub.tokens[0])
	}

	if _, err := w.Submit(context.Background()); !errors.Is(err, ErrTransition) {
		t.Fatalf("expected transition error after submit, got %v", err)
	}
}

func TestUnknownSectorHandsOff(t *testing.T) {
	sub := &stubSubmitter{}
	h := &stubHandoff{}
	w := newWizard(t, sub, h)

	if err := w.SelectClass("8th"); err != nil {
		t.Fatalf("select class: %v", err)
	}
	if err := w.SelectSector(context.Background(), career.UnknownSector); err != nil {
		t.Fatalf("select sector: %v", err)
	}

	if w.State() != HandedOff {
		t.Fatalf("expected handed off, got %s", w.State())
	}

	want := career.Submission{CurrentClass: "8th", Sector: "Don't Know", DreamJob: ""}
	if !reflect.DeepEqual(sub.calls, []career.Submission{want}) {
		t.Fatalf("unexpected submissions: %+v", sub.calls)
	}
	if sub.tokens[0] != "" {
		t.Fatalf("expected anonymous submission")
	}

	if h.got == nil || h.got.ID != "rec-1" {
		t.Fatalf("expected the stored record to be handed off, got %+v", h.got)
	}
	ticket := w.Ticket()
	if ticket == nil || ticket.Message != "The selected class is 8th and selected dream job is not specified" {
		t.Fatalf("unexpected ticket: %+v", ticket)
	}

	if err := w.SelectDreamJob("IAS"); !errors.Is(err, ErrTransition) {
		t.Fatalf("expected transition error, got %v", err)
	}
	if err := w.Back(); !errors.Is(err, ErrTransition) {
		t.Fatalf("expected back to fail from terminal state, got %v", err)
	}
}

func TestUnknownSectorPersistenceFailure(t *testing.T) {
	h := &stubHandoff{}
	w := newWizard(t, &stubSubmitter{err: errors.New("connection refused")}, h)

	if err := w.SelectClass("8th"); err != nil {
		t.Fatalf("select class: %v", err)
	}
	err := w.SelectSector(context.Background(), career.UnknownSector)
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if w.State() != SectorSelect || h.got != nil {
		t.Fatalf("expected to stay on sector select without hand-off, got %s", w.State())
	}
}

func TestHandOffErrorKeepsRecord(t *testing.T) {
	w := newWizard(t, &stubSubmitter{}, &stubHandoff{err: errors.New("chat down")})

	if err := w.SelectClass("8th"); err != nil {
		t.Fatalf("select class: %v", err)
	}
	if err := w.SelectSector(context.Background(), career.UnknownSector); err == nil {
		t.Fatalf("expected hand-off error")
	}
	if w.State() != HandedOff || w.Record() == nil {
		t.Fatalf("expected stored record and handed off state, got %s", w.State())
	}
}

func TestSubmitFailureKeepsSummary(t *testing.T) {
	sub := &stubSubmitter{err: errors.New("500 internal server error")}
	w := newWizard(t, sub, nil)
	toSummary(t, w)

	_, err := w.Submit(context.Background())
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if w.State() != Summary {
		t.Fatalf("expected to stay on summary, got %s", w.State())
	}

	sub.mu.Lock()
	sub.err = nil
	sub.mu.Unlock()

	if _, err := w.Submit(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(sub.calls) != 2 || sub.calls[0] != sub.calls[1] {
		t.Fatalf("expected retry with the same values, got %+v", sub.calls)
	}
}

func TestSubmitInFlight(t *testing.T) {
	sub := &stubSubmitter{release: make(chan struct{}), started: make(chan struct{}, 1)}
	w := newWizard(t, sub, nil)
	toSummary(t, w)

	done := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background())
		done <- err
	}()

	<-sub.started
	if _, err := w.Submit(context.Background()); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected in-flight error, got %v", err)
	}
	if err := w.Back(); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected back to be blocked while in flight, got %v", err)
	}

	close(sub.release)
	if err := <-done; err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
	if len(sub.calls) != 1 {
		t.Fatalf("expected a single submission, got %d", len(sub.calls))
	}
}

func TestGuards(t *testing.T) {
	w := newWizard(t, &stubSubmitter{}, nil)

	if err := w.SelectClass("13th"); !errors.Is(err, career.ErrValidation) {
		t.Fatalf("expected validation error for unknown class, got %v", err)
	}
	if err := w.SelectClass(""); !errors.Is(err, career.ErrValidation) {
		t.Fatalf("expected validation error for empty class, got %v", err)
	}
	if err := w.SelectSector(context.Background(), career.PublicSector); !errors.Is(err, ErrTransition) {
		t.Fatalf("expected transition error before class, got %v", err)
	}
	if err := w.Back(); !errors.Is(err, ErrTransition) {
		t.Fatalf("expected back to fail on the first step, got %v", err)
	}

	if err := w.SelectClass("b.tech"); err != nil {
		t.Fatalf("select class: %v", err)
	}
	if got := w.Profile().CurrentClass; got != "Btech" {
		t.Fatalf("expected canonical class name, got %q", got)
	}

	if err := w.SelectSector(context.Background(), career.Sector("Space")); !errors.Is(err, career.ErrValidation) {
		t.Fatalf("expected validation error for unknown sector, got %v", err)
	}
	if err := w.SelectSector(context.Background(), career.OtherSector); err != nil {
		t.Fatalf("select sector: %v", err)
	}
	if err := w.SelectDreamJob("   "); !errors.Is(err, career.ErrValidation) {
		t.Fatalf("expected validation error for empty dream job, got %v", err)
	}
	if err := w.SelectDreamJob("Astronaut"); err != nil {
		t.Fatalf("free text dream job must be accepted: %v", err)
	}
}

func TestBackPreservesValues(t *testing.T) {
	w := newWizard(t, &stubSubmitter{}, nil)
	toSummary(t, w)

	for _, want := range []State{DreamJobSelect, SectorSelect, ClassSelect} {
		if err := w.Back(); err != nil {
			t.Fatalf("back: %v", err)
		}
		if w.State() != want {
			t.Fatalf("expected %s, got %s", want, w.State())
		}
	}

	p := w.Profile()
	if p.CurrentClass != "10th" || p.Sector != "Private Sector" || p.DreamJob != "Data Science" {
		t.Fatalf("expected values to be preserved, got %+v", p)
	}

	if err := w.SelectClass("10th"); err != nil {
		t.Fatalf("select class: %v", err)
	}
	if err := w.SelectSector(context.Background(), career.PrivateSector); err != nil {
		t.Fatalf("select sector: %v", err)
	}
	if w.Profile().DreamJob != "Data Science" {
		t.Fatalf("same sector must keep the dream job")
	}

	if err := w.Back(); err != nil {
		t.Fatalf("back: %v", err)
	}
	if err := w.SelectSector(context.Background(), career.PublicSector); err != nil {
		t.Fatalf("select sector: %v", err)
	}
	if w.Profile().DreamJob != "" {
		t.Fatalf("a new sector must clear the dream job")
	}
}

func TestJobOptions(t *testing.T) {
	w := newWizard(t, &stubSubmitter{}, nil)
	c, _ := catalog.Default()

	if got := w.JobOptions(""); !reflect.DeepEqual(got, c.JobNames(career.UnknownSector)) {
		t.Fatalf("expected the union before a sector is chosen")
	}

	if err := w.SelectClass("12th"); err != nil {
		t.Fatalf("select class: %v", err)
	}
	if err := w.SelectSector(context.Background(), career.PublicSector); err != nil {
		t.Fatalf("select sector: %v", err)
	}

	got := w.JobOptions("engineer")
	want := []string{"IES (Indian Engineering Services)", "JE (Junior Engineer)", "AE (Assistant Engineer)", "PSU Engineer", "Railway Engineering Services"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected public engineering jobs: %v", got)
	}
	if !reflect.DeepEqual(w.JobOptions("engineer"), got) {
		t.Fatalf("search must be deterministic")
	}
}

func TestClassOptions(t *testing.T) {
	w := newWizard(t, &stubSubmitter{}, nil)

	if got := w.ClassOptions("1"); !reflect.DeepEqual(got, []string{"10th", "11th", "12th"}) {
		t.Fatalf("unexpected classes: %v", got)
	}
	if got := w.ClassOptions(""); len(got) != len(career.Classes) {
		t.Fatalf("empty query must return every class, got %d", len(got))
	}
}

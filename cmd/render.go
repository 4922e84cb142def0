package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spigell/career-path/internal/assist"
	"github.com/spigell/career-path/internal/career"
	"github.com/spigell/career-path/internal/matching"
)

var statusMarks = map[matching.StepStatus]string{
	matching.StepCompleted: "[x]",
	matching.StepCurrent:   "[>]",
	matching.StepFuture:    "[ ]",
}

func renderRoadmap(out io.Writer, r *matching.Roadmap) {
	fmt.Fprintf(out, "Roadmap to %s (class %s, stage %d)\n", r.JobTitle, r.CurrentClass, r.CurrentStage)

	if len(r.Paths) == 0 {
		fmt.Fprintln(out, "No career paths found for this combination. Try a different class, sector or dream job.")
		return
	}

	for _, p := range r.Paths {
		fmt.Fprintf(out, "\n%s  %s %.0f%%\n", p.Name, progressBar(p.Completion), p.Completion)
		for _, s := range p.Steps {
			fmt.Fprintf(out, "  %s %d. %s\n", statusMarks[s.Status], s.Number, s.Description)
		}
	}
}

func progressBar(pct float64) string {
	const width = 20
	filled := int(pct / 100 * width)
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func renderTicket(out io.Writer, t *assist.Ticket) {
	fmt.Fprintf(out, "\nTalk to a counsellor: %s\n", t.URL)
	fmt.Fprintf(out, "Opening message: %s\n", t.Message)
	fmt.Fprintf(out, "The chat session is open until %s.\n", t.ExpiresAt.Format(time.Kitchen))

	if len(t.Suggestions) > 0 {
		fmt.Fprintf(out, "\nCareers you could explore: %s\n", strings.Join(t.Suggestions, ", "))
	}
	if t.Advice != "" {
		fmt.Fprintf(out, "%s\n", t.Advice)
	}
}

func renderRecords(out io.Writer, records []*career.Record) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tUSER\tCLASS\tSECTOR\tDREAM JOB")
	for _, r := range records {
		user := r.UserID
		if user == "" {
			user = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.CreatedAt.Format(time.RFC3339), user, r.CurrentClass, r.Sector, r.DreamJob)
	}
	return tw.Flush()
}

func renderJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

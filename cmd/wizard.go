package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/career-path/internal/career"
	"github.com/spigell/career-path/internal/careerapi"
	"github.com/spigell/career-path/internal/matching"
	"github.com/spigell/career-path/internal/store"
	"github.com/spigell/career-path/internal/wizard"
)

var errCancelled = errors.New("wizard cancelled")

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactively collect a career profile and show the matching roadmap",
	Run: func(cmd *cobra.Command, _ []string) {
		runWizardCommand(cmd)
	},
}

func init() {
	rootCmd.AddCommand(wizardCmd)

	wizardCmd.Flags().Bool("local", false, "store the profile in the local database instead of the API")
	wizardCmd.Flags().String("token", "", "identity token (overrides api.token-file)")
	wizardCmd.Flags().String("user-id", "", "user id attached to local submissions")
}

func runWizardCommand(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, config := setup(true)
	defer logger.Sync()

	c, err := loadCatalog(config, logger)
	if err != nil {
		logger.Fatal("loading the catalog", zap.Error(err))
	}

	tokenFlag, _ := cmd.Flags().GetString("token")
	token, err := loadToken(config, tokenFlag)
	if err != nil {
		logger.Fatal("loading the api token", zap.Error(err))
	}

	var submitter wizard.Submitter
	if local, _ := cmd.Flags().GetBool("local"); local {
		st, err := store.Open(ctx, config.Store.Path, logger.Named("store"))
		if err != nil {
			logger.Fatal("opening the store", zap.Error(err))
		}
		defer st.Close()

		verifier, err := newVerifier(config)
		if err != nil {
			logger.Fatal("loading the auth secret", zap.Error(err))
		}
		ls := &localSubmitter{store: st}
		if verifier != nil {
			ls.verifier = verifier
		}
		submitter = ls
	} else {
		client, err := careerapi.New(logger.Named("api"), config.API.URL)
		if err != nil {
			logger.Fatal("creating the api client", zap.Error(err))
		}
		submitter = client
	}

	handoff, err := newHandoff(ctx, config, c, logger)
	if err != nil {
		logger.Fatal("creating the hand-off", zap.Error(err))
	}

	w, err := wizard.New(c, submitter, handoff, logger.Named("wizard"))
	if err != nil {
		logger.Fatal("creating the wizard", zap.Error(err))
	}

	userID, _ := cmd.Flags().GetString("user-id")
	w.SetIdentity(wizard.Identity{UserID: userID, Token: token})

	out := cmd.OutOrStdout()
	if err := runWizard(ctx, w, promptUI{}, out, logger); err != nil {
		if errors.Is(err, errCancelled) {
			logger.Info("exiting", zap.String("reason", "cancelled by user"))
			return
		}
		logger.Fatal("exiting", zap.Error(err))
	}

	if err := showOutcome(ctx, w, matching.NewMatcher(c, logger.Named("matcher")), out); err != nil {
		logger.Fatal("building the roadmap", zap.Error(err))
	}
}

// runWizard drives w until it reaches a terminal state.
func runWizard(ctx context.Context, w *wizard.Wizard, ui prompter, out io.Writer, logger *zap.Logger) error {
	for !w.State().Terminal() {
		if err := step(ctx, w, ui, out, logger); err != nil {
			return err
		}
	}
	return nil
}

func step(ctx context.Context, w *wizard.Wizard, ui prompter, out io.Writer, logger *zap.Logger) error {
	switch w.State() {
	case wizard.ClassSelect:
		choice, err := ui.Select("Current class", w.ClassOptions(""), true)
		if err != nil {
			return err
		}
		return reportValidation(w.SelectClass(choice), out)

	case wizard.SectorSelect:
		items := make([]string, 0, len(career.Sectors)+1)
		for _, s := range career.Sectors {
			items = append(items, s.String())
		}
		choice, err := ui.Select("Sector", append(items, PromptBack), false)
		if err != nil {
			return err
		}
		if choice == PromptBack {
			return w.Back()
		}
		err = w.SelectSector(ctx, career.Sector(choice))
		switch {
		case errors.Is(err, wizard.ErrPersistence):
			logger.Error("could not save your profile, try again", zap.Error(err))
			return nil
		case err != nil && w.State() == wizard.HandedOff:
			// The profile is stored, only the assist channel failed.
			logger.Warn("hand-off failed", zap.Error(err))
			return nil
		}
		return reportValidation(err, out)

	case wizard.DreamJobSelect:
		items := append(w.JobOptions(""), PromptTypeOwn, PromptBack)
		choice, err := ui.Select("Dream job", items, true)
		if err != nil {
			return err
		}
		switch choice {
		case PromptBack:
			return w.Back()
		case PromptTypeOwn:
			if choice, err = ui.Input("Dream job"); err != nil {
				return err
			}
		}
		return reportValidation(w.SelectDreamJob(choice), out)

	case wizard.Summary:
		p := w.Profile()
		fmt.Fprintf(out, "\nClass:     %s\nSector:    %s\nDream job: %s\n\n", p.CurrentClass, p.Sector, p.DreamJob)

		choice, err := ui.Select("Save this profile?", []string{PromptSubmit, PromptBack, PromptCancel}, false)
		if err != nil {
			return err
		}
		switch choice {
		case PromptBack:
			return w.Back()
		case PromptCancel:
			return errCancelled
		}

		if _, err := w.Submit(ctx); err != nil {
			if errors.Is(err, wizard.ErrPersistence) {
				logger.Error("could not save your profile, try again", zap.Error(err))
				return nil
			}
			return err
		}
		return nil
	}

	return fmt.Errorf("unexpected wizard state %s", w.State())
}

// reportValidation prints validation errors and lets the user retry the step.
func reportValidation(err error, out io.Writer) error {
	if errors.Is(err, career.ErrValidation) {
		fmt.Fprintf(out, "%s\n", err)
		return nil
	}
	return err
}

func showOutcome(ctx context.Context, w *wizard.Wizard, m *matching.Matcher, out io.Writer) error {
	rec := w.Record()

	if w.State() == wizard.HandedOff {
		fmt.Fprintf(out, "Your profile was saved (id %s).\n", rec.ID)
		if t := w.Ticket(); t != nil {
			renderTicket(out, t)
		}
		return nil
	}

	fmt.Fprintf(out, "Your profile was saved (id %s).\n\n", rec.ID)

	roadmap, err := m.Match(ctx, career.TripleOf(rec.Submission()))
	if err != nil {
		return err
	}
	renderRoadmap(out, roadmap)
	return nil
}

// localSubmitter stores profiles directly, resolving the token to a user id
// when a verifier is configured.
type localSubmitter struct {
	store    store.Store
	verifier interface{ Verify(string) (string, error) }
}

func (s *localSubmitter) Submit(ctx context.Context, sub career.Submission, token string) (*career.Record, error) {
	if token != "" && s.verifier != nil {
		userID, err := s.verifier.Verify(token)
		if err != nil {
			return nil, err
		}
		sub.UserID = userID
	}
	return s.store.Create(ctx, sub)
}

var _ wizard.Submitter = (*localSubmitter)(nil)

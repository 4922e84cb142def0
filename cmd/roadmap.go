package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/career-path/internal/career"
	"github.com/spigell/career-path/internal/matching"
)

var roadmapCmd = &cobra.Command{
	Use:   "roadmap",
	Short: "Show the career paths ahead for a class, sector and dream job",
	Example: `  career-path roadmap --class 10th --sector "Private Sector" --job "Data Science"
  career-path roadmap --class Btech --sector private --job devops --disable-filter education_type`,
	Run: func(cmd *cobra.Command, _ []string) {
		roadmap(cmd)
	},
}

func init() {
	rootCmd.AddCommand(roadmapCmd)

	roadmapCmd.Flags().String("class", "", "current class, e.g. 10th or Btech")
	roadmapCmd.Flags().String("sector", "", "Private Sector, Public Sector or Other")
	roadmapCmd.Flags().String("job", "", "dream job, a catalog name or key")
	roadmapCmd.Flags().StringSlice("disable-filter", nil, "matcher filter to skip (education_type, stage_steps)")
	roadmapCmd.Flags().Bool("output-json", false, "print the roadmap as JSON")
}

func roadmap(cmd *cobra.Command) {
	logger, config := setup(false)
	defer logger.Sync()

	c, err := loadCatalog(config, logger)
	if err != nil {
		logger.Fatal("loading the catalog", zap.Error(err))
	}

	class, _ := cmd.Flags().GetString("class")
	sectorFlag, _ := cmd.Flags().GetString("sector")
	job, _ := cmd.Flags().GetString("job")

	triple, err := roadmapInput(class, sectorFlag, job)
	if err != nil {
		logger.Fatal("invalid input", zap.Error(err))
	}

	m := matching.NewMatcher(c, logger.Named("matcher"))
	disabled, _ := cmd.Flags().GetStringSlice("disable-filter")
	for _, name := range disabled {
		matching.DisableByName(m.Filters(), name, "disabled by flag")
	}
	for _, s := range matching.Describe(m.Filters()) {
		logger.Debug("matcher filter", zap.String("name", s.Name), zap.Bool("enabled", s.Enabled), zap.String("reason", s.Reason))
	}

	r, err := m.Match(context.Background(), triple)
	if err != nil {
		logger.Fatal("matching", zap.Error(err))
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("output-json"); asJSON {
		if err := renderJSON(out, r); err != nil {
			logger.Fatal("writing output", zap.Error(err))
		}
		return
	}
	renderRoadmap(out, r)
}

func roadmapInput(class, sector, job string) (career.Triple, error) {
	if class == "" {
		return career.Triple{}, errors.New("--class is required")
	}

	var s career.Sector
	if sector != "" {
		parsed, err := career.ParseSector(sector)
		if err != nil {
			return career.Triple{}, err
		}
		s = parsed
	}

	if s == career.UnknownSector {
		return career.Triple{}, fmt.Errorf("sector %q has no roadmap, use the wizard to talk to a counsellor", s)
	}

	return career.TripleOf(career.Submission{CurrentClass: class, Sector: s.String(), DreamJob: job}), nil
}

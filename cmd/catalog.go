package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/career-path/internal/career"
	"github.com/spigell/career-path/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse and check the career path catalog",
}

var catalogClassesCmd = &cobra.Command{
	Use:   "classes",
	Short: "List the classes the wizard offers",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		q, _ := cmd.Flags().GetString("query")
		for _, name := range catalog.Search(career.ClassNames(), q) {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

var catalogJobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List the dream jobs offered for a sector",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		logger, config := setup(false)
		defer logger.Sync()

		c, err := loadCatalog(config, logger)
		if err != nil {
			logger.Fatal("loading the catalog", zap.Error(err))
		}

		var sector career.Sector
		if raw, _ := cmd.Flags().GetString("sector"); raw != "" {
			if sector, err = career.ParseSector(raw); err != nil {
				logger.Fatal("invalid sector", zap.Error(err))
			}
		}

		q, _ := cmd.Flags().GetString("query")
		for _, name := range catalog.Search(c.JobNames(sector), q) {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check that a catalog file parses and is consistent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := catalog.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d public and %d private jobs\n",
			args[0], len(c.Public.Jobs), len(c.Private.Jobs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogClassesCmd, catalogJobsCmd, catalogValidateCmd)

	catalogClassesCmd.Flags().StringP("query", "q", "", "case-insensitive substring filter")
	catalogJobsCmd.Flags().StringP("query", "q", "", "case-insensitive substring filter")
	catalogJobsCmd.Flags().String("sector", "", "narrow to Private Sector or Public Sector")
}

package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/career-path/internal/career"
	"github.com/spigell/career-path/internal/careerapi"
	"github.com/spigell/career-path/internal/matching"
	"github.com/spigell/career-path/internal/store"
)

// recordSource is the read side shared by the local store and the API client.
type recordSource interface {
	Get(ctx context.Context, id string) (*career.Record, error)
	List(ctx context.Context) ([]*career.Record, error)
}

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect stored career profiles",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored career profiles, newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		withRecords(cmd, func(ctx context.Context, src recordSource, config *Config, logger *zap.Logger) {
			records, err := src.List(ctx)
			if err != nil {
				logger.Fatal("listing records", zap.Error(err))
			}
			if err := renderRecords(cmd.OutOrStdout(), records); err != nil {
				logger.Fatal("writing output", zap.Error(err))
			}
		})
	},
}

var recordsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a stored career profile and its roadmap",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withRecords(cmd, func(ctx context.Context, src recordSource, config *Config, logger *zap.Logger) {
			rec, err := src.Get(ctx, args[0])
			if err != nil {
				logger.Fatal("getting record", zap.Error(err), zap.String("id", args[0]))
			}

			out := cmd.OutOrStdout()
			if err := renderJSON(out, rec); err != nil {
				logger.Fatal("writing output", zap.Error(err))
			}

			if rec.Sector == career.UnknownSector.String() {
				return
			}

			r, err := roadmapFor(ctx, src, rec, config, logger)
			if err != nil {
				logger.Fatal("building the roadmap", zap.Error(err))
			}
			renderRoadmap(out, r)
		})
	},
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.AddCommand(recordsListCmd, recordsGetCmd)

	recordsCmd.PersistentFlags().Bool("local", false, "read the local database instead of the API")
}

func withRecords(cmd *cobra.Command, fn func(ctx context.Context, src recordSource, config *Config, logger *zap.Logger)) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger, config := setup(false)
	defer logger.Sync()

	if local, _ := cmd.Flags().GetBool("local"); local {
		st, err := store.Open(ctx, config.Store.Path, logger.Named("store"))
		if err != nil {
			logger.Fatal("opening the store", zap.Error(err))
		}
		defer st.Close()
		fn(ctx, st, config, logger)
		return
	}

	client, err := careerapi.New(logger.Named("api"), config.API.URL)
	if err != nil {
		logger.Fatal("creating the api client", zap.Error(err))
	}
	fn(ctx, client, config, logger)
}

// roadmapFor asks the API when reading remotely so the server's catalog is used.
func roadmapFor(ctx context.Context, src recordSource, rec *career.Record, config *Config, logger *zap.Logger) (*matching.Roadmap, error) {
	if client, ok := src.(*careerapi.Client); ok {
		return client.Roadmap(ctx, rec.ID)
	}

	c, err := loadCatalog(config, logger)
	if err != nil {
		return nil, err
	}
	return matching.NewMatcher(c, logger.Named("matcher")).Match(ctx, career.TripleOf(rec.Submission()))
}

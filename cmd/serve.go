package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/career-path/internal/server"
	"github.com/spigell/career-path/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the career profile and roadmap HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :5000)")
	serveCmd.Flags().StringSlice("allowed-origin", nil, "CORS allowed origin, may be repeated")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("server.allowed-origins", serveCmd.Flags().Lookup("allowed-origin"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup(false)
	defer logger.Sync()

	logger.Info("starting the career-path api", zap.String("version", version))

	c, err := loadCatalog(config, logger)
	if err != nil {
		logger.Fatal("loading the catalog", zap.Error(err))
	}

	st, err := store.Open(ctx, config.Store.Path, logger.Named("store"))
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err), zap.String("path", config.Store.Path))
	}
	defer st.Close()

	verifier, err := newVerifier(config)
	if err != nil {
		logger.Fatal("loading the auth secret", zap.Error(err))
	}
	if verifier == nil {
		logger.Warn("authenticated endpoint disabled",
			zap.String("hint", "set auth.secret-file or CAREER_PATH_AUTH_SECRET"),
		)
	}

	srv, err := server.New(config.Server, st, c, verifier, logger.Named("http"))
	if err != nil {
		logger.Fatal("creating the server", zap.Error(err))
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return
	}

	logger.Info("server stopped")
}

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage identity tokens for the authenticated endpoint",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue <user-id>",
	Short: "Issue a signed identity token for a user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger, config := setup(false)
		defer logger.Sync()

		verifier, err := newVerifier(config)
		if err != nil {
			logger.Fatal("loading the auth secret", zap.Error(err))
		}
		if verifier == nil {
			logger.Fatal("issuing a token", zap.Error(errors.New("auth.secret or auth.secret-file must be set")))
		}

		ttl, _ := cmd.Flags().GetDuration("ttl")
		token, err := verifier.Issue(args[0], ttl)
		if err != nil {
			logger.Fatal("issuing a token", zap.Error(err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenIssueCmd)

	tokenIssueCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
}

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"racetime/internal/auth"
	"racetime/internal/store"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Connect your Strava account",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	env, err := newEnv(false)
	if err != nil {
		return err
	}
	defer env.Close()

	ac, err := env.oauthConfig()
	if err != nil {
		return err
	}

	opts := auth.LoginOptions{
		Out:   cmd.OutOrStdout(),
		OnURL: func(u string) { env.log.WithField("url", u).Debug("waiting for strava callback") },
	}

	res, err := auth.Authenticate(cmd.Context(), auth.NewOAuthConfig(*ac), opts)
	if err != nil {
		return err
	}
	if err := auth.SaveResult(cmd.Context(), env.db, res); err != nil {
		return fmt.Errorf("saving login: %w", err)
	}
	printSuccess("Connected to Strava (athlete %d). Run `racetime sync` to fetch your runs.", res.AthleteID)
	return nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored Strava login",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv(false)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.db.DeleteAuth(cmd.Context()); err != nil {
			if errors.Is(err, store.ErrNoAuth) {
				printWarning("Not logged in.")
				return nil
			}
			return err
		}
		printSuccess("Strava login removed. Synced runs and races are kept.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

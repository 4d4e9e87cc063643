package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"racetime/internal/service"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch new runs and races from Strava",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	env, err := newEnv(false)
	if err != nil {
		return err
	}
	defer env.Close()

	client, err := env.stravaClient(cmd.Context())
	if err != nil {
		return fmt.Errorf("%w (run `racetime login` first)", err)
	}

	progress := make(chan service.SyncProgress, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			fmt.Printf("\r  page %d · %s fetched · %s stored   ",
				p.Page, humanize.Comma(int64(p.Fetched)), humanize.Comma(int64(p.Stored)))
		}
		fmt.Println()
	}()

	result, err := env.syncService(client).SyncAll(cmd.Context(), progress)
	<-done
	if err != nil {
		return err
	}

	printSyncResult(result)
	short, daily := client.RateLimitStatus()
	fmt.Println(mutedColor.Sprintf("  API requests left: %d (15min), %d (daily)", short, daily))
	return nil
}

func printSyncResult(r *service.SyncResult) {
	if r.ActivitiesStored == 0 {
		printSuccess("No new runs")
	} else {
		printSuccess("%s runs synced (%d with heart rate)", humanize.Comma(int64(r.ActivitiesStored)), r.RunsWithHR)
	}
	if r.RacesStored > 0 {
		printSuccess("%d races recorded", r.RacesStored)
	}
	for _, err := range r.Errors {
		printWarning("  %v", err)
	}
}

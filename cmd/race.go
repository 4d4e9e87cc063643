package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"racetime/internal/store"
)

var raceCmd = &cobra.Command{
	Use:   "race",
	Short: "Manage recorded race results",
}

var raceAddFlags struct {
	name     string
	distance string
	time     string
	date     string
	tags     []string
}

var raceAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Record a race result",
	Example: `  racetime race add --name "City 10K" --distance 10k --time 41:32 --date 2026-09-14`,
	Args:    cobra.NoArgs,
	RunE:    runRaceAdd,
}

var raceListJSON bool

var raceListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recorded races, newest first",
	Args:    cobra.NoArgs,
	RunE:    runRaceList,
}

var raceDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a race result",
	Args:    cobra.ExactArgs(1),
	RunE:    runRaceDelete,
}

func init() {
	f := raceAddCmd.Flags()
	f.StringVarP(&raceAddFlags.name, "name", "n", "", "race name")
	f.StringVarP(&raceAddFlags.distance, "distance", "d", "", "distance, e.g. 5k, half, 10mi, 21097")
	f.StringVarP(&raceAddFlags.time, "time", "t", "", "finish time, h:mm:ss or mm:ss")
	f.StringVar(&raceAddFlags.date, "date", "", "race date, YYYY-MM-DD (default today)")
	f.StringSliceVar(&raceAddFlags.tags, "tag", nil, "tag, e.g. trail or hilly (repeatable)")
	_ = raceAddCmd.MarkFlagRequired("distance")
	_ = raceAddCmd.MarkFlagRequired("time")

	raceListCmd.Flags().BoolVar(&raceListJSON, "json", false, "print races as JSON")

	raceCmd.AddCommand(raceAddCmd, raceListCmd, raceDeleteCmd)
	rootCmd.AddCommand(raceCmd)
}

// raceFromFlags validates the add flags into a race row
func raceFromFlags() (*store.Race, error) {
	distance, err := parseDistance(raceAddFlags.distance)
	if err != nil {
		return nil, err
	}
	seconds, err := parseRaceTime(raceAddFlags.time)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(raceAddFlags.date)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(raceAddFlags.name)
	if name == "" {
		name = humanize.FtoaWithDigits(distance/1000, 2) + "k race"
	}
	tags := []string{"race"}
	for _, t := range raceAddFlags.tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" && t != "race" {
			tags = append(tags, t)
		}
	}
	return &store.Race{
		Name:           name,
		DistanceMeters: distance,
		TimeSeconds:    seconds,
		Date:           date,
		Tags:           tags,
	}, nil
}

func runRaceAdd(cmd *cobra.Command, args []string) error {
	race, err := raceFromFlags()
	if err != nil {
		return err
	}

	env, err := newEnv(false)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.db.AddRace(cmd.Context(), race); err != nil {
		return fmt.Errorf("saving race: %w", err)
	}
	printSuccess("Recorded race #%d: %s, %s in %s", race.ID, race.Name,
		formatDistanceKm(race.DistanceMeters), formatRaceTime(race.TimeSeconds))
	return nil
}

func runRaceList(cmd *cobra.Command, args []string) error {
	env, err := newEnv(false)
	if err != nil {
		return err
	}
	defer env.Close()

	races, err := env.db.RacesSince(cmd.Context(), time.Time{})
	if err != nil {
		return err
	}
	if raceListJSON {
		return printJSON(races)
	}
	if len(races) == 0 {
		printWarning("No races recorded. Add one with `racetime race add`.")
		return nil
	}

	miles := env.cfg.Display.PaceUnit == "min/mi"
	fmt.Println(headerColor.Sprintf("  %5s  %-10s  %-28s %9s %9s %10s  %s", "ID", "Date", "Name", "Distance", "Time", "Pace", "Tags"))
	for _, r := range races {
		fmt.Printf("  %5d  %-10s  %-28s %9s %9s %10s  %s\n",
			r.ID,
			r.Date.Format("2006-01-02"),
			truncate(r.Name, 28),
			formatDistanceKm(r.DistanceMeters),
			formatRaceTime(r.TimeSeconds),
			formatPace(r.TimeSeconds, r.DistanceMeters, miles),
			mutedColor.Sprint(strings.Join(r.Tags, ",")),
		)
	}
	return nil
}

func runRaceDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid race id %q", args[0])
	}

	env, err := newEnv(false)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.db.DeleteRace(cmd.Context(), id); err != nil {
		if errors.Is(err, store.ErrRaceNotFound) {
			return fmt.Errorf("race #%d not found", id)
		}
		return err
	}
	printSuccess("Deleted race #%d", id)
	return nil
}

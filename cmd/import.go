package cmd

import (
	"github.com/spf13/cobra"

	"racetime/internal/service"
)

var importFlags struct {
	asRace bool
	tags   []string
}

var importCmd = &cobra.Command{
	Use:   "import <file.fit>...",
	Short: "Import runs from FIT files",
	Example: `  racetime import ~/Downloads/*.fit
  racetime import --race --tag trail parkrun.fit`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importFlags.asRace, "race", false, "also record each run as a race result")
	importCmd.Flags().StringSliceVar(&importFlags.tags, "tag", nil, "tag for imported races (repeatable)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	env, err := newEnv(false)
	if err != nil {
		return err
	}
	defer env.Close()

	result, err := service.NewImportService(env.db, env.log).ImportFiles(cmd.Context(), args, service.ImportOptions{
		AsRace: importFlags.asRace,
		Tags:   importFlags.tags,
	})
	if err != nil {
		return err
	}

	printSuccess("Imported %d runs", result.Imported)
	if result.Races > 0 {
		printSuccess("Recorded %d races", result.Races)
	}
	if result.Skipped > 0 {
		printWarning("Skipped %d files without a run", result.Skipped)
	}
	for _, e := range result.Errors {
		printWarning("  %v", e)
	}
	return nil
}

package cmd

import (
	"log"

	"github.com/spf13/cobra"
)

var rolloverCmd = &cobra.Command{
	Use:   "rollover",
	Short: "close the previous league week once",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		sum, err := rt.leagues.ProcessWeekRollover(cmd.Context())
		if err != nil {
			return err
		}
		if sum.AlreadyProcessed {
			log.Printf("ℹ️  Week %s was already closed", sum.WeekStart.Format("2006-01-02"))
		}
		log.Printf("✅ Rollover %s: %d leagues, %d promoted, %d demoted, %d maintained",
			sum.WeekStart.Format("2006-01-02"), sum.Processed, sum.Promoted, sum.Demoted, sum.Maintained)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rolloverCmd)
}

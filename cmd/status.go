package cmd

import (
	"fmt"

	"bitrot-detector/core/records"
	"bitrot-detector/core/utils"

	"github.com/spf13/cobra"
)

// statusCmd prints the state of a volume's record store.
var statusCmd = &cobra.Command{
	Use:   "status [root]",
	Short: "Show the last scan and record counts of a volume",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(args)
		if err != nil {
			return err
		}
		defer env.Close()

		ctx := cmd.Context()
		meta, err := records.LastScan(ctx, env.db)
		if err != nil {
			return err
		}
		stats, err := records.ReadStats(ctx, env.db)
		if err != nil {
			return err
		}

		fmt.Println("=== Record Store Status ===")
		fmt.Printf("Root: %s\n", env.root)
		fmt.Printf("Tracked Files: %s (%s)\n", utils.Count(int(stats.Tracked)), utils.Bytes(stats.Bytes))
		fmt.Printf("Corrupted Files: %s\n", utils.Count(int(stats.Corrupted)))

		if meta.LastScanID == "" {
			fmt.Println("Last Scan: never")
			return nil
		}
		fmt.Printf("Last Scan ID: %s\n", meta.LastScanID)
		if meta.LastScanStartTime != nil {
			fmt.Printf("Last Scan Started: %s (%s)\n", meta.LastScanStartTime.Local().Format("2006-01-02 15:04:05"), utils.Ago(*meta.LastScanStartTime))
		}
		if meta.LastScanCompleted && meta.LastScanEndTime != nil {
			fmt.Printf("Last Scan Finished: %s (%s)\n", meta.LastScanEndTime.Local().Format("2006-01-02 15:04:05"), utils.Ago(*meta.LastScanEndTime))
		} else {
			fmt.Println("Last Scan Finished: no, the last scan was interrupted")
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

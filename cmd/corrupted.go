package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"bitrot-detector/core/records"
	"bitrot-detector/core/utils"

	"github.com/spf13/cobra"
)

// corruptedCmd lists the files flagged as corrupted.
var corruptedCmd = &cobra.Command{
	Use:   "corrupted [root]",
	Short: "List files flagged as corrupted",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(args)
		if err != nil {
			return err
		}
		defer env.Close()

		recs, err := records.ListCorrupted(cmd.Context(), env.db)
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(recs)
		}

		if len(recs) == 0 {
			fmt.Println("No corrupted files.")
			return nil
		}
		for _, rec := range recs {
			fmt.Printf("%s  %s  %s\n", rec.Key, utils.Bytes(rec.Size), rec.Path)
			if rec.ExpectedHash != "" {
				fmt.Printf("    expected %s\n    found    %s\n", rec.ExpectedHash, rec.Hash)
			}
		}
		fmt.Printf("\n%d corrupted file(s). Restore them from backup, then run 'clear <key>'.\n", len(recs))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(corruptedCmd)
	corruptedCmd.Flags().Bool("json", false, "Output JSON")
}

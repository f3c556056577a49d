package cmd

import (
	"fmt"

	"bitrot-detector/core/fileid"
	"bitrot-detector/core/records"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// clearCmd resets the corruption flag of a record.
var clearCmd = &cobra.Command{
	Use:   "clear <key> [root]",
	Short: "Clear the corruption flag of a file",
	Long: `Clears the corruption flag of the record with the given identity key,
as printed by the corrupted command. The stored fingerprint is kept, so
restore the file first if its current content is not the one you want.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := fileid.ParseKey(args[0])
		if err != nil {
			return err
		}

		env, err := loadEnvironment(args[1:])
		if err != nil {
			return err
		}
		defer env.Close()

		store, err := records.Load(cmd.Context(), env.db)
		if err != nil {
			return err
		}
		rec, err := store.ClearCorruption(cmd.Context(), key)
		if err != nil {
			return err
		}

		env.logger.Info("Corruption flag cleared", zap.String("key", key.String()), zap.String("path", rec.Path.String()))
		fmt.Printf("Cleared: %s\n", rec.Path)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(clearCmd)
}

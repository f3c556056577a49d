package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"bitrot-detector/core/config"
	"bitrot-detector/core/logger"
	"bitrot-detector/core/storage"
	"bitrot-detector/core/utils"
	"bitrot-detector/feature/report"

	"github.com/spf13/cobra"
)

var (
	pruneKeep  int
	yesConfirm bool
)

// reportsCmd manages scan reports archived in object storage.
var reportsCmd = &cobra.Command{
	Use:   "reports [scan-id]",
	Short: "List, show or prune archived scan reports",
	Long: `Without arguments, lists the scan reports archived in object storage.
With a scan id, prints that report.

Examples:
  # Keep only the 10 newest reports
  bitrot-detector reports --prune 10 --yes`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logg.Sync()

		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}
		archiver := report.NewArchiver(client, cfg.Storage.Bucket, cfg.Storage.Region, cfg.Report, logg)
		ctx := cmd.Context()

		if len(args) == 1 {
			r, err := archiver.Get(ctx, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		}

		if cmd.Flags().Changed("prune") {
			if !confirm(fmt.Sprintf("Delete all but the %d newest reports?", pruneKeep), yesConfirm) {
				fmt.Println("Aborted.")
				return nil
			}
			removed, err := archiver.Prune(ctx, pruneKeep)
			fmt.Printf("Removed %d report(s).\n", removed)
			return err
		}

		objects, err := archiver.List(ctx)
		if err != nil {
			return err
		}
		if len(objects) == 0 {
			fmt.Println("No archived reports.")
			return nil
		}
		for _, obj := range objects {
			fmt.Printf("%-60s %10s  %s\n", obj.Key, utils.Bytes(obj.Size), utils.Ago(obj.LastModified))
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(reportsCmd)
	reportsCmd.Flags().IntVar(&pruneKeep, "prune", 0, "Delete all but the N newest reports")
	reportsCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")
}

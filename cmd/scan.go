package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitrot-detector/core/fileid"
	"bitrot-detector/core/hasher"
	"bitrot-detector/core/records"
	"bitrot-detector/core/reconcile"
	"bitrot-detector/core/utils"
	"bitrot-detector/feature/report"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// scanCmd reconciles a volume against its record store.
var scanCmd = &cobra.Command{
	Use:   "scan [root]",
	Short: "Scan a volume for new, modified, moved and corrupted files",
	Long: `Walks the volume, fingerprints new and modified files and compares
unchanged files against their stored fingerprint when --verify is set.

A file whose content differs from its record while its modification time
is unchanged is flagged as corrupted. Records of files that no longer exist
are removed once the scan completes.

Examples:
  # Fast scan: only new and modified files are hashed
  bitrot-detector scan /mnt/archive

  # Full verification with 4 workers and a JSON report
  bitrot-detector scan /mnt/archive --verify --workers 4 --report ./reports`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	RootCmd.AddCommand(scanCmd)

	scanCmd.Flags().Bool("verify", false, "Rehash files whose modification time is unchanged")
	scanCmd.Flags().Int("workers", 1, "Number of files examined concurrently")
	scanCmd.Flags().Duration("flush-interval", reconcile.DefaultFlushInterval, "Time between periodic flushes of pending records")
	scanCmd.Flags().StringSlice("exclude", nil, "Glob patterns of files and directories to skip")
	scanCmd.Flags().String("report", "", "Directory to write a JSON scan report to")
	scanCmd.Flags().Bool("upload", false, "Archive the scan report to object storage")
	scanCmd.Flags().BoolP("quiet", "q", false, "Only print the summary")
}

func runScan(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(args)
	if err != nil {
		return err
	}
	defer env.Close()

	applyScanFlags(cmd, env)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := records.Load(ctx, env.db)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %s records from %s\n", utils.Count(store.Len()), env.root)

	quiet, _ := cmd.Flags().GetBool("quiet")
	collector := report.NewCollector(progressPrinter(quiet))

	engine := reconcile.New(store, fileid.NewResolver(), hasher.NewSHA256(env.cfg.Scan.BufferSize()), env.logger, env.cfg.Scan.Options())
	summary, scanErr := engine.Scan(ctx, env.root, collector.Sink())
	if summary != nil {
		printSummary(summary, store.Corrupted())
	}
	if scanErr != nil {
		if errors.Is(scanErr, context.Canceled) {
			return fmt.Errorf("scan interrupted; progress was saved and the next scan resumes from it: %w", scanErr)
		}
		return scanErr
	}

	r := report.Build(summary, store.Corrupted(), collector.Errors())
	if env.cfg.Report.Dir != "" {
		path, err := report.WriteFile(env.cfg.Report.Dir, r)
		if err != nil {
			return err
		}
		fmt.Printf("Report saved to: %s\n", path)
	}

	if env.cfg.Report.Upload {
		archiver, err := env.archiver()
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}
		if archiver == nil {
			env.logger.Warn("Report upload requested but object storage is disabled")
			return nil
		}
		// A finished scan is not undone by a failed upload
		uploadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), env.cfg.Storage.Timeout())
		defer cancel()
		objName, err := archiver.Upload(uploadCtx, r)
		if err != nil {
			env.logger.Error("Report upload failed", zap.Error(err))
			return nil
		}
		fmt.Printf("Report archived to: %s/%s\n", env.cfg.Storage.Bucket, objName)
	}
	return nil
}

// applyScanFlags lets explicitly set flags override the loaded configuration.
func applyScanFlags(cmd *cobra.Command, env *environment) {
	flags := cmd.Flags()
	if flags.Changed("verify") {
		env.cfg.Scan.Verify, _ = flags.GetBool("verify")
	}
	if flags.Changed("workers") {
		env.cfg.Scan.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("flush-interval") {
		env.cfg.Scan.FlushInterval, _ = flags.GetDuration("flush-interval")
	}
	if flags.Changed("exclude") {
		env.cfg.Scan.Exclude, _ = flags.GetStringSlice("exclude")
	}
	if flags.Changed("report") {
		env.cfg.Report.Dir, _ = flags.GetString("report")
	}
	if flags.Changed("upload") {
		env.cfg.Report.Upload, _ = flags.GetBool("upload")
	}
}

// progressPrinter prints one line per progress update: [pct%] (n/total) message.
func progressPrinter(quiet bool) reconcile.ProgressSink {
	return func(p reconcile.ScanProgress) {
		if p.Message == "" {
			return
		}
		if quiet && p.Err == nil && p.Outcome != reconcile.OutcomeCorrupted {
			return
		}
		if p.Phase == reconcile.PhaseEnumerating && p.Err == nil {
			fmt.Println(p.Message)
			return
		}
		fmt.Printf("[%s] (%d/%d) %s\n", utils.Percent(p.Percent()), p.Processed, p.Total, p.Message)
	}
}

func printSummary(s *reconcile.Summary, corrupted []records.Record) {
	fmt.Println("\n=== Scan Summary ===")
	fmt.Printf("Scan ID: %s\n", s.ScanID)
	fmt.Printf("Root: %s\n", s.Root)
	fmt.Printf("Verified: %t\n", s.Verified)
	fmt.Printf("Files: %s\n", utils.Count(s.Total))
	fmt.Printf("New: %s\n", utils.Count(s.New))
	fmt.Printf("Modified: %s\n", utils.Count(s.Modified))
	fmt.Printf("Moved: %s\n", utils.Count(s.Moved))
	fmt.Printf("Unchanged: %s\n", utils.Count(s.Unchanged))
	fmt.Printf("Corrupted: %s\n", utils.Count(s.Corrupted))
	fmt.Printf("Removed: %s\n", utils.Count(s.Removed))
	fmt.Printf("Errors: %s\n", utils.Count(s.Errors))
	duration := s.Duration()
	if s.Finished.IsZero() {
		duration = time.Since(s.Started)
	}
	fmt.Printf("Execution Time: %s\n", utils.Duration(duration))
	if s.Cancelled {
		fmt.Println("Status: interrupted")
	}

	if len(corrupted) > 0 {
		fmt.Printf("\nWARNING: %d file(s) are flagged as corrupted:\n", len(corrupted))
		for _, rec := range corrupted {
			fmt.Printf("  %s  %s\n", rec.Key, rec.Path)
		}
	}
}

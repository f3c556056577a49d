package cmd

import (
	"fmt"
	"os"

	"bitrot-detector/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "bitrot-detector",
	Short: "Silent data corruption detector",
	Long: `bitrot-detector keeps a SHA-256 fingerprint of every file on a volume and
flags files whose content changed while their modification time did not.
Records live in .fileIntegrity/FileIntegrity.db at the volume root.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console encoding with the development config gives readable CLI errors
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

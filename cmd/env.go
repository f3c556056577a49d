package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"bitrot-detector/core/config"
	"bitrot-detector/core/database"
	"bitrot-detector/core/logger"
	"bitrot-detector/core/paths"
	"bitrot-detector/core/records"
	"bitrot-detector/core/storage"
	"bitrot-detector/feature/report"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// environment is the state shared by commands operating on one volume.
type environment struct {
	cfg    *config.Config
	logger *zap.Logger
	root   string
	db     *gorm.DB
}

// loadEnvironment loads configuration, builds the logger and opens the
// record store of the volume. The root comes from args, then SCAN_ROOT,
// then the working directory.
func loadEnvironment(args []string) (*environment, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	raw := cfg.Scan.Root
	if len(args) > 0 {
		raw = args[0]
	}
	if raw == "" {
		raw = "."
	}
	root, err := paths.ValidateVolumeRoot(raw)
	if err != nil {
		return nil, err
	}

	if cfg.Database.Driver == database.DriverSQLite {
		cfg.Database.Path = cfg.StorePath(root)
	}
	db, err := records.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}

	return &environment{
		cfg:    cfg,
		logger: logg.With(zap.String("root", root)),
		root:   root,
		db:     db,
	}, nil
}

func (e *environment) Close() {
	if err := database.Close(e.db); err != nil {
		e.logger.Warn("Failed to close record store", zap.Error(err))
	}
	_ = e.logger.Sync()
}

// archiver returns the report archiver, or nil when object storage is disabled.
func (e *environment) archiver() (*report.Archiver, error) {
	client, err := storage.NewClient(e.cfg.Storage)
	if errors.Is(err, storage.ErrDisabled) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return report.NewArchiver(client, e.cfg.Storage.Bucket, e.cfg.Storage.Region, e.cfg.Report, e.logger), nil
}

// confirm prompts for confirmation unless yes is set.
func confirm(prompt string, yes bool) bool {
	if yes {
		return true
	}

	fmt.Printf("%s Type 'yes' to confirm: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}

package reconcile

import "time"

// Config holds the scan settings loaded from the environment.
type Config struct {
	// Root is the volume root scanned when none is given on the command line.
	Root string `mapstructure:"root" default:""`
	// Verify rehashes files whose timestamp is unchanged.
	Verify bool `mapstructure:"verify" default:"false"`
	// Workers is the number of files examined concurrently.
	Workers int `mapstructure:"workers" default:"1"`
	// FlushInterval is the time between periodic flushes of pending records.
	FlushInterval time.Duration `mapstructure:"flush_interval" default:"5m"`
	// StoreDir is the hidden directory holding the record store inside the volume.
	StoreDir string `mapstructure:"store_dir" default:".fileIntegrity"`
	// StoreName is the database file name inside StoreDir.
	StoreName string `mapstructure:"store_name" default:"FileIntegrity.db"`
	// BufferSizeKB is the read buffer used while hashing.
	BufferSizeKB int `mapstructure:"buffer_size_kb" default:"1024"`
	// Exclude holds comma separated glob patterns of files and directories to skip.
	Exclude []string `mapstructure:"exclude" default:""`
}

// Options converts the configuration into engine options.
func (c Config) Options() Options {
	var exclude []string
	for _, p := range c.Exclude {
		if p != "" {
			exclude = append(exclude, p)
		}
	}
	return Options{
		Verify:        c.Verify,
		Workers:       c.Workers,
		FlushInterval: c.FlushInterval,
		StoreDir:      c.StoreDir,
		Exclude:       exclude,
	}.withDefaults()
}

// BufferSize returns the hashing buffer size in bytes.
func (c Config) BufferSize() int {
	return c.BufferSizeKB * 1024
}

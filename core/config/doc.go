// Package config provides configuration management for the bit-rot detector.
//
// Settings are read from environment variables, optionally seeded from a
// .env file in the working directory.
//
// # Configuration Structure
//
// The Config struct is divided into subsections:
//   - Scan: volume root, verification mode, workers and flush interval
//   - Database: record store driver (sqlite by default, mysql for shared catalogs)
//   - Report: local report directory and archive upload
//   - Storage: S3/MinIO credentials and bucket settings
//   - Log: logging level and format
//   - Server: HTTP server settings (port, API key)
//
// Environment keys mirror the nesting, e.g. SCAN_FLUSH_INTERVAL=1m or
// DATABASE_DRIVER=mysql.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Scan.Workers)
package config

// Package logger provides a structured logging facility based on Zap.
//
// Scans log one line per skipped file at warn level, one line per detected
// corruption at error level and a summary at info level. HTTP handlers attach
// the request's RayID with WithRayID so that all entries of one request can be
// correlated.
//
// # Configuration
//
//   - Level: debug, info, warn, error
//   - Format: json or console
//   - Output: stderr, stdout or a file path
//
// # Usage
//
//	log, _ := logger.New(&cfg.Log)
//	log.Info("Scan started", zap.String("root", root))
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger

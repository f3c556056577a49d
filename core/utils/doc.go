// Package utils provides small helpers shared by the CLI and HTTP layers:
// lenient flag parsing and human-readable formatting of sizes, counts and
// times.
package utils

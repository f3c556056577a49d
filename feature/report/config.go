package report

// Config holds report output settings.
type Config struct {
	// Dir is the directory scan reports are written to. Empty disables local reports.
	Dir string `mapstructure:"dir" default:""`
	// Upload archives every report to object storage.
	Upload bool `mapstructure:"upload" default:"false"`
	// Prefix is the object key prefix of archived reports.
	Prefix string `mapstructure:"prefix" default:"reports"`
	// Keep is the number of archived reports retained. Zero keeps all.
	Keep int `mapstructure:"keep" default:"0"`
}

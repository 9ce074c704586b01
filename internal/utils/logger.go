package utils

import "go.uber.org/zap"

// NewLogger builds the CLI logger. Verbose mode uses the human-readable
// development encoder with debug output enabled.
func NewLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

package utils

import "go.uber.org/zap"

// NewLogger returns a zap logger named "shiori". When debug is true, uses development config
// (human-readable, debug level); otherwise uses production config (JSON, info level).
// Logs always go to stderr so command output on stdout stays machine-readable.
func NewLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named("shiori"), nil
}

package application

import "log/slog"

// ResolveLogger falls back to the process default so modules can run without
// explicit logger wiring.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

package application

import "log/slog"

const Module = "community-interaction/interaction-service"

func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

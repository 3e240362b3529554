package types

// LogLevel controls logger verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// RunMode distinguishes local development from production deployments.
type RunMode string

const (
	RunModeLocal      RunMode = "local"
	RunModeProduction RunMode = "production"
)

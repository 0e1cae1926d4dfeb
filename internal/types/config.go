package types

type RunMode string

const (
	// ModeLocal is the mode for local development against a single-node replica set
	ModeLocal RunMode = "local"
	// ModeAPI is the mode for running as the API backend
	ModeAPI RunMode = "api"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
)

package types

// Metadata is a map of string key-value pairs for arbitrary per-record data
type Metadata map[string]string

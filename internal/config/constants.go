package config

// Default paths for local storage
const (
	// DefaultDatabasePath is the default path for the catalog database
	DefaultDatabasePath = "./shelf.db"

	// DefaultSandboxDir is the default private directory for cached content
	DefaultSandboxDir = "./sandbox"
)

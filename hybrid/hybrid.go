// Package hybrid holds application-level defaults shared across packages.
package hybrid

const (
	DefaultAppName    = "hybrid-ide"
	DefaultConfigPath = "/etc/hybrid-ide"

	// DefaultStateDir is resolved relative to the user home when not absolute.
	DefaultStateDir   = ".hybrid-ide"
	DefaultStateFile  = "context.json"
	DefaultHealthFile = "health_status.json"

	// DefaultCacheDSN points the persistent response cache at a local file.
	DefaultCacheDSN = "file:hybrid-ide-cache.db"
)

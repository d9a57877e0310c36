// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// App is the canonical application identifier used for filesystem paths and CLI branding.
	App = "hlsrip"

	// Version is the current application semantic version string.
	Version = "0.3.1"

	// Repository is the GitHub owner/name pair releases are published under.
	Repository = "hlsrip-cli/hlsrip"

	// UserAgent is the fallback HTTP User-Agent used when the session does not provide one.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Build metadata, overridden through -ldflags at release time.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)

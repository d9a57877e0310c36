// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// DefinedFieldsCount represents the total cardinality of the application configuration schema.
const DefinedFieldsCount = 23

// Grab Pipeline - these keys tune the manifest-to-file pipeline.
const (
	GrabOutputDir      = "grab.output_dir"
	GrabConcurrency    = "grab.concurrency"
	GrabRetries        = "grab.retries"
	GrabBackoffMillis  = "grab.backoff_ms"
	GrabTimeout        = "grab.timeout"
	GrabDetectWindow   = "grab.detect_window"
	GrabSegmentTimeout = "grab.segment_timeout"
	GrabTransport      = "grab.transport"
	GrabMaxSegments    = "grab.max_segments"
)

// Assembly - these keys select and locate the remux backend.
const (
	AssembleRemuxer = "assemble.remuxer"
	AssembleFFmpeg  = "assemble.ffmpeg"
	AssembleCurl    = "assemble.curl"
)

// Networking - these keys shape the outbound HTTP client.
const (
	NetworkFingerprint = "network.fingerprint"
)

// Session Acquisition - these keys govern cached and interactive logins.
const (
	AuthCacheLifetime = "auth.cache_lifetime"
	AuthLoginURL      = "auth.login_url"
)

// History Tracking - these keys configure the persistence of finished runs.
const (
	HistorySave = "history.save"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern terminal behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
	CliProgress     = "cli.progress"
)

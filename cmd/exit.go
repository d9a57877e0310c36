package cmd

import (
	"errors"

	"github.com/hlsrip-cli/hlsrip/assemble"
	"github.com/hlsrip-cli/hlsrip/auth"
	"github.com/hlsrip-cli/hlsrip/manifest"
	"github.com/hlsrip-cli/hlsrip/proc"
	"github.com/hlsrip-cli/hlsrip/retrieve"
	"github.com/hlsrip-cli/hlsrip/segment"
)

// Process exit codes, one per failure class of a run.
const (
	exitGeneric     = 1
	exitLogin       = 10
	exitDetection   = 11
	exitManifest    = 12
	exitPattern     = 13
	exitRetrieval   = 14
	exitToolMissing = 15
	exitAssembly    = 16
	exitInput       = 17
)

// errUsage marks invalid command line input.
var errUsage = errors.New("invalid input")

func exitCodeFor(err error) int {
	var fetchErr *retrieve.SegmentFetchError

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, segment.ErrNotAManifestURL):
		return exitInput
	case errors.Is(err, auth.ErrLoginFailed), errors.Is(err, auth.ErrNoSession):
		return exitLogin
	case errors.Is(err, manifest.ErrNoManifestDetected):
		return exitDetection
	case errors.Is(err, manifest.ErrUnavailable):
		return exitManifest
	case errors.Is(err, segment.ErrPatternNotFound), errors.Is(err, segment.ErrRangeTooLarge):
		return exitPattern
	case errors.Is(err, retrieve.ErrAuthExpired),
		errors.Is(err, retrieve.ErrTransportUnavailable),
		errors.Is(err, assemble.ErrIncompleteSegmentSet),
		errors.As(err, &fetchErr):
		return exitRetrieval
	case errors.Is(err, assemble.ErrToolUnavailable), errors.Is(err, proc.ErrNotFound):
		return exitToolMissing
	case errors.Is(err, assemble.ErrAssemblyFailed):
		return exitAssembly
	default:
		return exitGeneric
	}
}

package constant

// HLS addressing conventions shared by the pipeline stages.
const (
	// ManifestSuffix is the file extension a manifest URL path must carry.
	ManifestSuffix = ".m3u8"

	// SegmentSuffix is the file extension of sequentially numbered media segments.
	SegmentSuffix = ".ts"

	// SegmentMarker is the directive that marks a media playlist with playable segments.
	SegmentMarker = "#EXTINF"

	// ListFile is the name of the ordering file consumed by the remux step.
	ListFile = "list.txt"

	// TagLayout is the time layout of default session tags.
	TagLayout = "20060102_150405"

	// DefaultOutputExt is appended to outputs given without an extension.
	DefaultOutputExt = ".mp4"
)

package grab

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/hlsrip-cli/hlsrip/segment"
	"github.com/hlsrip-cli/hlsrip/util"
)

// Report describes one run, successful or not.
type Report struct {
	ID       string `json:"id" jsonschema:"description=Unique identifier of the run."`
	Tag      string `json:"tag" jsonschema:"description=Session tag, also the name of the segment directory."`
	Page     string `json:"page,omitempty" jsonschema:"description=Web page the session was opened on."`
	Manifest string `json:"manifest,omitempty" jsonschema:"description=URL of the manifest that was used."`

	Pattern  *segment.Pattern `json:"pattern,omitempty" jsonschema:"description=Detected numeric addressing of the segments."`
	Template string           `json:"template,omitempty" jsonschema:"description=Bracket range template covering every segment."`

	SessionDir string `json:"session_dir,omitempty" jsonschema:"description=Directory holding the retrieved segments. It is never deleted."`
	Output     string `json:"output,omitempty" jsonschema:"description=Path of the assembled file."`
	Remuxer    string `json:"remuxer,omitempty" jsonschema:"description=Backend used for the final remux."`

	Segments  int      `json:"segments" jsonschema:"description=Number of segments in the range."`
	Retrieved int      `json:"retrieved" jsonschema:"description=Number of segments written to disk."`
	Failed    []uint64 `json:"failed,omitempty" jsonschema:"description=Indices that could not be retrieved."`
	Bytes     int64    `json:"bytes" jsonschema:"description=Total size of the retrieved segments."`

	StartedAt time.Time `json:"started_at"`
	Seconds   float64   `json:"seconds" jsonschema:"description=Wall time of the run."`
	Error     string    `json:"error,omitempty" jsonschema:"description=Failure message when the run did not complete."`
}

func newReport(page, tag string, started time.Time) *Report {
	return &Report{
		ID:        uuid.NewString(),
		Page:      page,
		Tag:       tag,
		StartedAt: started,
	}
}

// Succeeded reports whether the run produced its output.
func (r *Report) Succeeded() bool {
	return r.Error == "" && r.Output != ""
}

// Summary is a one-line human description of the run.
func (r *Report) Summary() string {
	took := time.Duration(r.Seconds * float64(time.Second)).Round(time.Second)
	s := fmt.Sprintf(
		"%s of %s, %s in %s",
		util.Quantify(r.Retrieved, "segment", "segments"),
		fmt.Sprint(r.Segments),
		humanize.Bytes(uint64(r.Bytes)),
		took,
	)
	if n := len(r.Failed); n > 0 {
		s += fmt.Sprintf(", %d failed", n)
	}
	return s
}

package manifest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/hlsrip-cli/hlsrip/filesystem"
)

// HAR replays manifest requests recorded in an HTTP Archive exported from
// the browser's network panel while the video played.
type HAR struct {
	Path string
}

type harFile struct {
	Log struct {
		Entries []harEntry `json:"entries"`
	} `json:"log"`
}

type harEntry struct {
	StartedDateTime time.Time `json:"startedDateTime"`
	Request         struct {
		Method  string      `json:"method"`
		URL     string      `json:"url"`
		Headers []harHeader `json:"headers"`
	} `json:"request"`
	Response struct {
		Status  int `json:"status"`
		Content struct {
			Text     string `json:"text"`
			Encoding string `json:"encoding"`
		} `json:"content"`
	} `json:"response"`
}

type harHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Discover emits every manifest request of the archive in chronological order.
func (h HAR) Discover(ctx context.Context, out chan<- Observation) error {
	entries, err := h.entries()
	if err != nil {
		return err
	}

	for _, obs := range entries {
		select {
		case out <- obs:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (h HAR) entries() ([]Observation, error) {
	data, err := filesystem.API().ReadFile(h.Path)
	if err != nil {
		return nil, fmt.Errorf("read har: %w", err)
	}

	var archive harFile
	if err := json.Unmarshal(data, &archive); err != nil {
		return nil, fmt.Errorf("parse har: %w", err)
	}

	entries := archive.Log.Entries
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].StartedDateTime.Before(entries[j].StartedDateTime)
	})

	var observations []Observation
	for _, e := range entries {
		if !IsManifestURL(e.Request.URL) {
			continue
		}

		headers := make(map[string]string, len(e.Request.Headers))
		for _, hdr := range e.Request.Headers {
			headers[hdr.Name] = hdr.Value
		}

		var body string
		if e.Response.Status >= 200 && e.Response.Status < 300 {
			body = e.Response.Content.Text
			if e.Response.Content.Encoding == "base64" {
				decoded, err := base64.StdEncoding.DecodeString(body)
				if err != nil {
					body = ""
				} else {
					body = string(decoded)
				}
			}
		}

		observations = append(observations, Observation{
			URL:            e.Request.URL,
			RequestHeaders: headers,
			Body:           body,
			SeenAt:         e.StartedDateTime,
		})
	}

	return observations, nil
}

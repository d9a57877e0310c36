// Package history keeps the reports of past runs.
package history

import (
	"sync"

	"github.com/hlsrip-cli/hlsrip/filesystem"
	"github.com/hlsrip-cli/hlsrip/grab"
	"github.com/hlsrip-cli/hlsrip/where"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/metafates/gache"
	"golang.org/x/exp/slices"
)

// Capacity is the number of runs kept; the oldest are dropped first.
const Capacity = 200

// cacher provides a disk-backed registry of run reports keyed by run ID.
var cacher = sync.OnceValue(func() *gache.Cache[map[string]*grab.Report] {
	return gache.New[map[string]*grab.Report](
		&gache.Options{
			Path:       where.History(),
			FileSystem: &filesystem.GacheFs{},
		},
	)
})

// Get returns every saved report keyed by run ID.
func Get() (map[string]*grab.Report, error) {
	cached, expired, err := cacher().Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*grab.Report), nil
	}
	return cached, nil
}

// List returns saved reports, most recent first.
func List() ([]*grab.Report, error) {
	saved, err := Get()
	if err != nil {
		return nil, err
	}

	reports := make([]*grab.Report, 0, len(saved))
	for _, r := range saved {
		reports = append(reports, r)
	}
	sortRecentFirst(reports)
	return reports, nil
}

// Save records report, evicting the oldest entries past Capacity.
func Save(report *grab.Report) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	saved[report.ID] = report

	if len(saved) > Capacity {
		reports := make([]*grab.Report, 0, len(saved))
		for _, r := range saved {
			reports = append(reports, r)
		}
		sortRecentFirst(reports)
		for _, r := range reports[Capacity:] {
			delete(saved, r.ID)
		}
	}

	return cacher().Set(saved)
}

// Remove deletes the report with the given run ID.
func Remove(id string) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, id)
	return cacher().Set(saved)
}

// Filter keeps the reports whose page, manifest, tag or output fuzzily match query.
func Filter(reports []*grab.Report, query string) []*grab.Report {
	if query == "" {
		return reports
	}

	var matched []*grab.Report
	for _, r := range reports {
		for _, field := range []string{r.Tag, r.Output, r.Page, r.Manifest} {
			if field != "" && fuzzy.MatchNormalizedFold(query, field) {
				matched = append(matched, r)
				break
			}
		}
	}
	return matched
}

func sortRecentFirst(reports []*grab.Report) {
	slices.SortStableFunc(reports, func(a, b *grab.Report) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
}

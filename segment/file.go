package segment

import "golang.org/x/exp/slices"

// File is one retrieved segment on local storage.
type File struct {
	Index uint64 `json:"index"`
	Path  string `json:"path"`
}

// SortByIndex orders files by numeric index, in place.
func SortByIndex(files []File) {
	slices.SortFunc(files, func(a, b File) int {
		switch {
		case a.Index < b.Index:
			return -1
		case a.Index > b.Index:
			return 1
		default:
			return 0
		}
	})
}

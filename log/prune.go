package log

import (
	"os"
	"path/filepath"
	"time"

	"github.com/hlsrip-cli/hlsrip/filesystem"
	"github.com/spf13/afero"
)

// Retention is how long daily log files are kept.
const Retention = 14 * 24 * time.Hour

// Prune removes the log files in dir last written before now minus retention.
// It returns the number of files removed.
func Prune(dir string, retention time.Duration, now time.Time) int {
	var removed int
	fs := filesystem.API()

	_ = afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || filepath.Ext(path) != ".log" {
			return nil
		}
		if now.Sub(info.ModTime()) > retention {
			if fs.Remove(path) == nil {
				removed++
			}
		}
		return nil
	})

	return removed
}

// Package report writes sweep results to disk: per-sweep CSV tables, an
// aligned tc3omega CSV, a PNG line plot, and an HTML chart.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const dirDateLayout = "2006-01-02"

// OutputDir creates a fresh directory under parent and returns its path.
// An empty name defaults to "recorded_<date>". When the name is already
// taken, a "(1)", "(2)", ... suffix is appended until creation succeeds.
func OutputDir(parent, name string) (string, error) {
	if name == "" {
		name = "recorded_" + time.Now().Format(dirDateLayout)
	}

	candidate := name
	for d := 1; ; d++ {
		path := filepath.Join(parent, candidate)
		err := os.Mkdir(path, 0755)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("creating output directory: %w", err)
		}
		candidate = fmt.Sprintf("%s(%d)", name, d)
	}
}

package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/lockin.report/internal/testutil"
)

func TestOutputDirCreates(t *testing.T) {
	parent := t.TempDir()

	dir, err := OutputDir(parent, "run")
	testutil.AssertNoError(t, err)
	if dir != filepath.Join(parent, "run") {
		t.Errorf("got %q, want %q", dir, filepath.Join(parent, "run"))
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Errorf("expected directory at %q, err=%v", dir, err)
	}
}

func TestOutputDirCollisionSuffix(t *testing.T) {
	parent := t.TempDir()

	want := []string{"run", "run(1)", "run(2)"}
	for _, name := range want {
		dir, err := OutputDir(parent, "run")
		testutil.AssertNoError(t, err)
		if got := filepath.Base(dir); got != name {
			t.Errorf("got %q, want %q", got, name)
		}
	}
}

func TestOutputDirDefaultName(t *testing.T) {
	parent := t.TempDir()

	dir, err := OutputDir(parent, "")
	testutil.AssertNoError(t, err)
	if !strings.HasPrefix(filepath.Base(dir), "recorded_") {
		t.Errorf("default name %q should start with recorded_", filepath.Base(dir))
	}
}

func TestOutputDirBadParent(t *testing.T) {
	_, err := OutputDir(filepath.Join(t.TempDir(), "missing"), "run")
	testutil.AssertError(t, err)
}

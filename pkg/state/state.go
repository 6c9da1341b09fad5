// Package state manages the daemon's on-disk runtime layout.
package state

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds the resolved runtime folders under the DB path.
type Paths struct {
	Store string
	Tmp   string
}

// PathsVar is set by EnsureStateDirs and read by components that need a
// scratch location.
var PathsVar Paths

// EnsureStateDirs ensures the runtime folder layout exists under the
// provided DB path. Paths must not be symlinks and must be writable by
// the process; the draft database itself lives under <dbPath>/store.
func EnsureStateDirs(dbPath string) error {
	storePath := filepath.Join(dbPath, "store")
	tmpPath := filepath.Join(dbPath, "state", "tmp")

	for _, p := range []string{storePath, tmpPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
			return fmt.Errorf("cannot create parent for %s: %w", p, err)
		}
		if fi, err := os.Lstat(p); err == nil {
			if fi.Mode()&os.ModeSymlink != 0 {
				return fmt.Errorf("path is a symlink: %s", p)
			}
			if !fi.IsDir() {
				return fmt.Errorf("path exists and is not a directory: %s", p)
			}
		}
		if err := os.MkdirAll(p, 0o700); err != nil {
			return fmt.Errorf("cannot create path %s: %w", p, err)
		}
		tmp, err := os.CreateTemp(p, ".validate-*")
		if err != nil {
			return fmt.Errorf("path not writable: %s: %w", p, err)
		}
		tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	PathsVar = Paths{Store: storePath, Tmp: tmpPath}
	return nil
}

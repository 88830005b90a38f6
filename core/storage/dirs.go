// Package storage resolves the platform directories branchobs reads its
// configuration from and writes collected datasets to, with XDG support.
package storage

import (
	"os"
	"path/filepath"
)

const appName = "branchobs"

// Dirs holds the per-user directories.
type Dirs struct {
	Config string // config.yaml
	Data   string // sample stores
}

// ResolveDirs returns platform-appropriate directories. XDG_CONFIG_HOME and
// XDG_DATA_HOME take precedence over the platform defaults.
func ResolveDirs() *Dirs {
	return &Dirs{
		Config: resolveDir("XDG_CONFIG_HOME", platformConfigDefault()),
		Data:   resolveDir("XDG_DATA_HOME", platformDataDefault()),
	}
}

func resolveDir(envVar, fallback string) string {
	if dir := os.Getenv(envVar); dir != "" {
		return filepath.Join(dir, appName)
	}
	return fallback
}

// ProjectConfig returns the project-local config file under root.
func ProjectConfig(root string) string {
	return filepath.Join(root, "."+appName, "config.yaml")
}

// ConfigFile returns the user config file.
func (d *Dirs) ConfigFile() string {
	return filepath.Join(d.Config, "config.yaml")
}

// DataDir returns a path under the data directory.
func (d *Dirs) DataDir(subpath ...string) string {
	return filepath.Join(append([]string{d.Data}, subpath...)...)
}

// DatasetPath returns the default location of the SQLite sample store.
func (d *Dirs) DatasetPath() string {
	return d.DataDir("samples.db")
}

// EnsureParent creates the parent directory of path with 0755 permissions.
func EnsureParent(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}

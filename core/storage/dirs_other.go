//go:build !linux && !windows

package storage

import (
	"os"
	"path/filepath"
)

func platformConfigDefault() string {
	home, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName, "config")
	}
	return filepath.Join(home, appName)
}

func platformDataDefault() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName, "data")
	}
	return filepath.Join(home, "."+appName)
}

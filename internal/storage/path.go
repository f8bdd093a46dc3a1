package storage

import (
	"os"
	"path/filepath"
)

// DefaultDBName is the database file name used when no explicit path is configured.
const DefaultDBName = "fintrack.db"

// ResolvePath picks the database file. An explicit path wins. Otherwise the
// first existing candidate is used, in order: working directory, next to the
// executable, ./data. If none exists the bare file name is returned and the
// file is created in the working directory on open.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, candidate := range candidatePaths() {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return DefaultDBName
}

func candidatePaths() []string {
	paths := []string{filepath.Join(".", DefaultDBName)}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), DefaultDBName))
	}
	return append(paths, filepath.Join(".", "data", DefaultDBName))
}

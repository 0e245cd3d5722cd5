// Package pathutil provides centralized path management for txledger's data files.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathResolver manages paths for the run history database and report files.
type PathResolver struct {
	dataDir      string
	databasePath string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// DataDir is the directory holding txledger's own files (e.g., ./.txledger)
	DataDir string
	// DatabasePath is the path to the SQLite run history database
	DatabasePath string
}

// New creates a new PathResolver with the given configuration.
// If DatabasePath is empty, it defaults to {DataDir}/history.db
func New(config Config) *PathResolver {
	dbPath := config.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(config.DataDir, "history.db")
	}

	return &PathResolver{
		dataDir:      config.DataDir,
		databasePath: dbPath,
	}
}

// GetDataDir returns the data directory.
func (p *PathResolver) GetDataDir() string {
	return p.dataDir
}

// GetDatabasePath returns the database file path.
func (p *PathResolver) GetDatabasePath() string {
	return p.databasePath
}

// ResolveInput returns the absolute path of an input file and checks that it
// is a readable regular file.
func (p *PathResolver) ResolveInput(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("failed to stat input: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("input %s is a directory", path)
	}

	return abs, nil
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	dir := filepath.Dir(filePath)
	return p.EnsureDir(dir)
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}

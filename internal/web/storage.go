package web

import (
	"fmt"
	"os"
	"path/filepath"
)

// ArtifactStore keeps finished ledger artifacts available for
// download. The caller owns artifact lifetime; the pipeline's temp
// cleanup never touches this store.
type ArtifactStore interface {
	// Save stores an artifact under a name.
	Save(name string, data []byte) error

	// Get retrieves an artifact by name.
	Get(name string) ([]byte, error)

	// Delete removes an artifact.
	Delete(name string) error
}

// LocalArtifacts implements ArtifactStore on the local filesystem.
type LocalArtifacts struct {
	basePath string
}

// NewLocalArtifacts creates a LocalArtifacts instance, creating the
// directory if needed.
func NewLocalArtifacts(basePath string) (*LocalArtifacts, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}
	return &LocalArtifacts{basePath: basePath}, nil
}

// Save stores an artifact on disk.
func (l *LocalArtifacts) Save(name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(l.basePath, name), data, 0644); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	return nil
}

// Get retrieves an artifact from disk.
func (l *LocalArtifacts) Get(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, name))
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}
	return data, nil
}

// Delete removes an artifact from disk.
func (l *LocalArtifacts) Delete(name string) error {
	if err := os.Remove(filepath.Join(l.basePath, name)); err != nil {
		return fmt.Errorf("deleting artifact: %w", err)
	}
	return nil
}

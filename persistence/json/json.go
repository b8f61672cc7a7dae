// Package json writes a completed run's full result payload as a single
// JSON file, the optional artifact the run entrypoint's external collaborators
// (the API wrapper, ad-hoc inspection) read alongside the durable store.
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AltairaLabs/beliefbench/persistence"
	"github.com/AltairaLabs/beliefbench/types"
)

const (
	dirPerm  = 0o750
	filePerm = 0o600
)

// Compile-time interface check.
var _ persistence.ArtifactWriter = (*Writer)(nil)

// Writer writes one artifact file per run under BaseDir, named "<run_id>.json".
type Writer struct {
	BaseDir string
}

// New creates a Writer rooted at baseDir. The directory is created on first write.
func New(baseDir string) *Writer {
	return &Writer{BaseDir: baseDir}
}

// WriteArtifact implements persistence.ArtifactWriter.
func (w *Writer) WriteArtifact(_ context.Context, result types.RunResult) error {
	if result.RunID == "" {
		return fmt.Errorf("json artifact writer: result has empty run_id")
	}

	if err := os.MkdirAll(w.BaseDir, dirPerm); err != nil {
		return fmt.Errorf("json artifact writer: creating %s: %w", w.BaseDir, err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("json artifact writer: marshaling result: %w", err)
	}

	path := filepath.Join(w.BaseDir, result.RunID+".json")
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("json artifact writer: writing %s: %w", path, err)
	}
	return nil
}

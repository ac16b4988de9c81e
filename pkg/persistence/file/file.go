// Package file provides file-based persistence for workflow definitions and
// instances. Definitions are stored one JSON file per (id, version);
// instances one JSON file per id. A process-wide mutex serializes instance
// writes so the optimistic-concurrency check stays race free.
package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lexflow/lexflow/pkg/persistence"
)

const dirPermissions = 0o755

// Persistence implements persistence.Persistence on the file system.
type Persistence struct {
	root        string
	instancesMu sync.Mutex
}

// NewPersistence creates a file persistence rooted at root. The "file://"
// prefix of a database URL is accepted and stripped.
func NewPersistence(root string) (*Persistence, error) {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	for _, dir := range []string{definitionsDir(cleanRoot), instancesDir(cleanRoot)} {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return nil, err
		}
	}

	return &Persistence{root: cleanRoot}, nil
}

func definitionsDir(root string) string {
	return filepath.Join(root, "definitions")
}

func instancesDir(root string) string {
	return filepath.Join(root, "instances")
}

// Close performs any necessary cleanup. For file persistence there is none.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); err != nil {
		return err
	}

	return nil
}

var _ persistence.Persistence = (*Persistence)(nil)

package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lexflow/lexflow/pkg/models"
	"github.com/lexflow/lexflow/pkg/persistence"
)

const filePermissions = 0o644

func definitionPath(root, id string, version int) string {
	return filepath.Join(definitionsDir(root), fmt.Sprintf("%s.v%d.json", id, version))
}

// SaveDefinition writes a definition version. Versions are append-only: an
// existing (id, version) file is never overwritten.
func (p *Persistence) SaveDefinition(_ context.Context, definition *models.WorkflowDefinition) error {
	path := definitionPath(p.root, definition.ID, definition.Version)

	if _, err := os.Stat(path); err == nil {
		return persistence.NewDefinitionError("Save", definition.ID, definition.Version, persistence.ErrDefinitionVersionExists)
	}

	data, err := json.MarshalIndent(definition, "", "  ")
	if err != nil {
		return persistence.NewDefinitionError("Save", definition.ID, definition.Version, err)
	}

	if err := os.WriteFile(path, data, filePermissions); err != nil {
		return persistence.NewDefinitionError("Save", definition.ID, definition.Version, err)
	}

	return nil
}

// Definitions returns the latest version of every definition.
func (p *Persistence) Definitions(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	all, err := p.loadAllDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]*models.WorkflowDefinition)
	for _, definition := range all {
		current, ok := latest[definition.ID]
		if !ok || definition.Version > current.Version {
			latest[definition.ID] = definition
		}
	}

	result := make([]*models.WorkflowDefinition, 0, len(latest))
	for _, definition := range latest {
		result = append(result, definition)
	}

	return result, nil
}

// DefinitionByID returns the latest version of the definition.
func (p *Persistence) DefinitionByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	all, err := p.loadAllDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	var latest *models.WorkflowDefinition

	for _, definition := range all {
		if definition.ID != id {
			continue
		}

		if latest == nil || definition.Version > latest.Version {
			latest = definition
		}
	}

	if latest == nil {
		return nil, persistence.NewDefinitionError("GetByID", id, 0, persistence.ErrDefinitionNotFound)
	}

	return latest, nil
}

// DefinitionByVersion returns the exact definition snapshot an instance is
// bound to.
func (p *Persistence) DefinitionByVersion(_ context.Context, id string, version int) (*models.WorkflowDefinition, error) {
	definition, err := readDefinitionFile(definitionPath(p.root, id, version))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewDefinitionError("GetByVersion", id, version, persistence.ErrDefinitionNotFound)
		}

		return nil, persistence.NewDefinitionError("GetByVersion", id, version, err)
	}

	return definition, nil
}

// DefinitionsByTrigger returns the latest definition versions that register
// the given trigger event.
func (p *Persistence) DefinitionsByTrigger(ctx context.Context, triggerEvent string) ([]*models.WorkflowDefinition, error) {
	latest, err := p.Definitions(ctx)
	if err != nil {
		return nil, err
	}

	matching := make([]*models.WorkflowDefinition, 0)

	for _, definition := range latest {
		if definition.RegistersTrigger(triggerEvent) {
			matching = append(matching, definition)
		}
	}

	return matching, nil
}

func (p *Persistence) loadAllDefinitions(_ context.Context) ([]*models.WorkflowDefinition, error) {
	root := os.DirFS(definitionsDir(p.root))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list definition files: %w", err)
	}

	definitions := make([]*models.WorkflowDefinition, 0, len(jsonFiles))

	for _, name := range jsonFiles {
		definition, err := readDefinitionFile(filepath.Join(definitionsDir(p.root), name))
		if err != nil {
			return nil, fmt.Errorf("failed to load definition file %s: %w", name, err)
		}

		definitions = append(definitions, definition)
	}

	return definitions, nil
}

func readDefinitionFile(path string) (*models.WorkflowDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var definition models.WorkflowDefinition
	if err := json.Unmarshal(data, &definition); err != nil {
		return nil, err
	}

	return &definition, nil
}

package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/lib/pq"

	"github.com/lexflow/lexflow/pkg/models"
	"github.com/lexflow/lexflow/pkg/persistence"
)

const uniqueViolationCode = "23505"

const definitionColumns = "id, version, name, description, start_node_id, nodes, triggers, owner, created_at"

// SaveDefinition inserts one definition version. The primary key on
// (id, version) enforces the append-only contract.
func (p *Persistence) SaveDefinition(ctx context.Context, definition *models.WorkflowDefinition) error {
	nodes, err := json.Marshal(definition.Nodes)
	if err != nil {
		return persistence.NewDefinitionError("Save", definition.ID, definition.Version, err)
	}

	triggers, err := json.Marshal(definition.Triggers)
	if err != nil {
		return persistence.NewDefinitionError("Save", definition.ID, definition.Version, err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO workflow_definitions (id, version, name, description, start_node_id, nodes, triggers, owner, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, definition.ID, definition.Version, definition.Name, definition.Description,
		definition.StartNodeID, nodes, triggers, definition.Owner, definition.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
			return persistence.NewDefinitionError("Save", definition.ID, definition.Version, persistence.ErrDefinitionVersionExists)
		}

		return persistence.NewDefinitionError("Save", definition.ID, definition.Version, err)
	}

	return nil
}

// Definitions returns the latest version of every definition.
func (p *Persistence) Definitions(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT DISTINCT ON (id) `+definitionColumns+`
		FROM workflow_definitions
		ORDER BY id, version DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDefinitions(rows)
}

// DefinitionByID returns the latest version of a definition.
func (p *Persistence) DefinitionByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT `+definitionColumns+`
		FROM workflow_definitions
		WHERE id = $1
		ORDER BY version DESC
		LIMIT 1
	`, id)

	definition, err := scanDefinition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewDefinitionError("GetByID", id, 0, persistence.ErrDefinitionNotFound)
		}

		return nil, persistence.NewDefinitionError("GetByID", id, 0, err)
	}

	return definition, nil
}

// DefinitionByVersion returns one exact definition snapshot.
func (p *Persistence) DefinitionByVersion(ctx context.Context, id string, version int) (*models.WorkflowDefinition, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT `+definitionColumns+`
		FROM workflow_definitions
		WHERE id = $1 AND version = $2
	`, id, version)

	definition, err := scanDefinition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewDefinitionError("GetByVersion", id, version, persistence.ErrDefinitionNotFound)
		}

		return nil, persistence.NewDefinitionError("GetByVersion", id, version, err)
	}

	return definition, nil
}

// DefinitionsByTrigger returns latest definition versions registering the
// trigger event.
func (p *Persistence) DefinitionsByTrigger(ctx context.Context, triggerEvent string) ([]*models.WorkflowDefinition, error) {
	event, err := json.Marshal([]string{triggerEvent})
	if err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT DISTINCT ON (id) `+definitionColumns+`
		FROM workflow_definitions
		WHERE triggers @> $1
		ORDER BY id, version DESC
	`, event)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDefinitions(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row rowScanner) (*models.WorkflowDefinition, error) {
	var (
		definition models.WorkflowDefinition
		nodes      []byte
		triggers   []byte
		owner      sql.NullString
	)

	err := row.Scan(
		&definition.ID, &definition.Version, &definition.Name, &definition.Description,
		&definition.StartNodeID, &nodes, &triggers, &owner, &definition.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(nodes, &definition.Nodes); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(triggers, &definition.Triggers); err != nil {
		return nil, err
	}

	definition.Owner = owner.String

	return &definition, nil
}

func scanDefinitions(rows *sql.Rows) ([]*models.WorkflowDefinition, error) {
	definitions := make([]*models.WorkflowDefinition, 0)

	for rows.Next() {
		definition, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}

		definitions = append(definitions, definition)
	}

	return definitions, rows.Err()
}

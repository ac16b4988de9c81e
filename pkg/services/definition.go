package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexflow/lexflow/pkg/models"
	"github.com/lexflow/lexflow/pkg/persistence"
	"github.com/lexflow/lexflow/pkg/registry"
	"github.com/lexflow/lexflow/pkg/workflow"
)

// Definition handles registration and retrieval of workflow definitions.
// Definitions are append-only: registering an existing id writes the next
// version and never touches instances bound to earlier versions.
type Definition struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
}

func NewDefinition(logger *slog.Logger, persistence persistence.Persistence, registry *registry.Registry) *Definition {
	return &Definition{
		logger:      logger.With("module", "definition_service"),
		persistence: persistence,
		registry:    registry,
	}
}

// Register validates a definition graph and stores it as the next version
// of its workflow id.
func (s *Definition) Register(ctx context.Context, definition *models.WorkflowDefinition) (*models.WorkflowDefinition, error) {
	if definition == nil {
		return nil, &ServiceError{Op: "Register", Code: "definition_nil", Err: ErrDefinitionNil}
	}

	if err := workflow.ValidateDefinition(definition); err != nil {
		return nil, err
	}

	for _, node := range definition.Nodes {
		if err := s.registry.ValidateNodeConfig(node); err != nil {
			return nil, NewValidationError("Register", "invalid_node_config", err.Error(), ErrInvalidRequest)
		}
	}

	version, err := s.nextVersion(ctx, definition.ID)
	if err != nil {
		return nil, err
	}

	definition.Version = version
	definition.CreatedAt = time.Now().UTC()

	if err := s.persistence.SaveDefinition(ctx, definition); err != nil {
		return nil, fmt.Errorf("failed to save definition: %w", err)
	}

	s.logger.InfoContext(ctx, "Registered workflow definition",
		"workflow_id", definition.ID,
		"version", definition.Version,
		"triggers", definition.Triggers)

	return definition, nil
}

// List returns the latest version of every registered workflow.
func (s *Definition) List(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	return s.persistence.Definitions(ctx)
}

// GetByID returns the latest version of one workflow.
func (s *Definition) GetByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	return s.persistence.DefinitionByID(ctx, id)
}

// GetByVersion returns one specific definition snapshot.
func (s *Definition) GetByVersion(ctx context.Context, id string, version int) (*models.WorkflowDefinition, error) {
	return s.persistence.DefinitionByVersion(ctx, id, version)
}

func (s *Definition) nextVersion(ctx context.Context, id string) (int, error) {
	latest, err := s.persistence.DefinitionByID(ctx, id)
	if err != nil {
		if persistence.IsDefinitionNotFound(err) {
			return 1, nil
		}

		return 0, err
	}

	return latest.Version + 1, nil
}

package registry

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/lexflow/lexflow/pkg/models"
)

// ValidateNodeConfig checks a node's type-specific config section against
// the schema published by its executor factory. Called at definition
// registration time only; runtime scheduling never re-validates.
func (r *Registry) ValidateNodeConfig(node *models.WorkflowNode) error {
	schema, ok := r.ConfigSchema(node.Type)
	if !ok {
		return fmt.Errorf("node type %q not registered", node.Type)
	}

	if schema == nil {
		return nil
	}

	section := configSection(node)
	if section == nil {
		return fmt.Errorf("node %s: missing %q config section", node.ID, node.Type)
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(section)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("node %s: %w", node.ID, err)
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return fmt.Errorf("node %s: invalid config: %s", node.ID, strings.Join(descriptions, "; "))
	}

	return nil
}

// configSection projects the tagged-union config member matching the node
// type into a plain map for schema validation.
func configSection(node *models.WorkflowNode) map[string]any {
	switch node.Type {
	case models.NodeTypeProcess:
		if cfg := node.Config.Process; cfg != nil {
			section := map[string]any{"capability": cfg.Capability}
			if cfg.Parameters != nil {
				section["parameters"] = cfg.Parameters
			}

			if cfg.TimeoutMs > 0 {
				section["timeout_ms"] = cfg.TimeoutMs
			}

			if cfg.MaxAttempts > 0 {
				section["max_attempts"] = cfg.MaxAttempts
			}

			return section
		}
	case models.NodeTypeDecision:
		if cfg := node.Config.Decision; cfg != nil {
			return map[string]any{"expression": cfg.Expression}
		}
	case models.NodeTypeNotification:
		if cfg := node.Config.Notification; cfg != nil {
			recipients := make([]any, 0, len(cfg.Recipients))
			for _, recipient := range cfg.Recipients {
				recipients = append(recipients, recipient)
			}

			section := map[string]any{
				"recipients": recipients,
				"template":   cfg.Template,
			}
			if cfg.MaxAttempts > 0 {
				section["max_attempts"] = cfg.MaxAttempts
			}

			return section
		}
	case models.NodeTypeStart, models.NodeTypeEnd:
		return map[string]any{}
	}

	return nil
}

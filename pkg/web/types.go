// Package web provides HTTP handlers and REST API endpoints for the
// workflow engine.
package web

import "github.com/lexflow/lexflow/pkg/models"

// RegisterWorkflowRequest represents the request body for registering a
// workflow definition. Registering an existing id creates the next version.
type RegisterWorkflowRequest struct {
	ID          string                          `json:"id"            validate:"required,min=1"`
	Name        string                          `json:"name"          validate:"required,min=3"`
	Description string                          `json:"description"`
	Nodes       map[string]*models.WorkflowNode `json:"nodes"         validate:"required,min=1"`
	StartNodeID string                          `json:"start_node_id" validate:"required"`
	Triggers    []string                        `json:"triggers"`
	Owner       string                          `json:"owner"`
}

// TriggerRequest represents the request body for trigger ingestion.
type TriggerRequest struct {
	WorkflowID   string         `json:"workflow_id"   validate:"required"`
	TriggerEvent string         `json:"trigger_event" validate:"required"`
	Payload      map[string]any `json:"payload"`
}

// TriggerResponse is returned after a trigger created an instance.
type TriggerResponse struct {
	InstanceID      string `json:"instance_id"`
	WorkflowID      string `json:"workflow_id"`
	WorkflowVersion int    `json:"workflow_version"`
	Status          string `json:"status"`
}

func (r *RegisterWorkflowRequest) ToDefinition() *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Nodes:       r.Nodes,
		StartNodeID: r.StartNodeID,
		Triggers:    r.Triggers,
		Owner:       r.Owner,
	}
}

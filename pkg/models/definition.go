// Package models defines the core domain models for the workflow automation engine.
package models

import "time"

// WorkflowDefinition is an immutable workflow graph template. Once any
// instance references a (ID, Version) pair, that snapshot never changes;
// edits produce a new version.
type WorkflowDefinition struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"          validate:"required,min=3"`
	Description string                   `json:"description"`
	Version     int                      `json:"version"`
	Nodes       map[string]*WorkflowNode `json:"nodes"         validate:"required,min=1"`
	StartNodeID string                   `json:"start_node_id" validate:"required"`
	Triggers    []string                 `json:"triggers"`
	Owner       string                   `json:"owner"`
	CreatedAt   time.Time                `json:"created_at"`
}

// Node returns the node with the given id, or nil.
func (d *WorkflowDefinition) Node(id string) *WorkflowNode {
	return d.Nodes[id]
}

// RegistersTrigger reports whether the definition may be instantiated by the
// given trigger event.
func (d *WorkflowDefinition) RegistersTrigger(event string) bool {
	for _, t := range d.Triggers {
		if t == event {
			return true
		}
	}

	return false
}

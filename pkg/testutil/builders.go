// Package testutil provides test data builders for workflow definitions,
// nodes and instances.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/lexflow/lexflow/pkg/models"
)

// CreateTestNode creates a process WorkflowNode with default values that
// can be overridden.
func CreateTestNode(overrides ...func(*models.WorkflowNode)) *models.WorkflowNode {
	node := &models.WorkflowNode{
		ID:   uuid.New().String(),
		Type: models.NodeTypeProcess,
		Name: "Test Node",
		Config: models.NodeConfig{
			Process: &models.ProcessConfig{
				Capability: "test.capability",
			},
		},
		Connections: []string{"end"},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithNodeID sets the node id.
func WithNodeID(id string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.ID = id
	}
}

// WithConnections sets the outgoing connections.
func WithConnections(targets ...string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Connections = targets
	}
}

// WithStartNode configures the node as a start node.
func WithStartNode() func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = models.NodeTypeStart
		n.Config = models.NodeConfig{}
	}
}

// WithEndNode configures the node as an end node.
func WithEndNode() func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = models.NodeTypeEnd
		n.Config = models.NodeConfig{}
		n.Connections = nil
	}
}

// WithDecisionNode configures the node as a decision with the given
// expression and true/false branch targets.
func WithDecisionNode(expression, whenTrue, whenFalse string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = models.NodeTypeDecision
		n.Config = models.NodeConfig{
			Decision: &models.DecisionConfig{Expression: expression},
		}
		n.Connections = []string{whenTrue, whenFalse}
	}
}

// WithNotificationNode configures the node as a notification.
func WithNotificationNode(recipients []string, template string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = models.NodeTypeNotification
		n.Config = models.NodeConfig{
			Notification: &models.NotificationConfig{
				Recipients: recipients,
				Template:   template,
			},
		}
	}
}

// CreateTestDefinition creates a minimal valid linear definition
// (start -> work -> end) with default values that can be overridden.
func CreateTestDefinition(overrides ...func(*models.WorkflowDefinition)) *models.WorkflowDefinition {
	definition := &models.WorkflowDefinition{
		ID:          uuid.New().String(),
		Name:        "Test Workflow",
		Version:     1,
		StartNodeID: "start",
		Triggers:    []string{"test.event"},
		CreatedAt:   time.Now().UTC(),
		Nodes: map[string]*models.WorkflowNode{
			"start": CreateTestNode(WithNodeID("start"), WithStartNode(), WithConnections("work")),
			"work":  CreateTestNode(WithNodeID("work"), WithConnections("end")),
			"end":   CreateTestNode(WithNodeID("end"), WithEndNode()),
		},
	}

	for _, override := range overrides {
		override(definition)
	}

	return definition
}

// WithDefinitionID sets the definition id.
func WithDefinitionID(id string) func(*models.WorkflowDefinition) {
	return func(d *models.WorkflowDefinition) {
		d.ID = id
	}
}

// WithTriggers sets the registered trigger events.
func WithTriggers(events ...string) func(*models.WorkflowDefinition) {
	return func(d *models.WorkflowDefinition) {
		d.Triggers = events
	}
}

// CreateTestInstance creates a running WorkflowInstance with default values
// that can be overridden.
func CreateTestInstance(overrides ...func(*models.WorkflowInstance)) *models.WorkflowInstance {
	instance := &models.WorkflowInstance{
		ID:              uuid.New().String(),
		WorkflowID:      "wf-test",
		WorkflowVersion: 1,
		Status:          models.InstanceStatusRunning,
		CurrentNodeID:   "start",
		Data:            map[string]any{},
		StartTime:       time.Now().UTC(),
		History:         []models.HistoryEntry{},
	}

	for _, override := range overrides {
		override(instance)
	}

	return instance
}

// WithInstanceStatus sets the instance status.
func WithInstanceStatus(status models.InstanceStatus) func(*models.WorkflowInstance) {
	return func(i *models.WorkflowInstance) {
		i.Status = status
	}
}

// WithCurrentNode sets the instance's current node.
func WithCurrentNode(nodeID string) func(*models.WorkflowInstance) {
	return func(i *models.WorkflowInstance) {
		i.CurrentNodeID = nodeID
	}
}

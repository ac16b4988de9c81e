// Package workflow contains the engine core: definition graph validation
// and the scheduler that advances instances through their graphs.
package workflow

import (
	"errors"

	"github.com/lexflow/lexflow/pkg/models"
)

// ValidateDefinition checks a definition graph before registration. It
// returns all defects found, joined, so callers can report every problem
// in one response.
func ValidateDefinition(def *models.WorkflowDefinition) error {
	var errs []error

	if def.ID == "" {
		errs = append(errs, newValidationError(def.ID, "", "id is required"))
	}

	if def.Name == "" {
		errs = append(errs, newValidationError(def.ID, "", "name is required"))
	}

	if len(def.Nodes) == 0 {
		errs = append(errs, newValidationError(def.ID, "", "at least one node is required"))

		return errors.Join(errs...)
	}

	errs = append(errs, validateStartNode(def)...)

	for id, node := range def.Nodes {
		errs = append(errs, validateNode(def, id, node)...)
	}

	// Reachability and cycle checks only make sense on a structurally
	// sound graph.
	if len(errs) == 0 {
		errs = append(errs, validateReachability(def)...)
		errs = append(errs, validateCycles(def)...)
	}

	return errors.Join(errs...)
}

func validateStartNode(def *models.WorkflowDefinition) []error {
	var errs []error

	startIDs := make([]string, 0, 1)

	for id, node := range def.Nodes {
		if node.Type == models.NodeTypeStart {
			startIDs = append(startIDs, id)
		}
	}

	switch {
	case len(startIDs) == 0:
		errs = append(errs, newValidationError(def.ID, "", "exactly one start node is required, found none"))
	case len(startIDs) > 1:
		errs = append(errs, newValidationError(def.ID, "", "exactly one start node is required, found %d", len(startIDs)))
	case def.StartNodeID != startIDs[0]:
		errs = append(errs, newValidationError(def.ID, "", "start_node_id %q does not reference the start node %q", def.StartNodeID, startIDs[0]))
	}

	return errs
}

func validateNode(def *models.WorkflowDefinition, id string, node *models.WorkflowNode) []error {
	var errs []error

	if node.ID != id {
		errs = append(errs, newValidationError(def.ID, id, "node id %q does not match its key", node.ID))
	}

	for _, target := range node.Connections {
		if _, ok := def.Nodes[target]; !ok {
			errs = append(errs, newValidationError(def.ID, id, "connection targets unknown node %q", target))
		}
	}

	switch node.Type {
	case models.NodeTypeStart:
		if len(node.Connections) != 1 {
			errs = append(errs, newValidationError(def.ID, id, "start node requires exactly one connection, found %d", len(node.Connections)))
		}
	case models.NodeTypeEnd:
		if len(node.Connections) != 0 {
			errs = append(errs, newValidationError(def.ID, id, "end node must have no connections, found %d", len(node.Connections)))
		}
	case models.NodeTypeDecision:
		if len(node.Connections) != 2 {
			errs = append(errs, newValidationError(def.ID, id, "decision node requires exactly two connections, found %d", len(node.Connections)))
		}

		if node.Config.Decision == nil || node.Config.Decision.Expression == "" {
			errs = append(errs, newValidationError(def.ID, id, "decision node requires a condition expression"))
		}
	case models.NodeTypeProcess:
		if len(node.Connections) != 1 {
			errs = append(errs, newValidationError(def.ID, id, "process node requires exactly one connection, found %d", len(node.Connections)))
		}

		if node.Config.Process == nil || node.Config.Process.Capability == "" {
			errs = append(errs, newValidationError(def.ID, id, "process node requires a capability"))
		}
	case models.NodeTypeNotification:
		if len(node.Connections) != 1 {
			errs = append(errs, newValidationError(def.ID, id, "notification node requires exactly one connection, found %d", len(node.Connections)))
		}

		if node.Config.Notification == nil || len(node.Config.Notification.Recipients) == 0 || node.Config.Notification.Template == "" {
			errs = append(errs, newValidationError(def.ID, id, "notification node requires recipients and a template"))
		}
	default:
		errs = append(errs, newValidationError(def.ID, id, "unknown node type %q", node.Type))
	}

	return errs
}

func validateReachability(def *models.WorkflowDefinition) []error {
	var errs []error

	visited := make(map[string]bool, len(def.Nodes))
	queue := []string{def.StartNodeID}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if visited[id] {
			continue
		}

		visited[id] = true

		if node, ok := def.Nodes[id]; ok {
			queue = append(queue, node.Connections...)
		}
	}

	for id := range def.Nodes {
		if !visited[id] {
			errs = append(errs, newValidationError(def.ID, id, "node is not reachable from the start node"))
		}
	}

	return errs
}

// validateCycles rejects cycles unless every node on the cycle opts in
// with allow_loop, so a loop is always a deliberate choice of each node it
// runs through. Looping instances are then bounded at run time by the
// scheduler's step limit rather than at registration.
func validateCycles(def *models.WorkflowDefinition) []error {
	var errs []error

	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)

	state := make(map[string]int, len(def.Nodes))
	stack := make([]string, 0, len(def.Nodes))

	var visit func(id string)

	visit = func(id string) {
		state[id] = inStack
		stack = append(stack, id)

		node := def.Nodes[id]
		for _, target := range node.Connections {
			switch state[target] {
			case unvisited:
				visit(target)
			case inStack:
				if !cycleAllowsLoop(def, stack, target) {
					errs = append(errs, newValidationError(def.ID, target, "cycle without allow_loop detected"))
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[id] = done
	}

	for id := range def.Nodes {
		if state[id] == unvisited {
			visit(id)
		}
	}

	return errs
}

func cycleAllowsLoop(def *models.WorkflowDefinition, stack []string, entry string) bool {
	start := 0
	for i, id := range stack {
		if id == entry {
			start = i

			break
		}
	}

	for _, id := range stack[start:] {
		if !def.Nodes[id].AllowLoop {
			return false
		}
	}

	return true
}

package models

// NodeType identifies the behavior of a workflow node.
type NodeType string

const (
	NodeTypeStart        NodeType = "start"
	NodeTypeProcess      NodeType = "process"
	NodeTypeDecision     NodeType = "decision"
	NodeTypeNotification NodeType = "notification"
	NodeTypeEnd          NodeType = "end"
)

// Decision branch positions within WorkflowNode.Connections.
const (
	DecisionBranchTrue  = 0
	DecisionBranchFalse = 1
)

// WorkflowNode is a typed step in a definition graph. Connections is the
// ordered list of target node ids: decision nodes carry exactly two
// (true branch first), end nodes carry none, every other type carries one.
type WorkflowNode struct {
	ID          string     `json:"id"   validate:"required"`
	Type        NodeType   `json:"type" validate:"required,oneof=start process decision notification end"`
	Name        string     `json:"name"`
	Config      NodeConfig `json:"config"`
	Connections []string   `json:"connections"`
	AllowLoop   bool       `json:"allow_loop,omitempty"`
}

// NextConnection returns the sole outgoing connection for non-decision,
// non-end nodes, or "" when none exists.
func (n *WorkflowNode) NextConnection() string {
	if len(n.Connections) == 0 {
		return ""
	}

	return n.Connections[0]
}

// IsTerminal reports whether the node ends an instance.
func (n *WorkflowNode) IsTerminal() bool {
	return n.Type == NodeTypeEnd
}

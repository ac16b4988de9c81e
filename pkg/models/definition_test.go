package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lexflow/lexflow/pkg/models"
	"github.com/lexflow/lexflow/pkg/testutil"
)

func TestDefinition_Node(t *testing.T) {
	definition := testutil.CreateTestDefinition()

	assert.NotNil(t, definition.Node("start"))
	assert.Equal(t, "work", definition.Node("work").ID)
	assert.Nil(t, definition.Node("missing"))
}

func TestDefinition_RegistersTrigger(t *testing.T) {
	definition := testutil.CreateTestDefinition(
		testutil.WithTriggers("order.created", "order.updated"),
	)

	assert.True(t, definition.RegistersTrigger("order.created"))
	assert.True(t, definition.RegistersTrigger("order.updated"))
	assert.False(t, definition.RegistersTrigger("order.deleted"))
}

func TestDefinition_RegistersTrigger_NoTriggers(t *testing.T) {
	definition := testutil.CreateTestDefinition(testutil.WithTriggers())

	assert.False(t, definition.RegistersTrigger("anything"))
}

func TestNode_NextConnection(t *testing.T) {
	node := testutil.CreateTestNode(testutil.WithConnections("approve"))
	assert.Equal(t, "approve", node.NextConnection())

	end := testutil.CreateTestNode(testutil.WithEndNode())
	assert.Empty(t, end.NextConnection())
}

func TestNode_IsTerminal(t *testing.T) {
	assert.True(t, testutil.CreateTestNode(testutil.WithEndNode()).IsTerminal())
	assert.False(t, testutil.CreateTestNode().IsTerminal())
	assert.False(t, testutil.CreateTestNode(testutil.WithStartNode()).IsTerminal())
}

func TestDecisionBranchOrder(t *testing.T) {
	node := testutil.CreateTestNode(
		testutil.WithDecisionNode(`"amount" > 100`, "manual-review", "auto-approve"),
	)

	assert.Equal(t, "manual-review", node.Connections[models.DecisionBranchTrue])
	assert.Equal(t, "auto-approve", node.Connections[models.DecisionBranchFalse])
}

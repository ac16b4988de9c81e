package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Definitions are append-only snapshots keyed by (id, version).
			CREATE TABLE workflow_definitions (
				id UUID NOT NULL,
				version INTEGER NOT NULL,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				start_node_id VARCHAR(255) NOT NULL,
				nodes JSONB NOT NULL,
				triggers JSONB NOT NULL DEFAULT '[]',
				owner VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				PRIMARY KEY (id, version)
			);

			CREATE INDEX idx_workflow_definitions_triggers ON workflow_definitions USING GIN (triggers);

			CREATE TABLE workflow_instances (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL,
				workflow_version INTEGER NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('running', 'paused', 'completed', 'failed')),
				current_node_id VARCHAR(255) NOT NULL,
				data JSONB NOT NULL DEFAULT '{}',
				step_count INTEGER NOT NULL DEFAULT 0,
				failure_reason VARCHAR(255),
				start_time TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_time TIMESTAMP WITH TIME ZONE,
				history JSONB NOT NULL DEFAULT '[]',
				FOREIGN KEY (workflow_id, workflow_version) REFERENCES workflow_definitions(id, version)
			);

			CREATE INDEX idx_workflow_instances_status ON workflow_instances(status);
			CREATE INDEX idx_workflow_instances_workflow_id ON workflow_instances(workflow_id);
		`,
	}
}

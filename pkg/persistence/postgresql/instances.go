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

const instanceColumns = "id, workflow_id, workflow_version, status, current_node_id, data, step_count, failure_reason, start_time, completed_time, history"

// CreateInstance inserts a new instance row.
func (p *Persistence) CreateInstance(ctx context.Context, instance *models.WorkflowInstance) error {
	data, err := json.Marshal(instance.Data)
	if err != nil {
		return persistence.NewInstanceError("Create", instance.ID, err)
	}

	history, err := json.Marshal(instance.History)
	if err != nil {
		return persistence.NewInstanceError("Create", instance.ID, err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO workflow_instances (id, workflow_id, workflow_version, status, current_node_id, data, step_count, failure_reason, start_time, completed_time, history)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11)
	`, instance.ID, instance.WorkflowID, instance.WorkflowVersion, instance.Status,
		instance.CurrentNodeID, data, instance.StepCount, instance.FailureReason,
		instance.StartTime, instance.CompletedTime, history)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
			return persistence.NewInstanceError("Create", instance.ID, persistence.ErrInstanceExists)
		}

		return persistence.NewInstanceError("Create", instance.ID, err)
	}

	return nil
}

// InstanceByID loads one instance including its history.
func (p *Persistence) InstanceByID(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT `+instanceColumns+`
		FROM workflow_instances
		WHERE id = $1
	`, id)

	instance, err := scanInstance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewInstanceError("GetByID", id, persistence.ErrInstanceNotFound)
		}

		return nil, persistence.NewInstanceError("GetByID", id, err)
	}

	return instance, nil
}

// ApplyTransition performs the optimistic-concurrency advance as a single
// conditional UPDATE: only the row still running at the expected node is
// touched. A raced advance matches zero rows and surfaces as a conflict.
func (p *Persistence) ApplyTransition(ctx context.Context, transition persistence.Transition) error {
	delta, err := json.Marshal(transition.DataDelta)
	if err != nil {
		return persistence.NewInstanceError("ApplyTransition", transition.InstanceID, err)
	}

	entry, err := json.Marshal(transition.Entry)
	if err != nil {
		return persistence.NewInstanceError("ApplyTransition", transition.InstanceID, err)
	}

	result, err := p.db.ExecContext(ctx, `
		UPDATE workflow_instances
		SET status = $1,
		    current_node_id = COALESCE(NULLIF($2, ''), current_node_id),
		    data = data || $3::jsonb,
		    history = history || $4::jsonb,
		    step_count = step_count + 1,
		    failure_reason = COALESCE(NULLIF($5, ''), failure_reason),
		    completed_time = COALESCE($6, completed_time)
		WHERE id = $7 AND current_node_id = $8 AND status = 'running'
	`, transition.Status, transition.NextNodeID, delta, entry,
		transition.FailureReason, transition.CompletedAt,
		transition.InstanceID, transition.ExpectedNodeID)
	if err != nil {
		return persistence.NewInstanceError("ApplyTransition", transition.InstanceID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewInstanceError("ApplyTransition", transition.InstanceID, err)
	}

	if affected == 0 {
		return p.classifyMiss(ctx, "ApplyTransition", transition.InstanceID)
	}

	return nil
}

// UpdateInstanceStatus performs a guarded manual lifecycle change.
func (p *Persistence) UpdateInstanceStatus(ctx context.Context, change persistence.StatusChange) error {
	from := make([]string, 0, len(change.From))
	for _, status := range change.From {
		from = append(from, string(status))
	}

	var entry []byte
	if change.Entry != nil {
		marshaled, err := json.Marshal(change.Entry)
		if err != nil {
			return persistence.NewInstanceError("UpdateStatus", change.InstanceID, err)
		}

		entry = marshaled
	}

	result, err := p.db.ExecContext(ctx, `
		UPDATE workflow_instances
		SET status = $1,
		    failure_reason = COALESCE(NULLIF($2, ''), failure_reason),
		    completed_time = COALESCE($3, completed_time),
		    history = history || COALESCE($4::jsonb, '[]'::jsonb)
		WHERE id = $5 AND status = ANY($6)
	`, change.To, change.FailureReason, change.CompletedAt, entry,
		change.InstanceID, pq.Array(from))
	if err != nil {
		return persistence.NewInstanceError("UpdateStatus", change.InstanceID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewInstanceError("UpdateStatus", change.InstanceID, err)
	}

	if affected == 0 {
		return p.classifyStatusMiss(ctx, change.InstanceID)
	}

	return nil
}

// classifyMiss explains a zero-row conditional UPDATE: missing row,
// terminal instance, or a lost race.
func (p *Persistence) classifyMiss(ctx context.Context, op, instanceID string) error {
	instance, err := p.InstanceByID(ctx, instanceID)
	if err != nil {
		return err
	}

	if instance.IsTerminal() {
		return persistence.NewInstanceError(op, instanceID, persistence.ErrInstanceTerminal)
	}

	return persistence.NewInstanceError(op, instanceID, persistence.ErrTransitionConflict)
}

func (p *Persistence) classifyStatusMiss(ctx context.Context, instanceID string) error {
	instance, err := p.InstanceByID(ctx, instanceID)
	if err != nil {
		return err
	}

	if instance.IsTerminal() {
		return persistence.NewInstanceError("UpdateStatus", instanceID, persistence.ErrInstanceTerminal)
	}

	return persistence.NewInstanceError("UpdateStatus", instanceID, persistence.ErrInvalidStatusChange)
}

func scanInstance(row rowScanner) (*models.WorkflowInstance, error) {
	var (
		instance      models.WorkflowInstance
		data          []byte
		history       []byte
		failureReason sql.NullString
		completedTime sql.NullTime
	)

	err := row.Scan(
		&instance.ID, &instance.WorkflowID, &instance.WorkflowVersion, &instance.Status,
		&instance.CurrentNodeID, &data, &instance.StepCount, &failureReason,
		&instance.StartTime, &completedTime, &history,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, &instance.Data); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(history, &instance.History); err != nil {
		return nil, err
	}

	instance.FailureReason = failureReason.String

	if completedTime.Valid {
		instance.CompletedTime = &completedTime.Time
	}

	return &instance, nil
}

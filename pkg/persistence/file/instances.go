package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/lexflow/lexflow/pkg/models"
	"github.com/lexflow/lexflow/pkg/persistence"
)

func instancePath(root, id string) string {
	return filepath.Join(instancesDir(root), id+".json")
}

// CreateInstance writes a new instance file. Creation of an existing id
// fails rather than overwriting.
func (p *Persistence) CreateInstance(_ context.Context, instance *models.WorkflowInstance) error {
	p.instancesMu.Lock()
	defer p.instancesMu.Unlock()

	path := instancePath(p.root, instance.ID)
	if _, err := os.Stat(path); err == nil {
		return persistence.NewInstanceError("Create", instance.ID, persistence.ErrInstanceExists)
	}

	return writeInstanceFile(path, instance)
}

// InstanceByID loads one instance.
func (p *Persistence) InstanceByID(_ context.Context, id string) (*models.WorkflowInstance, error) {
	instance, err := readInstanceFile(instancePath(p.root, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewInstanceError("GetByID", id, persistence.ErrInstanceNotFound)
		}

		return nil, persistence.NewInstanceError("GetByID", id, err)
	}

	return instance, nil
}

// ApplyTransition applies one node-execution transition under the
// optimistic-concurrency guard: the stored instance must still be running
// at the expected node.
func (p *Persistence) ApplyTransition(_ context.Context, transition persistence.Transition) error {
	p.instancesMu.Lock()
	defer p.instancesMu.Unlock()

	path := instancePath(p.root, transition.InstanceID)

	instance, err := readInstanceFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewInstanceError("ApplyTransition", transition.InstanceID, persistence.ErrInstanceNotFound)
		}

		return persistence.NewInstanceError("ApplyTransition", transition.InstanceID, err)
	}

	if instance.IsTerminal() {
		return persistence.NewInstanceError("ApplyTransition", transition.InstanceID, persistence.ErrInstanceTerminal)
	}

	if instance.CurrentNodeID != transition.ExpectedNodeID || instance.Status != models.InstanceStatusRunning {
		return persistence.NewInstanceError("ApplyTransition", transition.InstanceID, persistence.ErrTransitionConflict)
	}

	applyTransition(instance, transition)

	return writeInstanceFile(path, instance)
}

// UpdateInstanceStatus applies a manual lifecycle change guarded by the
// allowed source statuses.
func (p *Persistence) UpdateInstanceStatus(_ context.Context, change persistence.StatusChange) error {
	p.instancesMu.Lock()
	defer p.instancesMu.Unlock()

	path := instancePath(p.root, change.InstanceID)

	instance, err := readInstanceFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewInstanceError("UpdateStatus", change.InstanceID, persistence.ErrInstanceNotFound)
		}

		return persistence.NewInstanceError("UpdateStatus", change.InstanceID, err)
	}

	if instance.IsTerminal() {
		return persistence.NewInstanceError("UpdateStatus", change.InstanceID, persistence.ErrInstanceTerminal)
	}

	if !statusAllowed(instance.Status, change.From) {
		return persistence.NewInstanceError("UpdateStatus", change.InstanceID, persistence.ErrInvalidStatusChange)
	}

	instance.Status = change.To
	if change.FailureReason != "" {
		instance.FailureReason = change.FailureReason
	}

	if change.CompletedAt != nil {
		instance.CompletedTime = change.CompletedAt
	}

	if change.Entry != nil {
		instance.History = append(instance.History, *change.Entry)
	}

	return writeInstanceFile(path, instance)
}

func applyTransition(instance *models.WorkflowInstance, transition persistence.Transition) {
	if instance.Data == nil {
		instance.Data = make(map[string]any)
	}

	for k, v := range transition.DataDelta {
		instance.Data[k] = v
	}

	instance.History = append(instance.History, transition.Entry)
	instance.StepCount++
	instance.Status = transition.Status

	if transition.NextNodeID != "" {
		instance.CurrentNodeID = transition.NextNodeID
	}

	if transition.FailureReason != "" {
		instance.FailureReason = transition.FailureReason
	}

	if transition.CompletedAt != nil {
		instance.CompletedTime = transition.CompletedAt
	}
}

func statusAllowed(current models.InstanceStatus, allowed []models.InstanceStatus) bool {
	for _, status := range allowed {
		if status == current {
			return true
		}
	}

	return false
}

func readInstanceFile(path string) (*models.WorkflowInstance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var instance models.WorkflowInstance
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, err
	}

	return &instance, nil
}

func writeInstanceFile(path string, instance *models.WorkflowInstance) error {
	data, err := json.MarshalIndent(instance, "", "  ")
	if err != nil {
		return persistence.NewInstanceError("Write", instance.ID, err)
	}

	if err := os.WriteFile(path, data, filePermissions); err != nil {
		return persistence.NewInstanceError("Write", instance.ID, err)
	}

	return nil
}

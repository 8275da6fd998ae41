package game

import (
	"encoding/json"
	"fmt"
)

// TaskType enumerates the kinds of timed work a label can run.
type TaskType string

const (
	TaskScouting          TaskType = "Scouting"
	TaskProducingBeats    TaskType = "ProducingBeats"
	TaskSigningContract   TaskType = "SigningContract"
	TaskRecordingRelease  TaskType = "RecordingRelease"
	TaskPublishingRelease TaskType = "PublishingRelease"
	TaskMarketingCampaign TaskType = "MarketingCampaign"
	TaskTraining          TaskType = "Training"
	TaskProducingRelease  TaskType = "ProducingRelease"
	TaskResting           TaskType = "Resting"
)

// TaskTypes lists every task type in a stable display order.
var TaskTypes = []TaskType{
	TaskScouting,
	TaskProducingBeats,
	TaskSigningContract,
	TaskRecordingRelease,
	TaskPublishingRelease,
	TaskMarketingCampaign,
	TaskTraining,
	TaskProducingRelease,
	TaskResting,
}

// DisplayName returns the short human label used in notifications.
func (t TaskType) DisplayName() string {
	switch t {
	case TaskScouting:
		return "Scouting"
	case TaskProducingBeats:
		return "Beats"
	case TaskSigningContract:
		return "Contract"
	case TaskRecordingRelease:
		return "Recording"
	case TaskPublishingRelease:
		return "Publishing"
	case TaskMarketingCampaign:
		return "Marketing"
	case TaskTraining:
		return "Training"
	case TaskProducingRelease:
		return "Production"
	case TaskResting:
		return "Resting"
	}
	return string(t)
}

// TaskStatus is the backend-reported lifecycle status of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "InProgress"
	StatusCompleted  TaskStatus = "Completed"
	StatusFailed     TaskStatus = "Failed"
	StatusClaimed    TaskStatus = "Claimed"
)

// TimedTask is a unit of in-game work with a start/end time, a worker,
// a cost, and a typed result payload once claimed.
type TimedTask struct {
	ID             string     `json:"id"`
	LabelID        string     `json:"labelId"`
	WorkerID       string     `json:"workerId"`
	Type           TaskType   `json:"type"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	BudgetRequired int64      `json:"budgetRequired"`
	StaminaCost    int        `json:"staminaCost"`
	StartTime      Millis     `json:"startTime"`
	EndTime        Millis     `json:"endTime"`
	ClaimedAt      *Millis    `json:"claimedAt,omitempty"`
	ViewedAt       *Millis    `json:"viewedAt,omitempty"`
	ContractID     string     `json:"contractId,omitempty"`
	Status         TaskStatus `json:"status"`
	// Results is decoded and encoded by hand; its wire shape depends on Type.
	Results   *TaskResults `json:"-"`
	CreatedAt Millis       `json:"createdAt"`
	UpdatedAt Millis       `json:"updatedAt"`
}

// Claimed reports whether the task has been acknowledged to the backend.
func (t TimedTask) Claimed() bool {
	return t.ClaimedAt != nil && !t.ClaimedAt.IsZero()
}

// timedTaskAlias avoids recursing into TimedTask's own UnmarshalJSON while the
// polymorphic results payload is decoded separately.
type timedTaskAlias TimedTask

type timedTaskJSON struct {
	timedTaskAlias
	Results json.RawMessage `json:"results,omitempty"`
}

// UnmarshalJSON decodes the task and then its results payload, whose shape
// depends on the task's type.
func (t *TimedTask) UnmarshalJSON(b []byte) error {
	var raw timedTaskJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("failed to decode task json: %w", err)
	}
	*t = TimedTask(raw.timedTaskAlias)
	if len(raw.Results) > 0 && string(raw.Results) != "null" {
		results, err := DecodeResults(t.Type, raw.Results)
		if err != nil {
			return fmt.Errorf("failed to decode results for task %s: %w", t.ID, err)
		}
		t.Results = results
	}
	return nil
}

// MarshalJSON re-attaches the results payload under its wire key.
func (t TimedTask) MarshalJSON() ([]byte, error) {
	raw := timedTaskJSON{timedTaskAlias: timedTaskAlias(t)}
	if t.Results != nil {
		encoded, err := t.Results.encode()
		if err != nil {
			return nil, err
		}
		raw.Results = encoded
	}
	return json.Marshal(raw)
}

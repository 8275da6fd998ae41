package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pcameron/labelagent/pkg/game"
)

// ServerTimeHeader carries the backend's authoritative timestamp (epoch ms)
// on task-list responses.
const ServerTimeHeader = "x-server-time"

// createPaths maps task types to their creation endpoint segment. Types absent
// here are created by the backend itself and only ever read by the client.
var createPaths = map[game.TaskType]string{
	game.TaskScouting:          "scouting",
	game.TaskSigningContract:   "sign-artist-contract",
	game.TaskProducingBeats:    "producing-beats",
	game.TaskRecordingRelease:  "recording-release",
	game.TaskPublishingRelease: "publishing-release",
}

// CreateTaskRequest carries the inputs for creating any task type; unused
// fields are omitted from the wire payload.
type CreateTaskRequest struct {
	LabelID   string   `json:"labelId"`
	WorkerID  string   `json:"workerId"`
	Budget    int64    `json:"budget,omitempty"`
	ArtistID  string   `json:"artistId,omitempty"`
	ReleaseID string   `json:"releaseId,omitempty"`
	BeatIDs   []string `json:"beatIds,omitempty"`
}

// ListTasks fetches the label's tasks. The second return value is the server
// time reported alongside the data, zero when the header is missing.
func (c *Client) ListTasks(ctx context.Context, labelID string) ([]game.TimedTask, time.Time, error) {
	var tasks []game.TimedTask
	header, err := c.get(ctx, "/rap-labels/"+labelID+"/tasks", &tasks)
	if err != nil {
		return nil, time.Time{}, err
	}

	var serverTime time.Time
	if v := header.Get(ServerTimeHeader); v != "" {
		ms, parseErr := strconv.ParseInt(v, 10, 64)
		if parseErr != nil {
			return nil, time.Time{}, fmt.Errorf("failed to parse %s header '%s': %w", ServerTimeHeader, v, parseErr)
		}
		serverTime = time.UnixMilli(ms)
	}
	return tasks, serverTime, nil
}

// ClaimTask acknowledges a finished task. The request is bounded by the
// client's claim timeout so a hung call fails instead of blocking retry.
func (c *Client) ClaimTask(ctx context.Context, taskID string) (*game.TimedTask, error) {
	ctx, cancel := context.WithTimeout(ctx, c.claimTimeout)
	defer cancel()

	var task game.TimedTask
	if err := c.put(ctx, "/tasks/"+taskID+"/claim", nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateTask creates a task of the given type for a label's worker.
func (c *Client) CreateTask(ctx context.Context, t game.TaskType, req CreateTaskRequest) (*game.TimedTask, error) {
	segment, ok := createPaths[t]
	if !ok {
		return nil, fmt.Errorf("task type %s cannot be created by the client", t)
	}

	var task game.TimedTask
	if err := c.post(ctx, "/tasks/"+segment, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// PredictCost asks the backend what a task would cost before creating it.
func (c *Client) PredictCost(ctx context.Context, t game.TaskType, req CreateTaskRequest) (*game.CostPrediction, error) {
	segment, ok := createPaths[t]
	if !ok {
		return nil, fmt.Errorf("task type %s has no cost prediction", t)
	}

	var prediction game.CostPrediction
	if err := c.post(ctx, "/tasks/"+segment+"/predict-cost", req, &prediction); err != nil {
		return nil, err
	}
	return &prediction, nil
}

// IsNotFound reports whether the error is an HTTP 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

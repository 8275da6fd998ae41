// Package taskstate derives display state for timed tasks from the
// server-adjusted clock: progress, coarse status, and a formatted countdown.
package taskstate

import (
	"time"

	"github.com/pcameron/labelagent/pkg/game"
)

// Status is the coarse display status of a task.
type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// State wraps a task with fields recomputed on every clock tick.
type State struct {
	Task      game.TimedTask
	Progress  float64
	Status    Status
	Finished  bool
	Remaining time.Duration
	Countdown string
}

// Finished reports whether the task's end time has passed on the
// server-adjusted timeline.
func Finished(task *game.TimedTask, now time.Time) bool {
	return !now.Before(task.EndTime.Time)
}

// Derive computes the full display state for a task at the given
// server-adjusted time.
func Derive(task game.TimedTask, now time.Time) State {
	finished := Finished(&task, now)
	remaining := task.EndTime.Sub(now)
	if remaining < 0 {
		remaining = 0
	}

	return State{
		Task:      task,
		Progress:  progress(&task, now, finished),
		Status:    status(&task),
		Finished:  finished,
		Remaining: remaining,
		Countdown: FormatCountdown(remaining),
	}
}

// DeriveAll derives display state for every task in the list.
func DeriveAll(tasks []game.TimedTask, now time.Time) []State {
	states := make([]State, 0, len(tasks))
	for _, t := range tasks {
		states = append(states, Derive(t, now))
	}
	return states
}

// UnclaimedFinished filters tasks down to those that are finished but not yet
// claimed, i.e. the claimable set.
func UnclaimedFinished(tasks []game.TimedTask, now time.Time) []game.TimedTask {
	var out []game.TimedTask
	for _, t := range tasks {
		if Finished(&t, now) && !t.Claimed() {
			out = append(out, t)
		}
	}
	return out
}

func status(task *game.TimedTask) Status {
	if !task.Claimed() {
		// Finished-but-unclaimed tasks stay "in-progress" until the claim lands.
		return StatusInProgress
	}
	if task.Results != nil && task.Results.Success {
		return StatusSucceeded
	}
	return StatusFailed
}

func progress(task *game.TimedTask, now time.Time, finished bool) float64 {
	if finished || task.Claimed() {
		return 100
	}
	total := task.EndTime.Sub(task.StartTime.Time)
	if total <= 0 {
		// Zero-length task: immediately finished, never divide by zero.
		return 100
	}
	p := float64(now.Sub(task.StartTime.Time)) / float64(total) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

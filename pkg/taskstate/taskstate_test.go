package taskstate

import (
	"testing"
	"time"

	"github.com/pcameron/labelagent/pkg/game"
)

func makeTask(id string, start, end time.Time, claimedAt *time.Time, success bool) game.TimedTask {
	t := game.TimedTask{
		ID:        id,
		Type:      game.TaskScouting,
		Name:      "Scout the east side",
		StartTime: game.NewMillis(start),
		EndTime:   game.NewMillis(end),
	}
	if claimedAt != nil {
		m := game.NewMillis(*claimedAt)
		t.ClaimedAt = &m
		t.Results = &game.TaskResults{Success: success}
	}
	return t
}

func TestDeriveRunningTask(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	now := start.Add(30 * time.Minute)

	state := Derive(makeTask("t1", start, end, nil, false), now)

	if state.Status != StatusInProgress {
		t.Errorf("expected status in-progress, got %s", state.Status)
	}
	if state.Progress != 50 {
		t.Errorf("expected progress 50, got %v", state.Progress)
	}
	if state.Finished {
		t.Error("expected not finished")
	}
	if state.Remaining != 30*time.Minute {
		t.Errorf("expected 30m remaining, got %v", state.Remaining)
	}
}

func TestDeriveFinishedUnclaimed(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	now := end.Add(5 * time.Minute)

	state := Derive(makeTask("t1", start, end, nil, false), now)

	if !state.Finished {
		t.Error("expected finished")
	}
	if state.Progress != 100 {
		t.Errorf("expected progress 100, got %v", state.Progress)
	}
	// Finished but unclaimed stays in-progress until the claim lands.
	if state.Status != StatusInProgress {
		t.Errorf("expected status in-progress, got %s", state.Status)
	}
	if state.Remaining != 0 {
		t.Errorf("expected 0 remaining, got %v", state.Remaining)
	}
	if state.Countdown != "0s" {
		t.Errorf("expected countdown 0s, got %q", state.Countdown)
	}
}

func TestDeriveClaimedStatus(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	claimed := end.Add(time.Minute)
	now := end.Add(time.Hour)

	succeeded := Derive(makeTask("ok", start, end, &claimed, true), now)
	if succeeded.Status != StatusSucceeded {
		t.Errorf("expected succeeded, got %s", succeeded.Status)
	}
	if succeeded.Progress != 100 {
		t.Errorf("expected progress 100, got %v", succeeded.Progress)
	}

	failed := Derive(makeTask("bad", start, end, &claimed, false), now)
	if failed.Status != StatusFailed {
		t.Errorf("expected failed, got %s", failed.Status)
	}
	if failed.Progress != 100 {
		t.Errorf("expected progress 100, got %v", failed.Progress)
	}
}

func TestDeriveZeroLengthTask(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	state := Derive(makeTask("zero", at, at, nil, false), at)

	if !state.Finished {
		t.Error("expected zero-length task to be finished")
	}
	if state.Progress != 100 {
		t.Errorf("expected progress 100, got %v", state.Progress)
	}
}

func TestDeriveProgressClamped(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	before := Derive(makeTask("early", start, end, nil, false), start.Add(-time.Minute))
	if before.Progress != 0 {
		t.Errorf("expected progress 0 before start, got %v", before.Progress)
	}
}

func TestUnclaimedFinished(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	claimedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tasks := []game.TimedTask{
		makeTask("1", past.Add(-time.Hour), past, nil, false),
		makeTask("2", now, future, nil, false),
		makeTask("3", past.Add(-time.Hour), past, &claimedAt, true),
	}

	got := UnclaimedFinished(tasks, now)
	if len(got) != 1 {
		t.Fatalf("expected 1 claimable task, got %d", len(got))
	}
	if got[0].ID != "1" {
		t.Errorf("expected task 1, got %s", got[0].ID)
	}
}

func TestServerOffsetAppliedToProgress(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	clientNow := start.Add(25 * time.Minute)
	offset := 5 * time.Minute

	state := Derive(makeTask("t1", start, end, nil, false), clientNow.Add(offset))
	if state.Progress != 50 {
		t.Errorf("expected progress 50 with server offset applied, got %v", state.Progress)
	}
}

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{-time.Second, "0s"},
		{500 * time.Millisecond, "0s"},
		{time.Second, "1s"},
		{time.Minute, "1m 0s"},
		{90*time.Second + time.Millisecond, "1m 30s"},
		{time.Hour + 5*time.Second, "1h 0m 5s"},
		{90061 * time.Second, "1d 1h 1m 1s"},
		{48 * time.Hour, "2d 0h 0m 0s"},
	}
	for _, tc := range tests {
		if got := FormatCountdown(tc.d); got != tc.want {
			t.Errorf("FormatCountdown(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

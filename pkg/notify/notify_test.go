package notify

import (
	"testing"
	"time"
)

func TestSuccessExpiresBeforeError(t *testing.T) {
	c := NewCenter()
	c.Success("claimed %d tasks", 2)
	c.Error("claim failed: %s", "timeout")

	now := time.Now()

	active := c.Active(now)
	if len(active) != 2 {
		t.Fatalf("expected both notifications active, got %d", len(active))
	}

	// Past the success TTL but inside the error TTL.
	active = c.Active(now.Add(5 * time.Second))
	if len(active) != 1 {
		t.Fatalf("expected only the error to remain, got %d", len(active))
	}
	if active[0].Level != LevelError {
		t.Errorf("expected remaining notification to be the error, got %s", active[0].Level)
	}

	active = c.Active(now.Add(10 * time.Second))
	if len(active) != 0 {
		t.Errorf("expected all notifications expired, got %d", len(active))
	}
}

func TestActivePrunes(t *testing.T) {
	c := NewCenter()
	c.Success("one")
	c.Active(time.Now().Add(time.Minute))

	// A pruned notification does not come back at an earlier query time.
	if got := c.Active(time.Now()); len(got) != 0 {
		t.Errorf("expected pruned notifications to stay gone, got %d", len(got))
	}
}

func TestSubscribeAndCancel(t *testing.T) {
	c := NewCenter()

	var got []Notification
	cancel := c.Subscribe(func(n Notification) { got = append(got, n) })

	c.Success("hello")
	if len(got) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(got))
	}
	if got[0].Level != LevelSuccess || got[0].Message != "hello" {
		t.Errorf("unexpected notification %+v", got[0])
	}
	if got[0].ID == "" {
		t.Error("expected a generated notification id")
	}

	cancel()
	c.Error("dropped")
	if len(got) != 1 {
		t.Errorf("expected no delivery after cancel, got %d", len(got))
	}
}

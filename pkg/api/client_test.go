package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pcameron/labelagent/pkg/game"
)

func TestListTasksParsesServerTime(t *testing.T) {
	serverNow := time.Date(2024, 6, 1, 12, 0, 5, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/rap-labels/label-1/tasks" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set(ServerTimeHeader, fmt.Sprintf("%d", serverNow.UnixMilli()))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id": "t1", "type": "Scouting", "startTime": 1717243200000, "endTime": 1717246800000, "status": "InProgress"}]`)
	}))
	defer srv.Close()

	client := New(srv.URL)
	tasks, serverTime, err := client.ListTasks(context.Background(), "label-1")
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "t1" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
	if !serverTime.Equal(serverNow) {
		t.Errorf("expected server time %v, got %v", serverNow, serverTime)
	}
}

func TestListTasksAttachesBearer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	client := New(srv.URL, WithTokenSource(func(context.Context) (string, error) {
		return "tok-123", nil
	}))
	if _, _, err := client.ListTasks(context.Background(), "label-1"); err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
}

func TestListTasksSkipsBearerWhenDisabled(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	client := New(srv.URL,
		WithTokenSource(func(context.Context) (string, error) { return "tok-123", nil }),
		WithBearerAttachment(false))
	if _, _, err := client.ListTasks(context.Background(), "label-1"); err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("expected no Authorization header, got %q", gotAuth)
	}
}

func TestCreateTaskDomainError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// Validation failures carry code+message in the body even on 200.
		fmt.Fprint(w, `{"code": 1003, "message": "label bankroll too low"}`)
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.CreateTask(context.Background(), game.TaskScouting, CreateTaskRequest{LabelID: "l1", WorkerID: "w1"})

	var taskErr *TaskError
	if !errors.As(err, &taskErr) {
		t.Fatalf("expected TaskError, got %v", err)
	}
	if taskErr.Code != TaskErrInsufficientBudget {
		t.Errorf("expected code %d, got %d", TaskErrInsufficientBudget, taskErr.Code)
	}
	if taskErr.UserMessage() != "Your label cannot afford that right now." {
		t.Errorf("unexpected user message: %q", taskErr.UserMessage())
	}
}

func TestCreateTaskDomainErrorAnyStatus(t *testing.T) {
	// Domain errors are recognized by the code+message body, not the HTTP
	// status, so a 404 carrying a domain code still maps to the task table.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"code": 1001, "message": "artist no longer exists"}`)
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.CreateTask(context.Background(), game.TaskSigningContract, CreateTaskRequest{LabelID: "l1", WorkerID: "w1"})

	var taskErr *TaskError
	if !errors.As(err, &taskErr) {
		t.Fatalf("expected TaskError, got %v", err)
	}
	if taskErr.Code != TaskErrNotFound {
		t.Errorf("expected code %d, got %d", TaskErrNotFound, taskErr.Code)
	}
	if taskErr.UserMessage() != "Whatever that task needed no longer exists." {
		t.Errorf("unexpected user message: %q", taskErr.UserMessage())
	}
}

func TestCreateTaskUnknownType(t *testing.T) {
	client := New("http://unused")
	if _, err := client.CreateTask(context.Background(), game.TaskResting, CreateTaskRequest{}); err == nil {
		t.Error("expected error for type without a creation endpoint")
	}
}

func TestAPIErrorUserMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := New(srv.URL, WithMaxRetries(0))
	_, _, err := client.ListTasks(context.Background(), "label-1")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", apiErr.StatusCode)
	}
	if apiErr.UserMessage() != "The game servers are temporarily unavailable." {
		t.Errorf("unexpected user message: %q", apiErr.UserMessage())
	}
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	client := New(srv.URL, WithMaxRetries(3))
	if _, _, err := client.ListTasks(context.Background(), "label-1"); err != nil {
		t.Fatalf("expected retries to succeed, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := New(srv.URL, WithMaxRetries(3))
	_, _, err := client.ListTasks(context.Background(), "label-1")
	if !IsNotFound(err) {
		t.Fatalf("expected 404 APIError, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single call for a 404, got %d", calls)
	}
}

func TestClaimTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/v1/tasks/t1/claim" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "t1", "type": "Scouting", "startTime": 1, "endTime": 2, "claimedAt": 3, "status": "Claimed", "results": {"success": true, "discoveredArtistIds": []}}`)
	}))
	defer srv.Close()

	client := New(srv.URL)
	task, err := client.ClaimTask(context.Background(), "t1")
	if err != nil {
		t.Fatalf("ClaimTask failed: %v", err)
	}
	if !task.Claimed() {
		t.Error("expected claimed task")
	}
	if task.Results == nil || !task.Results.Success {
		t.Error("expected successful results")
	}
}

func TestEnsurePlayerCreatesOnFirstSignIn(t *testing.T) {
	var created bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/players":
			created = true
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id": "p1", "firebaseUserId": "uid-1", "username": "tash"}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	client := New(srv.URL, WithMaxRetries(0))
	player, err := client.EnsurePlayer(context.Background(), "uid-1", "tash")
	if err != nil {
		t.Fatalf("EnsurePlayer failed: %v", err)
	}
	if !created {
		t.Error("expected player creation")
	}
	if player.ID != "p1" {
		t.Errorf("expected player p1, got %s", player.ID)
	}
}

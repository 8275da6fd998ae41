package api

import (
	"errors"
	"fmt"
)

// APIError is a network/API failure carrying the HTTP status and, when the
// backend supplied one, its error code and message.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: status %d", e.StatusCode)
}

// UserMessage maps known HTTP statuses to fixed user-facing strings, falling
// back to the raw backend message.
func (e *APIError) UserMessage() string {
	switch e.StatusCode {
	case 400:
		return "The request was invalid."
	case 401:
		return "You need to sign in to do that."
	case 403:
		return "You are not allowed to do that."
	case 404:
		return "That could not be found."
	case 409:
		return "That conflicts with the current game state."
	case 500:
		return "The game servers hit an internal error."
	case 502:
		return "The game servers could not be reached."
	case 503:
		return "The game servers are temporarily unavailable."
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Request failed with status %d.", e.StatusCode)
}

// TaskErrorCode is the backend's numeric domain code for task-creation
// failures, decoupled from HTTP status.
type TaskErrorCode int

const (
	TaskErrNotFound             TaskErrorCode = 1001
	TaskErrValidation           TaskErrorCode = 1002
	TaskErrInsufficientBudget   TaskErrorCode = 1003
	TaskErrWorkerBusy           TaskErrorCode = 1004
	TaskErrTaskLimitReached     TaskErrorCode = 1005
	TaskErrActiveContractExists TaskErrorCode = 1006
	TaskErrWorkerExhausted      TaskErrorCode = 1007
)

// TaskError is a task-creation failure reported in the response body as
// {code, message}, regardless of HTTP status.
type TaskError struct {
	Code    TaskErrorCode
	Message string
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task error %d: %s", e.Code, e.Message)
}

// UserMessage maps the domain code to a fixed user-facing string, falling back
// to the raw backend message.
func (e *TaskError) UserMessage() string {
	switch e.Code {
	case TaskErrNotFound:
		return "Whatever that task needed no longer exists."
	case TaskErrValidation:
		return "The task request was rejected as invalid."
	case TaskErrInsufficientBudget:
		return "Your label cannot afford that right now."
	case TaskErrWorkerBusy:
		return "That worker is already busy on another task."
	case TaskErrTaskLimitReached:
		return "Your label has reached its task limit."
	case TaskErrActiveContractExists:
		return "There is already an active contract with that artist."
	case TaskErrWorkerExhausted:
		return "That worker is too exhausted and needs to rest."
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Task request failed with code %d.", e.Code)
}

// UserMessage extracts the user-facing string from any error this package
// produces, falling back to err.Error().
func UserMessage(err error) string {
	var taskErr *TaskError
	if errors.As(err, &taskErr) {
		return taskErr.UserMessage()
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return err.Error()
}

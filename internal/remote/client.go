// Package remote is the network boundary to the canonical store.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Client is the remote store contract consumed by the reconciler.
type Client interface {
	GetObjectives(ctx context.Context) ([]ObjectiveSummary, error)
	GetObjective(ctx context.Context, id string) (*ObjectiveDetail, error)
	CreateObjective(ctx context.Context, req CreateObjectiveRequest) (*ObjectiveDetail, error)
	GetTasks(ctx context.Context, date string) ([]TaskSummary, error)
	CreateTask(ctx context.Context, req CreateTaskRequest) (*TaskSummary, error)
	UpdateTask(ctx context.Context, id string, req UpdateTaskRequest) (*TaskSummary, error)
}

// StatusError is a non-2xx response from the remote store.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote: %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("remote: %d %s", e.Code, e.Message)
}

// Temporary reports whether retrying the same request may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests || e.Code == http.StatusRequestTimeout
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

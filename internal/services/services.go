package services

import (
	"context"
	"errors"

	"github.com/avelichko/go-taskboard/internal/models"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrEmptyTaskTitle    = errors.New("empty task title")
	ErrInvalidTaskStatus = errors.New("invalid task status")
)

type TaskService interface {
	// ListTasks returns every task on the board in descending
	// creation order. An empty board yields an empty slice.
	ListTasks(ctx context.Context) ([]*models.Task, error)

	// CreateTask inserts a task with the given title and the
	// default todo status, publishes a created event and returns
	// the inserted row.
	//
	// It returns ErrEmptyTaskTitle if the title is blank.
	CreateTask(ctx context.Context, title string) (*models.Task, error)

	// SetTaskStatus overwrites the status of the task with the
	// given id, publishes a status_changed event and returns the
	// updated row.
	//
	// It returns ErrInvalidTaskStatus if the status is not one of
	// the known values and ErrTaskNotFound if no task has the id.
	SetTaskStatus(ctx context.Context, id int64, status models.Status) (*models.Task, error)

	// RemoveTask deletes the task with the given id and publishes
	// a removed event. Deleting a nonexistent id is a no-op, so
	// the call is idempotent.
	RemoveTask(ctx context.Context, id int64) error
}

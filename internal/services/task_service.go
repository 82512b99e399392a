package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/avelichko/go-taskboard/internal/models"
	"github.com/avelichko/go-taskboard/internal/pubsub"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	db     *sql.DB
	events pubsub.Publisher
}

func NewTaskService(
	logger zerolog.Logger,
	db *sql.DB,
	events pubsub.Publisher,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		db:     db,
		events: events,
	}
}

func (s *taskServiceImpl) ListTasks(ctx context.Context) ([]*models.Task, error) {
	// The id tie-break keeps the order deterministic when two
	// tasks share a created_at instant.
	const selectTasksQuery = `
SELECT id,
       title,
       status,
       created_at
FROM tasks
ORDER BY created_at DESC, id DESC
`
	rows, err := s.db.QueryContext(ctx, selectTasksQuery)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task := new(models.Task)
		err = rows.Scan(
			&task.ID,
			&task.Title,
			&task.Status,
			&task.CreatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Msg("selected tasks")
	return tasks, nil
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, title string) (*models.Task, error) {
	if title == "" {
		s.logger.Error().Msg("refusing to create task with empty title")
		return nil, ErrEmptyTaskTitle
	}

	task := &models.Task{
		Title:     title,
		Status:    models.StatusTodo,
		CreatedAt: time.Now(),
	}

	const insertTaskQuery = `
INSERT INTO tasks (title,
                   status,
                   created_at)
VALUES (?, ?, ?)
RETURNING id
`
	err := s.db.QueryRowContext(
		ctx,
		insertTaskQuery,
		task.Title,
		task.Status,
		task.CreatedAt,
	).Scan(&task.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("inserted task")

	s.events.Publish(pubsub.TaskEvent{
		Type: pubsub.EventTaskCreated,
		Task: task,
	})

	s.logger.Info().
		Int64("task_id", task.ID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) SetTaskStatus(ctx context.Context, id int64, status models.Status) (*models.Task, error) {
	if !status.Valid() {
		s.logger.Error().
			Int64("task_id", id).
			Str("status", status.String()).
			Msg("unknown task status")
		return nil, ErrInvalidTaskStatus
	}

	task := &models.Task{
		ID:     id,
		Status: status,
	}

	const updateTaskStatusQuery = `
UPDATE tasks
SET status = ?
WHERE id = ?
RETURNING title, created_at
`
	err := s.db.QueryRowContext(
		ctx,
		updateTaskStatusQuery,
		task.Status,
		task.ID,
	).Scan(
		&task.Title,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Error().
				Int64("task_id", task.ID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to update task status")
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("updated task status")

	s.events.Publish(pubsub.TaskEvent{
		Type: pubsub.EventTaskStatusChanged,
		Task: task,
	})

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("status", task.Status.String()).
		Msg("updated task status")
	return task, nil
}

func (s *taskServiceImpl) RemoveTask(ctx context.Context, id int64) error {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = ?
`
	res, err := s.db.ExecContext(ctx, deleteTaskQuery, id)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to delete task")
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to read affected rows")
		return err
	}
	if affected == 0 {
		// Removal is idempotent: a missing row is logged,
		// reported as success and never published.
		s.logger.Warn().
			Int64("task_id", id).
			Msg("no task matched delete")
		return nil
	}
	s.logger.Debug().
		Int64("task_id", id).
		Msg("deleted task")

	s.events.Publish(pubsub.TaskEvent{
		Type: pubsub.EventTaskRemoved,
		Task: &models.Task{ID: id},
	})

	s.logger.Info().
		Int64("task_id", id).
		Msg("removed task")
	return nil
}

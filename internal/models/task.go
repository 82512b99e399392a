package models

import "time"

// Status is the closed set of board columns a task can sit in.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// statusTransitions is deliberately permissive: every known status
// may move to every other known status, including back to itself.
// Unknown statuses have no row and therefore no legal moves.
var statusTransitions = map[Status]map[Status]bool{
	StatusTodo:       {StatusTodo: true, StatusInProgress: true, StatusDone: true},
	StatusInProgress: {StatusTodo: true, StatusInProgress: true, StatusDone: true},
	StatusDone:       {StatusTodo: true, StatusInProgress: true, StatusDone: true},
}

func (s Status) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

func (s Status) CanTransitionTo(next Status) bool {
	return statusTransitions[s][next]
}

func (s Status) String() string {
	return string(s)
}

type Task struct {
	ID        int64
	Title     string
	Status    Status
	CreatedAt time.Time
}

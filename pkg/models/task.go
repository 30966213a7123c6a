package models

// TaskState represents the current lifecycle state of a managed repository task.
type TaskState string

const (
	TaskPending   TaskState = "pending"
	TaskCloning   TaskState = "cloning"
	TaskCloned    TaskState = "cloned"
	TaskReviewing TaskState = "reviewing"
	TaskFixing    TaskState = "fixing"
	TaskCompleted TaskState = "completed"
	TaskError     TaskState = "error"
)

// taskTransitions encodes the allowed forward transitions for a task.
// TaskError is reachable from every other state and is handled in
// CanTransition rather than listed per state. Unlike a fix attempt, a task
// never ends for good: a completed task can be refreshed or fixed again, and
// a failed one retried once the external cause is gone.
var taskTransitions = map[TaskState][]TaskState{
	TaskPending:   {TaskCloning},
	TaskCloning:   {TaskCloned},
	// A cloned task may be refreshed in place, reviewed, or enter a fix
	// attempt.
	TaskCloned:    {TaskCloning, TaskReviewing, TaskFixing},
	TaskReviewing: {TaskCompleted},
	TaskFixing:    {TaskCloned, TaskCompleted},
	TaskCompleted: {TaskCloning, TaskReviewing, TaskFixing},
	TaskError:     {TaskCloning, TaskReviewing, TaskFixing},
}

// InFlight reports whether s represents work that cannot be assumed to have
// survived a process restart.
func (s TaskState) InFlight() bool {
	return s == TaskCloning || s == TaskReviewing || s == TaskFixing
}

// CanTransition reports whether moving from s to next is allowed. A
// same-state move is not a transition and is rejected; in particular an
// in-flight state can never be re-entered, which is what lets the registry
// use the table to claim a task atomically.
func (s TaskState) CanTransition(next TaskState) bool {
	if next == TaskError {
		return s != TaskError
	}
	for _, allowed := range taskTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseTaskState converts a persisted status string back into a TaskState.
// Unknown values fall back to TaskPending so a hand-edited or future-version
// document never breaks the load path.
func ParseTaskState(raw string) TaskState {
	switch TaskState(raw) {
	case TaskPending, TaskCloning, TaskCloned, TaskReviewing, TaskFixing, TaskCompleted, TaskError:
		return TaskState(raw)
	default:
		return TaskPending
	}
}

// Task represents one repository under management: its source, local
// checkout, and clone/review progress.
type Task struct {
	ID        string    `json:"id"`
	RepoURL   string    `json:"repo_url"`
	RepoName  string    `json:"repo_name"`
	Status    TaskState `json:"status"`
	LocalPath string    `json:"local_path,omitempty"`
	Message   string    `json:"message,omitempty"`
	Output    string    `json:"output,omitempty"`
	Error     string    `json:"error,omitempty"`
}

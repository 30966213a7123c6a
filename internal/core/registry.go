package core

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/valter-silva-au/remedy/internal/integration"
	"github.com/valter-silva-au/remedy/internal/observability"
	"github.com/valter-silva-au/remedy/internal/storage"
	"github.com/valter-silva-au/remedy/pkg/models"
)

// TaskRegistry owns task identity and lifecycle: it allocates ids, holds the
// in-memory task set, and persists the full set after every mutation.
//
// The registry lock protects only the id counter and the task map; it is
// never held across a blocking external call. Persistence degrades to a
// boolean result so a failing disk never aborts an in-memory operation.
type TaskRegistry interface {
	// Create allocates the next id, registers a PENDING task for the given
	// repository URL, persists, and returns the new task.
	Create(repoURL string) *models.Task
	// Get returns the task with the given id, if present.
	Get(id string) (*models.Task, bool)
	// List returns all tasks ordered by numeric id.
	List() []*models.Task
	// Delete removes the task from memory and from the persisted set.
	Delete(id string)
	// Update applies mutate to the task under the registry lock, then
	// persists the full set. It reports whether the task exists.
	Update(id string, mutate func(*models.Task)) bool
	// Transition moves the task to next, checking the allowed-state table
	// under the registry lock, applies mutate to the already-moved task,
	// and persists. The check and the move are one atomic step, so two
	// goroutines racing to claim the same task into an in-flight state
	// cannot both win.
	Transition(id string, next models.TaskState, mutate func(*models.Task)) error
	// Mutate applies mutate under the registry lock without persisting.
	// This is the documented non-durable fast path for high-frequency
	// output accumulation; callers must eventually follow with Save or
	// Update.
	Mutate(id string, mutate func(*models.Task)) bool
	// Save persists the current task set. Exposed as an escape hatch for
	// callers that mutate task pointers directly during long-running work.
	Save() bool
}

type taskRegistry struct {
	store storage.TaskStore

	mu      sync.Mutex
	counter int
	tasks   map[string]*models.Task
}

// NewTaskRegistry creates a TaskRegistry and recovers its state from the
// store: all persisted tasks are loaded, any task found in an in-flight
// state is downgraded (work never survives a restart), and the id counter
// resumes past the highest numeric id ever persisted.
func NewTaskRegistry(store storage.TaskStore) TaskRegistry {
	r := &taskRegistry{
		store: store,
		tasks: make(map[string]*models.Task),
	}

	for id, loaded := range store.LoadTasks() {
		task := loaded
		if task.Status.InFlight() {
			if task.LocalPath != "" {
				task.Status = models.TaskCloned
			} else {
				task.Status = models.TaskPending
			}
			task.Message = "recovered after restart"
		}
		r.tasks[id] = &task

		if n, err := strconv.Atoi(id); err == nil && n > r.counter {
			r.counter = n
		}
	}
	return r
}

func (r *taskRegistry) Create(repoURL string) *models.Task {
	r.mu.Lock()
	r.counter++
	id := strconv.Itoa(r.counter)
	task := &models.Task{
		ID:       id,
		RepoURL:  repoURL,
		RepoName: integration.RepoShortName(repoURL),
		Status:   models.TaskPending,
	}
	r.tasks[id] = task
	r.mu.Unlock()

	observability.TasksCreated.Inc()
	r.Save()
	return task
}

func (r *taskRegistry) Get(id string) (*models.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	return task, ok
}

func (r *taskRegistry) List() []*models.Task {
	r.mu.Lock()
	tasks := make([]*models.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		tasks = append(tasks, t)
	}
	r.mu.Unlock()

	sort.Slice(tasks, func(i, j int) bool {
		a, errA := strconv.Atoi(tasks[i].ID)
		b, errB := strconv.Atoi(tasks[j].ID)
		if errA != nil || errB != nil {
			return tasks[i].ID < tasks[j].ID
		}
		return a < b
	})
	return tasks
}

func (r *taskRegistry) Delete(id string) {
	r.mu.Lock()
	_, existed := r.tasks[id]
	delete(r.tasks, id)
	r.mu.Unlock()

	if existed {
		observability.TasksDeleted.Inc()
	}
	r.Save()
}

func (r *taskRegistry) Update(id string, mutate func(*models.Task)) bool {
	r.mu.Lock()
	task, ok := r.tasks[id]
	if ok {
		mutate(task)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	r.Save()
	return true
}

func (r *taskRegistry) Transition(id string, next models.TaskState, mutate func(*models.Task)) error {
	r.mu.Lock()
	task, ok := r.tasks[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("unknown task id %s", id)
	}
	if !task.Status.CanTransition(next) {
		current := task.Status
		r.mu.Unlock()
		return fmt.Errorf("task %s cannot move from %s to %s", id, current, next)
	}
	task.Status = next
	if mutate != nil {
		mutate(task)
	}
	r.mu.Unlock()

	r.Save()
	return nil
}

func (r *taskRegistry) Mutate(id string, mutate func(*models.Task)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if ok {
		mutate(task)
	}
	return ok
}

// Save snapshots the task set under the lock and persists it outside the
// lock; the store serializes its own writes.
func (r *taskRegistry) Save() bool {
	r.mu.Lock()
	snapshot := make(map[string]*models.Task, len(r.tasks))
	for id, t := range r.tasks {
		copied := *t
		snapshot[id] = &copied
	}
	r.mu.Unlock()

	return r.store.SaveTasks(snapshot)
}

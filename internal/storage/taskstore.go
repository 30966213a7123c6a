package storage

import (
	"strconv"
	"time"

	"github.com/valter-silva-au/remedy/pkg/models"
)

// tasksDocName is the fixed store key under which the task set lives.
const tasksDocName = "tasks"

// maxPersistedOutput caps the output field of a persisted task so the
// document cannot grow without bound. In-memory output is not truncated.
const maxPersistedOutput = 10000

// TaskDocument is the persisted shape of the full task set.
type TaskDocument struct {
	UpdatedAt string                 `json:"updated_at"`
	Tasks     map[string]models.Task `json:"tasks"`
}

// TaskStore persists the registry's task set as a single document.
type TaskStore interface {
	// SaveTasks writes the full task set, truncating each task's output.
	SaveTasks(tasks map[string]*models.Task) bool
	// LoadTasks reads the persisted task set. A missing or unreadable
	// document yields an empty map.
	LoadTasks() map[string]models.Task
	// LastTaskID returns the highest numeric task id ever persisted, used to
	// recover the id counter after a restart.
	LastTaskID() int
}

type taskStore struct {
	store Store
	now   func() time.Time
}

// NewTaskStore creates a TaskStore on top of the given document store.
func NewTaskStore(store Store) TaskStore {
	return &taskStore{store: store, now: time.Now}
}

func (ts *taskStore) SaveTasks(tasks map[string]*models.Task) bool {
	doc := TaskDocument{
		UpdatedAt: ts.now().Format(time.RFC3339),
		Tasks:     make(map[string]models.Task, len(tasks)),
	}
	for id, t := range tasks {
		persisted := *t
		if len(persisted.Output) > maxPersistedOutput {
			persisted.Output = persisted.Output[:maxPersistedOutput]
		}
		doc.Tasks[id] = persisted
	}
	return ts.store.Save(tasksDocName, doc)
}

func (ts *taskStore) LoadTasks() map[string]models.Task {
	doc := TaskDocument{Tasks: map[string]models.Task{}}
	if !ts.store.Load(tasksDocName, &doc) {
		return map[string]models.Task{}
	}
	if doc.Tasks == nil {
		doc.Tasks = map[string]models.Task{}
	}
	// Defensive defaults for documents written by older versions or edited
	// by hand.
	for id, t := range doc.Tasks {
		if t.ID == "" {
			t.ID = id
		}
		t.Status = models.ParseTaskState(string(t.Status))
		doc.Tasks[id] = t
	}
	return doc.Tasks
}

func (ts *taskStore) LastTaskID() int {
	maxID := 0
	for id := range ts.LoadTasks() {
		n, err := strconv.Atoi(id)
		if err != nil {
			continue
		}
		if n > maxID {
			maxID = n
		}
	}
	return maxID
}

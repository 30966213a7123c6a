package storage

import (
	"testing"

	"github.com/valter-silva-au/remedy/pkg/models"
	"pgregory.net/rapid"
)

func genDocName(t *rapid.T) string {
	return rapid.StringMatching(`[a-z][a-z0-9_-]{0,20}`).Draw(t, "docName")
}

func genTask(t *rapid.T, id string) models.Task {
	states := []models.TaskState{
		models.TaskPending, models.TaskCloning, models.TaskCloned,
		models.TaskReviewing, models.TaskFixing, models.TaskCompleted, models.TaskError,
	}
	return models.Task{
		ID:       id,
		RepoURL:  "https://github.com/org/" + rapid.StringMatching(`[a-z]{1,12}`).Draw(t, "repo"),
		RepoName: rapid.StringMatching(`[a-z]{1,12}`).Draw(t, "name"),
		Status:   states[rapid.IntRange(0, len(states)-1).Draw(t, "state")],
		Message:  rapid.StringMatching(`[ -~]{0,40}`).Draw(t, "message"),
		Output:   rapid.StringMatching(`[ -~]{0,200}`).Draw(t, "output"),
	}
}

// Property: save/load round-trips any document name and content, and the
// last writer always wins.
func TestStore_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := newTestStore(t)
		name := genDocName(rt)

		writes := rapid.IntRange(1, 5).Draw(rt, "writes")
		var last testDoc
		for i := 0; i < writes; i++ {
			last = testDoc{
				Name:  rapid.StringMatching(`[ -~]{0,30}`).Draw(rt, "content"),
				Value: rapid.IntRange(-1000, 1000).Draw(rt, "value"),
			}
			if !store.Save(name, last) {
				rt.Fatalf("save %d failed", i)
			}
		}

		var out testDoc
		if !store.Load(name, &out) {
			rt.Fatal("load failed")
		}
		if out != last {
			rt.Fatalf("expected last write %+v, got %+v", last, out)
		}
	})
}

// Property: the task set survives a save/load cycle with every id intact and
// every status a known state.
func TestTaskStore_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ts := newTestTaskStore(t)

		count := rapid.IntRange(0, 8).Draw(rt, "count")
		tasks := make(map[string]*models.Task, count)
		for i := 1; i <= count; i++ {
			id := rapid.StringMatching(`[1-9][0-9]{0,3}`).Draw(rt, "id")
			task := genTask(rt, id)
			tasks[id] = &task
		}

		if !ts.SaveTasks(tasks) {
			rt.Fatal("save failed")
		}
		loaded := ts.LoadTasks()
		if len(loaded) != len(tasks) {
			rt.Fatalf("expected %d tasks, got %d", len(tasks), len(loaded))
		}
		for id, want := range tasks {
			got, ok := loaded[id]
			if !ok {
				rt.Fatalf("task %s missing after reload", id)
			}
			if got.Status != want.Status {
				rt.Fatalf("task %s: expected status %s, got %s", id, want.Status, got.Status)
			}
		}
	})
}

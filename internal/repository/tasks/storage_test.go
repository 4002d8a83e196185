package tasks_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
	"todoTracker/internal/kv"
	"todoTracker/internal/kv/inmemory"
	"todoTracker/internal/models/task"
	"todoTracker/internal/repository/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2025, 1, 15, 8, 30, 0, 0, time.UTC)

func newTask(id, title string) task.Task {
	return task.Task{ID: id, Title: title, CreatedAt: created}
}

// failingStore ломается на выбранных операциях
type failingStore struct {
	kv.Store
	getErr error
	setErr error
	sets   int
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Store.Get(ctx, key)
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	return f.Store.Set(ctx, key, value)
}

// blockingStore держит Set, пока не закроют release
type blockingStore struct {
	kv.Store
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) Set(ctx context.Context, key string, value []byte) error {
	close(b.entered)
	<-b.release
	return b.Store.Set(ctx, key, value)
}

func TestStorage_EmptyWhenKeyMissing(t *testing.T) {
	s := tasks.New(inmemory.New())
	ctx := context.Background()

	all := s.GetAll(ctx)
	assert.NotNil(t, all)
	assert.Empty(t, all)
	assert.Empty(t, s.GetDeleted(ctx))
}

func TestStorage_AddAndGetAll(t *testing.T) {
	s := tasks.New(inmemory.New())
	ctx := context.Background()

	due := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	first := newTask("a", "first")
	first.DueDate = &due
	first.Description = "desc"

	require.NoError(t, s.Add(ctx, first))
	require.NoError(t, s.Add(ctx, newTask("b", "second")))

	all := s.GetAll(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
	require.NotNil(t, all[0].DueDate)
	assert.True(t, all[0].DueDate.Equal(due))
	assert.Equal(t, "desc", all[0].Description)
	assert.True(t, all[0].CreatedAt.Equal(created))
}

func TestStorage_AddNormalizesDeletion(t *testing.T) {
	s := tasks.New(inmemory.New())
	ctx := context.Background()

	tk := newTask("a", "x")
	now := time.Now()
	tk.Deleted = true
	tk.DeletedAt = &now

	require.NoError(t, s.Add(ctx, tk))

	got, ok := s.Get(ctx, "a")
	require.True(t, ok)
	assert.False(t, got.Deleted)
	assert.Nil(t, got.DeletedAt)
}

func TestStorage_AddDuplicate(t *testing.T) {
	s := tasks.New(inmemory.New())
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, newTask("a", "one")))
	err := s.Add(ctx, newTask("a", "two"))

	assert.ErrorIs(t, err, tasks.ErrDuplicateID)
	all := s.GetAll(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, "one", all[0].Title)
}

func TestStorage_BlobFormat(t *testing.T) {
	store := inmemory.New()
	s := tasks.New(store)
	ctx := context.Background()

	due := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tk := newTask("a", "x")
	tk.DueDate = &due
	require.NoError(t, s.Add(ctx, tk))

	raw, err := store.Get(ctx, tasks.Key)
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(raw, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "2025-03-01T10:00:00.000Z", records[0]["dueDate"])
	assert.Equal(t, "2025-01-15T08:30:00.000Z", records[0]["createdAt"])
	assert.Equal(t, false, records[0]["deleted"])
	assert.NotContains(t, records[0], "deletedAt")
}

func TestStorage_ReadsForeignTimezones(t *testing.T) {
	store := inmemory.New()
	ctx := context.Background()
	blob := `[{"id":"a","title":"x","completed":false,"createdAt":"2025-01-15T11:30:00+03:00","deleted":false}]`
	require.NoError(t, store.Set(ctx, tasks.Key, []byte(blob)))

	got, ok := tasks.New(store).Get(ctx, "a")
	require.True(t, ok)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.Equal(t, time.UTC, got.CreatedAt.Location())
}

func TestStorage_Update(t *testing.T) {
	s := tasks.New(inmemory.New())
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, newTask("a", "old")))

	require.NoError(t, s.Update(ctx, "a", task.Patch{}.WithTitle("new").WithCompleted(true)))

	got, _ := s.Get(ctx, "a")
	assert.Equal(t, "new", got.Title)
	assert.True(t, got.Completed)
	assert.Equal(t, "a", got.ID)
	assert.True(t, got.CreatedAt.Equal(created))
}

func TestStorage_UpdateCompletedOnly(t *testing.T) {
	s := tasks.New(inmemory.New())
	ctx := context.Background()
	due := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tk := newTask("a", "title")
	tk.Description = "desc"
	tk.DueDate = &due
	require.NoError(t, s.Add(ctx, tk))
	before, _ := s.Get(ctx, "a")

	require.NoError(t, s.Update(ctx, "a", task.Patch{}.WithCompleted(true)))

	after, _ := s.Get(ctx, "a")
	assert.True(t, after.Completed)
	before.Completed = true
	assert.Equal(t, before, after, "остальные поля не меняются")
}

func TestStorage_UnknownIDIsNoop(t *testing.T) {
	store := &failingStore{Store: inmemory.New()}
	s := tasks.New(store)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, newTask("a", "x")))
	setsAfterAdd := store.sets

	assert.NoError(t, s.Update(ctx, "missing", task.Patch{}.WithTitle("y")))
	assert.NoError(t, s.Toggle(ctx, "missing"))
	assert.NoError(t, s.SoftDelete(ctx, "missing"))
	assert.NoError(t, s.Restore(ctx, "missing"))
	assert.NoError(t, s.Remove(ctx, "missing"))

	assert.Equal(t, setsAfterAdd, store.sets, "no-op не должен писать в хранилище")
	assert.Len(t, s.GetAll(ctx), 1)
}

func TestStorage_SoftDeleteAndRestore(t *testing.T) {
	clock := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	s := tasks.New(inmemory.New()).WithClock(func() time.Time { return clock })
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, newTask("a", "x")))
	require.NoError(t, s.Add(ctx, newTask("b", "y")))

	require.NoError(t, s.SoftDelete(ctx, "a"))

	assert.Len(t, s.GetAll(ctx), 2, "мягко удалённая задача остаётся в хранилище")
	deleted := s.GetDeleted(ctx)
	require.Len(t, deleted, 1)
	assert.Equal(t, "a", deleted[0].ID)
	require.NotNil(t, deleted[0].DeletedAt)
	assert.True(t, deleted[0].DeletedAt.Equal(clock))

	active := s.GetActive(ctx)
	require.Len(t, active, 1)
	assert.Equal(t, "b", active[0].ID)

	// повторное удаление не сдвигает отметку времени
	clock = clock.Add(time.Hour)
	require.NoError(t, s.SoftDelete(ctx, "a"))
	again, _ := s.Get(ctx, "a")
	assert.True(t, again.DeletedAt.Equal(clock.Add(-time.Hour)))

	require.NoError(t, s.Restore(ctx, "a"))
	restored, _ := s.Get(ctx, "a")
	assert.False(t, restored.Deleted)
	assert.Nil(t, restored.DeletedAt)
	assert.Empty(t, s.GetDeleted(ctx))
}

func TestStorage_Remove(t *testing.T) {
	s := tasks.New(inmemory.New())
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, newTask("a", "x")))
	require.NoError(t, s.Add(ctx, newTask("b", "y")))
	require.NoError(t, s.Add(ctx, newTask("c", "z")))

	require.NoError(t, s.Remove(ctx, "b"))

	all := s.GetAll(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "c", all[1].ID)
}

func TestStorage_RemoveFromTrash(t *testing.T) {
	s := tasks.New(inmemory.New())
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, newTask("a", "x")))
	require.NoError(t, s.Add(ctx, newTask("b", "y")))
	require.NoError(t, s.SoftDelete(ctx, "a"))
	require.Len(t, s.GetDeleted(ctx), 1)

	require.NoError(t, s.Remove(ctx, "a"))

	assert.Empty(t, s.GetDeleted(ctx))
	all := s.GetAll(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].ID)
}

func TestStorage_UnstorableDate(t *testing.T) {
	store := &failingStore{Store: inmemory.New()}
	s := tasks.New(store)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, newTask("a", "x")))
	setsAfterAdd := store.sets

	farFuture := time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)
	tk := newTask("b", "y")
	tk.DueDate = &farFuture

	assert.ErrorIs(t, s.Add(ctx, tk), tasks.ErrUnstorable)
	assert.ErrorIs(t, s.Update(ctx, "a", task.Patch{}.WithDueDate(farFuture)), tasks.ErrUnstorable)
	assert.Equal(t, setsAfterAdd, store.sets, "непригодный блоб не пишется")

	all := s.GetAll(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, "a", all[0].ID)
	assert.Nil(t, all[0].DueDate)
	require.NoError(t, s.Add(ctx, newTask("c", "z")))
	assert.Len(t, s.GetAll(ctx), 2)
}

func TestStorage_ChangeActive(t *testing.T) {
	s := tasks.New(inmemory.New())
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, newTask("a", "x")))
	require.NoError(t, s.Add(ctx, newTask("b", "y")))
	require.NoError(t, s.SoftDelete(ctx, "b"))

	t.Run("success - update active", func(t *testing.T) {
		got, err := s.UpdateActive(ctx, "a", task.Patch{}.WithTitle("new"))
		require.NoError(t, err)
		assert.Equal(t, "new", got.Title)
	})

	t.Run("success - toggle active", func(t *testing.T) {
		got, err := s.ToggleActive(ctx, "a")
		require.NoError(t, err)
		assert.True(t, got.Completed)
	})

	t.Run("error - trashed task untouched", func(t *testing.T) {
		_, err := s.UpdateActive(ctx, "b", task.Patch{}.WithTitle("new"))
		assert.ErrorIs(t, err, tasks.ErrTaskTrashed)
		_, err = s.ToggleActive(ctx, "b")
		assert.ErrorIs(t, err, tasks.ErrTaskTrashed)

		got, _ := s.Get(ctx, "b")
		assert.Equal(t, "y", got.Title)
		assert.False(t, got.Completed)
	})

	t.Run("error - missing task", func(t *testing.T) {
		_, err := s.ToggleActive(ctx, "missing")
		assert.ErrorIs(t, err, tasks.ErrTaskNotFound)
	})
}

func TestStorage_Toggle(t *testing.T) {
	s := tasks.New(inmemory.New())
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, newTask("a", "x")))

	require.NoError(t, s.Toggle(ctx, "a"))
	got, _ := s.Get(ctx, "a")
	assert.True(t, got.Completed)

	require.NoError(t, s.Toggle(ctx, "a"))
	got, _ = s.Get(ctx, "a")
	assert.False(t, got.Completed)
}

func TestStorage_PurgeDeletedBefore(t *testing.T) {
	store := inmemory.New()
	ctx := context.Background()
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fresh := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	s := tasks.New(store).WithClock(func() time.Time { return old })
	require.NoError(t, s.Add(ctx, newTask("old", "x")))
	require.NoError(t, s.Add(ctx, newTask("fresh", "y")))
	require.NoError(t, s.Add(ctx, newTask("active", "z")))
	require.NoError(t, s.SoftDelete(ctx, "old"))
	s.WithClock(func() time.Time { return fresh })
	require.NoError(t, s.SoftDelete(ctx, "fresh"))

	// задача в корзине без отметки времени, как в старых данных
	blob, err := store.Get(ctx, tasks.Key)
	require.NoError(t, err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(blob, &records))
	records = append(records, map[string]any{
		"id": "legacy", "title": "w", "completed": false,
		"createdAt": "2024-01-01T00:00:00.000Z", "deleted": true,
	})
	blob, err = json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, tasks.Key, blob))

	purged, err := s.PurgeDeletedBefore(ctx, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Equal(t, 1, purged)
	_, ok := s.Get(ctx, "old")
	assert.False(t, ok)
	for _, id := range []string{"fresh", "active", "legacy"} {
		_, ok := s.Get(ctx, id)
		assert.True(t, ok, id)
	}
}

func TestStorage_CorruptBlob(t *testing.T) {
	store := inmemory.New()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, tasks.Key, []byte("{not json")))
	s := tasks.New(store)

	assert.Empty(t, s.GetAll(ctx))
	assert.Empty(t, s.GetDeleted(ctx))

	err := s.Add(ctx, newTask("a", "x"))
	assert.ErrorIs(t, err, tasks.ErrMalformed)

	// по id на пустом списке менять нечего
	assert.NoError(t, s.Update(ctx, "a", task.Patch{}.WithTitle("y")))
	assert.NoError(t, s.Toggle(ctx, "a"))
	assert.NoError(t, s.SoftDelete(ctx, "a"))
	assert.NoError(t, s.Restore(ctx, "a"))
	assert.NoError(t, s.Remove(ctx, "a"))
	_, err = s.UpdateActive(ctx, "a", task.Patch{}.WithTitle("y"))
	assert.ErrorIs(t, err, tasks.ErrTaskNotFound)

	raw, err := store.Get(ctx, tasks.Key)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(raw), "битый блоб не перезаписывается")
}

func TestStorage_BadTimestamp(t *testing.T) {
	store := inmemory.New()
	ctx := context.Background()
	blob := `[{"id":"a","title":"x","completed":false,"createdAt":"yesterday","deleted":false}]`
	require.NoError(t, store.Set(ctx, tasks.Key, []byte(blob)))
	s := tasks.New(store)

	assert.Empty(t, s.GetAll(ctx))
	assert.NoError(t, s.Toggle(ctx, "a"))

	raw, err := store.Get(ctx, tasks.Key)
	require.NoError(t, err)
	assert.Equal(t, blob, string(raw))
}

func TestStorage_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{name: "missing id", blob: `[{"title":"x","createdAt":"2025-01-15T08:30:00.000Z"}]`},
		{name: "completed as string", blob: `[{"id":"a","title":"x","completed":"yes","createdAt":"2025-01-15T08:30:00.000Z"}]`},
		{name: "not an array", blob: `{"id":"a"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := inmemory.New()
			ctx := context.Background()
			require.NoError(t, store.Set(ctx, tasks.Key, []byte(tt.blob)))
			s := tasks.New(store)

			assert.Empty(t, s.GetAll(ctx))
			assert.NoError(t, s.Remove(ctx, "a"))

			raw, err := store.Get(ctx, tasks.Key)
			require.NoError(t, err)
			assert.Equal(t, tt.blob, string(raw))
		})
	}
}

func TestStorage_BackendFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("error - read failure", func(t *testing.T) {
		readErr := errors.New("io timeout")
		store := &failingStore{Store: inmemory.New(), getErr: readErr}
		s := tasks.New(store)

		assert.Empty(t, s.GetAll(ctx))
		assert.ErrorIs(t, s.Add(ctx, newTask("a", "x")), readErr)
		assert.NoError(t, s.SoftDelete(ctx, "a"))
		assert.NoError(t, s.Remove(ctx, "a"))
		assert.Zero(t, store.sets)
	})

	t.Run("error - write failure", func(t *testing.T) {
		writeErr := errors.New("quota exceeded")
		store := &failingStore{Store: inmemory.New(), setErr: writeErr}
		s := tasks.New(store)

		assert.ErrorIs(t, s.Add(ctx, newTask("a", "x")), writeErr)
		assert.Empty(t, s.GetAll(ctx))
	})
}

func TestStorage_ConcurrentAdds(t *testing.T) {
	s := tasks.New(inmemory.New())
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Add(ctx, newTask(fmt.Sprintf("t%d", i), "x")))
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.GetAll(ctx), n, "ни одна запись не потеряна")
}

func TestStorage_LockRespectsContext(t *testing.T) {
	store := &blockingStore{
		Store:   inmemory.New(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := tasks.New(store)

	done := make(chan error, 1)
	go func() {
		done <- s.Add(context.Background(), newTask("a", "x"))
	}()
	<-store.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, s.Update(ctx, "a", task.Patch{}.WithTitle("y")), context.DeadlineExceeded)
	assert.Empty(t, s.GetAll(ctx))
	assert.ErrorIs(t, s.Clear(ctx), context.DeadlineExceeded)

	close(store.release)
	require.NoError(t, <-done)
	assert.Len(t, s.GetAll(context.Background()), 1)
}

func TestStorage_Clear(t *testing.T) {
	store := inmemory.New()
	s := tasks.New(store)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, newTask("a", "x")))
	require.NoError(t, store.Set(ctx, "theme", []byte("dark")))

	require.NoError(t, s.Clear(ctx))

	assert.Empty(t, s.GetAll(ctx))
	_, err := store.Get(ctx, "theme")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

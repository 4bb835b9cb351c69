package buffer

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "events.db"), "events")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEnqueueAndGetBatchPreservesOrder(t *testing.T) {
	store := openTestStore(t)

	for _, body := range []string{`{"n":1}`, `{"n":2}`, `{"n":3}`} {
		if err := store.Enqueue("meeting-events", []byte(body)); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		// Keys are timestamp-prefixed; spread them out.
		time.Sleep(2 * time.Millisecond)
	}

	items, err := store.GetBatch(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	for i, item := range items {
		if item.Channel != "meeting-events" {
			t.Fatalf("item %d channel = %q", i, item.Channel)
		}
	}
	if string(items[0].Body) != `{"n":1}` || string(items[2].Body) != `{"n":3}` {
		t.Fatalf("batch out of order: %s ... %s", items[0].Body, items[2].Body)
	}
}

func TestGetBatchHonorsLimit(t *testing.T) {
	store := openTestStore(t)
	for i := 0; i < 5; i++ {
		if err := store.Enqueue("user-events", []byte(`{}`)); err != nil {
			t.Fatal(err)
		}
		time.Sleep(time.Millisecond)
	}

	items, err := store.GetBatch(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
}

func TestRemoveDeletesItem(t *testing.T) {
	store := openTestStore(t)
	if err := store.Enqueue("meeting-events", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}

	items, _ := store.GetBatch(1)
	if len(items) != 1 {
		t.Fatal("expected one buffered item")
	}
	if err := store.Remove(items[0]); err != nil {
		t.Fatal(err)
	}

	size, err := store.Size()
	if err != nil {
		t.Fatal(err)
	}
	if size != 0 {
		t.Fatalf("size = %d after remove, want 0", size)
	}
}

func TestRequeueKeepsRetryCount(t *testing.T) {
	store := openTestStore(t)
	if err := store.Enqueue("meeting-events", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}

	items, _ := store.GetBatch(1)
	item := items[0]
	item.Retries = 2
	if err := store.Remove(item); err != nil {
		t.Fatal(err)
	}
	if err := store.Requeue(item); err != nil {
		t.Fatal(err)
	}

	items, _ = store.GetBatch(1)
	if len(items) != 1 {
		t.Fatal("requeued item is missing")
	}
	if items[0].Retries != 2 {
		t.Fatalf("retries = %d after requeue, want 2", items[0].Retries)
	}
}

func TestCleanupDropsOldItems(t *testing.T) {
	store := openTestStore(t)
	if err := store.Enqueue("meeting-events", []byte(`{"old":true}`)); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	cutoff := time.Now()
	time.Sleep(5 * time.Millisecond)
	if err := store.Enqueue("meeting-events", []byte(`{"old":false}`)); err != nil {
		t.Fatal(err)
	}

	if err := store.Cleanup(cutoff); err != nil {
		t.Fatal(err)
	}

	items, err := store.GetBatch(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items after cleanup, want 1", len(items))
	}
	if string(items[0].Body) != `{"old":false}` {
		t.Fatal("cleanup removed the wrong item")
	}
}

func TestSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	store, err := Open(path, "events")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Enqueue("meeting-events", []byte(`{"persisted":true}`)); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path, "events")
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	size, err := reopened.Size()
	if err != nil {
		t.Fatal(err)
	}
	if size != 1 {
		t.Fatalf("size = %d after reopen, want 1", size)
	}
}

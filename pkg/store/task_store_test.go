package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/taskvault/taskvault/pkg/codec"
)

func newTestStore(t *testing.T, dir string) *TaskStore {
	t.Helper()

	ts, err := NewTaskStore(TaskStoreConfig{DataDir: dir})
	if err != nil {
		t.Fatalf("Failed to create task store: %v", err)
	}
	if _, err := ts.Open(); err != nil {
		t.Fatalf("Failed to open task store: %v", err)
	}
	return ts
}

func TestTaskStore_BasicOperations(t *testing.T) {
	ts := newTestStore(t, t.TempDir())
	defer ts.Close()

	key := "task:groceries"
	value := []byte("priority|i2|title|sbuy milk|")

	if err := ts.Put(key, value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := ts.Get(key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != string(value) {
		t.Errorf("Get = %q, want %q", got, value)
	}

	if _, err := ts.Get("task:missing"); err != ErrTaskNotFound {
		t.Errorf("Get of missing key: err = %v, want ErrTaskNotFound", err)
	}

	if err := ts.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := ts.Get(key); err != ErrTaskNotFound {
		t.Errorf("Get after delete: err = %v, want ErrTaskNotFound", err)
	}
	if err := ts.Delete(key); err != ErrTaskNotFound {
		t.Errorf("Delete of deleted key: err = %v, want ErrTaskNotFound", err)
	}
}

func TestTaskStore_EmptyKeyRejected(t *testing.T) {
	ts := newTestStore(t, t.TempDir())
	defer ts.Close()

	if err := ts.Put("", []byte("x")); err != ErrInvalidKey {
		t.Errorf("Put with empty key: err = %v, want ErrInvalidKey", err)
	}
	if err := ts.Delete(""); err != ErrInvalidKey {
		t.Errorf("Delete with empty key: err = %v, want ErrInvalidKey", err)
	}
}

func TestTaskStore_AttributesRoundTrip(t *testing.T) {
	ts := newTestStore(t, t.TempDir())
	defer ts.Close()

	attrs := codec.NewAttributeMap()
	attrs.Set("priority", 2)
	attrs.Set("due", int64(1735689600000))
	attrs.Set("title", "write report | send it")
	attrs.Set("done", false)
	attrs.Set("estimate", 1.5)

	if err := ts.PutAttributes("task:report", attrs); err != nil {
		t.Fatalf("PutAttributes failed: %v", err)
	}

	decoded, err := ts.GetAttributes("task:report")
	if err != nil {
		t.Fatalf("GetAttributes failed: %v", err)
	}

	if decoded.Len() != attrs.Len() {
		t.Fatalf("Attribute count = %d, want %d", decoded.Len(), attrs.Len())
	}
	for _, k := range attrs.Keys() {
		want, _ := attrs.Get(k)
		got, ok := decoded.Get(k)
		if !ok || got != want {
			t.Errorf("Attribute %q = %v, want %v", k, got, want)
		}
	}
}

func TestTaskStore_PutAttributesUnsupportedType(t *testing.T) {
	ts := newTestStore(t, t.TempDir())
	defer ts.Close()

	attrs := codec.NewAttributeMap()
	attrs.Set("raw", []byte("bytes"))

	if err := ts.PutAttributes("task:bad", attrs); err == nil {
		t.Error("PutAttributes with unsupported value type should fail")
	}
	if _, err := ts.Get("task:bad"); err != ErrTaskNotFound {
		t.Errorf("Nothing should have been stored, got err = %v", err)
	}
}

func TestTaskStore_PersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	ts := newTestStore(t, dir)
	if err := ts.Put("task:a", []byte("priority|i1|")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := ts.Put("task:b", []byte("priority|i2|")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := ts.Delete("task:a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := ts.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := newTestStore(t, dir)
	defer reopened.Close()

	if _, err := reopened.Get("task:a"); err != ErrTaskNotFound {
		t.Errorf("Tombstoned key resurfaced after reopen: err = %v", err)
	}
	got, err := reopened.Get("task:b")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(got) != "priority|i2|" {
		t.Errorf("Get after reopen = %q", got)
	}
}

func TestTaskStore_UpdateKeepsLatest(t *testing.T) {
	dir := t.TempDir()
	ts := newTestStore(t, dir)

	for _, v := range []string{"priority|i1|", "priority|i2|", "priority|i3|"} {
		if err := ts.Put("task:x", []byte(v)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	ts.Close()

	reopened := newTestStore(t, dir)
	defer reopened.Close()

	got, err := reopened.Get("task:x")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "priority|i3|" {
		t.Errorf("Get = %q, want latest value", got)
	}
}

func TestTaskStore_RecoveryTruncatesCorruptTail(t *testing.T) {
	dir := t.TempDir()

	ts := newTestStore(t, dir)
	if err := ts.Put("task:good", []byte("priority|i1|")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	ts.Close()

	// Append garbage simulating a torn write.
	f, err := os.OpenFile(filepath.Join(dir, "tasks.log"), os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		t.Fatalf("Failed to open log: %v", err)
	}
	if _, err := f.Write([]byte("torn-write-garbage")); err != nil {
		t.Fatalf("Failed to write garbage: %v", err)
	}
	f.Close()

	reopened, err := NewTaskStore(TaskStoreConfig{DataDir: dir})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	recovery, err := reopened.Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer reopened.Close()

	if recovery.RecordsTruncated == 0 {
		t.Error("Recovery should have truncated the corrupt tail")
	}
	if recovery.FileSizeAfter >= recovery.FileSizeBefore {
		t.Errorf("File not truncated: before %d, after %d", recovery.FileSizeBefore, recovery.FileSizeAfter)
	}

	got, err := reopened.Get("task:good")
	if err != nil {
		t.Fatalf("Valid record lost during recovery: %v", err)
	}
	if string(got) != "priority|i1|" {
		t.Errorf("Get = %q", got)
	}
}

func TestTaskStore_ListAndScan(t *testing.T) {
	ts := newTestStore(t, t.TempDir())
	defer ts.Close()

	puts := map[string]string{
		"task:a":  "priority|i1|",
		"task:b":  "priority|i2|",
		"note:n1": "body|shello|",
	}
	for k, v := range puts {
		if err := ts.Put(k, []byte(v)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	keys, err := ts.ListKeys("task:")
	if err != nil {
		t.Fatalf("ListKeys failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "task:a" || keys[1] != "task:b" {
		t.Errorf("ListKeys = %v", keys)
	}

	entries, err := ts.ScanPrefix("task:")
	if err != nil {
		t.Fatalf("ScanPrefix failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ScanPrefix returned %d entries, want 2", len(entries))
	}
	if entries[0].Key != "task:a" || entries[0].Serialized != "priority|i1|" {
		t.Errorf("ScanPrefix[0] = %+v", entries[0])
	}
}

func TestTaskStore_OperationsRequireOpen(t *testing.T) {
	ts, err := NewTaskStore(TaskStoreConfig{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if _, err := ts.Get("k"); err != ErrNotOpen {
		t.Errorf("Get on closed store: err = %v, want ErrNotOpen", err)
	}
	if err := ts.Put("k", []byte("v")); err != ErrNotOpen {
		t.Errorf("Put on closed store: err = %v, want ErrNotOpen", err)
	}
}

func TestTaskStore_Stats(t *testing.T) {
	ts := newTestStore(t, t.TempDir())
	defer ts.Close()

	if err := ts.Put("task:a", []byte("priority|i1|")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := ts.Put("task:b", []byte("priority|i2|")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	stats := ts.Stats()
	if stats.Tasks != 2 {
		t.Errorf("Stats.Tasks = %d, want 2", stats.Tasks)
	}
	if stats.DataSize == 0 {
		t.Error("Stats.DataSize should be non-zero")
	}
}

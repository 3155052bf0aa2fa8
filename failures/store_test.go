package failures

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func initTestStore(t *testing.T) {
	t.Helper()
	if err := Init(filepath.Join(t.TempDir(), "failures.db")); err != nil {
		t.Fatalf("Failed to initialize failure store: %v", err)
	}
	t.Cleanup(func() { Close() })
}

func TestFailureStore(t *testing.T) {
	initTestStore(t)

	cause := errors.New("probe notes.mp4: cannot open video: invalid data")
	if err := StoreFailure("job-1", "decode", "notes.mp4", cause); err != nil {
		t.Fatalf("Failed to store failure: %v", err)
	}

	record, err := GetFailure("job-1")
	if err != nil {
		t.Fatalf("Failed to get failure: %v", err)
	}
	if record == nil {
		t.Fatal("Expected failure record, got nil")
	}
	if record.Error != cause.Error() {
		t.Errorf("Expected error %q, got %q", cause.Error(), record.Error)
	}
	if record.Kind != "decode" || record.OriginalName != "notes.mp4" {
		t.Errorf("Unexpected record: %+v", record)
	}

	none, err := GetFailure("unknown")
	if err != nil {
		t.Fatalf("Failed to get unknown failure: %v", err)
	}
	if none != nil {
		t.Error("Expected nil for unknown job")
	}
}

func TestFailureStoreNilError(t *testing.T) {
	initTestStore(t)
	if err := StoreFailure("job-nil", "encode", "", nil); err != nil {
		t.Fatalf("Failed to store failure with nil cause: %v", err)
	}
	record, _ := GetFailure("job-nil")
	if record == nil || record.Error != "unknown error" {
		t.Fatalf("Unexpected record: %+v", record)
	}
}

func TestFailureListDeleteAndCleanup(t *testing.T) {
	initTestStore(t)

	for _, id := range []string{"f1", "f2", "f3"} {
		if err := StoreFailure(id, "encode", "", errors.New("test error")); err != nil {
			t.Fatalf("Failed to store failure %s: %v", id, err)
		}
	}

	list, err := ListFailures()
	if err != nil {
		t.Fatalf("Failed to list failures: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("Expected 3 failures, got %d", len(list))
	}

	if err := DeleteFailure("f1"); err != nil {
		t.Fatalf("Failed to delete failure: %v", err)
	}

	if err := CleanupOldRecords(time.Nanosecond); err != nil {
		t.Fatalf("Failed to cleanup failures: %v", err)
	}
	list, err = ListFailures()
	if err != nil {
		t.Fatalf("Failed to list failures: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected all failures cleaned up, %d remain", len(list))
	}
}

package failures

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pebble "github.com/cockroachdb/pebble"
)

// FailureRecord represents a job that did not produce an output
type FailureRecord struct {
	JobID        string    `json:"job_id"`
	Kind         string    `json:"kind"`
	Timestamp    time.Time `json:"timestamp"`
	Error        string    `json:"error"`
	OriginalName string    `json:"original_name,omitempty"`
}

var db *pebble.DB

// Init initializes the failure store
func Init(dbPath string) error {
	var err error
	db, err = pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return fmt.Errorf("failed to open failure store: %w", err)
	}
	return nil
}

// Close closes the failure store
func Close() error {
	if db != nil {
		err := db.Close()
		db = nil
		return err
	}
	return nil
}

// StoreFailure stores a processing failure
func StoreFailure(jobID, kind, originalName string, cause error) error {
	if db == nil {
		return fmt.Errorf("failure store not initialized")
	}

	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	record := FailureRecord{
		JobID:        jobID,
		Kind:         kind,
		Timestamp:    time.Now(),
		Error:        msg,
		OriginalName: originalName,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal failure record: %w", err)
	}
	return db.Set([]byte(jobID), data, pebble.Sync)
}

// GetFailure retrieves a failure record by job id
func GetFailure(jobID string) (*FailureRecord, error) {
	if db == nil {
		return nil, fmt.Errorf("failure store not initialized")
	}

	data, closer, err := db.Get([]byte(jobID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, nil // No failure found
		}
		return nil, fmt.Errorf("failed to get failure: %w", err)
	}
	defer closer.Close()

	var record FailureRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal failure record: %w", err)
	}
	return &record, nil
}

// DeleteFailure removes a failure record
func DeleteFailure(jobID string) error {
	if db == nil {
		return fmt.Errorf("failure store not initialized")
	}
	return db.Delete([]byte(jobID), pebble.Sync)
}

// ListFailures returns all failure records (for admin purposes)
func ListFailures() ([]FailureRecord, error) {
	if db == nil {
		return nil, fmt.Errorf("failure store not initialized")
	}

	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	failures := []FailureRecord{}
	for iter.First(); iter.Valid(); iter.Next() {
		var record FailureRecord
		if err := json.Unmarshal(iter.Value(), &record); err != nil {
			continue // Skip invalid records
		}
		failures = append(failures, record)
	}

	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iteration error: %w", err)
	}
	return failures, nil
}

// CleanupOldRecords removes failure records older than the specified duration
func CleanupOldRecords(maxAge time.Duration) error {
	if db == nil {
		return fmt.Errorf("failure store not initialized")
	}

	cutoff := time.Now().Add(-maxAge)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}

	var keysToDelete [][]byte
	for iter.First(); iter.Valid(); iter.Next() {
		var record FailureRecord
		if err := json.Unmarshal(iter.Value(), &record); err != nil {
			continue
		}
		if record.Timestamp.Before(cutoff) {
			key := make([]byte, len(iter.Key()))
			copy(key, iter.Key())
			keysToDelete = append(keysToDelete, key)
		}
	}
	if err := iter.Close(); err != nil {
		return err
	}

	for _, key := range keysToDelete {
		if err := db.Delete(key, pebble.Sync); err != nil {
			return fmt.Errorf("failed to delete old failure record: %w", err)
		}
	}
	return nil
}

// CheckHealth performs a basic health check on the failures database
func CheckHealth() error {
	if db == nil {
		return fmt.Errorf("failures database not initialized")
	}
	_, closer, err := db.Get([]byte("__health_check__"))
	if err != nil && !errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("database health check failed: %w", err)
	}
	if closer != nil {
		closer.Close()
	}
	return nil
}

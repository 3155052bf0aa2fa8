// Package success keeps a record of every job that produced an output.
package success

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pebble "github.com/cockroachdb/pebble"
)

// SuccessRecord represents a completed encode or decode
type SuccessRecord struct {
	JobID      string    `json:"job_id"`
	Kind       string    `json:"kind"`
	Timestamp  time.Time `json:"timestamp"`
	OutputName string    `json:"output_name"`
	Frames     int       `json:"frames"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	FPS        float64   `json:"fps"`
	Elapsed    string    `json:"elapsed"`
}

var db *pebble.DB

// Init initializes the success store
func Init(dbPath string) error {
	var err error
	db, err = pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return fmt.Errorf("failed to open success store: %w", err)
	}
	return nil
}

// Close closes the success store
func Close() error {
	if db != nil {
		err := db.Close()
		db = nil
		return err
	}
	return nil
}

// StoreSuccess stores a completed job, stamping it with the current time
func StoreSuccess(record SuccessRecord) error {
	if db == nil {
		return fmt.Errorf("success store not initialized")
	}
	if record.JobID == "" {
		return fmt.Errorf("success record without job id")
	}
	record.Timestamp = time.Now()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal success record: %w", err)
	}
	return db.Set([]byte(record.JobID), data, pebble.Sync)
}

// GetSuccess retrieves a success record by job id
func GetSuccess(jobID string) (*SuccessRecord, error) {
	if db == nil {
		return nil, fmt.Errorf("success store not initialized")
	}

	data, closer, err := db.Get([]byte(jobID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, nil // Not found is not an error
		}
		return nil, err
	}
	defer closer.Close()

	var record SuccessRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal success record: %w", err)
	}
	return &record, nil
}

// DeleteSuccess removes a success record
func DeleteSuccess(jobID string) error {
	if db == nil {
		return fmt.Errorf("success store not initialized")
	}
	return db.Delete([]byte(jobID), pebble.Sync)
}

// ListSuccessRecords returns all success records (for admin/debugging)
func ListSuccessRecords() ([]SuccessRecord, error) {
	if db == nil {
		return nil, fmt.Errorf("success store not initialized")
	}

	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	records := []SuccessRecord{}
	for iter.First(); iter.Valid(); iter.Next() {
		var record SuccessRecord
		if err := json.Unmarshal(iter.Value(), &record); err != nil {
			continue // Skip invalid records
		}
		records = append(records, record)
	}
	return records, iter.Error()
}

// CleanupOldRecords removes success records older than the specified duration
func CleanupOldRecords(maxAge time.Duration) error {
	if db == nil {
		return fmt.Errorf("success store not initialized")
	}

	cutoff := time.Now().Add(-maxAge)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}

	var keysToDelete [][]byte
	for iter.First(); iter.Valid(); iter.Next() {
		var record SuccessRecord
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
			return fmt.Errorf("failed to delete old success record: %w", err)
		}
	}
	return nil
}

// CheckHealth performs a basic health check on the success database
func CheckHealth() error {
	if db == nil {
		return fmt.Errorf("success database not initialized")
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

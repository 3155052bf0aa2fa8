// Package payload associates hidden text with the specific output file an
// encode produced, so a decode of that file finds its own text even when
// many encodes run at once.
package payload

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	pebble "github.com/cockroachdb/pebble"

	"vidstego/logger"
)

// Absent is returned by lookups that find no payload.
const Absent = "(none)"

// TagPrefix marks the job id written into an encoded file's comment tag.
const TagPrefix = "vidstego:"

const (
	fingerprintPrefix = "fp/"
	jobPrefix         = "job/"
)

// Record is one stored payload.
type Record struct {
	Text        string    `json:"text"`
	JobID       string    `json:"job_id,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

var db *pebble.DB

// Init opens the payload store
func Init(dbPath string) error {
	var err error
	db, err = pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return fmt.Errorf("failed to open payload store: %w", err)
	}
	return nil
}

// Close closes the payload store
func Close() error {
	if db != nil {
		err := db.Close()
		db = nil
		return err
	}
	return nil
}

// Put records text under key, trimmed of surrounding whitespace, replacing
// any previous value.
func Put(key, text string) error {
	return write(Record{Text: strings.TrimSpace(text), CreatedAt: time.Now()}, key)
}

// PutForJob stores text under both the output fingerprint and the job id in
// one batch. Without a fingerprint only the job key is written.
func PutForJob(jobID, fingerprint, text string) error {
	if fingerprint == "" {
		return Put(jobPrefix+jobID, text)
	}
	rec := Record{
		Text:        strings.TrimSpace(text),
		JobID:       jobID,
		Fingerprint: fingerprint,
		CreatedAt:   time.Now(),
	}
	return write(rec, fingerprintPrefix+fingerprint, jobPrefix+jobID)
}

func write(rec Record, keys ...string) error {
	if db == nil {
		return fmt.Errorf("payload store not initialized")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	batch := db.NewBatch()
	defer batch.Close()
	for _, k := range keys {
		if err := batch.Set([]byte(k), data, nil); err != nil {
			return fmt.Errorf("failed to stage payload %s: %w", k, err)
		}
	}
	return batch.Commit(pebble.Sync)
}

// Get returns the text stored under key, or Absent. Blank text reads as
// Absent too. Store errors are logged and reported as Absent.
func Get(key string) string {
	rec, err := get(key)
	if err != nil {
		logger.Errorf("Failed to read payload %s: %v", key, err)
		return Absent
	}
	if rec == nil || rec.Text == "" {
		return Absent
	}
	return rec.Text
}

// Lookup finds the payload for a presented file: first by its content
// fingerprint, then by the job id recovered from its container tag.
func Lookup(fingerprint, jobID string) string {
	if fingerprint != "" {
		if text := Get(fingerprintPrefix + fingerprint); text != Absent {
			return text
		}
	}
	if jobID != "" {
		return Get(jobPrefix + jobID)
	}
	return Absent
}

func get(key string) (*Record, error) {
	if db == nil {
		return nil, fmt.Errorf("payload store not initialized")
	}
	data, closer, err := db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	defer closer.Close()

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return &rec, nil
}

// JobIDFromTag extracts the job id from a container comment tag.
func JobIDFromTag(comment string) string {
	id, ok := strings.CutPrefix(strings.TrimSpace(comment), TagPrefix)
	if !ok {
		return ""
	}
	return id
}

// Fingerprint returns the hex SHA-256 of the file at path.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CleanupOldRecords removes payloads older than maxAge. It runs with the
// processed-output sweep so payloads never outlive their files by much.
func CleanupOldRecords(maxAge time.Duration) (int, error) {
	if db == nil {
		return 0, fmt.Errorf("payload store not initialized")
	}

	cutoff := time.Now().Add(-maxAge)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, err
	}

	var keysToDelete [][]byte
	for iter.First(); iter.Valid(); iter.Next() {
		var rec Record
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			continue
		}
		if rec.CreatedAt.Before(cutoff) {
			key := make([]byte, len(iter.Key()))
			copy(key, iter.Key())
			keysToDelete = append(keysToDelete, key)
		}
	}
	if err := iter.Close(); err != nil {
		return 0, err
	}

	for _, key := range keysToDelete {
		if err := db.Delete(key, pebble.Sync); err != nil {
			return 0, fmt.Errorf("failed to delete old payload: %w", err)
		}
	}
	return len(keysToDelete), nil
}

// CheckHealth performs a basic read against the payload database
func CheckHealth() error {
	if db == nil {
		return fmt.Errorf("payload database not initialized")
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

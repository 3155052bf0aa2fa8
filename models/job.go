package models

import "time"

// JobKind tells the pipeline which transform and payload action to use.
type JobKind string

const (
	JobKindEncode JobKind = "encode"
	JobKindDecode JobKind = "decode"
)

// OutputPrefix is the processed filename prefix for the kind: encoded_ or decoded_.
func (k JobKind) OutputPrefix() string {
	return string(k) + "d_"
}

// Job is one encode or decode request. It lives for the duration of the
// request; only its outcome record outlives it.
type Job struct {
	ID           string    `json:"id"`
	Kind         JobKind   `json:"kind"`
	InputPath    string    `json:"input_path"`  // transient upload
	OutputPath   string    `json:"output_path"` // processed output
	OriginalName string    `json:"original_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// OutputName is the processed filename clients use to fetch the result.
func (j Job) OutputName() string {
	return j.Kind.OutputPrefix() + j.ID + ".mp4"
}

package chat

import "encoding/json"

// JobState is the lifecycle of an asynchronous job: Pending until it reaches
// one of the terminal states.
type JobState string

const (
	JobPending JobState = "PENDING"
	JobSuccess JobState = "SUCCESS"
	JobFailure JobState = "FAILURE"
)

// Terminal tells whether no further transition can happen.
func (s JobState) Terminal() bool {
	return s == JobSuccess || s == JobFailure
}

// JobError is the structured description of a failed job.
type JobError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewJobError captures err with its taxonomy code.
func NewJobError(err error) *JobError {
	return &JobError{Code: ErrorCode(err), Message: err.Error()}
}

// Job is the pollable view of an asynchronous unit of work.
type Job struct {
	ID     string            `json:"id"`
	State  JobState          `json:"state"`
	Result json.RawMessage   `json:"result,omitempty"`
	Error  *JobError         `json:"error,omitempty"`
	Meta   map[string]string `json:"meta,omitempty"`
}

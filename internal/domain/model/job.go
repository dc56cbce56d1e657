package model

import "time"

type JobStatus string

const (
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobStage tracks a job through a single worker.
type JobStage string

const (
	StageClaimed     JobStage = "claimed"
	StageExtracting  JobStage = "extracting"
	StageSummarizing JobStage = "summarizing"
	StageDelivering  JobStage = "delivering"
	StageAcked       JobStage = "acked"
)

// Job is one asynchronous summarization request. It is the queue payload.
type Job struct {
	ID          string    `json:"job_id"`
	PDFID       int64     `json:"pdf_id"`
	StoragePath string    `json:"storage_path"`
	CallbackURL string    `json:"callback_url"`
	Provider    Provider  `json:"llm_provider"`
	Mode        Mode      `json:"mode"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

func (j *Job) Preference() Preference {
	return Preference{Provider: j.Provider, Mode: j.Mode}
}

// Delivery is a claimed job plus the backend-specific receipt needed to ack it.
type Delivery struct {
	Job       *Job
	Receipt   string
	ClaimedAt time.Time
}

// JobResult is produced once per processing of a Job and only lives long
// enough to be serialized into the callback payload.
type JobResult struct {
	JobID    string
	PDFID    int64
	Status   JobStatus
	Output   string
	Error    string
	Provider Provider
}

func CompletedResult(job *Job, output string) JobResult {
	return JobResult{JobID: job.ID, PDFID: job.PDFID, Status: JobStatusCompleted, Output: output, Provider: job.Provider}
}

func FailedResult(job *Job, err error) JobResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return JobResult{JobID: job.ID, PDFID: job.PDFID, Status: JobStatusFailed, Error: msg, Provider: job.Provider}
}

// QueueStats is a point-in-time view of a queue backend.
type QueueStats struct {
	Pending  int64 `json:"pending"`
	InFlight int64 `json:"in_flight"`
}

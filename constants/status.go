package constants

// JobStatus is the canonical status for rows in classification_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued     JobStatus = "QUEUED"     // waiting for a worker
	JobStatusRunning    JobStatus = "RUNNING"    // in progress
	JobStatusExtractOK  JobStatus = "EXTRACT_OK" // stage 1 completed (text extracted)
	JobStatusClassified JobStatus = "CLASSIFIED" // stage 2 completed (verdict produced)
	JobStatusFailed     JobStatus = "FAILED"     // terminal failure
)

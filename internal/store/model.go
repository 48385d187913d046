package store

import "time"

// JobState is the coarse lifecycle stage of a job.
type JobState string

const (
	StateQueueing JobState = "Queueing"
	StateRunning  JobState = "Running"
	StateFinished JobState = "Finished"
	StateCanceled JobState = "Canceled"
)

// JobResult is the outcome vocabulary shared by jobs and case results.
type JobResult string

const (
	ResultWaiting             JobResult = "Waiting"
	ResultRunning             JobResult = "Running"
	ResultAccepted            JobResult = "Accepted"
	ResultWrongAnswer         JobResult = "Wrong Answer"
	ResultRuntimeError        JobResult = "Runtime Error"
	ResultTimeLimitExceeded   JobResult = "Time Limit Exceeded"
	ResultMemoryLimitExceeded JobResult = "Memory Limit Exceeded"
	ResultCompilationError    JobResult = "Compilation Error"
	ResultCompilationSuccess  JobResult = "Compilation Success"
	ResultSystemError         JobResult = "System Error"
	ResultSkipped             JobResult = "Skipped"
)

// TimeLayout is the RFC-3339 millisecond-precision, trailing-Z layout every
// stored timestamp uses.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// FormatTime renders t in the canonical storage layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a timestamp stored in the canonical layout, falling back
// to RFC3339Nano for values produced by other RFC-3339-compliant writers.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// User is a registered judge participant.
type User struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

// Submission is the user-supplied content of a job.
type Submission struct {
	UserID     uint32 `json:"user_id"`
	ContestID  uint32 `json:"contest_id"`
	ProblemID  uint32 `json:"problem_id"`
	SourceCode string `json:"source_code"`
	Language   string `json:"language"`
}

// CaseResult is one graded case row (index 0 is always the compile case).
type CaseResult struct {
	ID     int       `json:"id"`
	Result JobResult `json:"result"`
	Time   uint64    `json:"time"`   // microseconds
	Memory uint64    `json:"memory"` // kilobytes
	Info   string    `json:"info"`
}

// Job is a full persisted submission record.
type Job struct {
	ID          uint32       `json:"id"`
	CreatedTime time.Time    `json:"created_time"`
	UpdatedTime time.Time    `json:"updated_time"`
	Submission  Submission   `json:"submission"`
	State       JobState     `json:"state"`
	Result      JobResult    `json:"result"`
	Score       float64      `json:"score"`
	Cases       []CaseResult `json:"cases"`
}

// Filter narrows ListJobs to the submissions matching every non-nil field.
type Filter struct {
	UserID    *uint32
	UserName  *string
	ContestID *uint32
	ProblemID *uint32
	Language  *string
	From      *time.Time
	To        *time.Time
	State     *JobState
	Result    *JobResult
}

// Package api wires the HTTP surface onto the store, queue, and ranklist
// aggregator: job submission and lifecycle, user management, and the
// contest scoreboard.
package api

import (
	"time"

	"github.com/judgehub/judgehub/internal/ranklist"
	"github.com/judgehub/judgehub/internal/store"
)

// jobSubmissionRequest is the body of POST /jobs and the submission half of
// a job response.
type jobSubmissionRequest struct {
	SourceCode string `json:"source_code"`
	Language   string `json:"language"`
	UserID     uint32 `json:"user_id"`
	ContestID  uint32 `json:"contest_id"`
	ProblemID  uint32 `json:"problem_id"`
}

func (r jobSubmissionRequest) toSubmission() store.Submission {
	return store.Submission{
		UserID:     r.UserID,
		ContestID:  r.ContestID,
		ProblemID:  r.ProblemID,
		SourceCode: r.SourceCode,
		Language:   r.Language,
	}
}

// caseResultResponse is one graded case in a job response.
type caseResultResponse struct {
	ID     int             `json:"id"`
	Result store.JobResult `json:"result"`
	Time   uint64          `json:"time"`
	Memory uint64          `json:"memory"`
	Info   string          `json:"info"`
}

// jobResponse is the wire shape of a job record.
type jobResponse struct {
	ID          uint32               `json:"id"`
	CreatedTime time.Time            `json:"created_time"`
	UpdatedTime time.Time            `json:"updated_time"`
	Submission  jobSubmissionRequest `json:"submission"`
	State       store.JobState       `json:"state"`
	Result      store.JobResult      `json:"result"`
	Score       float64              `json:"score"`
	Cases       []caseResultResponse `json:"cases"`
}

func toJobResponse(job store.Job) jobResponse {
	cases := make([]caseResultResponse, len(job.Cases))
	for i, c := range job.Cases {
		cases[i] = caseResultResponse{ID: c.ID, Result: c.Result, Time: c.Time, Memory: c.Memory, Info: c.Info}
	}
	return jobResponse{
		ID:          job.ID,
		CreatedTime: job.CreatedTime,
		UpdatedTime: job.UpdatedTime,
		State:       job.State,
		Result:      job.Result,
		Score:       job.Score,
		Cases:       cases,
		Submission: jobSubmissionRequest{
			SourceCode: job.Submission.SourceCode,
			Language:   job.Submission.Language,
			UserID:     job.Submission.UserID,
			ContestID:  job.Submission.ContestID,
			ProblemID:  job.Submission.ProblemID,
		},
	}
}

// userRequest is the body of POST /users. A nil ID creates a user; a set ID
// renames an existing one.
type userRequest struct {
	ID   *uint32 `json:"id"`
	Name string  `json:"name"`
}

// ranklistEntryResponse mirrors ranklist.Entry for the wire, kept as a
// distinct type so the HTTP shape can drift from the internal one.
type ranklistEntryResponse struct {
	User   store.User `json:"user"`
	Rank   uint32     `json:"rank"`
	Scores []float64  `json:"scores"`
}

func toRanklistResponse(entries []ranklist.Entry) []ranklistEntryResponse {
	resp := make([]ranklistEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = ranklistEntryResponse{User: e.User, Rank: e.Rank, Scores: e.Scores}
	}
	return resp
}

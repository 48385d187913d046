package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/judgehub/judgehub"
	"github.com/judgehub/judgehub/internal/config"
	"github.com/judgehub/judgehub/internal/queue"
	"github.com/judgehub/judgehub/internal/ranklist"
	"github.com/judgehub/judgehub/internal/store"
)

// JobsHandler exposes the submission, listing, rejudge, and cancel
// endpoints for jobs.
type JobsHandler struct {
	store *store.Store
	cfg   *config.Config
	queue *queue.Queue
	rank  *ranklist.Aggregator
}

// NewJobsHandler builds a JobsHandler. rank may be nil, in which case
// scoreboard invalidation is skipped.
func NewJobsHandler(st *store.Store, cfg *config.Config, q *queue.Queue, rank *ranklist.Aggregator) *JobsHandler {
	return &JobsHandler{store: st, cfg: cfg, queue: q, rank: rank}
}

func (h *JobsHandler) Routes(r judgehub.Router) {
	r.POST("/jobs", h.create)
	r.GET("/jobs", h.list)
	r.GET("/jobs/{id}", h.get)
	r.PUT("/jobs/{id}", h.rejudge)
	r.DELETE("/jobs/{id}", h.cancel)
}

func (h *JobsHandler) create(c judgehub.Context) error {
	var req jobSubmissionRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.Error(judgehub.ReasonInvalidArgument, "malformed request body", judgehub.WithError(err))
	}

	if _, ok := h.cfg.FindLanguage(req.Language); !ok {
		return c.Error(judgehub.ReasonNotFound, fmt.Sprintf("language %q not found", req.Language))
	}
	problem, ok := h.cfg.FindProblem(req.ProblemID)
	if !ok {
		return c.Error(judgehub.ReasonNotFound, fmt.Sprintf("problem %d not found", req.ProblemID))
	}

	if _, err := h.store.FindUserByID(c, req.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Error(judgehub.ReasonNotFound, fmt.Sprintf("user %d not found", req.UserID))
		}
		return c.Error(judgehub.ReasonExternal, "failed to look up user", judgehub.WithError(err))
	}

	sub := req.toSubmission()
	jobID, err := h.store.CreateJob(c, sub, problem.TotalCases())
	if err != nil {
		return c.Error(judgehub.ReasonExternal, "failed to create job", judgehub.WithError(err))
	}

	return h.submit(c, jobID, sub, problem.TotalCases())
}

// submit pushes jobID onto the queue and replies either with the judged
// record (blocking) or a freshly-queued record synthesized in memory
// (non-blocking), per the global server.blocking setting. The non-blocking
// reply skips a round trip to the store: every case is reported Waiting,
// matching the state CreateJob/ResetForRejudge just persisted.
func (h *JobsHandler) submit(c judgehub.Context, jobID uint32, sub store.Submission, totalCases int) error {
	if h.cfg.Server.Blocking {
		msg, responder := queue.NewBlocking(jobID)
		h.queue.Push(msg)

		select {
		case job, ok := <-responder:
			if !ok {
				return c.Error(judgehub.ReasonInternal, "job was canceled before judging finished")
			}
			h.invalidateRanklist(c)
			return c.JSON(http.StatusOK, toJobResponse(job))
		case <-c.Done():
			return c.Error(judgehub.ReasonInternal, "request canceled while waiting for judge result")
		}
	}

	h.queue.Push(queue.FireAndForget(jobID))

	now := time.Now().UTC()
	cases := make([]caseResultResponse, totalCases)
	for i := range cases {
		cases[i] = caseResultResponse{ID: i, Result: store.ResultWaiting}
	}

	return c.JSON(http.StatusOK, jobResponse{
		ID:          jobID,
		CreatedTime: now,
		UpdatedTime: now,
		Submission: jobSubmissionRequest{
			SourceCode: sub.SourceCode,
			Language:   sub.Language,
			UserID:     sub.UserID,
			ContestID:  sub.ContestID,
			ProblemID:  sub.ProblemID,
		},
		State:  store.StateQueueing,
		Result: store.ResultWaiting,
		Score:  0,
		Cases:  cases,
	})
}

func (h *JobsHandler) list(c judgehub.Context) error {
	var filter store.Filter

	if v := c.Query("user_id"); v != "" {
		id, err := parseUint32(v)
		if err != nil {
			return c.Error(judgehub.ReasonInvalidArgument, "malformed user_id", judgehub.WithError(err))
		}
		filter.UserID = &id
	}
	if v := c.Query("user_name"); v != "" {
		filter.UserName = &v
	}
	if v := c.Query("contest_id"); v != "" {
		id, err := parseUint32(v)
		if err != nil {
			return c.Error(judgehub.ReasonInvalidArgument, "malformed contest_id", judgehub.WithError(err))
		}
		filter.ContestID = &id
	}
	if v := c.Query("problem_id"); v != "" {
		id, err := parseUint32(v)
		if err != nil {
			return c.Error(judgehub.ReasonInvalidArgument, "malformed problem_id", judgehub.WithError(err))
		}
		filter.ProblemID = &id
	}
	if v := c.Query("language"); v != "" {
		filter.Language = &v
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Error(judgehub.ReasonInvalidArgument, "malformed from timestamp", judgehub.WithError(err))
		}
		filter.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Error(judgehub.ReasonInvalidArgument, "malformed to timestamp", judgehub.WithError(err))
		}
		filter.To = &t
	}
	if v := c.Query("state"); v != "" {
		st := store.JobState(v)
		filter.State = &st
	}
	if v := c.Query("result"); v != "" {
		res := store.JobResult(v)
		filter.Result = &res
	}

	jobs, err := h.store.ListJobs(c, filter)
	if err != nil {
		return c.Error(judgehub.ReasonExternal, "failed to list jobs", judgehub.WithError(err))
	}

	resp := make([]jobResponse, len(jobs))
	for i, j := range jobs {
		resp[i] = toJobResponse(j)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *JobsHandler) get(c judgehub.Context) error {
	id, err := parseUint32(c.Param("id"))
	if err != nil {
		return c.Error(judgehub.ReasonNotFound, "job not found")
	}

	job, err := h.store.GetJob(c, id)
	if errors.Is(err, store.ErrNotFound) {
		return c.Error(judgehub.ReasonNotFound, fmt.Sprintf("job %d not found", id))
	}
	if err != nil {
		return c.Error(judgehub.ReasonExternal, "failed to load job", judgehub.WithError(err))
	}

	return c.JSON(http.StatusOK, toJobResponse(job))
}

func (h *JobsHandler) rejudge(c judgehub.Context) error {
	id, err := parseUint32(c.Param("id"))
	if err != nil {
		return c.Error(judgehub.ReasonNotFound, "job not found")
	}

	job, err := h.store.GetJob(c, id)
	if errors.Is(err, store.ErrNotFound) {
		return c.Error(judgehub.ReasonNotFound, fmt.Sprintf("job %d not found", id))
	}
	if err != nil {
		return c.Error(judgehub.ReasonExternal, "failed to load job", judgehub.WithError(err))
	}

	if job.State != store.StateFinished && job.State != store.StateCanceled {
		return c.Error(judgehub.ReasonInvalidState, fmt.Sprintf("job %d not finished", id))
	}

	problem, ok := h.cfg.FindProblem(job.Submission.ProblemID)
	if !ok {
		return c.Error(judgehub.ReasonNotFound, fmt.Sprintf("problem %d not found", job.Submission.ProblemID))
	}

	if err := h.store.ResetForRejudge(c, id, problem.TotalCases()); err != nil {
		return c.Error(judgehub.ReasonExternal, "failed to reset job for rejudge", judgehub.WithError(err))
	}
	h.invalidateRanklist(c)

	return h.submit(c, id, job.Submission, problem.TotalCases())
}

func (h *JobsHandler) cancel(c judgehub.Context) error {
	id, err := parseUint32(c.Param("id"))
	if err != nil {
		return c.Error(judgehub.ReasonNotFound, "job not found")
	}

	if h.queue.Cancel(id) {
		if err := h.store.CancelJob(c, id); err != nil {
			return c.Error(judgehub.ReasonExternal, "failed to mark job canceled", judgehub.WithError(err))
		}
		h.invalidateRanklist(c)
		return c.NoContent(http.StatusOK)
	}

	_, err = h.store.GetJob(c, id)
	if errors.Is(err, store.ErrNotFound) {
		return c.Error(judgehub.ReasonNotFound, fmt.Sprintf("job %d not found", id))
	}
	if err != nil {
		return c.Error(judgehub.ReasonExternal, "failed to look up job", judgehub.WithError(err))
	}

	return c.Error(judgehub.ReasonInvalidState, fmt.Sprintf("job %d not queueing", id))
}

func (h *JobsHandler) invalidateRanklist(c judgehub.Context) {
	if h.rank == nil {
		return
	}
	if err := h.rank.Invalidate(c); err != nil {
		c.LogWarn("failed to invalidate ranklist cache", "error", err)
	}
}

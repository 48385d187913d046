// Package worker runs the pool of goroutines that pull queued jobs, judge
// them in a sandbox, and persist the result.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/judgehub/judgehub/internal/config"
	"github.com/judgehub/judgehub/internal/queue"
	"github.com/judgehub/judgehub/internal/ranklist"
	"github.com/judgehub/judgehub/internal/sandbox"
	"github.com/judgehub/judgehub/internal/store"
	"github.com/judgehub/judgehub/middlewares"
)

// Pool owns a fixed number of judging workers, each with its own sandbox
// runner, draining a shared queue until its context is canceled.
type Pool struct {
	count   int
	cfg     *config.Config
	store   *store.Store
	queue   *queue.Queue
	rank    *ranklist.Aggregator
	baseDir string
	log     *slog.Logger
}

// NewPool builds a pool of count workers. count must be at least 1. rank may
// be nil, in which case the scoreboard cache is never invalidated (no cache
// configured).
func NewPool(count int, cfg *config.Config, st *store.Store, q *queue.Queue, rank *ranklist.Aggregator, baseDir string, log *slog.Logger) *Pool {
	if count < 1 {
		count = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pool{count: count, cfg: cfg, store: st, queue: q, rank: rank, baseDir: baseDir, log: log}
}

// Run starts every worker and blocks until ctx is canceled and all workers
// have shut down. A worker's sandbox initialization failure fails the whole
// pool; a failure judging a single job does not.
func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := range p.count {
		id := i
		g.Go(func() error {
			return p.runWorker(ctx, id)
		})
	}

	return g.Wait()
}

func (p *Pool) runWorker(ctx context.Context, id int) error {
	runner, err := sandbox.New(id, p.baseDir, p.log)
	if err != nil {
		return fmt.Errorf("worker %d: init sandbox: %w", id, err)
	}
	defer runner.Close()

	log := p.log.With("worker_id", id)
	log.Info("worker started")

	for {
		msg, err := p.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Info("worker shutting down")
				return nil
			}
			return fmt.Errorf("worker %d: pop: %w", id, err)
		}

		p.handle(ctx, id, log, runner, msg)
	}
}

func (p *Pool) handle(ctx context.Context, id int, log *slog.Logger, runner sandbox.Runner, msg queue.Message) {
	jobID := msg.JobID
	log = log.With("job_id", jobID)

	job, err := p.store.GetJob(ctx, jobID)
	if err != nil {
		log.Error("failed to fetch job, discarding", "error", err)
		return
	}

	if err := p.store.MarkRunning(ctx, jobID); err != nil {
		log.Error("failed to mark job running, discarding", "error", err)
		return
	}

	problem, ok := p.cfg.FindProblem(job.Submission.ProblemID)
	language, okLang := p.cfg.FindLanguage(job.Submission.Language)
	if !ok || !okLang {
		log.Error("missing config for job, discarding",
			"problem_id", job.Submission.ProblemID, "language", job.Submission.Language)
		return
	}

	result := p.judge(ctx, log, runner, job, problem, language)

	if err := p.store.SaveResult(ctx, jobID, result); err != nil {
		log.Error("failed to save job result", "error", err)
	}
	p.invalidateRanklist(ctx, log)

	if msg.Responder != nil {
		select {
		case msg.Responder <- result:
		default:
			log.Warn("blocking responder did not accept result, dropping")
		}
	}

	log.Info("job finished", "worker_id", id, "result", result.Result, "score", result.Score)
}

// invalidateRanklist drops any cached scoreboard now stale because a job
// just finished. No-op if no cache is configured.
func (p *Pool) invalidateRanklist(ctx context.Context, log *slog.Logger) {
	if p.rank == nil {
		return
	}
	if err := p.rank.Invalidate(ctx); err != nil {
		log.Warn("failed to invalidate ranklist cache", "error", err)
	}
}

// judge runs the sandbox and recovers from a panicking runner, since a bug
// in one submission's execution must not take the worker down.
func (p *Pool) judge(ctx context.Context, log *slog.Logger, runner sandbox.Runner, job store.Job, problem config.Problem, language config.Language) (result store.Job) {
	result = job
	defer func() {
		if r := recover(); r != nil {
			pe := &middlewares.PanicError{Value: r, Stack: debug.Stack()}
			log.Error("sandbox runner panicked", "error", pe)
			result.State = store.StateFinished
			result.Result = store.ResultSystemError
		}
	}()

	judged, err := runner.Run(ctx, job, problem, language)
	if err != nil {
		log.Error("sandbox run failed", "error", err)
		judged.State = store.StateFinished
		judged.Result = store.ResultSystemError
	}
	return judged
}

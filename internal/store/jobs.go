package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/judgehub/judgehub/pkg/db"
)

// CreateJob inserts a new job row in state Queueing/Waiting plus totalCases
// case rows (case 0 is always the compile case), and returns the dense,
// zero-based job id.
func (s *Store) CreateJob(ctx context.Context, sub Submission, totalCases int) (uint32, error) {
	var id uint32
	now := FormatTime(time.Now())

	err := db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO jobs (created_time, updated_time, user_id, contest_id, problem_id, source_code, language, state, result, score)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
			now, now, sub.UserID, sub.ContestID, sub.ProblemID, sub.SourceCode, sub.Language, StateQueueing, ResultWaiting,
		)
		if err != nil {
			return fmt.Errorf("insert job: %w", err)
		}

		pk, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		id = uint32(pk - 1)

		for i := range totalCases {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO job_case (job_id, case_index, result, time_us, memory_kb)
				VALUES (?, ?, ?, 0, 0)`, id, i, ResultWaiting); err != nil {
				return fmt.Errorf("insert case %d: %w", i, err)
			}
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("store: create job: %w", err)
	}

	return id, nil
}

// GetJob returns the full record for id, including its ordered case rows,
// or ErrNotFound.
func (s *Store) GetJob(ctx context.Context, id uint32) (Job, error) {
	job, err := s.scanJob(ctx, id)
	if err != nil {
		return Job{}, err
	}

	job.Cases, err = s.loadCases(ctx, id)
	if err != nil {
		return Job{}, err
	}

	return job, nil
}

func (s *Store) scanJob(ctx context.Context, id uint32) (Job, error) {
	var (
		job                      Job
		createdTime, updatedTime string
	)

	row := s.conn.QueryRowContext(ctx, `
		SELECT id, created_time, updated_time, user_id, contest_id, problem_id,
		       source_code, language, state, result, score
		FROM jobs WHERE id = ?`, id)

	err := row.Scan(
		&job.ID, &createdTime, &updatedTime,
		&job.Submission.UserID, &job.Submission.ContestID, &job.Submission.ProblemID,
		&job.Submission.SourceCode, &job.Submission.Language,
		&job.State, &job.Result, &job.Score,
	)
	if err == sql.ErrNoRows {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("store: get job %d: %w", id, err)
	}

	job.CreatedTime, err = ParseTime(createdTime)
	if err != nil {
		return Job{}, fmt.Errorf("store: get job %d: parse created_time: %w", id, err)
	}
	job.UpdatedTime, err = ParseTime(updatedTime)
	if err != nil {
		return Job{}, fmt.Errorf("store: get job %d: parse updated_time: %w", id, err)
	}

	return job, nil
}

func (s *Store) loadCases(ctx context.Context, jobID uint32) ([]CaseResult, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT case_index, result, time_us, memory_kb, info
		FROM job_case WHERE job_id = ? ORDER BY case_index`, jobID)
	if err != nil {
		return nil, fmt.Errorf("store: load cases for job %d: %w", jobID, err)
	}
	defer rows.Close()

	var cases []CaseResult
	for rows.Next() {
		var c CaseResult
		if err := rows.Scan(&c.ID, &c.Result, &c.Time, &c.Memory, &c.Info); err != nil {
			return nil, fmt.Errorf("store: load cases for job %d: scan: %w", jobID, err)
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

// ListJobs returns every job matching filter, ordered by created_time
// ascending, with cases populated.
func (s *Store) ListJobs(ctx context.Context, filter Filter) ([]Job, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.UserID != nil {
		clauses = append(clauses, "user_id = ?")
		args = append(args, *filter.UserID)
	}
	if filter.UserName != nil {
		clauses = append(clauses, "user_id IN (SELECT id FROM users WHERE name = ?)")
		args = append(args, *filter.UserName)
	}
	if filter.ContestID != nil {
		clauses = append(clauses, "contest_id = ?")
		args = append(args, *filter.ContestID)
	}
	if filter.ProblemID != nil {
		clauses = append(clauses, "problem_id = ?")
		args = append(args, *filter.ProblemID)
	}
	if filter.Language != nil {
		clauses = append(clauses, "language = ?")
		args = append(args, *filter.Language)
	}
	if filter.From != nil {
		clauses = append(clauses, "created_time >= ?")
		args = append(args, FormatTime(*filter.From))
	}
	if filter.To != nil {
		clauses = append(clauses, "created_time <= ?")
		args = append(args, FormatTime(*filter.To))
	}
	if filter.State != nil {
		clauses = append(clauses, "state = ?")
		args = append(args, *filter.State)
	}
	if filter.Result != nil {
		clauses = append(clauses, "result = ?")
		args = append(args, *filter.Result)
	}

	query := "SELECT id FROM jobs"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_time"

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list jobs: %w", err)
	}

	var ids []uint32
	for rows.Next() {
		var id uint32
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("store: list jobs: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	jobs := make([]Job, 0, len(ids))
	for _, id := range ids {
		job, err := s.GetJob(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("store: list jobs: load %d: %w", id, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// MarkRunning transitions a job and its case 0 to Running, in one
// transaction.
func (s *Store) MarkRunning(ctx context.Context, id uint32) error {
	now := FormatTime(time.Now())

	return db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE jobs SET state = ?, result = ?, updated_time = ? WHERE id = ?`,
			StateRunning, ResultRunning, now, id)
		if err != nil {
			return fmt.Errorf("update job: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrNotFound
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE job_case SET result = ? WHERE job_id = ? AND case_index = 0`, ResultRunning, id)
		if err != nil {
			return fmt.Errorf("update case 0: %w", err)
		}
		return nil
	})
}

// ResetForRejudge resets a terminal job back to Queueing/Waiting with
// score 0, and every case row back to Waiting/0/0/"".
func (s *Store) ResetForRejudge(ctx context.Context, id uint32, totalCases int) error {
	now := FormatTime(time.Now())

	return db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE jobs SET state = ?, result = ?, score = 0, updated_time = ? WHERE id = ?`,
			StateQueueing, ResultWaiting, now, id)
		if err != nil {
			return fmt.Errorf("update job: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM job_case WHERE job_id = ?`, id); err != nil {
			return fmt.Errorf("delete cases: %w", err)
		}

		for i := range totalCases {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO job_case (job_id, case_index, result, time_us, memory_kb)
				VALUES (?, ?, ?, 0, 0)`, id, i, ResultWaiting); err != nil {
				return fmt.Errorf("insert case %d: %w", i, err)
			}
		}
		return nil
	})
}

// CancelJob marks a job Canceled/Skipped and every case Skipped.
func (s *Store) CancelJob(ctx context.Context, id uint32) error {
	now := FormatTime(time.Now())

	return db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE jobs SET state = ?, result = ?, updated_time = ? WHERE id = ?`,
			StateCanceled, ResultSkipped, now, id)
		if err != nil {
			return fmt.Errorf("update job: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrNotFound
		}

		_, err = tx.ExecContext(ctx, `UPDATE job_case SET result = ? WHERE job_id = ?`, ResultSkipped, id)
		if err != nil {
			return fmt.Errorf("update cases: %w", err)
		}
		return nil
	})
}

// SaveResult persists a worker's final judged record: it updates the job
// row and atomically replaces every case row.
func (s *Store) SaveResult(ctx context.Context, id uint32, job Job) error {
	now := FormatTime(time.Now())

	return db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE jobs SET state = ?, result = ?, score = ?, updated_time = ? WHERE id = ?`,
			job.State, job.Result, job.Score, now, id)
		if err != nil {
			return fmt.Errorf("update job: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM job_case WHERE job_id = ?`, id); err != nil {
			return fmt.Errorf("delete cases: %w", err)
		}

		for _, c := range job.Cases {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO job_case (job_id, case_index, result, time_us, memory_kb, info)
				VALUES (?, ?, ?, ?, ?, ?)`, id, c.ID, c.Result, c.Time, c.Memory, c.Info); err != nil {
				return fmt.Errorf("insert case %d: %w", c.ID, err)
			}
		}
		return nil
	})
}

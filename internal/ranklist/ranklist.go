// Package ranklist computes the global scoreboard: per user, per configured
// problem, a representative submission under a pluggable scoring rule,
// summed into a total and dense-ranked under a pluggable tie-breaker.
package ranklist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/judgehub/judgehub/internal/config"
	"github.com/judgehub/judgehub/internal/store"
)

// ScoringRule selects which of a user's submissions to a problem counts.
type ScoringRule string

const (
	ScoringLatest  ScoringRule = "latest"
	ScoringHighest ScoringRule = "highest"
)

// TieBreaker selects how users tied on total score are ordered.
type TieBreaker string

const (
	TieSubmissionTime  TieBreaker = "submission_time"
	TieSubmissionCount TieBreaker = "submission_count"
	TieUserID          TieBreaker = "user_id"
	TieUnset           TieBreaker = "unset"
)

var (
	ErrInvalidScoringRule = errors.New("ranklist: invalid scoring rule")
	ErrInvalidTieBreaker  = errors.New("ranklist: invalid tie breaker")
)

// ParseScoringRule validates s, defaulting an empty string to latest.
func ParseScoringRule(s string) (ScoringRule, error) {
	if s == "" {
		return ScoringLatest, nil
	}
	switch ScoringRule(s) {
	case ScoringLatest, ScoringHighest:
		return ScoringRule(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidScoringRule, s)
}

// ParseTieBreaker validates s, defaulting an empty string to unset.
func ParseTieBreaker(s string) (TieBreaker, error) {
	if s == "" {
		return TieUnset, nil
	}
	switch TieBreaker(s) {
	case TieSubmissionTime, TieSubmissionCount, TieUserID, TieUnset:
		return TieBreaker(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTieBreaker, s)
}

// Entry is one row of the computed scoreboard.
type Entry struct {
	User   store.User `json:"user"`
	Rank   uint32     `json:"rank"`
	Scores []float64  `json:"scores"`
}

// userAgg is a user's intermediate aggregate, before sorting and ranking.
type userAgg struct {
	user            store.User
	scores          []float64
	total           float64
	latestTime      *time.Time
	submissionCount int
}

// Compute builds the full scoreboard for every registered user against
// every configured problem, sorted and dense-ranked.
func Compute(ctx context.Context, st *store.Store, cfg *config.Config, rule ScoringRule, tie TieBreaker) ([]Entry, error) {
	users, err := st.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("ranklist: list users: %w", err)
	}

	problems := append([]config.Problem(nil), cfg.Problems...)
	sort.Slice(problems, func(i, j int) bool { return problems[i].ID < problems[j].ID })

	aggs := make([]*userAgg, 0, len(users))
	for _, u := range users {
		agg, err := aggregateUser(ctx, st, u, problems, rule)
		if err != nil {
			return nil, err
		}
		aggs = append(aggs, agg)
	}

	sort.SliceStable(aggs, func(i, j int) bool {
		return compareAgg(aggs[i], aggs[j], tie) < 0
	})

	entries := make([]Entry, len(aggs))
	for i, agg := range aggs {
		rank := uint32(i + 1)
		if i > 0 && compareAgg(aggs[i-1], agg, tie) == 0 {
			rank = entries[i-1].Rank
		}
		entries[i] = Entry{User: agg.user, Rank: rank, Scores: agg.scores}
	}
	return entries, nil
}

func aggregateUser(ctx context.Context, st *store.Store, u store.User, problems []config.Problem, rule ScoringRule) (*userAgg, error) {
	userID := u.ID
	allJobs, err := st.ListJobs(ctx, store.Filter{UserID: &userID})
	if err != nil {
		return nil, fmt.Errorf("ranklist: list jobs for user %d: %w", userID, err)
	}

	agg := &userAgg{user: u, scores: make([]float64, len(problems)), submissionCount: len(allJobs)}

	finishedByProblem := make(map[uint32][]store.Job)
	for _, j := range allJobs {
		if j.State == store.StateFinished {
			finishedByProblem[j.Submission.ProblemID] = append(finishedByProblem[j.Submission.ProblemID], j)
		}
	}

	for i, p := range problems {
		jobs := finishedByProblem[p.ID]
		if len(jobs) == 0 {
			continue
		}

		rep := representative(jobs, rule)
		agg.scores[i] = rep.Score
		agg.total += rep.Score

		if agg.latestTime == nil || rep.CreatedTime.After(*agg.latestTime) {
			t := rep.CreatedTime
			agg.latestTime = &t
		}
	}

	return agg, nil
}

// representative picks the job that counts toward a user's problem score
// under rule. jobs must be non-empty.
func representative(jobs []store.Job, rule ScoringRule) store.Job {
	best := jobs[0]
	for _, j := range jobs[1:] {
		switch rule {
		case ScoringHighest:
			if j.Score > best.Score || (j.Score == best.Score && j.CreatedTime.Before(best.CreatedTime)) {
				best = j
			}
		default: // ScoringLatest
			if j.CreatedTime.After(best.CreatedTime) {
				best = j
			}
		}
	}
	return best
}

// compareAgg returns <0 if a ranks before b, >0 if after, 0 if fully tied
// under the active tie-breaker.
func compareAgg(a, b *userAgg, tie TieBreaker) int {
	if a.total != b.total {
		if a.total > b.total {
			return -1
		}
		return 1
	}

	switch tie {
	case TieSubmissionTime:
		return compareScoringTime(a.latestTime, b.latestTime)
	case TieSubmissionCount:
		if a.submissionCount != b.submissionCount {
			if a.submissionCount < b.submissionCount {
				return -1
			}
			return 1
		}
	case TieUserID:
		if a.user.ID != b.user.ID {
			if a.user.ID < b.user.ID {
				return -1
			}
			return 1
		}
	}

	return 0
}

// compareScoringTime orders earlier times first; a nil time (no scoring
// submissions) ranks after any non-nil time.
func compareScoringTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Equal(*b):
		return 0
	case a.Before(*b):
		return -1
	default:
		return 1
	}
}

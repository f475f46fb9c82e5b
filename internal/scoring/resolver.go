package scoring

import (
	"sort"

	"github.com/google/uuid"
	"github.com/tomorunn/zisaku/internal/domain"
)

// attemptKey identifies one (user, problem) group in the ledger
type attemptKey struct {
	userID    uuid.UUID
	problemID uuid.UUID
}

// sortedLedger returns a copy of the given ledger rows in arrival order:
// submission time first, ledger sequence as the tie-break. Store ordering
// is never relied upon, so every derivation re-sorts its own copy.
func sortedLedger(subs []domain.Submission) []domain.Submission {
	sorted := make([]domain.Submission, len(subs))
	copy(sorted, subs)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].SubmittedAt.Equal(sorted[j].SubmittedAt) {
			return sorted[i].SubmittedAt.Before(sorted[j].SubmittedAt)
		}
		return sorted[i].Seq < sorted[j].Seq
	})
	return sorted
}

// displaces reports whether a challenger attempt replaces the current
// representative of its (user, problem) group:
//
//   - an accepted challenger always replaces a non-accepted current
//   - among non-accepted attempts, a strictly later one wins
//   - an accepted current is never replaced (acceptance is sticky, the
//     first accepted answer stays representative forever)
func displaces(current, challenger *domain.Submission) bool {
	if current.Verdict.IsAccepted() {
		return false
	}
	if challenger.Verdict.IsAccepted() {
		return true
	}
	return challenger.SubmittedAt.After(current.SubmittedAt)
}

// ResolveAttempts folds ledger rows into exactly one representative attempt
// per (user, problem) pair that has at least one row. The function is
// window-agnostic: callers filter the rows first, which is why both the
// attempts view (everything up to contest end) and the ranking calculator
// (ranking window only) can reuse it on different slices of the same ledger.
func ResolveAttempts(subs []domain.Submission) []domain.RepresentativeAttempt {
	sorted := sortedLedger(subs)

	reps := make(map[attemptKey]*domain.RepresentativeAttempt)
	order := make([]attemptKey, 0)
	for i := range sorted {
		sub := &sorted[i]
		key := attemptKey{userID: sub.UserID, problemID: sub.ProblemID}

		rep, seen := reps[key]
		if !seen {
			reps[key] = &domain.RepresentativeAttempt{Submission: *sub, Attempts: 1}
			order = append(order, key)
			continue
		}
		rep.Attempts++
		if displaces(&rep.Submission, sub) {
			rep.Submission = *sub
		}
	}

	result := make([]domain.RepresentativeAttempt, 0, len(order))
	for _, key := range order {
		result = append(result, *reps[key])
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Username != result[j].Username {
			return result[i].Username < result[j].Username
		}
		return result[i].ProblemLabel < result[j].ProblemLabel
	})
	return result
}

// SummarizeProblems reduces resolved attempts to per-problem counts of
// attempting and solving users. Every contest problem gets a row in display
// order, so problems nobody has touched still render with zero counts.
func SummarizeProblems(contest *domain.Contest, reps []domain.RepresentativeAttempt) []domain.ProblemStats {
	attempters := make(map[uuid.UUID]int)
	solvers := make(map[uuid.UUID]int)
	for i := range reps {
		attempters[reps[i].ProblemID]++
		if reps[i].Verdict.IsAccepted() {
			solvers[reps[i].ProblemID]++
		}
	}

	stats := make([]domain.ProblemStats, 0, len(contest.Problems))
	for _, problem := range contest.Problems {
		stats = append(stats, domain.ProblemStats{
			ProblemID:  problem.ID,
			Label:      problem.Label,
			Score:      problem.Score,
			Attempters: attempters[problem.ID],
			Solvers:    solvers[problem.ID],
		})
	}
	return stats
}

package scoring

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/tomorunn/zisaku/internal/domain"
)

// WrongAttemptPenalty is added to a user's adjusted time once per wrong
// answer that preceded the accept on a problem they eventually solved.
// Wrong answers on unsolved problems cost nothing.
const WrongAttemptPenalty = 300 * time.Second

// problemFold is the per-(user, problem) state maintained while walking
// that user's ledger rows in submission order. status only ever moves
// forward (none -> wrong -> accepted) and never regresses.
type problemFold struct {
	problemID         uuid.UUID
	label             string
	rep               *domain.Submission
	solved            bool
	acceptedAt        time.Time
	attempts          int
	wrongAttempts     int
	wrongBeforeAccept int
}

func (f *problemFold) apply(sub *domain.Submission) {
	f.attempts++
	if f.rep == nil || displaces(f.rep, sub) {
		row := *sub
		f.rep = &row
	}

	switch sub.Verdict {
	case domain.VerdictAccepted:
		if !f.solved {
			f.solved = true
			f.acceptedAt = sub.SubmittedAt
		}
	case domain.VerdictWrong:
		f.wrongAttempts++
		if !f.solved {
			f.wrongBeforeAccept++
		}
	case domain.VerdictUnjudged:
		// Kept for display only: no effect on score or penalty.
	}
}

// userFold accumulates one user's problem states in first-seen order
type userFold struct {
	userID   uuid.UUID
	username string
	problems map[uuid.UUID]*problemFold
}

// ComputeStandings derives the leaderboard from scratch: it filters the
// ledger to the ranking window (contest start through end, boundaries
// included), folds each user's rows in submission order, and totally
// orders the resulting entries. Nothing is cached between calls, so the
// result can never disagree with the ledger it was computed from.
//
// Ordering: total score descending, then penalty-adjusted time ascending,
// then username ascending. The adjusted time is the offset of the user's
// latest accept plus WrongAttemptPenalty per pre-accept wrong answer on
// solved problems.
func ComputeStandings(contest *domain.Contest, subs []domain.Submission) []domain.RankingEntry {
	scores := make(map[uuid.UUID]int, len(contest.Problems))
	orderIndex := make(map[uuid.UUID]int, len(contest.Problems))
	for _, p := range contest.Problems {
		scores[p.ID] = p.Score
		orderIndex[p.ID] = p.OrderIndex
	}

	folds := make(map[uuid.UUID]*userFold)
	userOrder := make([]uuid.UUID, 0)
	for _, sub := range sortedLedger(subs) {
		if !contest.InRankingWindow(sub.SubmittedAt) {
			continue
		}

		fold, seen := folds[sub.UserID]
		if !seen {
			fold = &userFold{
				userID:   sub.UserID,
				username: sub.Username,
				problems: make(map[uuid.UUID]*problemFold),
			}
			folds[sub.UserID] = fold
			userOrder = append(userOrder, sub.UserID)
		}

		state, ok := fold.problems[sub.ProblemID]
		if !ok {
			state = &problemFold{problemID: sub.ProblemID, label: sub.ProblemLabel}
			fold.problems[sub.ProblemID] = state
		}
		state.apply(&sub)
	}

	entries := make([]domain.RankingEntry, 0, len(userOrder))
	for _, userID := range userOrder {
		fold := folds[userID]

		summaries := make([]domain.ProblemSummary, 0, len(fold.problems))
		var totalScore int
		var maxAcceptedOffset time.Duration
		var wrongBeforeAccept int
		for _, state := range fold.problems {
			summary := domain.ProblemSummary{
				ProblemID:         state.problemID,
				Label:             state.label,
				Verdict:           state.rep.Verdict,
				Solved:            state.solved,
				Attempts:          state.attempts,
				WrongAttempts:     state.wrongAttempts,
				WrongBeforeAccept: state.wrongBeforeAccept,
			}
			if state.solved {
				summary.Score = scores[state.problemID]
				acceptedAt := state.acceptedAt
				summary.AcceptedAt = &acceptedAt

				totalScore += summary.Score
				wrongBeforeAccept += state.wrongBeforeAccept
				if offset := acceptedAt.Sub(contest.StartsAt); offset > maxAcceptedOffset {
					maxAcceptedOffset = offset
				}
			}
			summaries = append(summaries, summary)
		}
		sort.Slice(summaries, func(i, j int) bool {
			oi, oj := orderIndex[summaries[i].ProblemID], orderIndex[summaries[j].ProblemID]
			if oi != oj {
				return oi < oj
			}
			return summaries[i].Label < summaries[j].Label
		})

		entries = append(entries, domain.RankingEntry{
			UserID:       fold.userID,
			Username:     fold.username,
			TotalScore:   totalScore,
			AdjustedTime: maxAcceptedOffset + WrongAttemptPenalty*time.Duration(wrongBeforeAccept),
			Problems:     summaries,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		if entries[i].AdjustedTime != entries[j].AdjustedTime {
			return entries[i].AdjustedTime < entries[j].AdjustedTime
		}
		return entries[i].Username < entries[j].Username
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// FirstAcceptances finds, per problem, the earliest accepted submission
// inside the ranking window. Identical timestamps are broken by username
// so the outcome never depends on ledger insertion order. The result
// follows the contest's problem order and skips problems nobody solved.
func FirstAcceptances(contest *domain.Contest, subs []domain.Submission) []domain.FirstAcceptance {
	earliest := make(map[uuid.UUID]*domain.Submission)
	for _, sub := range sortedLedger(subs) {
		if !sub.Verdict.IsAccepted() || !contest.InRankingWindow(sub.SubmittedAt) {
			continue
		}
		best, ok := earliest[sub.ProblemID]
		if !ok || sub.SubmittedAt.Before(best.SubmittedAt) ||
			(sub.SubmittedAt.Equal(best.SubmittedAt) && sub.Username < best.Username) {
			row := sub
			earliest[sub.ProblemID] = &row
		}
	}

	result := make([]domain.FirstAcceptance, 0, len(earliest))
	for _, problem := range contest.Problems {
		sub, ok := earliest[problem.ID]
		if !ok {
			continue
		}
		result = append(result, domain.FirstAcceptance{
			ProblemID:     problem.ID,
			Label:         problem.Label,
			UserID:        sub.UserID,
			Username:      sub.Username,
			AcceptedAt:    sub.SubmittedAt,
			OffsetSeconds: int64(sub.SubmittedAt.Sub(contest.StartsAt) / time.Second),
		})
	}
	return result
}

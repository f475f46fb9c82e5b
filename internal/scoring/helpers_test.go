package scoring_test

import (
	"time"

	"github.com/google/uuid"
	"github.com/tomorunn/zisaku/internal/domain"
)

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// testContest builds a one-hour contest with problems A (100), B (200)
// and C (300) in display order.
func testContest() *domain.Contest {
	contest := &domain.Contest{
		ID:       uuid.New(),
		Title:    "Practice Round",
		StartsAt: testStart,
		EndsAt:   testStart.Add(time.Hour),
	}
	contest.Problems = []domain.Problem{
		{ID: uuid.New(), ContestID: contest.ID, Label: "A", Score: 100, OrderIndex: 0},
		{ID: uuid.New(), ContestID: contest.ID, Label: "B", Score: 200, OrderIndex: 1},
		{ID: uuid.New(), ContestID: contest.ID, Label: "C", Score: 300, OrderIndex: 2},
	}
	return contest
}

// ledger accumulates submission rows against a contest, assigning stable
// user ids per username and sequence numbers in insertion order.
type ledger struct {
	contest *domain.Contest
	users   map[string]uuid.UUID
	rows    []domain.Submission
}

func newLedger(contest *domain.Contest) *ledger {
	return &ledger{contest: contest, users: make(map[string]uuid.UUID)}
}

func (l *ledger) problem(label string) *domain.Problem {
	for i := range l.contest.Problems {
		if l.contest.Problems[i].Label == label {
			return &l.contest.Problems[i]
		}
	}
	panic("no such problem: " + label)
}

// add appends one row submitted at the given offset from contest start.
// Negative offsets land before the window, offsets past one hour after it.
func (l *ledger) add(username, label string, verdict domain.Verdict, offset time.Duration) {
	problem := l.problem(label)
	userID, ok := l.users[username]
	if !ok {
		userID = uuid.New()
		l.users[username] = userID
	}
	l.rows = append(l.rows, domain.Submission{
		ID:           uuid.New(),
		Seq:          int64(len(l.rows) + 1),
		ContestID:    l.contest.ID,
		ProblemID:    problem.ID,
		UserID:       userID,
		Username:     username,
		ProblemLabel: problem.Label,
		Answer:       "1",
		Verdict:      verdict,
		SubmittedAt:  l.contest.StartsAt.Add(offset),
	})
}

func entryFor(entries []domain.RankingEntry, username string) *domain.RankingEntry {
	for i := range entries {
		if entries[i].Username == username {
			return &entries[i]
		}
	}
	return nil
}

func summaryFor(entry *domain.RankingEntry, label string) *domain.ProblemSummary {
	for i := range entry.Problems {
		if entry.Problems[i].Label == label {
			return &entry.Problems[i]
		}
	}
	return nil
}

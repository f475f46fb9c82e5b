package service_test

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tomorunn/zisaku/internal/domain"
	"github.com/tomorunn/zisaku/internal/infrastructure"
)

var errLedgerDown = errors.New("ledger store unavailable")

// noopMetrics builds real instruments against the global (noop) meter so
// services can record without a telemetry backend.
func noopMetrics() *infrastructure.TelemetryMetrics {
	metrics, err := (&infrastructure.Telemetry{Meter: otel.Meter("test")}).CreateMetrics()
	if err != nil {
		panic(err)
	}
	return metrics
}

// testTracer returns a tracer off the global (noop) provider
func testTracer() trace.Tracer { return otel.Tracer("test") }

// fakeContestRepo serves contests from memory
type fakeContestRepo struct {
	mu       sync.Mutex
	contests map[uuid.UUID]*domain.Contest
}

func newFakeContestRepo() *fakeContestRepo {
	return &fakeContestRepo{contests: make(map[uuid.UUID]*domain.Contest)}
}

func (r *fakeContestRepo) Create(contest *domain.Contest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if contest.ID == uuid.Nil {
		contest.ID = uuid.New()
	}
	clone := *contest
	r.contests[contest.ID] = &clone
	return nil
}

func (r *fakeContestRepo) FindByID(id uuid.UUID) (*domain.Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	contest, ok := r.contests[id]
	if !ok {
		return nil, domain.ErrContestNotFound
	}
	clone := *contest
	clone.Problems = nil
	return &clone, nil
}

func (r *fakeContestRepo) FindByIDWithProblems(id uuid.UUID) (*domain.Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	contest, ok := r.contests[id]
	if !ok {
		return nil, domain.ErrContestNotFound
	}
	clone := *contest
	clone.Problems = append([]domain.Problem(nil), contest.Problems...)
	return &clone, nil
}

func (r *fakeContestRepo) Count() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.contests)), nil
}

// fakeProblemRepo serves problems from memory
type fakeProblemRepo struct {
	mu       sync.Mutex
	problems []domain.Problem
}

func (r *fakeProblemRepo) Create(problem *domain.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if problem.ID == uuid.Nil {
		problem.ID = uuid.New()
	}
	r.problems = append(r.problems, *problem)
	return nil
}

func (r *fakeProblemRepo) CreateBatch(problems []domain.Problem) error {
	for i := range problems {
		if err := r.Create(&problems[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeProblemRepo) FindByID(id uuid.UUID) (*domain.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.problems {
		if r.problems[i].ID == id {
			clone := r.problems[i]
			return &clone, nil
		}
	}
	return nil, domain.ErrProblemNotFound
}

func (r *fakeProblemRepo) FindByContestAndLabel(contestID uuid.UUID, label string) (*domain.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.problems {
		if r.problems[i].ContestID == contestID && r.problems[i].Label == label {
			clone := r.problems[i]
			return &clone, nil
		}
	}
	return nil, domain.ErrProblemNotFound
}

func (r *fakeProblemRepo) FindByContest(contestID uuid.UUID) ([]domain.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Problem
	for i := range r.problems {
		if r.problems[i].ContestID == contestID {
			result = append(result, r.problems[i])
		}
	}
	return result, nil
}

func (r *fakeProblemRepo) Count() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.problems)), nil
}

// fakeLedger is an in-memory append-only submission store. Setting
// failReads or failWrites simulates a storage outage.
type fakeLedger struct {
	mu         sync.Mutex
	rows       []domain.Submission
	nextSeq    int64
	failReads  bool
	failWrites bool
}

func (r *fakeLedger) Append(submission *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites {
		return errLedgerDown
	}
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	r.nextSeq++
	submission.Seq = r.nextSeq
	r.rows = append(r.rows, *submission)
	return nil
}

func (r *fakeLedger) FindByContest(contestID uuid.UUID) ([]domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReads {
		return nil, errLedgerDown
	}
	var result []domain.Submission
	for i := range r.rows {
		if r.rows[i].ContestID == contestID {
			result = append(result, r.rows[i])
		}
	}
	return result, nil
}

func (r *fakeLedger) CountForProblem(contestID, userID, problemID uuid.UUID, until time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReads {
		return 0, errLedgerDown
	}
	var count int64
	for i := range r.rows {
		row := &r.rows[i]
		if row.ContestID == contestID && row.UserID == userID &&
			row.ProblemID == problemID && !row.SubmittedAt.After(until) {
			count++
		}
	}
	return count, nil
}

// fakeUserRepo serves users from memory
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *fakeUserRepo) Create(user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return domain.ErrUserAlreadyExists
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) FindByID(id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) FindByUsername(username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) Count() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

// fixture wires one contest, its problems and a few users into fakes
// ready to back the services under test.
type fixture struct {
	contest   *domain.Contest
	contests  *fakeContestRepo
	problems  *fakeProblemRepo
	ledger    *fakeLedger
	users     *fakeUserRepo
	organizer *domain.User
	logger    *zap.Logger
}

var fixtureStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// newFixture builds a one-hour contest with problems A (100, answer 42),
// B (200, answer 7) and C (300, no answer yet).
func newFixture() *fixture {
	f := &fixture{
		contests: newFakeContestRepo(),
		problems: &fakeProblemRepo{},
		ledger:   &fakeLedger{},
		users:    newFakeUserRepo(),
		logger:   zap.NewNop(),
	}

	f.organizer = f.addUser("organizer")
	f.contest = &domain.Contest{
		ID:              uuid.New(),
		Title:           "Service Round",
		OrganizerID:     f.organizer.ID,
		StartsAt:        fixtureStart,
		EndsAt:          fixtureStart.Add(time.Hour),
		SubmissionLimit: 10,
	}

	answerA, answerB := "42", "7"
	problems := []domain.Problem{
		{ID: uuid.New(), ContestID: f.contest.ID, Label: "A", Title: "Problem A", Score: 100, CorrectAnswer: &answerA, Tags: pq.StringArray{"arithmetic"}, OrderIndex: 0},
		{ID: uuid.New(), ContestID: f.contest.ID, Label: "B", Title: "Problem B", Score: 200, CorrectAnswer: &answerB, OrderIndex: 1},
		{ID: uuid.New(), ContestID: f.contest.ID, Label: "C", Title: "Problem C", Score: 300, OrderIndex: 2},
	}
	for i := range problems {
		if err := f.problems.Create(&problems[i]); err != nil {
			panic(err)
		}
	}
	f.contest.Problems = problems
	if err := f.contests.Create(f.contest); err != nil {
		panic(err)
	}
	return f
}

// setWindow moves the contest window and stores the change, re-anchoring
// later appendRow offsets. Paths that judge against the wall clock need a
// window placed around time.Now.
func (f *fixture) setWindow(start, end time.Time) {
	f.contest.StartsAt = start
	f.contest.EndsAt = end
	if err := f.contests.Create(f.contest); err != nil {
		panic(err)
	}
}

func (f *fixture) addUser(username string) *domain.User {
	user := &domain.User{
		ID:           uuid.New(),
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "x",
	}
	if err := f.users.Create(user); err != nil {
		panic(err)
	}
	return user
}

func (f *fixture) problem(label string) *domain.Problem {
	problem, err := f.problems.FindByContestAndLabel(f.contest.ID, label)
	if err != nil {
		panic(err)
	}
	return problem
}

// appendRow writes a pre-judged ledger row directly, bypassing the judge,
// for tests that exercise the read side.
func (f *fixture) appendRow(user *domain.User, label string, verdict domain.Verdict, offset time.Duration) {
	problem := f.problem(label)
	err := f.ledger.Append(&domain.Submission{
		ContestID:    f.contest.ID,
		ProblemID:    problem.ID,
		UserID:       user.ID,
		Username:     user.Username,
		ProblemLabel: problem.Label,
		Answer:       "1",
		Verdict:      verdict,
		SubmittedAt:  f.contest.StartsAt.Add(offset),
	})
	if err != nil {
		panic(err)
	}
}

package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/tomorunn/zisaku/internal/domain"
	"github.com/tomorunn/zisaku/internal/handler"
	"github.com/tomorunn/zisaku/internal/infrastructure"
	"github.com/tomorunn/zisaku/internal/middleware"
	"github.com/tomorunn/zisaku/internal/service"
)

var errStoreDown = errors.New("store unavailable")

// The fakes below back real services behind a real router, so these tests
// exercise routing, auth and error mapping end to end without a database.

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

type fakeProblemRepo struct {
	mu       sync.Mutex
	problems []domain.Problem
}

func (r *fakeProblemRepo) Create(problem *domain.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
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

type fakeLedger struct {
	mu        sync.Mutex
	rows      []domain.Submission
	nextSeq   int64
	failReads bool
}

func (r *fakeLedger) Append(submission *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
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
		return nil, errStoreDown
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
		return 0, errStoreDown
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

// env is one API instance under test: real handlers, services and
// middleware over in-memory stores, mounted on the same routes main uses.
type env struct {
	router   *gin.Engine
	contests *fakeContestRepo
	problems *fakeProblemRepo
	ledger   *fakeLedger

	contest        *domain.Contest
	organizerID    uuid.UUID
	organizerToken string
}

var envStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	e := &env{
		contests: newFakeContestRepo(),
		problems: &fakeProblemRepo{},
		ledger:   &fakeLedger{},
	}

	logger := zap.NewNop()
	tracer := otel.Tracer("test")
	metrics, err := (&infrastructure.Telemetry{Meter: otel.Meter("test")}).CreateMetrics()
	if err != nil {
		t.Fatalf("create metrics: %v", err)
	}
	jwtConfig := &infrastructure.JWTConfig{
		SecretKey:          "handler-test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "zisaku-test",
	}

	users := newFakeUserRepo()
	userService := service.NewUserService(users, jwtConfig, tracer, logger)
	contestService := service.NewContestService(e.contests, e.problems, tracer, logger)
	submissionService := service.NewSubmissionService(e.contests, e.problems, e.ledger, users, tracer, metrics, logger)
	standingsService := service.NewStandingsService(e.contests, e.ledger, tracer, metrics, logger)

	authHandler := handler.NewAuthHandler(userService)
	userHandler := handler.NewUserHandler(userService)
	contestHandler := handler.NewContestHandler(contestService)
	problemHandler := handler.NewProblemHandler(contestService)
	submissionHandler := handler.NewSubmissionHandler(submissionService)
	standingsHandler := handler.NewStandingsHandler(standingsService)

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(logger))

	api := router.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	contests := api.Group("/contests")
	contests.GET("/:id", contestHandler.GetContest)
	contests.GET("/:id/problems", problemHandler.GetContestProblems)
	contests.GET("/:id/problems/:label", problemHandler.GetProblem)
	contests.GET("/:id/standings", standingsHandler.GetStandings)
	contests.GET("/:id/first-acceptances", standingsHandler.GetFirstAcceptances)
	contests.GET("/:id/problem-stats", standingsHandler.GetProblemStats)
	contests.GET("/:id/submissions",
		middleware.OptionalAuthMiddleware(userService),
		submissionHandler.GetContestSubmissions)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(userService))
	protected.GET("/users/me", userHandler.GetCurrentUser)
	protected.GET("/contests/:id/attempts", standingsHandler.GetMyAttempts)
	// A nil Redis client leaves the rate limiter failing open, as in a
	// deployment without Redis.
	protected.POST("/contests/:id/problems/:label/submissions",
		middleware.RateLimitMiddleware(nil, 1000, time.Minute, logger),
		submissionHandler.Submit)

	e.router = router

	e.organizerID, e.organizerToken = e.signup(t, "organizer")
	answerA, answerB := "42", "7"
	e.contest = &domain.Contest{
		ID:              uuid.New(),
		Title:           "Handler Round",
		OrganizerID:     e.organizerID,
		StartsAt:        envStart,
		EndsAt:          envStart.Add(time.Hour),
		SubmissionLimit: 10,
	}
	problems := []domain.Problem{
		{ID: uuid.New(), ContestID: e.contest.ID, Label: "A", Title: "Problem A", Score: 100, CorrectAnswer: &answerA, OrderIndex: 0},
		{ID: uuid.New(), ContestID: e.contest.ID, Label: "B", Title: "Problem B", Score: 200, CorrectAnswer: &answerB, OrderIndex: 1},
		{ID: uuid.New(), ContestID: e.contest.ID, Label: "C", Title: "Problem C", Score: 300, OrderIndex: 2},
	}
	for i := range problems {
		if err := e.problems.Create(&problems[i]); err != nil {
			t.Fatalf("seed problem: %v", err)
		}
	}
	e.contest.Problems = problems
	if err := e.contests.Create(e.contest); err != nil {
		t.Fatalf("seed contest: %v", err)
	}
	return e
}

// do performs one request against the router. A non-empty token goes into
// the Authorization header; a non-nil body is sent as JSON.
func (e *env) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// signup registers a user through the API and returns their id and a live
// access token.
func (e *env) signup(t *testing.T, username string) (uuid.UUID, string) {
	t.Helper()
	w := e.do(http.MethodPost, "/api/auth/signup", "", gin.H{
		"email":    username + "@example.com",
		"username": username,
		"password": "correct horse battery",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup %s: status %d, body %s", username, w.Code, w.Body.String())
	}

	var resp struct {
		User struct {
			ID uuid.UUID `json:"id"`
		} `json:"user"`
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	decodeBody(t, w, &resp)
	return resp.User.ID, resp.Tokens.AccessToken
}

// setWindow moves the contest window and stores the change
func (e *env) setWindow(start, end time.Time) {
	e.contest.StartsAt = start
	e.contest.EndsAt = end
	if err := e.contests.Create(e.contest); err != nil {
		panic(err)
	}
}

// openWindow puts the contest window around time.Now so submissions judge
// against an active contest
func (e *env) openWindow() {
	e.setWindow(time.Now().Add(-30*time.Minute), time.Now().Add(30*time.Minute))
}

// appendRow writes a pre-judged ledger row directly, for read-path tests
func (e *env) appendRow(userID uuid.UUID, username, label string, verdict domain.Verdict, offset time.Duration) {
	problem, err := e.problems.FindByContestAndLabel(e.contest.ID, label)
	if err != nil {
		panic(err)
	}
	err = e.ledger.Append(&domain.Submission{
		ContestID:    e.contest.ID,
		ProblemID:    problem.ID,
		UserID:       userID,
		Username:     username,
		ProblemLabel: problem.Label,
		Answer:       "1",
		Verdict:      verdict,
		SubmittedAt:  e.contest.StartsAt.Add(offset),
	})
	if err != nil {
		panic(err)
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func (e *env) contestPath(suffix string) string {
	return "/api/contests/" + e.contest.ID.String() + suffix
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tomorunn/zisaku/internal/domain"
	"github.com/tomorunn/zisaku/internal/infrastructure"
	"github.com/tomorunn/zisaku/internal/scoring"
)

// SubmissionService takes raw answers through the judge and into the
// ledger. This is the only code path that writes submissions; everything
// downstream of it is a pure read.
type SubmissionService struct {
	contestRepo domain.ContestRepository
	problemRepo domain.ProblemRepository
	ledger      domain.SubmissionRepository
	userRepo    domain.UserRepository
	tracer      trace.Tracer
	metrics     *infrastructure.TelemetryMetrics
	logger      *zap.Logger
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(
	contestRepo domain.ContestRepository,
	problemRepo domain.ProblemRepository,
	ledger domain.SubmissionRepository,
	userRepo domain.UserRepository,
	tracer trace.Tracer,
	metrics *infrastructure.TelemetryMetrics,
	logger *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		contestRepo: contestRepo,
		problemRepo: problemRepo,
		ledger:      ledger,
		userRepo:    userRepo,
		tracer:      tracer,
		metrics:     metrics,
		logger:      logger,
	}
}

// Submit judges one answer and appends the resulting row to the ledger.
// Judge rejections (organizer lockout, attempt limit, bad format) are
// terminal for this attempt: nothing is written and the error is returned
// as-is for the handler to surface.
func (s *SubmissionService) Submit(ctx context.Context, contestID uuid.UUID, label string, userID uuid.UUID, rawAnswer string) (*domain.Submission, error) {
	ctx, span := s.tracer.Start(ctx, "SubmissionService.Submit")
	defer span.End()

	span.SetAttributes(
		attribute.String("contest.id", contestID.String()),
		attribute.String("problem.label", label),
		attribute.String("user.id", userID.String()),
	)

	contest, err := s.contestRepo.FindByID(contestID)
	if err != nil {
		return nil, err
	}
	problem, err := s.problemRepo.FindByContestAndLabel(contestID, label)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	state := contest.StateAt(now)

	// The attempt count is only consulted while the contest is active;
	// outside the window attempts are unlimited.
	var prior int64
	if state == domain.ContestActive {
		prior, err = s.ledger.CountForProblem(contestID, userID, problem.ID, contest.EndsAt)
		if err != nil {
			s.logger.Error("Failed to count prior attempts", zap.Error(err))
			return nil, domain.WrapError(err, "count prior attempts")
		}
	}

	answer, verdict, err := scoring.Judge(scoring.JudgeInput{
		State:            state,
		SubmitterManages: contest.IsOrganizer(userID),
		PriorAttempts:    prior,
		AttemptLimit:     contest.EffectiveSubmissionLimit(),
		Answer:           rawAnswer,
		CorrectAnswer:    problem.CorrectAnswer,
	})
	if err != nil {
		return nil, err
	}

	submission := &domain.Submission{
		ContestID:    contestID,
		ProblemID:    problem.ID,
		UserID:       userID,
		Username:     user.Username,
		ProblemLabel: problem.Label,
		Answer:       answer,
		Verdict:      verdict,
		SubmittedAt:  now,
	}
	appendStart := time.Now()
	if err := s.ledger.Append(submission); err != nil {
		s.logger.Error("Failed to append submission", zap.Error(err))
		return nil, domain.WrapError(err, "append submission")
	}
	s.metrics.DBQueryDuration.Record(ctx, time.Since(appendStart).Seconds(),
		metric.WithAttributes(attribute.String("db.operation", "ledger.append")))
	s.metrics.SubmissionsJudged.Add(ctx, 1,
		metric.WithAttributes(attribute.String("submission.verdict", string(verdict))))

	s.logger.Info("Submission judged",
		zap.String("contest_id", contestID.String()),
		zap.String("problem_label", problem.Label),
		zap.String("username", user.Username),
		zap.String("verdict", string(verdict)),
		zap.String("contest_state", string(state)),
	)

	span.SetAttributes(attribute.String("submission.verdict", string(verdict)))
	return submission, nil
}

// ListContestSubmissions returns the contest's shared feed: every ledger
// row submitted up to and including the contest end, in arrival order.
// Rows made after the end exist in the ledger but stay off the feed.
func (s *SubmissionService) ListContestSubmissions(ctx context.Context, contestID uuid.UUID) (*domain.Contest, []domain.Submission, error) {
	ctx, span := s.tracer.Start(ctx, "SubmissionService.ListContestSubmissions")
	defer span.End()

	span.SetAttributes(attribute.String("contest.id", contestID.String()))

	contest, err := s.contestRepo.FindByID(contestID)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.ledger.FindByContest(contestID)
	if err != nil {
		return nil, nil, domain.WrapError(err, "read ledger")
	}

	visible := make([]domain.Submission, 0, len(rows))
	for _, row := range rows {
		if contest.WithinWindow(row.SubmittedAt) {
			visible = append(visible, row)
		}
	}

	span.SetAttributes(attribute.Int("submission.count", len(visible)))
	return contest, visible, nil
}

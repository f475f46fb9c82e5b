package service

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tomorunn/zisaku/internal/domain"
)

// ContestService exposes read-only contest metadata. Contests are written
// by the seeder and (eventually) an organizer surface; the evaluation and
// ranking paths only ever read them, so there is no mutation here.
type ContestService struct {
	contestRepo domain.ContestRepository
	problemRepo domain.ProblemRepository
	tracer      trace.Tracer
	logger      *zap.Logger
}

// NewContestService creates a new contest service
func NewContestService(
	contestRepo domain.ContestRepository,
	problemRepo domain.ProblemRepository,
	tracer trace.Tracer,
	logger *zap.Logger,
) *ContestService {
	return &ContestService{
		contestRepo: contestRepo,
		problemRepo: problemRepo,
		tracer:      tracer,
		logger:      logger,
	}
}

// GetContest retrieves a contest with its problems in display order
func (s *ContestService) GetContest(ctx context.Context, contestID uuid.UUID) (*domain.Contest, error) {
	ctx, span := s.tracer.Start(ctx, "ContestService.GetContest")
	defer span.End()

	span.SetAttributes(attribute.String("contest.id", contestID.String()))
	return s.contestRepo.FindByIDWithProblems(contestID)
}

// GetProblem retrieves one problem of a contest by its display label
func (s *ContestService) GetProblem(ctx context.Context, contestID uuid.UUID, label string) (*domain.Problem, error) {
	ctx, span := s.tracer.Start(ctx, "ContestService.GetProblem")
	defer span.End()

	span.SetAttributes(
		attribute.String("contest.id", contestID.String()),
		attribute.String("problem.label", label),
	)
	return s.problemRepo.FindByContestAndLabel(contestID, label)
}

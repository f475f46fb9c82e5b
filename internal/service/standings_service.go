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

// StandingsService derives leaderboards, first acceptances and resolved
// attempts from the ledger. Every call reads a fresh snapshot and
// recomputes from scratch; if the ledger read fails the request fails,
// there is no cached or partial result to fall back on.
type StandingsService struct {
	contestRepo domain.ContestRepository
	ledger      domain.SubmissionRepository
	tracer      trace.Tracer
	metrics     *infrastructure.TelemetryMetrics
	logger      *zap.Logger
}

// NewStandingsService creates a new standings service
func NewStandingsService(
	contestRepo domain.ContestRepository,
	ledger domain.SubmissionRepository,
	tracer trace.Tracer,
	metrics *infrastructure.TelemetryMetrics,
	logger *zap.Logger,
) *StandingsService {
	return &StandingsService{
		contestRepo: contestRepo,
		ledger:      ledger,
		tracer:      tracer,
		metrics:     metrics,
		logger:      logger,
	}
}

// GetStandings recomputes the contest leaderboard from the full ledger
func (s *StandingsService) GetStandings(ctx context.Context, contestID uuid.UUID) (*domain.Contest, []domain.RankingEntry, error) {
	ctx, span := s.tracer.Start(ctx, "StandingsService.GetStandings")
	defer span.End()

	span.SetAttributes(attribute.String("contest.id", contestID.String()))

	contest, rows, err := s.snapshot(ctx, contestID)
	if err != nil {
		return nil, nil, err
	}

	computeStart := time.Now()
	entries := scoring.ComputeStandings(contest, rows)
	s.metrics.StandingsComputeDuration.Record(ctx, time.Since(computeStart).Seconds())

	span.SetAttributes(
		attribute.Int("ledger.rows", len(rows)),
		attribute.Int("standings.entries", len(entries)),
	)
	return contest, entries, nil
}

// GetFirstAcceptances recomputes the per-problem first-acceptor board
func (s *StandingsService) GetFirstAcceptances(ctx context.Context, contestID uuid.UUID) (*domain.Contest, []domain.FirstAcceptance, error) {
	ctx, span := s.tracer.Start(ctx, "StandingsService.GetFirstAcceptances")
	defer span.End()

	span.SetAttributes(attribute.String("contest.id", contestID.String()))

	contest, rows, err := s.snapshot(ctx, contestID)
	if err != nil {
		return nil, nil, err
	}
	return contest, scoring.FirstAcceptances(contest, rows), nil
}

// GetUserAttempts resolves one user's ledger rows to a representative
// attempt per problem. Unlike the standings this view keeps pre-start
// submissions: it shows everything the user submitted up to the contest
// end, which is what a contestant's own problem list renders from.
func (s *StandingsService) GetUserAttempts(ctx context.Context, contestID, userID uuid.UUID) (*domain.Contest, []domain.RepresentativeAttempt, error) {
	ctx, span := s.tracer.Start(ctx, "StandingsService.GetUserAttempts")
	defer span.End()

	span.SetAttributes(
		attribute.String("contest.id", contestID.String()),
		attribute.String("user.id", userID.String()),
	)

	contest, rows, err := s.snapshot(ctx, contestID)
	if err != nil {
		return nil, nil, err
	}

	visible := make([]domain.Submission, 0, len(rows))
	for _, row := range rows {
		if row.UserID == userID && contest.WithinWindow(row.SubmittedAt) {
			visible = append(visible, row)
		}
	}
	return contest, scoring.ResolveAttempts(visible), nil
}

// GetProblemStats reports, per problem, how many users attempted it and how
// many solved it, derived from representative attempts over the display
// window. Used next to the standings to show which problems cracked first.
func (s *StandingsService) GetProblemStats(ctx context.Context, contestID uuid.UUID) (*domain.Contest, []domain.ProblemStats, error) {
	ctx, span := s.tracer.Start(ctx, "StandingsService.GetProblemStats")
	defer span.End()

	span.SetAttributes(attribute.String("contest.id", contestID.String()))

	contest, rows, err := s.snapshot(ctx, contestID)
	if err != nil {
		return nil, nil, err
	}

	visible := make([]domain.Submission, 0, len(rows))
	for _, row := range rows {
		if contest.WithinWindow(row.SubmittedAt) {
			visible = append(visible, row)
		}
	}
	reps := scoring.ResolveAttempts(visible)
	return contest, scoring.SummarizeProblems(contest, reps), nil
}

// snapshot loads the contest metadata and the full ledger it is judged by
func (s *StandingsService) snapshot(ctx context.Context, contestID uuid.UUID) (*domain.Contest, []domain.Submission, error) {
	contest, err := s.contestRepo.FindByIDWithProblems(contestID)
	if err != nil {
		return nil, nil, err
	}

	readStart := time.Now()
	rows, err := s.ledger.FindByContest(contestID)
	if err != nil {
		s.logger.Error("Failed to read ledger", zap.Error(err),
			zap.String("contest_id", contestID.String()))
		return nil, nil, domain.WrapError(err, "read ledger")
	}
	s.metrics.DBQueryDuration.Record(ctx, time.Since(readStart).Seconds(),
		metric.WithAttributes(attribute.String("db.operation", "ledger.list")))
	return contest, rows, nil
}

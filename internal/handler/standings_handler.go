package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tomorunn/zisaku/internal/domain"
	"github.com/tomorunn/zisaku/internal/middleware"
	"github.com/tomorunn/zisaku/internal/service"
)

// StandingsHandler exposes the derived views over the contest ledger:
// the leaderboard, the first-acceptance board and per-user resolved
// attempts. All of them are recomputed from the ledger on every request.
type StandingsHandler struct {
	standingsService *service.StandingsService
}

// NewStandingsHandler creates a new standings handler
func NewStandingsHandler(standingsService *service.StandingsService) *StandingsHandler {
	return &StandingsHandler{
		standingsService: standingsService,
	}
}

// GetStandings returns the contest leaderboard
// GET /api/contests/:id/standings
func (h *StandingsHandler) GetStandings(c *gin.Context) {
	contestID, ok := parseContestID(c)
	if !ok {
		return
	}

	contest, entries, err := h.standingsService.GetStandings(c.Request.Context(), contestID)
	if err != nil {
		switch err {
		case domain.ErrContestNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Contest not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to compute standings",
			})
		}
		return
	}

	responses := make([]domain.RankingEntryResponse, len(entries))
	for i := range entries {
		responses[i] = entries[i].ToResponse()
	}

	c.JSON(http.StatusOK, gin.H{
		"contest":   contest.ToResponse(time.Now()),
		"standings": responses,
	})
}

// GetFirstAcceptances returns which user first solved each problem
// GET /api/contests/:id/first-acceptances
func (h *StandingsHandler) GetFirstAcceptances(c *gin.Context) {
	contestID, ok := parseContestID(c)
	if !ok {
		return
	}

	_, acceptances, err := h.standingsService.GetFirstAcceptances(c.Request.Context(), contestID)
	if err != nil {
		switch err {
		case domain.ErrContestNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Contest not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to compute first acceptances",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"first_acceptances": acceptances,
		"count":             len(acceptances),
	})
}

// GetProblemStats returns per-problem attempter and solver counts
// GET /api/contests/:id/problem-stats
func (h *StandingsHandler) GetProblemStats(c *gin.Context) {
	contestID, ok := parseContestID(c)
	if !ok {
		return
	}

	_, stats, err := h.standingsService.GetProblemStats(c.Request.Context(), contestID)
	if err != nil {
		switch err {
		case domain.ErrContestNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Contest not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to compute problem stats",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"problems": stats,
	})
}

// GetMyAttempts returns the caller's representative attempt per problem,
// resolved from everything they submitted up to the contest end.
// GET /api/contests/:id/attempts
func (h *StandingsHandler) GetMyAttempts(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}

	contestID, ok := parseContestID(c)
	if !ok {
		return
	}

	_, attempts, err := h.standingsService.GetUserAttempts(c.Request.Context(), contestID, userID)
	if err != nil {
		switch err {
		case domain.ErrContestNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Contest not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to resolve attempts",
			})
		}
		return
	}

	responses := make([]domain.RepresentativeAttemptResponse, 0, len(attempts))
	for i := range attempts {
		// Callers always see their own submitted answers.
		responses = append(responses, attempts[i].ToResponse(true))
	}

	c.JSON(http.StatusOK, gin.H{
		"attempts": responses,
		"count":    len(responses),
	})
}

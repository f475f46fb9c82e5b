package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tomorunn/zisaku/internal/domain"
	"github.com/tomorunn/zisaku/internal/service"
)

// ProblemHandler handles problem-related HTTP requests. Problems belong
// to a contest and are addressed by their display label within it.
type ProblemHandler struct {
	contestService *service.ContestService
}

// NewProblemHandler creates a new problem handler
func NewProblemHandler(contestService *service.ContestService) *ProblemHandler {
	return &ProblemHandler{
		contestService: contestService,
	}
}

// GetContestProblems returns a contest's problems in display order.
// Correct answers stay hidden until the contest has ended.
// GET /api/contests/:id/problems
func (h *ProblemHandler) GetContestProblems(c *gin.Context) {
	contestID, ok := parseContestID(c)
	if !ok {
		return
	}

	contest, err := h.contestService.GetContest(c.Request.Context(), contestID)
	if err != nil {
		switch err {
		case domain.ErrContestNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Contest not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve problems",
			})
		}
		return
	}

	revealAnswers := contest.StateAt(time.Now()) == domain.ContestEnded
	responses := make([]domain.ProblemResponse, len(contest.Problems))
	for i := range contest.Problems {
		responses[i] = contest.Problems[i].ToResponse(revealAnswers)
	}

	c.JSON(http.StatusOK, gin.H{
		"problems": responses,
		"count":    len(responses),
	})
}

// GetProblem returns one problem of a contest by its display label
// GET /api/contests/:id/problems/:label
func (h *ProblemHandler) GetProblem(c *gin.Context) {
	contestID, ok := parseContestID(c)
	if !ok {
		return
	}
	label := c.Param("label")

	contest, err := h.contestService.GetContest(c.Request.Context(), contestID)
	if err != nil {
		switch err {
		case domain.ErrContestNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Contest not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve problem",
			})
		}
		return
	}

	problem, err := h.contestService.GetProblem(c.Request.Context(), contestID, label)
	if err != nil {
		switch err {
		case domain.ErrProblemNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Problem not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve problem",
			})
		}
		return
	}

	revealAnswer := contest.StateAt(time.Now()) == domain.ContestEnded
	c.JSON(http.StatusOK, problem.ToResponse(revealAnswer))
}

package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tomorunn/zisaku/internal/domain"
	"github.com/tomorunn/zisaku/internal/middleware"
	"github.com/tomorunn/zisaku/internal/service"
)

// SubmissionHandler handles answer submission and the shared ledger feed
type SubmissionHandler struct {
	submissionService *service.SubmissionService
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(submissionService *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
	}
}

// SubmitRequest represents the submit request body
type SubmitRequest struct {
	Answer string `json:"answer" binding:"required"`
}

// Submit judges one answer and appends it to the contest ledger.
// Judge rejections map one-to-one onto HTTP statuses; nothing is stored
// for a rejected attempt.
// POST /api/contests/:id/problems/:label/submissions
func (h *SubmissionHandler) Submit(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}

	contestID, ok := parseContestID(c)
	if !ok {
		return
	}
	label := c.Param("label")

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	submission, err := h.submissionService.Submit(c.Request.Context(), contestID, label, userID, req.Answer)
	if err != nil {
		switch err {
		case domain.ErrContestNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Contest not found",
			})
		case domain.ErrProblemNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Problem not found",
			})
		case domain.ErrOrganizerSubmission:
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Organizers cannot submit to their own active contest",
			})
		case domain.ErrSubmissionLimitReached:
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Submission limit for this problem reached",
			})
		case domain.ErrInvalidAnswerFormat:
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Answer must be a non-negative integer",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to submit answer",
			})
		}
		return
	}

	// Submitters always see their own answer and verdict immediately.
	c.JSON(http.StatusCreated, submission.ToResponse(true))
}

// GetContestSubmissions returns the contest's shared submission feed in
// arrival order, optionally filtered to one username. Answers other than
// the caller's own stay hidden until the contest has ended.
// GET /api/contests/:id/submissions?user=alice
func (h *SubmissionHandler) GetContestSubmissions(c *gin.Context) {
	contestID, ok := parseContestID(c)
	if !ok {
		return
	}

	contest, rows, err := h.submissionService.ListContestSubmissions(c.Request.Context(), contestID)
	if err != nil {
		switch err {
		case domain.ErrContestNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Contest not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve submissions",
			})
		}
		return
	}

	usernameFilter := c.Query("user")
	contestEnded := contest.StateAt(time.Now()) == domain.ContestEnded
	callerID, authenticated := middleware.GetUserID(c)

	responses := make([]domain.SubmissionResponse, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		if usernameFilter != "" && row.Username != usernameFilter {
			continue
		}
		revealAnswer := contestEnded || (authenticated && row.UserID == callerID)
		responses = append(responses, row.ToResponse(revealAnswer))
	}

	c.JSON(http.StatusOK, gin.H{
		"submissions": responses,
		"count":       len(responses),
	})
}

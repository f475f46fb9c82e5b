package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tomorunn/zisaku/internal/domain"
	"github.com/tomorunn/zisaku/internal/service"
)

// ContestHandler handles contest metadata HTTP requests. Contests are
// read-only over HTTP; they are created by the seeder.
type ContestHandler struct {
	contestService *service.ContestService
}

// NewContestHandler creates a new contest handler
func NewContestHandler(contestService *service.ContestService) *ContestHandler {
	return &ContestHandler{
		contestService: contestService,
	}
}

// parseContestID reads the :id route parameter, replying 400 on garbage
func parseContestID(c *gin.Context) (uuid.UUID, bool) {
	contestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid contest ID",
		})
		return uuid.Nil, false
	}
	return contestID, true
}

// GetContest returns a contest with its derived state
// GET /api/contests/:id
func (h *ContestHandler) GetContest(c *gin.Context) {
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
				"error": "Failed to retrieve contest",
			})
		}
		return
	}

	c.JSON(http.StatusOK, contest.ToResponse(time.Now()))
}

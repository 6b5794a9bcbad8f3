package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type assignNextRequest struct {
	DepartmentID *int64 `json:"department_id"`
}

// AssignNext handles POST /api/beds/{bed_id}/assignments: match the bed to
// the best waiting patient and commit the assignment.
func (h *Handler) AssignNext(c *gin.Context) {
	bedID, err := strconv.ParseInt(c.Param("bed_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid bed ID"})
		return
	}

	var req assignNextRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	summary, err := h.coordinator.AssignNext(c.Request.Context(), bedID, req.DepartmentID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

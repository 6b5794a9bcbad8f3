package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bedflow-backend/internal/model"
	"bedflow-backend/internal/queue"
)

type enqueueRequest struct {
	PatientID        int64  `json:"patient_id" binding:"required"`
	DepartmentID     int64  `json:"department_id" binding:"required"`
	BedTypeRequired  string `json:"bed_type_required"`
	Priority         string `json:"priority"`
	MedicalCondition string `json:"medical_condition"`
}

type enqueueResponse struct {
	Entry                *model.PatientQueueEntry `json:"entry"`
	EstimatedWaitMinutes float64                  `json:"estimatedWaitMinutes"`
}

// Enqueue handles POST /api/queue: an admission request joining the queue.
func (h *Handler) Enqueue(c *gin.Context) {
	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.queue.Enqueue(c.Request.Context(), queue.EnqueueParams{
		PatientID:        req.PatientID,
		DepartmentID:     req.DepartmentID,
		BedTypeRequired:  req.BedTypeRequired,
		Priority:         req.Priority,
		MedicalCondition: req.MedicalCondition,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, enqueueResponse{
		Entry:                entry,
		EstimatedWaitMinutes: h.estimator.Estimate(entry.QueuePosition),
	})
}

// ListQueue handles GET /api/queue?department_id=&status=.
func (h *Handler) ListQueue(c *gin.Context) {
	var departmentID *int64
	if raw := c.Query("department_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid department ID"})
			return
		}
		departmentID = &id
	}

	entries, err := h.queue.List(c.Request.Context(), departmentID, c.Query("status"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// CancelQueueEntry handles POST /api/queue/{entry_id}/cancel.
func (h *Handler) CancelQueueEntry(c *gin.Context) {
	entry, err := h.queue.Cancel(c.Request.Context(), c.Param("entry_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bedflow-backend/internal/turnover"
)

type startTurnoverRequest struct {
	PreviousPatientID *int64  `json:"previous_patient_id"`
	TurnoverType      string  `json:"turnover_type"`
	Priority          string  `json:"priority"`
	EquipmentIDs      []int64 `json:"equipment_ids"`
}

// StartTurnover handles POST /api/beds/{bed_id}/turnovers: the discharge
// event that begins a bed's turnover cycle.
func (h *Handler) StartTurnover(c *gin.Context) {
	bedID, err := strconv.ParseInt(c.Param("bed_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid bed ID"})
		return
	}

	var req startTurnoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.turnovers.Start(c.Request.Context(), turnover.StartParams{
		BedID:             bedID,
		PreviousPatientID: req.PreviousPatientID,
		TurnoverType:      req.TurnoverType,
		Priority:          req.Priority,
		EquipmentIDs:      req.EquipmentIDs,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

type beginCleaningRequest struct {
	CleanerID int64 `json:"cleaner_id" binding:"required"`
}

// BeginCleaning handles POST /api/turnovers/{turnover_id}/begin.
func (h *Handler) BeginCleaning(c *gin.Context) {
	var req beginCleaningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.turnovers.BeginCleaning(c.Request.Context(), c.Param("turnover_id"), req.CleanerID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type completeCleaningRequest struct {
	InspectorID      int64  `json:"inspector_id" binding:"required"`
	InspectionPassed *bool  `json:"inspection_passed" binding:"required"`
	Notes            string `json:"notes"`
}

// CompleteCleaning handles POST /api/turnovers/{turnover_id}/complete.
func (h *Handler) CompleteCleaning(c *gin.Context) {
	var req completeCleaningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.turnovers.CompleteCleaning(c.Request.Context(), c.Param("turnover_id"), req.InspectorID, *req.InspectionPassed, req.Notes)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type actorRequest struct {
	ActorID *int64 `json:"actor_id"`
	Note    string `json:"note"`
}

// ReopenTurnover handles POST /api/turnovers/{turnover_id}/reopen: sends a
// turnover that failed inspection back into cleaning.
func (h *Handler) ReopenTurnover(c *gin.Context) {
	var req actorRequest
	_ = c.ShouldBindJSON(&req)

	t, err := h.turnovers.ReopenForCleaning(c.Request.Context(), c.Param("turnover_id"), req.ActorID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// CancelTurnover handles POST /api/turnovers/{turnover_id}/cancel.
func (h *Handler) CancelTurnover(c *gin.Context) {
	var req actorRequest
	_ = c.ShouldBindJSON(&req)

	t, err := h.turnovers.Cancel(c.Request.Context(), c.Param("turnover_id"), req.ActorID, req.Note)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// GetBedTurnoverStatus handles GET /api/beds/{bed_id}/turnover: progress and
// time remaining for the bed's active turnover.
func (h *Handler) GetBedTurnoverStatus(c *gin.Context) {
	bedID, err := strconv.ParseInt(c.Param("bed_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid bed ID"})
		return
	}

	s, err := h.turnovers.GetStatusWithTimeRemaining(c.Request.Context(), bedID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

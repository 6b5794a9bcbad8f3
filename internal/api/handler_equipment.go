package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type markEquipmentRequest struct {
	CleaningType string `json:"cleaning_type"`
	StaffID      *int64 `json:"staff_id"`
	Notes        string `json:"notes"`
}

// MarkEquipmentForCleaning handles POST /api/equipment/{equipment_id}/cleaning.
func (h *Handler) MarkEquipmentForCleaning(c *gin.Context) {
	equipmentID, err := strconv.ParseInt(c.Param("equipment_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid equipment ID"})
		return
	}

	var req markEquipmentRequest
	_ = c.ShouldBindJSON(&req)

	row, err := h.equipment.MarkForCleaning(c.Request.Context(), equipmentID, req.CleaningType, req.StaffID, req.Notes)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

type completeEquipmentRequest struct {
	StaffID *int64 `json:"staff_id"`
}

// CompleteEquipmentCleaning handles
// POST /api/equipment/{equipment_id}/cleaning/complete.
func (h *Handler) CompleteEquipmentCleaning(c *gin.Context) {
	equipmentID, err := strconv.ParseInt(c.Param("equipment_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid equipment ID"})
		return
	}

	var req completeEquipmentRequest
	_ = c.ShouldBindJSON(&req)

	row, err := h.equipment.CompleteCleaning(c.Request.Context(), equipmentID, req.StaffID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// ReturnEquipment handles POST /api/equipment/{equipment_id}/return.
func (h *Handler) ReturnEquipment(c *gin.Context) {
	equipmentID, err := strconv.ParseInt(c.Param("equipment_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid equipment ID"})
		return
	}

	row, err := h.equipment.Return(c.Request.Context(), equipmentID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// GetEquipmentStatus handles GET /api/equipment/{equipment_id}/status.
func (h *Handler) GetEquipmentStatus(c *gin.Context) {
	equipmentID, err := strconv.ParseInt(c.Param("equipment_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid equipment ID"})
		return
	}

	s, err := h.equipment.GetStatus(c.Request.Context(), equipmentID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

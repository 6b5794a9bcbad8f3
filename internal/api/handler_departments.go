package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"bedflow-backend/internal/model"
	"bedflow-backend/internal/turnover"
)

// DepartmentResponse represents the API response for a single department.
type DepartmentResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	TotalBeds     int64  `json:"totalBeds"`
	AvailableBeds int64  `json:"availableBeds"`
	WaitingCount  int64  `json:"waitingCount"`
}

// GetDepartments handles the GET /api/departments request.
func (h *Handler) GetDepartments(c *gin.Context) {
	db := h.store.DB()

	var departments []model.Department
	if err := db.Find(&departments).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve departments"})
		return
	}

	type aggRow struct {
		DepartmentID  int64
		TotalBeds     int64
		AvailableBeds int64
	}
	var aggs []aggRow
	if err := db.
		Model(&model.Bed{}).
		Select("rooms.department_id as department_id, COUNT(*) as total_beds, "+
			"SUM(CASE WHEN beds.status = ? THEN 1 ELSE 0 END) as available_beds", model.BedAvailable).
		Joins("JOIN rooms ON rooms.id = beds.room_id").
		Group("rooms.department_id").
		Scan(&aggs).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate beds"})
		return
	}

	type waitRow struct {
		DepartmentID int64
		Waiting      int64
	}
	var waits []waitRow
	if err := db.
		Model(&model.PatientQueueEntry{}).
		Select("department_id, COUNT(*) as waiting").
		Where("status = ?", model.QueueWaiting).
		Group("department_id").
		Scan(&waits).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate queue"})
		return
	}

	aggMap := make(map[int64]aggRow, len(aggs))
	for _, a := range aggs {
		aggMap[a.DepartmentID] = a
	}
	waitMap := make(map[int64]int64, len(waits))
	for _, w := range waits {
		waitMap[w.DepartmentID] = w.Waiting
	}

	responses := make([]DepartmentResponse, 0, len(departments))
	for _, d := range departments {
		a := aggMap[d.ID]
		responses = append(responses, DepartmentResponse{
			ID:            d.ID,
			Name:          d.Name,
			TotalBeds:     a.TotalBeds,
			AvailableBeds: a.AvailableBeds,
			WaitingCount:  waitMap[d.ID],
		})
	}
	c.JSON(http.StatusOK, responses)
}

// bedStatusResponse is the flattened dashboard view of one bed.
type bedStatusResponse struct {
	model.Bed
	RoomNumber       string     `json:"roomNumber"`
	TurnoverID       string     `json:"turnoverId,omitempty"`
	TurnoverStatus   string     `json:"turnoverStatus,omitempty"`
	RemainingMinutes float64    `json:"remainingMinutes"`
	ProgressPercent  float64    `json:"progressPercent"`
	EstimatedReady   *time.Time `json:"estimatedReady,omitempty"`
}

// GetDepartmentBeds handles the GET /api/departments/{department_id}/beds
// request: every bed in the department with its live turnover progress.
func (h *Handler) GetDepartmentBeds(c *gin.Context) {
	departmentID, err := strconv.ParseInt(c.Param("department_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid department ID"})
		return
	}

	db := h.store.DB()

	var beds []model.Bed
	if err := db.Preload("Room").
		Joins("JOIN rooms ON rooms.id = beds.room_id").
		Where("rooms.department_id = ?", departmentID).
		Find(&beds).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve beds"})
		return
	}

	bedIDs := make([]int64, len(beds))
	for i, b := range beds {
		bedIDs[i] = b.ID
	}

	var active []model.BedTurnover
	if len(bedIDs) > 0 {
		db.Where("bed_id IN ? AND status IN ?", bedIDs, model.ActiveTurnoverStatuses).Find(&active)
	}
	turnoverMap := make(map[int64]model.BedTurnover, len(active))
	for _, t := range active {
		turnoverMap[t.BedID] = t
	}

	now := time.Now().UTC()
	response := make([]bedStatusResponse, 0, len(beds))
	for _, bed := range beds {
		r := bedStatusResponse{
			Bed:             bed,
			RoomNumber:      bed.Room.Number,
			ProgressPercent: 100,
		}
		if t, ok := turnoverMap[bed.ID]; ok {
			r.TurnoverID = t.ID
			r.TurnoverStatus = t.Status
			r.RemainingMinutes, r.ProgressPercent, r.EstimatedReady = turnover.Progress(&t, now)
		}
		response = append(response, r)
	}
	c.JSON(http.StatusOK, response)
}

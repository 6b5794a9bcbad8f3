package model

import "time"

// Bed turnover statuses. A turnover is terminal once assigned or cancelled.
const (
	TurnoverInitiated        = "initiated"
	TurnoverCleaning         = "cleaning"
	TurnoverCleaningComplete = "cleaning_complete"
	TurnoverReady            = "ready"
	TurnoverAssigned         = "assigned"
	TurnoverCancelled        = "cancelled"
)

// ActiveTurnoverStatuses are the non-terminal statuses. At most one turnover
// per bed may hold one of these at any time.
var ActiveTurnoverStatuses = []string{
	TurnoverInitiated,
	TurnoverCleaning,
	TurnoverCleaningComplete,
	TurnoverReady,
}

// Turnover types.
const (
	TurnoverStandard    = "standard"
	TurnoverDeepClean   = "deep_clean"
	TurnoverMaintenance = "maintenance"
)

// ValidTurnoverType reports whether t is a recognized turnover type.
func ValidTurnoverType(t string) bool {
	return t == TurnoverStandard || t == TurnoverDeepClean || t == TurnoverMaintenance
}

// Inspection outcomes.
const (
	InspectionPending = "pending"
	InspectionPass    = "pass"
	InspectionFail    = "fail"
)

// BedTurnover represents one discharge-to-next-admission cycle for a bed.
type BedTurnover struct {
	ID                       string     `gorm:"primaryKey;size:36" json:"id"`
	BedID                    int64      `gorm:"index;not null" json:"bedId"`
	PreviousPatientID        *int64     `json:"previousPatientId"`
	NextPatientID            *int64     `json:"nextPatientId"`
	Status                   string     `gorm:"size:24;not null;index" json:"status"`
	TurnoverType             string     `gorm:"size:16;not null" json:"turnoverType"`
	Priority                 string     `gorm:"size:8;not null" json:"priority"`
	DischargeTime            time.Time  `gorm:"not null" json:"dischargeTime"`
	CleaningStartTime        *time.Time `json:"cleaningStartTime"`
	CleaningEndTime          *time.Time `json:"cleaningEndTime"`
	ReadyTime                *time.Time `json:"readyTime"`
	NextAssignmentTime       *time.Time `json:"nextAssignmentTime"`
	EstimatedCleaningMinutes int        `gorm:"not null" json:"estimatedCleaningMinutes"`
	AssignedCleanerID        *int64     `json:"assignedCleanerId"`
	InspectorID              *int64     `json:"inspectorId"`
	InspectionPassed         string     `gorm:"size:8;not null;default:pending" json:"inspectionPassed"`
	InspectorNotes           string     `json:"inspectorNotes"`
	EquipmentIDs             []int64    `gorm:"serializer:json" json:"equipmentIds"`
	CreatedAt                time.Time  `json:"-"`
	UpdatedAt                time.Time  `json:"-"`

	// Associations
	Bed Bed `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Active reports whether the turnover is in a non-terminal status.
func (t *BedTurnover) Active() bool {
	switch t.Status {
	case TurnoverAssigned, TurnoverCancelled:
		return false
	}
	return true
}

// TurnoverLog is an audit record of a single status transition.
type TurnoverLog struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TurnoverID string    `gorm:"size:36;index;not null" json:"turnoverId"`
	FromStatus string    `gorm:"size:24" json:"fromStatus"`
	ToStatus   string    `gorm:"size:24;not null" json:"toStatus"`
	ActorID    *int64    `json:"actorId"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `gorm:"not null;index" json:"createdAt"`
}

package model

import "time"

// Equipment turnover statuses. Terminal once returned.
const (
	EquipmentInUse         = "in_use"
	EquipmentNeedsCleaning = "needs_cleaning"
	EquipmentCleaning      = "cleaning"
	EquipmentCleaned       = "cleaned"
	EquipmentReturned      = "returned"

	// EquipmentAvailable is reported for equipment with no active turnover
	// row; it is never stored.
	EquipmentAvailable = "available"
)

// ActiveEquipmentStatuses are the statuses an open equipment turnover row
// may hold. At most one open row per equipment item is allowed.
var ActiveEquipmentStatuses = []string{
	EquipmentInUse,
	EquipmentNeedsCleaning,
	EquipmentCleaning,
	EquipmentCleaned,
}

// Cleaning types for equipment.
const (
	CleaningSurface       = "surface"
	CleaningDeep          = "deep"
	CleaningSterilization = "sterilization"
)

// ValidCleaningType reports whether t is a recognized cleaning type.
func ValidCleaningType(t string) bool {
	return t == CleaningSurface || t == CleaningDeep || t == CleaningSterilization
}

// EquipmentTurnover tracks the cleaning cycle of one equipment item,
// optionally tied to a bed turnover.
type EquipmentTurnover struct {
	ID                string     `gorm:"primaryKey;size:36" json:"id"`
	BedTurnoverID     *string    `gorm:"size:36;index" json:"bedTurnoverId"`
	EquipmentID       int64      `gorm:"index;not null" json:"equipmentId"`
	Status            string     `gorm:"size:16;not null;index" json:"status"`
	CleaningRequired  bool       `gorm:"not null;default:true" json:"cleaningRequired"`
	CleaningType      string     `gorm:"size:16;not null;default:surface" json:"cleaningType"`
	ReleaseTime       *time.Time `json:"releaseTime"`
	CleaningStartTime *time.Time `json:"cleaningStartTime"`
	CleaningEndTime   *time.Time `json:"cleaningEndTime"`
	ReturnTime        *time.Time `json:"returnTime"`
	ReleasedByID      *int64     `json:"releasedById"`
	CleanedByID       *int64     `json:"cleanedById"`
	InspectionPassed  bool       `json:"inspectionPassed"`
	Notes             string     `json:"notes"`
	CreatedAt         time.Time  `json:"-"`
	UpdatedAt         time.Time  `json:"-"`

	// Associations
	Equipment Equipment `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Open reports whether the row still tracks an unfinished cycle.
func (e *EquipmentTurnover) Open() bool {
	return e.Status != EquipmentReturned
}

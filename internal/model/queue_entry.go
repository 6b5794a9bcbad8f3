package model

import "time"

// Queue entry statuses.
const (
	QueueWaiting   = "waiting"
	QueueAssigned  = "assigned"
	QueueAdmitted  = "admitted"
	QueueCancelled = "cancelled"
)

// PatientQueueEntry is a patient waiting for a bed in a department.
//
// QueuePosition is assigned once from the department's running count and is
// never reused or compacted: cancelled and assigned entries retire their
// number, so relative FIFO order survives removals without renumbering.
type PatientQueueEntry struct {
	ID               string     `gorm:"primaryKey;size:36" json:"id"`
	PatientID        int64      `gorm:"index;not null" json:"patientId"`
	DepartmentID     int64      `gorm:"index;not null" json:"departmentId"`
	QueuePosition    int        `gorm:"not null" json:"queuePosition"`
	BedTypeRequired  string     `gorm:"size:32" json:"bedTypeRequired"`
	Priority         string     `gorm:"size:8;not null" json:"priority"`
	MedicalCondition string     `json:"medicalCondition"`
	QueueEntryTime   time.Time  `gorm:"not null" json:"queueEntryTime"`
	Status           string     `gorm:"size:16;not null;index" json:"status"`
	AssignedBedID    *int64     `json:"assignedBedId"`
	AssignmentTime   *time.Time `json:"assignmentTime"`
	CreatedAt        time.Time  `json:"-"`
	UpdatedAt        time.Time  `json:"-"`

	// Associations
	Patient    Patient    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Department Department `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

package model

import "time"

// Department represents a hospital department (ward group).
type Department struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`

	// Associations
	Rooms []Room `gorm:"foreignKey:DepartmentID" json:"-"`
}

// Room represents a room within a department.
type Room struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	DepartmentID int64     `gorm:"index;not null" json:"departmentId"`
	Number       string    `gorm:"size:32;not null" json:"number"`
	Floor        int       `json:"floor"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`

	// Associations
	Department Department `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Beds       []Bed      `gorm:"foreignKey:RoomID" json:"-"`
}

// Bed statuses. The engine owns transitions between these; the identity
// record itself (room, number, type) is owned elsewhere.
const (
	BedAvailable   = "available"
	BedOccupied    = "occupied"
	BedCleaning    = "cleaning"
	BedMaintenance = "maintenance"
)

// Bed represents a single bed. The engine reads its identity fields and
// writes Status and CurrentPatientID.
type Bed struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	RoomID           int64     `gorm:"index;not null" json:"roomId"`
	BedNumber        string    `gorm:"size:32;not null" json:"bedNumber"`
	BedType          string    `gorm:"size:32" json:"bedType"`
	Status           string    `gorm:"size:16;not null;default:available" json:"status"`
	CurrentPatientID *int64    `json:"currentPatientId"`
	CreatedAt        time.Time `json:"-"`
	UpdatedAt        time.Time `json:"-"`

	// Associations
	Room Room `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Patient is an externally owned identity record, read-only here.
type Patient struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Staff is an externally owned identity record, read-only here.
type Staff struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Role      string    `gorm:"size:32" json:"role"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Equipment is an externally owned identity record, read-only here.
type Equipment struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Category  string    `gorm:"size:64" json:"category"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

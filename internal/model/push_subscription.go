package model

import "time"

// PushSubscription holds a dashboard browser's push subscription, scoped to
// the department it is watching for ready beds.
type PushSubscription struct {
	Endpoint     string    `gorm:"primaryKey"`
	P256DH       string    `gorm:"column:p256dh;not null"`
	Auth         string    `gorm:"not null"`
	DepartmentID int64     `gorm:"index;not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

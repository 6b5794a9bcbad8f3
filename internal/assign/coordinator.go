// Package assign matches ready beds to the best waiting patient and commits
// the match as a single atomic unit.
package assign

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bedflow-backend/internal/apperr"
	"bedflow-backend/internal/model"
	"bedflow-backend/internal/queue"
	"bedflow-backend/internal/store"
	"bedflow-backend/internal/turnover"
)

// Coordinator performs bed-to-patient assignment.
type Coordinator struct {
	store *store.Store
	log   *logrus.Entry
	now   func() time.Time
}

// NewCoordinator creates a coordinator over the given store.
func NewCoordinator(s *store.Store, log *logrus.Entry) *Coordinator {
	return &Coordinator{
		store: s,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Assignment summarizes a committed bed assignment.
type Assignment struct {
	BedID        int64     `json:"bedId"`
	BedNumber    string    `json:"bedNumber"`
	RoomNumber   string    `json:"roomNumber"`
	DepartmentID int64     `json:"departmentId"`
	PatientID    int64     `json:"patientId"`
	QueueEntryID string    `json:"queueEntryId"`
	TurnoverID   string    `json:"turnoverId,omitempty"`
	AssignedAt   time.Time `json:"assignedAt"`
}

// AssignNext claims the given available bed for the best waiting patient.
// The queue claim, the bed claim and the turnover completion commit together
// or not at all; under racing calls exactly one claimant wins the bed and
// the rest fail with Conflict or InvalidState.
func (c *Coordinator) AssignNext(ctx context.Context, bedID int64, departmentID *int64) (*Assignment, error) {
	var out *Assignment

	err := c.store.BedTx(ctx, bedID, func(tx *gorm.DB) error {
		bed, err := store.GetBed(tx, bedID)
		if err != nil {
			return err
		}
		if bed.Status != model.BedAvailable {
			return apperr.InvalidState("bed %d is %s, not available", bedID, bed.Status)
		}

		dept := bed.Room.DepartmentID
		if departmentID != nil {
			dept = *departmentID
		}

		entry, err := queue.NextWaiting(tx, dept, bed.BedType)
		if err != nil {
			return err
		}
		if entry == nil {
			return apperr.NotFound("no patients waiting in department %d", dept)
		}

		now := c.now()
		if err := queue.Claim(tx, entry.ID, bedID, now); err != nil {
			return err
		}
		if err := store.ClaimBedStatus(tx, bedID, model.BedAvailable, model.BedOccupied, &entry.PatientID); err != nil {
			return err
		}

		summary := &Assignment{
			BedID:        bedID,
			BedNumber:    bed.BedNumber,
			RoomNumber:   bed.Room.Number,
			DepartmentID: dept,
			PatientID:    entry.PatientID,
			QueueEntryID: entry.ID,
			AssignedAt:   now,
		}

		active, err := store.ActiveTurnoverForBed(tx, bedID)
		if err != nil {
			return err
		}
		if active != nil && active.Status == model.TurnoverReady {
			if err := turnover.Assign(tx, active.ID, entry.PatientID, now); err != nil {
				return err
			}
			summary.TurnoverID = active.ID
		}

		out = summary
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"bed_id":     out.BedID,
		"patient_id": out.PatientID,
		"entry_id":   out.QueueEntryID,
	}).Info("bed assigned")
	return out, nil
}

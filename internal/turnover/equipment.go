package turnover

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bedflow-backend/internal/apperr"
	"bedflow-backend/internal/model"
	"bedflow-backend/internal/store"
)

// cleaningTypeMinutes are the estimated durations used when projecting an
// equipment item's completion time.
var cleaningTypeMinutes = map[string]int{
	model.CleaningSurface:       15,
	model.CleaningDeep:          30,
	model.CleaningSterilization: 45,
}

// EquipmentTracker tracks the cleaning cycle of individual equipment items,
// standalone or fanned out from a bed turnover.
type EquipmentTracker struct {
	store *store.Store
	log   *logrus.Entry
	now   func() time.Time
}

// NewEquipmentTracker creates a tracker over the given store.
func NewEquipmentTracker(s *store.Store, log *logrus.Entry) *EquipmentTracker {
	return &EquipmentTracker{
		store: s,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// MarkForCleaning opens a cleaning cycle for one equipment item outside any
// bed turnover. Fails with Conflict when the item already has an open cycle.
func (e *EquipmentTracker) MarkForCleaning(ctx context.Context, equipmentID int64, cleaningType string, staffID *int64, notes string) (*model.EquipmentTurnover, error) {
	if cleaningType == "" {
		cleaningType = model.CleaningSurface
	}
	if !model.ValidCleaningType(cleaningType) {
		return nil, apperr.Validation("unsupported cleaning type %q", cleaningType)
	}

	now := e.now()
	row := &model.EquipmentTurnover{
		ID:                uuid.NewString(),
		EquipmentID:       equipmentID,
		Status:            model.EquipmentCleaning,
		CleaningRequired:  true,
		CleaningType:      cleaningType,
		CleaningStartTime: &now,
		ReleasedByID:      staffID,
		Notes:             notes,
	}

	err := e.store.EquipmentTx(ctx, equipmentID, func(tx *gorm.DB) error {
		if err := equipmentExists(tx, equipmentID); err != nil {
			return err
		}
		open, err := store.OpenEquipmentTurnover(tx, equipmentID)
		if err != nil {
			return err
		}
		if open != nil {
			return apperr.Conflict("equipment %d already has an open cleaning cycle (%s)", equipmentID, open.Status)
		}
		return tx.Create(row).Error
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// CompleteCleaning closes the cleaning step of the item's open cycle.
func (e *EquipmentTracker) CompleteCleaning(ctx context.Context, equipmentID int64, staffID *int64) (*model.EquipmentTurnover, error) {
	var out *model.EquipmentTurnover
	err := e.store.EquipmentTx(ctx, equipmentID, func(tx *gorm.DB) error {
		open, err := store.OpenEquipmentTurnover(tx, equipmentID)
		if err != nil {
			return err
		}
		if open == nil {
			return apperr.NotFound("no active cleaning cycle for equipment %d", equipmentID)
		}
		switch open.Status {
		case model.EquipmentNeedsCleaning, model.EquipmentCleaning, model.EquipmentInUse:
		default:
			return apperr.InvalidState("equipment %d cycle is already %s", equipmentID, open.Status)
		}

		now := e.now()
		open.Status = model.EquipmentCleaned
		open.CleaningEndTime = &now
		open.CleanedByID = staffID
		open.InspectionPassed = true
		out = open
		return tx.Save(open).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Return puts a cleaned item back into circulation, closing its cycle.
func (e *EquipmentTracker) Return(ctx context.Context, equipmentID int64) (*model.EquipmentTurnover, error) {
	var out *model.EquipmentTurnover
	err := e.store.EquipmentTx(ctx, equipmentID, func(tx *gorm.DB) error {
		open, err := store.OpenEquipmentTurnover(tx, equipmentID)
		if err != nil {
			return err
		}
		if open == nil {
			return apperr.NotFound("no active cleaning cycle for equipment %d", equipmentID)
		}
		if open.Status != model.EquipmentCleaned {
			return apperr.InvalidState("equipment %d must be cleaned before return, is %s", equipmentID, open.Status)
		}

		now := e.now()
		open.Status = model.EquipmentReturned
		open.ReturnTime = &now
		out = open
		return tx.Save(open).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EquipmentStatus is the reported state of one equipment item.
type EquipmentStatus struct {
	EquipmentID         int64      `json:"equipmentId"`
	Status              string     `json:"status"`
	CleaningType        string     `json:"cleaningType,omitempty"`
	BedTurnoverID       *string    `json:"bedTurnoverId,omitempty"`
	EstimatedCompletion *time.Time `json:"estimatedCompletion,omitempty"`
}

// GetStatus reports the item's open cycle, or "available" when it has none.
func (e *EquipmentTracker) GetStatus(ctx context.Context, equipmentID int64) (*EquipmentStatus, error) {
	db := e.store.DB().WithContext(ctx)
	if err := equipmentExists(db, equipmentID); err != nil {
		return nil, err
	}

	open, err := store.OpenEquipmentTurnover(db, equipmentID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return &EquipmentStatus{EquipmentID: equipmentID, Status: model.EquipmentAvailable}, nil
	}

	s := &EquipmentStatus{
		EquipmentID:   equipmentID,
		Status:        open.Status,
		CleaningType:  open.CleaningType,
		BedTurnoverID: open.BedTurnoverID,
	}
	if open.CleaningStartTime != nil && open.Status == model.EquipmentCleaning {
		done := open.CleaningStartTime.Add(time.Duration(cleaningTypeMinutes[open.CleaningType]) * time.Minute)
		s.EstimatedCompletion = &done
	}
	return s, nil
}

// releaseForTurnover fans out needs_cleaning entries for the equipment a
// discharge released. Runs inside the turnover's transaction. Items that
// already have an open cycle are skipped rather than failing the discharge.
func releaseForTurnover(tx *gorm.DB, log *logrus.Entry, bedTurnoverID string, equipmentIDs []int64, now time.Time) error {
	for _, id := range equipmentIDs {
		if err := equipmentExists(tx, id); err != nil {
			return err
		}

		open, err := store.OpenEquipmentTurnover(tx, id)
		if err != nil {
			return err
		}
		if open != nil {
			log.WithFields(logrus.Fields{
				"equipment_id": id,
				"cycle_id":     open.ID,
			}).Warn("equipment already in an open cleaning cycle, skipping release")
			continue
		}

		release := now
		row := &model.EquipmentTurnover{
			ID:               uuid.NewString(),
			BedTurnoverID:    &bedTurnoverID,
			EquipmentID:      id,
			Status:           model.EquipmentNeedsCleaning,
			CleaningRequired: true,
			CleaningType:     model.CleaningSurface,
			ReleaseTime:      &release,
		}
		if err := tx.Create(row).Error; err != nil {
			return err
		}
	}
	return nil
}

func equipmentExists(tx *gorm.DB, equipmentID int64) error {
	var eq model.Equipment
	err := tx.Select("id").First(&eq, equipmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("equipment %d not found", equipmentID)
	}
	return err
}

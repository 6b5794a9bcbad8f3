// Package store provides the persistence helpers shared by the engine
// components. All multi-row mutations run inside a single transaction, with
// per-resource serialization on top so that read-then-write sequences cannot
// interleave within this process.
package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bedflow-backend/internal/apperr"
	"bedflow-backend/internal/model"
)

// Store wraps the database handle with the engine's locking discipline.
type Store struct {
	db    *gorm.DB
	locks keyedMutex
}

// New creates a Store on top of an initialized gorm handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for read paths and tests.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Tx runs fn inside a database transaction.
func (s *Store) Tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// BedTx serializes fn against all other mutations of the same bed in this
// process, then runs it in a transaction.
func (s *Store) BedTx(ctx context.Context, bedID int64, fn func(tx *gorm.DB) error) error {
	unlock := s.locks.lock("bed", bedID)
	defer unlock()
	return s.Tx(ctx, fn)
}

// DepartmentTx serializes fn against other mutations of the same
// department's queue, then runs it in a transaction.
func (s *Store) DepartmentTx(ctx context.Context, departmentID int64, fn func(tx *gorm.DB) error) error {
	unlock := s.locks.lock("department", departmentID)
	defer unlock()
	return s.Tx(ctx, fn)
}

// EquipmentTx serializes fn against other mutations of the same equipment
// item, then runs it in a transaction.
func (s *Store) EquipmentTx(ctx context.Context, equipmentID int64, fn func(tx *gorm.DB) error) error {
	unlock := s.locks.lock("equipment", equipmentID)
	defer unlock()
	return s.Tx(ctx, fn)
}

// ForUpdate applies a row-level lock on backends that support it. SQLite
// rejects FOR UPDATE; its single-writer model covers the same transactions.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// GetBed loads a bed with its room and department.
func GetBed(tx *gorm.DB, bedID int64) (*model.Bed, error) {
	var bed model.Bed
	err := ForUpdate(tx).Preload("Room").Preload("Room.Department").First(&bed, bedID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("bed %d not found", bedID)
	}
	if err != nil {
		return nil, err
	}
	return &bed, nil
}

// ClaimBedStatus transitions a bed's status with a guarded update: the write
// only lands if the bed is still in the expected status, so two racing
// claimants cannot both succeed.
func ClaimBedStatus(tx *gorm.DB, bedID int64, from, to string, patientID *int64) error {
	res := tx.Model(&model.Bed{}).
		Where("id = ? AND status = ?", bedID, from).
		Updates(map[string]any{"status": to, "current_patient_id": patientID})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("bed %d is no longer %s", bedID, from)
	}
	return nil
}

// SetBedStatus writes a bed's status unconditionally (used on paths that
// already hold the bed lock and have validated the transition).
func SetBedStatus(tx *gorm.DB, bedID int64, status string, patientID *int64) error {
	return tx.Model(&model.Bed{}).
		Where("id = ?", bedID).
		Updates(map[string]any{"status": status, "current_patient_id": patientID}).Error
}

// ActiveTurnoverForBed returns the bed's non-terminal turnover, or nil.
func ActiveTurnoverForBed(tx *gorm.DB, bedID int64) (*model.BedTurnover, error) {
	var t model.BedTurnover
	err := ForUpdate(tx).
		Where("bed_id = ? AND status IN ?", bedID, model.ActiveTurnoverStatuses).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTurnover loads a turnover by id.
func GetTurnover(tx *gorm.DB, turnoverID string) (*model.BedTurnover, error) {
	var t model.BedTurnover
	err := ForUpdate(tx).First(&t, "id = ?", turnoverID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("turnover %s not found", turnoverID)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// AppendTurnoverLog records a status transition in the audit trail.
func AppendTurnoverLog(tx *gorm.DB, turnoverID, from, to string, actorID *int64, note string) error {
	return tx.Create(&model.TurnoverLog{
		TurnoverID: turnoverID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actorID,
		Note:       note,
		CreatedAt:  time.Now().UTC(),
	}).Error
}

// OpenEquipmentTurnover returns the equipment item's open turnover row, or
// nil when the item is available.
func OpenEquipmentTurnover(tx *gorm.DB, equipmentID int64) (*model.EquipmentTurnover, error) {
	var e model.EquipmentTurnover
	err := ForUpdate(tx).
		Where("equipment_id = ? AND status IN ?", equipmentID, model.ActiveEquipmentStatuses).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// NextQueuePosition computes the next position for a department: the count
// of every entry ever enqueued there, plus one. Positions are retired, never
// reused, so the count keeps growing monotonically. Must be called inside a
// DepartmentTx so two enqueues cannot observe the same count.
func NextQueuePosition(tx *gorm.DB, departmentID int64) (int, error) {
	var count int64
	if err := tx.Model(&model.PatientQueueEntry{}).
		Where("department_id = ?", departmentID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count) + 1, nil
}

// CompletedTurnoverDurations returns the cleaning durations (in minutes) of
// the most recent successfully completed turnovers, newest first.
func CompletedTurnoverDurations(db *gorm.DB, sample int) ([]float64, error) {
	var rows []model.BedTurnover
	err := db.
		Where("status IN ? AND cleaning_end_time IS NOT NULL", []string{model.TurnoverReady, model.TurnoverAssigned}).
		Order("cleaning_end_time DESC").
		Limit(sample).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	durations := make([]float64, 0, len(rows))
	for _, t := range rows {
		start := t.DischargeTime
		if t.CleaningStartTime != nil {
			start = *t.CleaningStartTime
		}
		minutes := t.CleaningEndTime.Sub(start).Minutes()
		if minutes > 0 {
			durations = append(durations, minutes)
		}
	}
	return durations, nil
}

// Package queue maintains the per-department waiting list of patients
// needing a bed, and estimates how long they will wait.
package queue

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

// Manager owns the patient queue.
type Manager struct {
	store *store.Store
	log   *logrus.Entry
	now   func() time.Time
}

// NewManager creates a queue manager over the given store.
func NewManager(s *store.Store, log *logrus.Entry) *Manager {
	return &Manager{
		store: s,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// EnqueueParams describes an admission request.
type EnqueueParams struct {
	PatientID        int64
	DepartmentID     int64
	BedTypeRequired  string
	Priority         string
	MedicalCondition string
}

// Enqueue appends a patient to a department's queue. The position is the
// department's all-time entry count plus one, computed inside a transaction
// serialized per department so two admissions cannot draw the same number.
func (m *Manager) Enqueue(ctx context.Context, p EnqueueParams) (*model.PatientQueueEntry, error) {
	if p.Priority == "" {
		p.Priority = model.PriorityNormal
	}
	if !model.ValidPriority(p.Priority) {
		return nil, apperr.Validation("unsupported priority %q", p.Priority)
	}

	entry := &model.PatientQueueEntry{
		ID:               uuid.NewString(),
		PatientID:        p.PatientID,
		DepartmentID:     p.DepartmentID,
		BedTypeRequired:  p.BedTypeRequired,
		Priority:         p.Priority,
		MedicalCondition: p.MedicalCondition,
		QueueEntryTime:   m.now(),
		Status:           model.QueueWaiting,
	}

	err := m.store.DepartmentTx(ctx, p.DepartmentID, func(tx *gorm.DB) error {
		var dept model.Department
		if err := tx.Select("id").First(&dept, p.DepartmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("department %d not found", p.DepartmentID)
			}
			return err
		}
		var patient model.Patient
		if err := tx.Select("id").First(&patient, p.PatientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("patient %d not found", p.PatientID)
			}
			return err
		}

		pos, err := store.NextQueuePosition(tx, p.DepartmentID)
		if err != nil {
			return err
		}
		entry.QueuePosition = pos
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}

	m.log.WithFields(logrus.Fields{
		"entry_id":      entry.ID,
		"department_id": p.DepartmentID,
		"position":      entry.QueuePosition,
		"priority":      entry.Priority,
	}).Info("patient enqueued")
	return entry, nil
}

// List returns queue entries ordered by priority rank, then position.
// departmentID nil lists across departments; status defaults to waiting.
func (m *Manager) List(ctx context.Context, departmentID *int64, status string) ([]model.PatientQueueEntry, error) {
	if status == "" {
		status = model.QueueWaiting
	}
	switch status {
	case model.QueueWaiting, model.QueueAssigned, model.QueueAdmitted, model.QueueCancelled:
	default:
		return nil, apperr.Validation("unsupported queue status %q", status)
	}

	q := m.store.DB().WithContext(ctx).Where("status = ?", status)
	if departmentID != nil {
		q = q.Where("department_id = ?", *departmentID)
	}

	var entries []model.PatientQueueEntry
	if err := q.Order(model.PriorityRankSQL + ", queue_position ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Cancel removes a waiting entry from the queue. Positions of other entries
// are untouched; the cancelled number is simply retired.
func (m *Manager) Cancel(ctx context.Context, entryID string) (*model.PatientQueueEntry, error) {
	var entry model.PatientQueueEntry
	err := m.store.DB().WithContext(ctx).First(&entry, "id = ?", entryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("queue entry %s not found", entryID)
	}
	if err != nil {
		return nil, err
	}

	err = m.store.DepartmentTx(ctx, entry.DepartmentID, func(tx *gorm.DB) error {
		res := tx.Model(&model.PatientQueueEntry{}).
			Where("id = ? AND status = ?", entryID, model.QueueWaiting).
			Update("status", model.QueueCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.InvalidState("queue entry %s is not waiting", entryID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entry.Status = model.QueueCancelled
	return &entry, nil
}

// NextWaiting returns the best waiting entry for a department: highest
// priority rank first, earliest position within a rank. Entries requiring a
// specific bed type only match beds of that type; an empty requirement
// matches any bed. Returns nil when nobody matches. Runs on the caller's
// transaction so the coordinator can claim the entry atomically.
func NextWaiting(tx *gorm.DB, departmentID int64, bedType string) (*model.PatientQueueEntry, error) {
	q := store.ForUpdate(tx).
		Where("department_id = ? AND status = ?", departmentID, model.QueueWaiting)
	if bedType != "" {
		q = q.Where("bed_type_required = '' OR bed_type_required = ?", bedType)
	} else {
		q = q.Where("bed_type_required = ''")
	}

	var entry model.PatientQueueEntry
	err := q.Order(model.PriorityRankSQL + ", queue_position ASC").First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Claim marks a waiting entry assigned to a bed with a guarded update, so
// two coordinators cannot claim the same entry.
func Claim(tx *gorm.DB, entryID string, bedID int64, now time.Time) error {
	res := tx.Model(&model.PatientQueueEntry{}).
		Where("id = ? AND status = ?", entryID, model.QueueWaiting).
		Updates(map[string]any{
			"status":          model.QueueAssigned,
			"assigned_bed_id": bedID,
			"assignment_time": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("queue entry %s was claimed by another assignment", entryID)
	}
	return nil
}

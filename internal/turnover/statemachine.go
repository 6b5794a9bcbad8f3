// Package turnover owns the bed turnover lifecycle: the state machine that
// carries a bed from discharge through cleaning and inspection back to
// available, and the cleaning tracker for the equipment released with it.
package turnover

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bedflow-backend/internal/apperr"
	"bedflow-backend/internal/model"
	"bedflow-backend/internal/store"
)

// Dispatcher receives the id of a bed that just became ready. Implemented by
// the notification worker pool.
type Dispatcher interface {
	Dispatch(bedID int64)
}

// Durations holds the configured cleaning estimates per turnover type.
type Durations struct {
	StandardMinutes  int
	DeepCleanMinutes int
}

// StateMachine drives bed turnovers through
// initiated -> cleaning -> cleaning_complete -> ready -> assigned,
// with cancelled reachable from any non-terminal state and a failed
// inspection looping back into cleaning via an explicit reopen.
type StateMachine struct {
	store     *store.Store
	durations Durations
	log       *logrus.Entry
	notifier  Dispatcher
	now       func() time.Time
}

// NewStateMachine creates a state machine over the given store.
func NewStateMachine(s *store.Store, durations Durations, log *logrus.Entry) *StateMachine {
	return &StateMachine{
		store:     s,
		durations: durations,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetNotifier wires the dispatcher notified when a bed turns ready.
func (m *StateMachine) SetNotifier(d Dispatcher) {
	m.notifier = d
}

// StartParams describes a discharge event.
type StartParams struct {
	BedID             int64
	PreviousPatientID *int64
	TurnoverType      string
	Priority          string
	EquipmentIDs      []int64
}

// Start creates the turnover for a discharged bed, flips the bed to
// cleaning, and fans out cleaning entries for the released equipment.
// Fails with Conflict when the bed already has an active turnover.
func (m *StateMachine) Start(ctx context.Context, p StartParams) (*model.BedTurnover, error) {
	if p.TurnoverType == "" {
		p.TurnoverType = model.TurnoverStandard
	}
	if !model.ValidTurnoverType(p.TurnoverType) {
		return nil, apperr.Validation("unsupported turnover type %q", p.TurnoverType)
	}
	if p.Priority == "" {
		p.Priority = model.PriorityNormal
	}
	if !model.ValidPriority(p.Priority) {
		return nil, apperr.Validation("unsupported priority %q", p.Priority)
	}

	estimate := m.durations.StandardMinutes
	if p.TurnoverType == model.TurnoverDeepClean {
		estimate = m.durations.DeepCleanMinutes
	}

	now := m.now()
	t := &model.BedTurnover{
		ID:                       uuid.NewString(),
		BedID:                    p.BedID,
		PreviousPatientID:        p.PreviousPatientID,
		Status:                   model.TurnoverInitiated,
		TurnoverType:             p.TurnoverType,
		Priority:                 p.Priority,
		DischargeTime:            now,
		EstimatedCleaningMinutes: estimate,
		InspectionPassed:         model.InspectionPending,
		EquipmentIDs:             p.EquipmentIDs,
	}

	err := m.store.BedTx(ctx, p.BedID, func(tx *gorm.DB) error {
		if _, err := store.GetBed(tx, p.BedID); err != nil {
			return err
		}

		active, err := store.ActiveTurnoverForBed(tx, p.BedID)
		if err != nil {
			return err
		}
		if active != nil {
			return apperr.Conflict("bed %d already has turnover %s in status %s", p.BedID, active.ID, active.Status)
		}

		if err := tx.Create(t).Error; err != nil {
			return err
		}
		if err := store.SetBedStatus(tx, p.BedID, model.BedCleaning, nil); err != nil {
			return err
		}
		if err := releaseForTurnover(tx, m.log, t.ID, p.EquipmentIDs, now); err != nil {
			return err
		}
		return store.AppendTurnoverLog(tx, t.ID, "", model.TurnoverInitiated, p.PreviousPatientID, "discharge")
	})
	if err != nil {
		return nil, err
	}

	m.log.WithFields(logrus.Fields{
		"turnover_id": t.ID,
		"bed_id":      p.BedID,
		"type":        p.TurnoverType,
	}).Info("turnover started")
	return t, nil
}

// BeginCleaning marks the moment a cleaner is dispatched to the bed,
// moving the turnover from initiated to cleaning.
func (m *StateMachine) BeginCleaning(ctx context.Context, turnoverID string, cleanerID int64) (*model.BedTurnover, error) {
	var out *model.BedTurnover
	err := m.turnoverTx(ctx, turnoverID, func(tx *gorm.DB, t *model.BedTurnover) error {
		if t.Status != model.TurnoverInitiated {
			return apperr.InvalidState("turnover %s is %s, cleaning can only begin from initiated", t.ID, t.Status)
		}

		now := m.now()
		t.Status = model.TurnoverCleaning
		t.CleaningStartTime = &now
		t.AssignedCleanerID = &cleanerID
		if err := tx.Save(t).Error; err != nil {
			return err
		}
		out = t
		return store.AppendTurnoverLog(tx, t.ID, model.TurnoverInitiated, model.TurnoverCleaning, &cleanerID, "cleaner dispatched")
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CompleteCleaning records the inspection outcome. A passed inspection moves
// the turnover to ready and the bed back to available; a failed one parks
// the turnover in cleaning_complete until someone reopens it for rework.
func (m *StateMachine) CompleteCleaning(ctx context.Context, turnoverID string, inspectorID int64, passed bool, notes string) (*model.BedTurnover, error) {
	var out *model.BedTurnover
	err := m.turnoverTx(ctx, turnoverID, func(tx *gorm.DB, t *model.BedTurnover) error {
		switch t.Status {
		case model.TurnoverReady, model.TurnoverAssigned, model.TurnoverCancelled:
			return apperr.InvalidState("turnover %s is already %s", t.ID, t.Status)
		}

		now := m.now()
		from := t.Status
		t.CleaningEndTime = &now
		t.InspectorID = &inspectorID
		t.InspectorNotes = notes

		if passed {
			t.Status = model.TurnoverReady
			t.ReadyTime = &now
			t.InspectionPassed = model.InspectionPass
		} else {
			t.Status = model.TurnoverCleaningComplete
			t.InspectionPassed = model.InspectionFail
		}

		if err := tx.Save(t).Error; err != nil {
			return err
		}
		if passed {
			// The bed only returns to service on a passed inspection.
			if err := store.SetBedStatus(tx, t.BedID, model.BedAvailable, nil); err != nil {
				return err
			}
		}
		out = t
		return store.AppendTurnoverLog(tx, t.ID, from, t.Status, &inspectorID, notes)
	})
	if err != nil {
		return nil, err
	}

	if passed && m.notifier != nil {
		m.notifier.Dispatch(out.BedID)
	}
	m.log.WithFields(logrus.Fields{
		"turnover_id": turnoverID,
		"passed":      passed,
	}).Info("cleaning completed")
	return out, nil
}

// ReopenForCleaning sends a turnover that failed inspection back into
// cleaning. Explicitly human-initiated; there is no automatic retry.
func (m *StateMachine) ReopenForCleaning(ctx context.Context, turnoverID string, actorID *int64) (*model.BedTurnover, error) {
	var out *model.BedTurnover
	err := m.turnoverTx(ctx, turnoverID, func(tx *gorm.DB, t *model.BedTurnover) error {
		if t.Status != model.TurnoverCleaningComplete || t.InspectionPassed != model.InspectionFail {
			return apperr.InvalidState("turnover %s cannot be reopened from status %s", t.ID, t.Status)
		}

		now := m.now()
		t.Status = model.TurnoverCleaning
		t.CleaningStartTime = &now
		t.CleaningEndTime = nil
		t.InspectionPassed = model.InspectionPending
		if err := tx.Save(t).Error; err != nil {
			return err
		}
		out = t
		return store.AppendTurnoverLog(tx, t.ID, model.TurnoverCleaningComplete, model.TurnoverCleaning, actorID, "reopened after failed inspection")
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel aborts a non-terminal turnover. The bed is parked in maintenance:
// a cancelled cycle leaves its state unverified, so an operator has to
// return it to service explicitly.
func (m *StateMachine) Cancel(ctx context.Context, turnoverID string, actorID *int64, note string) (*model.BedTurnover, error) {
	var out *model.BedTurnover
	err := m.turnoverTx(ctx, turnoverID, func(tx *gorm.DB, t *model.BedTurnover) error {
		if !t.Active() {
			return apperr.InvalidState("turnover %s is already %s", t.ID, t.Status)
		}

		from := t.Status
		t.Status = model.TurnoverCancelled
		if err := tx.Save(t).Error; err != nil {
			return err
		}
		if err := store.SetBedStatus(tx, t.BedID, model.BedMaintenance, nil); err != nil {
			return err
		}
		out = t
		return store.AppendTurnoverLog(tx, t.ID, from, model.TurnoverCancelled, actorID, note)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Assign completes a ready turnover for the next patient. Called by the
// assignment coordinator inside its own transaction; the guarded update
// keeps two coordinators from completing the same turnover.
func Assign(tx *gorm.DB, turnoverID string, nextPatientID int64, now time.Time) error {
	res := tx.Model(&model.BedTurnover{}).
		Where("id = ? AND status = ?", turnoverID, model.TurnoverReady).
		Updates(map[string]any{
			"status":               model.TurnoverAssigned,
			"next_patient_id":      nextPatientID,
			"next_assignment_time": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.InvalidState("turnover %s is not ready for assignment", turnoverID)
	}
	return store.AppendTurnoverLog(tx, turnoverID, model.TurnoverReady, model.TurnoverAssigned, nil, "assigned to next patient")
}

// Status is the live progress view of a bed's turnover.
type Status struct {
	BedID                    int64      `json:"bedId"`
	BedStatus                string     `json:"bedStatus"`
	TurnoverID               string     `json:"turnoverId,omitempty"`
	TurnoverStatus           string     `json:"turnoverStatus,omitempty"`
	EstimatedCleaningMinutes int        `json:"estimatedCleaningMinutes"`
	RemainingMinutes         float64    `json:"remainingMinutes"`
	ProgressPercent          float64    `json:"progressPercent"`
	EstimatedReadyTime       *time.Time `json:"estimatedReadyTime,omitempty"`
}

// GetStatusWithTimeRemaining reports how far along a bed's turnover is.
// Without an active turnover the bed reports zero remaining and 100%.
func (m *StateMachine) GetStatusWithTimeRemaining(ctx context.Context, bedID int64) (*Status, error) {
	db := m.store.DB().WithContext(ctx)

	bed, err := store.GetBed(db, bedID)
	if err != nil {
		return nil, err
	}

	t, err := store.ActiveTurnoverForBed(db, bedID)
	if err != nil {
		return nil, err
	}

	s := &Status{BedID: bedID, BedStatus: bed.Status}
	if t == nil {
		s.RemainingMinutes = 0
		s.ProgressPercent = 100
		return s, nil
	}

	s.TurnoverID = t.ID
	s.TurnoverStatus = t.Status
	s.EstimatedCleaningMinutes = t.EstimatedCleaningMinutes
	s.RemainingMinutes, s.ProgressPercent, s.EstimatedReadyTime = Progress(t, m.now())
	return s, nil
}

// Progress computes the remaining cleaning minutes, percent complete and
// projected ready time of an active turnover at the given instant. Cleaning
// that has not begun reports the full estimate at 0%; turnovers past the
// cleaning stage report zero remaining at 100%.
func Progress(t *model.BedTurnover, now time.Time) (remaining, percent float64, estReady *time.Time) {
	estimate := float64(t.EstimatedCleaningMinutes)
	switch t.Status {
	case model.TurnoverInitiated:
		return estimate, 0, nil
	case model.TurnoverCleaning:
		elapsed := now.Sub(*t.CleaningStartTime).Minutes()
		remaining = math.Max(0, estimate-elapsed)
		if estimate > 0 {
			percent = math.Min(100, elapsed/estimate*100)
		}
		ready := t.CleaningStartTime.Add(time.Duration(t.EstimatedCleaningMinutes) * time.Minute)
		return remaining, percent, &ready
	default:
		return 0, 100, nil
	}
}

// turnoverTx loads the turnover, then re-runs the load inside a transaction
// serialized on the turnover's bed before applying fn.
func (m *StateMachine) turnoverTx(ctx context.Context, turnoverID string, fn func(tx *gorm.DB, t *model.BedTurnover) error) error {
	t, err := store.GetTurnover(m.store.DB().WithContext(ctx), turnoverID)
	if err != nil {
		return err
	}

	return m.store.BedTx(ctx, t.BedID, func(tx *gorm.DB) error {
		fresh, err := store.GetTurnover(tx, turnoverID)
		if err != nil {
			return err
		}
		return fn(tx, fresh)
	})
}

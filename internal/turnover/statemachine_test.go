package turnover

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bedflow-backend/internal/apperr"
	"bedflow-backend/internal/db"
	"bedflow-backend/internal/model"
	"bedflow-backend/internal/store"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		sqlDB.Close()
	})
	return gormDB
}

func seedHospital(t *testing.T, gormDB *gorm.DB) {
	t.Helper()
	require.NoError(t, gormDB.Create(&model.Department{ID: 1, Name: "ICU"}).Error)
	require.NoError(t, gormDB.Create(&model.Room{ID: 1, DepartmentID: 1, Number: "101"}).Error)
	require.NoError(t, gormDB.Create(&model.Bed{ID: 1, RoomID: 1, BedNumber: "101-A", Status: model.BedOccupied}).Error)
	require.NoError(t, gormDB.Create(&model.Patient{ID: 1, Name: "First Patient"}).Error)
	require.NoError(t, gormDB.Create(&model.Patient{ID: 2, Name: "Second Patient"}).Error)
	require.NoError(t, gormDB.Create(&model.Staff{ID: 10, Name: "Cleaner", Role: "cleaning"}).Error)
	require.NoError(t, gormDB.Create(&model.Staff{ID: 11, Name: "Inspector", Role: "inspection"}).Error)
	require.NoError(t, gormDB.Create(&model.Equipment{ID: 100, Name: "IV Pump"}).Error)
	require.NoError(t, gormDB.Create(&model.Equipment{ID: 101, Name: "Monitor"}).Error)
}

func newTestStateMachine(t *testing.T) (*StateMachine, *gorm.DB) {
	t.Helper()
	gormDB := newTestDB(t)
	seedHospital(t, gormDB)
	sm := NewStateMachine(store.New(gormDB), Durations{StandardMinutes: 45, DeepCleanMinutes: 60}, testLogger())
	return sm, gormDB
}

func TestStart(t *testing.T) {
	sm, gormDB := newTestStateMachine(t)
	ctx := context.Background()
	prev := int64(1)

	t.Run("standard turnover estimates 45 minutes", func(t *testing.T) {
		tr, err := sm.Start(ctx, StartParams{BedID: 1, PreviousPatientID: &prev, TurnoverType: model.TurnoverStandard, EquipmentIDs: []int64{100, 101}})
		require.NoError(t, err)
		assert.Equal(t, model.TurnoverInitiated, tr.Status)
		assert.Equal(t, 45, tr.EstimatedCleaningMinutes)
		assert.Equal(t, model.PriorityNormal, tr.Priority)

		var bed model.Bed
		require.NoError(t, gormDB.First(&bed, 1).Error)
		assert.Equal(t, model.BedCleaning, bed.Status)
		assert.Nil(t, bed.CurrentPatientID)

		var equipmentRows []model.EquipmentTurnover
		require.NoError(t, gormDB.Where("bed_turnover_id = ?", tr.ID).Find(&equipmentRows).Error)
		require.Len(t, equipmentRows, 2)
		for _, row := range equipmentRows {
			assert.Equal(t, model.EquipmentNeedsCleaning, row.Status)
			assert.NotNil(t, row.ReleaseTime)
		}

		var logs []model.TurnoverLog
		require.NoError(t, gormDB.Where("turnover_id = ?", tr.ID).Find(&logs).Error)
		assert.Len(t, logs, 1)
	})

	t.Run("second start on the same bed conflicts", func(t *testing.T) {
		_, err := sm.Start(ctx, StartParams{BedID: 1})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrConflict)

		var active int64
		gormDB.Model(&model.BedTurnover{}).
			Where("bed_id = ? AND status IN ?", 1, model.ActiveTurnoverStatuses).
			Count(&active)
		assert.Equal(t, int64(1), active)
	})

	t.Run("unknown bed is not found", func(t *testing.T) {
		_, err := sm.Start(ctx, StartParams{BedID: 999})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("unsupported turnover type is rejected", func(t *testing.T) {
		_, err := sm.Start(ctx, StartParams{BedID: 1, TurnoverType: "extreme"})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func TestStartDeepClean(t *testing.T) {
	sm, _ := newTestStateMachine(t)

	tr, err := sm.Start(context.Background(), StartParams{BedID: 1, TurnoverType: model.TurnoverDeepClean, Priority: model.PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, 60, tr.EstimatedCleaningMinutes)
	assert.Equal(t, model.PriorityHigh, tr.Priority)
}

func TestCleaningLifecycle(t *testing.T) {
	sm, gormDB := newTestStateMachine(t)
	ctx := context.Background()

	tr, err := sm.Start(ctx, StartParams{BedID: 1})
	require.NoError(t, err)

	tr, err = sm.BeginCleaning(ctx, tr.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, model.TurnoverCleaning, tr.Status)
	require.NotNil(t, tr.CleaningStartTime)
	require.NotNil(t, tr.AssignedCleanerID)
	assert.Equal(t, int64(10), *tr.AssignedCleanerID)

	t.Run("begin twice is invalid", func(t *testing.T) {
		_, err := sm.BeginCleaning(ctx, tr.ID, 10)
		assert.ErrorIs(t, err, apperr.ErrInvalidState)
	})

	t.Run("failed inspection keeps the bed out of service", func(t *testing.T) {
		got, err := sm.CompleteCleaning(ctx, tr.ID, 11, false, "stains on rail")
		require.NoError(t, err)
		assert.Equal(t, model.TurnoverCleaningComplete, got.Status)
		assert.Equal(t, model.InspectionFail, got.InspectionPassed)
		assert.Nil(t, got.ReadyTime)

		var bed model.Bed
		require.NoError(t, gormDB.First(&bed, 1).Error)
		assert.Equal(t, model.BedCleaning, bed.Status)
	})

	t.Run("reopen sends the turnover back into cleaning", func(t *testing.T) {
		got, err := sm.ReopenForCleaning(ctx, tr.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, model.TurnoverCleaning, got.Status)
		assert.Equal(t, model.InspectionPending, got.InspectionPassed)
		assert.Nil(t, got.CleaningEndTime)
	})

	t.Run("passed inspection readies the bed", func(t *testing.T) {
		got, err := sm.CompleteCleaning(ctx, tr.ID, 11, true, "all clear")
		require.NoError(t, err)
		assert.Equal(t, model.TurnoverReady, got.Status)
		assert.Equal(t, model.InspectionPass, got.InspectionPassed)
		require.NotNil(t, got.ReadyTime)

		var bed model.Bed
		require.NoError(t, gormDB.First(&bed, 1).Error)
		assert.Equal(t, model.BedAvailable, bed.Status)
	})

	t.Run("completing a ready turnover is invalid", func(t *testing.T) {
		_, err := sm.CompleteCleaning(ctx, tr.ID, 11, true, "")
		assert.ErrorIs(t, err, apperr.ErrInvalidState)
	})

	t.Run("reopening a ready turnover is invalid", func(t *testing.T) {
		_, err := sm.ReopenForCleaning(ctx, tr.ID, nil)
		assert.ErrorIs(t, err, apperr.ErrInvalidState)
	})
}

func TestCompleteCleaningNotFound(t *testing.T) {
	sm, _ := newTestStateMachine(t)
	_, err := sm.CompleteCleaning(context.Background(), "no-such-turnover", 11, true, "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCancel(t *testing.T) {
	sm, gormDB := newTestStateMachine(t)
	ctx := context.Background()

	tr, err := sm.Start(ctx, StartParams{BedID: 1})
	require.NoError(t, err)

	got, err := sm.Cancel(ctx, tr.ID, nil, "discharge reverted")
	require.NoError(t, err)
	assert.Equal(t, model.TurnoverCancelled, got.Status)

	// Cancelled cycles leave the bed unverified, so it parks in maintenance.
	var bed model.Bed
	require.NoError(t, gormDB.First(&bed, 1).Error)
	assert.Equal(t, model.BedMaintenance, bed.Status)

	t.Run("cancel twice is invalid", func(t *testing.T) {
		_, err := sm.Cancel(ctx, tr.ID, nil, "")
		assert.ErrorIs(t, err, apperr.ErrInvalidState)
	})

	t.Run("a new turnover can start after cancellation", func(t *testing.T) {
		_, err := sm.Start(ctx, StartParams{BedID: 1})
		require.NoError(t, err)
	})
}

func TestGetStatusWithTimeRemaining(t *testing.T) {
	sm, _ := newTestStateMachine(t)
	ctx := context.Background()

	tr, err := sm.Start(ctx, StartParams{BedID: 1})
	require.NoError(t, err)

	t.Run("initiated reports the full estimate", func(t *testing.T) {
		s, err := sm.GetStatusWithTimeRemaining(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, model.TurnoverInitiated, s.TurnoverStatus)
		assert.Equal(t, float64(45), s.RemainingMinutes)
		assert.Equal(t, float64(0), s.ProgressPercent)
	})

	_, err = sm.BeginCleaning(ctx, tr.ID, 10)
	require.NoError(t, err)

	var fresh model.BedTurnover
	require.NoError(t, sm.store.DB().First(&fresh, "id = ?", tr.ID).Error)
	start := *fresh.CleaningStartTime

	t.Run("20 minutes in, about 25 remain", func(t *testing.T) {
		sm.now = func() time.Time { return start.Add(20 * time.Minute) }
		s, err := sm.GetStatusWithTimeRemaining(ctx, 1)
		require.NoError(t, err)
		assert.InDelta(t, 25, s.RemainingMinutes, 0.01)
		assert.InDelta(t, 44.44, s.ProgressPercent, 0.05)
		require.NotNil(t, s.EstimatedReadyTime)
	})

	t.Run("past the estimate, zero remains at 100%", func(t *testing.T) {
		sm.now = func() time.Time { return start.Add(50 * time.Minute) }
		s, err := sm.GetStatusWithTimeRemaining(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, float64(0), s.RemainingMinutes)
		assert.Equal(t, float64(100), s.ProgressPercent)
	})

	t.Run("no active turnover reports done", func(t *testing.T) {
		sm.now = time.Now
		_, err := sm.Cancel(ctx, tr.ID, nil, "")
		require.NoError(t, err)

		s, err := sm.GetStatusWithTimeRemaining(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, s.TurnoverID)
		assert.Equal(t, float64(0), s.RemainingMinutes)
		assert.Equal(t, float64(100), s.ProgressPercent)
	})

	t.Run("unknown bed is not found", func(t *testing.T) {
		_, err := sm.GetStatusWithTimeRemaining(ctx, 999)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

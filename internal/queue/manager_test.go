package queue

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

func newTestManager(t *testing.T) (*Manager, *gorm.DB) {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		sqlDB.Close()
	})

	require.NoError(t, gormDB.Create(&model.Department{ID: 1, Name: "ICU"}).Error)
	require.NoError(t, gormDB.Create(&model.Department{ID: 2, Name: "Cardiology"}).Error)
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, gormDB.Create(&model.Patient{ID: i, Name: "Patient"}).Error)
	}

	return NewManager(store.New(gormDB), testLogger()), gormDB
}

func TestEnqueuePositions(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	first, err := m.Enqueue(ctx, EnqueueParams{PatientID: 1, DepartmentID: 1})
	require.NoError(t, err)
	second, err := m.Enqueue(ctx, EnqueueParams{PatientID: 2, DepartmentID: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, first.QueuePosition)
	assert.Equal(t, 2, second.QueuePosition)
	assert.Equal(t, model.QueueWaiting, first.Status)

	t.Run("positions are per department", func(t *testing.T) {
		other, err := m.Enqueue(ctx, EnqueueParams{PatientID: 3, DepartmentID: 2})
		require.NoError(t, err)
		assert.Equal(t, 1, other.QueuePosition)
	})

	t.Run("cancelled positions are retired, not reused", func(t *testing.T) {
		_, err := m.Cancel(ctx, second.ID)
		require.NoError(t, err)

		third, err := m.Enqueue(ctx, EnqueueParams{PatientID: 4, DepartmentID: 1})
		require.NoError(t, err)
		assert.Equal(t, 3, third.QueuePosition)
	})
}

func TestEnqueueValidation(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	t.Run("unknown department", func(t *testing.T) {
		_, err := m.Enqueue(ctx, EnqueueParams{PatientID: 1, DepartmentID: 99})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("unknown patient", func(t *testing.T) {
		_, err := m.Enqueue(ctx, EnqueueParams{PatientID: 99, DepartmentID: 1})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("unsupported priority", func(t *testing.T) {
		_, err := m.Enqueue(ctx, EnqueueParams{PatientID: 1, DepartmentID: 1, Priority: "critical"})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func TestListOrdersByPriorityRankThenPosition(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	// An urgent late arrival must outrank an earlier normal entry; a lexical
	// sort on the label would get this backwards.
	normal, err := m.Enqueue(ctx, EnqueueParams{PatientID: 1, DepartmentID: 1, Priority: model.PriorityNormal})
	require.NoError(t, err)
	urgent, err := m.Enqueue(ctx, EnqueueParams{PatientID: 2, DepartmentID: 1, Priority: model.PriorityUrgent})
	require.NoError(t, err)
	low, err := m.Enqueue(ctx, EnqueueParams{PatientID: 3, DepartmentID: 1, Priority: model.PriorityLow})
	require.NoError(t, err)
	high, err := m.Enqueue(ctx, EnqueueParams{PatientID: 4, DepartmentID: 1, Priority: model.PriorityHigh})
	require.NoError(t, err)

	dept := int64(1)
	entries, err := m.List(ctx, &dept, "")
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, urgent.ID, entries[0].ID)
	assert.Equal(t, high.ID, entries[1].ID)
	assert.Equal(t, normal.ID, entries[2].ID)
	assert.Equal(t, low.ID, entries[3].ID)

	t.Run("same priority orders by position", func(t *testing.T) {
		urgent2, err := m.Enqueue(ctx, EnqueueParams{PatientID: 5, DepartmentID: 1, Priority: model.PriorityUrgent})
		require.NoError(t, err)

		entries, err := m.List(ctx, &dept, "")
		require.NoError(t, err)
		require.Len(t, entries, 5)
		assert.Equal(t, urgent.ID, entries[0].ID)
		assert.Equal(t, urgent2.ID, entries[1].ID)
	})

	t.Run("unsupported status is rejected", func(t *testing.T) {
		_, err := m.List(ctx, &dept, "sleeping")
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func TestCancel(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	entry, err := m.Enqueue(ctx, EnqueueParams{PatientID: 1, DepartmentID: 1})
	require.NoError(t, err)

	got, err := m.Cancel(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QueueCancelled, got.Status)

	t.Run("cancel twice is invalid", func(t *testing.T) {
		_, err := m.Cancel(ctx, entry.ID)
		assert.ErrorIs(t, err, apperr.ErrInvalidState)
	})

	t.Run("cancel unknown entry is not found", func(t *testing.T) {
		_, err := m.Cancel(ctx, "no-such-entry")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestNextWaiting(t *testing.T) {
	m, gormDB := newTestManager(t)
	ctx := context.Background()

	normal, err := m.Enqueue(ctx, EnqueueParams{PatientID: 1, DepartmentID: 1, Priority: model.PriorityNormal})
	require.NoError(t, err)
	urgent, err := m.Enqueue(ctx, EnqueueParams{PatientID: 2, DepartmentID: 1, Priority: model.PriorityUrgent})
	require.NoError(t, err)
	_ = normal

	entry, err := NextWaiting(gormDB, 1, "")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, urgent.ID, entry.ID)

	t.Run("bed type requirement filters candidates", func(t *testing.T) {
		icu, err := m.Enqueue(ctx, EnqueueParams{PatientID: 3, DepartmentID: 1, Priority: model.PriorityUrgent, BedTypeRequired: "icu"})
		require.NoError(t, err)

		got, err := NextWaiting(gormDB, 1, "icu")
		require.NoError(t, err)
		require.NotNil(t, got)
		// Same rank as the untyped urgent entry, but that one came first.
		assert.Equal(t, urgent.ID, got.ID)

		// Once the untyped urgent entry is claimed, the icu-typed one wins
		// on an icu bed but is invisible to a plain bed.
		require.NoError(t, Claim(gormDB, urgent.ID, 1, time.Now().UTC()))
		got, err = NextWaiting(gormDB, 1, "icu")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, icu.ID, got.ID)

		got, err = NextWaiting(gormDB, 1, "")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, normal.ID, got.ID)
	})

	t.Run("claiming twice conflicts", func(t *testing.T) {
		err := Claim(gormDB, urgent.ID, 1, time.Now().UTC())
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("empty department yields nil", func(t *testing.T) {
		got, err := NextWaiting(gormDB, 2, "")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

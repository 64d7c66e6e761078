package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"daily_tracker/internal/records"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "data", "daily.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(id, day, sales, expenses string, created time.Time) *records.DailyRecord {
	date, _ := time.Parse(records.DateLayout, day)
	s := decimal.RequireFromString(sales)
	e := decimal.RequireFromString(expenses)
	return &records.DailyRecord{
		ID:        id,
		Date:      date,
		Sales:     s,
		Expenses:  e,
		Profit:    s.Sub(e),
		Notes:     "",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestSQLiteStorage_CreateAndRead(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	created := time.Date(2024, 1, 1, 10, 30, 0, 123, time.UTC)

	rec := testRecord("r1", "2024-01-01", "100.10", "40.05", created)
	rec.Notes = "first"
	require.NoError(t, s.Create(ctx, rec))

	got, err := s.Read(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, rec.Date, got.Date)
	assert.True(t, got.Sales.Equal(rec.Sales))
	assert.True(t, got.Expenses.Equal(rec.Expenses))
	assert.Equal(t, "60.05", got.Profit.String())
	assert.Equal(t, "first", got.Notes)
	assert.True(t, got.CreatedAt.Equal(created))
}

func TestSQLiteStorage_CreateRejectsEmptyID(t *testing.T) {
	s := newTestStorage(t)
	err := s.Create(context.Background(), &records.DailyRecord{})
	assert.ErrorIs(t, err, records.ErrEmptyID)
}

func TestSQLiteStorage_ReadMissing(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.Read(context.Background(), "nope")
	assert.ErrorIs(t, err, records.ErrNotFound)
}

func TestSQLiteStorage_GetAllOrder(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	t0 := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, s.Create(ctx, testRecord("d2", "2024-01-02", "1", "0", t0)))
	require.NoError(t, s.Create(ctx, testRecord("d1", "2024-01-01", "1", "0", t0)))
	require.NoError(t, s.Create(ctx, testRecord("d3-old", "2024-01-03", "1", "0", t0)))
	require.NoError(t, s.Create(ctx, testRecord("d3-new", "2024-01-03", "1", "0", t0.Add(time.Second))))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(all))
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"d3-new", "d3-old", "d2", "d1"}, ids)
}

func TestSQLiteStorage_GetAllEmpty(t *testing.T) {
	s := newTestStorage(t)
	all, err := s.GetAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestSQLiteStorage_Update(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Create(ctx, testRecord("r1", "2024-01-01", "100", "40", t0)))

	updated, err := s.Update(ctx, "r1", func(r *records.DailyRecord) error {
		r.Sales = decimal.NewFromInt(150)
		r.Profit = r.Sales.Sub(r.Expenses)
		r.UpdatedAt = t0.Add(time.Hour)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "110", updated.Profit.String())

	got, err := s.Read(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "150", got.Sales.String())
	assert.Equal(t, "110", got.Profit.String())
	assert.True(t, got.UpdatedAt.Equal(t0.Add(time.Hour)))
	assert.True(t, got.CreatedAt.Equal(t0))
}

func TestSQLiteStorage_UpdateMissing(t *testing.T) {
	s := newTestStorage(t)
	called := false
	_, err := s.Update(context.Background(), "nope", func(*records.DailyRecord) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, records.ErrNotFound)
	assert.False(t, called)
}

func TestSQLiteStorage_UpdateMutateErrorRollsBack(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testRecord("r1", "2024-01-01", "1", "1", time.Now().UTC())))

	stop := errors.New("stop")
	_, err := s.Update(ctx, "r1", func(r *records.DailyRecord) error {
		r.Notes = "should not persist"
		return stop
	})
	assert.ErrorIs(t, err, stop)

	got, err := s.Read(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "", got.Notes)
}

func TestSQLiteStorage_Delete(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testRecord("r1", "2024-01-01", "1", "1", time.Now().UTC())))

	require.NoError(t, s.Delete(ctx, "r1"))
	assert.ErrorIs(t, s.Delete(ctx, "r1"), records.ErrNotFound)

	_, err := s.Read(ctx, "r1")
	assert.ErrorIs(t, err, records.ErrNotFound)
}

func TestSQLiteStorage_UpdateAfterDelete(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testRecord("r1", "2024-01-01", "1", "1", time.Now().UTC())))
	require.NoError(t, s.Delete(ctx, "r1"))

	called := false
	got, err := s.Update(ctx, "r1", func(r *records.DailyRecord) error {
		called = true
		r.Notes = "resurrected"
		return nil
	})
	assert.ErrorIs(t, err, records.ErrNotFound)
	assert.Nil(t, got)
	assert.False(t, called)

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSQLiteStorage_DeleteWaitsForOpenUpdate(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testRecord("r1", "2024-01-01", "1", "1", time.Now().UTC())))

	deleted := make(chan error, 1)
	_, err := s.Update(ctx, "r1", func(r *records.DailyRecord) error {
		go func() { deleted <- s.Delete(ctx, "r1") }()

		// The update holds the write lock, so the delete cannot finish yet.
		select {
		case err := <-deleted:
			t.Errorf("delete finished inside an open update: %v", err)
		case <-time.After(100 * time.Millisecond):
		}
		r.Notes = "edited"
		return nil
	})
	require.NoError(t, err)

	select {
	case err := <-deleted:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("delete did not complete after the update committed")
	}

	_, err = s.Read(ctx, "r1")
	assert.ErrorIs(t, err, records.ErrNotFound)
}

func TestSQLiteStorage_ConcurrentUpdateAndDelete(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testRecord("r1", "2024-01-01", "10", "1", time.Now().UTC())))

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers+1)

	wg.Add(writers + 1)
	for i := 0; i < writers; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := s.Update(ctx, "r1", func(r *records.DailyRecord) error {
				r.Sales = decimal.NewFromInt(int64(100 + i))
				r.Profit = r.Sales.Sub(r.Expenses)
				return nil
			})
			errs <- err
		}(i)
	}
	go func() {
		defer wg.Done()
		errs <- s.Delete(ctx, "r1")
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, records.ErrNotFound)
		}
	}

	_, err := s.Read(ctx, "r1")
	assert.ErrorIs(t, err, records.ErrNotFound)
	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSQLiteStorage_WithService(t *testing.T) {
	s := newTestStorage(t)
	svc := records.NewService(s, zaptest.NewLogger(t))
	ctx := context.Background()

	date := "2024-01-01"
	sales := decimal.NewFromInt(100)
	expenses := decimal.NewFromInt(40)
	rec, err := svc.Create(ctx, records.CreateInput{Date: &date, Sales: &sales, Expenses: &expenses})
	require.NoError(t, err)
	assert.Equal(t, "60", rec.Profit.String())

	newSales := decimal.NewFromInt(150)
	updated, err := svc.Update(ctx, rec.ID, records.UpdateInput{Sales: &newSales})
	require.NoError(t, err)
	assert.Equal(t, "110", updated.Profit.String())

	require.NoError(t, svc.Delete(ctx, rec.ID))
	_, err = svc.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, records.ErrNotFound)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daily.db")
	logger := zaptest.NewLogger(t)

	first, err := RunMigrations(DSN(path), logger)
	require.NoError(t, err)
	second, err := RunMigrations(DSN(path), logger)
	require.NoError(t, err)

	assert.Equal(t, uint(1), first)
	assert.Equal(t, first, second)
}

func TestRunMigrationsRejectsDirtySchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daily.db")
	_, err := RunMigrations(DSN(path), zaptest.NewLogger(t))
	require.NoError(t, err)

	db, err := sql.Open(driverName, DSN(path))
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE schema_migrations SET dirty = 1`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	version, err := RunMigrations(DSN(path), zaptest.NewLogger(t))
	assert.ErrorIs(t, err, ErrDirtySchema)
	assert.Equal(t, uint(1), version)

	_, err = NewSQLiteStorage(path, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, ErrDirtySchema)
}

package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrValidation marks input the service refuses to persist. The wrapped
// message is safe to show to the caller.
var ErrValidation = errors.New("validation failed")

// Service provides the daily record operations on a Storage backend.
type Service struct {
	storage Storage
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a new Service.
func NewService(storage Storage, logger *zap.Logger) *Service {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	return &Service{
		storage: storage,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// List returns all records, newest date first.
func (s *Service) List(ctx context.Context) ([]*DailyRecord, error) {
	all, err := s.storage.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to list records", zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve records: %w", err)
	}
	s.logger.Debug("records listed", zap.Int("count", len(all)))
	return all, nil
}

// Create validates the input, derives profit and persists a new record.
func (s *Service) Create(ctx context.Context, in CreateInput) (*DailyRecord, error) {
	if in.Date == nil || in.Sales == nil || in.Expenses == nil {
		return nil, fmt.Errorf("%w: missing required fields", ErrValidation)
	}
	date, err := ParseDate(*in.Date)
	if err != nil {
		return nil, err
	}
	if err := validateAmount("sales", *in.Sales); err != nil {
		return nil, err
	}
	if err := validateAmount("expenses", *in.Expenses); err != nil {
		return nil, err
	}

	now := s.now()
	rec := &DailyRecord{
		ID:        uuid.NewString(),
		Date:      date,
		Sales:     *in.Sales,
		Expenses:  *in.Expenses,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Notes != nil {
		rec.Notes = *in.Notes
	}
	rec.recompute()

	if err := s.storage.Create(ctx, rec); err != nil {
		s.logger.Error("failed to save record", zap.String("record_id", rec.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to save record: %w", err)
	}

	s.logger.Info("record created",
		zap.String("record_id", rec.ID),
		zap.String("date", rec.Date.Format(DateLayout)),
		zap.Stringer("profit", rec.Profit),
	)
	return rec, nil
}

// Get returns the record with the given ID or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*DailyRecord, error) {
	rec, err := s.storage.Read(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error("failed to read record", zap.String("record_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	return rec, nil
}

// Update applies a partial update and recomputes profit from the
// effective sales and expenses.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*DailyRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	rec, err := s.storage.Update(ctx, id, func(r *DailyRecord) error {
		in.apply(r)
		r.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error("failed to update record", zap.String("record_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update record: %w", err)
	}

	s.logger.Info("record updated", zap.String("record_id", rec.ID), zap.Stringer("profit", rec.Profit))
	return rec, nil
}

// Delete removes the record with the given ID.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.storage.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		s.logger.Error("failed to delete record", zap.String("record_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete record: %w", err)
	}

	s.logger.Info("record deleted", zap.String("record_id", id))
	return nil
}

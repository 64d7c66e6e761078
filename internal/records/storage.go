package records

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned when a record with the given ID is not found.
var ErrNotFound = errors.New("record not found")

// ErrEmptyID is returned when trying to store a record with an empty ID.
var ErrEmptyID = errors.New("empty record ID")

// MutateFunc edits a record in place inside Storage.Update.
type MutateFunc func(r *DailyRecord) error

// Storage is the main interface for our daily record storage layer.
type Storage interface {
	Create(ctx context.Context, r *DailyRecord) error
	Read(ctx context.Context, id string) (*DailyRecord, error)
	// GetAll returns every record, newest date first.
	GetAll(ctx context.Context) ([]*DailyRecord, error)
	// Update applies mutate to the stored record and persists the result
	// as one atomic step. Returns ErrNotFound if id does not exist.
	Update(ctx context.Context, id string, mutate MutateFunc) (*DailyRecord, error)
	Delete(ctx context.Context, id string) error
}

// LocalStorage provides an in-memory implementation for storing records.
type LocalStorage struct {
	mu sync.RWMutex
	m  map[string]*DailyRecord
}

// NewLocalStorage instantiates a new LocalStorage with an empty map.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		m: map[string]*DailyRecord{},
	}
}

// Create stores a copy of r.
// Returns ErrEmptyID if the record has an empty ID.
func (l *LocalStorage) Create(_ context.Context, r *DailyRecord) error {
	if r.ID == "" {
		return ErrEmptyID
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.m[r.ID] = r.clone()
	return nil
}

// Read retrieves a record by ID.
// Returns ErrNotFound if the record is not found.
func (l *LocalStorage) Read(_ context.Context, id string) (*DailyRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.clone(), nil
}

func (l *LocalStorage) GetAll(_ context.Context) ([]*DailyRecord, error) {
	l.mu.RLock()
	all := make([]*DailyRecord, 0, len(l.m))
	for _, r := range l.m {
		all = append(all, r.clone())
	}
	l.mu.RUnlock()

	sortNewestFirst(all)
	return all, nil
}

func (l *LocalStorage) Update(_ context.Context, id string, mutate MutateFunc) (*DailyRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, ok := l.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := cur.clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	l.m[id] = next
	return next.clone(), nil
}

func (l *LocalStorage) Delete(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.m[id]; !ok {
		return ErrNotFound
	}
	delete(l.m, id)
	return nil
}

// sortNewestFirst orders by date descending, then by creation time descending.
func sortNewestFirst(all []*DailyRecord) {
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.After(all[j].Date)
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
}

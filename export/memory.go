package export

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryActivityLog keeps export activity in memory (test/dev only).
type MemoryActivityLog struct {
	mu      sync.RWMutex
	records map[string]ActivityRecord
	counter uint64
}

// NewMemoryActivityLog creates an in-memory activity log.
func NewMemoryActivityLog() *MemoryActivityLog {
	return &MemoryActivityLog{records: make(map[string]ActivityRecord)}
}

// Record stores a record, assigning an ID and timestamp when missing.
func (l *MemoryActivityLog) Record(ctx context.Context, record ActivityRecord) error {
	_ = ctx
	if record.ID == "" {
		record.ID = l.nextID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	l.mu.Lock()
	if l.records == nil {
		l.records = make(map[string]ActivityRecord)
	}
	l.records[record.ID] = record
	l.mu.Unlock()
	return nil
}

// Get returns a record by ID.
func (l *MemoryActivityLog) Get(ctx context.Context, id string) (ActivityRecord, error) {
	_ = ctx
	l.mu.RLock()
	record, ok := l.records[id]
	l.mu.RUnlock()
	if !ok {
		return ActivityRecord{}, NewError(KindNotFound, fmt.Sprintf("activity %q not found", id), nil)
	}
	return record, nil
}

// List returns matching records, newest first.
func (l *MemoryActivityLog) List(ctx context.Context, filter ActivityFilter) ([]ActivityRecord, error) {
	_ = ctx
	result := []ActivityRecord{}

	l.mu.RLock()
	for _, record := range l.records {
		if filter.Match(record) {
			result = append(result, record)
		}
	}
	l.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Prune removes records matching filter created before filter.Until.
func (l *MemoryActivityLog) Prune(ctx context.Context, filter ActivityFilter) (int64, error) {
	_ = ctx
	if filter.Until.IsZero() {
		return 0, NewError(KindValidation, "prune cutoff is required", nil)
	}
	var removed int64

	l.mu.Lock()
	for id, record := range l.records {
		if filter.Expired(record) {
			delete(l.records, id)
			removed++
		}
	}
	l.mu.Unlock()
	return removed, nil
}

func (l *MemoryActivityLog) nextID() string {
	id := atomic.AddUint64(&l.counter, 1)
	return fmt.Sprintf("act-%d", id)
}

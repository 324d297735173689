package record

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/indieinfra/cloudshelf/media"
)

// MemoryRecordStore keeps records in process memory. Everything is lost on
// restart; it backs tests and throwaway deployments.
type MemoryRecordStore struct {
	mu          sync.RWMutex
	collections map[media.Kind][]*Record
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{collections: make(map[media.Kind][]*Record)}
}

func (ms *MemoryRecordStore) Insert(ctx context.Context, kind media.Kind, rec *Record) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	rec.ID = uuid.New().String()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	stored := *rec
	ms.collections[kind] = append(ms.collections[kind], &stored)
	return nil
}

func (ms *MemoryRecordStore) FindAll(ctx context.Context, kind media.Kind) ([]*Record, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	out := make([]*Record, 0, len(ms.collections[kind]))
	for _, rec := range ms.collections[kind] {
		copied := *rec
		out = append(out, &copied)
	}

	return out, nil
}

func (ms *MemoryRecordStore) FindByID(ctx context.Context, kind media.Kind, id string) (*Record, error) {
	return ms.find(kind, func(r *Record) bool { return r.ID == id })
}

func (ms *MemoryRecordStore) FindByExternalID(ctx context.Context, kind media.Kind, externalID string) (*Record, error) {
	return ms.find(kind, func(r *Record) bool { return r.ExternalID == externalID })
}

func (ms *MemoryRecordStore) DeleteByID(ctx context.Context, kind media.Kind, id string) error {
	return ms.remove(kind, func(r *Record) bool { return r.ID == id })
}

func (ms *MemoryRecordStore) DeleteByExternalID(ctx context.Context, kind media.Kind, externalID string) error {
	return ms.remove(kind, func(r *Record) bool { return r.ExternalID == externalID })
}

func (ms *MemoryRecordStore) find(kind media.Kind, match func(*Record) bool) (*Record, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for _, rec := range ms.collections[kind] {
		if match(rec) {
			copied := *rec
			return &copied, nil
		}
	}

	return nil, ErrNotFound
}

func (ms *MemoryRecordStore) remove(kind media.Kind, match func(*Record) bool) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	records := ms.collections[kind]
	for i, rec := range records {
		if match(rec) {
			ms.collections[kind] = append(records[:i:i], records[i+1:]...)
			return nil
		}
	}

	return ErrNotFound
}

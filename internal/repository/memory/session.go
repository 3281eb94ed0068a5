package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/rehab-api/internal/model"
)

// SessionHistoryRepository is an in-memory session store for tests. Records
// are returned ordered by date ascending.
type SessionHistoryRepository struct {
	mu      sync.RWMutex
	records []model.SessionRecord
}

func NewSessionHistoryRepository(records ...model.SessionRecord) *SessionHistoryRepository {
	return &SessionHistoryRepository{records: records}
}

func (r *SessionHistoryRepository) Add(records ...model.SessionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, records...)
}

func (r *SessionHistoryRepository) List(ctx context.Context, patientID, exerciseID uuid.UUID, since time.Time) ([]model.SessionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.SessionRecord
	for _, rec := range r.records {
		if rec.PatientID != patientID || rec.ExerciseID != exerciseID {
			continue
		}
		if !since.IsZero() && rec.Date.Before(since) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

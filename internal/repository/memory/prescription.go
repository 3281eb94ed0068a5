package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/rehab-api/internal/model"
	"github.com/jwalitptl/rehab-api/pkg/errors"
)

// PrescriptionRepository is an in-memory implementation used by tests and
// local development. Copies in and out are deep so callers never share
// state with the store.
type PrescriptionRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*model.Prescription
}

func NewPrescriptionRepository() *PrescriptionRepository {
	return &PrescriptionRepository{
		items: make(map[uuid.UUID]*model.Prescription),
	}
}

func (r *PrescriptionRepository) Create(ctx context.Context, p *model.Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[p.ID]; exists {
		return errors.StateConflict("prescription already exists", nil)
	}
	r.items[p.ID] = clonePrescription(p)
	return nil
}

func (r *PrescriptionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.items[id]
	if !ok {
		return nil, errors.NotFound("prescription", nil)
	}
	return clonePrescription(stored), nil
}

func (r *PrescriptionRepository) Update(ctx context.Context, p *model.Prescription, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[p.ID]
	if !ok {
		return errors.NotFound("prescription", nil)
	}
	if stored.Version != expectedVersion {
		return errors.StateConflict("prescription version is stale", clonePrescription(stored))
	}
	r.items[p.ID] = clonePrescription(p)
	return nil
}

func (r *PrescriptionRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.Prescription
	for _, p := range r.items {
		if p.PatientID == patientID {
			out = append(out, clonePrescription(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func clonePrescription(p *model.Prescription) *model.Prescription {
	raw, err := json.Marshal(p)
	if err != nil {
		panic(err)
	}
	var out model.Prescription
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return &out
}

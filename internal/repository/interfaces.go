package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/rehab-api/internal/model"
)

// All repository interfaces in one file
type (
	// TemplateRepository serves immutable exercise program templates.
	TemplateRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Template, error)
		List(ctx context.Context) ([]*model.Template, error)
	}

	// PrescriptionRepository persists prescriptions. Update is a
	// compare-and-swap on expectedVersion and fails with a state conflict
	// when the stored version has advanced.
	PrescriptionRepository interface {
		Create(ctx context.Context, p *model.Prescription) error
		Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error)
		Update(ctx context.Context, p *model.Prescription, expectedVersion int64) error
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error)
	}

	// SessionHistoryRepository serves recorded exercise sessions, ordered
	// by date ascending.
	SessionHistoryRepository interface {
		List(ctx context.Context, patientID, exerciseID uuid.UUID, since time.Time) ([]model.SessionRecord, error)
	}
)

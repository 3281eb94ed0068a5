package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type PrescriptionStatus string

const (
	PrescriptionStatusDraft     PrescriptionStatus = "draft"
	PrescriptionStatusActive    PrescriptionStatus = "active"
	PrescriptionStatusPaused    PrescriptionStatus = "paused"
	PrescriptionStatusCompleted PrescriptionStatus = "completed"
	PrescriptionStatusCancelled PrescriptionStatus = "cancelled"
)

// Terminal reports whether the status permits no further transitions.
func (s PrescriptionStatus) Terminal() bool {
	return s == PrescriptionStatusCompleted || s == PrescriptionStatusCancelled
}

type DifficultyLevel string

const (
	DifficultyBeginner     DifficultyLevel = "beginner"
	DifficultyIntermediate DifficultyLevel = "intermediate"
	DifficultyAdvanced     DifficultyLevel = "advanced"
)

type GoalPriority string

const (
	GoalPriorityLow    GoalPriority = "low"
	GoalPriorityMedium GoalPriority = "medium"
	GoalPriorityHigh   GoalPriority = "high"
)

// Prescription is a provider-authored exercise program for a patient. All
// mutation goes through the prescription service; Version implements
// optimistic concurrency.
type Prescription struct {
	ID          uuid.UUID             `db:"id" json:"id"`
	ProviderID  uuid.UUID             `db:"provider_id" json:"provider_id"`
	PatientID   uuid.UUID             `db:"patient_id" json:"patient_id"`
	Title       string                `db:"title" json:"title"`
	Description string                `db:"description" json:"description,omitempty"`
	Status      PrescriptionStatus    `db:"status" json:"status"`
	StartDate   time.Time             `db:"start_date" json:"start_date"`
	EndDate     *time.Time            `db:"end_date" json:"end_date,omitempty"`
	Exercises   []PrescribedExercise  `json:"exercises"`
	Goals       []Goal                `json:"goals"`
	Notes       string                `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time             `db:"updated_at" json:"updated_at"`
	Version     int64                 `db:"version" json:"version"`
}

// Exercise returns the prescribed exercise with the given id, or nil.
func (p *Prescription) Exercise(id uuid.UUID) *PrescribedExercise {
	for i := range p.Exercises {
		if p.Exercises[i].ID == id {
			return &p.Exercises[i]
		}
	}
	return nil
}

func (p *Prescription) Validate() error {
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return fmt.Errorf("end date %s is before start date %s", p.EndDate.Format(time.RFC3339), p.StartDate.Format(time.RFC3339))
	}
	if p.Status != PrescriptionStatusDraft && len(p.Exercises) == 0 {
		return fmt.Errorf("prescription in status %q must have at least one exercise", p.Status)
	}
	seen := make(map[uuid.UUID]struct{}, len(p.Exercises))
	for i := range p.Exercises {
		ex := &p.Exercises[i]
		if _, dup := seen[ex.ID]; dup {
			return fmt.Errorf("duplicate exercise id %s", ex.ID)
		}
		seen[ex.ID] = struct{}{}
		if err := ex.Validate(); err != nil {
			return fmt.Errorf("exercise %q: %w", ex.Name, err)
		}
	}
	return nil
}

// PrescribedExercise is owned exclusively by its prescription.
type PrescribedExercise struct {
	ID                uuid.UUID              `json:"id"`
	Name              string                 `json:"name"`
	Description       string                 `json:"description,omitempty"`
	Difficulty        DifficultyLevel        `json:"difficulty"`
	Sets              int                    `json:"sets"`
	Reps              Reps                   `json:"reps"`
	TimesPerWeek      int                    `json:"times_per_week"`
	FormCues          []string               `json:"form_cues,omitempty"`
	RepCeiling        *int                   `json:"rep_ceiling,omitempty"`
	AdjustmentHistory []DifficultyAdjustment `json:"adjustment_history,omitempty"`
}

func (e *PrescribedExercise) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("name is required")
	}
	if e.Sets < 1 {
		return fmt.Errorf("sets must be positive, got %d", e.Sets)
	}
	if err := e.Reps.Validate(); err != nil {
		return err
	}
	if e.TimesPerWeek < 1 || e.TimesPerWeek > 7 {
		return fmt.Errorf("times per week must be between 1 and 7, got %d", e.TimesPerWeek)
	}
	return nil
}

type Goal struct {
	ID          uuid.UUID    `json:"id"`
	Type        string       `json:"type"`
	Description string       `json:"description"`
	Priority    GoalPriority `json:"priority"`
	Timeframe   string       `json:"timeframe,omitempty"`
}

type CreatePrescriptionRequest struct {
	ProviderID  uuid.UUID  `json:"provider_id" validate:"required"`
	PatientID   uuid.UUID  `json:"patient_id" validate:"required"`
	TemplateID  uuid.UUID  `json:"template_id" validate:"required"`
	Title       string     `json:"title" validate:"max=255"`
	Description string     `json:"description" validate:"max=2000"`
	StartDate   time.Time  `json:"start_date" validate:"required"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Notes       string     `json:"notes" validate:"max=2000"`
}

// TransitionRequest carries the caller-observed version so concurrent edits
// from another device surface as conflicts rather than silent overwrites.
type TransitionRequest struct {
	ProviderID      uuid.UUID `json:"provider_id" validate:"required"`
	ExpectedVersion int64     `json:"expected_version" validate:"gte=0"`
}

type AdjustPrescriptionRequest struct {
	ProviderID      uuid.UUID           `json:"provider_id" validate:"required"`
	ExpectedVersion int64               `json:"expected_version" validate:"gte=0"`
	Adjustments     []AdjustmentRequest `json:"adjustments" validate:"required,min=1,dive"`
}

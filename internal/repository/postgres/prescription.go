package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/rehab-api/internal/model"
	"github.com/jwalitptl/rehab-api/pkg/errors"
)

type prescriptionRepository struct {
	db *sqlx.DB
}

func NewPrescriptionRepository(db *sqlx.DB) *prescriptionRepository {
	return &prescriptionRepository{db: db}
}

// prescriptionRow maps the prescriptions table; exercises and goals live in
// JSONB columns since they are owned documents, never queried relationally.
type prescriptionRow struct {
	ID          uuid.UUID                `db:"id"`
	ProviderID  uuid.UUID                `db:"provider_id"`
	PatientID   uuid.UUID                `db:"patient_id"`
	Title       string                   `db:"title"`
	Description string                   `db:"description"`
	Status      model.PrescriptionStatus `db:"status"`
	StartDate   time.Time                `db:"start_date"`
	EndDate     *time.Time               `db:"end_date"`
	Exercises   []byte                   `db:"exercises"`
	Goals       []byte                   `db:"goals"`
	Notes       string                   `db:"notes"`
	CreatedAt   time.Time                `db:"created_at"`
	UpdatedAt   time.Time                `db:"updated_at"`
	Version     int64                    `db:"version"`
}

func toRow(p *model.Prescription) (*prescriptionRow, error) {
	exercises, err := json.Marshal(p.Exercises)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal exercises: %w", err)
	}
	goals, err := json.Marshal(p.Goals)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal goals: %w", err)
	}
	return &prescriptionRow{
		ID:          p.ID,
		ProviderID:  p.ProviderID,
		PatientID:   p.PatientID,
		Title:       p.Title,
		Description: p.Description,
		Status:      p.Status,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		Exercises:   exercises,
		Goals:       goals,
		Notes:       p.Notes,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Version:     p.Version,
	}, nil
}

func (r *prescriptionRow) toModel() (*model.Prescription, error) {
	p := &model.Prescription{
		ID:          r.ID,
		ProviderID:  r.ProviderID,
		PatientID:   r.PatientID,
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Version:     r.Version,
	}
	if err := json.Unmarshal(r.Exercises, &p.Exercises); err != nil {
		return nil, fmt.Errorf("failed to unmarshal exercises: %w", err)
	}
	if len(r.Goals) > 0 {
		if err := json.Unmarshal(r.Goals, &p.Goals); err != nil {
			return nil, fmt.Errorf("failed to unmarshal goals: %w", err)
		}
	}
	return p, nil
}

func (r *prescriptionRepository) Create(ctx context.Context, p *model.Prescription) error {
	row, err := toRow(p)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO prescriptions (
			id, provider_id, patient_id, title, description, status,
			start_date, end_date, exercises, goals, notes,
			created_at, updated_at, version
		) VALUES (
			:id, :provider_id, :patient_id, :title, :description, :status,
			:start_date, :end_date, :exercises, :goals, :notes,
			:created_at, :updated_at, :version
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to create prescription: %w", err)
	}
	return nil
}

func (r *prescriptionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	query := `
		SELECT id, provider_id, patient_id, title, description, status,
			   start_date, end_date, exercises, goals, notes,
			   created_at, updated_at, version
		FROM prescriptions
		WHERE id = $1
	`
	var row prescriptionRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("prescription", err)
		}
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}
	return row.toModel()
}

// Update is a compare-and-swap: the row is only written when the stored
// version still matches expectedVersion.
func (r *prescriptionRepository) Update(ctx context.Context, p *model.Prescription, expectedVersion int64) error {
	row, err := toRow(p)
	if err != nil {
		return err
	}
	query := `
		UPDATE prescriptions
		SET title = $1, description = $2, status = $3, start_date = $4,
			end_date = $5, exercises = $6, goals = $7, notes = $8,
			updated_at = $9, version = $10
		WHERE id = $11 AND version = $12
	`
	result, err := r.db.ExecContext(ctx, query,
		row.Title,
		row.Description,
		row.Status,
		row.StartDate,
		row.EndDate,
		row.Exercises,
		row.Goals,
		row.Notes,
		row.UpdatedAt,
		row.Version,
		row.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update prescription: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		current, getErr := r.Get(ctx, p.ID)
		if getErr != nil {
			return getErr
		}
		return errors.StateConflict("prescription version is stale", current)
	}
	return nil
}

func (r *prescriptionRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error) {
	query := `
		SELECT id, provider_id, patient_id, title, description, status,
			   start_date, end_date, exercises, goals, notes,
			   created_at, updated_at, version
		FROM prescriptions
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`
	var rows []prescriptionRow
	if err := r.db.SelectContext(ctx, &rows, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}

	out := make([]*model.Prescription, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

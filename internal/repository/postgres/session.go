package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/rehab-api/internal/model"
)

type sessionHistoryRepository struct {
	db *sqlx.DB
}

func NewSessionHistoryRepository(db *sqlx.DB) *sessionHistoryRepository {
	return &sessionHistoryRepository{db: db}
}

func (r *sessionHistoryRepository) List(ctx context.Context, patientID, exerciseID uuid.UUID, since time.Time) ([]model.SessionRecord, error) {
	query := `
		SELECT session_date, patient_id, exercise_id, accuracy, form_score,
			   reps_completed, pain_reported
		FROM exercise_sessions
		WHERE patient_id = $1 AND exercise_id = $2 AND session_date >= $3
		ORDER BY session_date ASC
	`
	var records []model.SessionRecord
	if err := r.db.SelectContext(ctx, &records, query, patientID, exerciseID, since); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return records, nil
}

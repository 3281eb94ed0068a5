package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/rehab-api/internal/model"
	"github.com/jwalitptl/rehab-api/pkg/errors"
)

type templateRepository struct {
	db *sqlx.DB
}

func NewTemplateRepository(db *sqlx.DB) *templateRepository {
	return &templateRepository{db: db}
}

type templateRow struct {
	ID                uuid.UUID             `db:"id"`
	Name              string                `db:"name"`
	Description       string                `db:"description"`
	Category          string                `db:"category"`
	TargetConditions  pq.StringArray        `db:"target_conditions"`
	DifficultyLevel   model.DifficultyLevel `db:"difficulty_level"`
	EstimatedDuration string                `db:"estimated_duration"`
	Exercises         []byte                `db:"exercises"`
	Goals             []byte                `db:"goals"`
}

func (r *templateRow) toModel() (*model.Template, error) {
	t := &model.Template{
		ID:                r.ID,
		Name:              r.Name,
		Description:       r.Description,
		Category:          r.Category,
		TargetConditions:  r.TargetConditions,
		DifficultyLevel:   r.DifficultyLevel,
		EstimatedDuration: r.EstimatedDuration,
	}
	if err := json.Unmarshal(r.Exercises, &t.Exercises); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template exercises: %w", err)
	}
	if len(r.Goals) > 0 {
		if err := json.Unmarshal(r.Goals, &t.Goals); err != nil {
			return nil, fmt.Errorf("failed to unmarshal template goals: %w", err)
		}
	}
	return t, nil
}

func (r *templateRepository) Get(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	query := `
		SELECT id, name, description, category, target_conditions,
			   difficulty_level, estimated_duration, exercises, goals
		FROM exercise_templates
		WHERE id = $1
	`
	var row templateRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("template", err)
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return row.toModel()
}

func (r *templateRepository) List(ctx context.Context) ([]*model.Template, error) {
	query := `
		SELECT id, name, description, category, target_conditions,
			   difficulty_level, estimated_duration, exercises, goals
		FROM exercise_templates
		ORDER BY name
	`
	var rows []templateRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	out := make([]*model.Template, 0, len(rows))
	for i := range rows {
		t, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

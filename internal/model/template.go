package model

import (
	"github.com/google/uuid"
)

// Template is immutable reference data used to seed new prescriptions. The
// engine only ever copies it.
type Template struct {
	ID                uuid.UUID          `db:"id" json:"id"`
	Name              string             `db:"name" json:"name"`
	Description       string             `db:"description" json:"description,omitempty"`
	Category          string             `db:"category" json:"category"`
	TargetConditions  []string           `json:"target_conditions,omitempty"`
	DifficultyLevel   DifficultyLevel    `db:"difficulty_level" json:"difficulty_level"`
	EstimatedDuration string             `db:"estimated_duration" json:"estimated_duration,omitempty"`
	Exercises         []TemplateExercise `json:"exercises"`
	Goals             []TemplateGoal     `json:"goals,omitempty"`
}

// TemplateExercise is shaped like a prescribed exercise minus identity and
// history.
type TemplateExercise struct {
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Difficulty   DifficultyLevel `json:"difficulty"`
	Sets         int             `json:"sets"`
	Reps         Reps            `json:"reps"`
	TimesPerWeek int             `json:"times_per_week"`
	FormCues     []string        `json:"form_cues,omitempty"`
	RepCeiling   *int            `json:"rep_ceiling,omitempty"`
}

type TemplateGoal struct {
	Type        string       `json:"type"`
	Description string       `json:"description"`
	Priority    GoalPriority `json:"priority"`
	Timeframe   string       `json:"timeframe,omitempty"`
}

package model

import (
	"github.com/google/uuid"
)

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// ProgressSignal is the derived per-exercise view of raw session history.
// InsufficientData means too few sessions to judge a trend; it is a normal
// steady-state condition for new prescriptions, not an error.
type ProgressSignal struct {
	ExerciseID       uuid.UUID `json:"exercise_id"`
	Trend            Trend     `json:"trend,omitempty"`
	AdherenceRate    float64   `json:"adherence_rate"`
	Plateau          bool      `json:"plateau"`
	PainFlag         bool      `json:"pain_flag"`
	InsufficientData bool      `json:"insufficient_data"`
	SessionCount     int       `json:"session_count"`
	AccuracyMean     float64   `json:"accuracy_mean"`
	FormScoreMean    float64   `json:"form_score_mean"`
}

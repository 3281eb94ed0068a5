package model

import (
	"time"

	"github.com/google/uuid"
)

type AdjustmentType string

const (
	AdjustmentIncreaseDifficulty AdjustmentType = "increase_difficulty"
	AdjustmentDecreaseDifficulty AdjustmentType = "decrease_difficulty"
	AdjustmentModifyFrequency    AdjustmentType = "modify_frequency"
	AdjustmentSubstituteExercise AdjustmentType = "substitute_exercise"
)

func (t AdjustmentType) Valid() bool {
	switch t {
	case AdjustmentIncreaseDifficulty, AdjustmentDecreaseDifficulty,
		AdjustmentModifyFrequency, AdjustmentSubstituteExercise:
		return true
	}
	return false
}

// AppliedByAuto marks adjustments applied by the difficulty auto-adjuster
// rather than a provider.
const AppliedByAuto = "auto"

// AdjustmentParameters carries only the fields relevant to the adjustment
// type; the rest stay at their zero values.
type AdjustmentParameters struct {
	RepsIncrease  int  `json:"reps_increase,omitempty"`
	RepsReduction int  `json:"reps_reduction,omitempty"`
	SetsIncrease  int  `json:"sets_increase,omitempty"`
	AddResistance bool `json:"add_resistance,omitempty"`
	AddAssistance bool `json:"add_assistance,omitempty"`
}

// DifficultyAdjustment is an applied, bounded mutation of an exercise,
// recorded in that exercise's adjustment history.
type DifficultyAdjustment struct {
	ExerciseID uuid.UUID            `json:"exercise_id"`
	Type       AdjustmentType       `json:"type"`
	Parameters AdjustmentParameters `json:"parameters"`
	Reason     string               `json:"reason"`
	AppliedAt  time.Time            `json:"applied_at"`
	AppliedBy  string               `json:"applied_by"`
}

type AdjustmentRequest struct {
	ExerciseID uuid.UUID            `json:"exercise_id" validate:"required"`
	Type       AdjustmentType       `json:"type" validate:"required"`
	Parameters AdjustmentParameters `json:"parameters"`
	Reason     string               `json:"reason" validate:"max=500"`
}

type AutoAdjustResult struct {
	AdjustmentsMade bool                   `json:"adjustments_made"`
	Adjustments     []DifficultyAdjustment `json:"adjustments"`
	Failures        []AutoAdjustFailure    `json:"failures,omitempty"`
}

// AutoAdjustFailure reports a single exercise whose adjustment could not be
// applied. Earlier successes in the same batch are not rolled back.
type AutoAdjustFailure struct {
	ExerciseID uuid.UUID `json:"exercise_id"`
	Reason     string    `json:"reason"`
}

package model

import (
	"github.com/google/uuid"
)

type RecommendationType string

const (
	RecommendationProgression      RecommendationType = "progression"
	RecommendationModification     RecommendationType = "modification"
	RecommendationConcern          RecommendationType = "concern"
	RecommendationAdherenceConcern RecommendationType = "adherence_concern"
)

type RecommendationPriority string

const (
	RecommendationPriorityLow    RecommendationPriority = "low"
	RecommendationPriorityMedium RecommendationPriority = "medium"
	RecommendationPriorityHigh   RecommendationPriority = "high"
)

// Rank orders priorities for sorting; higher sorts first.
func (p RecommendationPriority) Rank() int {
	switch p {
	case RecommendationPriorityHigh:
		return 3
	case RecommendationPriorityMedium:
		return 2
	case RecommendationPriorityLow:
		return 1
	}
	return 0
}

type SuggestedChanges struct {
	IncreaseReps        *int     `json:"increase_reps,omitempty"`
	IncreaseSets        *int     `json:"increase_sets,omitempty"`
	ReduceIntensity     bool     `json:"reduce_intensity,omitempty"`
	AddFormCues         []string `json:"add_form_cues,omitempty"`
	AlternativeExercise *string  `json:"alternative_exercise,omitempty"`
}

// Recommendation is derived from session history and never persisted unless
// a caller explicitly saves it.
type Recommendation struct {
	ID               uuid.UUID              `json:"id"`
	ExerciseID       uuid.UUID              `json:"exercise_id"`
	ExerciseName     string                 `json:"exercise_name"`
	Type             RecommendationType     `json:"type"`
	Priority         RecommendationPriority `json:"priority"`
	Reason           string                 `json:"reason"`
	SuggestedChanges SuggestedChanges       `json:"suggested_changes"`
	ExpectedOutcome  string                 `json:"expected_outcome"`
	ConfidenceScore  float64                `json:"confidence_score"`
}

type RecommendationBundle struct {
	Progressions            []string               `json:"progressions"`
	Modifications           []string               `json:"modifications"`
	Concerns                []string               `json:"concerns"`
	NextSteps               []string               `json:"next_steps"`
	ExerciseRecommendations []Recommendation       `json:"exercise_recommendations"`
	DifficultyAdjustments   []DifficultyAdjustment `json:"difficulty_adjustments"`
}

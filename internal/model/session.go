package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionRecord is one logged performance of a single exercise on a given
// date. It is produced by the exercise-tracking collaborator and consumed
// read-only here.
type SessionRecord struct {
	Date          time.Time `db:"session_date" json:"date"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	ExerciseID    uuid.UUID `db:"exercise_id" json:"exercise_id"`
	Accuracy      float64   `db:"accuracy" json:"accuracy"`
	FormScore     float64   `db:"form_score" json:"form_score"`
	RepsCompleted int       `db:"reps_completed" json:"reps_completed"`
	PainReported  bool      `db:"pain_reported" json:"pain_reported"`
}

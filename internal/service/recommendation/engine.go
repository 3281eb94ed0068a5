package recommendation

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/rehab-api/internal/model"
)

// Config holds the rule thresholds. Defaults are tunable starting points.
type Config struct {
	// HighFormScore gates progressions; LowFormScore triggers modifications.
	HighFormScore float64
	LowFormScore  float64
	// ProgressionAccuracy is the accuracy mean at which a plateau counts as
	// readiness to progress rather than stagnation.
	ProgressionAccuracy float64
	// AdherenceConcern is the adherence rate below which an adherence
	// concern is raised.
	AdherenceConcern float64
	// RepsStep is the rep increase suggested by a progression.
	RepsStep int
	// Confidence scaling: min(Base + PerSample*sessions, Max); pain is
	// treated as unambiguous and always gets PainConfidence.
	BaseConfidence      float64
	ConfidencePerSample float64
	MaxConfidence       float64
	PainConfidence      float64
}

func DefaultConfig() Config {
	return Config{
		HighFormScore:       85,
		LowFormScore:        60,
		ProgressionAccuracy: 90,
		AdherenceConcern:    0.5,
		RepsStep:            2,
		BaseConfidence:      0.5,
		ConfidencePerSample: 0.1,
		MaxConfidence:       0.95,
		PainConfidence:      0.9,
	}
}

// recommendationNamespace seeds name-based recommendation ids so identical
// session history always yields identical output.
var recommendationNamespace = uuid.MustParse("9b1f5f32-7c6e-4d11-a0b4-3f1de2c85a97")

// Engine maps progress signals to recommendations through a fixed-order
// rule table; the first matching rule wins per exercise. It is pure and
// safe for concurrent use.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Evaluate returns the recommendation for one exercise, or nil when the
// signal warrants none. Insufficient data is an expected steady state for
// new prescriptions and produces no recommendation rather than an error.
func (e *Engine) Evaluate(signal model.ProgressSignal, exerciseName string) *model.Recommendation {
	if signal.PainFlag {
		alternative := fmt.Sprintf("Lower-impact variation of %s", exerciseName)
		return e.recommendation(signal, exerciseName, model.Recommendation{
			Type:     model.RecommendationConcern,
			Priority: model.RecommendationPriorityHigh,
			Reason:   "Pain reported in a recent session",
			SuggestedChanges: model.SuggestedChanges{
				AlternativeExercise: &alternative,
			},
			ExpectedOutcome: "Avoid aggravating the affected area while keeping the patient moving",
			ConfidenceScore: e.cfg.PainConfidence,
		})
	}

	if signal.InsufficientData {
		return nil
	}

	if e.readyToProgress(signal) {
		step := e.cfg.RepsStep
		return e.recommendation(signal, exerciseName, model.Recommendation{
			Type:     model.RecommendationProgression,
			Priority: model.RecommendationPriorityMedium,
			Reason:   fmt.Sprintf("Accuracy averaging %.0f with consistently good form", signal.AccuracyMean),
			SuggestedChanges: model.SuggestedChanges{
				IncreaseReps: &step,
			},
			ExpectedOutcome: "Continued strength and mobility gains at a higher workload",
			ConfidenceScore: e.scaledConfidence(signal.SessionCount),
		})
	}

	if signal.Trend == model.TrendDeclining || signal.FormScoreMean < e.cfg.LowFormScore {
		return e.recommendation(signal, exerciseName, model.Recommendation{
			Type:     model.RecommendationModification,
			Priority: model.RecommendationPriorityMedium,
			Reason:   fmt.Sprintf("Declining accuracy or form averaging %.0f", signal.FormScoreMean),
			SuggestedChanges: model.SuggestedChanges{
				ReduceIntensity: true,
			},
			ExpectedOutcome: "Rebuild form quality at a workload the patient can sustain",
			ConfidenceScore: e.scaledConfidence(signal.SessionCount),
		})
	}

	if signal.AdherenceRate < e.cfg.AdherenceConcern {
		return e.recommendation(signal, exerciseName, model.Recommendation{
			Type:            model.RecommendationAdherenceConcern,
			Priority:        model.RecommendationPriorityLow,
			Reason:          fmt.Sprintf("Only %.0f%% of expected sessions completed recently", signal.AdherenceRate*100),
			ExpectedOutcome: "Understand and remove whatever is blocking regular practice",
			ConfidenceScore: e.adherenceConfidence(signal.AdherenceRate),
		})
	}

	return nil
}

// readyToProgress gates the progression rule. A plateau normally blocks
// progression, with one exception: a plateau at high accuracy means the
// exercise has stopped challenging the patient and is itself the signal to
// progress.
func (e *Engine) readyToProgress(signal model.ProgressSignal) bool {
	if signal.FormScoreMean < e.cfg.HighFormScore {
		return false
	}
	if signal.Trend == model.TrendImproving && !signal.Plateau {
		return true
	}
	return signal.Plateau && signal.AccuracyMean >= e.cfg.ProgressionAccuracy
}

func (e *Engine) scaledConfidence(sessionCount int) float64 {
	score := e.cfg.BaseConfidence + e.cfg.ConfidencePerSample*float64(sessionCount)
	if score > e.cfg.MaxConfidence {
		score = e.cfg.MaxConfidence
	}
	return score
}

// adherenceConfidence maps the adherence rate onto a fixed [0.3, 0.7]
// scale: the further below the concern threshold, the more confident the
// concern.
func (e *Engine) adherenceConfidence(rate float64) float64 {
	missed := 1 - rate/e.cfg.AdherenceConcern
	score := 0.3 + 0.4*missed
	if score < 0.3 {
		score = 0.3
	}
	if score > 0.7 {
		score = 0.7
	}
	return score
}

func (e *Engine) recommendation(signal model.ProgressSignal, exerciseName string, rec model.Recommendation) *model.Recommendation {
	rec.ID = uuid.NewSHA1(recommendationNamespace, []byte(signal.ExerciseID.String()+"/"+string(rec.Type)))
	rec.ExerciseID = signal.ExerciseID
	rec.ExerciseName = exerciseName
	return &rec
}

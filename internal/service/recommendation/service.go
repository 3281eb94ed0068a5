package recommendation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/rehab-api/internal/model"
	"github.com/jwalitptl/rehab-api/internal/repository"
	"github.com/jwalitptl/rehab-api/internal/service/progress"
	"github.com/jwalitptl/rehab-api/pkg/errors"
	"github.com/jwalitptl/rehab-api/pkg/metrics"
)

type Service struct {
	prescriptions repository.PrescriptionRepository
	sessions      repository.SessionHistoryRepository
	analyzer      *progress.Analyzer
	engine        *Engine
	metrics       *metrics.Metrics
}

func NewService(
	prescriptions repository.PrescriptionRepository,
	sessions repository.SessionHistoryRepository,
	analyzer *progress.Analyzer,
	engine *Engine,
	m *metrics.Metrics,
) *Service {
	return &Service{
		prescriptions: prescriptions,
		sessions:      sessions,
		analyzer:      analyzer,
		engine:        engine,
		metrics:       m,
	}
}

// GenerateRecommendations analyzes every exercise of the prescription and
// aggregates the per-exercise recommendations into a bundle. Identical
// session history always yields identical ordered output.
func (s *Service) GenerateRecommendations(ctx context.Context, patientID, prescriptionID uuid.UUID) (*model.RecommendationBundle, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecommendationLatency.Observe(time.Since(start).Seconds())
	}()

	p, err := s.prescriptions.Get(ctx, prescriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}
	if p.PatientID != patientID {
		return nil, errors.NotFound("prescription", nil)
	}

	var recs []model.Recommendation
	for i := range p.Exercises {
		ex := &p.Exercises[i]
		history, err := s.sessions.List(ctx, patientID, ex.ID, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions for exercise %s: %w", ex.ID, err)
		}
		signal := s.analyzer.Analyze(ex.ID, history, ex.TimesPerWeek)
		if rec := s.engine.Evaluate(signal, ex.Name); rec != nil {
			recs = append(recs, *rec)
		}
	}
	sortRecommendations(recs)

	bundle := &model.RecommendationBundle{
		Progressions:            []string{},
		Modifications:           []string{},
		Concerns:                []string{},
		NextSteps:               []string{},
		ExerciseRecommendations: recs,
		DifficultyAdjustments:   []model.DifficultyAdjustment{},
	}
	for _, rec := range recs {
		s.metrics.RecommendationsGenerated.WithLabelValues(string(rec.Type)).Inc()
		switch rec.Type {
		case model.RecommendationProgression:
			bundle.Progressions = append(bundle.Progressions,
				fmt.Sprintf("%s: ready to progress (%s, confidence %d%%)", rec.ExerciseName, rec.Reason, displayConfidence(rec.ConfidenceScore)))
		case model.RecommendationModification:
			bundle.Modifications = append(bundle.Modifications,
				fmt.Sprintf("%s: reduce intensity (%s)", rec.ExerciseName, rec.Reason))
			bundle.NextSteps = append(bundle.NextSteps,
				fmt.Sprintf("Reassess %s at a lighter workload", rec.ExerciseName))
		case model.RecommendationConcern:
			bundle.Concerns = append(bundle.Concerns,
				fmt.Sprintf("%s: %s", rec.ExerciseName, rec.Reason))
			bundle.NextSteps = append(bundle.NextSteps,
				fmt.Sprintf("Review %s with the patient before the next session", rec.ExerciseName))
		case model.RecommendationAdherenceConcern:
			bundle.NextSteps = append(bundle.NextSteps,
				fmt.Sprintf("Check in with the patient about adherence to %s", rec.ExerciseName))
		}
	}

	return bundle, nil
}

// sortRecommendations orders by priority (high first), then confidence
// (descending), then exercise id ascending for determinism.
func sortRecommendations(recs []model.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Priority.Rank() != recs[j].Priority.Rank() {
			return recs[i].Priority.Rank() > recs[j].Priority.Rank()
		}
		if recs[i].ConfidenceScore != recs[j].ConfidenceScore {
			return recs[i].ConfidenceScore > recs[j].ConfidenceScore
		}
		return recs[i].ExerciseID.String() < recs[j].ExerciseID.String()
	})
}

// displayConfidence rounds to a whole percentage for the human-readable
// summary strings.
func displayConfidence(score float64) int {
	return int(math.Round(score * 100))
}

package autoadjust

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/rehab-api/internal/model"
	"github.com/jwalitptl/rehab-api/internal/repository"
	"github.com/jwalitptl/rehab-api/internal/service/prescription"
	"github.com/jwalitptl/rehab-api/internal/service/recommendation"
	"github.com/jwalitptl/rehab-api/pkg/errors"
)

// Config bounds automatic difficulty changes.
type Config struct {
	// AutoApplyThreshold is the minimum confidence before a recommendation
	// is applied without human review.
	AutoApplyThreshold float64
	// RepsStep is the default rep change when translating a recommendation
	// into an adjustment.
	RepsStep        int
	MaxRepsIncrease int
	MaxSetsIncrease int
}

func DefaultConfig() Config {
	return Config{
		AutoApplyThreshold: 0.7,
		RepsStep:           2,
		MaxRepsIncrease:    3,
		MaxSetsIncrease:    1,
	}
}

// Service orchestrates analysis and recommendation into bounded automatic
// adjustments. Concern recommendations always require human review and are
// never applied here.
type Service struct {
	prescriptions repository.PrescriptionRepository
	recommender   *recommendation.Service
	lifecycle     *prescription.Service
	cfg           Config
}

func NewService(
	prescriptions repository.PrescriptionRepository,
	recommender *recommendation.Service,
	lifecycle *prescription.Service,
	cfg Config,
) *Service {
	return &Service{
		prescriptions: prescriptions,
		recommender:   recommender,
		lifecycle:     lifecycle,
		cfg:           cfg,
	}
}

// AutoAdjust applies high-confidence recommendations to an active
// prescription. Each exercise's apply is independent: a failure on one does
// not roll back earlier successes, and every failure is reported in the
// result. No adjustments crossing the threshold is a normal outcome, not an
// error.
func (s *Service) AutoAdjust(ctx context.Context, prescriptionID, patientID uuid.UUID) (*model.AutoAdjustResult, error) {
	p, err := s.prescriptions.Get(ctx, prescriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}
	if p.Status != model.PrescriptionStatusActive {
		return nil, errors.StateConflict(
			fmt.Sprintf("can only auto-adjust an active prescription, status is %s", p.Status), p)
	}

	bundle, err := s.recommender.GenerateRecommendations(ctx, patientID, prescriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate recommendations: %w", err)
	}

	result := &model.AutoAdjustResult{
		Adjustments: []model.DifficultyAdjustment{},
	}
	version := p.Version

	for _, rec := range bundle.ExerciseRecommendations {
		req, ok := s.translate(rec)
		if !ok {
			continue
		}

		updated, err := s.lifecycle.Adjust(ctx, prescriptionID, p.ProviderID, version, model.AppliedByAuto, []model.AdjustmentRequest{req})
		if err != nil {
			// A concurrent manual edit mid-batch surfaces here as a version
			// conflict; report it and move on with a fresh version.
			result.Failures = append(result.Failures, model.AutoAdjustFailure{
				ExerciseID: rec.ExerciseID,
				Reason:     err.Error(),
			})
			log.Warn().Err(err).
				Str("prescription_id", prescriptionID.String()).
				Str("exercise_id", rec.ExerciseID.String()).
				Msg("auto-adjustment failed for exercise")
			if current, getErr := s.prescriptions.Get(ctx, prescriptionID); getErr == nil {
				version = current.Version
			}
			continue
		}

		version = updated.Version
		if ex := updated.Exercise(rec.ExerciseID); ex != nil && len(ex.AdjustmentHistory) > 0 {
			result.Adjustments = append(result.Adjustments, ex.AdjustmentHistory[len(ex.AdjustmentHistory)-1])
		}
	}

	result.AdjustmentsMade = len(result.Adjustments) > 0
	return result, nil
}

// translate turns a recommendation into a bounded adjustment request, or
// reports that the recommendation must not be auto-applied.
func (s *Service) translate(rec model.Recommendation) (model.AdjustmentRequest, bool) {
	if rec.ConfidenceScore < s.cfg.AutoApplyThreshold {
		return model.AdjustmentRequest{}, false
	}

	switch rec.Type {
	case model.RecommendationProgression:
		reps := s.cfg.RepsStep
		if rec.SuggestedChanges.IncreaseReps != nil {
			reps = *rec.SuggestedChanges.IncreaseReps
		}
		if reps > s.cfg.MaxRepsIncrease {
			reps = s.cfg.MaxRepsIncrease
		}
		sets := 0
		if rec.SuggestedChanges.IncreaseSets != nil {
			sets = *rec.SuggestedChanges.IncreaseSets
			if sets > s.cfg.MaxSetsIncrease {
				sets = s.cfg.MaxSetsIncrease
			}
		}
		return model.AdjustmentRequest{
			ExerciseID: rec.ExerciseID,
			Type:       model.AdjustmentIncreaseDifficulty,
			Parameters: model.AdjustmentParameters{
				RepsIncrease: reps,
				SetsIncrease: sets,
			},
			Reason: rec.Reason,
		}, true

	case model.RecommendationModification:
		if !rec.SuggestedChanges.ReduceIntensity {
			return model.AdjustmentRequest{}, false
		}
		return model.AdjustmentRequest{
			ExerciseID: rec.ExerciseID,
			Type:       model.AdjustmentDecreaseDifficulty,
			Parameters: model.AdjustmentParameters{
				RepsReduction: s.cfg.RepsStep,
				AddAssistance: true,
			},
			Reason: rec.Reason,
		}, true
	}

	// Concerns and adherence concerns always go to a human.
	return model.AdjustmentRequest{}, false
}

package prescription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/rehab-api/internal/model"
	"github.com/jwalitptl/rehab-api/internal/repository"
	"github.com/jwalitptl/rehab-api/pkg/errors"
	"github.com/jwalitptl/rehab-api/pkg/messaging"
	"github.com/jwalitptl/rehab-api/pkg/metrics"
)

// Config bounds what a single adjustment may change. The caps are tunable
// starting points shared with the auto-adjuster.
type Config struct {
	MaxRepsIncrease  int
	MaxRepsReduction int
	MaxSetsIncrease  int
}

func DefaultConfig() Config {
	return Config{
		MaxRepsIncrease:  3,
		MaxRepsReduction: 3,
		MaxSetsIncrease:  1,
	}
}

// Service owns the prescription state machine. Every mutation is guarded by
// the caller-observed version; a stale version surfaces as a state conflict
// carrying the stored prescription so the caller can reload and retry.
type Service struct {
	repo      repository.PrescriptionRepository
	templates repository.TemplateRepository
	events    messaging.Publisher
	metrics   *metrics.Metrics
	cfg       Config
}

func NewService(
	repo repository.PrescriptionRepository,
	templates repository.TemplateRepository,
	events messaging.Publisher,
	m *metrics.Metrics,
	cfg Config,
) *Service {
	return &Service{
		repo:      repo,
		templates: templates,
		events:    events,
		metrics:   m,
		cfg:       cfg,
	}
}

// CreateFromTemplate materializes a draft prescription from a template,
// giving every copied exercise and goal a fresh identity.
func (s *Service) CreateFromTemplate(ctx context.Context, req *model.CreatePrescriptionRequest) (*model.Prescription, error) {
	tmpl, err := s.templates.Get(ctx, req.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, errors.Validation("end date is before start date", nil)
	}

	title := req.Title
	if title == "" {
		title = tmpl.Name
	}
	description := req.Description
	if description == "" {
		description = tmpl.Description
	}

	now := time.Now().UTC()
	p := &model.Prescription{
		ID:          uuid.New(),
		ProviderID:  req.ProviderID,
		PatientID:   req.PatientID,
		Title:       title,
		Description: description,
		Status:      model.PrescriptionStatusDraft,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Exercises:   copyExercises(tmpl.Exercises),
		Goals:       copyGoals(tmpl.Goals),
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     0,
	}
	if err := p.Validate(); err != nil {
		return nil, errors.Validation("invalid prescription", err)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create prescription: %w", err)
	}

	s.publish(ctx, "prescription.created", p)
	s.metrics.LifecycleTransitions.WithLabelValues("create").Inc()
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}
	return p, nil
}

// ListForPatient returns all of a patient's prescriptions, any status.
func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error) {
	prescriptions, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	return prescriptions, nil
}

// transition names a lifecycle verb and its legal source states.
type transition struct {
	action string
	from   []model.PrescriptionStatus
	to     model.PrescriptionStatus
}

var (
	transitionActivate = transition{"activate",
		[]model.PrescriptionStatus{model.PrescriptionStatusDraft},
		model.PrescriptionStatusActive}
	transitionPause = transition{"pause",
		[]model.PrescriptionStatus{model.PrescriptionStatusActive},
		model.PrescriptionStatusPaused}
	transitionResume = transition{"resume",
		[]model.PrescriptionStatus{model.PrescriptionStatusPaused},
		model.PrescriptionStatusActive}
	transitionComplete = transition{"complete",
		[]model.PrescriptionStatus{model.PrescriptionStatusActive},
		model.PrescriptionStatusCompleted}
	transitionCancel = transition{"cancel",
		[]model.PrescriptionStatus{model.PrescriptionStatusDraft, model.PrescriptionStatusActive, model.PrescriptionStatusPaused},
		model.PrescriptionStatusCancelled}
)

func (s *Service) Activate(ctx context.Context, id, providerID uuid.UUID, expectedVersion int64) (*model.Prescription, error) {
	return s.transition(ctx, id, providerID, expectedVersion, transitionActivate)
}

func (s *Service) Pause(ctx context.Context, id, providerID uuid.UUID, expectedVersion int64) (*model.Prescription, error) {
	return s.transition(ctx, id, providerID, expectedVersion, transitionPause)
}

func (s *Service) Resume(ctx context.Context, id, providerID uuid.UUID, expectedVersion int64) (*model.Prescription, error) {
	return s.transition(ctx, id, providerID, expectedVersion, transitionResume)
}

func (s *Service) Complete(ctx context.Context, id, providerID uuid.UUID, expectedVersion int64) (*model.Prescription, error) {
	return s.transition(ctx, id, providerID, expectedVersion, transitionComplete)
}

func (s *Service) Cancel(ctx context.Context, id, providerID uuid.UUID, expectedVersion int64) (*model.Prescription, error) {
	return s.transition(ctx, id, providerID, expectedVersion, transitionCancel)
}

func (s *Service) transition(ctx context.Context, id, providerID uuid.UUID, expectedVersion int64, t transition) (*model.Prescription, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}

	if p.ProviderID != providerID {
		return nil, errors.Authorization("provider does not own this prescription")
	}
	if p.Version != expectedVersion {
		s.metrics.TransitionConflicts.Inc()
		return nil, errors.StateConflict(
			fmt.Sprintf("expected version %d but stored version is %d", expectedVersion, p.Version), p)
	}
	if !allows(t, p.Status) {
		s.metrics.TransitionConflicts.Inc()
		return nil, errors.StateConflict(
			fmt.Sprintf("cannot %s a %s prescription", t.action, p.Status), p)
	}

	p.Status = t.to
	p.UpdatedAt = time.Now().UTC()
	p.Version++
	if err := p.Validate(); err != nil {
		return nil, errors.Validation(fmt.Sprintf("cannot %s prescription", t.action), err)
	}

	if err := s.repo.Update(ctx, p, expectedVersion); err != nil {
		return nil, err
	}

	s.publish(ctx, "prescription."+t.action, p)
	s.metrics.LifecycleTransitions.WithLabelValues(t.action).Inc()
	return p, nil
}

func allows(t transition, status model.PrescriptionStatus) bool {
	for _, from := range t.from {
		if status == from {
			return true
		}
	}
	return false
}

// Adjust applies a batch of difficulty adjustments. Validation is wholesale:
// either every adjustment passes and all are applied, or none are. appliedBy
// is the provider id, or model.AppliedByAuto for the auto-adjuster.
func (s *Service) Adjust(ctx context.Context, id, providerID uuid.UUID, expectedVersion int64, appliedBy string, adjustments []model.AdjustmentRequest) (*model.Prescription, error) {
	if len(adjustments) == 0 {
		return nil, errors.Validation("no adjustments given", nil)
	}

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}

	if p.ProviderID != providerID {
		return nil, errors.Authorization("provider does not own this prescription")
	}
	if p.Version != expectedVersion {
		s.metrics.TransitionConflicts.Inc()
		return nil, errors.StateConflict(
			fmt.Sprintf("expected version %d but stored version is %d", expectedVersion, p.Version), p)
	}
	if p.Status.Terminal() {
		s.metrics.TransitionConflicts.Inc()
		return nil, errors.StateConflict(
			fmt.Sprintf("cannot adjust a %s prescription", p.Status), p)
	}

	for i := range adjustments {
		if err := s.validateAdjustment(p, &adjustments[i]); err != nil {
			s.metrics.AdjustmentsRejected.Inc()
			return nil, err
		}
	}

	now := time.Now().UTC()
	for i := range adjustments {
		adj := &adjustments[i]
		ex := p.Exercise(adj.ExerciseID)
		applyAdjustment(ex, adj)
		ex.AdjustmentHistory = append(ex.AdjustmentHistory, model.DifficultyAdjustment{
			ExerciseID: adj.ExerciseID,
			Type:       adj.Type,
			Parameters: adj.Parameters,
			Reason:     adj.Reason,
			AppliedAt:  now,
			AppliedBy:  appliedBy,
		})
		s.metrics.AdjustmentsApplied.WithLabelValues(string(adj.Type), origin(appliedBy)).Inc()
	}
	p.UpdatedAt = now
	p.Version++

	if err := s.repo.Update(ctx, p, expectedVersion); err != nil {
		return nil, err
	}

	s.publish(ctx, "prescription.adjusted", p)
	return p, nil
}

// origin collapses appliedBy to a low-cardinality metric label.
func origin(appliedBy string) string {
	if appliedBy == model.AppliedByAuto {
		return "auto"
	}
	return "provider"
}

func (s *Service) validateAdjustment(p *model.Prescription, adj *model.AdjustmentRequest) error {
	if p.Exercise(adj.ExerciseID) == nil {
		return errors.Validation(fmt.Sprintf("unknown exercise %s", adj.ExerciseID), nil)
	}
	if !adj.Type.Valid() {
		return errors.Validation(fmt.Sprintf("unknown adjustment type %q", adj.Type), nil)
	}

	params := adj.Parameters
	if params.RepsIncrease < 0 || params.RepsReduction < 0 || params.SetsIncrease < 0 {
		return errors.Validation("adjustment parameters must not be negative", nil)
	}
	if params.RepsIncrease > s.cfg.MaxRepsIncrease {
		return errors.Validation(
			fmt.Sprintf("reps increase %d exceeds the maximum of %d", params.RepsIncrease, s.cfg.MaxRepsIncrease), nil)
	}
	if params.RepsReduction > s.cfg.MaxRepsReduction {
		return errors.Validation(
			fmt.Sprintf("reps reduction %d exceeds the maximum of %d", params.RepsReduction, s.cfg.MaxRepsReduction), nil)
	}
	if params.SetsIncrease > s.cfg.MaxSetsIncrease {
		return errors.Validation(
			fmt.Sprintf("sets increase %d exceeds the maximum of %d", params.SetsIncrease, s.cfg.MaxSetsIncrease), nil)
	}
	return nil
}

// applyAdjustment mutates the exercise within the configured bounds: reps
// never exceed the exercise's ceiling when one is set, and never drop below
// one. Frequency and substitution adjustments are recorded in history only;
// the concrete change is described in the reason and applied by the
// provider as an explicit edit.
func applyAdjustment(ex *model.PrescribedExercise, adj *model.AdjustmentRequest) {
	switch adj.Type {
	case model.AdjustmentIncreaseDifficulty:
		if adj.Parameters.RepsIncrease > 0 {
			ex.Reps = ex.Reps.Shifted(adj.Parameters.RepsIncrease, ex.RepCeiling)
		}
		ex.Sets += adj.Parameters.SetsIncrease
	case model.AdjustmentDecreaseDifficulty:
		if adj.Parameters.RepsReduction > 0 {
			ex.Reps = ex.Reps.Shifted(-adj.Parameters.RepsReduction, ex.RepCeiling)
		}
	}
}

func (s *Service) publish(ctx context.Context, eventType string, p *model.Prescription) {
	if err := s.events.Publish(ctx, eventType, p); err != nil {
		log.Warn().Err(err).Str("event", eventType).Str("prescription_id", p.ID.String()).
			Msg("failed to publish prescription event")
	}
}

func copyExercises(exercises []model.TemplateExercise) []model.PrescribedExercise {
	out := make([]model.PrescribedExercise, len(exercises))
	for i, te := range exercises {
		var ceiling *int
		if te.RepCeiling != nil {
			c := *te.RepCeiling
			ceiling = &c
		}
		out[i] = model.PrescribedExercise{
			ID:           uuid.New(),
			Name:         te.Name,
			Description:  te.Description,
			Difficulty:   te.Difficulty,
			Sets:         te.Sets,
			Reps:         te.Reps,
			TimesPerWeek: te.TimesPerWeek,
			FormCues:     append([]string(nil), te.FormCues...),
			RepCeiling:   ceiling,
		}
	}
	return out
}

func copyGoals(goals []model.TemplateGoal) []model.Goal {
	out := make([]model.Goal, len(goals))
	for i, tg := range goals {
		out[i] = model.Goal{
			ID:          uuid.New(),
			Type:        tg.Type,
			Description: tg.Description,
			Priority:    tg.Priority,
			Timeframe:   tg.Timeframe,
		}
	}
	return out
}

package prescription

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/rehab-api/internal/model"
	"github.com/jwalitptl/rehab-api/internal/repository/memory"
	"github.com/jwalitptl/rehab-api/pkg/errors"
	"github.com/jwalitptl/rehab-api/pkg/messaging"
	"github.com/jwalitptl/rehab-api/pkg/metrics"
)

var (
	testProviderID = uuid.MustParse("6d2e8b10-3f4a-4b5c-8d6e-7f8a9b0c1d2e")
	testPatientID  = uuid.MustParse("0c1d2e3f-4a5b-4c6d-8e9f-0a1b2c3d4e5f")
	testTemplateID = uuid.MustParse("9e8d7c6b-5a4f-4e3d-8c2b-1a0f9e8d7c6b")
)

func kneeTemplate() *model.Template {
	ceiling := 15
	return &model.Template{
		ID:              testTemplateID,
		Name:            "Knee Recovery Basics",
		Description:     "Post-surgery knee rehabilitation",
		Category:        "knee",
		DifficultyLevel: model.DifficultyBeginner,
		Exercises: []model.TemplateExercise{
			{
				Name:         "Straight Leg Raises",
				Difficulty:   model.DifficultyBeginner,
				Sets:         3,
				Reps:         model.FixedReps(10),
				TimesPerWeek: 3,
				FormCues:     []string{"Keep the knee locked"},
				RepCeiling:   &ceiling,
			},
			{
				Name:         "Heel Slides",
				Difficulty:   model.DifficultyBeginner,
				Sets:         2,
				Reps:         model.RangeReps(8, 12),
				TimesPerWeek: 5,
			},
		},
		Goals: []model.TemplateGoal{
			{Type: "mobility", Description: "Full knee extension", Priority: model.GoalPriorityHigh},
		},
	}
}

func newTestService(t *testing.T) (*Service, *memory.PrescriptionRepository) {
	t.Helper()
	repo := memory.NewPrescriptionRepository()
	svc := NewService(repo, memory.NewTemplateRepository(kneeTemplate()), messaging.NoopPublisher{}, metrics.New("test"), DefaultConfig())
	return svc, repo
}

func createDraft(t *testing.T, svc *Service) *model.Prescription {
	t.Helper()
	p, err := svc.CreateFromTemplate(context.Background(), &model.CreatePrescriptionRequest{
		ProviderID: testProviderID,
		PatientID:  testPatientID,
		TemplateID: testTemplateID,
		StartDate:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return p
}

func TestCreateFromTemplateCopiesWithFreshIdentity(t *testing.T) {
	svc, _ := newTestService(t)

	first := createDraft(t, svc)
	second := createDraft(t, svc)

	assert.Equal(t, model.PrescriptionStatusDraft, first.Status)
	assert.EqualValues(t, 0, first.Version)
	assert.Equal(t, "Knee Recovery Basics", first.Title)
	require.Len(t, first.Exercises, 2)
	require.Len(t, first.Goals, 1)

	// Two prescriptions from the same template never share exercise ids.
	ids := make(map[uuid.UUID]bool)
	for _, p := range []*model.Prescription{first, second} {
		for _, ex := range p.Exercises {
			assert.NotEqual(t, uuid.Nil, ex.ID)
			assert.False(t, ids[ex.ID], "exercise id reused across prescriptions")
			ids[ex.ID] = true
			assert.Empty(t, ex.AdjustmentHistory)
		}
	}
	assert.NotEqual(t, first.Goals[0].ID, second.Goals[0].ID)
}

func TestCreateFromTemplateUnknownTemplate(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateFromTemplate(context.Background(), &model.CreatePrescriptionRequest{
		ProviderID: testProviderID,
		PatientID:  testPatientID,
		TemplateID: uuid.New(),
		StartDate:  time.Now().UTC(),
	})

	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestCreateFromTemplateEndBeforeStart(t *testing.T) {
	svc, _ := newTestService(t)

	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)
	_, err := svc.CreateFromTemplate(context.Background(), &model.CreatePrescriptionRequest{
		ProviderID: testProviderID,
		PatientID:  testPatientID,
		TemplateID: testTemplateID,
		StartDate:  start,
		EndDate:    &end,
	})

	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestActivateDraft(t *testing.T) {
	svc, _ := newTestService(t)
	p := createDraft(t, svc)

	updated, err := svc.Activate(context.Background(), p.ID, testProviderID, p.Version)

	require.NoError(t, err)
	assert.Equal(t, model.PrescriptionStatusActive, updated.Status)
	assert.EqualValues(t, 1, updated.Version)
}

func TestTransitionGraph(t *testing.T) {
	type step func(svc *Service, id uuid.UUID, version int64) (*model.Prescription, error)
	activate := func(svc *Service, id uuid.UUID, v int64) (*model.Prescription, error) {
		return svc.Activate(context.Background(), id, testProviderID, v)
	}
	pause := func(svc *Service, id uuid.UUID, v int64) (*model.Prescription, error) {
		return svc.Pause(context.Background(), id, testProviderID, v)
	}
	resume := func(svc *Service, id uuid.UUID, v int64) (*model.Prescription, error) {
		return svc.Resume(context.Background(), id, testProviderID, v)
	}
	complete := func(svc *Service, id uuid.UUID, v int64) (*model.Prescription, error) {
		return svc.Complete(context.Background(), id, testProviderID, v)
	}
	cancel := func(svc *Service, id uuid.UUID, v int64) (*model.Prescription, error) {
		return svc.Cancel(context.Background(), id, testProviderID, v)
	}

	tests := []struct {
		name    string
		path    []step
		attempt step
		want    model.PrescriptionStatus
		wantErr bool
	}{
		{"pause active", []step{activate}, pause, model.PrescriptionStatusPaused, false},
		{"resume paused", []step{activate, pause}, resume, model.PrescriptionStatusActive, false},
		{"complete active", []step{activate}, complete, model.PrescriptionStatusCompleted, false},
		{"cancel draft", nil, cancel, model.PrescriptionStatusCancelled, false},
		{"cancel active", []step{activate}, cancel, model.PrescriptionStatusCancelled, false},
		{"cancel paused", []step{activate, pause}, cancel, model.PrescriptionStatusCancelled, false},
		{"pause draft", nil, pause, "", true},
		{"complete draft", nil, complete, "", true},
		{"complete paused", []step{activate, pause}, complete, "", true},
		{"resume active", []step{activate}, resume, "", true},
		{"activate completed", []step{activate, complete}, activate, "", true},
		{"cancel cancelled", []step{cancel}, cancel, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			p := createDraft(t, svc)
			version := p.Version
			for _, s := range tt.path {
				next, err := s(svc, p.ID, version)
				require.NoError(t, err)
				version = next.Version
			}

			updated, err := tt.attempt(svc, p.ID, version)
			if tt.wantErr {
				assert.True(t, errors.Is(err, errors.ErrStateConflict))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, updated.Status)
		})
	}
}

func TestRejectedTransitionLeavesStateUnchanged(t *testing.T) {
	svc, _ := newTestService(t)
	p := createDraft(t, svc)
	active, err := svc.Activate(context.Background(), p.ID, testProviderID, p.Version)
	require.NoError(t, err)
	completed, err := svc.Complete(context.Background(), p.ID, testProviderID, active.Version)
	require.NoError(t, err)

	_, err = svc.Activate(context.Background(), p.ID, testProviderID, completed.Version)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStateConflict))
	stored, getErr := svc.Get(context.Background(), p.ID)
	require.NoError(t, getErr)
	assert.Equal(t, model.PrescriptionStatusCompleted, stored.Status)
	assert.Equal(t, completed.Version, stored.Version)
}

func TestStaleVersionConflictCarriesCurrentState(t *testing.T) {
	svc, _ := newTestService(t)
	p := createDraft(t, svc)
	_, err := svc.Activate(context.Background(), p.ID, testProviderID, p.Version)
	require.NoError(t, err)

	_, err = svc.Pause(context.Background(), p.ID, testProviderID, p.Version)

	require.Error(t, err)
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrStateConflict, appErr.Code)
	current, ok := appErr.Current.(*model.Prescription)
	require.True(t, ok)
	assert.Equal(t, model.PrescriptionStatusActive, current.Status)
}

func TestTransitionAuthorization(t *testing.T) {
	svc, _ := newTestService(t)
	p := createDraft(t, svc)

	_, err := svc.Activate(context.Background(), p.ID, uuid.New(), p.Version)

	assert.True(t, errors.Is(err, errors.ErrAuthorization))
}

func TestTransitionUnknownPrescription(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Activate(context.Background(), uuid.New(), testProviderID, 0)

	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestAdjustIncreasesRepsWithinBounds(t *testing.T) {
	svc, _ := newTestService(t)
	p := createDraft(t, svc)
	active, err := svc.Activate(context.Background(), p.ID, testProviderID, p.Version)
	require.NoError(t, err)
	ex := active.Exercises[0]

	updated, err := svc.Adjust(context.Background(), p.ID, testProviderID, active.Version, testProviderID.String(), []model.AdjustmentRequest{{
		ExerciseID: ex.ID,
		Type:       model.AdjustmentIncreaseDifficulty,
		Parameters: model.AdjustmentParameters{RepsIncrease: 3, SetsIncrease: 1},
		Reason:     "Strong form over the last two weeks",
	}})

	require.NoError(t, err)
	adjusted := updated.Exercise(ex.ID)
	require.NotNil(t, adjusted)
	assert.Equal(t, 13, adjusted.Reps.Upper())
	assert.Equal(t, 4, adjusted.Sets)
	require.Len(t, adjusted.AdjustmentHistory, 1)
	assert.Equal(t, testProviderID.String(), adjusted.AdjustmentHistory[0].AppliedBy)
	assert.Equal(t, active.Version+1, updated.Version)

	// Unmodified exercise is untouched.
	other := updated.Exercise(active.Exercises[1].ID)
	require.NotNil(t, other)
	assert.Equal(t, active.Exercises[1].Reps, other.Reps)
	assert.Empty(t, other.AdjustmentHistory)
}

func TestAdjustRespectsRepCeiling(t *testing.T) {
	svc, _ := newTestService(t)
	p := createDraft(t, svc)
	active, err := svc.Activate(context.Background(), p.ID, testProviderID, p.Version)
	require.NoError(t, err)
	ex := active.Exercises[0] // fixed 10 reps, ceiling 15
	version := active.Version

	for i := 0; i < 3; i++ {
		updated, err := svc.Adjust(context.Background(), p.ID, testProviderID, version, testProviderID.String(), []model.AdjustmentRequest{{
			ExerciseID: ex.ID,
			Type:       model.AdjustmentIncreaseDifficulty,
			Parameters: model.AdjustmentParameters{RepsIncrease: 3},
		}})
		require.NoError(t, err)
		version = updated.Version
	}

	stored, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, stored.Exercise(ex.ID).Reps.Upper())
}

func TestAdjustDecreaseNeverDropsBelowOneRep(t *testing.T) {
	svc, _ := newTestService(t)
	p := createDraft(t, svc)
	active, err := svc.Activate(context.Background(), p.ID, testProviderID, p.Version)
	require.NoError(t, err)
	ex := active.Exercises[1] // range 8-12
	version := active.Version

	for i := 0; i < 5; i++ {
		updated, err := svc.Adjust(context.Background(), p.ID, testProviderID, version, testProviderID.String(), []model.AdjustmentRequest{{
			ExerciseID: ex.ID,
			Type:       model.AdjustmentDecreaseDifficulty,
			Parameters: model.AdjustmentParameters{RepsReduction: 3, AddAssistance: true},
		}})
		require.NoError(t, err)
		version = updated.Version
	}

	stored, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	adjusted := stored.Exercise(ex.ID)
	assert.GreaterOrEqual(t, adjusted.Reps.Lower(), 1)
	assert.GreaterOrEqual(t, adjusted.Reps.Upper(), adjusted.Reps.Lower())
}

func TestAdjustBatchIsAllOrNothing(t *testing.T) {
	svc, _ := newTestService(t)
	p := createDraft(t, svc)
	active, err := svc.Activate(context.Background(), p.ID, testProviderID, p.Version)
	require.NoError(t, err)
	ex := active.Exercises[0]

	_, err = svc.Adjust(context.Background(), p.ID, testProviderID, active.Version, testProviderID.String(), []model.AdjustmentRequest{
		{
			ExerciseID: ex.ID,
			Type:       model.AdjustmentIncreaseDifficulty,
			Parameters: model.AdjustmentParameters{RepsIncrease: 2},
		},
		{
			ExerciseID: uuid.New(),
			Type:       model.AdjustmentIncreaseDifficulty,
			Parameters: model.AdjustmentParameters{RepsIncrease: 2},
		},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	stored, getErr := svc.Get(context.Background(), p.ID)
	require.NoError(t, getErr)
	assert.Equal(t, 10, stored.Exercise(ex.ID).Reps.Upper())
	assert.Empty(t, stored.Exercise(ex.ID).AdjustmentHistory)
	assert.Equal(t, active.Version, stored.Version)
}

func TestAdjustRejectsOutOfBoundsParameters(t *testing.T) {
	svc, _ := newTestService(t)
	p := createDraft(t, svc)
	active, err := svc.Activate(context.Background(), p.ID, testProviderID, p.Version)
	require.NoError(t, err)
	ex := active.Exercises[0]

	tests := []struct {
		name   string
		params model.AdjustmentParameters
	}{
		{"reps increase above cap", model.AdjustmentParameters{RepsIncrease: 4}},
		{"sets increase above cap", model.AdjustmentParameters{SetsIncrease: 2}},
		{"reps reduction above cap", model.AdjustmentParameters{RepsReduction: 4}},
		{"negative reps increase", model.AdjustmentParameters{RepsIncrease: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Adjust(context.Background(), p.ID, testProviderID, active.Version, testProviderID.String(), []model.AdjustmentRequest{{
				ExerciseID: ex.ID,
				Type:       model.AdjustmentIncreaseDifficulty,
				Parameters: tt.params,
			}})
			assert.True(t, errors.Is(err, errors.ErrValidation))
		})
	}
}

func TestAdjustTerminalPrescription(t *testing.T) {
	svc, _ := newTestService(t)
	p := createDraft(t, svc)
	active, err := svc.Activate(context.Background(), p.ID, testProviderID, p.Version)
	require.NoError(t, err)
	completed, err := svc.Complete(context.Background(), p.ID, testProviderID, active.Version)
	require.NoError(t, err)

	_, err = svc.Adjust(context.Background(), p.ID, testProviderID, completed.Version, testProviderID.String(), []model.AdjustmentRequest{{
		ExerciseID: completed.Exercises[0].ID,
		Type:       model.AdjustmentIncreaseDifficulty,
		Parameters: model.AdjustmentParameters{RepsIncrease: 1},
	}})

	assert.True(t, errors.Is(err, errors.ErrStateConflict))
}

func TestAdjustFrequencyIsRecordedWithoutMutation(t *testing.T) {
	svc, _ := newTestService(t)
	p := createDraft(t, svc)
	active, err := svc.Activate(context.Background(), p.ID, testProviderID, p.Version)
	require.NoError(t, err)
	ex := active.Exercises[0]

	updated, err := svc.Adjust(context.Background(), p.ID, testProviderID, active.Version, testProviderID.String(), []model.AdjustmentRequest{{
		ExerciseID: ex.ID,
		Type:       model.AdjustmentModifyFrequency,
		Reason:     "Drop to twice a week while travelling",
	}})

	require.NoError(t, err)
	adjusted := updated.Exercise(ex.ID)
	assert.Equal(t, ex.TimesPerWeek, adjusted.TimesPerWeek)
	assert.Equal(t, ex.Reps, adjusted.Reps)
	require.Len(t, adjusted.AdjustmentHistory, 1)
	assert.Equal(t, model.AdjustmentModifyFrequency, adjusted.AdjustmentHistory[0].Type)
}

package progress

import (
	"github.com/google/uuid"

	"github.com/jwalitptl/rehab-api/internal/model"
)

// Config holds the analysis thresholds. All of them are tunable; the
// defaults are starting points, not contract.
type Config struct {
	// MinSamples is the minimum session count before a trend is judged.
	MinSamples int
	// WindowSize is the number of recent sessions compared against the
	// sessions immediately before them.
	WindowSize int
	// TrendDelta is the accuracy-mean difference in points that separates
	// improving/declining from stable.
	TrendDelta float64
	// PlateauEpsilon is the accuracy variance below which a stable trend
	// counts as a plateau.
	PlateauEpsilon float64
	// AdherenceWeeks is the lookback span for the adherence rate.
	AdherenceWeeks int
}

func DefaultConfig() Config {
	return Config{
		MinSamples:     3,
		WindowSize:     3,
		TrendDelta:     5,
		PlateauEpsilon: 4,
		AdherenceWeeks: 4,
	}
}

// Analyzer derives per-exercise progress signals from raw session history.
// It is pure: no clock, no storage, safe for concurrent use.
type Analyzer struct {
	cfg Config
}

func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze turns the ordered session history for one (patient, exercise)
// pair into a ProgressSignal. Sessions must be ordered by date ascending.
// The adherence window is anchored at the latest session date rather than
// the wall clock so identical input always yields identical output.
func (a *Analyzer) Analyze(exerciseID uuid.UUID, sessions []model.SessionRecord, timesPerWeek int) model.ProgressSignal {
	signal := model.ProgressSignal{
		ExerciseID:   exerciseID,
		SessionCount: len(sessions),
	}
	if len(sessions) == 0 {
		signal.InsufficientData = true
		return signal
	}

	recent := lastN(sessions, a.cfg.WindowSize)
	signal.AccuracyMean = mean(accuracies(recent))
	signal.FormScoreMean = mean(formScores(recent))
	signal.AdherenceRate = a.adherenceRate(sessions, timesPerWeek)

	// Pain is flagged irrespective of every other signal.
	for _, s := range recent {
		if s.PainReported {
			signal.PainFlag = true
			break
		}
	}

	if len(sessions) < a.cfg.MinSamples {
		signal.InsufficientData = true
		return signal
	}

	prior := priorWindow(sessions, a.cfg.WindowSize)
	signal.Trend = a.trend(recent, prior)
	signal.Plateau = signal.Trend == model.TrendStable &&
		variance(accuracies(recent)) < a.cfg.PlateauEpsilon

	return signal
}

func (a *Analyzer) trend(recent, prior []model.SessionRecord) model.Trend {
	if len(prior) == 0 {
		return model.TrendStable
	}
	diff := mean(accuracies(recent)) - mean(accuracies(prior))
	switch {
	case diff >= a.cfg.TrendDelta:
		return model.TrendImproving
	case diff <= -a.cfg.TrendDelta:
		return model.TrendDeclining
	}
	return model.TrendStable
}

// adherenceRate compares sessions recorded over the lookback span against
// the sessions the prescription expects at timesPerWeek, clamped to [0,1].
func (a *Analyzer) adherenceRate(sessions []model.SessionRecord, timesPerWeek int) float64 {
	expected := float64(timesPerWeek * a.cfg.AdherenceWeeks)
	if expected <= 0 {
		return 0
	}
	latest := sessions[len(sessions)-1].Date
	windowStart := latest.AddDate(0, 0, -7*a.cfg.AdherenceWeeks)

	var observed float64
	for _, s := range sessions {
		if !s.Date.Before(windowStart) {
			observed++
		}
	}
	rate := observed / expected
	if rate > 1 {
		rate = 1
	}
	return rate
}

func lastN(sessions []model.SessionRecord, n int) []model.SessionRecord {
	if len(sessions) <= n {
		return sessions
	}
	return sessions[len(sessions)-n:]
}

// priorWindow returns up to n sessions immediately before the recent
// window. It is empty when the history is no longer than one window.
func priorWindow(sessions []model.SessionRecord, n int) []model.SessionRecord {
	end := len(sessions) - n
	if end <= 0 {
		return nil
	}
	start := end - n
	if start < 0 {
		start = 0
	}
	return sessions[start:end]
}

func accuracies(sessions []model.SessionRecord) []float64 {
	out := make([]float64, len(sessions))
	for i, s := range sessions {
		out[i] = s.Accuracy
	}
	return out
}

func formScores(sessions []model.SessionRecord) []float64 {
	out := make([]float64, len(sessions))
	for i, s := range sessions {
		out[i] = s.FormScore
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}

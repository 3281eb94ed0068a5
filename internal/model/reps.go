package model

import (
	"encoding/json"
	"fmt"
)

// Reps is either a fixed count or a {min,max} range. It serializes as a bare
// integer or as a {"min":..,"max":..} object.
type Reps struct {
	Fixed *int
	Min   *int
	Max   *int
}

func FixedReps(n int) Reps {
	return Reps{Fixed: &n}
}

func RangeReps(min, max int) Reps {
	return Reps{Min: &min, Max: &max}
}

func (r Reps) IsRange() bool {
	return r.Fixed == nil
}

// Upper returns the fixed count, or the range maximum.
func (r Reps) Upper() int {
	if r.Fixed != nil {
		return *r.Fixed
	}
	if r.Max != nil {
		return *r.Max
	}
	return 0
}

// Lower returns the fixed count, or the range minimum.
func (r Reps) Lower() int {
	if r.Fixed != nil {
		return *r.Fixed
	}
	if r.Min != nil {
		return *r.Min
	}
	return 0
}

func (r Reps) Validate() error {
	if r.Fixed != nil {
		if *r.Fixed < 1 {
			return fmt.Errorf("reps must be positive, got %d", *r.Fixed)
		}
		return nil
	}
	if r.Min == nil || r.Max == nil {
		return fmt.Errorf("reps range requires both min and max")
	}
	if *r.Min < 1 {
		return fmt.Errorf("reps range minimum must be positive, got %d", *r.Min)
	}
	if *r.Min > *r.Max {
		return fmt.Errorf("reps range minimum %d exceeds maximum %d", *r.Min, *r.Max)
	}
	return nil
}

// Shifted returns reps moved by delta, clamped so the lower bound never
// drops below 1 and the upper bound never exceeds ceiling when one is set.
func (r Reps) Shifted(delta int, ceiling *int) Reps {
	clamp := func(n int) int {
		if ceiling != nil && n > *ceiling {
			n = *ceiling
		}
		if n < 1 {
			n = 1
		}
		return n
	}
	if r.Fixed != nil {
		return FixedReps(clamp(*r.Fixed + delta))
	}
	min := clamp(*r.Min + delta)
	max := clamp(*r.Max + delta)
	if min > max {
		min = max
	}
	return RangeReps(min, max)
}

func (r Reps) MarshalJSON() ([]byte, error) {
	if r.Fixed != nil {
		return json.Marshal(*r.Fixed)
	}
	return json.Marshal(struct {
		Min int `json:"min"`
		Max int `json:"max"`
	}{Min: r.Lower(), Max: r.Upper()})
}

func (r *Reps) UnmarshalJSON(data []byte) error {
	var fixed int
	if err := json.Unmarshal(data, &fixed); err == nil {
		r.Fixed = &fixed
		r.Min, r.Max = nil, nil
		return nil
	}
	var rng struct {
		Min *int `json:"min"`
		Max *int `json:"max"`
	}
	if err := json.Unmarshal(data, &rng); err != nil {
		return fmt.Errorf("reps must be an integer or a {min,max} object: %w", err)
	}
	if rng.Min == nil || rng.Max == nil {
		return fmt.Errorf("reps range requires both min and max")
	}
	r.Fixed = nil
	r.Min, r.Max = rng.Min, rng.Max
	return nil
}

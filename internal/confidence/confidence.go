// Package confidence implements the scoring model applied to extracted
// clinical fields: clamping raw model confidences, bucketing them into
// levels, and combining per-field confidences into a weighted overall score.
package confidence

// Level is the categorical bucket derived from a numeric confidence score.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Bucket thresholds. A score at or above HighThreshold is high, at or above
// MediumThreshold is medium, anything below is low.
const (
	HighThreshold   = 0.85
	MediumThreshold = 0.70
)

// Score is a clamped confidence in [0,1] with its derived level. Construct
// through New so the clamp and level invariants always hold.
type Score struct {
	Value float64 `json:"value"`
	Level Level   `json:"level"`
}

// New clamps raw to [0,1] and derives the level.
func New(raw float64) Score {
	v := Clamp(raw)
	return Score{Value: v, Level: LevelFor(v)}
}

// Clamp bounds a raw confidence to [0,1].
func Clamp(raw float64) float64 {
	if raw < 0 {
		return 0
	}
	if raw > 1 {
		return 1
	}
	return raw
}

// LevelFor maps a score to its categorical level.
func LevelFor(score float64) Level {
	switch {
	case score >= HighThreshold:
		return LevelHigh
	case score >= MediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Weighted is one field's contribution to an overall score.
type Weighted struct {
	Weight     float64
	Confidence float64
	Present    bool
}

// Overall combines per-field confidences into a single score. Weights are
// re-normalized over present fields only, so a lone present field scores at
// its own confidence rather than being diluted by absent fields' weights.
// Returns a zero score when no field is present.
func Overall(fields []Weighted) Score {
	var sum, weightSum float64
	for _, f := range fields {
		if !f.Present {
			continue
		}
		sum += f.Weight * Clamp(f.Confidence)
		weightSum += f.Weight
	}
	if weightSum == 0 {
		return New(0)
	}
	return New(sum / weightSum)
}

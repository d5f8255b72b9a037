package provenance

import (
	"cliniscribe/internal/confidence"
	"cliniscribe/internal/domain"
)

// Risk weighting. A dismissed flag was reviewed by a human and retains only a
// residual weight; unsourced clinical statements contribute through the
// coverage gap.
const (
	criticalFlagWeight = 0.30
	warningFlagWeight  = 0.10
	dismissedResidual  = 0.25
	coverageGapWeight  = 0.40
)

// RiskScore derives a hallucination risk in [0,1] from the letter's flags and
// its clinical source coverage (0..100). Zero flags with full coverage scores
// zero.
func RiskScore(flags []domain.HallucinationFlag, sourceCoverage float64) float64 {
	risk := coverageGapWeight * (1 - confidence.Clamp(sourceCoverage/100))
	for _, f := range flags {
		w := warningFlagWeight
		if f.Severity == domain.FlagSeverityCritical {
			w = criticalFlagWeight
		}
		if f.Dismissed {
			w *= dismissedResidual
		}
		risk += w
	}
	return confidence.Clamp(risk)
}

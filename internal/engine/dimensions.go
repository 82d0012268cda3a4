package engine

import "github.com/mindflow/mindflow/internal/models"

// intensityDelta scales a dimension increment by emotion intensity.
func intensityDelta(intensity models.Intensity) float64 {
	switch intensity {
	case models.IntensityHigh:
		return 0.20
	case models.IntensityLow:
		return 0.05
	default:
		return 0.10
	}
}

// dimensionRule raises one dimension when the classified emotion
// matches. An empty SubCategories list matches any sub-category.
type dimensionRule struct {
	Category      models.EmotionCategory
	SubCategories []string
	Apply         func(d *models.AssessmentDimensions, delta float64)
}

// dimensionRules is the full additive rule list. Several rules may fire
// for a single turn: any positive emotion always raises progress in
// addition to a more specific match.
var dimensionRules = []dimensionRule{
	{
		Category:      models.EmotionNegative,
		SubCategories: []string{"fear", "anxiety"},
		Apply: func(d *models.AssessmentDimensions, delta float64) {
			d.ProblemSeverity = clampCeil(d.ProblemSeverity + delta)
		},
	},
	{
		Category:      models.EmotionPositive,
		SubCategories: []string{"hope", "confidence"},
		Apply: func(d *models.AssessmentDimensions, delta float64) {
			d.ClientMotivation = clampCeil(d.ClientMotivation + delta)
		},
	},
	{
		Category:      models.EmotionPositive,
		SubCategories: []string{"gratitude", "satisfaction"},
		Apply: func(d *models.AssessmentDimensions, delta float64) {
			d.TherapeuticAlliance = clampCeil(d.TherapeuticAlliance + delta)
		},
	},
	{
		Category: models.EmotionPositive,
		Apply: func(d *models.AssessmentDimensions, delta float64) {
			d.ProgressLevel = clampCeil(d.ProgressLevel + delta)
		},
	},
	{
		Category:      models.EmotionNegative,
		SubCategories: []string{"sadness", "anger"},
		Apply: func(d *models.AssessmentDimensions, delta float64) {
			d.RiskLevel = clampCeil(d.RiskLevel + delta)
		},
	},
}

// updateDimensions applies every matching rule for the classified
// emotion. Updates are additive only; values clamp at 1 and are never
// decayed or floored downward.
func updateDimensions(d *models.AssessmentDimensions, analysis models.EmotionAnalysis) {
	delta := intensityDelta(analysis.Intensity)

	for _, rule := range dimensionRules {
		if rule.Category != analysis.Category {
			continue
		}
		if len(rule.SubCategories) > 0 && !containsString(rule.SubCategories, analysis.SubCategory) {
			continue
		}
		rule.Apply(d, delta)
	}
}

func clampCeil(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

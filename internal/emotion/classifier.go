// Package emotion classifies counseling messages into a structured
// emotion descriptor using deterministic keyword matching over curated
// lexicons. Classification is a pure function of the text: no state,
// no network, identical input yields identical output.
package emotion

import (
	"strings"

	"github.com/mindflow/mindflow/internal/models"
)

// Scores holds the raw per-category keyword tallies of one classification.
type Scores struct {
	Totals map[models.EmotionCategory]int
	// Subs keeps the per-sub-category counts grouped by category.
	Subs map[models.EmotionCategory]map[string]int
}

// Neutral returns the defined default for empty or absent text.
func Neutral() models.EmotionAnalysis {
	return models.EmotionAnalysis{
		Category:    models.EmotionNeutral,
		SubCategory: "stable",
		Intensity:   models.IntensityModerate,
		Dimensions: models.EmotionDimensions{
			Valence:   0,
			Arousal:   models.LevelModerate,
			Dominance: models.LevelModerate,
			Stability: models.StabilityStable,
		},
	}
}

// Classify analyzes text and returns its emotion descriptor. It never
// fails: empty text yields the neutral default.
func Classify(text string) models.EmotionAnalysis {
	if text == "" {
		return Neutral()
	}

	scores := tally(text)
	category := dominantCategory(scores)

	return models.EmotionAnalysis{
		Category:    category,
		SubCategory: dominantSubCategory(scores, category),
		Intensity:   classifyIntensity(text),
		Dimensions: models.EmotionDimensions{
			Valence:   valence(scores),
			Arousal:   classifyArousal(text),
			Dominance: classifyDominance(text),
			Stability: classifyStability(text),
		},
	}
}

// tally counts keyword hits per sub-category and per category. Each
// keyword present in the text contributes one point.
func tally(text string) *Scores {
	scores := &Scores{
		Totals: make(map[models.EmotionCategory]int),
		Subs:   make(map[models.EmotionCategory]map[string]int),
	}

	for _, cat := range categoryLexicons {
		subs := make(map[string]int, len(cat.Subs))
		for _, sub := range cat.Subs {
			count := 0
			for _, kw := range sub.Keywords {
				if strings.Contains(text, kw) {
					count++
					scores.Totals[cat.Category]++
				}
			}
			subs[sub.Name] = count
		}
		scores.Subs[cat.Category] = subs
	}

	return scores
}

// dominantCategory selects the category with the highest total.
// Precedence is deliberate: neutral seeds the running maximum, positive
// overrides it only on a strictly greater total, then negative likewise.
// Ties between positive and negative therefore resolve to positive, and
// neutral wins all non-strict ties.
func dominantCategory(s *Scores) models.EmotionCategory {
	dominant := models.EmotionNeutral
	max := s.Totals[models.EmotionNeutral]

	if s.Totals[models.EmotionPositive] > max {
		dominant = models.EmotionPositive
		max = s.Totals[models.EmotionPositive]
	}
	if s.Totals[models.EmotionNegative] > max {
		dominant = models.EmotionNegative
	}

	return dominant
}

// dominantSubCategory selects the highest-scoring sub-category within
// the dominant category, walking sub-lexicons in declaration order so
// the first occurrence of the running maximum wins. With no hits at all
// the default "stable" stands.
func dominantSubCategory(s *Scores, category models.EmotionCategory) string {
	dominant := "stable"
	max := 0

	for _, cat := range categoryLexicons {
		if cat.Category != category {
			continue
		}
		for _, sub := range cat.Subs {
			if score := s.Subs[category][sub.Name]; score > max {
				max = score
				dominant = sub.Name
			}
		}
	}

	return dominant
}

// classifyIntensity scans the intensifier rules in order; the last rule
// with any matching word wins, defaulting to moderate.
func classifyIntensity(text string) models.Intensity {
	intensity := models.IntensityModerate
	for _, rule := range intensityRules {
		if containsAny(text, rule.Words) {
			intensity = rule.Level
		}
	}
	return intensity
}

// valence is (positive - negative) / total, or 0 when nothing matched.
func valence(s *Scores) float64 {
	total := s.Totals[models.EmotionPositive] + s.Totals[models.EmotionNegative] + s.Totals[models.EmotionNeutral]
	if total == 0 {
		return 0
	}
	return float64(s.Totals[models.EmotionPositive]-s.Totals[models.EmotionNegative]) / float64(total)
}

func classifyArousal(text string) models.Level {
	if containsAny(text, arousalHigh) {
		return models.LevelHigh
	}
	if containsAny(text, arousalLow) {
		return models.LevelLow
	}
	return models.LevelModerate
}

func classifyDominance(text string) models.Level {
	if containsAny(text, dominanceHigh) {
		return models.LevelHigh
	}
	if containsAny(text, dominanceLow) {
		return models.LevelLow
	}
	return models.LevelModerate
}

func classifyStability(text string) models.Stability {
	if containsAny(text, fluctuating) {
		return models.StabilityFluctuating
	}
	return models.StabilityStable
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

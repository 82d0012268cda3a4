package engine

import (
	"math"
	"strings"
	"testing"

	"github.com/mindflow/mindflow/internal/models"
)

func techniqueByName(t *testing.T, name string) models.Technique {
	t.Helper()
	for _, group := range strategyLibrary {
		for _, tech := range group.Techniques {
			if tech.Name == name {
				return tech
			}
		}
	}
	t.Fatalf("technique %q not in library", name)
	return models.Technique{}
}

func TestContraindicationVetoesSuitability(t *testing.T) {
	// Anxiety makes cognitive restructuring suitable, but high problem
	// severity triggers its severe_crisis contraindication.
	state := assessmentState{
		Emotion: models.EmotionAnalysis{
			Category:    models.EmotionNegative,
			SubCategory: "anxiety",
			Intensity:   models.IntensityHigh,
		},
		Stage:      models.StageInitial,
		Dimensions: models.AssessmentDimensions{ProblemSeverity: 0.8, ClientMotivation: 0.5},
	}

	if got := matchScore(techniqueByName(t, "认知重构"), state); got != 0 {
		t.Errorf("contraindicated technique scored %v, want 0", got)
	}

	// Selection falls through to a technique without the veto.
	best := selectStrategy(state)
	if best.Technique.Name != "积极倾听" {
		t.Errorf("selected %s, want 积极倾听", best.Technique.Name)
	}
	if math.Abs(best.MatchScore-0.7) > 1e-9 {
		t.Errorf("match score = %v, want 0.7", best.MatchScore)
	}
}

func TestSupportiveFallbackWhenNothingMatches(t *testing.T) {
	state := assessmentState{
		Emotion: models.EmotionAnalysis{
			Category:    models.EmotionNeutral,
			SubCategory: "stable",
			Intensity:   models.IntensityModerate,
		},
		Stage: models.Stage("unknown"),
		Dimensions: models.AssessmentDimensions{
			ClientMotivation: 0.5,
		},
		ProgressLevel: 0.5,
	}

	got := selectStrategy(state)
	if got.Category != models.StrategySupportive {
		t.Errorf("fallback category = %s, want supportive", got.Category)
	}
	if got.Technique.Name != "积极倾听" {
		t.Errorf("fallback technique = %s, want 积极倾听", got.Technique.Name)
	}
	if got.MatchScore != 0.5 {
		t.Errorf("fallback score = %v, want 0.5", got.MatchScore)
	}
}

func TestMatchScoreCapsAtOne(t *testing.T) {
	// Suitability + stage bonus + emotion and progress compatibility
	// exceed 1.0 and must be capped.
	state := assessmentState{
		Emotion: models.EmotionAnalysis{
			Category:    models.EmotionNegative,
			SubCategory: "anxiety",
			Intensity:   models.IntensityModerate,
			Dimensions:  models.EmotionDimensions{Stability: models.StabilityFluctuating},
		},
		Stage:           models.StageIntervention,
		Dimensions:      models.AssessmentDimensions{ProblemSeverity: 0.5, ClientMotivation: 0.6},
		ProgressLevel:   0.5,
		BlockedFraction: 0.6,
	}

	if got := matchScore(techniqueByName(t, "认知重构"), state); got != 1 {
		t.Errorf("score = %v, want cap at 1", got)
	}
}

func TestStageBonus(t *testing.T) {
	tech := techniqueByName(t, "积极倾听")
	base := assessmentState{
		Emotion: models.EmotionAnalysis{
			Category:    models.EmotionNeutral,
			SubCategory: "stable",
		},
		Dimensions:    models.AssessmentDimensions{ClientMotivation: 0.5},
		ProgressLevel: 0.5,
	}

	compatible := base
	compatible.Stage = models.StageInitial
	incompatible := base
	incompatible.Stage = models.StageAssessment

	diff := matchScore(tech, compatible) - matchScore(tech, incompatible)
	if math.Abs(diff-0.3) > 1e-9 {
		t.Errorf("stage bonus = %v, want 0.3", diff)
	}
}

func TestLowMotivationMatchesBehavioralActivation(t *testing.T) {
	state := assessmentState{
		Emotion: models.EmotionAnalysis{
			Category:    models.EmotionNegative,
			SubCategory: "sadness",
		},
		Stage:         models.StageIntervention,
		Dimensions:    models.AssessmentDimensions{ClientMotivation: 0.3},
		ProgressLevel: 0.5,
	}

	// low_motivation suitability + stage bonus.
	if got := matchScore(techniqueByName(t, "行为激活"), state); math.Abs(got-0.6) > 1e-9 {
		t.Errorf("score = %v, want 0.6", got)
	}
}

func TestBuildPlanExpandsStrategy(t *testing.T) {
	state := assessmentState{
		Emotion: models.EmotionAnalysis{
			Category:    models.EmotionNegative,
			SubCategory: "anxiety",
			Intensity:   models.IntensityHigh,
		},
		Stage: models.StageIntervention,
		Dimensions: models.AssessmentDimensions{
			ProblemSeverity:     0.8,
			TherapeuticAlliance: 0.3,
			ClientMotivation:    0.6,
			RiskLevel:           0.6,
		},
	}
	strategy := models.StrategyMatch{
		Category:   models.StrategyEmotional,
		Technique:  techniqueByName(t, "情绪调节"),
		MatchScore: 0.8,
	}

	plan := buildPlan(strategy, state, "干预实施")

	if len(plan.Implementation.Steps) == 0 {
		t.Fatal("plan has no implementation steps")
	}
	if len(plan.Implementation.Timeline) != len(plan.Implementation.Steps) {
		t.Errorf("timeline has %d entries for %d steps",
			len(plan.Implementation.Timeline), len(plan.Implementation.Steps))
	}
	last := plan.Implementation.Timeline[len(plan.Implementation.Timeline)-1]
	if last.NextStep != "评估成效" {
		t.Errorf("final next step = %q, want 评估成效", last.NextStep)
	}
	first := plan.Implementation.Timeline[0]
	wantMilestone := "完成" + plan.Implementation.Steps[0] + "的标志是..."
	if first.Milestone != wantMilestone {
		t.Errorf("milestone = %q, want %q", first.Milestone, wantMilestone)
	}

	adj := plan.Implementation.Adjustments
	if !strings.Contains(adj.Intensity, "降低干预强度") {
		t.Errorf("high severity should lower intensity, got %q", adj.Intensity)
	}
	if !strings.Contains(adj.Pace, "放慢节奏") {
		t.Errorf("high emotion intensity should slow the pace, got %q", adj.Pace)
	}
	// Alliance below 0.5 and risk above 0.5 both add focus items.
	if len(adj.Focus) != 2 {
		t.Errorf("focus = %v, want 2 items", adj.Focus)
	}

	if !strings.Contains(plan.Rationale.StageConsideration, "干预实施") {
		t.Errorf("rationale does not mention the stage: %q", plan.Rationale.StageConsideration)
	}
	if len(plan.Evaluation.Indicators.Primary) == 0 {
		t.Error("evaluation plan has no primary indicators")
	}
}

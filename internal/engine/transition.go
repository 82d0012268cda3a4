package engine

import (
	"math"
	"strings"

	"github.com/mindflow/mindflow/internal/emotion"
	"github.com/mindflow/mindflow/internal/models"
)

// evaluateTransition decides whether the session should change stage in
// response to the incoming message. Evaluation order is load-bearing:
//
//  1. crisis override: any crisis keyword forces the assessment stage,
//     even backward from a later stage, bypassing all scoring
//  2. terminal check: no transition out of the closing stage
//  3. ten component scores over the last MinMessages turns
//  4. hard gate of per-stage minimum sub-scores (a veto, not a weight)
//  5. stage weight table -> weighted total vs. stage threshold
//
// The returned bool reports whether a transition should happen.
func (e *Engine) evaluateTransition(message string) (models.Stage, bool) {
	if containsAny(message, crisisKeywords) {
		return models.StageAssessment, true
	}

	rules, ok := stageRules[e.stage]
	if !ok {
		return "", false
	}

	next, ok := e.stage.Next()
	if !ok {
		return "", false
	}

	window := e.lastMessages(rules.MinMessages)

	scores := map[string]float64{
		"topicCoverage":   topicCoverageScore(window, rules.RequiredTopics),
		"blockingFactors": blockingFactorScore(message, rules.BlockingFactors),
		"keywords":        keywordScore(message, window, rules.Keywords),
		"emotion":         emotionScore(window),
		"dimensions":      dimensionScore(e.dims),

		"emotionalStability":        emotionalStabilityScore(window),
		"therapeuticAlliance":       allianceScore(window),
		"clientReadiness":           readinessScore(window),
		"problemClarity":            clarityScore(window),
		"interventionEffectiveness": effectivenessScore(window),
	}

	weights := stageWeights[e.stage]
	total := 0.0
	for key, score := range scores {
		total += score * weights[key]
	}

	threshold := stageThresholds[e.stage]

	details, passed := checkGate(e.stage, scores)
	if !passed {
		return "", false
	}

	assessment := models.TransitionAssessment{
		Stage:           e.stage,
		Scores:          scores,
		Weights:         weights,
		TotalScore:      total,
		Threshold:       threshold,
		ExtraConditions: details,
		Timestamp:       e.now(),
	}
	e.assessments = append(e.assessments, assessment)
	e.recordAssessment(assessment)

	if total >= threshold {
		return next, true
	}
	return "", false
}

// lastMessages returns the trailing n messages of the history.
func (e *Engine) lastMessages(n int) []models.Message {
	if n <= 0 || len(e.history) <= n {
		return e.history
	}
	return e.history[len(e.history)-n:]
}

func joinContents(window []models.Message) string {
	parts := make([]string, len(window))
	for i, msg := range window {
		parts[i] = msg.Content
	}
	return strings.Join(parts, " ")
}

// topicCoverageScore is the fraction of required topics whose keyword
// set intersects the window text.
func topicCoverageScore(window []models.Message, topics []string) float64 {
	if len(topics) == 0 {
		return 0
	}
	text := joinContents(window)
	covered := 0
	for _, topic := range topics {
		if containsAny(text, topicKeywords[topic]) {
			covered++
		}
	}
	return float64(covered) / float64(len(topics))
}

// blockingFactorScore is 1 minus the fraction of blocking factors whose
// keywords appear in the current message only.
func blockingFactorScore(message string, factors []string) float64 {
	if len(factors) == 0 {
		return 1
	}
	blocked := 0
	for _, factor := range factors {
		if containsAny(message, blockingKeywords[factor]) {
			blocked++
		}
	}
	return 1 - float64(blocked)/float64(len(factors))
}

// blockedFraction is the raw matched fraction, used by the strategy
// matcher's progress compatibility rules.
func blockedFraction(message string, factors []string) float64 {
	if len(factors) == 0 {
		return 0
	}
	return 1 - blockingFactorScore(message, factors)
}

// keywordScore is the fraction of the stage keyword list found across
// the current message and the window.
func keywordScore(message string, window []models.Message, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	text := message + " " + joinContents(window)
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}

// emotionScore is the positive fraction minus the negative fraction of
// the window's classified categories, offset by 0.5. Deliberately not
// clamped; it can leave [0,1] for strongly one-sided windows.
func emotionScore(window []models.Message) float64 {
	if len(window) == 0 {
		return 0
	}
	positive, negative := 0, 0
	for _, msg := range window {
		switch classifyMessage(msg).Category {
		case models.EmotionPositive:
			positive++
		case models.EmotionNegative:
			negative++
		}
	}
	total := float64(len(window))
	return float64(positive)/total - float64(negative)/total + 0.5
}

// classifyMessage reuses a stored analysis when present so window
// scoring agrees with what the turn recorded.
func classifyMessage(msg models.Message) models.EmotionAnalysis {
	if msg.Emotion != nil {
		return *msg.Emotion
	}
	return emotion.Classify(msg.Content)
}

// dimensionScore folds the assessment accumulators with fixed weights.
func dimensionScore(d models.AssessmentDimensions) float64 {
	return d.ProblemSeverity*dimensionWeights.Severity +
		d.ClientMotivation*dimensionWeights.Motivation +
		d.TherapeuticAlliance*dimensionWeights.Alliance +
		d.ProgressLevel*dimensionWeights.Progress +
		d.RiskLevel*dimensionWeights.Risk
}

// emotionalStabilityScore rewards consecutive messages that keep the
// same emotional footing. Fewer than two messages scores 0.5.
func emotionalStabilityScore(window []models.Message) float64 {
	if len(window) < 2 {
		return 0.5
	}

	emotions := make([]models.EmotionAnalysis, len(window))
	for i, msg := range window {
		emotions[i] = classifyMessage(msg)
	}

	score := 0.0
	for i := 1; i < len(emotions); i++ {
		prev, curr := emotions[i-1], emotions[i]
		if prev.Category == curr.Category {
			score += 0.3
		}
		if prev.Intensity == curr.Intensity {
			score += 0.2
		}
		if prev.Dimensions.Stability == curr.Dimensions.Stability {
			score += 0.2
		}
		if prev.Dimensions.Arousal == curr.Dimensions.Arousal {
			score += 0.2
		}
		if math.Abs(prev.Dimensions.Valence-curr.Dimensions.Valence) < 0.3 {
			score += 0.1
		}
	}

	return score / float64(len(emotions)-1)
}

// indicatorScore shifts a 0.5 base by the given step per indicator
// present in the window text, clamped to [0,1].
func indicatorScore(window []models.Message, shifts []indicatorShift) float64 {
	text := joinContents(window)
	score := 0.5
	for _, shift := range shifts {
		for _, word := range shift.Words {
			if strings.Contains(text, word) {
				score += shift.Step
			}
		}
	}
	return clamp01(score)
}

type indicatorShift struct {
	Words []string
	Step  float64
}

func allianceScore(window []models.Message) float64 {
	return indicatorScore(window, []indicatorShift{
		{allianceIndicators.Positive, 0.1},
		{allianceIndicators.Negative, -0.1},
	})
}

func readinessScore(window []models.Message) float64 {
	return indicatorScore(window, []indicatorShift{
		{readinessIndicators.High, 0.15},
		{readinessIndicators.Moderate, 0.1},
		{readinessIndicators.Low, -0.15},
	})
}

func clarityScore(window []models.Message) float64 {
	return indicatorScore(window, []indicatorShift{
		{clarityIndicators.High, 0.15},
		{clarityIndicators.Moderate, 0.1},
		{clarityIndicators.Low, -0.15},
	})
}

func effectivenessScore(window []models.Message) float64 {
	return indicatorScore(window, []indicatorShift{
		{effectivenessIndicators.Positive, 0.15},
		{effectivenessIndicators.Neutral, 0.05},
		{effectivenessIndicators.Negative, -0.15},
	})
}

// checkGate evaluates the stage-specific minimum sub-score
// requirements. Any failing condition vetoes the transition no matter
// how high the weighted total is.
func checkGate(stage models.Stage, scores map[string]float64) ([]string, bool) {
	var details []string

	fail := func(msg string) {
		details = append(details, msg)
	}

	switch stage {
	case models.StageInitial:
		if scores["therapeuticAlliance"] < 0.4 {
			fail("咨询关系尚未建立")
		}
		if scores["problemClarity"] < 0.3 {
			fail("问题描述不够清晰")
		}
	case models.StageAssessment:
		if scores["problemClarity"] < 0.6 {
			fail("问题评估不够充分")
		}
		if scores["clientReadiness"] < 0.5 {
			fail("来访者尚未准备好设定目标")
		}
	case models.StageGoalSetting:
		if scores["problemClarity"] < 0.7 {
			fail("咨询目标不够明确")
		}
		if scores["clientReadiness"] < 0.6 {
			fail("来访者动机不够强")
		}
	case models.StageIntervention:
		if scores["interventionEffectiveness"] < 0.5 {
			fail("干预效果不够理想")
		}
		if scores["emotionalStability"] < 0.6 {
			fail("情绪状态不够稳定")
		}
	case models.StageClosing:
		if scores["interventionEffectiveness"] < 0.7 {
			fail("整体改善效果不够理想")
		}
		if scores["emotionalStability"] < 0.7 {
			fail("情绪状态不够稳定")
		}
		if scores["problemClarity"] < 0.8 {
			fail("问题未得到充分解决")
		}
	}

	return details, len(details) == 0
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

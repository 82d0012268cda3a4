package engine

import (
	"math"
	"strings"
	"time"

	"github.com/mindflow/mindflow/internal/models"
)

// qualityWindow is how many trailing messages the assessor looks at.
const qualityWindow = 10

// stopWords are filtered before keyword resonance and overlap checks.
var stopWords = []string{"的", "了", "和", "是", "在", "我", "你", "他", "她", "它", "这", "那", "都"}

// conversationTopics maps a topic label to the words that place a
// message in it, used for the topic coherence component.
var conversationTopics = map[string][]string{
	"情绪": {"感觉", "心情", "情绪", "感受"},
	"人际": {"关系", "家人", "朋友", "同事"},
	"工作": {"工作", "职业", "事业", "学习"},
	"生活": {"生活", "日常", "习惯", "作息"},
	"健康": {"身体", "健康", "睡眠", "饮食"},
}

// detailIndicators signal that a client message carries concrete detail.
var detailIndicators = []string{
	"具体", "例如", "比如", "当时", "那天",
	"上周", "昨天", "今天", "明天", "记得",
	"发生", "经历", "场景", "细节", "情况",
}

// assessQuality scores the last window of turns. The intervention
// effectiveness component is session-level and reads the recorded
// effect history, so it must be computed before the current turn's
// effect is appended.
func (e *Engine) assessQuality() models.SessionQuality {
	window := e.lastMessages(qualityWindow)

	quality := models.SessionQuality{
		InteractionQuality:        interactionQuality(window),
		ResponseRelevance:         responseRelevance(window),
		InterventionEffectiveness: e.interventionEffectiveness(),
		ClientEngagement:          clientEngagement(userMessages(window)),
		Timestamp:                 e.now(),
	}

	e.qualityHistory = append(e.qualityHistory, quality)
	return quality
}

// interactionQuality starts at 0.5 and gains 0.1 per adjacent-pair
// check that passes: a reply within a minute, a reply length between 10
// and 500 characters, and keyword resonance with the previous message.
func interactionQuality(window []models.Message) float64 {
	score := 0.5

	for i := 1; i < len(window); i++ {
		prev, curr := window[i-1], window[i]

		if curr.Timestamp.Sub(prev.Timestamp) < time.Minute {
			score += 0.1
		}

		if length := len([]rune(curr.Content)); length > 10 && length < 500 {
			score += 0.1
		}

		if keywordResonance(prev.Content, curr.Content) {
			score += 0.1
		}
	}

	return clamp01(score)
}

// keywordResonance reports whether any non-stopword token of the
// previous message reappears in the current one.
func keywordResonance(prev, curr string) bool {
	for _, kw := range extractKeywords(prev) {
		if strings.Contains(curr, kw) {
			return true
		}
	}
	return false
}

// extractKeywords splits on whitespace and drops single-rune tokens and
// stop words.
func extractKeywords(text string) []string {
	var keywords []string
	for _, token := range strings.Fields(text) {
		if len([]rune(token)) <= 1 || containsString(stopWords, token) {
			continue
		}
		keywords = append(keywords, token)
	}
	return keywords
}

// responseRelevance scores each user/assistant pair on keyword overlap,
// emotion compatibility and topic coherence.
func responseRelevance(window []models.Message) float64 {
	score := 0.5

	for i := 1; i < len(window); i += 2 {
		userMsg, aiMsg := window[i-1], window[i]
		if userMsg.Role != models.RoleUser || aiMsg.Role != models.RoleAssistant {
			continue
		}

		score += keywordMatchRatio(userMsg.Content, aiMsg.Content) * 0.2
		score += emotionMatchScore(userMsg, aiMsg) * 0.2
		score += topicOverlapRatio(userMsg.Content, aiMsg.Content) * 0.1
	}

	return clamp01(score)
}

// keywordMatchRatio is the fraction of the user's keywords echoed in
// the assistant reply.
func keywordMatchRatio(userText, aiText string) float64 {
	userKeywords := extractKeywords(userText)
	aiKeywords := extractKeywords(aiText)

	matched := 0
	for _, kw := range userKeywords {
		for _, aiKw := range aiKeywords {
			if strings.Contains(aiKw, kw) {
				matched++
				break
			}
		}
	}

	denom := len(userKeywords)
	if denom == 0 {
		denom = 1
	}
	return float64(matched) / float64(denom)
}

// emotionMatchScore rewards a positive reply to a negative client turn
// (+0.3), plain category resonance (+0.2), and a valence gap under 0.3
// (+0.2).
func emotionMatchScore(userMsg, aiMsg models.Message) float64 {
	userEmotion := classifyMessage(userMsg)
	aiEmotion := classifyMessage(aiMsg)

	score := 0.0
	if userEmotion.Category == models.EmotionNegative && aiEmotion.Category == models.EmotionPositive {
		score += 0.3
	} else if userEmotion.Category == aiEmotion.Category {
		score += 0.2
	}

	if math.Abs(userEmotion.Dimensions.Valence-aiEmotion.Dimensions.Valence) < 0.3 {
		score += 0.2
	}

	return score
}

// topicOverlapRatio is the fraction of the user's topics the reply
// stays on.
func topicOverlapRatio(userText, aiText string) float64 {
	userTopics := messageTopics(userText)
	aiTopics := messageTopics(aiText)

	matched := 0
	for _, topic := range userTopics {
		if containsString(aiTopics, topic) {
			matched++
		}
	}

	denom := len(userTopics)
	if denom == 0 {
		denom = 1
	}
	return float64(matched) / float64(denom)
}

func messageTopics(text string) []string {
	var topics []string
	// Fixed label order keeps the ratio deterministic.
	for _, label := range []string{"情绪", "人际", "工作", "生活", "健康"} {
		if containsAny(text, conversationTopics[label]) {
			topics = append(topics, label)
		}
	}
	return topics
}

func userMessages(window []models.Message) []models.Message {
	var msgs []models.Message
	for _, msg := range window {
		if msg.Role == models.RoleUser {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

// clientEngagement blends message frequency, message quality and
// emotional investment of the client's recent messages.
func clientEngagement(msgs []models.Message) float64 {
	score := 0.5
	score += messageFrequency(msgs) * 0.2
	score += messageQuality(msgs) * 0.3
	score += emotionalInvestment(msgs) * 0.3
	return clamp01(score)
}

// messageFrequency compares the average gap between client messages to
// a five-minute reference interval.
func messageFrequency(msgs []models.Message) float64 {
	if len(msgs) < 2 {
		return 0.5
	}

	var totalGap time.Duration
	for i := 1; i < len(msgs); i++ {
		totalGap += msgs[i].Timestamp.Sub(msgs[i-1].Timestamp)
	}
	avgGap := totalGap / time.Duration(len(msgs)-1)
	if avgGap <= 0 {
		return 1
	}

	ratio := float64(5*time.Minute) / float64(avgGap)
	if ratio > 1 {
		return 1
	}
	return ratio
}

// messageQuality checks length, emotional expression and concrete
// detail per client message.
func messageQuality(msgs []models.Message) float64 {
	if len(msgs) == 0 {
		return 0
	}

	score := 0.0
	for _, msg := range msgs {
		if length := len([]rune(msg.Content)); length > 10 && length < 500 {
			score += 0.2
		}
		if classifyMessage(msg).Category != models.EmotionNeutral {
			score += 0.2
		}
		if containsAny(msg.Content, detailIndicators) {
			score += 0.2
		}
	}

	return score / float64(len(msgs))
}

// emotionalInvestment rewards intensity and expressive range.
func emotionalInvestment(msgs []models.Message) float64 {
	if len(msgs) == 0 {
		return 0
	}

	score := 0.0
	for _, msg := range msgs {
		e := classifyMessage(msg)

		switch e.Intensity {
		case models.IntensityHigh:
			score += 0.3
		case models.IntensityModerate:
			score += 0.2
		}

		if e.Dimensions.Valence != 0 {
			score += 0.2
		}
		if e.Dimensions.Arousal != models.LevelModerate {
			score += 0.2
		}
	}

	return score / float64(len(msgs))
}

// interventionEffectiveness is the session-level component: 0.5 until
// at least two effects are recorded, then the mean over the trailing
// five effects of valence bonus + interaction quality blend + dimension
// blend. The per-effect sum is deliberately not re-clamped.
func (e *Engine) interventionEffectiveness() float64 {
	if len(e.effects) < 2 {
		return 0.5
	}

	recent := e.effects
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}

	score := 0.0
	for _, effect := range recent {
		if effect.Emotion.Dimensions.Valence > 0 {
			score += 0.2
		}
		score += effect.Quality.InteractionQuality * 0.3
		score += (effect.Dimensions.ProgressLevel +
			effect.Dimensions.TherapeuticAlliance +
			effect.Dimensions.ClientMotivation) / 3 * 0.3
	}

	return score / float64(len(recent))
}

// recordEffect appends the turn's effect snapshot and updates the
// strategy effectiveness ledger.
func (e *Engine) recordEffect(plan *models.InterventionPlan, analysis models.EmotionAnalysis, quality models.SessionQuality) {
	effect := models.InterventionEffect{
		Timestamp:  e.now(),
		Stage:      e.stage,
		Strategy:   plan.Strategy,
		Emotion:    analysis,
		Quality:    quality,
		Dimensions: e.dims,
	}
	e.effects = append(e.effects, effect)
	e.updateLedger(effect)
}

// updateLedger maintains the running per-technique statistics using
// incremental means. A turn counts as a success when its interaction
// quality exceeds 0.7.
func (e *Engine) updateLedger(effect models.InterventionEffect) {
	name := effect.Strategy.Technique.Name
	stats, ok := e.ledger[name]
	if !ok {
		stats = &models.StrategyStats{}
		e.ledger[name] = stats
	}

	stats.UsageCount++
	if effect.Quality.InteractionQuality > 0.7 {
		stats.SuccessCount++
	}

	n := float64(stats.UsageCount)
	stats.AverageQuality = (stats.AverageQuality*(n-1) + effect.Quality.InteractionQuality) / n
	stats.EmotionalImpact = (stats.EmotionalImpact*(n-1) + effect.Emotion.Dimensions.Valence) / n

	e.recordLedger(name, *stats)
}

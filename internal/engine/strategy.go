package engine

import (
	"fmt"
	"strings"

	"github.com/mindflow/mindflow/internal/models"
)

// strategyLibrary is the immutable technique library, grouped by
// therapeutic approach. Iteration order is fixed: category order below,
// then technique order within a group. Ranking ties keep this order.
var strategyLibrary = []models.StrategyGroup{
	{
		Category:    models.StrategyCognitive,
		Name:        "认知干预",
		Description: "帮助识别和改变不合理认知",
		Techniques: []models.Technique{
			{
				Name:              "认知重构",
				Description:       "识别和挑战消极思维模式",
				SuitableFor:       []string{"anxiety", "depression", "low_confidence"},
				Contraindications: []string{"severe_crisis", "psychotic"},
				Steps:             []string{"识别自动化思维", "寻找认知偏差", "收集证据", "生成替代性想法", "实践新认知"},
			},
			{
				Name:              "问题解决",
				Description:       "系统性解决问题的方法",
				SuitableFor:       []string{"stress", "decision_making", "life_adjustment"},
				Contraindications: []string{"severe_emotional_distress"},
				Steps:             []string{"明确问题", "头脑风暴解决方案", "评估可行性", "制定行动计划", "执行和评估"},
			},
		},
	},
	{
		Category:    models.StrategyBehavioral,
		Name:        "行为干预",
		Description: "通过改变行为模式促进改变",
		Techniques: []models.Technique{
			{
				Name:              "行为激活",
				Description:       "增加积极活动的参与",
				SuitableFor:       []string{"depression", "low_motivation", "social_withdrawal"},
				Contraindications: []string{"manic", "impulsive"},
				Steps:             []string{"活动监测", "确定目标活动", "制定活动计划", "克服障碍", "评估效果"},
			},
			{
				Name:              "渐进式暴露",
				Description:       "逐步面对恐惧情境",
				SuitableFor:       []string{"anxiety", "phobia", "avoidance"},
				Contraindications: []string{"acute_trauma", "severe_panic"},
				Steps:             []string{"建立焦虑层级", "学习放松技巧", "制定暴露计划", "实施暴露", "巩固进展"},
			},
		},
	},
	{
		Category:    models.StrategyEmotional,
		Name:        "情绪干预",
		Description: "关注情绪体验和表达",
		Techniques: []models.Technique{
			{
				Name:              "情绪觉察",
				Description:       "提高情绪意识和理解",
				SuitableFor:       []string{"emotional_confusion", "alexithymia", "stress"},
				Contraindications: []string{"severe_dissociation"},
				Steps:             []string{"识别情绪", "描述情绪体验", "理解情绪触发", "接纳情绪", "健康表达"},
			},
			{
				Name:              "情绪调节",
				Description:       "学习管理和调节情绪的技巧",
				SuitableFor:       []string{"emotion_dysregulation", "impulse_control", "anger"},
				Contraindications: []string{"active_crisis"},
				Steps:             []string{"识别预警信号", "学习调节技巧", "制定应对计划", "练习新技能", "预防复发"},
			},
		},
	},
	{
		Category:    models.StrategyInterpersonal,
		Name:        "人际干预",
		Description: "改善人际关系和沟通模式",
		Techniques: []models.Technique{
			{
				Name:              "沟通训练",
				Description:       "提高人际沟通效能",
				SuitableFor:       []string{"relationship_problems", "social_anxiety", "assertiveness"},
				Contraindications: []string{"acute_conflict"},
				Steps:             []string{"评估沟通模式", "学习沟通技巧", "角色练习", "实际应用", "反馈调整"},
			},
			{
				Name:              "角色分析",
				Description:       "探索和调整社会角色",
				SuitableFor:       []string{"role_transition", "identity_issues", "work_stress"},
				Contraindications: []string{"severe_confusion"},
				Steps:             []string{"识别角色期待", "分析角色冲突", "调整角色认知", "学习新技能", "适应新角色"},
			},
		},
	},
	{
		Category:    models.StrategySupportive,
		Name:        "支持性干预",
		Description: "提供情感支持和资源链接",
		Techniques: []models.Technique{
			{
				Name:              "积极倾听",
				Description:       "提供理解和支持的倾听",
				SuitableFor:       []string{"emotional_distress", "loneliness", "grief"},
				Contraindications: []string{},
				Steps:             []string{"建立信任", "反映感受", "提供支持", "探索资源", "巩固关系"},
			},
			{
				Name:              "资源链接",
				Description:       "连接社会支持资源",
				SuitableFor:       []string{"practical_needs", "social_isolation", "crisis"},
				Contraindications: []string{},
				Steps:             []string{"评估需求", "识别资源", "制定计划", "协助链接", "跟进评估"},
			},
		},
	},
}

// stageCompatibleTechniques awards the stage bonus by technique name.
var stageCompatibleTechniques = map[models.Stage][]string{
	models.StageInitial:      {"积极倾听", "情绪觉察"},
	models.StageAssessment:   {"问题解决", "情绪觉察"},
	models.StageGoalSetting:  {"问题解决", "角色分析"},
	models.StageIntervention: {"认知重构", "行为激活", "渐进式暴露"},
	models.StageClosing:      {"资源链接", "预防复发"},
}

// assessmentState is everything the matcher needs about the session at
// selection time.
type assessmentState struct {
	Emotion         models.EmotionAnalysis
	Stage           models.Stage
	Dimensions      models.AssessmentDimensions
	ProgressLevel   float64
	BlockedFraction float64
}

// selectStrategy ranks the technique library against the current state
// and returns the best match. Scoring:
//
//   - +0.3 per suitableFor condition matching the assessment
//   - any matching contraindication forces the score to 0 (hard veto)
//   - +0.3 when the technique is compatible with the current stage
//   - up to +0.6 from emotion compatibility
//   - up to +0.4 from progress compatibility
//   - capped at 1.0
//
// When nothing scores above zero the first supportive technique is
// returned as a 0.5-score fallback.
func selectStrategy(state assessmentState) models.StrategyMatch {
	var matches []models.StrategyMatch

	for _, group := range strategyLibrary {
		for _, technique := range group.Techniques {
			score := matchScore(technique, state)
			if score > 0 {
				matches = append(matches, models.StrategyMatch{
					Category:   group.Category,
					Technique:  technique,
					MatchScore: score,
				})
			}
		}
	}

	if len(matches) == 0 {
		return defaultStrategy()
	}

	// Stable descending sort keeps library order for equal scores.
	best := matches[0]
	for _, m := range matches[1:] {
		if m.MatchScore > best.MatchScore {
			best = m
		}
	}
	return best
}

// matchScore computes one technique's fit against the session state.
func matchScore(technique models.Technique, state assessmentState) float64 {
	score := 0.0

	for _, condition := range technique.SuitableFor {
		if conditionMatches(condition, state) {
			score += 0.3
		}
	}

	// Contraindications veto regardless of suitability matches.
	for _, condition := range technique.Contraindications {
		if conditionMatches(condition, state) {
			return 0
		}
	}

	if containsString(stageCompatibleTechniques[state.Stage], technique.Name) {
		score += 0.3
	}

	score += emotionCompatibility(technique.Name, state.Emotion)
	score += progressCompatibility(technique.Name, state)

	if score > 1 {
		return 1
	}
	return score
}

// conditionMatches resolves a suitability or contraindication tag
// against the assessment. Unrecognized tags never match.
func conditionMatches(condition string, state assessmentState) bool {
	switch condition {
	case "anxiety", "depression", "anger":
		return state.Emotion.SubCategory == condition
	}

	if strings.HasPrefix(condition, "severe_") {
		return state.Dimensions.ProblemSeverity > 0.7
	}

	switch condition {
	case "low_motivation", "resistance":
		return state.Dimensions.ClientMotivation < 0.4
	}

	return false
}

// emotionCompatibility awards up to +0.6 for techniques suited to the
// classified emotional state.
func emotionCompatibility(name string, e models.EmotionAnalysis) float64 {
	score := 0.0

	if e.Category == models.EmotionNegative &&
		containsString([]string{"认知重构", "情绪调节", "积极倾听"}, name) {
		score += 0.2
	}
	if e.Intensity == models.IntensityHigh &&
		containsString([]string{"情绪调节", "积极倾听"}, name) {
		score += 0.2
	}
	if e.Dimensions.Stability == models.StabilityFluctuating &&
		containsString([]string{"情绪调节", "认知重构"}, name) {
		score += 0.2
	}

	return score
}

// progressCompatibility awards up to +0.4 when progress is slow or
// blocking factors dominate the current message.
func progressCompatibility(name string, state assessmentState) float64 {
	score := 0.0

	if state.ProgressLevel < 0.3 &&
		containsString([]string{"行为激活", "问题解决"}, name) {
		score += 0.2
	}
	if state.BlockedFraction > 0.5 &&
		containsString([]string{"问题解决", "认知重构"}, name) {
		score += 0.2
	}

	return score
}

// defaultStrategy is the supportive fallback when no technique matches.
func defaultStrategy() models.StrategyMatch {
	for _, group := range strategyLibrary {
		if group.Category == models.StrategySupportive {
			return models.StrategyMatch{
				Category:   group.Category,
				Technique:  group.Techniques[0],
				MatchScore: 0.5,
			}
		}
	}
	// Library always carries a supportive group.
	return models.StrategyMatch{}
}

// buildPlan expands the selected strategy into a full intervention plan.
func buildPlan(strategy models.StrategyMatch, state assessmentState, stageName string) *models.InterventionPlan {
	return &models.InterventionPlan{
		Strategy:       strategy,
		Rationale:      buildRationale(strategy, state, stageName),
		Implementation: buildImplementation(strategy, state),
		Evaluation:     buildEvaluationPlan(),
	}
}

func buildRationale(strategy models.StrategyMatch, state assessmentState, stageName string) models.Rationale {
	return models.Rationale{
		MainReason: fmt.Sprintf("选择%s的主要原因是其适用于当前的%s等问题",
			strategy.Technique.Name, strings.Join(strategy.Technique.SuitableFor, "、")),
		StageConsideration: fmt.Sprintf("在%s阶段，该策略能够有效支持咨询目标的达成", stageName),
		EmotionalConsideration: fmt.Sprintf("考虑到来访者当前的%s情绪状态，该策略提供了合适的干预强度和方式",
			state.Emotion.Category),
		SafetyConsideration: "已评估相关禁忌症，确保策略的安全性和适用性",
	}
}

func buildImplementation(strategy models.StrategyMatch, state assessmentState) models.Implementation {
	return models.Implementation{
		Steps:       strategy.Technique.Steps,
		Timeline:    buildTimeline(strategy.Technique.Steps),
		Adjustments: buildAdjustments(state),
		Resources: models.Resources{
			Materials: []string{"工作表", "练习指导", "相关阅读材料"},
			Support:   []string{"社会支持系统", "专业转介资源"},
			Skills:    []string{"所需掌握的具体技能", "练习方法"},
		},
	}
}

func buildTimeline(steps []string) []models.TimelineStep {
	timeline := make([]models.TimelineStep, len(steps))
	for i, step := range steps {
		next := "评估成效"
		if i < len(steps)-1 {
			next = steps[i+1]
		}
		timeline[i] = models.TimelineStep{
			Step:              step,
			EstimatedDuration: "1-2次会谈",
			Milestone:         fmt.Sprintf("完成%s的标志是...", step),
			NextStep:          next,
		}
	}
	return timeline
}

// buildAdjustments derives intensity, pace and focus suggestions from
// simple threshold rules on the session state.
func buildAdjustments(state assessmentState) models.Adjustments {
	intensity := "保持中等干预强度"
	if state.Dimensions.ProblemSeverity > 0.7 {
		intensity = "建议降低干预强度，增加支持性元素"
	} else if state.Dimensions.ClientMotivation > 0.8 {
		intensity = "可以适当增加干预强度和挑战性"
	}

	pace := "保持当前节奏"
	if state.Emotion.Intensity == models.IntensityHigh {
		pace = "放慢节奏，增加情绪调节的支持"
	} else if state.ProgressLevel < 0.3 {
		pace = "适当放慢节奏，确保来访者能够跟上"
	}

	var focus []string
	if state.Dimensions.TherapeuticAlliance < 0.5 {
		focus = append(focus, "加强咨询关系的建立")
	}
	if state.Dimensions.ClientMotivation < 0.5 {
		focus = append(focus, "增加动机强化的元素")
	}
	if state.Dimensions.RiskLevel > 0.5 {
		focus = append(focus, "加入风险管理的内容")
	}

	return models.Adjustments{Intensity: intensity, Pace: pace, Focus: focus}
}

// buildEvaluationPlan returns the fixed evaluation templates.
func buildEvaluationPlan() models.EvaluationPlan {
	return models.EvaluationPlan{
		Indicators: models.EvaluationIndicators{
			Primary:   []string{"症状改善程度", "目标达成程度"},
			Secondary: []string{"来访者满意度", "技能掌握程度"},
			Process:   []string{"执行情况", "参与度", "理解程度"},
		},
		Methods: models.EvaluationMethods{
			Subjective:  []string{"来访者自我报告", "情绪评估"},
			Objective:   []string{"行为观察", "目标完成情况"},
			Interactive: []string{"技能展示", "角色扮演"},
		},
		Timeline: models.EvaluationTimeline{
			Initial: "实施前基线评估",
			Ongoing: "每次会谈后进展评估",
			Final:   "策略完成后总结评估",
		},
		AdjustmentCriteria: models.AdjustmentCriteria{
			Positive: []string{"目标达成度超过80%", "来访者报告显著改善"},
			Negative: []string{"出现新的问题", "进展停滞超过2次会谈"},
			Neutral:  []string{"需要微调的迹象", "适应期的正常反应"},
		},
	}
}

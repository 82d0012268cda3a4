package engine

import "github.com/mindflow/mindflow/internal/models"

// StageRules gates progression out of one counseling stage.
type StageRules struct {
	Keywords         []string
	MinMessages      int
	EmotionThreshold float64
	RequiredTopics   []string
	BlockingFactors  []string
}

// stageRules drives the transition state machine. One entry per stage,
// loaded once at engine construction and never mutated.
var stageRules = map[models.Stage]StageRules{
	models.StageInitial: {
		Keywords: []string{
			"困扰", "问题", "帮助", "建议", "咨询", "倾诉", "分享",
			"最近", "发生", "情况", "感受", "想法", "经历",
		},
		MinMessages:      3,
		EmotionThreshold: 0.6,
		RequiredTopics:   []string{"主诉问题", "基本信息"},
		BlockingFactors:  []string{"严重危机", "精神症状"},
	},
	models.StageAssessment: {
		Keywords: []string{
			"原因", "影响", "程度", "情况", "症状", "表现", "频率",
			"持续", "严重", "变化", "关系", "工作", "生活", "家庭",
			"睡眠", "饮食", "心情", "想法", "行为",
		},
		MinMessages:      5,
		EmotionThreshold: 0.7,
		RequiredTopics:   []string{"问题评估", "影响范围", "严重程度"},
		BlockingFactors:  []string{"信息不足", "抗拒评估"},
	},
	models.StageGoalSetting: {
		Keywords: []string{
			"希望", "目标", "期待", "计划", "改变", "具体", "可行",
			"短期", "长期", "预期", "结果", "步骤", "方向", "标准",
		},
		MinMessages:      4,
		EmotionThreshold: 0.6,
		RequiredTopics:   []string{"目标制定", "可行性评估"},
		BlockingFactors:  []string{"目标不明确", "期望过高"},
	},
	models.StageIntervention: {
		Keywords: []string{
			"尝试", "改变", "行动", "练习", "方法", "技巧", "策略",
			"调整", "应对", "解决", "执行", "实践", "进展", "效果",
			"困难", "阻碍", "突破", "进步",
		},
		MinMessages:      6,
		EmotionThreshold: 0.8,
		RequiredTopics:   []string{"干预方案", "执行情况", "效果评估"},
		BlockingFactors:  []string{"执行困难", "抗拒改变"},
	},
	models.StageClosing: {
		Keywords: []string{
			"感谢", "收获", "结束", "再见", "总结", "回顾", "成长",
			"变化", "进步", "巩固", "预防", "未来", "规划", "告别",
		},
		MinMessages:      3,
		EmotionThreshold: 0.7,
		RequiredTopics:   []string{"成果总结", "预防复发"},
		BlockingFactors:  []string{"重大退步", "新问题出现"},
	},
}

// crisisKeywords trigger the safety override to the assessment stage,
// bypassing all scoring.
var crisisKeywords = []string{
	"自杀", "死亡", "伤害", "绝望", "活不下去", "结束生命",
	"没有意义", "痛苦难忍", "崩溃", "暴力倾向", "伤害他人",
	"失控", "幻觉", "妄想", "严重失眠", "无法工作",
}

// topicKeywords maps a required topic to the words that count as
// covering it.
var topicKeywords = map[string][]string{
	"主诉问题":  {"困扰", "问题", "帮助", "情况", "发生"},
	"基本信息":  {"年龄", "职业", "家庭", "生活", "工作"},
	"问题评估":  {"原因", "影响", "程度", "表现", "症状"},
	"影响范围":  {"生活", "工作", "学习", "关系", "家庭"},
	"严重程度":  {"严重", "影响", "程度", "频率", "持续"},
	"目标制定":  {"目标", "期望", "希望", "改变", "计划"},
	"可行性评估": {"具体", "可行", "步骤", "时间", "资源"},
	"干预方案":  {"方法", "技巧", "策略", "建议", "练习"},
	"执行情况":  {"尝试", "实践", "执行", "完成", "进展"},
	"效果评估":  {"效果", "变化", "进步", "改善", "困难"},
	"成果总结":  {"收获", "变化", "进步", "成长", "改变"},
	"预防复发":  {"预防", "应对", "维持", "计划", "准备"},
}

// blockingKeywords maps a blocking factor to its trigger words.
// 严重危机 shares the crisis lexicon.
var blockingKeywords = map[string][]string{
	"严重危机":  crisisKeywords,
	"精神症状":  {"幻觉", "妄想", "失控", "混乱", "严重"},
	"信息不足":  {"不清楚", "不知道", "不确定", "模糊", "困惑"},
	"抗拒评估":  {"不想说", "不需要", "没问题", "不重要", "不愿意"},
	"目标不明确": {"不知道要什么", "没想好", "不确定", "迷茫", "混乱"},
	"期望过高":  {"立即", "马上", "完全", "彻底", "根治"},
	"执行困难":  {"做不到", "太难", "办不到", "做不来", "失败"},
	"抗拒改变":  {"不想改", "没用", "不相信", "怀疑", "放弃"},
	"重大退步":  {"更差", "恶化", "退步", "不行", "失败"},
	"新问题出现": {"新问题", "其他问题", "另外", "还有", "又"},
}

// stageWeights combines the component scores into the transition total.
// Every table sums to 1.0; component scores absent from a table carry
// zero weight.
var stageWeights = map[models.Stage]map[string]float64{
	models.StageInitial: {
		"topicCoverage":   0.3,
		"blockingFactors": 0.2,
		"keywords":        0.2,
		"emotion":         0.15,
		"dimensions":      0.15,
	},
	models.StageAssessment: {
		"topicCoverage":   0.35,
		"blockingFactors": 0.15,
		"keywords":        0.15,
		"emotion":         0.15,
		"dimensions":      0.2,
	},
	models.StageGoalSetting: {
		"topicCoverage":   0.25,
		"blockingFactors": 0.15,
		"keywords":        0.25,
		"emotion":         0.15,
		"dimensions":      0.2,
	},
	models.StageIntervention: {
		"topicCoverage":   0.2,
		"blockingFactors": 0.2,
		"keywords":        0.2,
		"emotion":         0.2,
		"dimensions":      0.2,
	},
	models.StageClosing: {
		"topicCoverage":   0.2,
		"blockingFactors": 0.15,
		"keywords":        0.15,
		"emotion":         0.25,
		"dimensions":      0.25,
	},
}

// stageThresholds are the minimum weighted totals per stage.
var stageThresholds = map[models.Stage]float64{
	models.StageInitial:      0.65,
	models.StageAssessment:   0.70,
	models.StageGoalSetting:  0.75,
	models.StageIntervention: 0.80,
	models.StageClosing:      0.85,
}

// dimensionWeights fold the five assessment accumulators into the
// "dimensions" component score.
var dimensionWeights = struct {
	Severity, Motivation, Alliance, Progress, Risk float64
}{
	Severity:   0.2,
	Motivation: 0.25,
	Alliance:   0.25,
	Progress:   0.2,
	Risk:       0.1,
}

// Indicator lexicons for the heuristic sub-scores. Each score starts at
// 0.5 and is shifted per matching indicator, then clamped to [0,1].
var allianceIndicators = struct {
	Positive, Negative []string
}{
	Positive: []string{"理解", "感谢", "帮助", "信任", "支持", "认同", "合作", "共同"},
	Negative: []string{"不理解", "质疑", "怀疑", "不信任", "抗拒", "反对", "对抗", "否定"},
}

var readinessIndicators = struct {
	High, Moderate, Low []string
}{
	High:     []string{"想改变", "愿意", "准备好", "决定", "尝试", "努力", "行动", "开始"},
	Moderate: []string{"考虑", "思考", "可能", "也许", "打算", "计划", "希望", "期待"},
	Low:      []string{"不想", "没用", "不行", "做不到", "放弃", "无法", "不愿意", "拒绝"},
}

var clarityIndicators = struct {
	High, Moderate, Low []string
}{
	High:     []string{"具体", "清楚", "明确", "确定", "知道", "了解", "发现", "意识到"},
	Moderate: []string{"可能", "也许", "感觉", "觉得", "猜测", "推测", "估计", "大概"},
	Low:      []string{"模糊", "不清楚", "不确定", "困惑", "迷茫", "不知道", "混乱", "复杂"},
}

var effectivenessIndicators = struct {
	Positive, Neutral, Negative []string
}{
	Positive: []string{"有效", "有用", "改善", "进步", "好转", "帮助", "作用", "效果"},
	Neutral:  []string{"一般", "还行", "普通", "一样", "持平", "保持", "维持", "稳定"},
	Negative: []string{"无效", "没用", "恶化", "退步", "变差", "失败", "困难", "问题"},
}

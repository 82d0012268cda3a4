package engine

import (
	"fmt"
	"time"

	"github.com/mindflow/mindflow/internal/models"
)

// Recommendation is one actionable advice block in a session report.
type Recommendation struct {
	Type        string   `json:"type"`
	Content     string   `json:"content"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// EmotionalReport summarizes the emotional arc of the session.
type EmotionalReport struct {
	Trend   string   `json:"trend"` // improving, deteriorating or stable
	Trends  []string `json:"trends"`
	Summary string   `json:"summary"`
}

// StageProgressReport summarizes stage movement and dwell times.
type StageProgressReport struct {
	CurrentStage   models.Stage                 `json:"current_stage"`
	StageDurations map[models.Stage]string      `json:"stage_durations"`
	Transitions    int                          `json:"transitions"`
	LastAssessment *models.TransitionAssessment `json:"last_assessment,omitempty"`
	Warnings       []string                     `json:"warnings,omitempty"`
}

// Report is the full session report.
type Report struct {
	SessionInfo     models.SessionInfo          `json:"session_info"`
	Emotional       EmotionalReport             `json:"emotional_analysis"`
	StageProgress   StageProgressReport         `json:"stage_progress"`
	Dimensions      models.AssessmentDimensions `json:"dimensions"`
	Quality         *models.SessionQuality      `json:"quality,omitempty"`
	Recommendations []Recommendation            `json:"recommendations"`
}

// trendWindow is how many adjacent user emotions each trend point
// averages, and how many trailing points feed the slope fit.
const trendWindow = 3

// GenerateReport assembles the current session report. It is read-only
// with respect to session state.
func (e *Engine) GenerateReport() Report {
	info := e.Export().SessionInfo

	emotional := e.emotionalReport()
	progress := e.stageProgressReport()

	var quality *models.SessionQuality
	if len(e.qualityHistory) > 0 {
		q := e.qualityHistory[len(e.qualityHistory)-1]
		quality = &q
	}

	return Report{
		SessionInfo:     info,
		Emotional:       emotional,
		StageProgress:   progress,
		Dimensions:      e.dims,
		Quality:         quality,
		Recommendations: e.recommendations(emotional, progress),
	}
}

// userEmotionValues maps each user message's emotion category onto a
// numeric axis for trend fitting: positive 1, neutral 0, negative -1.
func (e *Engine) userEmotionValues() []float64 {
	var values []float64
	for _, msg := range e.history {
		if msg.Role != models.RoleUser {
			continue
		}
		switch classifyMessage(msg).Category {
		case models.EmotionPositive:
			values = append(values, 1)
		case models.EmotionNegative:
			values = append(values, -1)
		default:
			values = append(values, 0)
		}
	}
	return values
}

// emotionalReport slides a three-wide averaging window over the user
// emotion series and classifies the overall direction by a least-squares
// slope over the last three trend points.
func (e *Engine) emotionalReport() EmotionalReport {
	values := e.userEmotionValues()

	var points []float64
	var labels []string
	for i := 0; i+trendWindow <= len(values); i++ {
		sum := 0.0
		for _, v := range values[i : i+trendWindow] {
			sum += v
		}
		avg := sum / trendWindow
		points = append(points, avg)
		labels = append(labels, trendLabel(avg))
	}

	trend := "stable"
	if len(points) >= 2 {
		recent := points
		if len(recent) > trendWindow {
			recent = recent[len(recent)-trendWindow:]
		}
		slope := leastSquaresSlope(recent)
		switch {
		case slope > 0.1:
			trend = "improving"
		case slope < -0.1:
			trend = "deteriorating"
		}
	}

	return EmotionalReport{
		Trend:   trend,
		Trends:  labels,
		Summary: emotionalSummary(trend),
	}
}

func trendLabel(avg float64) string {
	switch {
	case avg > 0.3:
		return "positive"
	case avg < -0.3:
		return "negative"
	default:
		return "neutral"
	}
}

// leastSquaresSlope fits y = a + b*x over evenly spaced points and
// returns b.
func leastSquaresSlope(points []float64) float64 {
	n := float64(len(points))
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range points {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func emotionalSummary(trend string) string {
	switch trend {
	case "improving":
		return "来访者的情绪状态呈改善趋势，当前干预方向有效。"
	case "deteriorating":
		return "来访者的情绪状态出现恶化趋势，需要关注并调整干预策略。"
	default:
		return "来访者的情绪状态总体平稳。"
	}
}

// stageProgressReport computes per-stage dwell times from the change
// log and flags a two-hour stay in one stage or more than three
// transitions inside thirty minutes.
func (e *Engine) stageProgressReport() StageProgressReport {
	now := e.now()

	durations := make(map[models.Stage]string)
	enteredAt := e.startedAt
	stage := e.stage
	if len(e.stageChanges) > 0 {
		stage = e.stageChanges[0].From
	}
	for _, change := range e.stageChanges {
		durations[stage] = humanizeDuration(change.Timestamp.Sub(enteredAt))
		stage = change.To
		enteredAt = change.Timestamp
	}
	durations[stage] = humanizeDuration(now.Sub(enteredAt))

	var warnings []string
	if now.Sub(e.stageEnteredAt) > 2*time.Hour {
		warnings = append(warnings, fmt.Sprintf("当前阶段（%s）已持续超过2小时，建议评估是否需要调整咨询节奏", stageDisplayName(e.stage)))
	}
	recentTransitions := 0
	for _, change := range e.stageChanges {
		if now.Sub(change.Timestamp) <= 30*time.Minute {
			recentTransitions++
		}
	}
	if recentTransitions > 3 {
		warnings = append(warnings, "30分钟内阶段切换过于频繁，咨询进程可能不够稳定")
	}

	var last *models.TransitionAssessment
	if len(e.assessments) > 0 {
		a := e.assessments[len(e.assessments)-1]
		last = &a
	}

	return StageProgressReport{
		CurrentStage:   e.stage,
		StageDurations: durations,
		Transitions:    len(e.stageChanges),
		LastAssessment: last,
		Warnings:       warnings,
	}
}

// recommendations merges stage-specific guidance with advice derived
// from the emotional trend, progress warnings and dimension thresholds.
func (e *Engine) recommendations(emotional EmotionalReport, progress StageProgressReport) []Recommendation {
	recs := []Recommendation{stageRecommendation(e.stage)}

	if emotional.Trend == "deteriorating" {
		recs = append(recs, Recommendation{
			Type:    "emotional",
			Content: "情绪状态出现恶化趋势",
			Suggestions: []string{
				"增加情绪支持和共情回应",
				"评估是否需要调整当前干预策略",
				"必要时考虑危机干预",
			},
		})
	}

	if len(progress.Warnings) > 0 {
		recs = append(recs, Recommendation{
			Type:        "progress",
			Content:     "咨询进程需要关注",
			Suggestions: progress.Warnings,
		})
	}

	if advice := dimensionAdvice(e.dims); len(advice) > 0 {
		recs = append(recs, Recommendation{
			Type:        "dimensions",
			Content:     "评估维度提示",
			Suggestions: advice,
		})
	}

	return recs
}

func stageRecommendation(stage models.Stage) Recommendation {
	switch stage {
	case models.StageInitial:
		return Recommendation{
			Type:    "stage",
			Content: "当前处于初始接触阶段",
			Suggestions: []string{
				"继续建立信任的咨询关系",
				"鼓励来访者充分表达问题和感受",
				"收集基本信息，初步了解问题性质",
			},
		}
	case models.StageAssessment:
		return Recommendation{
			Type:    "stage",
			Content: "当前处于问题评估阶段",
			Suggestions: []string{
				"深入了解问题的成因和影响",
				"评估问题的严重程度和紧急性",
				"了解来访者的资源和支持系统",
			},
		}
	case models.StageGoalSetting:
		return Recommendation{
			Type:    "stage",
			Content: "当前处于目标设定阶段",
			Suggestions: []string{
				"与来访者共同制定具体可行的目标",
				"确认来访者对目标的认同和承诺",
				"将大目标分解为阶段性小目标",
			},
		}
	case models.StageIntervention:
		return Recommendation{
			Type:    "stage",
			Content: "当前处于干预实施阶段",
			Suggestions: []string{
				"持续实施选定的干预策略",
				"关注干预效果并及时调整",
				"鼓励来访者在生活中实践新技能",
			},
		}
	default:
		return Recommendation{
			Type:    "stage",
			Content: "当前处于结束巩固阶段",
			Suggestions: []string{
				"回顾咨询历程和取得的进展",
				"巩固已形成的应对策略",
				"制定预防复发的计划",
			},
		}
	}
}

// dimensionAdvice flags accumulator values that warrant attention.
func dimensionAdvice(d models.AssessmentDimensions) []string {
	var advice []string
	if d.ProblemSeverity > 0.7 {
		advice = append(advice, "问题严重程度较高，建议降低干预强度并加强支持")
	}
	if d.ClientMotivation < 0.5 {
		advice = append(advice, "来访者改变动机偏低，建议使用动机式访谈技巧")
	}
	if d.TherapeuticAlliance < 0.6 {
		advice = append(advice, "咨询关系有待加强，建议增加共情和积极反馈")
	}
	if d.ProgressLevel < 0.4 {
		advice = append(advice, "咨询进展缓慢，建议回顾并调整干预计划")
	}
	if d.RiskLevel > 0.5 {
		advice = append(advice, "风险水平偏高，建议进行风险评估并制定安全计划")
	}
	return advice
}

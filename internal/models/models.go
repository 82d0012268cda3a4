package models

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message represents a single message in a counseling session
type Message struct {
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Emotion   *EmotionAnalysis  `json:"emotion,omitempty"` // set on user messages
	Plan      *InterventionPlan `json:"plan,omitempty"`    // set on assistant messages
	Stage     Stage             `json:"stage,omitempty"`   // stage the session was in when recorded
}

// EmotionCategory is the coarse polarity of a classified emotion.
type EmotionCategory string

const (
	EmotionPositive EmotionCategory = "positive"
	EmotionNegative EmotionCategory = "negative"
	EmotionNeutral  EmotionCategory = "neutral"
)

// Intensity is the strength of an expressed emotion.
type Intensity string

const (
	IntensityLow      Intensity = "low"
	IntensityModerate Intensity = "moderate"
	IntensityHigh     Intensity = "high"
)

// Level grades arousal and dominance.
type Level string

const (
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
)

// Stability describes emotional volatility.
type Stability string

const (
	StabilityStable      Stability = "stable"
	StabilityFluctuating Stability = "fluctuating"
)

// EmotionDimensions is the four-dimensional affect descriptor.
// Valence is in [-1,1]; the other three are graded by keyword lists.
type EmotionDimensions struct {
	Valence   float64   `json:"valence"`
	Arousal   Level     `json:"arousal"`
	Dominance Level     `json:"dominance"`
	Stability Stability `json:"stability"`
}

// EmotionAnalysis is the immutable result of classifying one text.
type EmotionAnalysis struct {
	Category    EmotionCategory   `json:"category"`
	SubCategory string            `json:"sub_category"`
	Intensity   Intensity         `json:"intensity"`
	Dimensions  EmotionDimensions `json:"dimensions"`
}

// Stage is a counseling stage. Progression is linear and forward-only,
// except for the crisis override which may force ASSESSMENT from any stage.
type Stage string

const (
	StageInitial      Stage = "initial"
	StageAssessment   Stage = "assessment"
	StageGoalSetting  Stage = "goal_setting"
	StageIntervention Stage = "intervention"
	StageClosing      Stage = "closing"
)

// StageOrder is the canonical progression. StageClosing is terminal.
var StageOrder = []Stage{
	StageInitial,
	StageAssessment,
	StageGoalSetting,
	StageIntervention,
	StageClosing,
}

// Valid reports whether s is a recognized stage value.
func (s Stage) Valid() bool {
	for _, st := range StageOrder {
		if st == s {
			return true
		}
	}
	return false
}

// Next returns the following stage, or false if s is terminal or unknown.
func (s Stage) Next() (Stage, bool) {
	for i, st := range StageOrder {
		if st == s {
			if i == len(StageOrder)-1 {
				return "", false
			}
			return StageOrder[i+1], true
		}
	}
	return "", false
}

// AssessmentDimensions are the five longitudinal session accumulators.
// Each value is kept in [0,1]; updates are additive with a ceiling clamp.
type AssessmentDimensions struct {
	ProblemSeverity     float64 `json:"problem_severity"`
	ClientMotivation    float64 `json:"client_motivation"`
	TherapeuticAlliance float64 `json:"therapeutic_alliance"`
	ProgressLevel       float64 `json:"progress_level"`
	RiskLevel           float64 `json:"risk_level"`
}

// StrategyCategory groups intervention techniques by therapeutic approach.
type StrategyCategory string

const (
	StrategyCognitive     StrategyCategory = "cognitive"
	StrategyBehavioral    StrategyCategory = "behavioral"
	StrategyEmotional     StrategyCategory = "emotional"
	StrategyInterpersonal StrategyCategory = "interpersonal"
	StrategySupportive    StrategyCategory = "supportive"
)

// Technique is a named intervention protocol from the static library.
type Technique struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	SuitableFor       []string `json:"suitable_for"`
	Contraindications []string `json:"contraindications"`
	Steps             []string `json:"steps"`
}

// StrategyGroup is one category of the technique library.
type StrategyGroup struct {
	Category    StrategyCategory `json:"category"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Techniques  []Technique      `json:"techniques"`
}

// StrategyMatch is a scored technique candidate.
type StrategyMatch struct {
	Category   StrategyCategory `json:"category"`
	Technique  Technique        `json:"technique"`
	MatchScore float64          `json:"match_score"`
}

// Rationale explains why a technique was selected.
type Rationale struct {
	MainReason             string `json:"main_reason"`
	StageConsideration     string `json:"stage_consideration"`
	EmotionalConsideration string `json:"emotional_consideration"`
	SafetyConsideration    string `json:"safety_consideration"`
}

// TimelineStep maps one technique step to its expected pacing.
type TimelineStep struct {
	Step              string `json:"step"`
	EstimatedDuration string `json:"estimated_duration"`
	Milestone         string `json:"milestone"`
	NextStep          string `json:"next_step"`
}

// Adjustments tunes how a technique should be delivered this turn.
type Adjustments struct {
	Intensity string   `json:"intensity"`
	Pace      string   `json:"pace"`
	Focus     []string `json:"focus"`
}

// Resources lists what the selected technique needs.
type Resources struct {
	Materials []string `json:"materials"`
	Support   []string `json:"support"`
	Skills    []string `json:"skills"`
}

// Implementation is the concrete delivery plan for a technique.
type Implementation struct {
	Steps       []string       `json:"steps"`
	Timeline    []TimelineStep `json:"timeline"`
	Adjustments Adjustments    `json:"adjustments"`
	Resources   Resources      `json:"resources"`
}

// EvaluationIndicators groups outcome indicators by kind.
type EvaluationIndicators struct {
	Primary   []string `json:"primary"`
	Secondary []string `json:"secondary"`
	Process   []string `json:"process"`
}

// EvaluationMethods groups assessment methods by kind.
type EvaluationMethods struct {
	Subjective  []string `json:"subjective"`
	Objective   []string `json:"objective"`
	Interactive []string `json:"interactive"`
}

// EvaluationTimeline fixes when evaluation happens.
type EvaluationTimeline struct {
	Initial string `json:"initial"`
	Ongoing string `json:"ongoing"`
	Final   string `json:"final"`
}

// AdjustmentCriteria lists signals that call for changing course.
type AdjustmentCriteria struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
	Neutral  []string `json:"neutral"`
}

// EvaluationPlan fixes how technique effectiveness will be judged.
type EvaluationPlan struct {
	Indicators         EvaluationIndicators `json:"indicators"`
	Methods            EvaluationMethods    `json:"methods"`
	Timeline           EvaluationTimeline   `json:"timeline"`
	AdjustmentCriteria AdjustmentCriteria   `json:"adjustment_criteria"`
}

// InterventionPlan is the per-turn expansion of the selected technique.
type InterventionPlan struct {
	Strategy       StrategyMatch  `json:"strategy"`
	Rationale      Rationale      `json:"rationale"`
	Implementation Implementation `json:"implementation"`
	Evaluation     EvaluationPlan `json:"evaluation"`
}

// SessionQuality scores the last window of turns. All values in [0,1].
type SessionQuality struct {
	InteractionQuality        float64   `json:"interaction_quality"`
	ResponseRelevance         float64   `json:"response_relevance"`
	InterventionEffectiveness float64   `json:"intervention_effectiveness"`
	ClientEngagement          float64   `json:"client_engagement"`
	Timestamp                 time.Time `json:"timestamp"`
}

// StrategyStats holds running per-technique effectiveness statistics.
type StrategyStats struct {
	UsageCount      int     `json:"usage_count"`
	SuccessCount    int     `json:"success_count"`
	AverageQuality  float64 `json:"average_quality"`
	EmotionalImpact float64 `json:"emotional_impact"`
}

// TransitionAssessment is the audit record captured when a stage
// transition is evaluated.
type TransitionAssessment struct {
	Stage           Stage              `json:"stage"`
	Scores          map[string]float64 `json:"scores"`
	Weights         map[string]float64 `json:"weights"`
	TotalScore      float64            `json:"total_score"`
	Threshold       float64            `json:"threshold"`
	ExtraConditions []string           `json:"extra_conditions"`
	Timestamp       time.Time          `json:"timestamp"`
}

// InterventionEffect snapshots one turn's outcome for effectiveness tracking.
type InterventionEffect struct {
	Timestamp  time.Time            `json:"timestamp"`
	Stage      Stage                `json:"stage"`
	Strategy   StrategyMatch        `json:"strategy"`
	Emotion    EmotionAnalysis      `json:"emotion"`
	Quality    SessionQuality       `json:"quality"`
	Dimensions AssessmentDimensions `json:"dimensions"`
}

// StageChange records one stage transition for reporting.
type StageChange struct {
	From         Stage     `json:"from"`
	To           Stage     `json:"to"`
	MessageIndex int       `json:"message_index"`
	Timestamp    time.Time `json:"timestamp"`
}

// SessionInfo is the metadata block of an exported transcript.
type SessionInfo struct {
	SessionID    string    `json:"session_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	MessageCount int       `json:"message_count"`
	CurrentStage Stage     `json:"current_stage"`
	Duration     string    `json:"duration"`
}

// Transcript is the export schema consumed by external exporters.
type Transcript struct {
	SessionInfo SessionInfo          `json:"session_info"`
	Dimensions  AssessmentDimensions `json:"dimensions"`
	Messages    []Message            `json:"messages"`
}

// SessionSnapshot is the compact per-session state shared between hosts
// through the snapshot store.
type SessionSnapshot struct {
	SessionID    string               `json:"session_id"`
	Stage        Stage                `json:"stage"`
	Dimensions   AssessmentDimensions `json:"dimensions"`
	MessageCount int                  `json:"message_count"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

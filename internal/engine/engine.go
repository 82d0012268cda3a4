// Package engine implements the counseling decision core: per-turn
// emotion classification, assessment tracking, stage transitions,
// intervention strategy selection and session quality scoring.
//
// One Engine serves exactly one counseling session. Turns on the same
// engine must be serialized by the caller; hosts serving many sessions
// run independent engines (see Pool).
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mindflow/mindflow/internal/emotion"
	"github.com/mindflow/mindflow/internal/models"
)

// ErrTurnInFlight is returned when ProcessMessage is called while a
// previous turn on the same engine has not finished.
var ErrTurnInFlight = errors.New("engine: turn already in flight")

// Backend produces the assistant's natural-language reply. Implemented
// by inference.Client; any error aborts the turn without rollback.
type Backend interface {
	Complete(ctx context.Context, messages []models.Message) (string, error)
}

// AuditRecorder persists transition assessments and ledger updates.
// Optional; recording failures are logged, never fatal to a turn.
type AuditRecorder interface {
	RecordAssessment(sessionID string, a models.TransitionAssessment) error
	RecordStrategyStats(sessionID, technique string, stats models.StrategyStats) error
}

// Config configures one engine instance.
type Config struct {
	SessionID string
	Backend   Backend
	Recorder  AuditRecorder // optional
	Logger    *zap.Logger   // optional; defaults to zap.NewNop()
}

// Engine holds all mutable state of one counseling session.
type Engine struct {
	cfg    Config
	log    *zap.Logger
	now    func() time.Time
	inTurn atomic.Bool

	stage          models.Stage
	history        []models.Message
	dims           models.AssessmentDimensions
	ledger         map[string]*models.StrategyStats
	effects        []models.InterventionEffect
	qualityHistory []models.SessionQuality
	assessments    []models.TransitionAssessment
	stageChanges   []models.StageChange
	stageEnteredAt time.Time
	startedAt      time.Time
}

// New creates an engine in the initial stage with zeroed dimensions.
func New(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	e := &Engine{
		cfg:    cfg,
		log:    log.With(zap.String("session_id", cfg.SessionID)),
		now:    time.Now,
		stage:  models.StageInitial,
		ledger: make(map[string]*models.StrategyStats),
	}
	e.startedAt = e.now()
	e.stageEnteredAt = e.startedAt
	return e
}

// NewFromTranscript rebuilds an engine from an archived transcript so
// reports can be generated after the fact. Ledger, effect and quality
// histories are not part of the export and start empty.
func NewFromTranscript(cfg Config, t models.Transcript) *Engine {
	if cfg.SessionID == "" {
		cfg.SessionID = t.SessionInfo.SessionID
	}
	e := New(cfg)
	e.history = append(e.history, t.Messages...)
	e.dims = t.Dimensions
	if t.SessionInfo.CurrentStage.Valid() {
		e.stage = t.SessionInfo.CurrentStage
	}
	// stageEnteredAt stays at construction time: the dwell-time warning
	// is meaningful only for live sessions.
	if !t.SessionInfo.StartTime.IsZero() {
		e.startedAt = t.SessionInfo.StartTime
	}
	return e
}

// TurnResult is everything one successful turn produces.
type TurnResult struct {
	AssistantText string
	Emotion       models.EmotionAnalysis
	Plan          *models.InterventionPlan
	Quality       models.SessionQuality
}

// ProcessMessage runs the full pipeline for one inbound client message:
// classify, update dimensions, evaluate stage transition, select a
// strategy, call the backend, score quality and update the ledger.
//
// On a backend error the client's message stays in the history (no
// rollback), nothing else is recorded for the turn, and the error is
// returned to the caller.
func (e *Engine) ProcessMessage(ctx context.Context, text string) (*TurnResult, error) {
	if !e.inTurn.CompareAndSwap(false, true) {
		return nil, ErrTurnInFlight
	}
	defer e.inTurn.Store(false)

	analysis := emotion.Classify(text)

	e.history = append(e.history, models.Message{
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: e.now(),
		Emotion:   &analysis,
		Stage:     e.stage,
	})

	updateDimensions(&e.dims, analysis)

	if target, ok := e.evaluateTransition(text); ok {
		e.transitionTo(target)
	}

	state := assessmentState{
		Emotion:         analysis,
		Stage:           e.stage,
		Dimensions:      e.dims,
		ProgressLevel:   e.dims.ProgressLevel,
		BlockedFraction: blockedFraction(text, stageRules[e.stage].BlockingFactors),
	}

	strategy := selectStrategy(state)
	plan := buildPlan(strategy, state, stageDisplayName(e.stage))

	reply, err := e.cfg.Backend.Complete(ctx, e.backendMessages(plan))
	if err != nil {
		e.log.Warn("backend call failed", zap.Error(err))
		return nil, fmt.Errorf("process message: %w", err)
	}

	e.history = append(e.history, models.Message{
		Role:      models.RoleAssistant,
		Content:   reply,
		Timestamp: e.now(),
		Plan:      plan,
		Stage:     e.stage,
	})

	// Quality reads the effect history, so assess before recording the
	// current turn's effect.
	quality := e.assessQuality()
	e.recordEffect(plan, analysis, quality)

	e.log.Debug("turn processed",
		zap.String("stage", string(e.stage)),
		zap.String("emotion", string(analysis.Category)),
		zap.String("technique", strategy.Technique.Name),
		zap.Float64("interaction_quality", quality.InteractionQuality))

	return &TurnResult{
		AssistantText: reply,
		Emotion:       analysis,
		Plan:          plan,
		Quality:       quality,
	}, nil
}

// transitionTo moves the session to target and records the change.
func (e *Engine) transitionTo(target models.Stage) {
	if target == e.stage {
		return
	}
	change := models.StageChange{
		From:         e.stage,
		To:           target,
		MessageIndex: len(e.history) - 1,
		Timestamp:    e.now(),
	}
	e.stageChanges = append(e.stageChanges, change)
	e.log.Info("stage transition",
		zap.String("from", string(change.From)),
		zap.String("to", string(change.To)))
	e.stage = target
	e.stageEnteredAt = change.Timestamp
}

// backendMessages builds the request: the system instruction derived
// from the intervention plan followed by the full session history.
func (e *Engine) backendMessages(plan *models.InterventionPlan) []models.Message {
	msgs := make([]models.Message, 0, len(e.history)+1)
	msgs = append(msgs, models.Message{
		Role:    models.RoleSystem,
		Content: buildSystemPrompt(e.stage, plan),
	})
	msgs = append(msgs, e.history...)
	return msgs
}

// buildSystemPrompt folds the current stage and the selected technique
// into the instruction for the text-generation backend.
func buildSystemPrompt(stage models.Stage, plan *models.InterventionPlan) string {
	adjust := plan.Implementation.Adjustments
	return fmt.Sprintf(`你是一位专业的心理咨询师，正在进行%s阶段的咨询。
请使用%s策略进行干预。

干预重点：
%s

调整建议：
- 强度：%s
- 节奏：%s
- 重点：%s

请注意：
1. 保持专业、同理心和温暖的态度
2. 使用积极倾听和反馈技巧
3. 关注来访者的情绪变化
4. 适时提供支持和鼓励
5. 遵守心理咨询的伦理准则`,
		stageDisplayName(stage),
		plan.Strategy.Technique.Name,
		strings.Join(plan.Implementation.Steps, "\n"),
		adjust.Intensity,
		adjust.Pace,
		strings.Join(adjust.Focus, "、"))
}

// stageDisplayName is the client-facing label of a stage.
func stageDisplayName(stage models.Stage) string {
	switch stage {
	case models.StageInitial:
		return "初始接触"
	case models.StageAssessment:
		return "问题评估"
	case models.StageGoalSetting:
		return "目标设定"
	case models.StageIntervention:
		return "干预实施"
	case models.StageClosing:
		return "结束巩固"
	default:
		return string(stage)
	}
}

// CurrentStage returns the session's current stage.
func (e *Engine) CurrentStage() models.Stage {
	return e.stage
}

// ForceTransition moves the session to stage if it is a recognized
// value, returning whether the move happened.
func (e *Engine) ForceTransition(stage models.Stage) bool {
	if !stage.Valid() {
		return false
	}
	e.transitionTo(stage)
	return true
}

// ClearHistory resets the message history and the stage to initial.
// Assessment dimensions and the ledger are deliberately retained,
// matching the one-way-ratchet accumulator model; use Reset for a full
// wipe.
func (e *Engine) ClearHistory() {
	e.history = nil
	e.stage = models.StageInitial
	e.stageEnteredAt = e.now()
}

// Reset wipes all session state: history, stage, dimensions, ledger,
// effects, quality history and audit records.
func (e *Engine) Reset() {
	e.ClearHistory()
	e.dims = models.AssessmentDimensions{}
	e.ledger = make(map[string]*models.StrategyStats)
	e.effects = nil
	e.qualityHistory = nil
	e.assessments = nil
	e.stageChanges = nil
	e.startedAt = e.now()
}

// History returns a copy of the message history.
func (e *Engine) History() []models.Message {
	out := make([]models.Message, len(e.history))
	copy(out, e.history)
	return out
}

// Dimensions returns the current assessment accumulators.
func (e *Engine) Dimensions() models.AssessmentDimensions {
	return e.dims
}

// Ledger returns a copy of the strategy effectiveness statistics.
func (e *Engine) Ledger() map[string]models.StrategyStats {
	out := make(map[string]models.StrategyStats, len(e.ledger))
	for name, stats := range e.ledger {
		out[name] = *stats
	}
	return out
}

// Assessments returns the recorded transition audit entries.
func (e *Engine) Assessments() []models.TransitionAssessment {
	out := make([]models.TransitionAssessment, len(e.assessments))
	copy(out, e.assessments)
	return out
}

// QualityHistory returns the recorded per-turn quality scores.
func (e *Engine) QualityHistory() []models.SessionQuality {
	out := make([]models.SessionQuality, len(e.qualityHistory))
	copy(out, e.qualityHistory)
	return out
}

// Snapshot captures the compact session state for the snapshot store.
func (e *Engine) Snapshot() models.SessionSnapshot {
	return models.SessionSnapshot{
		SessionID:    e.cfg.SessionID,
		Stage:        e.stage,
		Dimensions:   e.dims,
		MessageCount: len(e.history),
		UpdatedAt:    e.now(),
	}
}

// Export builds the transcript in the external export schema.
func (e *Engine) Export() models.Transcript {
	start := e.startedAt
	if len(e.history) > 0 {
		start = e.history[0].Timestamp
	}
	end := e.now()

	return models.Transcript{
		SessionInfo: models.SessionInfo{
			SessionID:    e.cfg.SessionID,
			StartTime:    start,
			EndTime:      end,
			MessageCount: len(e.history),
			CurrentStage: e.stage,
			Duration:     humanizeDuration(end.Sub(start)),
		},
		Dimensions: e.dims,
		Messages:   e.History(),
	}
}

// humanizeDuration renders a session length as minutes or hours+minutes.
func humanizeDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%d分钟", minutes)
	}
	return fmt.Sprintf("%d小时%d分钟", minutes/60, minutes%60)
}

// recordAssessment forwards an audit entry to the recorder if present.
func (e *Engine) recordAssessment(a models.TransitionAssessment) {
	if e.cfg.Recorder == nil {
		return
	}
	if err := e.cfg.Recorder.RecordAssessment(e.cfg.SessionID, a); err != nil {
		e.log.Warn("recording transition assessment failed", zap.Error(err))
	}
}

// recordLedger forwards a ledger update to the recorder if present.
func (e *Engine) recordLedger(technique string, stats models.StrategyStats) {
	if e.cfg.Recorder == nil {
		return
	}
	if err := e.cfg.Recorder.RecordStrategyStats(e.cfg.SessionID, technique, stats); err != nil {
		e.log.Warn("recording strategy stats failed", zap.Error(err))
	}
}

package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mindflow/mindflow/internal/models"
)

type mockBackend struct {
	reply string
	err   error
	got   [][]models.Message
}

func (m *mockBackend) Complete(_ context.Context, messages []models.Message) (string, error) {
	m.got = append(m.got, messages)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func TestProcessMessageFullTurn(t *testing.T) {
	backend := &mockBackend{reply: "我理解你的感受，可以多说说吗？"}
	e := New(Config{SessionID: "s1", Backend: backend})

	result, err := e.ProcessMessage(context.Background(), "我最近很焦虑")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	if result.AssistantText != backend.reply {
		t.Errorf("reply = %q, want backend reply", result.AssistantText)
	}
	if result.Emotion.SubCategory != "anxiety" {
		t.Errorf("emotion sub-category = %s, want anxiety", result.Emotion.SubCategory)
	}
	if result.Plan == nil {
		t.Fatal("turn produced no intervention plan")
	}

	if len(e.history) != 2 {
		t.Fatalf("history length = %d, want 2", len(e.history))
	}
	if e.history[0].Emotion == nil {
		t.Error("user message carries no emotion analysis")
	}
	if e.history[1].Plan == nil {
		t.Error("assistant message carries no plan")
	}
	if e.CurrentStage() != models.StageInitial {
		t.Errorf("stage = %s, want initial after one turn", e.CurrentStage())
	}

	// High-intensity anxiety raises problem severity.
	if e.dims.ProblemSeverity != 0.2 {
		t.Errorf("ProblemSeverity = %v, want 0.2", e.dims.ProblemSeverity)
	}

	if len(e.qualityHistory) != 1 {
		t.Errorf("quality history length = %d, want 1", len(e.qualityHistory))
	}
	if len(e.effects) != 1 {
		t.Errorf("effects length = %d, want 1", len(e.effects))
	}
	if len(e.ledger) != 1 {
		t.Errorf("ledger has %d techniques, want 1", len(e.ledger))
	}
}

func TestProcessMessageSendsSystemPromptAndHistory(t *testing.T) {
	backend := &mockBackend{reply: "好的"}
	e := New(Config{SessionID: "s1", Backend: backend})

	if _, err := e.ProcessMessage(context.Background(), "我很难过"); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	if len(backend.got) != 1 {
		t.Fatalf("backend called %d times, want 1", len(backend.got))
	}
	sent := backend.got[0]
	if len(sent) != 2 {
		t.Fatalf("sent %d messages, want system + user", len(sent))
	}
	if sent[0].Role != models.RoleSystem {
		t.Errorf("first message role = %s, want system", sent[0].Role)
	}
	if !strings.Contains(sent[0].Content, "心理咨询师") {
		t.Error("system prompt does not set the counselor persona")
	}
	if !strings.Contains(sent[0].Content, "初始接触") {
		t.Error("system prompt does not name the current stage")
	}
	if sent[1].Role != models.RoleUser {
		t.Errorf("second message role = %s, want user", sent[1].Role)
	}
}

func TestProcessMessageBackendErrorKeepsUserMessage(t *testing.T) {
	backendErr := errors.New("upstream unavailable")
	e := New(Config{SessionID: "s1", Backend: &mockBackend{err: backendErr}})

	_, err := e.ProcessMessage(context.Background(), "我很难过")
	if !errors.Is(err, backendErr) {
		t.Fatalf("error = %v, want wrapped backend error", err)
	}

	// The user turn stays; nothing downstream of the backend ran.
	if len(e.history) != 1 {
		t.Errorf("history length = %d, want 1", len(e.history))
	}
	if len(e.qualityHistory) != 0 {
		t.Errorf("quality recorded for failed turn: %d entries", len(e.qualityHistory))
	}
	if len(e.ledger) != 0 {
		t.Errorf("ledger updated for failed turn: %d entries", len(e.ledger))
	}
}

func TestProcessMessageRejectsConcurrentTurn(t *testing.T) {
	e := New(Config{SessionID: "s1", Backend: &mockBackend{reply: "好"}})
	e.inTurn.Store(true)

	_, err := e.ProcessMessage(context.Background(), "你好")
	if !errors.Is(err, ErrTurnInFlight) {
		t.Errorf("error = %v, want ErrTurnInFlight", err)
	}
}

func TestCrisisMessageForcesAssessmentMidSession(t *testing.T) {
	e := New(Config{SessionID: "s1", Backend: &mockBackend{reply: "我在这里陪着你"}})
	if !e.ForceTransition(models.StageGoalSetting) {
		t.Fatal("ForceTransition to goal_setting failed")
	}

	if _, err := e.ProcessMessage(context.Background(), "我真的很绝望，不想活了"); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	if e.CurrentStage() != models.StageAssessment {
		t.Errorf("stage = %s, want assessment after crisis message", e.CurrentStage())
	}
	// ForceTransition plus the crisis move.
	if len(e.stageChanges) != 2 {
		t.Errorf("stage changes = %d, want 2", len(e.stageChanges))
	}
}

func TestForceTransitionRejectsUnknownStage(t *testing.T) {
	e := newTestEngine()
	if e.ForceTransition(models.Stage("nonsense")) {
		t.Error("unknown stage accepted")
	}
	if e.CurrentStage() != models.StageInitial {
		t.Errorf("stage changed to %s", e.CurrentStage())
	}
}

func TestClearHistoryKeepsAccumulators(t *testing.T) {
	e := New(Config{SessionID: "s1", Backend: &mockBackend{reply: "好"}})
	if _, err := e.ProcessMessage(context.Background(), "我很焦虑"); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	e.ForceTransition(models.StageAssessment)

	e.ClearHistory()

	if len(e.history) != 0 {
		t.Errorf("history length = %d, want 0", len(e.history))
	}
	if e.CurrentStage() != models.StageInitial {
		t.Errorf("stage = %s, want initial", e.CurrentStage())
	}
	if e.dims.ProblemSeverity == 0 {
		t.Error("dimensions wiped by ClearHistory")
	}
	if len(e.ledger) == 0 {
		t.Error("ledger wiped by ClearHistory")
	}
}

func TestResetWipesEverything(t *testing.T) {
	e := New(Config{SessionID: "s1", Backend: &mockBackend{reply: "好"}})
	if _, err := e.ProcessMessage(context.Background(), "我很焦虑"); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	e.Reset()

	if len(e.history) != 0 || len(e.ledger) != 0 || len(e.effects) != 0 ||
		len(e.qualityHistory) != 0 || len(e.assessments) != 0 || len(e.stageChanges) != 0 {
		t.Error("Reset left residual state")
	}
	if e.dims != (models.AssessmentDimensions{}) {
		t.Errorf("dimensions = %+v, want zero value", e.dims)
	}
}

func TestExportTranscript(t *testing.T) {
	e := New(Config{SessionID: "s1", Backend: &mockBackend{reply: "好"}})
	if _, err := e.ProcessMessage(context.Background(), "我很焦虑"); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	tr := e.Export()
	if tr.SessionInfo.SessionID != "s1" {
		t.Errorf("session ID = %s, want s1", tr.SessionInfo.SessionID)
	}
	if tr.SessionInfo.MessageCount != 2 {
		t.Errorf("message count = %d, want 2", tr.SessionInfo.MessageCount)
	}
	if tr.SessionInfo.CurrentStage != models.StageInitial {
		t.Errorf("stage = %s, want initial", tr.SessionInfo.CurrentStage)
	}
	if len(tr.Messages) != 2 {
		t.Errorf("transcript has %d messages, want 2", len(tr.Messages))
	}
}

func TestNewFromTranscriptRestoresState(t *testing.T) {
	tr := models.Transcript{
		SessionInfo: models.SessionInfo{
			SessionID:    "archived",
			StartTime:    time.Now().Add(-time.Hour),
			CurrentStage: models.StageIntervention,
		},
		Dimensions: models.AssessmentDimensions{ProblemSeverity: 0.6},
		Messages: []models.Message{
			{Role: models.RoleUser, Content: "我很焦虑"},
			{Role: models.RoleAssistant, Content: "可以多说说吗？"},
		},
	}

	e := NewFromTranscript(Config{}, tr)

	if e.cfg.SessionID != "archived" {
		t.Errorf("session ID = %s, want archived", e.cfg.SessionID)
	}
	if e.CurrentStage() != models.StageIntervention {
		t.Errorf("stage = %s, want intervention", e.CurrentStage())
	}
	if len(e.history) != 2 {
		t.Errorf("history length = %d, want 2", len(e.history))
	}
	if e.dims.ProblemSeverity != 0.6 {
		t.Errorf("ProblemSeverity = %v, want 0.6", e.dims.ProblemSeverity)
	}

	report := e.GenerateReport()
	if report.StageProgress.CurrentStage != models.StageIntervention {
		t.Errorf("report stage = %s", report.StageProgress.CurrentStage)
	}
	// A freshly restored engine must not warn about stage dwell time.
	if len(report.StageProgress.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", report.StageProgress.Warnings)
	}
}

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Minute, "5分钟"},
		{59 * time.Minute, "59分钟"},
		{90 * time.Minute, "1小时30分钟"},
		{2 * time.Hour, "2小时0分钟"},
	}
	for _, tc := range cases {
		if got := humanizeDuration(tc.d); got != tc.want {
			t.Errorf("humanizeDuration(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestSnapshotReflectsState(t *testing.T) {
	e := New(Config{SessionID: "s1", Backend: &mockBackend{reply: "好"}})
	if _, err := e.ProcessMessage(context.Background(), "我很焦虑"); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	snap := e.Snapshot()
	if snap.SessionID != "s1" || snap.Stage != models.StageInitial || snap.MessageCount != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Dimensions.ProblemSeverity != 0.2 {
		t.Errorf("snapshot severity = %v, want 0.2", snap.Dimensions.ProblemSeverity)
	}
}

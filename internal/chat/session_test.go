package chat

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phi/internal/task"
)

type recordingSpeaker struct {
	spoken chan string
}

func newRecordingSpeaker() *recordingSpeaker {
	return &recordingSpeaker{spoken: make(chan string, 16)}
}

func (r *recordingSpeaker) Speak(text string) { r.spoken <- text }

func (r *recordingSpeaker) next(t *testing.T) string {
	t.Helper()
	select {
	case text := <-r.spoken:
		return text
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for spoken text")
		return ""
	}
}

func (r *recordingSpeaker) quiet(t *testing.T) {
	t.Helper()
	select {
	case text := <-r.spoken:
		t.Fatalf("unexpected spoken text: %q", text)
	case <-time.After(20 * time.Millisecond):
	}
}

func settledSuccess(id, summary string) *task.Snapshot {
	snap := &task.Snapshot{ID: id, Status: task.StatusSuccess}
	if summary != "" {
		snap.Output = &task.Output{SummaryText: summary}
	}
	return snap
}

func TestNewSessionSeedsGreeting(t *testing.T) {
	s := NewSession("Dana")
	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Hello! I'm Dana.")
}

func TestAppendOrderMatchesCallOrder(t *testing.T) {
	s := NewSession("Dana")
	for i := 0; i < 5; i++ {
		s.AppendUserMessage(fmt.Sprintf("message %d", i))
	}
	msgs := s.Messages()
	// greeting + 5 * (user + thinking)
	require.Len(t, msgs, 11)
	for i := 0; i < 5; i++ {
		user := msgs[1+i*2]
		assert.Equal(t, RoleUser, user.Role)
		assert.Equal(t, fmt.Sprintf("message %d", i), user.Content)
		assert.Equal(t, RoleAssistant, msgs[2+i*2].Role)
	}
}

func TestAppendUserMessageDerivesTaskTypeAndSpeaks(t *testing.T) {
	speaker := newRecordingSpeaker()
	s := NewSession("Dana", WithSpeaker(speaker))

	taskType := s.AppendUserMessage("generate daily warehouse report")
	assert.Equal(t, TaskTypeDailyWarehouseReport, taskType)
	assert.Equal(t, "I'll help you with that. Let me start working on it.", speaker.next(t))
}

func TestOnTaskSettledSuccessRewriteIsIdempotent(t *testing.T) {
	s := NewSession("Dana")
	s.AppendUserMessage("run the report")
	s.OnTaskStarted("t1")

	snap := settledSuccess("t1", "Report ready")
	require.True(t, s.OnTaskSettled(snap))

	msgs := s.Messages()
	placeholder := msgs[len(msgs)-1]
	assert.Equal(t, "t1", placeholder.TaskID)
	assert.Equal(t, "Task completed! Report ready", placeholder.Content)

	// Applying the same settled snapshot again must not mutate anything.
	require.False(t, s.OnTaskSettled(snap))
	again := s.Messages()
	assert.Equal(t, msgs, again)
}

func TestOnTaskSettledSuccessGenericNotice(t *testing.T) {
	s := NewSession("Dana")
	s.OnTaskStarted("t2")
	require.True(t, s.OnTaskSettled(settledSuccess("t2", "")))
	msgs := s.Messages()
	assert.Equal(t, "Task completed! Results are ready.", msgs[len(msgs)-1].Content)
}

func TestOnTaskSettledFailureIncorporatesErrorOnce(t *testing.T) {
	s := NewSession("Dana")
	s.OnTaskStarted("t3")

	snap := &task.Snapshot{ID: "t3", Status: task.StatusFailed, Error: "tool timeout"}
	require.True(t, s.OnTaskSettled(snap))
	require.False(t, s.OnTaskSettled(snap))

	count := 0
	for _, m := range s.Messages() {
		if m.Content == "Task failed: tool timeout" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestOnTaskSettledFailureGenericNotice(t *testing.T) {
	s := NewSession("Dana")
	s.OnTaskStarted("t4")
	require.True(t, s.OnTaskSettled(&task.Snapshot{ID: "t4", Status: task.StatusFailed}))
	msgs := s.Messages()
	assert.Equal(t, "Task failed: Unknown error", msgs[len(msgs)-1].Content)
}

func TestOnTaskSettledIgnoresNonTerminalSnapshots(t *testing.T) {
	s := NewSession("Dana")
	s.OnTaskStarted("t5")
	p := 50
	assert.False(t, s.OnTaskSettled(&task.Snapshot{ID: "t5", Status: task.StatusRunning, Progress: &p}))
}

func TestOnTaskSettledSpeaksOnlyOnSuccess(t *testing.T) {
	speaker := newRecordingSpeaker()
	s := NewSession("Dana", WithSpeaker(speaker))

	s.OnTaskStarted("ok")
	require.True(t, s.OnTaskSettled(settledSuccess("ok", "Report ready")))
	assert.Equal(t, "Task completed! Report ready", speaker.next(t))

	s.OnTaskStarted("bad")
	require.True(t, s.OnTaskSettled(&task.Snapshot{ID: "bad", Status: task.StatusFailed, Error: "boom"}))
	speaker.quiet(t)
}

func TestVoiceDisabledSuppressesSpeech(t *testing.T) {
	speaker := newRecordingSpeaker()
	s := NewSession("Dana", WithSpeaker(speaker), WithVoiceEnabled(false))
	s.AppendUserMessage("report please")
	speaker.quiet(t)

	s.SetVoiceEnabled(true)
	assert.True(t, s.VoiceEnabled())
}

func TestOnTaskStartFailedNotice(t *testing.T) {
	speaker := newRecordingSpeaker()
	s := NewSession("Dana", WithSpeaker(speaker))

	s.OnTaskStartFailed("orchestrator unavailable")
	msgs := s.Messages()
	assert.Equal(t, "Sorry, I encountered an error: orchestrator unavailable", msgs[len(msgs)-1].Content)
	assert.Equal(t, "Sorry, I encountered an error: orchestrator unavailable", speaker.next(t))

	s.OnTaskStartFailed("")
	msgs = s.Messages()
	assert.Equal(t, "Sorry, I encountered an error: Failed to start task", msgs[len(msgs)-1].Content)
}

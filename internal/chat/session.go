package chat

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"phi/internal/logging"
	"phi/internal/task"
)

// Role identifies the sender of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry in the session's append-only log. Content is mutable
// exactly once: when a linked task reaches a terminal state.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
	TaskID    string
}

// Speaker forwards notice text to a speech-output capability. Calls are
// best-effort and must never block message handling.
type Speaker interface {
	Speak(text string)
}

const (
	thinkingNotice     = "I'll help you with that. Let me start working on it..."
	thinkingSpoken     = "I'll help you with that. Let me start working on it."
	startedNotice      = "I've started working on your request. You can see my progress below."
	genericSuccessText = "Results are ready."
	genericFailureText = "Unknown error"
	startFailurePrefix = "Sorry, I encountered an error: "
	startFailureText   = "Failed to start task"
)

// Session maintains the ordered message log for one chat view and keeps
// task-linked messages synchronized with task outcomes. The log is
// session-scoped and never persisted.
type Session struct {
	mu           sync.Mutex
	messages     []Message
	rewritten    map[string]bool
	speaker      Speaker
	voiceEnabled bool
	log          *logging.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSpeaker attaches a speech-output capability.
func WithSpeaker(speaker Speaker) SessionOption {
	return func(s *Session) { s.speaker = speaker }
}

// WithVoiceEnabled sets the initial voice-output toggle.
func WithVoiceEnabled(enabled bool) SessionOption {
	return func(s *Session) { s.voiceEnabled = enabled }
}

// NewSession creates a session seeded with the agent's greeting.
func NewSession(agentName string, opts ...SessionOption) *Session {
	s := &Session{
		rewritten:    map[string]bool{},
		voiceEnabled: true,
		log:          logging.ForComponent("chat"),
	}
	for _, opt := range opts {
		opt(s)
	}
	greeting := fmt.Sprintf("Hello! I'm %s. I can help you with warehouse analysis, reports, and various tasks. What would you like me to do?", agentName)
	s.append(Message{Role: RoleSystem, Content: greeting})
	return s
}

// AppendUserMessage records the user's input, acknowledges it with a
// thinking notice, and returns the derived task type for the caller to
// start. Display order equals call order.
func (s *Session) AppendUserMessage(text string) (taskType string) {
	s.mu.Lock()
	s.append(Message{Role: RoleUser, Content: text})
	s.append(Message{Role: RoleAssistant, Content: thinkingNotice})
	s.mu.Unlock()

	s.speak(thinkingSpoken)
	return DeriveTaskType(text)
}

// OnTaskStarted appends the assistant placeholder tagged with the new task
// id. The caller binds its projector to the same id.
func (s *Session) OnTaskStarted(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.append(Message{Role: RoleAssistant, Content: startedNotice, TaskID: taskID})
}

// OnTaskStartFailed records a task-start failure as an assistant message.
// detail is the backend's error detail; empty falls back to a generic text.
func (s *Session) OnTaskStartFailed(detail string) {
	if detail == "" {
		detail = startFailureText
	}
	text := startFailurePrefix + detail

	s.mu.Lock()
	s.append(Message{Role: RoleAssistant, Content: text})
	s.mu.Unlock()

	s.speak(text)
}

// OnTaskSettled rewrites the matching message's content, exactly once per
// settled task id. Repeated applications of the same snapshot are no-ops.
// It reports whether a rewrite happened.
func (s *Session) OnTaskSettled(snap *task.Snapshot) bool {
	if snap == nil || !snap.Status.Terminal() {
		return false
	}

	var notice string
	switch snap.Status {
	case task.StatusSuccess:
		summary := genericSuccessText
		if snap.Output != nil && snap.Output.SummaryText != "" {
			summary = snap.Output.SummaryText
		}
		notice = "Task completed! " + summary
	case task.StatusFailed:
		reason := snap.Error
		if reason == "" {
			reason = genericFailureText
		}
		notice = "Task failed: " + reason
	}

	s.mu.Lock()
	if s.rewritten[snap.ID] {
		s.mu.Unlock()
		return false
	}
	applied := false
	for i := range s.messages {
		if s.messages[i].TaskID == snap.ID {
			s.messages[i].Content = notice
			applied = true
			break
		}
	}
	if applied {
		s.rewritten[snap.ID] = true
	}
	s.mu.Unlock()

	if applied {
		s.log.Info("task %s settled with status %s", snap.ID, snap.Status)
		// The original client only voices successful completions; failures
		// stay visible inline.
		if snap.Status == task.StatusSuccess {
			s.speak(notice)
		}
	}
	return applied
}

// Messages returns a copy of the log in append order.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SetVoiceEnabled toggles the voice-output side effect.
func (s *Session) SetVoiceEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceEnabled = enabled
}

// VoiceEnabled reports the voice-output toggle.
func (s *Session) VoiceEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voiceEnabled
}

// append adds a message; callers hold the lock (NewSession excepted, the
// session is not yet shared there).
func (s *Session) append(msg Message) {
	msg.ID = uuid.NewString()
	msg.Timestamp = time.Now()
	s.messages = append(s.messages, msg)
}

// speak forwards text to the speaker without awaiting it.
func (s *Session) speak(text string) {
	s.mu.Lock()
	speaker := s.speaker
	enabled := s.voiceEnabled
	s.mu.Unlock()
	if speaker == nil || !enabled {
		return
	}
	go speaker.Speak(text)
}

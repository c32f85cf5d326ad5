package task

import (
	"encoding/json"
	"sort"
	"time"
)

// Status is the orchestrator-side task lifecycle state. The client only
// recognizes these four values; anything else is treated as non-terminal.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusRunning Status = "RUNNING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Terminal reports whether the task is finished and the snapshot immutable.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Event is an immutable timestamped record of a sub-step within a task's
// execution, append-only from the backend's perspective.
type Event struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	Payload   Payload   `json:"payload,omitempty"`
}

// Payload is the open-ended event payload (tool name, step id, progress,
// nested error/result).
type Payload map[string]any

func (p Payload) stringField(key string) string {
	if p == nil {
		return ""
	}
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

// ToolName returns the tool name carried by the payload, if any.
func (p Payload) ToolName() string { return p.stringField("tool_name") }

// CurrentStep returns the in-progress step label carried by the payload.
func (p Payload) CurrentStep() string { return p.stringField("current_step") }

// ErrorText returns a nested error string carried by the payload.
func (p Payload) ErrorText() string { return p.stringField("error") }

// ResultText returns a nested result when it is a plain string.
func (p Payload) ResultText() string { return p.stringField("result") }

// Progress returns the progress percent carried by the payload, or -1.
func (p Payload) Progress() int {
	if p == nil {
		return -1
	}
	switch v := p["progress"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return -1
}

// Output is the open-ended success payload of a task. Known fields are
// promoted; the raw structure is retained for display.
type Output struct {
	SummaryText  string `json:"summary_text,omitempty"`
	FullReportMD string `json:"full_report_md,omitempty"`
	DashboardURL string `json:"dashboard_url,omitempty"`

	raw map[string]any
}

// UnmarshalJSON keeps the full structure alongside the promoted fields.
func (o *Output) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.raw = raw
	if v, ok := raw["summary_text"].(string); ok {
		o.SummaryText = v
	}
	if v, ok := raw["full_report_md"].(string); ok {
		o.FullReportMD = v
	}
	if v, ok := raw["dashboard_url"].(string); ok {
		o.DashboardURL = v
	}
	return nil
}

// MarshalJSON renders the original structure when available.
func (o Output) MarshalJSON() ([]byte, error) {
	if o.raw != nil {
		return json.Marshal(o.raw)
	}
	type plain Output
	return json.Marshal(plain(o))
}

// Raw returns the full output structure as decoded from the backend.
func (o Output) Raw() map[string]any { return o.raw }

// Snapshot is the most recently fetched representation of a task's
// server-side state. Once Status is terminal the client treats it as
// immutable and stops polling.
type Snapshot struct {
	ID          string         `json:"id"`
	AgentID     string         `json:"agent_id"`
	OrgID       string         `json:"org_id"`
	Type        string         `json:"type"`
	Status      Status         `json:"status"`
	Input       map[string]any `json:"input,omitempty"`
	Output      *Output        `json:"output,omitempty"`
	Error       string         `json:"error,omitempty"`
	Progress    *int           `json:"progress,omitempty"`
	ETASeconds  *int           `json:"eta_seconds,omitempty"`
	CurrentStep string         `json:"current_step,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Events      []Event        `json:"events,omitempty"`
}

// ShowProgress reports whether progress/ETA may be rendered: only while the
// task is still in flight, never from a stale terminal snapshot.
func (s *Snapshot) ShowProgress() bool {
	return s != nil && !s.Status.Terminal() && s.Progress != nil
}

var timelineEventTypes = map[string]bool{
	"TOOL_COMPLETED":     true,
	"TOOL_FAILED":        true,
	"PROGRESS_UPDATE":    true,
	"WORKFLOW_STARTED":   true,
	"WORKFLOW_COMPLETED": true,
}

// TimelineEvents returns the recognized action events in timestamp order.
func (s *Snapshot) TimelineEvents() []Event {
	if s == nil || len(s.Events) == 0 {
		return nil
	}
	out := make([]Event, 0, len(s.Events))
	for _, e := range s.Events {
		if timelineEventTypes[e.EventType] {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

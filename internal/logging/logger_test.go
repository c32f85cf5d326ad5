package logging

import (
	"strings"
	"testing"
)

func TestSanitizeLineRedactsBearerTokens(t *testing.T) {
	line := `request headers: Authorization: Bearer sk-abc123.def456`
	got := sanitizeLine(line)
	if strings.Contains(got, "sk-abc123") {
		t.Fatalf("token leaked into log line: %q", got)
	}
	if !strings.Contains(got, "Bearer "+redactedPlaceholder) {
		t.Fatalf("expected redaction placeholder, got %q", got)
	}
}

func TestSanitizeLinePassesThroughPlainText(t *testing.T) {
	line := "task t1 settled with status SUCCESS"
	if got := sanitizeLine(line); got != line {
		t.Fatalf("plain line mutated: %q", got)
	}
}

func TestForComponentSharesLevel(t *testing.T) {
	l := ForComponent("api")
	if l.component != "api" {
		t.Fatalf("component not set: %q", l.component)
	}
	if l.mu != Get().mu {
		t.Fatal("component logger must share the root mutex")
	}
}

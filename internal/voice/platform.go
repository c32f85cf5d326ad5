package voice

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// CommandSynthesizer speaks through a local text-to-speech binary: `say` on
// macOS, `espeak` or `spd-say` elsewhere. Availability is probed once.
type CommandSynthesizer struct {
	command string
}

// NewCommandSynthesizer locates a usable TTS binary on PATH.
func NewCommandSynthesizer() *CommandSynthesizer {
	candidates := []string{"espeak", "spd-say"}
	if runtime.GOOS == "darwin" {
		candidates = []string{"say", "espeak"}
	}
	for _, name := range candidates {
		if _, err := exec.LookPath(name); err == nil {
			return &CommandSynthesizer{command: name}
		}
	}
	return &CommandSynthesizer{}
}

// Available reports whether a TTS binary was found.
func (s *CommandSynthesizer) Available() bool { return s.command != "" }

// Speak runs the TTS binary and blocks until the utterance finishes or ctx
// is cancelled.
func (s *CommandSynthesizer) Speak(ctx context.Context, text string) error {
	if s.command == "" {
		return fmt.Errorf("no speech synthesis binary available")
	}
	cmd := exec.CommandContext(ctx, s.command, text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", s.command, err)
	}
	return nil
}

// CommandRecognizer obtains a transcript from a user-configured transcriber
// command (for example a whisper wrapper script). The command is expected to
// record one utterance and print the transcript on stdout.
type CommandRecognizer struct {
	command string
	args    []string
}

// NewCommandRecognizer builds a recognizer from a shell-style command line.
// An empty command yields an unavailable recognizer.
func NewCommandRecognizer(commandLine string) *CommandRecognizer {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return &CommandRecognizer{}
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		return &CommandRecognizer{}
	}
	return &CommandRecognizer{command: fields[0], args: fields[1:]}
}

// Available reports whether a transcriber command is configured and present.
func (r *CommandRecognizer) Available() bool { return r.command != "" }

// Listen runs the transcriber and returns the first non-empty line of its
// output as the transcript.
func (r *CommandRecognizer) Listen(ctx context.Context) (string, error) {
	if r.command == "" {
		return "", fmt.Errorf("no speech recognition command configured")
	}
	cmd := exec.CommandContext(ctx, r.command, r.args...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", r.command, err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			return line, nil
		}
	}
	return "", fmt.Errorf("transcriber produced no transcript")
}

package questionbank

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TranscriptLogger records every prompt sent to, and raw response received
// from, the remote generation service for one run.
type TranscriptLogger struct {
	file  *os.File
	mu    sync.Mutex
	runID string
	path  string
}

// NewTranscriptLogger creates <dir>/<runID>.log and writes the run header
func NewTranscriptLogger(dir, runID string, req GenerationRequest) (*TranscriptLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s.log", runID))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript file: %w", err)
	}

	tl := &TranscriptLogger{
		file:  file,
		runID: runID,
		path:  filename,
	}

	tl.Logf("=== Question Generation Transcript ===\n")
	tl.Logf("Run ID: %s\n", runID)
	tl.Logf("Requested Questions: %d\n", req.Count)
	tl.Logf("Marks: %s\n", formatMarks(req.Marks))
	if req.QuestionType != "" {
		tl.Logf("Question Type: %s\n", req.QuestionType)
	}
	tl.Logf("Paragraph Length: %d characters\n", len(req.Paragraph))
	tl.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	tl.Logf("======================================\n\n")

	return tl, nil
}

// Path returns the transcript file name
func (tl *TranscriptLogger) Path() string {
	return tl.path
}

// Logf writes a formatted entry with timestamp
func (tl *TranscriptLogger) Logf(format string, args ...interface{}) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.write(format, args...)
}

func (tl *TranscriptLogger) write(format string, args ...interface{}) {
	if tl.file == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(tl.file, "[%s] %s", timestamp, fmt.Sprintf(format, args...))
	tl.file.Sync()
}

// LogRequest logs a prompt sent by the named variant
func (tl *TranscriptLogger) LogRequest(variant, prompt string) {
	tl.Logf("=== REQUEST (%s) ===\n", variant)
	tl.Logf("Prompt:\n%s\n", prompt)
	tl.Logf("====================\n\n")
}

// LogResponse logs a raw response, or the failure that replaced it
func (tl *TranscriptLogger) LogResponse(variant, response string, err error) {
	tl.Logf("=== RESPONSE (%s) ===\n", variant)
	if err != nil {
		tl.Logf("Error: %v\n", err)
	} else {
		tl.Logf("Response:\n%s\n", response)
	}
	tl.Logf("=====================\n\n")
}

// LogOutcome logs which path produced the final questions
func (tl *TranscriptLogger) LogOutcome(source GenerationSource, count int) {
	tl.Logf("Outcome: %d questions from %s\n", count, source)
}

// Close writes the footer and closes the file
func (tl *TranscriptLogger) Close() error {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.file == nil {
		return nil
	}
	tl.write("=== Transcript Complete ===\n")
	tl.write("Completed: %s\n", time.Now().Format(time.RFC3339))
	err := tl.file.Close()
	tl.file = nil
	return err
}

type transcriptKey struct{}

// ContextWithTranscript attaches a transcript to ctx so remote calls made
// under it are recorded.
func ContextWithTranscript(ctx context.Context, tl *TranscriptLogger) context.Context {
	return context.WithValue(ctx, transcriptKey{}, tl)
}

// TranscriptFromContext returns the transcript attached to ctx, if any
func TranscriptFromContext(ctx context.Context) *TranscriptLogger {
	if ctx == nil {
		return nil
	}
	tl, _ := ctx.Value(transcriptKey{}).(*TranscriptLogger)
	return tl
}

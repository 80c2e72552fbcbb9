package questionbank

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Completer is a text-completion backend: one prompt in, free text out.
// Output length and temperature are part of the completer's configuration.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const (
	variantBatch     = "batch"
	variantSingle    = "single"
	variantSingleAlt = "single-alternate"

	defaultQuestionType = "exam-style"
)

var (
	blankLines    = regexp.MustCompile(`\n+`)
	leadingNumber = regexp.MustCompile(`^\d+\.?\s*`)
)

// RemoteClient asks an external generative text service for questions.
// It never returns an error for service trouble: a missing credential,
// transport failure or unusable response all come back as "no result".
type RemoteClient struct {
	completer Completer
	log       *Logger
}

// NewRemoteClient wraps a completer; a nil completer disables the client
func NewRemoteClient(completer Completer) *RemoteClient {
	return &RemoteClient{
		completer: completer,
		log:       GetLogger().With("component", "RemoteClient"),
	}
}

// Enabled reports whether a completer is configured
func (rc *RemoteClient) Enabled() bool {
	return rc != nil && rc.completer != nil
}

// RequestBatch makes exactly one call for count questions and returns them
// tagged with "(<marks> marks) ", or nil when the service gave nothing usable.
func (rc *RemoteClient) RequestBatch(ctx context.Context, paragraph string, count int, marks float64, questionType string) []string {
	if count <= 0 || !rc.Enabled() {
		return nil
	}
	prompt := buildBatchPrompt(paragraph, count, marks, questionType)
	text, err := rc.complete(ctx, variantBatch, prompt)
	if err != nil {
		rc.log.Warn("batch generation unavailable", "error", err)
		return nil
	}
	questions := parseQuestionLines(text, count, marks)
	if len(questions) == 0 {
		return nil
	}
	return questions
}

// RequestSingle asks for one question. If the primary prompt yields no
// text, exactly one alternate prompt is tried. The returned question is not
// tagged with marks.
func (rc *RemoteClient) RequestSingle(ctx context.Context, paragraph string, marks float64) (string, bool) {
	if !rc.Enabled() {
		return "", false
	}
	text, err := rc.complete(ctx, variantSingle, buildSinglePrompt(paragraph, marks))
	if err != nil {
		rc.log.Warn("single generation failed", "error", err)
		return "", false
	}
	if text != "" {
		return text, true
	}

	rc.log.Info("primary prompt produced no text, trying alternate prompt")
	text, err = rc.complete(ctx, variantSingleAlt, buildAlternateSinglePrompt(paragraph, marks))
	if err != nil {
		rc.log.Warn("alternate generation failed", "error", err)
		return "", false
	}
	return text, text != ""
}

// complete runs one completion and returns its trimmed text
func (rc *RemoteClient) complete(ctx context.Context, variant, prompt string) (string, error) {
	if !rc.Enabled() {
		return "", fmt.Errorf("%w: no credential configured", ErrRemoteUnavailable)
	}

	transcript := TranscriptFromContext(ctx)
	if transcript != nil {
		transcript.LogRequest(variant, prompt)
	}

	text, err := rc.completer.Complete(ctx, prompt)
	if transcript != nil {
		transcript.LogResponse(variant, text, err)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return strings.TrimSpace(text), nil
}

func buildBatchPrompt(paragraph string, count int, marks float64, questionType string) string {
	questionType = strings.TrimSpace(questionType)
	if questionType == "" {
		questionType = defaultQuestionType
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Generate %d %s questions from this paragraph. ", count, questionType))
	sb.WriteString(fmt.Sprintf("Each question is worth %s marks. ", formatMarks(marks)))
	sb.WriteString("Return as a numbered list with each question on a new line. ")
	sb.WriteString("Paragraph: ")
	sb.WriteString(paragraph)
	return sb.String()
}

func buildSinglePrompt(paragraph string, marks float64) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Generate ONE exam-style question from this paragraph. Marks: %s. ", formatMarks(marks)))
	sb.WriteString("Rules: ")
	sb.WriteString("- 1–2 marks: short direct question ")
	sb.WriteString("- 3–5 marks: descriptive ")
	sb.WriteString("- 6–10 marks: multi-part single-line question using full stops. ")
	sb.WriteString("Return ONLY the question. ")
	sb.WriteString("Paragraph: ")
	sb.WriteString(paragraph)
	return sb.String()
}

func buildAlternateSinglePrompt(paragraph string, marks float64) string {
	return fmt.Sprintf("Write a single exam question worth %s marks based on this text. Return only the question. Text: %s",
		formatMarks(marks), paragraph)
}

// parseQuestionLines splits a numbered list into at most count questions,
// strips the numbering, drops blank lines and tags each with its marks.
func parseQuestionLines(text string, count int, marks float64) []string {
	questions := make([]string, 0, count)
	for _, line := range blankLines.Split(text, -1) {
		if len(questions) == count {
			break
		}
		line = strings.TrimSpace(leadingNumber.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" {
			continue
		}
		questions = append(questions, tagMarks(marks, line))
	}
	return questions
}

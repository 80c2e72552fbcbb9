package questionbank

import (
	"context"
	"strings"
	"unicode/utf8"
)

const (
	// MinParagraphLength is the shortest trimmed paragraph accepted for generation
	MinParagraphLength = 20

	defaultCount = 3
	defaultMarks = 2
)

// QuestionGenerator tries the remote service first and falls back to the
// offline generator, so a non-trivial paragraph always yields questions.
type QuestionGenerator struct {
	remote   *RemoteClient
	offline  *OfflineGenerator
	minCount int
	maxCount int
	log      *Logger
}

// NewQuestionGenerator creates a generator. remote may be nil or disabled;
// minCount/maxCount bound the number of questions per request.
func NewQuestionGenerator(remote *RemoteClient, offline *OfflineGenerator, minCount, maxCount int) *QuestionGenerator {
	if offline == nil {
		offline = NewOfflineGenerator(nil)
	}
	if minCount < 1 {
		minCount = 1
	}
	if maxCount < minCount {
		maxCount = minCount
	}
	return &QuestionGenerator{
		remote:   remote,
		offline:  offline,
		minCount: minCount,
		maxCount: maxCount,
		log:      GetLogger().With("component", "QuestionGenerator"),
	}
}

// ClampCount applies the default and the configured bounds to a requested count
func (qg *QuestionGenerator) ClampCount(count int) int {
	if count == 0 {
		count = defaultCount
	}
	return max(qg.minCount, min(count, qg.maxCount))
}

// Generate produces questions for req. Only malformed input is an error;
// remote trouble silently falls back to offline generation.
func (qg *QuestionGenerator) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	paragraph := strings.TrimSpace(req.Paragraph)
	if utf8.RuneCountInString(paragraph) < MinParagraphLength {
		return nil, invalidInput("paragraph must be at least %d characters", MinParagraphLength)
	}
	marks := req.Marks
	if marks == 0 {
		marks = defaultMarks
	}
	if err := checkMarks(marks); err != nil {
		return nil, err
	}
	count := qg.ClampCount(req.Count)

	transcript := TranscriptFromContext(ctx)

	if qg.remote.Enabled() {
		questions := qg.remote.RequestBatch(ctx, req.Paragraph, count, marks, req.QuestionType)
		if len(questions) > 0 {
			qg.log.Info("questions generated", "source", SourceRemote, "count", len(questions))
			if transcript != nil {
				transcript.LogOutcome(SourceRemote, len(questions))
			}
			return &GenerationResult{Questions: questions, Source: SourceRemote}, nil
		}
		qg.log.Info("remote generation produced nothing, falling back to offline")
	}

	questions := qg.offline.Generate(req.Paragraph, count, marks)
	qg.log.Info("questions generated", "source", SourceOffline, "count", len(questions))
	if transcript != nil {
		transcript.LogOutcome(SourceOffline, len(questions))
	}
	return &GenerationResult{Questions: questions, Source: SourceOffline}, nil
}

// GenerateSingle asks the remote service for one question. There is no
// offline fallback: ok is false when the service is disabled or produced
// nothing. Only malformed input is an error.
func (qg *QuestionGenerator) GenerateSingle(ctx context.Context, paragraph string, marks float64) (question string, ok bool, err error) {
	if strings.TrimSpace(paragraph) == "" {
		return "", false, invalidInput("paragraph is required")
	}
	if err := checkMarks(marks); err != nil {
		return "", false, err
	}
	if !qg.remote.Enabled() {
		qg.log.Info("single generation skipped, remote client disabled")
		return "", false, nil
	}
	question, ok = qg.remote.RequestSingle(ctx, paragraph, marks)
	return question, ok, nil
}

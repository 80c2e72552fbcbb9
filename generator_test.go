package questionbank

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestQuestionGenerator_ClampCount(t *testing.T) {
	qg := NewQuestionGenerator(nil, nil, 3, 6)
	tests := map[int]int{0: 3, 1: 3, -5: 3, 3: 3, 4: 4, 6: 6, 7: 6, 1000: 6}
	for in, want := range tests {
		if got := qg.ClampCount(in); got != want {
			t.Errorf("ClampCount(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestQuestionGenerator_RejectsShortParagraph(t *testing.T) {
	stub := &stubCompleter{responses: []string{"1. Q?"}}
	qg := NewQuestionGenerator(NewRemoteClient(stub), nil, 3, 6)
	for _, p := range []string{"", "too short", "   nineteen chars!!    ", strings.Repeat(" ", 50) + "short" + strings.Repeat("\n", 30), "光合作用は植物のエネルギー", "  Définition énergie  "} {
		for _, count := range []int{0, 3, 100} {
			for _, marks := range []float64{0, 2, 10} {
				_, err := qg.Generate(context.Background(), GenerationRequest{Paragraph: p, Count: count, Marks: marks})
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("paragraph %q: expected ErrInvalidInput, got %v", p, err)
				}
			}
		}
	}
	if stub.calls() != 0 {
		t.Fatalf("remote called %d times for rejected input", stub.calls())
	}
}

func TestQuestionGenerator_CountsCharactersNotBytes(t *testing.T) {
	qg := NewQuestionGenerator(nil, nil, 3, 6)
	// 20 characters, 22 bytes
	res, err := qg.Generate(context.Background(), GenerationRequest{Paragraph: "  Définition énergie!!  ", Count: 3, Marks: 2})
	if err != nil || res.Source != SourceOffline || len(res.Questions) != 3 {
		t.Fatalf("unexpected result: %#v, %v", res, err)
	}
}

func TestQuestionGenerator_RejectsBadMarks(t *testing.T) {
	qg := NewQuestionGenerator(nil, nil, 3, 6)
	for _, marks := range []float64{math.NaN(), math.Inf(1), -2} {
		_, err := qg.Generate(context.Background(), GenerationRequest{Paragraph: sampleParagraph, Marks: marks})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("marks %v: expected ErrInvalidInput, got %v", marks, err)
		}
	}
}

func TestQuestionGenerator_RemoteResult(t *testing.T) {
	stub := &stubCompleter{responses: []string{"1. What is light?\n2. What is energy?\n3. What is glucose?"}}
	qg := NewQuestionGenerator(NewRemoteClient(stub), nil, 3, 6)

	res, err := qg.Generate(context.Background(), GenerationRequest{Paragraph: sampleParagraph, Count: 3, Marks: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != SourceRemote {
		t.Fatalf("source = %s, want remote", res.Source)
	}
	if len(res.Questions) != 3 || res.Questions[0] != "(4 marks) What is light?" {
		t.Fatalf("unexpected questions: %#v", res.Questions)
	}
}

func TestQuestionGenerator_FallsBackWhenRemoteFails(t *testing.T) {
	qg := NewQuestionGenerator(NewRemoteClient(failingCompleter{}), NewOfflineGenerator(&fixedRand{vals: []int{2}}), 3, 6)
	for _, count := range []int{0, 1, 3, 5, 6, 9} {
		for _, marks := range []float64{1, 2, 4, 6, 10} {
			res, err := qg.Generate(context.Background(), GenerationRequest{Paragraph: sampleParagraph, Count: count, Marks: marks})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Source != SourceOffline {
				t.Fatalf("source = %s, want offline", res.Source)
			}
			if want := qg.ClampCount(count); len(res.Questions) != want {
				t.Fatalf("count=%d: got %d questions, want %d", count, len(res.Questions), want)
			}
			for _, q := range res.Questions {
				if !hasMarksTag(q, formatMarks(marks)) {
					t.Fatalf("question %q lacks marks tag", q)
				}
			}
		}
	}
}

func TestQuestionGenerator_FallsBackOnEmptyRemote(t *testing.T) {
	stub := &stubCompleter{responses: []string{"\n\n"}}
	qg := NewQuestionGenerator(NewRemoteClient(stub), nil, 3, 6)
	res, err := qg.Generate(context.Background(), GenerationRequest{Paragraph: sampleParagraph, Count: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != SourceOffline || len(res.Questions) != 4 {
		t.Fatalf("unexpected result: %#v", res)
	}
	if !hasMarksTag(res.Questions[0], "2") {
		t.Fatalf("default marks not applied: %q", res.Questions[0])
	}
}

func TestQuestionGenerator_DisabledRemoteGoesOffline(t *testing.T) {
	qg := NewQuestionGenerator(NewRemoteClient(nil), nil, 3, 6)
	res, err := qg.Generate(context.Background(), GenerationRequest{Paragraph: sampleParagraph, Count: 3, Marks: 2})
	if err != nil || res.Source != SourceOffline || len(res.Questions) != 3 {
		t.Fatalf("unexpected result: %#v, %v", res, err)
	}
}

func TestQuestionGenerator_GenerateSingle(t *testing.T) {
	stub := &stubCompleter{responses: []string{"", "Explain photosynthesis."}}
	qg := NewQuestionGenerator(NewRemoteClient(stub), nil, 3, 6)

	q, ok, err := qg.GenerateSingle(context.Background(), sampleParagraph, 5)
	if err != nil || !ok || q != "Explain photosynthesis." {
		t.Fatalf("unexpected result: %q %v %v", q, ok, err)
	}

	if _, _, err := qg.GenerateSingle(context.Background(), "  ", 5); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, _, err := qg.GenerateSingle(context.Background(), sampleParagraph, math.NaN()); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	disabled := NewQuestionGenerator(NewRemoteClient(nil), nil, 3, 6)
	if _, ok, err := disabled.GenerateSingle(context.Background(), sampleParagraph, 5); ok || err != nil {
		t.Fatalf("expected silent no-result, got ok=%v err=%v", ok, err)
	}
}

func TestQuestionGenerator_WritesTranscript(t *testing.T) {
	stub := &stubCompleter{responses: []string{"1. What is chlorophyll?"}}
	qg := NewQuestionGenerator(NewRemoteClient(stub), nil, 3, 6)

	req := GenerationRequest{Paragraph: sampleParagraph, Count: 3, Marks: 2}
	tl, err := NewTranscriptLogger(t.TempDir(), "run1", req)
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	ctx := ContextWithTranscript(context.Background(), tl)
	if _, err := qg.Generate(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tl.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data := readFile(t, tl.Path())
	for _, want := range []string{"Run ID: run1", "REQUEST (batch)", "What is chlorophyll?", "Outcome: 1 questions from remote", "Transcript Complete"} {
		if !strings.Contains(data, want) {
			t.Fatalf("transcript missing %q:\n%s", want, data)
		}
	}
}

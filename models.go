package questionbank

import "time"

// Question is a stored question-bank entry
type Question struct {
	ID          int64      `json:"id"`
	Text        string     `json:"text"`
	Subject     string     `json:"subject"`
	SubjectCode string     `json:"subject_code"`
	SubjectID   int64      `json:"subject_id,omitempty"` // 0 when unlinked
	Marks       float64    `json:"marks"`
	Difficulty  Difficulty `json:"difficulty"`
	Tags        []string   `json:"tags,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Difficulty is the difficulty label of a question
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Subject owns questions; Code is unique in the store
type Subject struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// MergeRecord is the audit row written after a successful merge
type MergeRecord struct {
	ID         string     `json:"id"`
	SourceID1  int64      `json:"source_id_1"`
	SourceID2  int64      `json:"source_id_2"`
	MergedText string     `json:"merged_text"`
	Marks      float64    `json:"marks"`
	Difficulty Difficulty `json:"difficulty"`
	SubjectID  int64      `json:"subject_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// GenerationSource tells which path produced a GenerationResult
type GenerationSource string

const (
	SourceRemote  GenerationSource = "remote"
	SourceOffline GenerationSource = "offline"
)

// GenerationRequest represents a request to generate questions from a paragraph
type GenerationRequest struct {
	Paragraph    string  `json:"paragraph"`
	Count        int     `json:"count"`
	Marks        float64 `json:"marks"`
	QuestionType string  `json:"question_type,omitempty"`
}

// GenerationResult is the uniform output of the orchestrator
type GenerationResult struct {
	Questions []string         `json:"questions"`
	Source    GenerationSource `json:"source"`
}

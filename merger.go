package questionbank

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const mergeConnector = " and "

// QuestionStore loads persisted questions
type QuestionStore interface {
	FindQuestionByID(id int64) (*Question, error)
	FindQuestionsByIDs(ids []int64) ([]Question, error)
}

// QuestionWriter persists new questions
type QuestionWriter interface {
	CreateQuestion(q *Question) error
}

// AuditSink records merges
type AuditSink interface {
	CreateMergeRecord(rec *MergeRecord) error
}

// AuditOutcome reports what happened to the best-effort audit write
type AuditOutcome struct {
	Record *MergeRecord `json:"record,omitempty"`
	Err    error        `json:"-"`
}

// Written reports whether the audit record was stored
func (ao AuditOutcome) Written() bool {
	return ao.Record != nil && ao.Err == nil
}

// MergeResult is the candidate produced by merging two questions.
// Subject is nil when subject resolution failed.
type MergeResult struct {
	SourceIDs   [2]int64     `json:"source_ids"`
	Text        string       `json:"text"`
	Marks       float64      `json:"marks"`
	Difficulty  Difficulty   `json:"difficulty"`
	SubjectName string       `json:"subject_name"`
	Subject     *Subject     `json:"subject,omitempty"`
	Stored      *Question    `json:"stored,omitempty"`
	Audit       AuditOutcome `json:"audit"`
}

// Question builds the new question record for the merge result
func (mr *MergeResult) Question() Question {
	q := Question{
		Text:       mr.Text,
		Subject:    mr.SubjectName,
		Marks:      mr.Marks,
		Difficulty: mr.Difficulty,
	}
	if mr.Subject != nil {
		q.SubjectCode = mr.Subject.Code
		q.SubjectID = mr.Subject.ID
	}
	return q
}

// QuestionMerger fuses two questions into one candidate and resolves the
// subject that owns it.
type QuestionMerger struct {
	subjects  SubjectStore
	questions QuestionStore
	audit     AuditSink
	rnd       Rand
	log       *Logger
}

// NewQuestionMerger creates a merger. audit may be nil; a nil rnd uses DefaultRand.
func NewQuestionMerger(subjects SubjectStore, questions QuestionStore, audit AuditSink, rnd Rand) *QuestionMerger {
	if rnd == nil {
		rnd = DefaultRand
	}
	return &QuestionMerger{
		subjects:  subjects,
		questions: questions,
		audit:     audit,
		rnd:       rnd,
		log:       GetLogger().With("component", "QuestionMerger"),
	}
}

// MergeByIDs loads both questions, merges them and writes the audit record.
// The merged question itself is not stored, so the audit row exists even if
// the caller later fails to persist it; MergeAndStoreByIDs avoids that.
// When subject resolution fails the computed result is still returned
// alongside an error wrapping ErrSubjectResolution.
func (qm *QuestionMerger) MergeByIDs(id1, id2 int64) (*MergeResult, error) {
	result, err := qm.mergeByIDs(id1, id2)
	if err != nil {
		return result, err
	}
	result.Audit = qm.record(result)
	return result, nil
}

// MergeAndStoreByIDs merges like MergeByIDs but stores the merged question
// through w before writing the audit record. A storage failure returns the
// computed result with no audit row written.
func (qm *QuestionMerger) MergeAndStoreByIDs(id1, id2 int64, w QuestionWriter) (*MergeResult, error) {
	result, err := qm.mergeByIDs(id1, id2)
	if err != nil {
		return result, err
	}
	q := result.Question()
	if err := w.CreateQuestion(&q); err != nil {
		return result, fmt.Errorf("failed to store merged question: %w", err)
	}
	result.Stored = &q
	result.Audit = qm.record(result)
	return result, nil
}

func (qm *QuestionMerger) mergeByIDs(id1, id2 int64) (*MergeResult, error) {
	if id1 <= 0 || id2 <= 0 {
		return nil, invalidInput("both question ids are required")
	}
	if id1 == id2 {
		return nil, invalidInput("cannot merge question %d with itself", id1)
	}

	items, err := qm.questions.FindQuestionsByIDs([]int64{id1, id2})
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	var a, b *Question
	for i := range items {
		switch items[i].ID {
		case id1:
			a = &items[i]
		case id2:
			b = &items[i]
		}
	}
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: questions %d and %d", ErrNotFound, id1, id2)
	}

	return qm.Merge(*a, *b)
}

// Merge computes text, marks and difficulty and resolves the subject
func (qm *QuestionMerger) Merge(a, b Question) (*MergeResult, error) {
	text, err := MergeText(a.Text, b.Text)
	if err != nil {
		return nil, err
	}
	marks, err := MergeMarks(a.Marks, b.Marks)
	if err != nil {
		return nil, err
	}

	result := &MergeResult{
		SourceIDs:   [2]int64{a.ID, b.ID},
		Text:        text,
		Marks:       marks,
		Difficulty:  MergeDifficulty(a.Difficulty, b.Difficulty),
		SubjectName: firstNonEmpty(a.Subject, b.Subject, DefaultSubjectName),
	}

	subj, err := qm.resolveSubject(a, result.SubjectName)
	if err != nil {
		qm.log.Warn("subject resolution failed", "source_ids", result.SourceIDs, "error", err)
		return result, err
	}
	result.Subject = subj
	return result, nil
}

// resolveSubject tries, in order: a's subject id, a's subject code, the
// subject name, and finally creating a subject under a derived code.
func (qm *QuestionMerger) resolveSubject(a Question, name string) (*Subject, error) {
	if a.SubjectID != 0 {
		if subj, err := found(qm.subjects.FindSubjectByID(a.SubjectID)); subj != nil || err != nil {
			return subj, err
		}
	}
	if code := strings.TrimSpace(a.SubjectCode); code != "" {
		if subj, err := found(qm.subjects.FindSubjectByCode(code)); subj != nil || err != nil {
			return subj, err
		}
	}
	if subj, err := found(qm.subjects.FindSubjectByName(name)); subj != nil || err != nil {
		return subj, err
	}

	base := NormalizeSubjectCode(firstNonEmpty(a.SubjectCode, name))
	return createSubject(qm.subjects, qm.rnd, name, base)
}

// found turns a not-found lookup into (nil, nil) so the fallback chain moves on
func found(subj *Subject, err error) (*Subject, error) {
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrSubjectResolution, err)
	}
	return subj, nil
}

// record writes the audit row; failure is logged and reported, never fatal
func (qm *QuestionMerger) record(result *MergeResult) AuditOutcome {
	if qm.audit == nil {
		return AuditOutcome{}
	}
	rec := &MergeRecord{
		ID:         uuid.NewString(),
		SourceID1:  result.SourceIDs[0],
		SourceID2:  result.SourceIDs[1],
		MergedText: result.Text,
		Marks:      result.Marks,
		Difficulty: result.Difficulty,
		CreatedAt:  time.Now(),
	}
	if result.Subject != nil {
		rec.SubjectID = result.Subject.ID
	}
	if err := qm.audit.CreateMergeRecord(rec); err != nil {
		qm.log.Warn("failed to write merge record", "source_ids", result.SourceIDs, "error", err)
		return AuditOutcome{Record: rec, Err: err}
	}
	return AuditOutcome{Record: rec}
}

// MergeText joins two question texts into one clause. The result ends
// with "?" if either input does, otherwise with ".".
func MergeText(a, b string) (string, error) {
	first := strings.Join(strings.Fields(a), " ")
	second := strings.Join(strings.Fields(b), " ")
	if first == "" || second == "" {
		return "", invalidInput("both question texts are required")
	}

	terminal := "."
	if strings.HasSuffix(first, "?") || strings.HasSuffix(second, "?") {
		terminal = "?"
	}

	first = strings.TrimRight(first, ".?")
	if c := second[0]; c >= 'A' && c <= 'Z' {
		second = string(c+('a'-'A')) + second[1:]
	}
	return strings.TrimSpace(first+mergeConnector+second) + terminal, nil
}

// MergeMarks sums the marks of both questions
func MergeMarks(a, b float64) (float64, error) {
	if err := checkMarks(a); err != nil {
		return 0, err
	}
	if err := checkMarks(b); err != nil {
		return 0, err
	}
	return a + b, nil
}

// MergeDifficulty rounds up: any Hard wins, matching Easy or Medium pairs
// keep their label, and everything else becomes Medium.
func MergeDifficulty(a, b Difficulty) Difficulty {
	switch {
	case a == DifficultyHard || b == DifficultyHard:
		return DifficultyHard
	case a == DifficultyMedium && b == DifficultyMedium:
		return DifficultyMedium
	case a == DifficultyEasy && b == DifficultyEasy:
		return DifficultyEasy
	default:
		return DifficultyMedium
	}
}

package questionbank

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fixedRand returns its values in turn, reduced modulo n
type fixedRand struct {
	vals []int
	i    int
}

func (r *fixedRand) Intn(n int) int {
	if len(r.vals) == 0 {
		return 0
	}
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v % n
}

// stubCompleter replays canned responses and records prompts
type stubCompleter struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", nil
}

func (s *stubCompleter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// failingCompleter always fails like an unreachable service
type failingCompleter struct{}

func (failingCompleter) Complete(context.Context, string) (string, error) {
	return "", errors.New("connection refused")
}

// memSubjects is an in-memory SubjectStore. Codes listed in taken make
// CreateSubject fail with ErrDuplicateCode; takeAll rejects every code.
type memSubjects struct {
	subjects []Subject
	taken    map[string]bool
	takeAll  bool
	creates  []string
	lookups  []string
}

func newMemSubjects(subjects ...Subject) *memSubjects {
	return &memSubjects{subjects: subjects, taken: map[string]bool{}}
}

func (m *memSubjects) find(kind string, match func(Subject) bool) (*Subject, error) {
	m.lookups = append(m.lookups, kind)
	for i := range m.subjects {
		if match(m.subjects[i]) {
			s := m.subjects[i]
			return &s, nil
		}
	}
	return nil, fmt.Errorf("%w: subject by %s", ErrNotFound, kind)
}

func (m *memSubjects) FindSubjectByID(id int64) (*Subject, error) {
	return m.find("id", func(s Subject) bool { return s.ID == id })
}

func (m *memSubjects) FindSubjectByCode(code string) (*Subject, error) {
	return m.find("code", func(s Subject) bool { return s.Code == code })
}

func (m *memSubjects) FindSubjectByName(name string) (*Subject, error) {
	return m.find("name", func(s Subject) bool { return s.Name == name })
}

func (m *memSubjects) CreateSubject(name, code string) (*Subject, error) {
	m.creates = append(m.creates, code)
	if m.takeAll || m.taken[code] {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, code)
	}
	for _, s := range m.subjects {
		if s.Code == code {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, code)
		}
	}
	s := Subject{ID: int64(len(m.subjects) + 100), Name: name, Code: code}
	m.subjects = append(m.subjects, s)
	return &s, nil
}

// memQuestions is an in-memory QuestionStore
type memQuestions map[int64]Question

func (m memQuestions) FindQuestionByID(id int64) (*Question, error) {
	q, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("%w: question %d", ErrNotFound, id)
	}
	return &q, nil
}

func (m memQuestions) FindQuestionsByIDs(ids []int64) ([]Question, error) {
	var out []Question
	for _, id := range ids {
		if q, ok := m[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

// memAudit records merge records, or fails when err is set
type memAudit struct {
	records []MergeRecord
	err     error
}

func (m *memAudit) CreateMergeRecord(rec *MergeRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, *rec)
	return nil
}

func openTestDB(t *testing.T) *BankDB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "bank.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.CloseDB() })
	if err := db.CreateTables(); err != nil {
		t.Fatalf("create tables: %v", err)
	}
	return db
}

const sampleParagraph = "Photosynthesis converts light energy into chemical energy. " +
	"Chlorophyll absorbs light, and photosynthesis releases oxygen. " +
	"Plants store chemical energy as glucose."

func hasMarksTag(q string, marks string) bool {
	return strings.HasPrefix(q, "("+marks+" marks) ")
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

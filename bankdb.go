package questionbank

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// BankDB is the sqlite-backed subject store, question store and audit sink
type BankDB struct {
	db *sql.DB
}

var (
	_ SubjectStore   = (*BankDB)(nil)
	_ QuestionStore  = (*BankDB)(nil)
	_ QuestionWriter = (*BankDB)(nil)
	_ AuditSink      = (*BankDB)(nil)
)

const questionColumns = "id, text, subject, subject_code, subject_id, marks, difficulty, tags, created_at"

// OpenDB opens a new database connection
func OpenDB(dbPath string) (*BankDB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &BankDB{db: db}, nil
}

// CloseDB closes the database connection
func (bdb *BankDB) CloseDB() error {
	return bdb.db.Close()
}

// CreateTables creates the necessary tables if they don't exist
func (bdb *BankDB) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS subjects (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			code TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL,
			subject TEXT NOT NULL,
			subject_code TEXT NOT NULL,
			subject_id INTEGER,
			marks REAL NOT NULL,
			difficulty TEXT NOT NULL,
			tags TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (subject_id) REFERENCES subjects(id)
		)`,
		`CREATE TABLE IF NOT EXISTS merge_records (
			id TEXT PRIMARY KEY,
			source_id_1 INTEGER NOT NULL,
			source_id_2 INTEGER NOT NULL,
			merged_text TEXT NOT NULL,
			marks REAL NOT NULL,
			difficulty TEXT NOT NULL,
			subject_id INTEGER,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_text_code ON questions(text, subject_code)`,
		`CREATE INDEX IF NOT EXISTS idx_subjects_name ON subjects(name)`,
	}

	for _, query := range queries {
		if _, err := bdb.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint failure
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// CreateSubject inserts a subject; a taken code yields ErrDuplicateCode
func (bdb *BankDB) CreateSubject(name, code string) (*Subject, error) {
	res, err := bdb.db.Exec("INSERT INTO subjects (name, code) VALUES (?, ?)", name, code)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, code)
		}
		return nil, fmt.Errorf("failed to create subject: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read subject id: %w", err)
	}
	return &Subject{ID: id, Name: name, Code: code}, nil
}

func (bdb *BankDB) findSubject(where string, arg interface{}) (*Subject, error) {
	var subj Subject
	err := bdb.db.QueryRow("SELECT id, name, code FROM subjects WHERE "+where+" ORDER BY id LIMIT 1", arg).
		Scan(&subj.ID, &subj.Name, &subj.Code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: subject %v", ErrNotFound, arg)
		}
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}
	return &subj, nil
}

// FindSubjectByID retrieves a subject by ID
func (bdb *BankDB) FindSubjectByID(id int64) (*Subject, error) {
	return bdb.findSubject("id = ?", id)
}

// FindSubjectByCode retrieves a subject by its unique code
func (bdb *BankDB) FindSubjectByCode(code string) (*Subject, error) {
	return bdb.findSubject("code = ?", code)
}

// FindSubjectByName retrieves the oldest subject with the given name
func (bdb *BankDB) FindSubjectByName(name string) (*Subject, error) {
	return bdb.findSubject("name = ?", name)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestion(row rowScanner) (*Question, error) {
	var (
		q         Question
		subjectID sql.NullInt64
		tags      sql.NullString
		diff      string
	)
	if err := row.Scan(&q.ID, &q.Text, &q.Subject, &q.SubjectCode, &subjectID, &q.Marks, &diff, &tags, &q.CreatedAt); err != nil {
		return nil, err
	}
	q.SubjectID = subjectID.Int64
	q.Difficulty = Difficulty(diff)
	if tags.Valid && tags.String != "" {
		parsed, err := JSONToTags(tags.String)
		if err != nil {
			return nil, err
		}
		q.Tags = parsed
	}
	return &q, nil
}

// FindQuestionByID retrieves a question by ID
func (bdb *BankDB) FindQuestionByID(id int64) (*Question, error) {
	q, err := scanQuestion(bdb.db.QueryRow("SELECT "+questionColumns+" FROM questions WHERE id = ?", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: question %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

// FindQuestionsByIDs retrieves the questions that exist among ids, ordered by ID
func (bdb *BankDB) FindQuestionsByIDs(ids []int64) ([]Question, error) {
	if len(ids) == 0 {
		return []Question{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := bdb.db.Query("SELECT "+questionColumns+" FROM questions WHERE id IN ("+placeholders+") ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, *q)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}

	return questions, nil
}

// CreateQuestion inserts a question and fills in its ID and CreatedAt
func (bdb *BankDB) CreateQuestion(q *Question) error {
	tags, err := TagsToJSON(q.Tags)
	if err != nil {
		return err
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	res, err := bdb.db.Exec(
		"INSERT INTO questions (text, subject, subject_code, subject_id, marks, difficulty, tags, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		q.Text, q.Subject, q.SubjectCode, nullableID(q.SubjectID), q.Marks, string(q.Difficulty), tags, q.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read question id: %w", err)
	}
	q.ID = id
	return nil
}

// AddQuestion stores q under its subject, creating the subject when its
// normalized code is unknown. A question with the same text and subject
// code is updated in place (marks, difficulty, and tags when given);
// created reports whether a new row was inserted.
func (bdb *BankDB) AddQuestion(q Question, rnd Rand) (stored *Question, created bool, err error) {
	if strings.TrimSpace(q.Text) == "" || strings.TrimSpace(q.Subject) == "" || q.Difficulty == "" {
		return nil, false, invalidInput("text, subject, marks and difficulty are required")
	}
	if err := checkMarks(q.Marks); err != nil {
		return nil, false, err
	}
	if q.Marks == 0 {
		return nil, false, invalidInput("marks must be positive")
	}

	subj, err := EnsureSubject(bdb, rnd, q.Subject, q.SubjectCode)
	if err != nil {
		return nil, false, err
	}

	var existingID int64
	err = bdb.db.QueryRow("SELECT id FROM questions WHERE text = ? AND subject_code = ? ORDER BY id LIMIT 1", q.Text, subj.Code).Scan(&existingID)
	switch {
	case err == nil:
		if q.Tags != nil {
			tags, err := TagsToJSON(q.Tags)
			if err != nil {
				return nil, false, err
			}
			_, err = bdb.db.Exec("UPDATE questions SET marks = ?, difficulty = ?, tags = ? WHERE id = ?", q.Marks, string(q.Difficulty), tags, existingID)
			if err != nil {
				return nil, false, fmt.Errorf("failed to update question: %w", err)
			}
		} else {
			_, err = bdb.db.Exec("UPDATE questions SET marks = ?, difficulty = ? WHERE id = ?", q.Marks, string(q.Difficulty), existingID)
			if err != nil {
				return nil, false, fmt.Errorf("failed to update question: %w", err)
			}
		}
		stored, err = bdb.FindQuestionByID(existingID)
		return stored, false, err
	case err != sql.ErrNoRows:
		return nil, false, fmt.Errorf("failed to look up question: %w", err)
	}

	q.ID = 0
	q.Subject = subj.Name
	q.SubjectCode = subj.Code
	q.SubjectID = subj.ID
	if err := bdb.CreateQuestion(&q); err != nil {
		return nil, false, err
	}
	return &q, true, nil
}

// CreateMergeRecord stores a merge audit record
func (bdb *BankDB) CreateMergeRecord(rec *MergeRecord) error {
	_, err := bdb.db.Exec(
		"INSERT INTO merge_records (id, source_id_1, source_id_2, merged_text, marks, difficulty, subject_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		rec.ID, rec.SourceID1, rec.SourceID2, rec.MergedText, rec.Marks, string(rec.Difficulty), nullableID(rec.SubjectID), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create merge record: %w", err)
	}
	return nil
}

// GetMergeRecords retrieves the audit records that used a question as a source
func (bdb *BankDB) GetMergeRecords(questionID int64) ([]MergeRecord, error) {
	rows, err := bdb.db.Query(
		"SELECT id, source_id_1, source_id_2, merged_text, marks, difficulty, subject_id, created_at FROM merge_records WHERE source_id_1 = ? OR source_id_2 = ? ORDER BY created_at",
		questionID, questionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get merge records: %w", err)
	}
	defer rows.Close()

	var records []MergeRecord
	for rows.Next() {
		var (
			rec       MergeRecord
			diff      string
			subjectID sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &rec.SourceID1, &rec.SourceID2, &rec.MergedText, &rec.Marks, &diff, &subjectID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan merge record: %w", err)
		}
		rec.Difficulty = Difficulty(diff)
		rec.SubjectID = subjectID.Int64
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating merge records: %w", err)
	}

	return records, nil
}

func nullableID(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

// TagsToJSON converts tags to the JSON text stored in the tags column
func TagsToJSON(tags []string) (interface{}, error) {
	if tags == nil {
		return nil, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(data), nil
}

// JSONToTags converts the stored JSON text back to tags
func JSONToTags(tagsJSON string) ([]string, error) {
	var tags []string
	if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	return tags, nil
}

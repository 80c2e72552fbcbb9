package questionbank

import (
	"errors"
	"reflect"
	"testing"
)

func TestBankDB_SubjectLookupAndDuplicate(t *testing.T) {
	db := openTestDB(t)

	subj, err := db.CreateSubject("Biology", "BIO")
	if err != nil {
		t.Fatalf("create subject: %v", err)
	}

	for name, lookup := range map[string]func() (*Subject, error){
		"id":   func() (*Subject, error) { return db.FindSubjectByID(subj.ID) },
		"code": func() (*Subject, error) { return db.FindSubjectByCode("BIO") },
		"name": func() (*Subject, error) { return db.FindSubjectByName("Biology") },
	} {
		got, err := lookup()
		if err != nil || !reflect.DeepEqual(got, subj) {
			t.Fatalf("lookup by %s: %#v, %v", name, got, err)
		}
	}

	if _, err := db.FindSubjectByCode("CHEM"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := db.CreateSubject("Botany", "BIO"); !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
}

func TestBankDB_QuestionsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	q1 := &Question{Text: "Define osmosis.", Subject: "Biology", SubjectCode: "BIO", Marks: 2, Difficulty: DifficultyEasy, Tags: []string{"cells", "water"}}
	q2 := &Question{Text: "What is turgor?", Subject: "Biology", SubjectCode: "BIO", Marks: 3.5, Difficulty: DifficultyMedium}
	for _, q := range []*Question{q1, q2} {
		if err := db.CreateQuestion(q); err != nil {
			t.Fatalf("create question: %v", err)
		}
	}

	got, err := db.FindQuestionByID(q1.ID)
	if err != nil {
		t.Fatalf("find question: %v", err)
	}
	if got.Text != q1.Text || got.Marks != 2 || !reflect.DeepEqual(got.Tags, q1.Tags) || got.SubjectID != 0 {
		t.Fatalf("unexpected question: %#v", got)
	}

	items, err := db.FindQuestionsByIDs([]int64{q2.ID, q1.ID, 999})
	if err != nil {
		t.Fatalf("find questions: %v", err)
	}
	if len(items) != 2 || items[1].Marks != 3.5 || items[1].Tags != nil {
		t.Fatalf("unexpected questions: %#v", items)
	}

	if _, err := db.FindQuestionByID(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBankDB_AddQuestionUpserts(t *testing.T) {
	db := openTestDB(t)

	first, created, err := db.AddQuestion(Question{Text: "Define osmosis.", Subject: "Cell Biology", Marks: 2, Difficulty: DifficultyEasy}, nil)
	if err != nil || !created {
		t.Fatalf("first add: created=%v err=%v", created, err)
	}
	if first.SubjectCode != "CELLBIOLOG" || first.SubjectID == 0 {
		t.Fatalf("subject not linked: %#v", first)
	}

	second, created, err := db.AddQuestion(Question{Text: "Define osmosis.", Subject: "Cell Biology", Marks: 4, Difficulty: DifficultyHard, Tags: []string{"revision"}}, nil)
	if err != nil || created {
		t.Fatalf("second add: created=%v err=%v", created, err)
	}
	if second.ID != first.ID || second.Marks != 4 || second.Difficulty != DifficultyHard || !reflect.DeepEqual(second.Tags, []string{"revision"}) {
		t.Fatalf("existing question not updated: %#v", second)
	}

	if _, _, err := db.AddQuestion(Question{Text: "Define osmosis.", Marks: 2, Difficulty: DifficultyEasy}, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBankDB_MergeEndToEnd(t *testing.T) {
	db := openTestDB(t)

	bio, err := db.CreateSubject("Biology", "BIO")
	if err != nil {
		t.Fatalf("create subject: %v", err)
	}
	a := &Question{Text: "What is photosynthesis?", Subject: "Biology", SubjectCode: "BIO", SubjectID: bio.ID, Marks: 3, Difficulty: DifficultyEasy}
	b := &Question{Text: "Explain respiration.", Subject: "Biology", SubjectCode: "BIO", SubjectID: bio.ID, Marks: 4, Difficulty: DifficultyHard}
	for _, q := range []*Question{a, b} {
		if err := db.CreateQuestion(q); err != nil {
			t.Fatalf("create question: %v", err)
		}
	}

	res, err := NewQuestionMerger(db, db, db, nil).MergeByIDs(a.ID, b.ID)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if res.Marks != 7 || res.Difficulty != DifficultyHard || res.Subject.ID != bio.ID || !res.Audit.Written() {
		t.Fatalf("unexpected merge result: %#v", res)
	}

	records, err := db.GetMergeRecords(b.ID)
	if err != nil {
		t.Fatalf("merge records: %v", err)
	}
	if len(records) != 1 || records[0].ID != res.Audit.Record.ID || records[0].SubjectID != bio.ID {
		t.Fatalf("unexpected merge records: %#v", records)
	}
}

func TestBankDB_MergeCreatesSubjectOnCollision(t *testing.T) {
	db := openTestDB(t)

	// "DATASTRUCT" is taken by a subject of another name, so name lookup misses
	if _, err := db.CreateSubject("Data Structures I", "DATASTRUCT"); err != nil {
		t.Fatalf("create subject: %v", err)
	}
	a := &Question{Text: "Define a stack.", Subject: "Data Structures & Algorithms!!", SubjectCode: "", Marks: 2, Difficulty: DifficultyEasy}
	b := &Question{Text: "Define a queue.", Subject: "Data Structures & Algorithms!!", Marks: 2, Difficulty: DifficultyEasy}
	for _, q := range []*Question{a, b} {
		if err := db.CreateQuestion(q); err != nil {
			t.Fatalf("create question: %v", err)
		}
	}

	res, err := NewQuestionMerger(db, db, db, &fixedRand{vals: []int{7}}).MergeAndStoreByIDs(a.ID, b.ID, db)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if res.Subject.Code != "DATASTRUCT7" || res.Subject.Name != "Data Structures & Algorithms!!" {
		t.Fatalf("unexpected subject: %#v", res.Subject)
	}

	stored, err := db.FindQuestionByID(res.Stored.ID)
	if err != nil || stored.SubjectCode != "DATASTRUCT7" || stored.Text != "Define a stack and define a queue.." {
		t.Fatalf("unexpected stored question: %#v, %v", stored, err)
	}
	if !res.Audit.Written() {
		t.Fatalf("audit not written after store: %#v", res.Audit)
	}
}

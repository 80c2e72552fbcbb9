package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"questionbank"
)

const usage = `usage: qbank <command> [flags]

commands:
  generate      generate exam questions from a paragraph (remote, falling back to offline)
  generate-one  ask the remote service for a single question
  merge         merge two stored questions into a new one
  add           add a question, or update marks of an identical one

run "qbank <command> -h" for the flags of a command`

// app holds what every command needs
type app struct {
	cfg    questionbank.Config
	logger *questionbank.Logger
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "generate":
		err = runGenerate(args)
	case "generate-one":
		err = runGenerateOne(args)
	case "merge":
		err = runMerge(args)
	case "add":
		err = runAdd(args)
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		if errors.Is(err, questionbank.ErrInvalidInput) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
		log.Fatalf("%s failed: %v", cmd, err)
	}
}

// commonFlags registers the flags shared by all commands
func commonFlags(fs *flag.FlagSet) (configPath, dbPath *string, verbose *bool) {
	configPath = fs.String("config", "", "YAML config file (optional)")
	dbPath = fs.String("db", "", "Database path (overrides config)")
	verbose = fs.Bool("verbose", false, "Enable verbose logging")
	return
}

func newApp(configPath, dbPath string, verbose bool) (*app, error) {
	cfg := questionbank.DefaultConfig()
	if configPath != "" {
		loaded, err := questionbank.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if dbPath != "" {
		cfg.Database = dbPath
	}

	if err := questionbank.SetVerbose(verbose); err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &app{cfg: cfg, logger: questionbank.GetLogger()}, nil
}

func (a *app) close() {
	a.logger.Sync()
}

func (a *app) openDB() (*questionbank.BankDB, error) {
	db, err := questionbank.OpenDB(a.cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.CreateTables(); err != nil {
		db.CloseDB()
		return nil, err
	}
	return db, nil
}

func (a *app) newGenerator(ctx context.Context) (*questionbank.QuestionGenerator, func() error, error) {
	completer, closeFn, err := questionbank.NewCompleter(ctx, a.cfg, a.cfg.APIKey(os.Getenv))
	if err != nil {
		return nil, nil, err
	}
	remote := questionbank.NewRemoteClient(completer)
	gen := questionbank.NewQuestionGenerator(remote, questionbank.NewOfflineGenerator(nil), a.cfg.MinCount, a.cfg.MaxCount)
	return gen, closeFn, nil
}

// withTranscript attaches a transcript file to ctx when a directory is set
func (a *app) withTranscript(ctx context.Context, dir string, req questionbank.GenerationRequest) (context.Context, func()) {
	if dir == "" {
		dir = a.cfg.TranscriptDir
	}
	if dir == "" {
		return ctx, func() {}
	}
	tl, err := questionbank.NewTranscriptLogger(dir, uuid.NewString(), req)
	if err != nil {
		a.logger.Warn("transcript disabled", "error", err)
		return ctx, func() {}
	}
	a.logger.Info("writing transcript", "path", tl.Path())
	return questionbank.ContextWithTranscript(ctx, tl), func() { tl.Close() }
}

func readParagraph(paragraph, file string) (string, error) {
	if file == "" {
		return paragraph, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read paragraph file: %w", err)
	}
	return string(data), nil
}

func runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath, dbPath, verbose := commonFlags(fs)
	var (
		paragraph  = fs.String("paragraph", "", "Paragraph to generate questions from")
		file       = fs.String("file", "", "Read the paragraph from a file")
		count      = fs.Int("count", 3, "Number of questions (clamped to the configured range)")
		marks      = fs.String("marks", "2", "Marks per question")
		qtype      = fs.String("type", "", "Question type for the remote prompt (default exam-style)")
		transcript = fs.String("transcript", "", "Directory for a transcript of remote calls")
		save       = fs.Bool("save", false, "Store the generated questions in the database")
		subject    = fs.String("subject", questionbank.DefaultSubjectName, "Subject for saved questions")
		difficulty = fs.String("difficulty", string(questionbank.DifficultyMedium), "Difficulty for saved questions")
	)
	fs.Parse(args)

	a, err := newApp(*configPath, *dbPath, *verbose)
	if err != nil {
		return err
	}
	defer a.close()

	text, err := readParagraph(*paragraph, *file)
	if err != nil {
		return err
	}
	m, err := questionbank.ParseMarks(*marks)
	if err != nil {
		return err
	}
	req := questionbank.GenerationRequest{
		Paragraph:    text,
		Count:        *count,
		Marks:        m,
		QuestionType: *qtype,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gen, closeFn, err := a.newGenerator(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, done := a.withTranscript(ctx, *transcript, req)
	defer done()

	result, err := gen.Generate(ctx, req)
	if err != nil {
		return err
	}

	if *save {
		db, err := a.openDB()
		if err != nil {
			return err
		}
		defer db.CloseDB()
		for _, text := range result.Questions {
			_, _, err := db.AddQuestion(questionbank.Question{
				Text:       text,
				Subject:    *subject,
				Marks:      m,
				Difficulty: questionbank.Difficulty(*difficulty),
			}, nil)
			if err != nil {
				return err
			}
		}
		a.logger.Info("questions saved", "count", len(result.Questions), "subject", *subject)
	}

	return printJSON(result)
}

func runGenerateOne(args []string) error {
	fs := flag.NewFlagSet("generate-one", flag.ExitOnError)
	configPath, dbPath, verbose := commonFlags(fs)
	var (
		paragraph  = fs.String("paragraph", "", "Paragraph to generate a question from")
		file       = fs.String("file", "", "Read the paragraph from a file")
		marks      = fs.String("marks", "", "Marks for the question (required)")
		transcript = fs.String("transcript", "", "Directory for a transcript of remote calls")
	)
	fs.Parse(args)

	a, err := newApp(*configPath, *dbPath, *verbose)
	if err != nil {
		return err
	}
	defer a.close()

	text, err := readParagraph(*paragraph, *file)
	if err != nil {
		return err
	}
	m, err := questionbank.ParseMarks(*marks)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gen, closeFn, err := a.newGenerator(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, done := a.withTranscript(ctx, *transcript, questionbank.GenerationRequest{Paragraph: text, Count: 1, Marks: m})
	defer done()

	question, ok, err := gen.GenerateSingle(ctx, text, m)
	if err != nil {
		return err
	}
	out := map[string]interface{}{"question": nil}
	if ok {
		out["question"] = question
	} else {
		out["error"] = "no output from remote service"
	}
	return printJSON(out)
}

func runMerge(args []string) error {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	configPath, dbPath, verbose := commonFlags(fs)
	var (
		id1 = fs.Int64("id1", 0, "First question ID (required)")
		id2 = fs.Int64("id2", 0, "Second question ID (required)")
	)
	fs.Parse(args)

	a, err := newApp(*configPath, *dbPath, *verbose)
	if err != nil {
		return err
	}
	defer a.close()

	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.CloseDB()

	merger := questionbank.NewQuestionMerger(db, db, db, nil)
	result, err := merger.MergeAndStoreByIDs(*id1, *id2, db)
	if err != nil {
		if result != nil && errors.Is(err, questionbank.ErrSubjectResolution) {
			a.logger.Error("subject resolution failed", "subject", result.SubjectName, "error", err)
			printJSON(result)
		}
		return err
	}

	combined, err := db.FindQuestionByID(result.Stored.ID)
	if err != nil {
		return err
	}

	return printJSON(map[string]interface{}{
		"success":       true,
		"combined":      combined,
		"audit_written": result.Audit.Written(),
	})
}

func runAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	configPath, dbPath, verbose := commonFlags(fs)
	var (
		text        = fs.String("text", "", "Question text (required)")
		subject     = fs.String("subject", "", "Subject name (required)")
		subjectCode = fs.String("subject-code", "", "Subject code (derived from the name when empty)")
		marks       = fs.String("marks", "", "Marks (required)")
		difficulty  = fs.String("difficulty", "", "Easy, Medium or Hard (required)")
		tags        = fs.String("tags", "", "Comma separated tags")
	)
	fs.Parse(args)

	a, err := newApp(*configPath, *dbPath, *verbose)
	if err != nil {
		return err
	}
	defer a.close()

	m, err := questionbank.ParseMarks(*marks)
	if err != nil {
		return err
	}
	q := questionbank.Question{
		Text:        *text,
		Subject:     *subject,
		SubjectCode: *subjectCode,
		Marks:       m,
		Difficulty:  questionbank.Difficulty(*difficulty),
	}
	if *tags != "" {
		for _, t := range strings.Split(*tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				q.Tags = append(q.Tags, t)
			}
		}
	}

	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.CloseDB()

	stored, created, err := db.AddQuestion(q, nil)
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"success":  true,
		"created":  created,
		"updated":  !created,
		"question": stored,
	})
}

func printJSON(v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(output))
	return nil
}

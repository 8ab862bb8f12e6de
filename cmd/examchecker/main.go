package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/kartavya4874/AI-Exam-Checker/internal/evaluate"
	"github.com/kartavya4874/AI-Exam-Checker/internal/handler"
	appI18n "github.com/kartavya4874/AI-Exam-Checker/internal/i18n"
	"github.com/kartavya4874/AI-Exam-Checker/internal/learner"
	"github.com/kartavya4874/AI-Exam-Checker/internal/llm"
	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
	"github.com/kartavya4874/AI-Exam-Checker/internal/paper"
	"github.com/kartavya4874/AI-Exam-Checker/internal/pipeline"
	"github.com/kartavya4874/AI-Exam-Checker/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "examchecker",
		Short: "AI-assisted grading for handwritten exam answer sheets",
	}

	serve := serveCmd()
	root.AddCommand(serve, gradeCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the faculty review API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "examchecker.db", "SQLite database path")
	f.StringP("lang", "l", "en", "Language for feedback strings (en, hi)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("admin-password", "", "Initial admin password (or set EXAMCHECKER_ADMIN_PASSWORD)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func gradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade OCR'd answer sheets against a question paper and answer key",
		RunE:  runGrade,
	}
	f := cmd.Flags()
	f.String("db", "examchecker.db", "SQLite database path")
	f.StringP("paper", "p", "", "Question paper OCR text file (required)")
	f.StringP("answer-key", "k", "", "Answer key OCR text file (required)")
	f.StringSliceP("sheets", "s", nil, "Answer sheet OCR text files (repeatable, required)")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.StringP("lang", "l", "en", "Language for feedback strings (en, hi)")
	f.IntP("workers", "w", 4, "Concurrent sheets graded at once")
	f.Float64("ocr-confidence", 0.9, "OCR confidence reported for the sheet text")
	f.Int("attempt-threshold", 5, "Minimum answer length to count as attempted")
	f.Float64("ocr-threshold", 0.70, "OCR confidence below this flags answers for review")
	f.String("exam-id", "", "Exam identifier stored with results (required)")
	f.String("subject", "", "Subject name stored with results")
	f.String("course", "", "Course code stored with results")
	f.String("date", "", "Exam date in YYYY-MM-DD format")
	f.StringP("output", "o", "", "Also write graded batch JSON to this path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("paper")
	_ = cmd.MarkFlagRequired("answer-key")
	_ = cmd.MarkFlagRequired("sheets")
	_ = cmd.MarkFlagRequired("exam-id")

	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export graded results as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "examchecker.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("EXAMCHECKER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("examchecker")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/examchecker")
	v.AddConfigPath("/etc/examchecker")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := db.PurgeExpiredSessions(); err != nil {
		slog.Warn("failed to purge expired sessions", "error", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	cfg := model.GradeConfig{
		SecureCookies: v.GetBool("secure-cookies"),
		Lang:          lang,
	}
	h := handler.New(db, learner.New(db), cfg)

	addr := v.GetString("addr")
	slog.Info("starting server", "addr", addr, "lang", lang)
	return http.ListenAndServe(addr, h.Router())
}

func runGrade(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := context.Background()

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	llmClient := llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
	)
	if err := llmClient.Ping(ctx); err != nil {
		return fmt.Errorf("LLM health check: %w", err)
	}
	slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))

	questions, err := loadPaper(db, v.GetString("paper"))
	if err != nil {
		return fmt.Errorf("load question paper: %w", err)
	}
	modelAnswers, err := loadAnswerKey(ctx, db, llmClient, v.GetString("answer-key"), questions)
	if err != nil {
		return fmt.Errorf("load answer key: %w", err)
	}

	inputs, paths, err := loadSheets(db, v.GetStringSlice("sheets"), v.GetFloat64("ocr-confidence"))
	if err != nil {
		return fmt.Errorf("load sheets: %w", err)
	}
	if len(inputs) == 0 {
		slog.Info("no new sheets to grade")
		return nil
	}

	attemptThreshold := v.GetInt("attempt-threshold")
	grader := pipeline.New(evaluate.NewRegistry(llmClient), learner.New(db), model.GradeConfig{
		AttemptThreshold: &attemptThreshold,
		OCRThreshold:     v.GetFloat64("ocr-threshold"),
		Workers:          v.GetInt("workers"),
		Lang:             v.GetString("lang"),
	})

	batch := grader.GradeBatch(ctx, inputs, questions, modelAnswers)

	for i := range batch.Sheets {
		res := &batch.Sheets[i]
		examID, err := db.InsertStudentExam(res.Exam)
		if err != nil {
			return fmt.Errorf("store sheet for %s: %w", res.Header.RollNumber, err)
		}
		res.Exam.ID = examID
		for _, ga := range res.Answers {
			ga.Answer.StudentExamID = examID
			if _, err := db.InsertAnswer(store.AnswerRow{
				Answer:     ga.Answer,
				Evaluation: ga.Evaluation,
				Confidence: ga.Confidence,
			}); err != nil {
				return fmt.Errorf("store answer %s for %s: %w", ga.Answer.QuestionNumber, res.Header.RollNumber, err)
			}
		}
	}
	for path, hash := range paths {
		if err := db.SetImportedFileHash(path, hash); err != nil {
			return fmt.Errorf("record import for %s: %w", path, err)
		}
	}

	if err := db.SetExamInfo(model.ExamInfo{
		ExamID:     v.GetString("exam-id"),
		Subject:    v.GetString("subject"),
		CourseCode: v.GetString("course"),
		Date:       v.GetString("date"),
	}); err != nil {
		return fmt.Errorf("store exam info: %w", err)
	}

	slog.Info("batch graded", "batch_id", batch.BatchID, "sheets", len(batch.Sheets))

	if out := v.GetString("output"); out != "" {
		if err := writeJSON(out, batch); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
	}
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.BuildExport()
	if err != nil {
		return fmt.Errorf("build export: %w", err)
	}
	return writeJSON(v.GetString("output"), export)
}

// loadPaper parses the question paper file on first run; afterwards the
// stored questions are reused so numbers stay stable across grading runs.
func loadPaper(db *store.Store, path string) ([]model.Question, error) {
	stored, err := db.ListQuestions()
	if err != nil {
		return nil, err
	}
	if len(stored) > 0 {
		return stored, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	questions := paper.ExtractQuestions(string(data))
	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions found in %s", path)
	}
	for i := range questions {
		id, err := db.InsertQuestion(questions[i])
		if err != nil {
			return nil, fmt.Errorf("insert question %s: %w", questions[i].Number, err)
		}
		questions[i].ID = id
	}
	slog.Info("imported question paper", "path", path, "questions", len(questions))
	return questions, nil
}

func loadAnswerKey(ctx context.Context, db *store.Store, gen evaluate.Generator, path string, questions []model.Question) ([]model.ModelAnswer, error) {
	stored, err := db.ListModelAnswers()
	if err != nil {
		return nil, err
	}
	if len(stored) > 0 {
		return stored, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	proc := paper.NewProcessor(gen)
	modelAnswers := proc.ProcessAnswerKey(ctx, string(data), questions)
	for i := range modelAnswers {
		id, err := db.InsertModelAnswer(modelAnswers[i])
		if err != nil {
			return nil, fmt.Errorf("insert model answer %s: %w", modelAnswers[i].QuestionNumber, err)
		}
		modelAnswers[i].ID = id
	}
	slog.Info("imported answer key", "path", path, "answers", len(modelAnswers))
	return modelAnswers, nil
}

// loadSheets reads the sheet files that have not been graded yet. The full
// OCR text serves as both header and body; header fields are regex-matched
// and answer mapping starts at the first question marker.
func loadSheets(db *store.Store, paths []string, ocrConfidence float64) ([]pipeline.SheetInput, map[string]string, error) {
	var inputs []pipeline.SheetInput
	newHashes := make(map[string]string)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		hash := sha256sum(data)
		storedHash, err := db.GetImportedFileHash(path)
		if err != nil {
			return nil, nil, fmt.Errorf("check import status for %s: %w", path, err)
		}
		if storedHash == hash {
			slog.Info("sheet unchanged, skipping", "path", path)
			continue
		}

		text := string(data)
		inputs = append(inputs, pipeline.SheetInput{
			HeaderText:    text,
			BodyText:      text,
			OCRConfidence: ocrConfidence,
		})
		newHashes[path] = hash
	}
	return inputs, newHashes, nil
}

func writeJSON(outPath string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or EXAMCHECKER_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"adaptive-quiz-service/internal/domain"
)

func TestSimulationIsDeterministic(t *testing.T) {
	opts := simulateOptions{UserName: "Sim", Level: 1, Literacy: "beginner", Questions: 8, Seed: 7, Accuracy: 0.7, MeanTimeMs: 2000}
	first, err := runSimulation(context.Background(), opts, discardLogger())
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	second, err := runSimulation(context.Background(), opts, discardLogger())
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}

	if first.Summary.TotalQuestions != 8 {
		t.Fatalf("expected 8 answered questions, got %d", first.Summary.TotalQuestions)
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if !bytes.Equal(a, b) {
		t.Fatalf("same seed produced different reports")
	}
	if first.Profile.ProfessionalSummary == "" {
		t.Fatalf("expected a professional summary")
	}
}

func TestSimulationAccuracyExtremes(t *testing.T) {
	perfect, err := runSimulation(context.Background(), simulateOptions{Questions: 6, Seed: 3, Accuracy: 1, MeanTimeMs: 2000}, discardLogger())
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	// Harder rungs lower the odds, so only require a clear majority.
	if perfect.Summary.CorrectAnswers < 3 {
		t.Fatalf("expected a strong learner, got %d/6", perfect.Summary.CorrectAnswers)
	}

	weak, err := runSimulation(context.Background(), simulateOptions{Questions: 6, Seed: 3, Accuracy: 0, MeanTimeMs: 2000}, discardLogger())
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if weak.Summary.CorrectAnswers > 2 || weak.Summary.CorrectAnswers >= perfect.Summary.CorrectAnswers {
		t.Fatalf("expected a weak learner, got %d/6", weak.Summary.CorrectAnswers)
	}
}

func TestSimulationReadsDatasetDir(t *testing.T) {
	dir := t.TempDir()
	body := `[{"id":"m1","question":"1+1?","options":["1","2"],"answerIndex":1,"category":"Math","level":1},
{"id":"m2","question":"2+2?","options":["4","5"],"answerIndex":0,"category":"Math","level":1}]`
	if err := os.WriteFile(filepath.Join(dir, "math.json"), []byte(body), 0o600); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	report, err := runSimulation(context.Background(), simulateOptions{DatasetDir: dir, Seed: 1, Accuracy: 0.5}, discardLogger())
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if report.Summary.TotalQuestions != 2 {
		t.Fatalf("expected the whole 2-question pool, got %d", report.Summary.TotalQuestions)
	}
	if _, ok := report.Summary.CategoryPerformance["Math"]; !ok {
		t.Fatalf("expected Math category, got %+v", report.Summary.CategoryPerformance)
	}
}

func TestSimulateCommandPrintsReport(t *testing.T) {
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml"), "simulate", "--questions", "3", "--seed", "11"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var report simulationReport
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	if report.Summary.TotalQuestions != 3 {
		t.Fatalf("expected 3 questions, got %d", report.Summary.TotalQuestions)
	}
}

func TestAnalyzeCommand(t *testing.T) {
	report, err := runSimulation(context.Background(), simulateOptions{Questions: 5, Seed: 5, Accuracy: 0.6, MeanTimeMs: 2500}, discardLogger())
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	data, _ := json.Marshal(report)
	path := filepath.Join(t.TempDir(), "report.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write report: %v", err)
	}

	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"analyze", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	var profile domain.CognitiveProfile
	if err := json.Unmarshal(out.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.ProfessionalSummary != report.Profile.ProfessionalSummary {
		t.Fatalf("profile differs after round trip:\n%s\n%s", profile.ProfessionalSummary, report.Profile.ProfessionalSummary)
	}
}

func TestAnalyzeBareSummaryFromStdin(t *testing.T) {
	report, err := runSimulation(context.Background(), simulateOptions{Questions: 4, Seed: 9, Accuracy: 0.8}, discardLogger())
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	summary := report.Summary
	summary.CognitiveProfile = nil
	data, _ := json.Marshal(summary)

	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetIn(bytes.NewReader(data))
	cmd.SetArgs([]string{"analyze", "--text", "-"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.TrimSpace(out.String()) != report.Profile.ProfessionalSummary {
		t.Fatalf("unexpected text output: %q", out.String())
	}
}

func TestAnalyzeRejectsGarbage(t *testing.T) {
	if _, err := readSummary(strings.NewReader("not json")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

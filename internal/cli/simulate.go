package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"adaptive-quiz-service/internal/app"
	"adaptive-quiz-service/internal/cognitive"
	"adaptive-quiz-service/internal/config"
	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/engine"
	"adaptive-quiz-service/internal/infra/memory"
	"adaptive-quiz-service/internal/questionpool"
)

type simulateOptions struct {
	UserName   string
	Level      int
	Literacy   string
	Category   string
	Questions  int
	Seed       int64
	Accuracy   float64
	MeanTimeMs int
	DatasetDir string
	Verbose    bool
}

type simulationReport struct {
	Summary domain.PerformanceSummary `json:"summary"`
	Profile domain.CognitiveProfile   `json:"profile"`
}

// NewSimulateCmd plays a deterministic offline session against a synthetic learner.
func NewSimulateCmd(configPath *string) *cobra.Command {
	opts := simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play a seeded offline session and print the summary and cognitive profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.DatasetDir == "" {
				cfg, err := config.Load(*configPath)
				if err != nil {
					return err
				}
				opts.DatasetDir = cfg.Quiz.DatasetDir
			}
			report, err := runSimulation(cmd.Context(), opts, newCLILogger(cmd))
			if err != nil {
				return err
			}
			return writeIndented(cmd.OutOrStdout(), report)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.UserName, "name", "Simulated Learner", "learner name")
	flags.IntVar(&opts.Level, "level", 1, "starting level (1-3)")
	flags.StringVar(&opts.Literacy, "literacy", "beginner", "beginner, intermediate or expert")
	flags.StringVar(&opts.Category, "category", "", "restrict to one category")
	flags.IntVar(&opts.Questions, "questions", 10, "question limit, 0 plays the whole pool")
	flags.Int64Var(&opts.Seed, "seed", 1, "random seed")
	flags.Float64Var(&opts.Accuracy, "accuracy", 0.7, "base probability of a correct answer")
	flags.IntVar(&opts.MeanTimeMs, "mean-time", 3000, "mean answer time in milliseconds")
	flags.StringVar(&opts.DatasetDir, "dataset", "", "directory of JSON/YAML question files")
	flags.BoolVar(&opts.Verbose, "verbose", false, "log adaptive events")
	return cmd
}

func runSimulation(ctx context.Context, opts simulateOptions, logger *slog.Logger) (simulationReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var loader memory.PoolLoader = memory.NewFallbackPoolLoader()
	if opts.DatasetDir != "" {
		loader = memory.NewDirPoolLoader(opts.DatasetDir, logger)
	}
	pool, err := memory.NewPoolRepository(loader, time.Minute).GetPool(ctx, app.DefaultPoolID)
	if err != nil {
		return simulationReport{}, err
	}
	if len(pool) == 0 {
		return simulationReport{}, domain.ErrPoolEmpty
	}
	answers := make(map[string]domain.Question, len(pool))
	for _, q := range pool {
		answers[q.ID] = q
	}

	rnd := rand.New(rand.NewSource(opts.Seed))
	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	engineOpts := []engine.Option{
		engine.WithClock(now),
		engine.WithRand(rand.New(rand.NewSource(opts.Seed + 1))),
	}
	if opts.Verbose {
		engineOpts = append(engineOpts, engine.WithEventHook(func(ev engine.Event) {
			logger.Info("adaptive event", append([]any{"event", ev.Type}, ev.Attrs()...)...)
		}))
	}

	cfg := domain.NewSessionConfig(
		opts.UserName,
		opts.Level,
		domain.ParseLiteracy(opts.Literacy),
		questionpool.MatchCategory(pool, opts.Category),
		opts.Questions,
	)
	eng := engine.New(pool, cfg, engineOpts...)

	for !eng.IsComplete() {
		view, ok := eng.CurrentQuestion()
		if !ok {
			break
		}
		q := answers[view.ID]
		clock = clock.Add(answerTime(rnd, opts.MeanTimeMs, q.Difficulty))

		selected := q.CorrectIndex
		if rnd.Float64() >= correctProbability(opts.Accuracy, q.Level, q.Difficulty) && len(q.Options) > 1 {
			selected = (q.CorrectIndex + 1 + rnd.Intn(len(q.Options)-1)) % len(q.Options)
		}
		eng.SubmitAnswer(selected)
	}

	summary := eng.PerformanceSummary()
	profile := cognitive.Analyze(summary)
	summary.CognitiveProfile = &profile
	return simulationReport{Summary: summary, Profile: profile}, nil
}

// correctProbability lowers the base accuracy by 10 points per level and 5 per difficulty step.
func correctProbability(base float64, level, difficulty int) float64 {
	p := base - 0.1*float64(level-domain.MinLevel) - 0.05*float64(difficulty-domain.MinDifficulty)
	return max(0.05, min(0.95, p))
}

// answerTime draws uniformly from [0.5, 1.5) of the mean, stretched 20% per difficulty step.
func answerTime(rnd *rand.Rand, meanMs, difficulty int) time.Duration {
	if meanMs <= 0 {
		meanMs = 3000
	}
	scale := (0.5 + rnd.Float64()) * (1 + 0.2*float64(difficulty-domain.MinDifficulty))
	return time.Duration(float64(meanMs)*scale) * time.Millisecond
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func newCLILogger(cmd *cobra.Command) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
}

// Package performance folds a finished session into its end-of-session report.
package performance

import (
	"math"

	"adaptive-quiz-service/internal/domain"
)

// Summarize builds the report for a session. It never fails; an empty session yields zeros.
func Summarize(cfg domain.SessionConfig, snap domain.SessionSnapshot) domain.PerformanceSummary {
	st := snap.State
	total := st.TotalAnswered

	accuracy := 0
	var averageMs int64
	if total > 0 {
		accuracy = roundHalfUp(float64(st.CorrectCount) / float64(total) * 100)
		averageMs = int64(roundHalfUp(float64(st.TotalTimeMs) / float64(total)))
	}

	seconds := int64(roundHalfUp(float64(st.TotalTimeMs) / 1000))
	var perMinute float64
	if seconds > 0 {
		perMinute = float64(roundHalfUp(float64(total)/(float64(seconds)/60)*10)) / 10
	}

	initialLevel := cfg.InitialLevel
	if initialLevel == 0 {
		initialLevel = domain.MinLevel
	}
	initialDifficulty := cfg.InitialDifficulty
	if initialDifficulty == 0 {
		initialDifficulty = domain.MinDifficulty
	}

	history := append([]domain.HistoryEntry{}, snap.History...)
	answered := append([]string{}, snap.AnsweredIDs...)

	return domain.PerformanceSummary{
		UserName:            cfg.UserName,
		TotalQuestions:      total,
		CorrectAnswers:      st.CorrectCount,
		WrongAnswers:        st.WrongCount,
		Percentage:          accuracy,
		Accuracy:            accuracy,
		TimeTaken:           seconds,
		TotalTimeMs:         st.TotalTimeMs,
		AverageTimeMs:       averageMs,
		QuestionsPerMinute:  perMinute,
		BestStreak:          BestStreak(history),
		TotalScore:          st.Score,
		CurrentLevel:        st.CurrentLevel,
		CurrentDifficulty:   st.CurrentDifficulty,
		InitialLevel:        initialLevel,
		FinalLevel:          st.CurrentLevel,
		InitialDifficulty:   initialDifficulty,
		FinalDifficulty:     st.CurrentDifficulty,
		NetLevelChange:      st.CurrentLevel - initialLevel,
		NetDifficultyChange: st.CurrentDifficulty - initialDifficulty,
		DropCount:           st.DropCount,
		PromotionCount:      st.PromotionCount,
		Streak:              st.Streak,
		HasDroppedLevel:     st.HasDroppedLevel,
		PerformanceHistory:  history,
		CategoryPerformance: CategoryBreakdown(history),
		SessionConfig:       cfg,
		AnsweredQuestionIDs: answered,
	}
}

// BestStreak is the longest run of consecutive correct answers in history order.
func BestStreak(history []domain.HistoryEntry) int {
	best, run := 0, 0
	for _, h := range history {
		if !h.IsCorrect {
			run = 0
			continue
		}
		run++
		best = max(best, run)
	}
	return best
}

// CategoryBreakdown tallies answers per category.
func CategoryBreakdown(history []domain.HistoryEntry) map[string]domain.CategoryTally {
	out := make(map[string]domain.CategoryTally)
	for _, h := range history {
		t := out[h.Category]
		t.Total++
		if h.IsCorrect {
			t.Correct++
		}
		out[h.Category] = t
	}
	return out
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

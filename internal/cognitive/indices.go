package cognitive

import (
	"math"

	"adaptive-quiz-service/internal/domain"
)

const recentWindow = 5

// KnowledgeMastery blends overall and recent accuracy per category: 0.6 × overall plus
// 0.4 × accuracy over the last five attempts in that category.
func KnowledgeMastery(history []domain.HistoryEntry, categories map[string]domain.CategoryTally) map[string]float64 {
	mastery := make(map[string]float64)
	if len(history) == 0 {
		return mastery
	}
	for category, tally := range categories {
		if tally.Total <= 0 {
			continue
		}
		accuracy := float64(tally.Correct) / float64(tally.Total)

		var attempts []domain.HistoryEntry
		for _, h := range history {
			if h.Category == category {
				attempts = append(attempts, h)
			}
		}
		if len(attempts) == 0 {
			mastery[category] = clamp01(accuracy)
			continue
		}

		recent := attempts[max(0, len(attempts)-recentWindow):]
		recentAccuracy := float64(countCorrect(recent)) / float64(min(recentWindow, len(attempts)))
		mastery[category] = clamp01(accuracy*0.6 + recentAccuracy*0.4)
	}
	return mastery
}

// Adaptability is the share of difficulty changes that went the right way: up after a
// correct answer, down after a wrong one.
func Adaptability(history []domain.HistoryEntry) float64 {
	if len(history) < 2 {
		return 0
	}
	adapted, changes := 0, 0
	for i := 1; i < len(history); i++ {
		prev, curr := history[i-1], history[i]
		if prev.Difficulty == curr.Difficulty {
			continue
		}
		changes++
		if curr.IsCorrect && curr.Difficulty > prev.Difficulty {
			adapted++
		} else if !curr.IsCorrect && curr.Difficulty < prev.Difficulty {
			adapted++
		}
	}
	if changes == 0 {
		return 0
	}
	return float64(adapted) / float64(changes)
}

// Recovery is promotions per drop.
func Recovery(dropCount, promotionCount int) float64 {
	if dropCount == 0 {
		if promotionCount > 0 {
			return 1
		}
		return 0
	}
	return clamp01(float64(promotionCount) / float64(dropCount))
}

// Consistency compares the variance of the correct/incorrect sequence with the largest
// variance possible at the same mean.
func Consistency(history []domain.HistoryEntry) float64 {
	if len(history) < 3 {
		return 0
	}
	n := float64(len(history))
	mean := float64(countCorrect(history)) / n
	if mean == 0 || mean == 1 {
		return 0
	}
	var variance float64
	for _, h := range history {
		d := outcome(h) - mean
		variance += d * d
	}
	variance /= n
	maxVariance := mean * (1 - mean)
	if maxVariance <= 0 {
		return 0
	}
	return 1 - variance/maxVariance
}

// ErrorPersistence is the share of wrong answers that directly followed another wrong
// answer. The first answer has no predecessor and is not counted.
func ErrorPersistence(history []domain.HistoryEntry) float64 {
	if len(history) < 2 {
		return 0
	}
	repeated, errs := 0, 0
	for i := 1; i < len(history); i++ {
		if history[i].IsCorrect {
			continue
		}
		errs++
		if !history[i-1].IsCorrect {
			repeated++
		}
	}
	if errs == 0 {
		return 0
	}
	return float64(repeated) / float64(errs)
}

// ProcessingSpeed places the mean response time inside the session's own min/max range,
// faster being closer to 1. Non-positive times are ignored.
func ProcessingSpeed(history []domain.HistoryEntry) float64 {
	var times []int64
	for _, h := range history {
		if h.TimeTakenMs > 0 {
			times = append(times, h.TimeTakenMs)
		}
	}
	if len(times) == 0 {
		return 0
	}
	lo, hi := times[0], times[0]
	var sum int64
	for _, t := range times {
		sum += t
		lo = min(lo, t)
		hi = max(hi, t)
	}
	if lo == hi {
		return 1
	}
	avg := float64(sum) / float64(len(times))
	return clamp01(1 - (avg-float64(lo))/float64(hi-lo))
}

// Impulsivity is the share of fast answers, under half the mean time, that were wrong.
func Impulsivity(history []domain.HistoryEntry) float64 {
	if len(history) == 0 {
		return 0
	}
	threshold := meanTime(history) * 0.5
	fast, fastWrong := 0, 0
	for _, h := range history {
		if float64(h.TimeTakenMs) < threshold {
			fast++
			if !h.IsCorrect {
				fastWrong++
			}
		}
	}
	if fast == 0 {
		return 0
	}
	return float64(fastWrong) / float64(fast)
}

// AnalyticalThinking is the share of slow answers, over 1.5× the mean time, that were correct.
func AnalyticalThinking(history []domain.HistoryEntry) float64 {
	if len(history) == 0 {
		return 0
	}
	threshold := meanTime(history) * 1.5
	slow, slowCorrect := 0, 0
	for _, h := range history {
		if float64(h.TimeTakenMs) > threshold {
			slow++
			if h.IsCorrect {
				slowCorrect++
			}
		}
	}
	if slow == 0 {
		return 0
	}
	return float64(slowCorrect) / float64(slow)
}

// Endurance penalises an accuracy drop from the first half of the session to the second.
func Endurance(history []domain.HistoryEntry) float64 {
	if len(history) < 5 {
		return 0
	}
	mid := len(history) / 2
	first, second := history[:mid], history[mid:]
	firstAccuracy := float64(countCorrect(first)) / float64(len(first))
	secondAccuracy := float64(countCorrect(second)) / float64(len(second))
	return clamp01(1 - (firstAccuracy-secondAccuracy)*2)
}

// SelfRegulation is the rate of recovering after a level drop, at least two correct in
// the next three answers, plus a flat bonus when any promotion happened.
func SelfRegulation(history []domain.HistoryEntry, promotionCount int) float64 {
	if len(history) < 3 {
		return 0
	}
	drops, recovered := 0, 0
	for i := 1; i < len(history); i++ {
		if !history[i].HasDroppedLevel || history[i-1].HasDroppedLevel {
			continue
		}
		drops++
		end := min(i+4, len(history))
		start := min(i+1, end)
		if countCorrect(history[start:end]) >= 2 {
			recovered++
		}
	}
	var rate float64
	if drops > 0 {
		rate = float64(recovered) / float64(drops)
	}
	bonus := 0.0
	if promotionCount > 0 {
		bonus = 0.2
	}
	return clamp01(rate + bonus)
}

func countCorrect(history []domain.HistoryEntry) int {
	n := 0
	for _, h := range history {
		if h.IsCorrect {
			n++
		}
	}
	return n
}

func outcome(h domain.HistoryEntry) float64 {
	if h.IsCorrect {
		return 1
	}
	return 0
}

func meanTime(history []domain.HistoryEntry) float64 {
	var sum int64
	for _, h := range history {
		sum += h.TimeTakenMs
	}
	return float64(sum) / float64(len(history))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

package engine

import (
	"math"
	"time"

	"adaptive-quiz-service/internal/domain"
)

const (
	// StreakBand is the streak length that earns a difficulty increase and, after a drop,
	// a level promotion. Every further multiple of it earns another increase.
	StreakBand = 7

	// lowRatio is the correct:wrong ratio at or below which difficulty is forced down.
	lowRatio = 1.0 / 9
)

// State is the mutable session state. Only the Engine that created it writes to it.
type State struct {
	CurrentLevel      int
	CurrentDifficulty int
	CorrectCount      int
	WrongCount        int
	TotalAnswered     int
	Streak            int
	Score             int
	HasDroppedLevel   bool
	DropCount         int
	PromotionCount    int
	TotalTimeMs       int64

	// LastDifficultyIncreaseAtStreak is the streak value of the last streak-triggered bump.
	LastDifficultyIncreaseAtStreak int

	History []domain.HistoryEntry

	answered      map[string]struct{}
	answeredOrder []string

	current          *domain.Question
	currentStartedAt time.Time
}

func newState(cfg domain.SessionConfig) *State {
	return &State{
		CurrentLevel:      cfg.InitialLevel,
		CurrentDifficulty: cfg.InitialDifficulty,
		answered:          make(map[string]struct{}),
	}
}

// Ratio is correct:wrong over the whole session, +Inf while nothing is wrong.
func (s *State) Ratio() float64 {
	if s.WrongCount == 0 {
		return math.Inf(1)
	}
	return float64(s.CorrectCount) / float64(s.WrongCount)
}

func (s *State) hasAnswered(id string) bool {
	_, ok := s.answered[id]
	return ok
}

func (s *State) markAnswered(id string) {
	if s.hasAnswered(id) {
		return
	}
	s.answered[id] = struct{}{}
	s.answeredOrder = append(s.answeredOrder, id)
}

// recordAnswer updates counters and history for q. It returns whether the answer was
// correct and the points it earned.
func (s *State) recordAnswer(q domain.Question, selected int, elapsedMs int64) (bool, int) {
	correct := selected == q.CorrectIndex
	points := 0

	s.TotalAnswered++
	if correct {
		s.CorrectCount++
		s.Streak++
		points = s.CurrentDifficulty * domain.PointsPerDifficulty
		s.Score += points
	} else {
		s.WrongCount++
		s.Streak = 0
	}
	s.TotalTimeMs += elapsedMs

	s.History = append(s.History, domain.HistoryEntry{
		QuestionID:      q.ID,
		Question:        q.Text,
		Category:        q.Category,
		Level:           s.CurrentLevel,
		Difficulty:      s.CurrentDifficulty,
		SelectedIndex:   selected,
		CorrectIndex:    q.CorrectIndex,
		IsCorrect:       correct,
		TimeTakenMs:     elapsedMs,
		HasDroppedLevel: s.HasDroppedLevel,
	})
	s.markAnswered(q.ID)
	return correct, points
}

// applyAdaptiveRules moves the session along the level/difficulty ladder after an answer
// has been recorded. The steps run in a fixed order and the first-question and low-ratio
// penalties are combined with min, so both firing still moves difficulty by one.
func (s *State) applyAdaptiveRules(correct bool) []Event {
	var events []Event
	before := s.CurrentDifficulty
	delta := 0

	firstQuestionPenalty := !correct && s.TotalAnswered == 1
	if firstQuestionPenalty {
		delta = -1
	}

	ratio := s.Ratio()
	lowRatioPenalty := ratio <= lowRatio
	if lowRatioPenalty {
		delta = min(delta, -1)
	}

	if correct && s.Streak >= StreakBand && s.CurrentDifficulty < domain.MaxDifficulty {
		band := s.Streak / StreakBand
		lastBand := s.LastDifficultyIncreaseAtStreak / StreakBand
		if band > lastBand {
			delta = max(delta, 1)
			s.LastDifficultyIncreaseAtStreak = s.Streak
			events = append(events, newEvent(EventDifficultyIncreaseStreak, map[string]any{
				"streak":         s.Streak,
				"fromDifficulty": s.CurrentDifficulty,
				"toDifficulty":   s.CurrentDifficulty + 1,
				"reason":         "high_streak_performance",
				"streakCycle":    band,
			}))
		}
	}

	delta = domain.ClampInt(delta, -1, 1)
	next := s.CurrentDifficulty + delta

	if next < domain.MinDifficulty {
		previousLevel := s.CurrentLevel
		s.CurrentLevel = domain.ClampInt(s.CurrentLevel-1, domain.MinLevel, domain.MaxLevel)
		s.DropCount++
		s.HasDroppedLevel = true
		next = domain.MinDifficulty
		events = append(events, newEvent(EventLevelDrop, map[string]any{
			"fromLevel": previousLevel,
			"toLevel":   s.CurrentLevel,
			"reason":    "difficulty_below_min",
			"streak":    s.Streak,
			"dropCount": s.DropCount,
		}))
	}

	s.CurrentDifficulty = domain.ClampInt(next, domain.MinDifficulty, domain.MaxDifficulty)
	if s.CurrentDifficulty != before && !(correct && s.Streak >= StreakBand && delta == 1) {
		reason := ReasonManualDelta
		switch {
		case firstQuestionPenalty:
			reason = ReasonFirstQuestionIncorrect
		case lowRatioPenalty:
			reason = ReasonLowRatio
		}
		events = append(events, newEvent(EventDifficultyChange, map[string]any{
			"from":   before,
			"to":     s.CurrentDifficulty,
			"reason": reason,
			"ratio":  ratioField(ratio),
		}))
	}

	if s.HasDroppedLevel && s.Streak >= StreakBand {
		previousLevel := s.CurrentLevel
		s.CurrentLevel = domain.ClampInt(s.CurrentLevel+1, domain.MinLevel, domain.MaxLevel)
		if s.CurrentLevel > previousLevel {
			s.HasDroppedLevel = false
			s.PromotionCount++
			events = append(events, newEvent(EventLevelPromotion, map[string]any{
				"fromLevel":      previousLevel,
				"toLevel":        s.CurrentLevel,
				"reason":         "recovery_streak",
				"promotionCount": s.PromotionCount,
				"streak":         s.Streak,
			}))
		}
	}

	return events
}

func (s *State) snapshot() domain.StateSnapshot {
	return domain.StateSnapshot{
		CurrentLevel:      s.CurrentLevel,
		CurrentDifficulty: s.CurrentDifficulty,
		CorrectCount:      s.CorrectCount,
		WrongCount:        s.WrongCount,
		TotalAnswered:     s.TotalAnswered,
		Streak:            s.Streak,
		HasDroppedLevel:   s.HasDroppedLevel,
		DropCount:         s.DropCount,
		PromotionCount:    s.PromotionCount,
		Score:             s.Score,
		TotalTimeMs:       s.TotalTimeMs,
	}
}

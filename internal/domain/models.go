package domain

import "strings"

// Ladder bounds shared by the normalizer and the engine.
const (
	MinLevel      = 1
	MaxLevel      = 3
	MinDifficulty = 1
	MaxDifficulty = 3

	// PointsPerDifficulty is awarded per difficulty step for a correct answer.
	PointsPerDifficulty = 10
)

// LiteracyLevel is the self-reported familiarity that seeds the starting difficulty.
type LiteracyLevel string

const (
	LiteracyBeginner     LiteracyLevel = "Beginner"
	LiteracyIntermediate LiteracyLevel = "Intermediate"
	LiteracyExpert       LiteracyLevel = "Expert"
)

// ParseLiteracy accepts any casing and falls back to Beginner.
func ParseLiteracy(raw string) LiteracyLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "intermediate":
		return LiteracyIntermediate
	case "expert":
		return LiteracyExpert
	default:
		return LiteracyBeginner
	}
}

// Difficulty maps the literacy level onto the difficulty ladder.
func (l LiteracyLevel) Difficulty() int {
	switch l {
	case LiteracyIntermediate:
		return 2
	case LiteracyExpert:
		return 3
	default:
		return MinDifficulty
	}
}

// Question is a normalized multiple-choice question. It is never mutated after normalization.
type Question struct {
	ID           string   `json:"id" yaml:"id"`
	Text         string   `json:"question" yaml:"question"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex int      `json:"correctIndex" yaml:"correctIndex"`
	Category     string   `json:"category" yaml:"category"`
	Level        int      `json:"level" yaml:"level"`
	Difficulty   int      `json:"difficulty" yaml:"difficulty"`
	Explanation  string   `json:"explanation" yaml:"explanation"`
	Tags         []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// View strips the correct answer so the question can be sent to a client.
func (q Question) View() QuestionView {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return QuestionView{
		ID:          q.ID,
		Text:        q.Text,
		Options:     options,
		Category:    q.Category,
		Level:       q.Level,
		Difficulty:  q.Difficulty,
		Explanation: q.Explanation,
	}
}

// QuestionView is a question as served to the rendering layer.
type QuestionView struct {
	ID          string   `json:"id"`
	Text        string   `json:"question"`
	Options     []string `json:"options"`
	Category    string   `json:"category"`
	Level       int      `json:"level"`
	Difficulty  int      `json:"difficulty"`
	Explanation string   `json:"explanation"`
}

// SessionConfig is fixed when a session starts.
type SessionConfig struct {
	UserName          string        `json:"userName"`
	InitialLevel      int           `json:"initialLevel"`
	LiteracyLevel     LiteracyLevel `json:"literacyLevel"`
	InitialDifficulty int           `json:"initialDifficulty"`
	// Category filters the pool; empty means all categories.
	Category string `json:"category"`
	// QuestionLimit caps the session length; 0 means the whole filtered pool.
	QuestionLimit int `json:"questionLimit"`
}

// NewSessionConfig clamps the starting level and derives the starting difficulty.
func NewSessionConfig(userName string, level int, literacy LiteracyLevel, category string, questionLimit int) SessionConfig {
	if userName == "" {
		userName = "User"
	}
	if level == 0 {
		level = MinLevel
	}
	if literacy == "" {
		literacy = LiteracyBeginner
	}
	if questionLimit < 0 {
		questionLimit = 0
	}
	return SessionConfig{
		UserName:          userName,
		InitialLevel:      ClampInt(level, MinLevel, MaxLevel),
		LiteracyLevel:     literacy,
		InitialDifficulty: literacy.Difficulty(),
		Category:          category,
		QuestionLimit:     questionLimit,
	}
}

// HistoryEntry records one submitted answer. Level and Difficulty are the values in
// effect when the question was answered, before adaptation.
type HistoryEntry struct {
	QuestionID      string `json:"id"`
	Question        string `json:"question"`
	Category        string `json:"category"`
	Level           int    `json:"level"`
	Difficulty      int    `json:"difficulty"`
	SelectedIndex   int    `json:"selectedIndex"`
	CorrectIndex    int    `json:"correctIndex"`
	IsCorrect       bool   `json:"isCorrect"`
	TimeTakenMs     int64  `json:"timeTakenMs"`
	HasDroppedLevel bool   `json:"hasDroppedLevel"`
}

// AnswerResult is returned for every accepted submission.
type AnswerResult struct {
	IsCorrect     bool   `json:"isCorrect"`
	CorrectAnswer int    `json:"correctAnswer"`
	Feedback      string `json:"feedback"`
	PointsEarned  int    `json:"pointsEarned"`
	Streak        int    `json:"streak"`
	Level         int    `json:"level"`
	Difficulty    int    `json:"difficulty"`
	TimeTakenMs   int64  `json:"timeTakenMs"`
	Score         int    `json:"score"`
}

// Progress counts the question currently in flight as part of Current.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// StateSnapshot is a read-only projection of the live counters.
type StateSnapshot struct {
	CurrentLevel      int   `json:"currentLevel"`
	CurrentDifficulty int   `json:"currentDifficulty"`
	CorrectCount      int   `json:"correctCount"`
	WrongCount        int   `json:"wrongCount"`
	TotalAnswered     int   `json:"totalAnswered"`
	Streak            int   `json:"streak"`
	HasDroppedLevel   bool  `json:"hasDroppedLevel"`
	DropCount         int   `json:"dropCount"`
	PromotionCount    int   `json:"promotionCount"`
	Score             int   `json:"score"`
	TotalTimeMs       int64 `json:"totalTimeMs"`
}

// SessionSnapshot is a deep copy of everything the aggregator needs.
type SessionSnapshot struct {
	State       StateSnapshot  `json:"state"`
	History     []HistoryEntry `json:"performanceHistory"`
	AnsweredIDs []string       `json:"answeredQuestionIds"`
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

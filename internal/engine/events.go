package engine

import (
	"math"
	"time"
)

// Event types emitted through the hook.
const (
	EventSessionInit              = "session_init"
	EventCategoryFallback         = "category_fallback"
	EventAnswerProcessed          = "answer_processed"
	EventDifficultyIncreaseStreak = "difficulty_increase_streak"
	EventDifficultyChange         = "difficulty_change"
	EventLevelDrop                = "level_drop"
	EventLevelPromotion           = "level_promotion"
	EventLevelUpgrade             = "level_upgrade"
)

// Difficulty change reasons.
const (
	ReasonFirstQuestionIncorrect = "first_question_incorrect"
	ReasonLowRatio               = "low_correct_wrong_ratio"
	ReasonManualDelta            = "manual_delta"
)

// Event is a diagnostic record of something the engine decided. Fields only hold
// JSON-encodable values.
type Event struct {
	Type   string         `json:"type"`
	At     time.Time      `json:"at"`
	Fields map[string]any `json:"fields"`
}

// Attrs flattens the fields into key/value pairs for structured loggers.
func (e Event) Attrs() []any {
	out := make([]any, 0, len(e.Fields)*2)
	for k, v := range e.Fields {
		out = append(out, k, v)
	}
	return out
}

func newEvent(typ string, fields map[string]any) Event {
	return Event{Type: typ, Fields: fields}
}

// ratioField keeps +Inf out of JSON payloads.
func ratioField(r float64) any {
	if math.IsInf(r, 1) {
		return "Infinity"
	}
	return r
}

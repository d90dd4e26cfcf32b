// Package questionpool turns heterogeneous question records into the canonical
// domain.Question shape the engine works with.
package questionpool

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"adaptive-quiz-service/internal/domain"
)

// Raw is an undecoded question record as found in datasets (JSON or YAML).
type Raw map[string]any

// CorrectIndexFields lists, in order of preference, the field names historical datasets
// have used for the index of the correct option.
var CorrectIndexFields = []string{"correctIndex", "correctAnswer", "answerIndex", "answer"}

// TextFields lists the field names accepted for the question prompt, in order of preference.
var TextFields = []string{"question", "text"}

var difficultyNames = map[string]int{
	"easy":   1,
	"medium": 2,
	"hard":   3,
}

type keyed struct {
	question domain.Question
	numID    float64
	numeric  bool
}

// Normalize converts raw records into questions sorted by id. Numeric ids sort numerically,
// anything else sorts as a string. Malformed fields fall back to defaults; it never fails.
func Normalize(records []Raw) []domain.Question {
	items := make([]keyed, 0, len(records))
	for _, raw := range records {
		if raw == nil {
			raw = Raw{}
		}
		numID, numeric := number(raw["id"])
		items = append(items, keyed{
			question: NormalizeOne(raw),
			numID:    numID,
			numeric:  numeric,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.numeric && b.numeric {
			return a.numID < b.numID
		}
		return a.question.ID < b.question.ID
	})

	out := make([]domain.Question, len(items))
	for i, it := range items {
		out[i] = it.question
	}
	return out
}

// NormalizeOne converts a single record.
func NormalizeOne(raw Raw) domain.Question {
	level := domain.MinLevel
	rawLevel, hasLevel := number(raw["level"])
	if hasLevel {
		level = domain.ClampInt(roundHalfUp(rawLevel), domain.MinLevel, domain.MaxLevel)
	}

	return domain.Question{
		ID:           idString(raw["id"]),
		Text:         firstString(raw, TextFields),
		Options:      stringSlice(raw["options"]),
		CorrectIndex: correctIndex(raw),
		Category:     stringOr(raw["category"], "General"),
		Level:        level,
		Difficulty:   domain.ClampInt(difficulty(raw["difficulty"], rawLevel, hasLevel), domain.MinDifficulty, domain.MaxDifficulty),
		Explanation:  stringOr(raw["explanation"], ""),
		Tags:         stringSlice(raw["tags"]),
	}
}

// Categories returns the distinct categories in pool order.
func Categories(questions []domain.Question) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, q := range questions {
		if _, ok := seen[q.Category]; ok {
			continue
		}
		seen[q.Category] = struct{}{}
		out = append(out, q.Category)
	}
	return out
}

// MatchCategory finds the pool spelling of a category, ignoring case. Unknown names are
// returned unchanged.
func MatchCategory(questions []domain.Question, category string) string {
	want := strings.TrimSpace(category)
	for _, c := range Categories(questions) {
		if strings.EqualFold(c, want) {
			return c
		}
	}
	return want
}

func difficulty(v any, rawLevel float64, hasLevel bool) int {
	if s, ok := v.(string); ok {
		if d, ok := difficultyNames[strings.ToLower(s)]; ok {
			return d
		}
	}
	if n, ok := number(v); ok {
		return roundHalfUp(n)
	}
	if hasLevel {
		return roundHalfUp(rawLevel)
	}
	return domain.MinDifficulty
}

func correctIndex(raw Raw) int {
	for _, field := range CorrectIndexFields {
		v, ok := raw[field]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case bool:
			if t {
				return 1
			}
			return 0
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return 0
			}
			return roundHalfUp(f)
		}
		if n, ok := number(v); ok {
			return roundHalfUp(n)
		}
		return 0
	}
	return 0
}

// number reports whether v is a finite numeric value.
func number(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case float32:
		f = float64(t)
	case float64:
		f = t
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// RecordID returns the id a record normalizes to.
func RecordID(raw Raw) string {
	return idString(raw["id"])
}

func idString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if n, ok := number(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func firstString(raw Raw, fields []string) string {
	for _, field := range fields {
		if s, ok := raw[field].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func stringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return []string{}
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}

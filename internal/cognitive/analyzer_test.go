package cognitive

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/performance"
)

func h(category string, correct bool, difficulty int, ms int64) domain.HistoryEntry {
	return domain.HistoryEntry{Category: category, IsCorrect: correct, Difficulty: difficulty, Level: 1, TimeTakenMs: ms}
}

func summaryOf(history []domain.HistoryEntry, drops, promotions, finalLevel int) domain.PerformanceSummary {
	return domain.PerformanceSummary{
		PerformanceHistory:  history,
		CategoryPerformance: performance.CategoryBreakdown(history),
		DropCount:           drops,
		PromotionCount:      promotions,
		FinalLevel:          finalLevel,
		CurrentLevel:        finalLevel,
	}
}

func TestAnalyze_EmptyHistory(t *testing.T) {
	p := Analyze(domain.PerformanceSummary{DropCount: 3, PromotionCount: 2})

	assert.Empty(t, p.CDA.KnowledgeMastery)
	assert.NotNil(t, p.CDA.KnowledgeMastery)
	assert.Zero(t, p.CDA.Adaptability)
	assert.Zero(t, p.CDA.Consistency)
	assert.Zero(t, p.CDA.Recovery)
	assert.Zero(t, p.CDA.ErrorPersistence)
	assert.Equal(t, domain.ExecutiveIndices{}, p.ExecutiveFunction)
	assert.Equal(t, InsufficientData, p.ProfessionalSummary)
}

func TestKnowledgeMastery_SingleCorrectAttempt(t *testing.T) {
	history := []domain.HistoryEntry{h("Logic", true, 1, 1000)}
	m := KnowledgeMastery(history, performance.CategoryBreakdown(history))
	assert.Equal(t, 1.0, m["Logic"])
}

func TestKnowledgeMastery_RecentWindow(t *testing.T) {
	// Seven attempts: first two wrong, last five right.
	var history []domain.HistoryEntry
	for i := 0; i < 7; i++ {
		history = append(history, h("Math", i >= 2, 1, 1000))
	}
	m := KnowledgeMastery(history, performance.CategoryBreakdown(history))
	assert.InDelta(t, 5.0/7*0.6+1*0.4, m["Math"], 1e-9)
}

func TestKnowledgeMastery_TallyWithoutHistoryUsesAccuracy(t *testing.T) {
	history := []domain.HistoryEntry{h("Math", true, 1, 100)}
	tallies := map[string]domain.CategoryTally{
		"Math":    {Correct: 1, Total: 1},
		"History": {Correct: 1, Total: 4},
		"Empty":   {Correct: 0, Total: 0},
	}
	m := KnowledgeMastery(history, tallies)
	assert.Equal(t, 0.25, m["History"])
	assert.NotContains(t, m, "Empty")
}

func TestAdaptability(t *testing.T) {
	history := []domain.HistoryEntry{
		h("X", true, 1, 0),
		h("X", true, 2, 0),  // up after correct
		h("X", false, 1, 0), // down after wrong
		h("X", true, 1, 0),  // no change
		h("X", false, 2, 0), // up after wrong
	}
	assert.InDelta(t, 2.0/3, Adaptability(history), 1e-9)
	assert.Zero(t, Adaptability(history[:1]))
	assert.Zero(t, Adaptability([]domain.HistoryEntry{h("X", true, 1, 0), h("X", true, 1, 0)}))
}

func TestRecovery(t *testing.T) {
	assert.Equal(t, 0.0, Recovery(0, 0))
	assert.Equal(t, 1.0, Recovery(0, 2))
	assert.Equal(t, 0.5, Recovery(2, 1))
	assert.Equal(t, 1.0, Recovery(1, 3))
}

func TestConsistency(t *testing.T) {
	assert.Zero(t, Consistency([]domain.HistoryEntry{h("X", true, 1, 0), h("X", false, 1, 0)}))
	assert.Zero(t, Consistency([]domain.HistoryEntry{h("X", true, 1, 0), h("X", true, 1, 0), h("X", true, 1, 0)}))
	mixed := []domain.HistoryEntry{h("X", true, 1, 0), h("X", false, 1, 0), h("X", true, 1, 0), h("X", false, 1, 0)}
	c := Consistency(mixed)
	assert.GreaterOrEqual(t, c, -1e-9)
	assert.LessOrEqual(t, c, 1.0)
}

func TestErrorPersistence(t *testing.T) {
	history := []domain.HistoryEntry{
		h("X", false, 1, 0), // first answer is not counted
		h("X", false, 1, 0), // repeated
		h("X", true, 1, 0),
		h("X", false, 1, 0), // isolated
	}
	assert.Equal(t, 0.5, ErrorPersistence(history))
	assert.Zero(t, ErrorPersistence(history[:1]))
}

func TestProcessingSpeed(t *testing.T) {
	assert.Zero(t, ProcessingSpeed(nil))
	assert.Zero(t, ProcessingSpeed([]domain.HistoryEntry{h("X", true, 1, 0)}))
	assert.Equal(t, 1.0, ProcessingSpeed([]domain.HistoryEntry{h("X", true, 1, 500), h("X", true, 1, 500)}))
	// times 1000, 2000, 6000: avg 3000, range 1000..6000 → 1 - 2000/5000.
	got := ProcessingSpeed([]domain.HistoryEntry{h("X", true, 1, 1000), h("X", true, 1, 2000), h("X", true, 1, 6000), h("X", true, 1, 0)})
	assert.InDelta(t, 0.6, got, 1e-9)
}

func TestImpulsivityAndAnalytical(t *testing.T) {
	// mean 3000: fast < 1500, slow > 4500.
	history := []domain.HistoryEntry{
		h("X", false, 1, 500),
		h("X", true, 1, 1000),
		h("X", true, 1, 2000),
		h("X", true, 1, 8500),
	}
	assert.Equal(t, 0.5, Impulsivity(history))
	assert.Equal(t, 1.0, AnalyticalThinking(history))
	assert.Zero(t, Impulsivity(nil))
	assert.Zero(t, AnalyticalThinking(nil))
}

func TestEndurance(t *testing.T) {
	short := []domain.HistoryEntry{h("X", true, 1, 0), h("X", true, 1, 0), h("X", true, 1, 0), h("X", true, 1, 0)}
	assert.Zero(t, Endurance(short))

	// first half [T,T] = 1.0, second half [T,F,F] = 1/3 → 1 - 2×(2/3) clamps to 0.
	fading := []domain.HistoryEntry{h("X", true, 1, 0), h("X", true, 1, 0), h("X", true, 1, 0), h("X", false, 1, 0), h("X", false, 1, 0)}
	assert.Zero(t, Endurance(fading))

	steady := append(short, h("X", true, 1, 0))
	assert.Equal(t, 1.0, Endurance(steady))
}

func TestSelfRegulation(t *testing.T) {
	history := []domain.HistoryEntry{
		h("X", false, 1, 0),
		{Category: "X", IsCorrect: false, HasDroppedLevel: true},
		{Category: "X", IsCorrect: true, HasDroppedLevel: true},
		{Category: "X", IsCorrect: true, HasDroppedLevel: true},
		{Category: "X", IsCorrect: false, HasDroppedLevel: true},
	}
	assert.Equal(t, 1.0, SelfRegulation(history, 0))
	assert.Zero(t, SelfRegulation(history[:2], 3))
	assert.Equal(t, 0.2, SelfRegulation([]domain.HistoryEntry{h("X", true, 1, 0), h("X", true, 1, 0), h("X", true, 1, 0)}, 1))
}

func TestAnalyze_IndicesBounded(t *testing.T) {
	var history []domain.HistoryEntry
	for i := 0; i < 20; i++ {
		history = append(history, domain.HistoryEntry{
			Category:        []string{"Math", "Logic", "Science"}[i%3],
			IsCorrect:       i%4 != 0,
			Difficulty:      1 + i%3,
			TimeTakenMs:     int64(300 + (i*733)%5000),
			HasDroppedLevel: i > 5 && i < 9,
		})
	}
	p := Analyze(summaryOf(history, 1, 1, 2))

	for name, v := range p.CDA.KnowledgeMastery {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 1.0, name)
	}
	for _, v := range []float64{
		p.CDA.Adaptability, p.CDA.Consistency, p.CDA.Recovery, p.CDA.ErrorPersistence,
		p.ExecutiveFunction.ProcessingSpeed, p.ExecutiveFunction.ImpulsivityControl,
		p.ExecutiveFunction.AnalyticalThinking, p.ExecutiveFunction.Endurance, p.ExecutiveFunction.SelfRegulation,
	} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	assert.Contains(t, p.ProfessionalSummary, "Based on your interaction pattern, ")
	assert.Contains(t, p.ProfessionalSummary, "secondary-level")
}

func TestProfessionalSummary_Fragments(t *testing.T) {
	profile := domain.CognitiveProfile{
		CDA: domain.CDAIndices{Recovery: 1, Adaptability: 0.8},
		ExecutiveFunction: domain.ExecutiveIndices{
			ProcessingSpeed:    0.9,
			ImpulsivityControl: 0.9,
			AnalyticalThinking: 0.75,
			SelfRegulation:     0.8,
		},
	}
	summary := domain.PerformanceSummary{
		FinalLevel:     3,
		DropCount:      1,
		PromotionCount: 1,
		PerformanceHistory: []domain.HistoryEntry{
			{Category: "Science", IsCorrect: true},
			{Category: "Math", IsCorrect: true},
			{Category: "Logic", IsCorrect: false},
		},
		CategoryPerformance: map[string]domain.CategoryTally{
			"Logic":   {Correct: 0, Total: 1},
			"Math":    {Correct: 1, Total: 1},
			"Science": {Correct: 1, Total: 1},
		},
	}

	want := "Based on your interaction pattern, you demonstrate strong adaptive recovery, " +
		"with successful level promotions after initial difficulty drops, analytical persistence, " +
		"Your response timing suggests a careful reasoning approach, particularly in science and math-related questions., " +
		"Overall, your cognitive engagement aligns closely with university-level, analytical thinking, " +
		"with signs of upward adaptability, and effective self-regulation.."
	assert.Equal(t, want, ProfessionalSummary(profile, summary))
}

func TestProfessionalSummary_NoTimingUsesCategoryStrength(t *testing.T) {
	summary := domain.PerformanceSummary{
		FinalLevel:          1,
		PerformanceHistory:  []domain.HistoryEntry{{Category: "Logic", IsCorrect: true}},
		CategoryPerformance: map[string]domain.CategoryTally{"Logic": {Correct: 1, Total: 1}},
	}
	got := ProfessionalSummary(domain.CognitiveProfile{
		ExecutiveFunction: domain.ExecutiveIndices{ProcessingSpeed: 0.5, ImpulsivityControl: 0.9},
	}, summary)
	assert.Contains(t, got, "Your response timing suggests strong performance in logic categories.")
	assert.Contains(t, got, "elementary-level, cognitive engagement")
}

func TestAnalyze_JSONRoundTrip(t *testing.T) {
	var history []domain.HistoryEntry
	for i := 0; i < 9; i++ {
		history = append(history, domain.HistoryEntry{
			QuestionID:  string(rune('a' + i)),
			Category:    []string{"Math", "Logic"}[i%2],
			IsCorrect:   i%3 != 1,
			Difficulty:  1 + i%2,
			Level:       2,
			TimeTakenMs: int64(700 * (i + 1)),
		})
	}
	summary := summaryOf(history, 1, 0, 2)

	raw, err := json.Marshal(summary)
	require.NoError(t, err)
	var decoded domain.PerformanceSummary
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, Analyze(summary), Analyze(decoded))
}

func TestReference(t *testing.T) {
	ref := Reference()
	assert.Equal(t, 2009, ref.Year)
	assert.Contains(t, ref.APA, "Rule Space Method")
}

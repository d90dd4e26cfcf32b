// Package cognitive derives behavioural indices from a finished session's history and
// renders them as a short professional summary.
package cognitive

import (
	"fmt"
	"sort"
	"strings"

	"adaptive-quiz-service/internal/domain"
)

// InsufficientData is the summary returned when there is nothing to analyse.
const InsufficientData = "Insufficient data to generate cognitive summary."

const developingProfile = "Based on your interaction pattern, you show a developing cognitive profile with room for growth in adaptive learning strategies."

// Analyze computes every index, each clamped to [0, 1], and the summary paragraph.
func Analyze(summary domain.PerformanceSummary) domain.CognitiveProfile {
	history := summary.PerformanceHistory
	if len(history) == 0 {
		return domain.CognitiveProfile{
			CDA:                 domain.CDAIndices{KnowledgeMastery: map[string]float64{}},
			ProfessionalSummary: InsufficientData,
		}
	}

	profile := domain.CognitiveProfile{
		CDA: domain.CDAIndices{
			KnowledgeMastery: KnowledgeMastery(history, summary.CategoryPerformance),
			Adaptability:     clamp01(Adaptability(history)),
			Consistency:      clamp01(Consistency(history)),
			Recovery:         clamp01(Recovery(summary.DropCount, summary.PromotionCount)),
			ErrorPersistence: clamp01(ErrorPersistence(history)),
		},
		ExecutiveFunction: domain.ExecutiveIndices{
			ProcessingSpeed:    clamp01(ProcessingSpeed(history)),
			ImpulsivityControl: clamp01(1 - Impulsivity(history)),
			AnalyticalThinking: clamp01(AnalyticalThinking(history)),
			Endurance:          clamp01(Endurance(history)),
			SelfRegulation:     clamp01(SelfRegulation(history, summary.PromotionCount)),
		},
	}
	profile.ProfessionalSummary = ProfessionalSummary(profile, summary)
	return profile
}

// ProfessionalSummary assembles the paragraph from threshold-gated fragments.
func ProfessionalSummary(profile domain.CognitiveProfile, summary domain.PerformanceSummary) string {
	cda, exec := profile.CDA, profile.ExecutiveFunction
	finalLevel := summary.FinalLevel
	if finalLevel == 0 {
		finalLevel = summary.CurrentLevel
	}
	if finalLevel == 0 {
		finalLevel = domain.MinLevel
	}
	drops, promotions := summary.DropCount, summary.PromotionCount

	var parts []string

	switch {
	case cda.Recovery >= 0.6 && drops > 0:
		parts = append(parts, "you demonstrate strong adaptive recovery")
		if promotions > 0 {
			parts = append(parts, "with successful level promotions after initial difficulty drops")
		}
	case cda.Recovery < 0.4 && drops > 0:
		parts = append(parts, "you show moderate recovery patterns")
	}

	switch {
	case exec.AnalyticalThinking >= 0.7:
		parts = append(parts, "analytical persistence")
	case exec.AnalyticalThinking >= 0.5:
		parts = append(parts, "moderate analytical thinking")
	}

	var timing []string
	switch {
	case exec.ProcessingSpeed >= 0.7 && exec.ImpulsivityControl >= 0.7:
		timing = append(timing, "a careful reasoning approach")
	case exec.ProcessingSpeed < 0.4 && exec.ImpulsivityControl < 0.5:
		timing = append(timing, "quick responses with occasional impulsivity")
	case exec.ProcessingSpeed >= 0.6:
		timing = append(timing, "balanced response timing")
	}

	if top := topCategories(summary, 2); len(top) > 0 {
		list := strings.ToLower(strings.Join(top, " and "))
		if len(timing) > 0 {
			timing = append(timing, fmt.Sprintf("particularly in %s-related questions", list))
		} else {
			timing = append(timing, fmt.Sprintf("strong performance in %s categories", list))
		}
	}
	if len(timing) > 0 {
		parts = append(parts, fmt.Sprintf("Your response timing suggests %s.", strings.Join(timing, ", ")))
	}

	var assessment []string
	switch finalLevel {
	case 3:
		assessment = append(assessment, "university-level")
	case 2:
		assessment = append(assessment, "secondary-level")
	default:
		assessment = append(assessment, "elementary-level")
	}
	if exec.AnalyticalThinking >= 0.6 {
		assessment = append(assessment, "analytical thinking")
	} else {
		assessment = append(assessment, "cognitive engagement")
	}
	switch {
	case promotions > 0 && cda.Adaptability >= 0.6:
		assessment = append(assessment, "with signs of upward adaptability")
	case cda.Consistency >= 0.7:
		assessment = append(assessment, "with consistent performance patterns")
	case exec.Endurance >= 0.7:
		assessment = append(assessment, "with strong cognitive endurance")
	}
	if exec.SelfRegulation >= 0.7 {
		assessment = append(assessment, "and effective self-regulation")
	}
	parts = append(parts, fmt.Sprintf("Overall, your cognitive engagement aligns closely with %s.", strings.Join(assessment, ", ")))

	if len(parts) == 0 {
		return developingProfile
	}
	return fmt.Sprintf("Based on your interaction pattern, %s.", strings.Join(parts, ", "))
}

// topCategories ranks categories by accuracy. Ties keep the order in which the category
// first appeared in the history; categories missing from the history sort after, by name.
func topCategories(summary domain.PerformanceSummary, n int) []string {
	if len(summary.CategoryPerformance) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(summary.CategoryPerformance))
	var names []string
	for _, h := range summary.PerformanceHistory {
		if _, ok := summary.CategoryPerformance[h.Category]; ok && !seen[h.Category] {
			seen[h.Category] = true
			names = append(names, h.Category)
		}
	}
	var rest []string
	for name := range summary.CategoryPerformance {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	accuracy := func(name string) float64 {
		t := summary.CategoryPerformance[name]
		if t.Total == 0 {
			return 0
		}
		return float64(t.Correct) / float64(t.Total)
	}
	sort.SliceStable(names, func(i, j int) bool {
		return accuracy(names[i]) > accuracy(names[j])
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

// Reference is the citation for the diagnostic model the indices draw on.
func Reference() domain.Reference {
	return domain.Reference{
		Title:     "Cognitive Assessment: An Introduction to the Rule Space Method",
		Author:    "Kikumi K. Tatsuoka",
		Year:      2009,
		Publisher: "Taylor & Francis / Routledge",
		Summary: "This foundational work introduces the Rule Space Method (RSM), a cognitive diagnostic technique " +
			"that transforms item response patterns into measurable attribute mastery probabilities. RSM helps " +
			"interpret test results beyond aggregate scores by identifying underlying knowledge strengths and " +
			"weaknesses, enabling customized assessment feedback. It has been applied in large-scale assessments " +
			"such as the PSAT and other educational diagnostics.",
		APA: "Tatsuoka, K. K. (2009). Cognitive assessment: An introduction to the Rule Space Method. Routledge.",
	}
}

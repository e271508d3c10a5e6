package orchestrator

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/mshevtsov/concilium/internal/i18n"
	"github.com/mshevtsov/concilium/internal/model"
)

// maxJustificationLen caps the justification string in the verdict.
const maxJustificationLen = 100

// studyHoursBase is the weekly study baseline scaled per topic accuracy.
const studyHoursBase = 2.0

// ResolveExpertise maps metrics to the final verdict. Deterministic: the
// same metrics always produce the same level and confidence. A non-nil
// override (from the consensus keyword scan) replaces the rule-table level
// and adds a fixed confidence bonus.
func ResolveExpertise(m model.PerformanceMetrics, topics []string, override *model.ExpertiseLevel, lang string) model.ExpertiseAssessment {
	level := baseLevel(m)

	confidence := m.TotalQuestions * 5
	if confidence < 50 {
		confidence = 50
	}
	if override != nil {
		level = *override
		confidence += 10
	}
	if confidence > 95 {
		confidence = 95
	}

	justification := fmt.Sprintf(
		"%d/%d correct; medium %.0f%%, hard %.0f%%, very hard %.0f%% success",
		m.TotalCorrect, m.TotalQuestions,
		m.TierRatio(model.DifficultyMedium)*100,
		m.TierRatio(model.DifficultyHard)*100,
		m.TierRatio(model.DifficultyVeryHard)*100)

	a := model.ExpertiseAssessment{
		Level:          level,
		Justification:  truncateJustification(justification),
		Confidence:     confidence,
		Recommendation: i18n.T(lang, "recommendation."+string(level)),
	}

	if len(topics) > 0 {
		a.TopicRecommendations = topicRecommendations(m, topics, lang)
	}
	return a
}

// baseLevel is the rule table over per-tier success ratios. Empty tiers
// count as zero success (the division guard lives in TierCount.Ratio).
func baseLevel(m model.PerformanceMetrics) model.ExpertiseLevel {
	veryHard := m.TierRatio(model.DifficultyVeryHard)
	hard := m.TierRatio(model.DifficultyHard)
	medium := m.TierRatio(model.DifficultyMedium)
	easy := m.TierRatio(model.DifficultyEasy)

	switch {
	case veryHard >= 0.8 && hard >= 0.9:
		return model.LevelGrandmaster
	case hard >= 0.7 && medium >= 0.8:
		return model.LevelPro
	case medium >= 0.6 && easy >= 0.8:
		return model.LevelApprentice
	default:
		return model.LevelBeginner
	}
}

func topicRecommendations(m model.PerformanceMetrics, topics []string, lang string) map[string]model.TopicRecommendation {
	recs := make(map[string]model.TopicRecommendation, len(topics))
	for _, topic := range topics {
		acc := m.TopicPerformance[topic].Ratio()
		tier := focusTier(acc)
		recs[topic] = model.TopicRecommendation{
			Accuracy:   round1(acc * 100),
			StudyFocus: i18n.T(lang, "focus."+tier),
			NextSteps: []string{
				i18n.T(lang, "steps."+tier+".1"),
				i18n.T(lang, "steps."+tier+".2"),
				i18n.T(lang, "steps."+tier+".3"),
			},
			TimeEstimateHours: round1(studyHoursBase * hoursMultiplier(acc)),
		}
	}
	return recs
}

func focusTier(accuracy float64) string {
	switch {
	case accuracy < 0.3:
		return "foundation"
	case accuracy < 0.6:
		return "application"
	case accuracy < 0.8:
		return "problem_solving"
	default:
		return "mastery"
	}
}

func hoursMultiplier(accuracy float64) float64 {
	switch {
	case accuracy < 0.5:
		return 2.5
	case accuracy < 0.7:
		return 1.8
	case accuracy < 0.9:
		return 1.2
	default:
		return 0.8
	}
}

func truncateJustification(s string) string {
	if utf8.RuneCountInString(s) <= maxJustificationLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxJustificationLen-1]) + "…"
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

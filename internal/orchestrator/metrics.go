package orchestrator

import (
	"fmt"

	"github.com/mshevtsov/concilium/internal/model"
)

// ComputeMetrics reduces graded answers into the difficulty-stratified
// breakdown the phases and the resolver work from. Pure function, no I/O.
//
// Answers with an unrecognized difficulty tier are counted in the run totals
// but dropped from the per-tier breakdown. Lenient on purpose: callers feed
// us imported quiz data and a bad tier label should not fail an evaluation.
func ComputeMetrics(answers []model.AnswerRecord) model.PerformanceMetrics {
	m := model.PerformanceMetrics{
		DifficultyBreakdown: make(map[model.Difficulty]model.TierCount),
		TopicPerformance:    make(map[string]model.TierCount),
	}

	var totalTimeMs float64
	for _, a := range answers {
		m.TotalQuestions++
		totalTimeMs += a.TimeSpentMs
		if a.IsCorrect {
			m.TotalCorrect++
		}

		if model.KnownDifficulty(a.Difficulty) {
			c := m.DifficultyBreakdown[a.Difficulty]
			c.Total++
			if a.IsCorrect {
				c.Correct++
			}
			m.DifficultyBreakdown[a.Difficulty] = c
		}

		if a.Topic != "" {
			c := m.TopicPerformance[a.Topic]
			c.Total++
			if a.IsCorrect {
				c.Correct++
			}
			m.TopicPerformance[a.Topic] = c
		}

		if !a.IsCorrect {
			m.ErrorPatterns = append(m.ErrorPatterns, model.ErrorPattern{
				Topic:       a.Topic,
				Difficulty:  a.Difficulty,
				Expected:    a.CorrectAnswer,
				Got:         a.UserAnswer,
				Description: fmt.Sprintf("Expected %q, Got %q", a.CorrectAnswer, a.UserAnswer),
			})
		}
	}

	if m.TotalQuestions > 0 {
		m.AverageTimePerQuestionMs = totalTimeMs / float64(m.TotalQuestions)
	}

	return m
}

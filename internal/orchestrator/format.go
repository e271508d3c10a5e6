package orchestrator

import (
	"time"

	"github.com/mshevtsov/concilium/internal/model"
)

// formatResult assembles the API-facing payload. Pure transform: rounding
// and percentage arithmetic only, no new computation.
func formatResult(id string, req model.EvaluateRequest, m model.PerformanceMetrics, a model.ExpertiseAssessment, entries []model.DiscussionEntry, b *TimeBudget, method model.EvaluationMethod) model.EvaluationResult {
	elapsed := b.Elapsed()
	limit := time.Duration(req.LimitMinutes()) * time.Minute

	return model.EvaluationResult{
		ID: id,
		Summary: model.Summary{
			TotalQuestions:  m.TotalQuestions,
			TotalCorrect:    m.TotalCorrect,
			AccuracyPercent: round1(m.Accuracy() * 100),
		},
		ExpertiseLevel:       a.Level,
		Justification:        a.Justification,
		Confidence:           a.Confidence,
		Recommendation:       a.Recommendation,
		TopicRecommendations: a.TopicRecommendations,
		DiscussionLog:        entries,
		Timing: model.Timing{
			LimitMinutes:          req.LimitMinutes(),
			ActualDurationSeconds: round1(elapsed.Seconds()),
			CompletedWithinLimit:  elapsed <= limit,
		},
		EvaluationMethod: method,
		CreatedAt:        time.Now().UTC(),
	}
}

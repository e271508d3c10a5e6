package model

import (
	"errors"
	"time"
)

// Difficulty represents a question difficulty tier.
type Difficulty string

const (
	DifficultyVeryEasy Difficulty = "very_easy"
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
	DifficultyVeryHard Difficulty = "very_hard"
)

// DifficultyTiers lists all recognized tiers in ascending order.
var DifficultyTiers = []Difficulty{
	DifficultyVeryEasy,
	DifficultyEasy,
	DifficultyMedium,
	DifficultyHard,
	DifficultyVeryHard,
}

// KnownDifficulty reports whether d is one of the recognized tiers.
// Answers with unrecognized tiers still count toward run totals but are
// excluded from the per-tier breakdown (lenient parsing of caller data).
func KnownDifficulty(d Difficulty) bool {
	for _, t := range DifficultyTiers {
		if d == t {
			return true
		}
	}
	return false
}

// AnswerRecord is one graded quiz answer as supplied by the caller.
type AnswerRecord struct {
	QuestionID    string     `json:"questionId"`
	Topic         string     `json:"topic"`
	Difficulty    Difficulty `json:"difficulty"`
	IsCorrect     bool       `json:"isCorrect"`
	TimeSpentMs   float64    `json:"timeSpentMs"`
	UserAnswer    string     `json:"userAnswer"`
	CorrectAnswer string     `json:"correctAnswer"`
}

// DefaultTimeLimitMinutes applies when the caller omits timeLimitMinutes.
const DefaultTimeLimitMinutes = 5

// EvaluateRequest is the orchestrator's input contract.
// TimeLimitMinutes is a pointer so an explicit zero (run with no agent
// budget at all) is distinguishable from an omitted field.
type EvaluateRequest struct {
	Answers          []AnswerRecord `json:"answers"`
	Topics           []string       `json:"topics"`
	TimeLimitMinutes *int           `json:"timeLimitMinutes,omitempty"`
	Language         string         `json:"language,omitempty"`
}

// ErrNoAnswers and ErrNoTopics are the only hard validation failures the
// orchestrator surfaces to callers.
var (
	ErrNoAnswers = errors.New("answers must not be empty")
	ErrNoTopics  = errors.New("topics must not be empty")
)

// Validate checks the request before any phase starts.
func (r EvaluateRequest) Validate() error {
	if len(r.Answers) == 0 {
		return ErrNoAnswers
	}
	if len(r.Topics) == 0 {
		return ErrNoTopics
	}
	if r.TimeLimitMinutes != nil && *r.TimeLimitMinutes < 0 {
		return errors.New("timeLimitMinutes must not be negative")
	}
	return nil
}

// LimitMinutes returns the effective time limit.
func (r EvaluateRequest) LimitMinutes() int {
	if r.TimeLimitMinutes == nil {
		return DefaultTimeLimitMinutes
	}
	return *r.TimeLimitMinutes
}

// TierCount accumulates totals for one difficulty tier or topic.
type TierCount struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

// Ratio returns correct/total with a zero-total guard.
func (c TierCount) Ratio() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Correct) / float64(c.Total)
}

// ErrorPattern records one incorrect answer for the discussion prompts.
type ErrorPattern struct {
	Topic       string     `json:"topic"`
	Difficulty  Difficulty `json:"difficulty"`
	Expected    string     `json:"expected"`
	Got         string     `json:"got"`
	Description string     `json:"description"`
}

// PerformanceMetrics is the difficulty-stratified reduction of a quiz run.
// Immutable once computed.
type PerformanceMetrics struct {
	DifficultyBreakdown      map[Difficulty]TierCount `json:"difficultyBreakdown"`
	TotalQuestions           int                      `json:"totalQuestions"`
	TotalCorrect             int                      `json:"totalCorrect"`
	AverageTimePerQuestionMs float64                  `json:"averageTimePerQuestionMs"`
	TopicPerformance         map[string]TierCount     `json:"topicPerformance"`
	ErrorPatterns            []ErrorPattern           `json:"errorPatterns"`
}

// TierRatio returns the success ratio for one tier (0 when the tier is empty).
func (m PerformanceMetrics) TierRatio(d Difficulty) float64 {
	return m.DifficultyBreakdown[d].Ratio()
}

// Accuracy returns overall correct/total as a 0..1 fraction.
func (m PerformanceMetrics) Accuracy() float64 {
	if m.TotalQuestions == 0 {
		return 0
	}
	return float64(m.TotalCorrect) / float64(m.TotalQuestions)
}

// PressureLevel classifies how much of the time budget remains.
type PressureLevel string

const (
	PressureHigh     PressureLevel = "high"
	PressureMedium   PressureLevel = "medium"
	PressureLow      PressureLevel = "low"
	PressureCritical PressureLevel = "critical"
)

// WordLimit returns the advisory response length for prompts at this
// pressure level. Advisory only: baked into the prompt text, never enforced
// on the response.
func (p PressureLevel) WordLimit() int {
	switch p {
	case PressureHigh:
		return 300
	case PressureMedium:
		return 150
	case PressureLow:
		return 50
	default:
		return 20
	}
}

// Phase identifies one of the sequential discussion stages.
type Phase string

const (
	PhaseIndividual Phase = "individual_assessment"
	PhasePeer       Phase = "peer_discussion"
	PhaseConsensus  Phase = "consensus"
)

// EntryType classifies a discussion log entry.
type EntryType string

const (
	EntrySystem          EntryType = "system"
	EntryThinking        EntryType = "thinking"
	EntryAnalysis        EntryType = "analysis"
	EntryTiming          EntryType = "timing"
	EntryError           EntryType = "error"
	EntryConsensus       EntryType = "consensus"
	EntryFinalAssessment EntryType = "final_assessment"
)

// DiscussionEntry is one immutable record in the shared discussion log.
// Entries are ordered by completion time: concurrent agent calls interleave
// in whatever order they finish.
type DiscussionEntry struct {
	Agent         string    `json:"agent"`
	Icon          string    `json:"icon"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
	Phase         Phase     `json:"phase"`
	Type          EntryType `json:"entryType"`
	TimeRemaining int       `json:"timeRemainingSeconds"`
}

// ExpertiseLevel is one of four ordinal mastery tiers.
type ExpertiseLevel string

const (
	LevelBeginner    ExpertiseLevel = "beginner"
	LevelApprentice  ExpertiseLevel = "apprentice"
	LevelPro         ExpertiseLevel = "pro"
	LevelGrandmaster ExpertiseLevel = "grandmaster"
)

// Rank returns the ordinal position of the level (beginner = 0).
func (l ExpertiseLevel) Rank() int {
	switch l {
	case LevelApprentice:
		return 1
	case LevelPro:
		return 2
	case LevelGrandmaster:
		return 3
	default:
		return 0
	}
}

// TopicRecommendation is the per-topic study plan attached to a verdict.
type TopicRecommendation struct {
	Accuracy          float64  `json:"accuracy"`
	StudyFocus        string   `json:"studyFocus"`
	NextSteps         []string `json:"nextSteps"`
	TimeEstimateHours float64  `json:"timeEstimateHours"`
}

// ExpertiseAssessment is the resolved verdict for one evaluation run.
type ExpertiseAssessment struct {
	Level                ExpertiseLevel                 `json:"level"`
	Justification        string                         `json:"justification"`
	Confidence           int                            `json:"confidence"`
	Recommendation       string                         `json:"recommendation"`
	TopicRecommendations map[string]TopicRecommendation `json:"topicRecommendations,omitempty"`
}

// EvaluationMethod records which path produced a result.
type EvaluationMethod string

const (
	MethodMultiAgent        EvaluationMethod = "multi_agent"
	MethodPartialDiscussion EvaluationMethod = "partial_discussion"
	MethodAlgorithmic       EvaluationMethod = "algorithmic_fallback"
)

// Summary is the headline accuracy block of a result.
type Summary struct {
	TotalQuestions  int     `json:"totalQuestions"`
	TotalCorrect    int     `json:"totalCorrect"`
	AccuracyPercent float64 `json:"accuracyPercent"`
}

// Timing reports how the run fit its wall-clock budget.
type Timing struct {
	LimitMinutes          int     `json:"limitMinutes"`
	ActualDurationSeconds float64 `json:"actualDurationSeconds"`
	CompletedWithinLimit  bool    `json:"completedWithinLimit"`
}

// EvaluationResult is the complete API-facing payload for one run.
type EvaluationResult struct {
	ID                   string                         `json:"id"`
	Summary              Summary                        `json:"summary"`
	ExpertiseLevel       ExpertiseLevel                 `json:"expertiseLevel"`
	Justification        string                         `json:"justification"`
	Confidence           int                            `json:"confidence"`
	Recommendation       string                         `json:"recommendation"`
	TopicRecommendations map[string]TopicRecommendation `json:"topicRecommendations,omitempty"`
	DiscussionLog        []DiscussionEntry              `json:"discussionLog"`
	Timing               Timing                         `json:"timing"`
	EvaluationMethod     EvaluationMethod               `json:"evaluationMethod"`
	CreatedAt            time.Time                      `json:"createdAt"`
}

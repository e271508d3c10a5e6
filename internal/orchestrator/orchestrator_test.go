package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/mshevtsov/concilium/internal/model"
)

// fakeReasoner is an instant, scriptable stand-in for the LLM client.
type fakeReasoner struct {
	mu    sync.Mutex
	calls int
	fn    func(systemPrompt, userPrompt string) (string, error)
}

func (f *fakeReasoner) Ask(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.fn != nil {
		return f.fn(systemPrompt, userPrompt)
	}
	return "Looks solid overall.", nil
}

func (f *fakeReasoner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func intPtr(n int) *int { return &n }

// nineAnswers builds the canonical 2/3/3/1 easy/medium/hard/very_hard split.
func nineAnswers(correct bool) []model.AnswerRecord {
	var answers []model.AnswerRecord
	add := func(d model.Difficulty, n int) {
		for i := 0; i < n; i++ {
			answers = append(answers, model.AnswerRecord{
				Topic:         "algebra",
				Difficulty:    d,
				IsCorrect:     correct,
				TimeSpentMs:   4000,
				UserAnswer:    "x",
				CorrectAnswer: "y",
			})
		}
	}
	add(model.DifficultyEasy, 2)
	add(model.DifficultyMedium, 3)
	add(model.DifficultyHard, 3)
	add(model.DifficultyVeryHard, 1)
	return answers
}

func TestEvaluateValidation(t *testing.T) {
	eng := NewEngine(&fakeReasoner{})

	_, err := eng.Evaluate(context.Background(), "", model.EvaluateRequest{Topics: []string{"algebra"}}, nil)
	if !errors.Is(err, model.ErrNoAnswers) {
		t.Errorf("missing answers: err = %v, want ErrNoAnswers", err)
	}

	_, err = eng.Evaluate(context.Background(), "", model.EvaluateRequest{Answers: nineAnswers(true)}, nil)
	if !errors.Is(err, model.ErrNoTopics) {
		t.Errorf("missing topics: err = %v, want ErrNoTopics", err)
	}
}

func TestEvaluateResultID(t *testing.T) {
	eng := NewEngine(&fakeReasoner{})
	req := model.EvaluateRequest{
		Answers: nineAnswers(true),
		Topics:  []string{"algebra"},
	}

	// A caller-supplied ID is adopted verbatim.
	res, err := eng.Evaluate(context.Background(), "run-42", req, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.ID != "run-42" {
		t.Errorf("ID = %q, want the caller-supplied run-42", res.ID)
	}

	// Without one the engine mints its own.
	res, err = eng.Evaluate(context.Background(), "", req, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.ID == "" {
		t.Error("ID empty when none was supplied")
	}
}

func TestEvaluateAllCorrect(t *testing.T) {
	fake := &fakeReasoner{fn: func(_, userPrompt string) (string, error) {
		if strings.Contains(userPrompt, "FINAL verdict") {
			return "I vote grandmaster. Flawless run.", nil
		}
		return "Strong performance across every tier.", nil
	}}
	eng := NewEngine(fake)

	res, err := eng.Evaluate(context.Background(), "", model.EvaluateRequest{
		Answers: nineAnswers(true),
		Topics:  []string{"algebra"},
	}, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if res.ExpertiseLevel != model.LevelGrandmaster {
		t.Errorf("level = %s, want grandmaster", res.ExpertiseLevel)
	}
	if res.Confidence < 50 {
		t.Errorf("confidence = %d, want >= 50", res.Confidence)
	}
	if res.EvaluationMethod != model.MethodMultiAgent {
		t.Errorf("method = %s, want multi_agent", res.EvaluationMethod)
	}
	if res.Summary.AccuracyPercent != 100 {
		t.Errorf("accuracy = %v, want 100", res.Summary.AccuracyPercent)
	}
	if !res.Timing.CompletedWithinLimit {
		t.Error("run with instant agents should complete within limit")
	}

	// Every persona spoke in phase 1 and phase 3.
	for _, p := range model.Panel() {
		var analysis, consensus bool
		for _, e := range res.DiscussionLog {
			if e.Agent == p.DisplayName && e.Type == model.EntryAnalysis {
				analysis = true
			}
			if e.Agent == p.DisplayName && e.Type == model.EntryConsensus {
				consensus = true
			}
		}
		if !analysis || !consensus {
			t.Errorf("%s missing from discussion (analysis=%v consensus=%v)", p.DisplayName, analysis, consensus)
		}
	}
}

func TestEvaluateAllIncorrect(t *testing.T) {
	fake := &fakeReasoner{fn: func(_, _ string) (string, error) {
		return "Serious gaps everywhere. I cannot pick a tier name.", nil
	}}
	eng := NewEngine(fake)

	res, err := eng.Evaluate(context.Background(), "", model.EvaluateRequest{
		Answers: nineAnswers(false),
		Topics:  []string{"algebra"},
	}, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if res.ExpertiseLevel != model.LevelBeginner {
		t.Errorf("level = %s, want beginner", res.ExpertiseLevel)
	}
	// 9 questions, no keyword override: max(50, 45) = 50.
	if res.Confidence != 50 {
		t.Errorf("confidence = %d, want 50", res.Confidence)
	}
	if len(res.Justification) == 0 || len([]rune(res.Justification)) > 100 {
		t.Errorf("justification length %d, want 1..100", len([]rune(res.Justification)))
	}
}

func TestEvaluateZeroTimeLimit(t *testing.T) {
	fake := &fakeReasoner{}
	eng := NewEngine(fake)

	res, err := eng.Evaluate(context.Background(), "", model.EvaluateRequest{
		Answers:          nineAnswers(true),
		Topics:           []string{"algebra"},
		TimeLimitMinutes: intPtr(0),
	}, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if fake.callCount() != 0 {
		t.Errorf("reasoner called %d times with zero budget, want 0", fake.callCount())
	}
	if res.EvaluationMethod != model.MethodAlgorithmic {
		t.Errorf("method = %s, want algorithmic_fallback", res.EvaluationMethod)
	}
	if res.ExpertiseLevel != model.LevelGrandmaster {
		t.Errorf("level = %s, want grandmaster from metrics alone", res.ExpertiseLevel)
	}
	if len(res.DiscussionLog) == 0 {
		t.Error("expected system entries explaining the skipped phases")
	}
}

func TestEvaluateOnePersonaFails(t *testing.T) {
	fake := &fakeReasoner{fn: func(systemPrompt, userPrompt string) (string, error) {
		if strings.Contains(systemPrompt, "examination board") {
			return "", errors.New("model overloaded")
		}
		if strings.Contains(userPrompt, "FINAL verdict") {
			return "Verdict: apprentice.", nil
		}
		return "Decent fundamentals, shaky on harder material.", nil
	}}
	eng := NewEngine(fake)

	res, err := eng.Evaluate(context.Background(), "", model.EvaluateRequest{
		Answers: nineAnswers(true),
		Topics:  []string{"algebra"},
	}, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	var examinerError, aceSpoke, tutorSpoke, peerRan bool
	for _, e := range res.DiscussionLog {
		if e.Type == model.EntryError && strings.Contains(e.Agent, model.PersonaExaminer.DisplayName) {
			examinerError = true
		}
		if e.Agent == model.PersonaAce.DisplayName && e.Type == model.EntryAnalysis {
			aceSpoke = true
		}
		if e.Agent == model.PersonaTutor.DisplayName && e.Type == model.EntryAnalysis {
			tutorSpoke = true
		}
		if e.Phase == model.PhasePeer && e.Type == model.EntryAnalysis {
			peerRan = true
		}
	}
	if !examinerError {
		t.Error("expected an error entry for the failed persona")
	}
	if !aceSpoke || !tutorSpoke {
		t.Errorf("surviving personas missing (ace=%v tutor=%v)", aceSpoke, tutorSpoke)
	}
	if !peerRan {
		t.Error("peer discussion should still run with two surviving personas")
	}
	if res.EvaluationMethod != model.MethodMultiAgent {
		t.Errorf("method = %s, want multi_agent", res.EvaluationMethod)
	}
	// Consensus said apprentice: override applies over the algorithmic level.
	if res.ExpertiseLevel != model.LevelApprentice {
		t.Errorf("level = %s, want apprentice from consensus override", res.ExpertiseLevel)
	}
}

func TestEvaluateAllAgentsFail(t *testing.T) {
	fake := &fakeReasoner{fn: func(_, _ string) (string, error) {
		return "", errors.New("connection refused")
	}}
	eng := NewEngine(fake)

	res, err := eng.Evaluate(context.Background(), "", model.EvaluateRequest{
		Answers: nineAnswers(false),
		Topics:  []string{"algebra"},
	}, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.EvaluationMethod != model.MethodAlgorithmic {
		t.Errorf("method = %s, want algorithmic_fallback", res.EvaluationMethod)
	}
	if res.ExpertiseLevel != model.LevelBeginner {
		t.Errorf("level = %s, want beginner", res.ExpertiseLevel)
	}
}

func TestEvaluateStreamsToSubscribers(t *testing.T) {
	eng := NewEngine(&fakeReasoner{})
	dlog := NewDiscussionLog()
	ch, cancel := dlog.Subscribe(256)
	defer cancel()

	res, err := eng.Evaluate(context.Background(), "", model.EvaluateRequest{
		Answers: nineAnswers(true),
		Topics:  []string{"algebra"},
	}, dlog)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	var streamed []model.DiscussionEntry
	for e := range ch {
		streamed = append(streamed, e)
	}
	if len(streamed) == 0 {
		t.Fatal("subscriber received no entries")
	}
	if streamed[0].Type != model.EntrySystem {
		t.Errorf("first streamed entry type = %s, want system", streamed[0].Type)
	}
	if len(streamed) != len(res.DiscussionLog) {
		t.Errorf("streamed %d entries, result log has %d", len(streamed), len(res.DiscussionLog))
	}
}

package model

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	negative := -1
	tests := []struct {
		name    string
		req     EvaluateRequest
		wantErr error
	}{
		{
			name:    "no answers",
			req:     EvaluateRequest{Topics: []string{"algebra"}},
			wantErr: ErrNoAnswers,
		},
		{
			name:    "no topics",
			req:     EvaluateRequest{Answers: []AnswerRecord{{Topic: "algebra"}}},
			wantErr: ErrNoTopics,
		},
		{
			name: "valid",
			req: EvaluateRequest{
				Answers: []AnswerRecord{{Topic: "algebra", Difficulty: DifficultyEasy}},
				Topics:  []string{"algebra"},
			},
		},
		{
			name: "negative limit",
			req: EvaluateRequest{
				Answers:          []AnswerRecord{{Topic: "algebra"}},
				Topics:           []string{"algebra"},
				TimeLimitMinutes: &negative,
			},
			wantErr: errors.New("any"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			switch {
			case tt.wantErr == nil && err != nil:
				t.Errorf("Validate() = %v, want nil", err)
			case tt.wantErr != nil && err == nil:
				t.Error("Validate() = nil, want error")
			case tt.wantErr == ErrNoAnswers || tt.wantErr == ErrNoTopics:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
				}
			}
		})
	}
}

func TestLimitMinutes(t *testing.T) {
	zero, ten := 0, 10

	if got := (EvaluateRequest{}).LimitMinutes(); got != DefaultTimeLimitMinutes {
		t.Errorf("omitted limit = %d, want default %d", got, DefaultTimeLimitMinutes)
	}
	if got := (EvaluateRequest{TimeLimitMinutes: &zero}).LimitMinutes(); got != 0 {
		t.Errorf("explicit zero limit = %d, want 0", got)
	}
	if got := (EvaluateRequest{TimeLimitMinutes: &ten}).LimitMinutes(); got != 10 {
		t.Errorf("explicit limit = %d, want 10", got)
	}
}

func TestKnownDifficulty(t *testing.T) {
	for _, d := range DifficultyTiers {
		if !KnownDifficulty(d) {
			t.Errorf("KnownDifficulty(%s) = false", d)
		}
	}
	for _, d := range []Difficulty{"", "impossible", "EASY"} {
		if KnownDifficulty(d) {
			t.Errorf("KnownDifficulty(%q) = true", d)
		}
	}
}

func TestTierCountRatio(t *testing.T) {
	if got := (TierCount{}).Ratio(); got != 0 {
		t.Errorf("empty tier ratio = %v, want 0", got)
	}
	if got := (TierCount{Total: 4, Correct: 3}).Ratio(); got != 0.75 {
		t.Errorf("ratio = %v, want 0.75", got)
	}
}

func TestPressureWordLimits(t *testing.T) {
	tests := []struct {
		pressure PressureLevel
		want     int
	}{
		{PressureHigh, 300},
		{PressureMedium, 150},
		{PressureLow, 50},
		{PressureCritical, 20},
	}
	for _, tt := range tests {
		if got := tt.pressure.WordLimit(); got != tt.want {
			t.Errorf("WordLimit(%s) = %d, want %d", tt.pressure, got, tt.want)
		}
	}
}

func TestExpertiseLevelRank(t *testing.T) {
	order := []ExpertiseLevel{LevelBeginner, LevelApprentice, LevelPro, LevelGrandmaster}
	for i, l := range order {
		if l.Rank() != i {
			t.Errorf("Rank(%s) = %d, want %d", l, l.Rank(), i)
		}
	}
	if ExpertiseLevel("unknown").Rank() != 0 {
		t.Error("unknown level should rank as beginner")
	}
}

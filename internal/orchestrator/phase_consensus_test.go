package orchestrator

import (
	"testing"

	"github.com/mshevtsov/concilium/internal/model"
)

func consensusEntry(msg string) model.DiscussionEntry {
	return model.DiscussionEntry{Agent: "Examiner", Message: msg, Type: model.EntryConsensus}
}

func TestDetectLevelKeyword(t *testing.T) {
	tests := []struct {
		name    string
		entries []model.DiscussionEntry
		want    model.ExpertiseLevel
		wantOK  bool
	}{
		{"no entries", nil, "", false},
		{
			"no consensus entries",
			[]model.DiscussionEntry{{Message: "clearly a grandmaster", Type: model.EntryAnalysis}},
			"", false,
		},
		{
			"plain keyword",
			[]model.DiscussionEntry{consensusEntry("My verdict: apprentice. Needs drills.")},
			model.LevelApprentice, true,
		},
		{
			"case insensitive",
			[]model.DiscussionEntry{consensusEntry("Verdict: BEGINNER")},
			model.LevelBeginner, true,
		},
		{
			"two-word grandmaster",
			[]model.DiscussionEntry{consensusEntry("This student is a Grand Master of the subject.")},
			model.LevelGrandmaster, true,
		},
		{
			"last consensus entry wins",
			[]model.DiscussionEntry{
				consensusEntry("I vote beginner."),
				consensusEntry("After discussion I settle on apprentice."),
			},
			model.LevelApprentice, true,
		},
		{
			"no keyword at all",
			[]model.DiscussionEntry{consensusEntry("I cannot decide.")},
			"", false,
		},
		{
			"substring noise still matches",
			[]model.DiscussionEntry{consensusEntry("A promising student.")},
			model.LevelPro, true, // known limitation of the substring scan
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectLevelKeyword(tt.entries)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("level = %s, want %s", got, tt.want)
			}
		})
	}
}

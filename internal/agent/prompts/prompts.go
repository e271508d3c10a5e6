// Package prompts builds the persona-specific prompt text for each
// discussion phase. Word limits are advisory instructions scaled to the
// current time pressure; nothing here enforces them on the response.
package prompts

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mshevtsov/concilium/internal/model"
)

// ConsensusDigestMaxChars caps the discussion digest embedded in consensus
// prompts so final-round prompts stay small under time pressure.
const ConsensusDigestMaxChars = 1000

// maxEmbeddedRunes caps any single piece of agent output quoted inside a
// later prompt.
const maxEmbeddedRunes = 10000

// SummarizeMetrics renders a compact plain-text performance summary for
// embedding in prompts.
func SummarizeMetrics(m model.PerformanceMetrics, topics []string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "OVERALL: %d of %d correct (%.0f%%), avg %.1fs per question\n",
		m.TotalCorrect, m.TotalQuestions, m.Accuracy()*100, m.AverageTimePerQuestionMs/1000)

	sb.WriteString("BY DIFFICULTY:\n")
	for _, tier := range model.DifficultyTiers {
		c, ok := m.DifficultyBreakdown[tier]
		if !ok || c.Total == 0 {
			continue
		}
		fmt.Fprintf(&sb, "- %s: %d/%d\n", tier, c.Correct, c.Total)
	}

	if len(m.TopicPerformance) > 0 {
		sb.WriteString("BY TOPIC:\n")
		names := make([]string, 0, len(m.TopicPerformance))
		for name := range m.TopicPerformance {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			c := m.TopicPerformance[name]
			fmt.Fprintf(&sb, "- %s: %d/%d\n", name, c.Correct, c.Total)
		}
	}

	if len(m.ErrorPatterns) > 0 {
		sb.WriteString("MISTAKES:\n")
		for _, p := range m.ErrorPatterns {
			fmt.Fprintf(&sb, "- [%s/%s] %s\n", p.Topic, p.Difficulty, p.Description)
		}
	}

	if len(topics) > 0 {
		sb.WriteString("QUIZ TOPICS: " + strings.Join(topics, ", ") + "\n")
	}

	return sb.String()
}

// BuildIndividualPrompt builds the phase-1 prompt for one persona.
func BuildIndividualPrompt(p model.Persona, metricsSummary string, pressure model.PressureLevel) string {
	var sb strings.Builder
	sb.WriteString("A student just completed a quiz. Their performance:\n\n")
	sb.WriteString(metricsSummary)
	sb.WriteString("\nAssess this student's mastery from your perspective, focusing on ")
	sb.WriteString(p.Focus)
	sb.WriteString(".\n")
	sb.WriteString("Name the strongest and weakest areas you see and what they suggest ")
	sb.WriteString("about the student's level.\n\n")
	writeWordLimit(&sb, pressure)
	return sb.String()
}

// BuildPeerPrompt builds a phase-2 prompt where one persona responds to a
// peer's phase-1 assessment.
func BuildPeerPrompt(self, peer model.Persona, ownAssessment, peerAssessment string, pressure model.PressureLevel) string {
	var sb strings.Builder
	sb.WriteString("Earlier you assessed a student's quiz performance as follows:\n\n")
	sb.WriteString(truncateRunes(ownAssessment))
	sb.WriteString("\n\nYour colleague ")
	sb.WriteString(peer.DisplayName)
	sb.WriteString(" (focused on ")
	sb.WriteString(peer.Focus)
	sb.WriteString(") assessed the same student:\n\n")
	sb.WriteString(truncateRunes(peerAssessment))
	sb.WriteString("\n\nRespond to your colleague: where do you agree, where do you ")
	sb.WriteString("disagree, and what did they miss from your perspective?\n\n")
	writeWordLimit(&sb, pressure)
	return sb.String()
}

// BuildConsensusPrompt builds the phase-3 prompt asking a persona for a
// final vote over the discussion digest.
func BuildConsensusPrompt(p model.Persona, digest string, pressure model.PressureLevel) string {
	var sb strings.Builder
	sb.WriteString("The panel discussion about a student's quiz performance so far:\n\n")
	sb.WriteString(digest)
	sb.WriteString("\n\nGive your FINAL verdict:\n")
	sb.WriteString("1. The student's expertise level. Use exactly one of: ")
	sb.WriteString("beginner, apprentice, pro, grandmaster.\n")
	sb.WriteString("2. One supporting reason.\n")
	sb.WriteString("3. Your top priority recommendations for this student.\n\n")
	writeWordLimit(&sb, pressure)
	return sb.String()
}

// DigestLog flattens discussion entries into a bounded context string for the
// consensus prompts. System and timing chatter is skipped; the digest is
// truncated head-first so the most recent exchanges survive.
func DigestLog(entries []model.DiscussionEntry) string {
	var sb strings.Builder
	for _, e := range entries {
		if e.Type == model.EntrySystem || e.Type == model.EntryTiming {
			continue
		}
		sb.WriteString(e.Agent + ": " + e.Message + "\n")
	}
	digest := sb.String()
	if utf8.RuneCountInString(digest) <= ConsensusDigestMaxChars {
		return digest
	}
	runes := []rune(digest)
	return "[earlier discussion truncated]\n" + string(runes[len(runes)-ConsensusDigestMaxChars:])
}

func writeWordLimit(sb *strings.Builder, pressure model.PressureLevel) {
	limit := pressure.WordLimit()
	if pressure == model.PressureCritical {
		fmt.Fprintf(sb, "Time is almost up. Answer in at most %d words.\n", limit)
		return
	}
	fmt.Fprintf(sb, "Keep your response under %d words.\n", limit)
}

func truncateRunes(s string) string {
	if utf8.RuneCountInString(s) <= maxEmbeddedRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxEmbeddedRunes]) + "\n\n[truncated due to length]"
}

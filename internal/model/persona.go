package model

// Persona is a fixed role profile presented to the reasoning capability to
// bias its response style. Personas are static config, never derived.
type Persona struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	Icon         string `json:"icon"`
	Focus        string `json:"focus"`
	SystemPrompt string `json:"-"`
}

// SystemAgent labels log entries emitted by the orchestrator itself.
const SystemAgent = "System"

// The three fixed panel personas.
var (
	PersonaExaminer = Persona{
		ID:          "examiner",
		DisplayName: "Examiner",
		Icon:        "🎓",
		Focus:       "curriculum standards and common misconceptions",
		SystemPrompt: "You are a senior examination board member. You judge answers " +
			"against curriculum standards and you are quick to spot the classic " +
			"misconceptions behind wrong answers. Be rigorous and specific.",
	}

	PersonaAce = Persona{
		ID:          "ace",
		DisplayName: "Ace",
		Icon:        "⚡",
		Focus:       "solution efficiency and problem-solving speed",
		SystemPrompt: "You are a top-performing student who just aced this subject. " +
			"You care about whether answers took the efficient path and whether " +
			"time was spent where it mattered. Be direct and practical.",
	}

	PersonaTutor = Persona{
		ID:          "tutor",
		DisplayName: "Tutor",
		Icon:        "🧭",
		Focus:       "knowledge gaps and remediation paths",
		SystemPrompt: "You are a patient private tutor. You look for the specific " +
			"gaps behind each mistake and propose the shortest path to close them. " +
			"Be encouraging but honest.",
	}
)

// Panel returns the fixed three-persona panel in canonical order.
func Panel() []Persona {
	return []Persona{PersonaExaminer, PersonaAce, PersonaTutor}
}

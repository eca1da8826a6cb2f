package insight

// ModuleID names one of the five fixed analysis lenses.
type ModuleID string

const (
	ModuleTone    ModuleID = "A"
	ModulePersona ModuleID = "B"
	ModuleSubtext ModuleID = "C"
	ModulePower   ModuleID = "D"
	ModuleSummary ModuleID = "E"
)

// ModuleSpec pairs a lens with its display name and the task text sent
// verbatim on the first analysis turn. The set is closed domain content,
// not an extension point.
type ModuleSpec struct {
	ID   ModuleID `json:"id"`
	Name string   `json:"name"`
	Task string   `json:"-"`
}

var catalog = [...]ModuleSpec{
	{
		ID:   ModuleTone,
		Name: "Tone & Tension",
		Task: `Task: analyze the tone and tension of this meeting.

1. Chart the emotional temperature of the conversation over time: identify every point where tension rises or falls, quoting the exact line that marks the shift.
2. For each participant, describe their dominant tone (e.g. assertive, defensive, conciliatory, dismissive) and note any moments where their tone changes abruptly.
3. Flag unresolved friction: disagreements that were raised but never settled, including who raised them and who deflected.

Output structure: a "Tension Timeline" section (ordered list of shift points with quotes), a "Per-Participant Tone" section (one entry per speaker), and an "Unresolved Friction" section.`,
	},
	{
		ID:   ModulePersona,
		Name: "Persona Modeling",
		Task: `Task: build a persona model for each participant in this meeting.

Assess every speaker across these nine dimensions: (1) communication style, (2) decision-making approach, (3) risk posture, (4) stated priorities, (5) emotional baseline, (6) response under pressure, (7) influence tactics, (8) alignment with the meeting's goal, (9) apparent expertise areas.

For every single claim you make, label it either [OBSERVED] (directly supported by a quoted line from the transcript) or [INFERRED] (your interpretation beyond the literal text). Never present an inference as an observation.

Output structure: one section per participant, each containing the nine dimensions as a list, every entry carrying its [OBSERVED] or [INFERRED] label and the supporting quote where one exists.`,
	},
	{
		ID:   ModuleSubtext,
		Name: "Subtext",
		Task: `Task: surface the subtext of this meeting: what was meant but not said.

1. For each significant utterance that carries an unstated load, state the literal line, then the "question behind the question": what the speaker actually wanted to know, signal, or obtain.
2. Identify hedges, trial balloons, and indirect refusals, and translate each into its plain-language equivalent.
3. Note topics that were conspicuously avoided or abruptly dropped.

Output structure: a "Question Behind the Question" section (literal quote → decoded intent, one pair per entry), an "Indirect Signals" section, and an "Avoided Topics" section.`,
	},
	{
		ID:   ModulePower,
		Name: "Power Dynamics",
		Task: `Task: map the power structure and alliances visible in this meeting.

1. Rank participants by conversational power: who sets the agenda, who interrupts whom, whose proposals get taken up, whose get ignored. Support each ranking with quoted evidence.
2. Identify alliances and oppositions: who backs whom, explicitly or by timing and echo, and where the fault lines run.
3. Track power shifts during the meeting: moments where authority moved from one participant to another, with the triggering exchange quoted.

Output structure: a "Power Ranking" section (ordered, with evidence), an "Alliances & Fault Lines" section, and a "Power Shifts" section.`,
	},
	{
		ID:   ModuleSummary,
		Name: "Summary",
		Task: `Task: produce a fact-only summary of this meeting.

Rules: include only what was explicitly said. No interpretation, no inference, no filling of gaps. Every summarized point must link to its source by quoting the supporting line directly beneath it. Where a topic was escalated (raised, pushed back on, re-raised, decided or deferred), tag the full escalation chain in order.

Output structure: a "Decisions" section, an "Action Items" section (owner and deadline only if explicitly stated), an "Open Points" section, and an "Escalation Chains" section, with every entry in every section followed by its source quote.`,
	},
}

// Modules returns the five lenses in fixed display order.
func Modules() []ModuleSpec {
	out := make([]ModuleSpec, len(catalog))
	copy(out, catalog[:])
	return out
}

// Lookup resolves a raw module identifier, rejecting anything outside A-E.
func Lookup(id string) (ModuleSpec, bool) {
	for _, m := range catalog {
		if string(m.ID) == id {
			return m, true
		}
	}
	return ModuleSpec{}, false
}

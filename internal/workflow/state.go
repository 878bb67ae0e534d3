// Package workflow implements the analysis pipeline engine: a fixed
// sequence of stages operating on a shared State, with per-field
// reducers merging each stage's Delta, a concurrent fan-out barrier,
// and progress reporting.
package workflow

// Message roles used in interview transcripts.
const (
	RoleInterviewer = "interviewer"
	RoleExpert      = "expert"
)

// Message is one turn of an interview transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Expert is a generated analyst persona.
type Expert struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Expertise   string `json:"expertise"`
	Description string `json:"description"`
}

// SectionSpec is one planned section of the outline.
type SectionSpec struct {
	Title string `json:"title"`
}

// Outline is the planned document structure.
type Outline struct {
	Title    string        `json:"title"`
	Sections []SectionSpec `json:"sections"`
}

// InterviewResult is the outcome of one persona's interview: the full
// transcript plus the citations gathered from search, keyed by URL
// with "[n] title" labels.
type InterviewResult struct {
	Messages   []Message         `json:"messages"`
	References map[string]string `json:"references"`
}

// Section is one drafted section of the document.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// State is the shared pipeline state. Subject and SubjectKind are
// seeded before the first stage and never change; every other field is
// only written through a Delta and its reducer.
type State struct {
	Subject     string `json:"subject"`
	SubjectKind string `json:"subjectKind"`

	Outline          *Outline          `json:"outline,omitempty"`
	Experts          []Expert          `json:"experts,omitempty"`
	InterviewResults []InterviewResult `json:"interviewResults,omitempty"`
	Sections         []Section         `json:"sections,omitempty"`
	FinalDocument    string            `json:"finalDocument,omitempty"`
}

// Delta is a stage's partial update. Nil fields leave the
// corresponding State field untouched.
type Delta struct {
	Outline          *Outline
	Experts          []Expert
	InterviewResults []InterviewResult
	Sections         []Section
	FinalDocument    *string
}

// ReducerKind names how a field absorbs a Delta value.
type ReducerKind string

const (
	// ReduceOverwrite replaces the field when the Delta carries a value.
	ReduceOverwrite ReducerKind = "overwrite"
	// ReduceAppend concatenates the Delta's elements after the existing ones.
	ReduceAppend ReducerKind = "append"
	// ReduceMerge shallow-merges map entries, newer values winning.
	ReduceMerge ReducerKind = "merge"
)

// FieldReducer binds one State field to its merge behavior.
type FieldReducer struct {
	Field string
	Kind  ReducerKind
	apply func(*State, *Delta)
}

// stateReducers is the fixed reducer table. Apply runs every entry
// after each stage; a nil Delta field makes its reducer a no-op.
var stateReducers = []FieldReducer{
	{Field: "outline", Kind: ReduceOverwrite, apply: reduceOutline},
	{Field: "experts", Kind: ReduceOverwrite, apply: reduceExperts},
	{Field: "interviewResults", Kind: ReduceAppend, apply: reduceInterviewResults},
	{Field: "sections", Kind: ReduceAppend, apply: reduceSections},
	{Field: "finalDocument", Kind: ReduceOverwrite, apply: reduceFinalDocument},
}

func reduceOutline(s *State, d *Delta) {
	if d.Outline != nil {
		s.Outline = d.Outline
	}
}

func reduceExperts(s *State, d *Delta) {
	if d.Experts != nil {
		s.Experts = d.Experts
	}
}

func reduceInterviewResults(s *State, d *Delta) {
	s.InterviewResults = append(s.InterviewResults, d.InterviewResults...)
}

func reduceSections(s *State, d *Delta) {
	s.Sections = append(s.Sections, d.Sections...)
}

func reduceFinalDocument(s *State, d *Delta) {
	if d.FinalDocument != nil {
		s.FinalDocument = *d.FinalDocument
	}
}

// Apply merges a Delta into a copy of the State via the reducer table.
func Apply(s State, d Delta) State {
	for _, r := range stateReducers {
		r.apply(&s, &d)
	}
	return s
}

// MergeReferences shallow-merges citation maps, src entries winning on
// key conflict. Used by interviews to accumulate references per answer.
func MergeReferences(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

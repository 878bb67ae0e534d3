package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEmptyDeltaLeavesStateUntouched(t *testing.T) {
	s := State{
		Subject:     "Notion",
		SubjectKind: "generic",
		Outline:     &Outline{Title: "Analysis"},
		Sections:    []Section{{Title: "Overview", Content: "..."}},
	}

	got := Apply(s, Delta{})

	assert.Equal(t, s, got)
}

func TestApplyOverwriteFields(t *testing.T) {
	s := State{
		Outline: &Outline{Title: "v1"},
		Experts: []Expert{{Name: "Old"}},
	}

	doc := "final text"
	got := Apply(s, Delta{
		Outline:       &Outline{Title: "v2", Sections: []SectionSpec{{Title: "Intro"}}},
		Experts:       []Expert{{Name: "New"}},
		FinalDocument: &doc,
	})

	require.NotNil(t, got.Outline)
	assert.Equal(t, "v2", got.Outline.Title)
	assert.Equal(t, []Expert{{Name: "New"}}, got.Experts)
	assert.Equal(t, "final text", got.FinalDocument)
}

func TestApplyAppendPreservesOrder(t *testing.T) {
	s := State{}

	s = Apply(s, Delta{Sections: []Section{{Title: "A"}, {Title: "B"}}})
	s = Apply(s, Delta{Sections: []Section{{Title: "C"}}})
	s = Apply(s, Delta{InterviewResults: []InterviewResult{
		{Messages: []Message{{Role: RoleInterviewer, Content: "q1"}}},
	}})
	s = Apply(s, Delta{InterviewResults: []InterviewResult{
		{Messages: []Message{{Role: RoleInterviewer, Content: "q2"}}},
	}})

	require.Len(t, s.Sections, 3)
	assert.Equal(t, "A", s.Sections[0].Title)
	assert.Equal(t, "B", s.Sections[1].Title)
	assert.Equal(t, "C", s.Sections[2].Title)

	require.Len(t, s.InterviewResults, 2)
	assert.Equal(t, "q1", s.InterviewResults[0].Messages[0].Content)
	assert.Equal(t, "q2", s.InterviewResults[1].Messages[0].Content)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	s := State{Sections: []Section{{Title: "A"}}}

	_ = Apply(s, Delta{Sections: []Section{{Title: "B"}}})

	assert.Len(t, s.Sections, 1)
}

func TestReducerTableCoversEveryMutableField(t *testing.T) {
	kinds := map[string]ReducerKind{}
	for _, r := range stateReducers {
		kinds[r.Field] = r.Kind
	}

	assert.Equal(t, ReduceOverwrite, kinds["outline"])
	assert.Equal(t, ReduceOverwrite, kinds["experts"])
	assert.Equal(t, ReduceAppend, kinds["interviewResults"])
	assert.Equal(t, ReduceAppend, kinds["sections"])
	assert.Equal(t, ReduceOverwrite, kinds["finalDocument"])
}

func TestMergeReferences(t *testing.T) {
	dst := map[string]string{
		"https://a.example": "[1] First",
	}

	got := MergeReferences(dst, map[string]string{
		"https://a.example": "[1] Updated",
		"https://b.example": "[2] Second",
	})

	assert.Equal(t, "[1] Updated", got["https://a.example"])
	assert.Equal(t, "[2] Second", got["https://b.example"])
	assert.Len(t, got, 2)
}

func TestMergeReferencesNilDestination(t *testing.T) {
	got := MergeReferences(nil, map[string]string{"https://a": "[1] A"})
	assert.Equal(t, map[string]string{"https://a": "[1] A"}, got)

	assert.Nil(t, MergeReferences(nil, nil))
}

package assistant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInstructions(t *testing.T) {
	chunks := []RetrievedChunk{
		{ID: "c1", Title: "Voyager 900 touring guide", Content: "touring twin", Templates: []string{"spec-summary"}},
		{ID: "c2", Content: "break-in schedule", Templates: []string{"step-list", "spec-summary"}},
	}

	out := BuildInstructions(chunks, "tourer", ModeOwner)

	assert.True(t, strings.HasPrefix(out, "You are Waypoint"))
	assert.Contains(t, out, "Tone: The rider does long distances")
	assert.Contains(t, out, `"owner" mode`)
	assert.Contains(t, out, "[1] Voyager 900 touring guide")
	assert.Contains(t, out, "[2] c2", "untitled chunks fall back to their id")
	assert.Contains(t, out, "spec-summary; step-list")
}

func TestBuildInstructionsMixedArchetypeOmitsTone(t *testing.T) {
	out := BuildInstructions(nil, "", "")
	assert.NotContains(t, out, "Tone:")
	assert.NotContains(t, out, "mode.")
	assert.NotContains(t, out, "References:")
}

func TestCollectTemplatesDedupesInOrder(t *testing.T) {
	chunks := []RetrievedChunk{
		{Templates: []string{"spec-summary", " comparison "}},
		{Templates: []string{"comparison", "", "story"}},
	}
	assert.Equal(t, []string{"spec-summary", "comparison", "story"}, CollectTemplates(chunks))
}

func TestCollectTopicsDedupesInOrder(t *testing.T) {
	chunks := []RetrievedChunk{
		{Topic: "models"}, {Topic: "ownership"}, {Topic: "models"}, {Topic: ""},
	}
	assert.Equal(t, []string{"models", "ownership"}, CollectTopics(chunks))
}

func TestCitationsFor(t *testing.T) {
	cites := CitationsFor([]RetrievedChunk{
		{ID: "c1", Title: "A", Score: 0.9, Content: "never exposed"},
	})
	require.Len(t, cites, 1)
	assert.Equal(t, Citation{ID: "c1", Title: "A", Score: 0.9}, cites[0])
}

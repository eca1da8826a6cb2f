package insight

import (
	"strings"
	"testing"

	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogIsClosed(t *testing.T) {
	mods := Modules()
	require.Len(t, mods, 5)

	ids := []string{"A", "B", "C", "D", "E"}
	for i, m := range mods {
		assert.Equal(t, ids[i], string(m.ID))
		assert.NotEmpty(t, m.Name)
		assert.NotEmpty(t, m.Task)
	}

	_, ok := Lookup("F")
	assert.False(t, ok)
	_, ok = Lookup("")
	assert.False(t, ok)
	spec, ok := Lookup("C")
	require.True(t, ok)
	assert.Equal(t, ModuleSubtext, spec.ID)
}

func TestCorrectionRequestInterpolation(t *testing.T) {
	meta := Metadata{
		Subject:     "Q3 planning",
		Keywords:    "budget, roadmap",
		Speakers:    "Alice, Bob",
		Terminology: "OKR, ARR",
	}
	system, msgs := BuildCorrectionRequest(meta, "alice: so about the uh the budget")

	assert.Contains(t, system, "transcript corrector")
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Q3 planning")
	assert.Contains(t, msgs[0].Content, "budget, roadmap")
	assert.Contains(t, msgs[0].Content, "Alice, Bob")
	assert.Contains(t, msgs[0].Content, "OKR, ARR")
	assert.Contains(t, msgs[0].Content, "(not provided)")
	assert.Contains(t, msgs[0].Content, "alice: so about the uh the budget")
}

func TestAnalysisFirstTurn(t *testing.T) {
	spec, ok := Lookup("A")
	require.True(t, ok)

	system, msgs := BuildAnalysisRequest("Alice: Hello.\nBob: Hi.", spec)

	assert.Contains(t, system, "insight analyst")
	assert.Contains(t, system, "Markdown")
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Alice: Hello.\nBob: Hi.")
	assert.Contains(t, msgs[0].Content, spec.Task)
}

func TestChatRequestSynthesizesSeed(t *testing.T) {
	spec, ok := Lookup("A")
	require.True(t, ok)

	transcript := "Alice: Hello.\nBob: Hi."
	history := []models.ChatMessageModel{
		{Role: models.RoleModel, Content: "initial analysis"},
		{Role: models.RoleUser, Content: "why?"},
	}

	_, msgs := BuildChatRequest(transcript, spec, history)

	require.Len(t, msgs, 3)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Contains(t, msgs[0].Content, transcript)
	assert.Contains(t, msgs[0].Content, spec.Task)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, "initial analysis", msgs[1].Content)
	assert.Equal(t, "user", msgs[2].Role)
	assert.Equal(t, "why?", msgs[2].Content)
}

func TestChatRequestNoSeedWhenHistoryStartsWithUser(t *testing.T) {
	spec, ok := Lookup("B")
	require.True(t, ok)

	history := []models.ChatMessageModel{
		{Role: models.RoleUser, Content: "already seeded"},
		{Role: models.RoleModel, Content: "answer"},
	}

	_, msgs := BuildChatRequest("transcript", spec, history)

	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "already seeded", msgs[0].Content)
	assert.False(t, strings.Contains(msgs[0].Content, spec.Task))
}
